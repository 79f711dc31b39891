// sim/recorder_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"slices"
	"testing"

	av "github.com/armada-sim/armada/aviation"
	"github.com/armada-sim/armada/math"
)

func TestRecorderAppendAndQuery(t *testing.T) {
	r := NewRecorder()
	if _, ok := r.Latest("AAV001"); ok {
		t.Errorf("Latest on empty recorder returned a sample")
	}
	if s := r.Suffix("AAV001", 5); len(s) != 0 {
		t.Errorf("Suffix on empty recorder returned %v", s)
	}

	p := math.LL(37.7749, -122.4194)
	for i := range 10 {
		if err := r.Record("AAV001", float64(i), p, float64(10*i)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	// Equal times are allowed.
	if err := r.Record("AAV001", 9, p, 0); err != nil {
		t.Fatalf("Record at equal time: %v", err)
	}
	if err := r.Record("AAV002", 3, p, 0); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if n := len(r.Snapshot()["AAV001"]); n != 11 {
		t.Errorf("%d samples, expected 11", n)
	}
	if last, ok := r.Latest("AAV001"); !ok || last.Time != 9 || last.Altitude != 0 {
		t.Errorf("Latest = %+v", last)
	}

	s := r.Suffix("AAV001", 3)
	if len(s) != 3 || s[0].Time != 8 || s[2].Time != 9 {
		t.Errorf("Suffix(3) = %+v", s)
	}
	if len(r.Suffix("AAV001", 100)) != 11 {
		t.Errorf("Suffix past the start should return the whole log")
	}

	// Mutating the returned slices must not affect the log.
	s[0].Altitude = -1
	snap := r.Snapshot()
	snap["AAV001"][0].Altitude = -1
	if r.Suffix("AAV001", 3)[0].Altitude == -1 || r.Suffix("AAV001", 11)[0].Altitude == -1 {
		t.Errorf("recorder log was mutated through a copy")
	}

	if !slices.Equal(r.Vehicles(), []string{"AAV001", "AAV002"}) {
		t.Errorf("Vehicles = %v", r.Vehicles())
	}
}

func TestRecorderRejectsTimeGoingBackwards(t *testing.T) {
	r := NewRecorder()
	p := math.LL(0, 0)
	if err := r.Record("AAV001", 5, p, 0); err != nil {
		t.Fatal(err)
	}
	err := r.Record("AAV001", 4, p, 0)
	if !errors.Is(err, ErrTrajectoryTimeOrder) || !errors.Is(err, av.ErrResourceInvariant) {
		t.Errorf("expected trajectory order violation, got %v", err)
	}
	if len(r.Snapshot()["AAV001"]) != 1 {
		t.Errorf("rejected sample was appended")
	}
}
