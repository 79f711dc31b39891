// sim/archive_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim_test

import (
	"bytes"
	"path/filepath"
	"reflect"
	"testing"

	av "github.com/armada-sim/armada/aviation"
	"github.com/armada-sim/armada/sim"
)

func TestArchiveRoundTrip(t *testing.T) {
	s := makeSim(t, meridianA, meridianB)
	addAAV(t, s, "V", av.DefaultFlightParams())
	addAAV(t, s, "W", av.DefaultFlightParams())
	startFlight(t, s, "V", "A", "B", 0)
	if err := s.RunUntil(600); err != nil {
		t.Fatal(err)
	}

	a := s.Archive("meridian")
	if a.Time != 600 || len(a.Trajectories["V"]) != 491 {
		t.Fatalf("archive time %g with %d samples", a.Time, len(a.Trajectories["V"]))
	}

	var buf bytes.Buffer
	if err := a.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, err := sim.ReadArchive(&buf)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}

	if b.Name != "meridian" || b.Time != a.Time || !reflect.DeepEqual(b.Skyports, a.Skyports) {
		t.Errorf("header mismatch: %+v", b)
	}
	if !reflect.DeepEqual(b.Vehicles, []string{"V", "W"}) {
		t.Errorf("vehicles %v", b.Vehicles)
	}
	if !reflect.DeepEqual(b.Trajectories["V"], a.Trajectories["V"]) {
		t.Errorf("trajectory mismatch")
	}
	if len(b.Trajectories["W"]) != 0 {
		t.Errorf("W has %d samples", len(b.Trajectories["W"]))
	}
}

func TestArchiveFile(t *testing.T) {
	s := makeSim(t, meridianA, meridianB)
	addAAV(t, s, "V", av.DefaultFlightParams())
	startFlight(t, s, "V", "A", "B", 0)
	if err := s.RunUntil(50); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "run.armada")
	a := s.Archive("file")
	if err := a.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := sim.ReadArchiveFile(path)
	if err != nil {
		t.Fatalf("ReadArchiveFile: %v", err)
	}
	if len(b.Trajectories["V"]) != 51 {
		t.Errorf("got %d samples back, expected 51", len(b.Trajectories["V"]))
	}

	if _, err := sim.ReadArchiveFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
