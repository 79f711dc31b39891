// aviation/skyport_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"errors"
	"slices"
	"testing"

	"github.com/armada-sim/armada/math"
)

func makeSkyport(t *testing.T, pads int) *Skyport {
	t.Helper()
	sp, err := NewSkyport(SkyportLocation{Name: "OAK", Location: math.LL(37.8044, -122.2712), ElevationM: 3}, pads)
	if err != nil {
		t.Fatalf("NewSkyport: %v", err)
	}
	return sp
}

func TestNewSkyportPadCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewSkyport(SkyportLocation{Name: "X"}, n); !errors.Is(err, ErrConfiguration) {
			t.Errorf("%d pads: expected configuration error, got %v", n, err)
		}
	}
	sp := makeSkyport(t, 3)
	if sp.AvailablePads != 3 || sp.NumPads != 3 {
		t.Errorf("got %d/%d pads, expected 3/3", sp.AvailablePads, sp.NumPads)
	}
	if sp.Lat() != 37.8044 || sp.Lon() != -122.2712 {
		t.Errorf("unexpected location %v", sp.Location)
	}
}

func TestSkyportReservationCycle(t *testing.T) {
	sp := makeSkyport(t, 2)

	if !sp.RequestLanding("A") || !sp.RequestLanding("B") {
		t.Fatalf("expected two pads to be granted")
	}
	if sp.RequestLanding("C") {
		t.Errorf("third request granted with two pads")
	}
	if sp.AvailablePads != 0 {
		t.Errorf("AvailablePads = %d, expected 0", sp.AvailablePads)
	}

	if err := sp.LandVehicle("B"); err != nil {
		t.Fatalf("LandVehicle: %v", err)
	}
	if err := sp.LandVehicle("A"); err != nil {
		t.Fatalf("LandVehicle: %v", err)
	}
	if got := sp.Landed(); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("landed = %v, expected [B A]", got)
	}

	if err := sp.TakeoffVehicle("B"); err != nil {
		t.Fatalf("TakeoffVehicle: %v", err)
	}
	if sp.AvailablePads != 1 || sp.IsLanded("B") || !sp.IsLanded("A") {
		t.Errorf("after takeoff: %d pads, landed %v", sp.AvailablePads, sp.Landed())
	}
	if !sp.RequestLanding("C") {
		t.Errorf("freed pad not granted")
	}
}

func TestSkyportTakeoffNotLanded(t *testing.T) {
	sp := makeSkyport(t, 1)
	if err := sp.TakeoffVehicle("ghost"); err != nil {
		t.Errorf("takeoff of non-landed vehicle: %v", err)
	}
	if sp.AvailablePads != 1 {
		t.Errorf("AvailablePads = %d, expected 1", sp.AvailablePads)
	}
}

func TestSkyportInvariantViolations(t *testing.T) {
	t.Run("double landing", func(t *testing.T) {
		sp := makeSkyport(t, 2)
		sp.RequestLanding("A")
		if err := sp.LandVehicle("A"); err != nil {
			t.Fatal(err)
		}
		if err := sp.LandVehicle("A"); !errors.Is(err, ErrAlreadyLanded) || !errors.Is(err, ErrResourceInvariant) {
			t.Errorf("expected ErrAlreadyLanded, got %v", err)
		}
	})

	t.Run("over-release by takeoff", func(t *testing.T) {
		sp := makeSkyport(t, 1)
		// Landing without a reservation leaves the counter at capacity.
		if err := sp.LandVehicle("A"); err != nil {
			t.Fatal(err)
		}
		if err := sp.TakeoffVehicle("A"); !errors.Is(err, ErrPadOverRelease) {
			t.Errorf("expected ErrPadOverRelease, got %v", err)
		}
		if sp.AvailablePads != 1 {
			t.Errorf("AvailablePads = %d after rejected release", sp.AvailablePads)
		}
	})

	t.Run("over-release by cancel", func(t *testing.T) {
		sp := makeSkyport(t, 1)
		if err := sp.CancelReservation("A"); !errors.Is(err, ErrResourceInvariant) {
			t.Errorf("expected invariant violation, got %v", err)
		}
	})
}

func TestSkyportCancelReservation(t *testing.T) {
	sp := makeSkyport(t, 1)
	if !sp.RequestLanding("A") {
		t.Fatal("pad not granted")
	}
	if err := sp.CancelReservation("A"); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if sp.AvailablePads != 1 {
		t.Errorf("AvailablePads = %d, expected 1", sp.AvailablePads)
	}
}

func TestSkyportPark(t *testing.T) {
	sp := makeSkyport(t, 1)
	if err := sp.Park("A"); err != nil {
		t.Fatalf("Park: %v", err)
	}
	if sp.AvailablePads != 0 || !sp.IsLanded("A") {
		t.Errorf("after park: %d pads, landed %v", sp.AvailablePads, sp.Landed())
	}
	if err := sp.Park("B"); !errors.Is(err, ErrNoPadAvailable) {
		t.Errorf("expected ErrNoPadAvailable, got %v", err)
	}
	if err := sp.Park("A"); !errors.Is(err, ErrAlreadyLanded) {
		t.Errorf("expected ErrAlreadyLanded, got %v", err)
	}
}

func TestSkyportPadCounterBounds(t *testing.T) {
	// Interleaved reservations, landings, takeoffs and cancellations; the
	// counter must stay in [0, NumPads] throughout.
	sp := makeSkyport(t, 2)
	ids := []string{"A", "B", "C"}
	for i := range 60 {
		id := ids[i%len(ids)]
		switch i % 4 {
		case 0:
			if sp.RequestLanding(id) {
				_ = sp.LandVehicle(id)
			}
		case 1, 3:
			_ = sp.TakeoffVehicle(id)
		case 2:
			if sp.RequestLanding(id) {
				_ = sp.CancelReservation(id)
			}
		}
		if sp.AvailablePads < 0 || sp.AvailablePads > sp.NumPads {
			t.Fatalf("step %d: AvailablePads = %d", i, sp.AvailablePads)
		}
		if len(sp.Landed())+sp.AvailablePads > sp.NumPads {
			t.Fatalf("step %d: %d landed with %d free pads", i, len(sp.Landed()), sp.AvailablePads)
		}
	}
}
