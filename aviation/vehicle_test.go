// aviation/vehicle_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/armada-sim/armada/math"
)

func TestFlightParamsValidate(t *testing.T) {
	if err := DefaultFlightParams().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	for _, tc := range []struct {
		name   string
		modify func(*FlightParams)
	}{
		{"zero speed", func(fp *FlightParams) { fp.MaxSpeed = 0 }},
		{"negative climb", func(fp *FlightParams) { fp.ClimbRate = -1 }},
		{"zero climb", func(fp *FlightParams) { fp.ClimbRate = 0 }},
		{"zero descent", func(fp *FlightParams) { fp.DescentRate = 0 }},
		{"zero altitude", func(fp *FlightParams) { fp.CruiseAltitude = 0 }},
		{"NaN speed", func(fp *FlightParams) { fp.MaxSpeed = gomath.NaN() }},
		{"infinite speed", func(fp *FlightParams) { fp.MaxSpeed = gomath.Inf(1) }},
		{"infinite altitude", func(fp *FlightParams) { fp.CruiseAltitude = gomath.Inf(1) }},
		{"infinite descent", func(fp *FlightParams) { fp.DescentRate = gomath.Inf(1) }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fp := DefaultFlightParams()
			tc.modify(&fp)
			err := fp.Validate()
			if !errors.Is(err, ErrInvalidKinematics) || !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestFlightParamsDurations(t *testing.T) {
	fp := DefaultFlightParams()
	if d := fp.TakeoffDuration(); d != 30 {
		t.Errorf("takeoff duration %g, expected 30", d)
	}
	if d := fp.LandingDuration(); d != 60 {
		t.Errorf("landing duration %g, expected 60", d)
	}
	if d := fp.CruiseDuration(20000); d != 400 {
		t.Errorf("cruise duration %g, expected 400", d)
	}
	if n := fp.CruiseSteps(20049); n != 400 {
		t.Errorf("cruise steps %d, expected 400", n)
	}

	fp.ClimbRate = 7
	if n := fp.TakeoffSteps(); n != 42 {
		t.Errorf("takeoff steps %d, expected 42", n)
	}
	// The last takeoff step is capped at cruise altitude.
	if alt := fp.TakeoffAltitude(42); alt != 300 {
		t.Errorf("takeoff altitude %g, expected 300", alt)
	}
	if alt := fp.LandingAltitude(59); alt != 0 {
		t.Errorf("final landing altitude %g, expected 0", alt)
	}
	if alt := fp.LandingAltitude(100); alt != 0 {
		t.Errorf("landing altitude went negative: %g", alt)
	}
}

func TestAAVLifecycle(t *testing.T) {
	sfo, oak := math.LL(37.7749, -122.4194), math.LL(37.8044, -122.2712)
	a := NewAAV("AAV001", DefaultFlightParams())

	if _, ok := a.State().(Idle); !ok || a.Altitude() != 0 {
		t.Fatalf("new AAV: state %v altitude %g", a.State(), a.Altitude())
	}

	a.StartTakeoff(sfo)
	if a.State() != AAVTakeoff || a.Position() != sfo {
		t.Errorf("after takeoff: %v at %v", a.State(), a.Position())
	}

	a.StartCruise(oak)
	if tgt, ok := a.Target(); !ok || tgt != oak {
		t.Errorf("cruise target %v %v", tgt, ok)
	}
	if a.Altitude() != 300 {
		t.Errorf("cruise altitude %g", a.Altitude())
	}

	a.StartLanding(oak)
	a.CompleteLanding()
	if a.State() != AAVLanded || a.Altitude() != 0 {
		t.Errorf("after landing: %v altitude %g", a.State(), a.Altitude())
	}
	if _, ok := a.Target(); ok {
		t.Errorf("landed AAV still has a target")
	}

	a.StartTakeoff(oak)
	a.SetAltitude(120)
	a.Abort()
	if _, ok := a.State().(Idle); !ok || a.Altitude() != 0 {
		t.Errorf("after abort: %v altitude %g", a.State(), a.Altitude())
	}
}

func TestEstimateTravelTime(t *testing.T) {
	a := NewAAV("AAV001", DefaultFlightParams())
	from := math.LL(0, 0)
	to := math.LL(1, 0)
	dist := math.Distance2LL(from, to)

	expected := 30 + dist/50 + 60
	if est := a.EstimateTravelTime(from, to); gomath.Abs(est-expected) > 1e-9 {
		t.Errorf("AAV estimate %g, expected %g", est, expected)
	}

	g, err := NewGroundVehicle("AGV001", 10)
	if err != nil {
		t.Fatal(err)
	}
	if est := g.EstimateTravelTime(from, to); gomath.Abs(est-dist/10) > 1e-9 {
		t.Errorf("ground estimate %g, expected %g", est, dist/10)
	}
	if g.Kind() != KindGround || a.Kind() != KindAAV {
		t.Errorf("unexpected kinds %v %v", g.Kind(), a.Kind())
	}

	if _, err := NewGroundVehicle("AGV002", 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	if _, err := NewGroundVehicle("AGV003", gomath.Inf(1)); !errors.Is(err, ErrInvalidKinematics) {
		t.Errorf("infinite ground speed accepted: %v", err)
	}
}

func TestVehicleStateSwitch(t *testing.T) {
	describe := func(s VehicleState) string {
		switch st := s.(type) {
		case Idle:
			return "idle"
		case AAVState:
			return "aav:" + st.String()
		case AGVState:
			return "agv:" + st.String()
		default:
			return "?"
		}
	}

	for _, tc := range []struct {
		s    VehicleState
		want string
	}{
		{Idle{}, "idle"},
		{AAVCruise, "aav:cruise"},
		{AGVParked, "agv:parked"},
	} {
		if got := describe(tc.s); got != tc.want {
			t.Errorf("got %q, expected %q", got, tc.want)
		}
	}

	g, _ := NewGroundVehicle("AGV001", 10)
	g.Park(math.LL(1, 1))
	if g.State() != AGVParked {
		t.Errorf("parked ground vehicle in state %v", g.State())
	}
}

func TestParseVehicleKind(t *testing.T) {
	for in, want := range map[string]VehicleKind{"": KindAAV, "aav": KindAAV, "ground": KindGround, "AGV": KindGround} {
		if k, err := ParseVehicleKind(in); err != nil || k != want {
			t.Errorf("%q: got %v, %v", in, k, err)
		}
	}
	if _, err := ParseVehicleKind("blimp"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
