// scenario/scenario.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package scenario loads JSON scenario files describing skyports, vehicles
// and routes, and turns them into configured simulation runs.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	av "github.com/armada-sim/armada/aviation"
	"github.com/armada-sim/armada/log"
	"github.com/armada-sim/armada/math"
	"github.com/armada-sim/armada/sim"
	"github.com/armada-sim/armada/util"
)

const (
	DefaultName     = "armada"
	DefaultDuration = 600
)

type Scenario struct {
	Name          string        `json:"name"`
	RetryInterval float64       `json:"retry_interval"`
	Duration      float64       `json:"duration"`
	Skyports      []SkyportSpec `json:"skyports"`
	Vehicles      []VehicleSpec `json:"vehicles"`
	Routes        []RouteSpec   `json:"routes"`
}

type SkyportSpec struct {
	Name string `json:"name"`
	// Location may be given in any format math.ParseLatLong accepts;
	// alternatively Lat and Lon may be given as numbers.
	Location   string   `json:"location"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	ElevationM float64  `json:"elevation_m"`
	NumPads    int      `json:"num_pads"`

	pos math.Point2LL
}

// Omitted kinematic parameters take their defaults; ones that are given
// explicitly, zero included, are used as is.
type VehicleSpec struct {
	ID             string   `json:"id"`
	Kind           string   `json:"kind"`
	MaxSpeed       *float64 `json:"max_speed"`
	CruiseAltitude *float64 `json:"cruise_altitude"`
	ClimbRate      *float64 `json:"climb_rate"`
	DescentRate    *float64 `json:"descent_rate"`
	ParkedAt       string   `json:"parked_at"`
}

type RouteSpec struct {
	Vehicle string  `json:"vehicle"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Depart  float64 `json:"depart"`
}

// Default returns the single-vehicle San Francisco to Oakland scenario.
func Default() *Scenario {
	ptr := func(v float64) *float64 { return &v }
	s := &Scenario{
		Name: "bay",
		Skyports: []SkyportSpec{
			{Name: "SFO", Lat: ptr(37.7749), Lon: ptr(-122.4194), ElevationM: 4},
			{Name: "OAK", Lat: ptr(37.8044), Lon: ptr(-122.2712), ElevationM: 3},
		},
		Vehicles: []VehicleSpec{{ID: "AAV001"}},
		Routes:   []RouteSpec{{Vehicle: "AAV001", From: "SFO", To: "OAK"}},
	}
	var e util.ErrorLogger
	s.PostDeserialize(&e)
	if e.HaveErrors() {
		panic(e.String())
	}
	return s
}

// Load reads and validates the scenario file at path.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a JSON scenario. All of the problems found
// are reported together in an error that wraps av.ErrConfiguration.
func Parse(b []byte) (*Scenario, error) {
	var e util.ErrorLogger

	for _, dup := range util.FindDuplicateJSONKeys(b) {
		e.ErrorString("%s", dup)
	}
	util.CheckJSON[Scenario](b, &e)
	if e.HaveErrors() {
		return nil, fmt.Errorf("%w:\n%s", av.ErrConfiguration, e.String())
	}

	var s Scenario
	if err := util.UnmarshalJSONBytes(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", av.ErrConfiguration, err)
	}

	s.PostDeserialize(&e)
	if e.HaveErrors() {
		return nil, fmt.Errorf("%w:\n%s", av.ErrConfiguration, e.String())
	}
	return &s, nil
}

// PostDeserialize fills in defaults and checks the scenario for
// consistency, logging every problem to e.
func (s *Scenario) PostDeserialize(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.RetryInterval == 0 {
		s.RetryInterval = sim.DefaultRetryInterval
	} else if s.RetryInterval < 0 {
		e.ErrorString("retry_interval %g must be positive", s.RetryInterval)
	}
	if s.Duration == 0 {
		s.Duration = DefaultDuration
	} else if s.Duration < 0 {
		e.ErrorString("duration %g must not be negative", s.Duration)
	}

	if len(s.Skyports) == 0 {
		e.ErrorString("no skyports defined")
	}
	skyports := make(map[string]bool)
	e.Push("skyports")
	for i := range s.Skyports {
		sp := &s.Skyports[i]
		if sp.Name == "" {
			e.Push(fmt.Sprintf("[%d]", i))
			e.ErrorString("skyport name must be given")
			e.Pop()
			continue
		}
		e.Push(sp.Name)

		if skyports[sp.Name] {
			e.ErrorString("skyport defined multiple times")
		}
		skyports[sp.Name] = true

		if sp.NumPads == 0 {
			sp.NumPads = 1
		} else if sp.NumPads < 0 {
			e.ErrorString("num_pads %d must be positive", sp.NumPads)
		}

		switch {
		case sp.Location != "" && (sp.Lat != nil || sp.Lon != nil):
			e.ErrorString("cannot give both \"location\" and \"lat\"/\"lon\"")
		case sp.Location != "":
			if p, err := math.ParseLatLong([]byte(sp.Location)); err != nil {
				e.Error(err)
			} else {
				sp.pos = p
			}
		case sp.Lat != nil && sp.Lon != nil:
			if *sp.Lat < -90 || *sp.Lat > 90 || *sp.Lon < -180 || *sp.Lon > 180 {
				e.ErrorString("lat/lon (%g, %g) out of range", *sp.Lat, *sp.Lon)
			} else {
				sp.pos = math.LL(*sp.Lat, *sp.Lon)
			}
		default:
			e.ErrorString("must give \"location\" or both \"lat\" and \"lon\"")
		}
		e.Pop()
	}
	e.Pop()

	vehicles := make(map[string]av.VehicleKind)
	e.Push("vehicles")
	for i := range s.Vehicles {
		v := &s.Vehicles[i]
		if v.ID == "" {
			e.Push(fmt.Sprintf("[%d]", i))
			e.ErrorString("vehicle id must be given")
			e.Pop()
			continue
		}
		e.Push(v.ID)

		kind, err := av.ParseVehicleKind(v.Kind)
		if err != nil {
			e.Error(err)
		}
		if _, ok := vehicles[v.ID]; ok {
			e.ErrorString("vehicle defined multiple times")
		}
		vehicles[v.ID] = kind

		if kind == av.KindAAV {
			if err := v.FlightParams().Validate(); err != nil {
				e.Error(err)
			}
		} else if v.MaxSpeed == nil {
			e.ErrorString("max_speed must be given for ground vehicles")
		} else if !(*v.MaxSpeed > 0) {
			e.ErrorString("max_speed %g must be positive", *v.MaxSpeed)
		}
		if v.ParkedAt != "" && !skyports[v.ParkedAt] {
			e.ErrorString("parked_at: %q: unknown skyport", v.ParkedAt)
		}
		e.Pop()
	}
	e.Pop()

	e.Push("routes")
	for i, r := range s.Routes {
		e.Push(fmt.Sprintf("[%d] %s", i, r.Vehicle))
		if kind, ok := vehicles[r.Vehicle]; !ok {
			e.ErrorString("unknown vehicle")
		} else if kind != av.KindAAV {
			e.ErrorString("%s vehicles cannot fly routes", kind)
		}
		for _, sp := range []string{r.From, r.To} {
			if !skyports[sp] {
				e.ErrorString("%q: unknown skyport", sp)
			}
		}
		if r.Depart < 0 {
			e.ErrorString("depart %g must not be negative", r.Depart)
		}
		e.Pop()
	}
	e.Pop()

	// Each vehicle can only have one flight at a time, so a vehicle may
	// appear in at most one route.
	seen := make(map[string]bool)
	for _, r := range s.Routes {
		if seen[r.Vehicle] {
			e.ErrorString("routes: %s: vehicle has multiple routes", r.Vehicle)
		}
		seen[r.Vehicle] = true
	}
}

// FlightParams returns the vehicle's flight parameters with defaults
// applied for the ones that were omitted.
func (v VehicleSpec) FlightParams() av.FlightParams {
	fp := av.DefaultFlightParams()
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&fp.MaxSpeed, v.MaxSpeed)
	set(&fp.CruiseAltitude, v.CruiseAltitude)
	set(&fp.ClimbRate, v.ClimbRate)
	set(&fp.DescentRate, v.DescentRate)
	return fp
}

// Position returns the skyport's location as resolved by PostDeserialize.
func (sp SkyportSpec) Position() math.Point2LL {
	return sp.pos
}

// Build creates a Sim configured with the scenario's skyports and
// vehicles, with a flight scheduled for each route. ctx bounds the
// lifetime of those flights.
func (s *Scenario) Build(ctx context.Context, lg *log.Logger) (*sim.Sim, error) {
	lg = lg.With(slog.String("scenario", s.Name))

	sm, err := sim.NewSim(lg, sim.Options{RetryInterval: s.RetryInterval})
	if err != nil {
		return nil, err
	}

	for _, sp := range s.Skyports {
		loc := av.SkyportLocation{Name: sp.Name, Location: sp.pos, ElevationM: sp.ElevationM}
		if err := sm.AddSkyport(loc, sp.NumPads); err != nil {
			return nil, err
		}
	}

	for _, v := range s.Vehicles {
		var vehicle av.Vehicle
		kind, err := av.ParseVehicleKind(v.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.ID, err)
		}
		switch kind {
		case av.KindAAV:
			vehicle = av.NewAAV(v.ID, v.FlightParams())
		case av.KindGround:
			speed := 0.
			if v.MaxSpeed != nil {
				speed = *v.MaxSpeed
			}
			if vehicle, err = av.NewGroundVehicle(v.ID, speed); err != nil {
				return nil, err
			}
		}
		if err := sm.AddVehicle(vehicle); err != nil {
			return nil, err
		}
		if v.ParkedAt != "" {
			if err := sm.ParkVehicle(v.ID, v.ParkedAt); err != nil {
				return nil, err
			}
		}
	}

	// Routes are started in departure order so that flights departing at
	// the same time are resumed in file order.
	routes := slices.Clone(s.Routes)
	slices.SortStableFunc(routes, func(a, b RouteSpec) int {
		switch {
		case a.Depart < b.Depart:
			return -1
		case a.Depart > b.Depart:
			return 1
		default:
			return 0
		}
	})
	for _, r := range routes {
		req := sim.FlightRequest{VehicleID: r.Vehicle, From: r.From, To: r.To, Delay: r.Depart}
		if _, err := sm.StartFlight(ctx, req); err != nil {
			return nil, err
		}
	}

	return sm, nil
}
