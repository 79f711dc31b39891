// aviation/vehicle.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	gomath "math"

	"github.com/armada-sim/armada/math"
)

type VehicleKind int

const (
	KindAAV VehicleKind = iota
	KindGround
)

func (k VehicleKind) String() string {
	return []string{"aav", "ground"}[k]
}

// ParseVehicleKind maps the scenario-file spelling of a kind to a
// VehicleKind; the empty string is taken to mean an AAV.
func ParseVehicleKind(s string) (VehicleKind, error) {
	switch s {
	case "", "aav", "AAV":
		return KindAAV, nil
	case "ground", "agv", "AGV":
		return KindGround, nil
	default:
		return 0, fmt.Errorf("%w: %q: unknown vehicle kind", ErrConfiguration, s)
	}
}

///////////////////////////////////////////////////////////////////////////
// VehicleState

// VehicleState is a closed set of variants: Idle, AAVState or AGVState.
// Use a type switch to dispatch on it.
type VehicleState interface {
	isVehicleState()
	String() string
}

// Idle is the state of a vehicle that has no flight or trip in progress
// and is not parked on a pad.
type Idle struct{}

func (Idle) isVehicleState() {}
func (Idle) String() string  { return "idle" }

type AAVState int

const (
	AAVTakeoff AAVState = iota
	AAVCruise
	AAVLanding
	AAVLanded
)

func (AAVState) isVehicleState() {}

func (s AAVState) String() string {
	return []string{"takeoff", "cruise", "landing", "landed"}[s]
}

// AGVState is the state of a ground vehicle placed at a skyport.
type AGVState int

const AGVParked AGVState = 0

func (AGVState) isVehicleState() {}

func (s AGVState) String() string {
	return []string{"parked"}[s]
}

///////////////////////////////////////////////////////////////////////////
// Vehicle

type Vehicle interface {
	ID() string
	Kind() VehicleKind
	State() VehicleState
	Position() math.Point2LL
	UpdatePosition(p math.Point2LL)
	// EstimateTravelTime returns the time units needed to get from one
	// point to the other with the vehicle's own kinematics.
	EstimateTravelTime(from, to math.Point2LL) float64
}

///////////////////////////////////////////////////////////////////////////
// FlightParams

// Defaults for omitted scenario parameters.
const (
	DefaultMaxSpeed       = 50  // m per time unit
	DefaultCruiseAltitude = 300 // m
	DefaultClimbRate      = 10  // m per time unit
	DefaultDescentRate    = 5   // m per time unit
)

type FlightParams struct {
	MaxSpeed       float64 `json:"max_speed"`
	CruiseAltitude float64 `json:"cruise_altitude"`
	ClimbRate      float64 `json:"climb_rate"`
	DescentRate    float64 `json:"descent_rate"`
}

func DefaultFlightParams() FlightParams {
	return FlightParams{
		MaxSpeed:       DefaultMaxSpeed,
		CruiseAltitude: DefaultCruiseAltitude,
		ClimbRate:      DefaultClimbRate,
		DescentRate:    DefaultDescentRate,
	}
}

// Validate returns an error wrapping ErrInvalidKinematics if any of the
// rates or the cruise altitude is not a positive finite number.
func (fp FlightParams) Validate() error {
	check := func(name string, v float64) error {
		if !(v > 0) || gomath.IsInf(v, 1) {
			return fmt.Errorf("%s %g: %w", name, v, ErrInvalidKinematics)
		}
		return nil
	}
	if err := check("max_speed", fp.MaxSpeed); err != nil {
		return err
	}
	if err := check("cruise_altitude", fp.CruiseAltitude); err != nil {
		return err
	}
	if err := check("climb_rate", fp.ClimbRate); err != nil {
		return err
	}
	return check("descent_rate", fp.DescentRate)
}

func (fp FlightParams) TakeoffDuration() float64 {
	return fp.CruiseAltitude / fp.ClimbRate
}

func (fp FlightParams) LandingDuration() float64 {
	return fp.CruiseAltitude / fp.DescentRate
}

// CruiseDuration returns the time to cover dist meters at MaxSpeed.
func (fp FlightParams) CruiseDuration(dist float64) float64 {
	return dist / fp.MaxSpeed
}

// The step counts are the number of one-time-unit samples that the flight
// process emits for each phase.
func (fp FlightParams) TakeoffSteps() int            { return math.Floor(fp.TakeoffDuration()) }
func (fp FlightParams) LandingSteps() int            { return math.Floor(fp.LandingDuration()) }
func (fp FlightParams) CruiseSteps(dist float64) int { return math.Floor(fp.CruiseDuration(dist)) }

// TakeoffAltitude is the altitude after the i'th (0-based) takeoff step.
func (fp FlightParams) TakeoffAltitude(i int) float64 {
	return min(fp.ClimbRate*float64(i+1), fp.CruiseAltitude)
}

// LandingAltitude is the altitude after the i'th (0-based) landing step.
func (fp FlightParams) LandingAltitude(i int) float64 {
	return max(0, fp.CruiseAltitude-fp.DescentRate*float64(i+1))
}

///////////////////////////////////////////////////////////////////////////
// AAV

// AAV is an autonomous aerial vehicle. Its state, position and altitude
// are only changed by its own flight process.
type AAV struct {
	id       string
	params   FlightParams
	state    VehicleState
	position math.Point2LL
	target   *math.Point2LL
	altitude float64
}

var _ Vehicle = (*AAV)(nil)

func NewAAV(id string, params FlightParams) *AAV {
	return &AAV{id: id, params: params, state: Idle{}}
}

func (a *AAV) ID() string                     { return a.id }
func (a *AAV) Kind() VehicleKind              { return KindAAV }
func (a *AAV) State() VehicleState            { return a.state }
func (a *AAV) Position() math.Point2LL        { return a.position }
func (a *AAV) UpdatePosition(p math.Point2LL) { a.position = p }
func (a *AAV) Altitude() float64              { return a.altitude }
func (a *AAV) SetAltitude(alt float64)        { a.altitude = alt }
func (a *AAV) Params() FlightParams           { return a.params }

// Target returns the destination of the current cruise, if any.
func (a *AAV) Target() (math.Point2LL, bool) {
	if a.target == nil {
		return math.Point2LL{}, false
	}
	return *a.target, true
}

func (a *AAV) EstimateTravelTime(from, to math.Point2LL) float64 {
	return a.EstimateFlightTime(math.Distance2LL(from, to))
}

// EstimateFlightTime returns the takeoff, cruise and landing durations
// summed for a flight of dist meters.
func (a *AAV) EstimateFlightTime(dist float64) float64 {
	return a.params.TakeoffDuration() + a.params.CruiseDuration(dist) + a.params.LandingDuration()
}

// Park puts the vehicle on the ground at p, in the landed state.
func (a *AAV) Park(p math.Point2LL) {
	a.position = p
	a.altitude = 0
	a.target = nil
	a.state = AAVLanded
}

func (a *AAV) StartTakeoff(origin math.Point2LL) {
	a.position = origin
	a.target = nil
	a.state = AAVTakeoff
}

func (a *AAV) StartCruise(dest math.Point2LL) {
	a.target = &dest
	a.altitude = a.params.CruiseAltitude
	a.state = AAVCruise
}

func (a *AAV) StartLanding(dest math.Point2LL) {
	a.position = dest
	a.state = AAVLanding
}

func (a *AAV) CompleteLanding() {
	a.altitude = 0
	a.target = nil
	a.state = AAVLanded
}

// Abort ends a flight in progress, leaving the vehicle idle on the ground
// at its current position.
func (a *AAV) Abort() {
	a.altitude = 0
	a.target = nil
	a.state = Idle{}
}

func (a *AAV) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", a.id),
		slog.String("state", a.state.String()),
		slog.String("position", a.position.DDString()),
		slog.Float64("altitude", a.altitude))
}

///////////////////////////////////////////////////////////////////////////
// GroundVehicle

// GroundVehicle is a ground-based vehicle; it shares the Vehicle interface
// but cannot fly between skyports.
type GroundVehicle struct {
	id       string
	maxSpeed float64
	state    VehicleState
	position math.Point2LL
}

var _ Vehicle = (*GroundVehicle)(nil)

func NewGroundVehicle(id string, maxSpeed float64) (*GroundVehicle, error) {
	if !(maxSpeed > 0) || gomath.IsInf(maxSpeed, 1) {
		return nil, fmt.Errorf("%s: max_speed %g: %w", id, maxSpeed, ErrInvalidKinematics)
	}
	return &GroundVehicle{id: id, maxSpeed: maxSpeed, state: Idle{}}, nil
}

func (g *GroundVehicle) ID() string                     { return g.id }
func (g *GroundVehicle) Kind() VehicleKind              { return KindGround }
func (g *GroundVehicle) State() VehicleState            { return g.state }
func (g *GroundVehicle) Position() math.Point2LL        { return g.position }
func (g *GroundVehicle) UpdatePosition(p math.Point2LL) { g.position = p }

func (g *GroundVehicle) EstimateTravelTime(from, to math.Point2LL) float64 {
	return math.Distance2LL(from, to) / g.maxSpeed
}

// Park leaves the ground vehicle parked at p.
func (g *GroundVehicle) Park(p math.Point2LL) {
	g.position = p
	g.state = AGVParked
}
