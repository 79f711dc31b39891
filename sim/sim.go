// sim/sim.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	av "github.com/armada-sim/armada/aviation"
	"github.com/armada-sim/armada/log"
	"github.com/armada-sim/armada/math"
	"github.com/armada-sim/armada/util"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultRetryInterval  = 10
	DefaultRouteCacheSize = 128
)

type Options struct {
	// RetryInterval is how long a flight waits after being denied a pad
	// before asking again.
	RetryInterval float64
	// RouteCacheSize bounds the number of skyport pairs whose distance is
	// cached.
	RouteCacheSize int
}

type routeKey struct {
	from, to string
}

// Sim owns the skyports, vehicles, trajectory logs, scheduler and clock of
// one simulation run. Its methods may be called from multiple goroutines;
// a flight's processing all happens synchronously inside RunUntil.
type Sim struct {
	mu util.LoggingMutex

	skyports     map[string]*av.Skyport
	skyportOrder []string
	vehicles     map[string]av.Vehicle
	vehicleOrder []string
	flights      map[string]*Flight // vehicle id -> flight in progress

	scheduler   *Scheduler
	recorder    *Recorder
	eventStream *EventStream
	routeCache  *lru.Cache[routeKey, float64]

	retryInterval float64

	lg *log.Logger
}

// SkyportInfo is the external description of a skyport, with the location
// given as [lon, lat] as in GeoJSON.
type SkyportInfo struct {
	Name          string        `json:"name" msgpack:"name"`
	Location      math.Point2LL `json:"location" msgpack:"location"`
	Elevation     float64       `json:"elevation" msgpack:"elevation"`
	NumPads       int           `json:"num_pads" msgpack:"num_pads"`
	AvailablePads int           `json:"available_pads" msgpack:"available_pads"`
	Landed        []string      `json:"landed" msgpack:"landed"`
}

// VehicleInfo summarizes a vehicle's current state.
type VehicleInfo struct {
	ID       string        `json:"id"`
	Kind     string        `json:"kind"`
	State    string        `json:"state"`
	Position math.Point2LL `json:"position"`
	Altitude float64       `json:"altitude"`
	Flight   string        `json:"flight,omitempty"` // phase of the flight in progress
}

func NewSim(lg *log.Logger, opts Options) (*Sim, error) {
	if opts.RetryInterval == 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if !(opts.RetryInterval > 0) {
		return nil, fmt.Errorf("%g: %w", opts.RetryInterval, ErrInvalidRetry)
	}
	if opts.RouteCacheSize <= 0 {
		opts.RouteCacheSize = DefaultRouteCacheSize
	}

	cache, err := lru.New[routeKey, float64](opts.RouteCacheSize)
	if err != nil {
		return nil, err
	}

	return &Sim{
		skyports:      make(map[string]*av.Skyport),
		vehicles:      make(map[string]av.Vehicle),
		flights:       make(map[string]*Flight),
		scheduler:     NewScheduler(lg),
		recorder:      NewRecorder(),
		eventStream:   NewEventStream(lg),
		routeCache:    cache,
		retryInterval: opts.RetryInterval,
		lg:            lg,
	}, nil
}

func (s *Sim) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("now", s.scheduler.Now()),
		slog.Int("skyports", len(s.skyports)),
		slog.Int("vehicles", len(s.vehicles)),
		slog.Int("flights", len(s.flights)),
		slog.Int("pending", s.scheduler.Pending()))
}

///////////////////////////////////////////////////////////////////////////
// Setup

// AddSkyport adds a skyport with the given number of pads, all free.
func (s *Sim) AddSkyport(loc av.SkyportLocation, numPads int) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	if _, ok := s.skyports[loc.Name]; ok {
		return fmt.Errorf("%s: %w", loc.Name, av.ErrDuplicateSkyport)
	}
	sp, err := av.NewSkyport(loc, numPads)
	if err != nil {
		return err
	}
	s.skyports[loc.Name] = sp
	s.skyportOrder = append(s.skyportOrder, loc.Name)

	s.lg.Info("added skyport", slog.Any("skyport", sp), slog.String("location", loc.Location.DMSString()))
	return nil
}

// AddVehicle registers a vehicle; it starts idle with an empty trajectory.
// Kinematic parameters are checked when a flight is started.
func (s *Sim) AddVehicle(v av.Vehicle) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	id := v.ID()
	if _, ok := s.vehicles[id]; ok {
		return fmt.Errorf("%s: %w", id, av.ErrDuplicateVehicle)
	}
	s.vehicles[id] = v
	s.vehicleOrder = append(s.vehicleOrder, id)
	s.recorder.Register(id)

	s.lg.Info("added vehicle", slog.String("id", id), slog.String("kind", v.Kind().String()))
	return nil
}

// ParkVehicle places a vehicle on a pad at the skyport, so that its first
// departure frees real capacity there.
func (s *Sim) ParkVehicle(id, skyport string) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	v, ok := s.vehicles[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, av.ErrUnknownVehicle)
	}
	sp, ok := s.skyports[skyport]
	if !ok {
		return fmt.Errorf("%s: %w", skyport, av.ErrUnknownSkyport)
	}
	if _, busy := s.flights[id]; busy {
		return fmt.Errorf("%s: %w", id, av.ErrVehicleBusy)
	}
	if other := s.landedAt(id); other != nil {
		return fmt.Errorf("%s: at %s: %w", id, other.Name, av.ErrVehicleNotAtOrigin)
	}
	if err := sp.Park(id); err != nil {
		return err
	}

	switch v := v.(type) {
	case *av.AAV:
		v.Park(sp.Location)
	case *av.GroundVehicle:
		v.Park(sp.Location)
	default:
		v.UpdatePosition(sp.Location)
	}
	s.lg.Info("parked vehicle", slog.String("id", id), slog.String("skyport", skyport))
	return nil
}

// landedAt returns the skyport where the vehicle occupies a pad, if any.
func (s *Sim) landedAt(id string) *av.Skyport {
	for _, name := range s.skyportOrder {
		if sp := s.skyports[name]; sp.IsLanded(id) {
			return sp
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// Flights

type FlightRequest struct {
	VehicleID string
	From, To  string
	// Delay is the virtual time to wait before the flight asks for a pad.
	Delay float64
}

// StartFlight validates the request and schedules a flight process for it.
// All configuration problems are reported here, before the clock
// advances. Canceling ctx, or calling Cancel on the returned Flight,
// aborts the flight at its next turn.
func (s *Sim) StartFlight(ctx context.Context, req FlightRequest) (*Flight, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	v, ok := s.vehicles[req.VehicleID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.VehicleID, av.ErrUnknownVehicle)
	}
	aav, ok := v.(*av.AAV)
	if !ok {
		return nil, fmt.Errorf("%s: %s: %w", req.VehicleID, v.Kind(), av.ErrNotFlightCapable)
	}
	if err := aav.Params().Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", req.VehicleID, err)
	}
	from, ok := s.skyports[req.From]
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.From, av.ErrUnknownSkyport)
	}
	to, ok := s.skyports[req.To]
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.To, av.ErrUnknownSkyport)
	}
	if _, busy := s.flights[req.VehicleID]; busy {
		return nil, fmt.Errorf("%s: %w", req.VehicleID, av.ErrVehicleBusy)
	}
	if sp := s.landedAt(req.VehicleID); sp != nil && sp != from {
		return nil, fmt.Errorf("%s: at %s, not %s: %w", req.VehicleID, sp.Name, from.Name,
			av.ErrVehicleNotAtOrigin)
	}

	fctx, cancel := context.WithCancelCause(ctx)
	f := &Flight{
		vehicle:  aav,
		from:     from,
		to:       to,
		distance: s.routeDistance(from, to),
		retry:    s.retryInterval,
		ctx:      fctx,
		cancel:   cancel,
		recorder: s.recorder,
		events:   s.eventStream,
		lg: s.lg.With(slog.String("vehicle", aav.ID()), slog.String("from", from.Name),
			slog.String("to", to.Name)),
		onDone: s.flightDone,
	}
	if err := s.scheduler.Schedule(f, req.Delay); err != nil {
		cancel(err)
		return nil, fmt.Errorf("%s: %w", req.VehicleID, err)
	}
	s.flights[req.VehicleID] = f

	s.lg.Info("flight scheduled", slog.Any("flight", f), slog.Float64("distance_m", f.distance),
		slog.Float64("depart", s.scheduler.Now()+req.Delay))
	return f, nil
}

func (s *Sim) flightDone(f *Flight) {
	if s.flights[f.VehicleID()] == f {
		delete(s.flights, f.VehicleID())
	}
	f.cancel(nil)
}

// routeDistance returns the haversine distance between two skyports,
// caching it per ordered pair.
func (s *Sim) routeDistance(from, to *av.Skyport) float64 {
	key := routeKey{from: from.Name, to: to.Name}
	if d, ok := s.routeCache.Get(key); ok {
		return d
	}
	d := math.Distance2LL(from.Location, to.Location)
	s.routeCache.Add(key, d)
	return d
}

// EstimateFlightTime returns the takeoff, cruise and landing time of the
// vehicle between the two skyports, not counting any wait for a pad.
func (s *Sim) EstimateFlightTime(id, from, to string) (float64, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	v, ok := s.vehicles[id]
	if !ok {
		return 0, fmt.Errorf("%s: %w", id, av.ErrUnknownVehicle)
	}
	a, ok := s.skyports[from]
	if !ok {
		return 0, fmt.Errorf("%s: %w", from, av.ErrUnknownSkyport)
	}
	b, ok := s.skyports[to]
	if !ok {
		return 0, fmt.Errorf("%s: %w", to, av.ErrUnknownSkyport)
	}
	if aav, ok := v.(*av.AAV); ok {
		return aav.EstimateFlightTime(s.routeDistance(a, b)), nil
	}
	return v.EstimateTravelTime(a.Location, b.Location), nil
}

///////////////////////////////////////////////////////////////////////////
// Clock

// RunUntil advances the clock to t, running all flights that are due.
// Errors from flights that were aborted along the way are joined in the
// result; the remaining flights are unaffected.
func (s *Sim) RunUntil(t float64) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.scheduler.RunUntil(t)
}

func (s *Sim) AdvanceBy(delta float64) error {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.scheduler.AdvanceBy(delta)
}

func (s *Sim) Now() float64 {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.scheduler.Now()
}

// ActiveFlights returns the number of flights that have not yet landed or
// been aborted.
func (s *Sim) ActiveFlights() int {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return len(s.flights)
}

///////////////////////////////////////////////////////////////////////////
// Queries

// GetVehicleStates returns a copy of every vehicle's trajectory.
func (s *Sim) GetVehicleStates() map[string][]FlightRecord {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.recorder.Snapshot()
}

// GetSkyportLocations describes the skyports in the order they were added.
func (s *Sim) GetSkyportLocations() []SkyportInfo {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.skyportInfo()
}

func (s *Sim) skyportInfo() []SkyportInfo {
	info := make([]SkyportInfo, 0, len(s.skyportOrder))
	for _, name := range s.skyportOrder {
		sp := s.skyports[name]
		info = append(info, SkyportInfo{
			Name:          sp.Name,
			Location:      sp.Location,
			Elevation:     sp.ElevationM,
			NumPads:       sp.NumPads,
			AvailablePads: sp.AvailablePads,
			Landed:        sp.Landed(),
		})
	}
	return info
}

// VehicleIDs returns the vehicle ids in the order they were added.
func (s *Sim) VehicleIDs() []string {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return deep.MustCopy(s.vehicleOrder)
}

// Vehicle returns the current state of the vehicle.
func (s *Sim) Vehicle(id string) (VehicleInfo, error) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	v, ok := s.vehicles[id]
	if !ok {
		return VehicleInfo{}, fmt.Errorf("%s: %w", id, av.ErrUnknownVehicle)
	}
	return s.vehicleInfo(v), nil
}

func (s *Sim) vehicleInfo(v av.Vehicle) VehicleInfo {
	vi := VehicleInfo{
		ID:       v.ID(),
		Kind:     v.Kind().String(),
		State:    v.State().String(),
		Position: v.Position(),
	}
	if aav, ok := v.(*av.AAV); ok {
		vi.Altitude = aav.Altitude()
	}
	if f, ok := s.flights[v.ID()]; ok {
		vi.Flight = f.Phase()
	}
	return vi
}

// Latest returns the vehicle's most recent trajectory sample.
func (s *Sim) Latest(id string) (FlightRecord, bool) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return s.recorder.Latest(id)
}

// RecentTrajectory returns up to the last n samples of every vehicle's
// trajectory, keyed by vehicle id, along with the ids in the order the
// vehicles were added.
func (s *Sim) RecentTrajectory(n int) ([]string, map[string][]FlightRecord) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	m := make(map[string][]FlightRecord, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		m[id] = s.recorder.Suffix(id, n)
	}
	return deep.MustCopy(s.vehicleOrder), m
}

// Subscribe creates a new event subscription for this simulation.
// The caller is responsible for calling Unsubscribe when done.
func (s *Sim) Subscribe() *EventsSubscription {
	return s.eventStream.Subscribe()
}

// Dump writes a human-readable description of the sim's skyports and
// vehicles to w.
func (s *Sim) Dump(w io.Writer) {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	vehicles := make([]VehicleInfo, 0, len(s.vehicleOrder))
	for _, id := range s.vehicleOrder {
		vehicles = append(vehicles, s.vehicleInfo(s.vehicles[id]))
	}
	godump.Fdump(w, struct {
		Now      float64
		Skyports []SkyportInfo
		Vehicles []VehicleInfo
	}{
		Now:      s.scheduler.Now(),
		Skyports: s.skyportInfo(),
		Vehicles: vehicles,
	})
}
