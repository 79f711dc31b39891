// sim/flight.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"context"
	"fmt"
	"log/slog"

	av "github.com/armada-sim/armada/aviation"
	"github.com/armada-sim/armada/log"
	"github.com/armada-sim/armada/math"
)

type flightPhase int

const (
	phaseGate flightPhase = iota
	phaseTakeoff
	phaseCruise
	phaseLanding
	phaseLanded
	phaseAborted
)

func (p flightPhase) String() string {
	return []string{"gate", "takeoff", "cruise", "landing", "landed", "aborted"}[p]
}

// Flight is the Process that flies one AAV from one skyport to another.
// It waits at the gate until a pad at the destination is granted, retrying
// every retry interval, and then climbs, cruises and descends, emitting one
// trajectory sample per time unit. Phases with zero steps are passed
// through within the same turn.
type Flight struct {
	vehicle  *av.AAV
	from, to *av.Skyport
	distance float64
	retry    float64

	ctx    context.Context
	cancel context.CancelCauseFunc

	phase       flightPhase
	step, steps int
	started     bool
	reserved    bool // pad at the destination granted but not yet occupied

	recorder *Recorder
	events   *EventStream
	lg       *log.Logger
	onDone   func(*Flight)
}

// VehicleID returns the id of the vehicle flying this flight.
func (f *Flight) VehicleID() string {
	return f.vehicle.ID()
}

// Cancel requests that the flight be aborted; it takes effect the next
// time the scheduler resumes the flight.
func (f *Flight) Cancel() {
	f.cancel(ErrFlightCanceled)
}

func (f *Flight) Phase() string {
	return f.phase.String()
}

func (f *Flight) Done() bool {
	return f.phase == phaseLanded || f.phase == phaseAborted
}

func (f *Flight) String() string {
	return fmt.Sprintf("flight %s %s->%s", f.vehicle.ID(), f.from.Name, f.to.Name)
}

func (f *Flight) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("vehicle", f.vehicle.ID()),
		slog.String("from", f.from.Name),
		slog.String("to", f.to.Name),
		slog.String("phase", f.phase.String()),
		slog.Int("step", f.step),
		slog.Int("steps", f.steps))
}

func (f *Flight) Resume(now float64) (float64, bool, error) {
	if err := f.ctx.Err(); err != nil {
		return 0, true, f.abort(now, context.Cause(f.ctx))
	}

	id := f.vehicle.ID()
	if !f.started {
		f.started = true
		f.post(now, FlightStartedEvent, f.from.Name, "")
	}

	if f.phase == phaseGate {
		if !f.to.RequestLanding(id) {
			f.lg.Debug("pad denied", slog.String("skyport", f.to.Name), slog.Float64("now", now),
				slog.Float64("retry", f.retry))
			f.post(now, PadDeniedEvent, f.to.Name, "")
			return f.retry, false, nil
		}
		f.reserved = true
		f.post(now, PadGrantedEvent, f.to.Name, "")

		f.vehicle.StartTakeoff(f.from.Location)
		if err := f.from.TakeoffVehicle(id); err != nil {
			return 0, true, f.fail(now, err)
		}
		f.enter(now, phaseTakeoff, f.vehicle.Params().TakeoffSteps())
	}

	params := f.vehicle.Params()
	for {
		if f.step < f.steps {
			var pos math.Point2LL
			var alt float64
			switch f.phase {
			case phaseTakeoff:
				pos, alt = f.from.Location, params.TakeoffAltitude(f.step)
			case phaseCruise:
				pos = math.Lerp2LL(f.from.Location, f.to.Location, float64(f.step+1)/float64(f.steps))
				alt = params.CruiseAltitude
			case phaseLanding:
				pos, alt = f.to.Location, params.LandingAltitude(f.step)
			}
			f.vehicle.UpdatePosition(pos)
			f.vehicle.SetAltitude(alt)
			if err := f.recorder.Record(id, now, pos, alt); err != nil {
				return 0, true, f.fail(now, err)
			}
			f.step++
			return 1, false, nil
		}

		switch f.phase {
		case phaseTakeoff:
			f.vehicle.StartCruise(f.to.Location)
			f.enter(now, phaseCruise, params.CruiseSteps(f.distance))

		case phaseCruise:
			f.vehicle.StartLanding(f.to.Location)
			f.enter(now, phaseLanding, params.LandingSteps())

		case phaseLanding:
			f.vehicle.CompleteLanding()
			if err := f.to.LandVehicle(id); err != nil {
				return 0, true, f.fail(now, err)
			}
			f.reserved = false
			if err := f.recorder.Record(id, now, f.to.Location, 0); err != nil {
				return 0, true, f.fail(now, err)
			}
			f.enter(now, phaseLanded, 0)
			f.post(now, LandedEvent, f.to.Name, "")
			f.lg.Info("landed", slog.String("skyport", f.to.Name), slog.Float64("now", now))
			f.onDone(f)
			return 0, true, nil

		default:
			return 0, true, f.fail(now, fmt.Errorf("unexpected phase %s", f.phase))
		}
	}
}

func (f *Flight) enter(now float64, phase flightPhase, steps int) {
	f.phase, f.step, f.steps = phase, 0, steps
	f.lg.Debug("phase change", slog.String("phase", phase.String()), slog.Int("steps", steps),
		slog.Float64("now", now))
	f.post(now, PhaseChangedEvent, "", phase.String())
}

func (f *Flight) post(now float64, t EventType, skyport, phase string) {
	f.events.Post(Event{
		Type:      t,
		Time:      now,
		VehicleID: f.vehicle.ID(),
		Skyport:   skyport,
		Phase:     phase,
	})
}

// abort handles cancellation: the reservation at the destination, if
// unused, is returned. A vehicle still parked at its origin stays landed
// there; one that already left is left idle.
func (f *Flight) abort(now float64, cause error) error {
	var err error
	if f.reserved {
		err = f.to.CancelReservation(f.vehicle.ID())
		f.reserved = false
	}
	if f.from.IsLanded(f.vehicle.ID()) {
		f.vehicle.Park(f.from.Location)
	} else {
		f.vehicle.Abort()
	}
	f.phase = phaseAborted

	f.lg.Warn("flight aborted", slog.Float64("now", now), slog.Any("cause", cause))
	f.events.Post(Event{Type: FlightAbortedEvent, Time: now, VehicleID: f.vehicle.ID(),
		Skyport: f.to.Name, Message: cause.Error()})
	f.onDone(f)

	if err != nil {
		return fmt.Errorf("%s: aborting: %w", f.vehicle.ID(), err)
	}
	return nil
}

// fail ends the flight after an invariant violation. The error is not
// retried; the vehicle is left idle and the pads are left as they are.
func (f *Flight) fail(now float64, err error) error {
	err = fmt.Errorf("%s: %s: %w", f.vehicle.ID(), f.phase, err)
	f.vehicle.Abort()
	f.phase = phaseAborted

	f.lg.Error("flight failed", slog.Float64("now", now), slog.Any("error", err))
	f.events.Post(Event{Type: ProcessErrorEvent, Time: now, VehicleID: f.vehicle.ID(),
		Message: err.Error()})
	f.onDone(f)
	return err
}
