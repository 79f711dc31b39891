// sim/recorder.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"slices"

	"github.com/armada-sim/armada/math"

	"github.com/brunoga/deep"
)

// FlightRecord is one trajectory sample.
type FlightRecord struct {
	Time     float64       `json:"time" msgpack:"time"`
	Position math.Point2LL `json:"position" msgpack:"position"` // [lon, lat]
	Altitude float64       `json:"altitude" msgpack:"altitude"`
}

// Recorder holds the append-only trajectory log of each vehicle. Times
// within a vehicle's log never decrease.
type Recorder struct {
	logs  map[string][]FlightRecord
	order []string // vehicle ids in registration order
}

func NewRecorder() *Recorder {
	return &Recorder{logs: make(map[string][]FlightRecord)}
}

// Register creates an empty log for the vehicle, so that it is reported
// by Snapshot before its first flight.
func (r *Recorder) Register(id string) {
	if _, ok := r.logs[id]; !ok {
		r.logs[id] = []FlightRecord{}
		r.order = append(r.order, id)
	}
}

// Record appends a sample to the vehicle's log.
func (r *Recorder) Record(id string, time float64, pos math.Point2LL, alt float64) error {
	samples, ok := r.logs[id]
	if !ok {
		r.order = append(r.order, id)
	} else if n := len(samples); n > 0 && time < samples[n-1].Time {
		return fmt.Errorf("%s: sample at %g after %g: %w", id, time, samples[n-1].Time, ErrTrajectoryTimeOrder)
	}
	r.logs[id] = append(samples, FlightRecord{Time: time, Position: pos, Altitude: alt})
	return nil
}

// Latest returns the most recent sample for the vehicle, if it has any.
func (r *Recorder) Latest(id string) (FlightRecord, bool) {
	samples := r.logs[id]
	if len(samples) == 0 {
		return FlightRecord{}, false
	}
	return samples[len(samples)-1], true
}

// Suffix returns a copy of the last n samples of the vehicle's log, or
// all of them if there are fewer than n.
func (r *Recorder) Suffix(id string, n int) []FlightRecord {
	samples := r.logs[id]
	n = math.Clamp(n, 0, len(samples))
	return slices.Clone(samples[len(samples)-n:])
}

// Vehicles returns the ids that have logs, in registration order.
func (r *Recorder) Vehicles() []string {
	return slices.Clone(r.order)
}

// Snapshot returns a deep copy of every vehicle's log.
func (r *Recorder) Snapshot() map[string][]FlightRecord {
	return deep.MustCopy(r.logs)
}
