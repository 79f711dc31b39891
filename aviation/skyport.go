// aviation/skyport.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/armada-sim/armada/math"
)

// SkyportLocation is the fixed geographic description of a skyport.
type SkyportLocation struct {
	Name       string        `json:"name" msgpack:"name"`
	Location   math.Point2LL `json:"location" msgpack:"location"` // [lon, lat]
	ElevationM float64       `json:"elevation_m" msgpack:"elevation_m"`
}

func (l SkyportLocation) Lat() float64 { return l.Location.Latitude() }
func (l SkyportLocation) Lon() float64 { return l.Location.Longitude() }

// Skyport is a landing site with a fixed number of pads. A pad is
// reserved by RequestLanding before a flight departs and is returned either
// when the vehicle that landed on it takes off again or, for a flight that
// was canceled before landing, through CancelReservation.
//
// Invariants: 0 <= AvailablePads <= NumPads and a vehicle id is in the
// landed set iff it occupies a pad here.
type Skyport struct {
	SkyportLocation
	NumPads       int
	AvailablePads int

	landed []string // insertion ordered
}

func NewSkyport(loc SkyportLocation, numPads int) (*Skyport, error) {
	if numPads <= 0 {
		return nil, fmt.Errorf("%s: %d pads: %w", loc.Name, numPads, ErrInvalidPadCount)
	}
	return &Skyport{
		SkyportLocation: loc,
		NumPads:         numPads,
		AvailablePads:   numPads,
	}, nil
}

// RequestLanding reserves a pad for the given vehicle if one is free. A
// false return is flow control; the caller is expected to retry later.
func (s *Skyport) RequestLanding(id string) bool {
	if s.AvailablePads > 0 {
		s.AvailablePads--
		return true
	}
	return false
}

// LandVehicle records that the vehicle now occupies the pad it reserved.
func (s *Skyport) LandVehicle(id string) error {
	if s.IsLanded(id) {
		return fmt.Errorf("%s: %s: %w", s.Name, id, ErrAlreadyLanded)
	}
	s.landed = append(s.landed, id)
	return nil
}

// TakeoffVehicle frees the pad held by the vehicle. It is a no-op for a
// vehicle that isn't landed here.
func (s *Skyport) TakeoffVehicle(id string) error {
	idx := slices.Index(s.landed, id)
	if idx == -1 {
		return nil
	}
	if s.AvailablePads >= s.NumPads {
		return fmt.Errorf("%s: %s: %w", s.Name, id, ErrPadOverRelease)
	}
	s.landed = slices.Delete(s.landed, idx, idx+1)
	s.AvailablePads++
	return nil
}

// CancelReservation returns a pad that was granted by RequestLanding but
// never occupied.
func (s *Skyport) CancelReservation(id string) error {
	if s.AvailablePads >= s.NumPads {
		return fmt.Errorf("%s: %s: %w", s.Name, id, ErrPadOverRelease)
	}
	s.AvailablePads++
	return nil
}

// Park places a vehicle directly on a pad, as if it had reserved one and
// landed.
func (s *Skyport) Park(id string) error {
	if s.IsLanded(id) {
		return fmt.Errorf("%s: %s: %w", s.Name, id, ErrAlreadyLanded)
	}
	if !s.RequestLanding(id) {
		return fmt.Errorf("%s: %s: %w", s.Name, id, ErrNoPadAvailable)
	}
	return s.LandVehicle(id)
}

func (s *Skyport) IsLanded(id string) bool {
	return slices.Contains(s.landed, id)
}

// Landed returns the ids of the vehicles on the skyport's pads, in the
// order they landed.
func (s *Skyport) Landed() []string {
	return slices.Clone(s.landed)
}

func (s *Skyport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", s.Name),
		slog.Int("num_pads", s.NumPads),
		slog.Int("available_pads", s.AvailablePads),
		slog.Any("landed", s.landed))
}
