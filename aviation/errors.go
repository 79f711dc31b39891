// aviation/errors.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them,
// so callers can test with errors.Is(err, ErrConfiguration) and so forth.
var (
	// ErrConfiguration is reported at setup, before the clock advances.
	ErrConfiguration = errors.New("configuration error")
	// ErrResourceInvariant aborts the offending process's turn.
	ErrResourceInvariant = errors.New("resource invariant violation")
	ErrScheduling        = errors.New("scheduling error")
)

var (
	ErrDuplicateSkyport   = fmt.Errorf("%w: duplicate skyport", ErrConfiguration)
	ErrDuplicateVehicle   = fmt.Errorf("%w: duplicate vehicle", ErrConfiguration)
	ErrInvalidKinematics  = fmt.Errorf("%w: kinematic parameters must be positive", ErrConfiguration)
	ErrInvalidPadCount    = fmt.Errorf("%w: skyport must have at least one pad", ErrConfiguration)
	ErrNoPadAvailable     = fmt.Errorf("%w: no pad available", ErrConfiguration)
	ErrNotFlightCapable   = fmt.Errorf("%w: vehicle is not flight-capable", ErrConfiguration)
	ErrUnknownSkyport     = fmt.Errorf("%w: unknown skyport", ErrConfiguration)
	ErrUnknownVehicle     = fmt.Errorf("%w: unknown vehicle", ErrConfiguration)
	ErrVehicleBusy        = fmt.Errorf("%w: vehicle already has a flight in progress", ErrConfiguration)
	ErrVehicleNotAtOrigin = fmt.Errorf("%w: vehicle is landed at another skyport", ErrConfiguration)

	ErrAlreadyLanded  = fmt.Errorf("%w: vehicle already landed", ErrResourceInvariant)
	ErrPadOverRelease = fmt.Errorf("%w: pad released beyond capacity", ErrResourceInvariant)
)
