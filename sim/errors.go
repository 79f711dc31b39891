// sim/errors.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"fmt"

	av "github.com/armada-sim/armada/aviation"
)

// ErrFlightCanceled is the cause reported when a flight is aborted by
// Flight.Cancel; it is flow control rather than an error category.
var ErrFlightCanceled = errors.New("flight canceled")

var (
	ErrNegativeDelay       = fmt.Errorf("%w: negative delay", av.ErrScheduling)
	ErrNegativeAdvance     = fmt.Errorf("%w: negative clock advance", av.ErrScheduling)
	ErrTimeOutOfRange      = fmt.Errorf("%w: time is not finite or beyond the clock horizon", av.ErrScheduling)
	ErrInvalidRetry        = fmt.Errorf("%w: retry interval must be positive", av.ErrConfiguration)
	ErrTrajectoryTimeOrder = fmt.Errorf("%w: trajectory time went backwards", av.ErrResourceInvariant)
)
