// scenario/run.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/armada-sim/armada/log"
	"github.com/armada-sim/armada/sim"

	"golang.org/x/sync/errgroup"
)

// Run builds the scenario and advances it to its duration. Errors from
// individual flights do not stop the run; they are returned joined
// together along with the archive of the final state.
func (s *Scenario) Run(ctx context.Context, lg *log.Logger) (sim.Archive, error) {
	sm, err := s.Build(ctx, lg)
	if err != nil {
		return sim.Archive{}, err
	}

	runErr := sm.RunUntil(s.Duration)
	if err := context.Cause(ctx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	lg.Info("scenario finished", slog.String("scenario", s.Name),
		slog.Float64("time", sm.Now()), slog.Int("active_flights", sm.ActiveFlights()))

	return sm.Archive(s.Name), runErr
}

// RunAll runs the given scenarios concurrently, each in its own Sim. The
// returned archives are in the same order as scenarios. Setup errors and
// cancellation of ctx stop the remaining runs; errors from flights are
// collected and returned once all have finished.
func RunAll(ctx context.Context, scenarios []*Scenario, lg *log.Logger) ([]sim.Archive, error) {
	archives := make([]sim.Archive, len(scenarios))
	runErrs := make([]error, len(scenarios))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, s := range scenarios {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sm, err := s.Build(ctx, lg)
			if err != nil {
				return fmt.Errorf("%s: %w", s.Name, err)
			}
			if err := sm.RunUntil(s.Duration); err != nil {
				runErrs[i] = fmt.Errorf("%s: %w", s.Name, err)
			}
			archives[i] = sm.Archive(s.Name)
			return context.Cause(ctx)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return archives, errors.Join(runErrs...)
}
