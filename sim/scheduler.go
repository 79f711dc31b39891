// sim/scheduler.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"

	"github.com/armada-sim/armada/log"
)

// MaxTime bounds the virtual clock so times stay representable as
// vrtime ticks.
const MaxTime = 1e9

// Process is a cooperative task driven by the Scheduler. Each call to
// Resume is one turn: the process does its work for the current virtual
// time and either reports that it is finished or returns the delay until
// it should be resumed again. A non-nil error aborts the process.
type Process interface {
	Resume(now float64) (delay float64, done bool, err error)
}

// Scheduler drives Processes from an evtm.EventManager. Processes that
// become eligible at the same time are resumed in the order they were
// scheduled: each event carries its scheduling sequence number as its
// vrtime priority.
type Scheduler struct {
	em      *evtm.EventManager
	now     float64
	seq     int64
	pending int
	errs    []error
	lg      *log.Logger
}

func NewScheduler(lg *log.Logger) *Scheduler {
	return &Scheduler{em: evtm.New(), lg: lg}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() float64 {
	return s.now
}

// Pending returns the number of processes waiting to be resumed.
func (s *Scheduler) Pending() int {
	return s.pending
}

func checkTime(what string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxTime {
		return fmt.Errorf("%s %g: %w", what, v, ErrTimeOutOfRange)
	}
	return nil
}

// Schedule makes p eligible to run at now+delay.
func (s *Scheduler) Schedule(p Process, delay float64) error {
	if err := checkTime("delay", delay); err != nil {
		return err
	}
	if delay < 0 {
		return fmt.Errorf("delay %g: %w", delay, ErrNegativeDelay)
	}
	if err := checkTime("time", s.now+delay); err != nil {
		return err
	}
	s.push(p, delay)
	return nil
}

func (s *Scheduler) push(p Process, delay float64) {
	s.seq++
	s.pending++
	s.em.Schedule(s, p, resumeProcess, vrtime.SecondsToTimePri(delay, s.seq))
}

// resumeProcess is the evtm handler for one turn of a process.
func resumeProcess(em *evtm.EventManager, context any, data any) any {
	s, p := context.(*Scheduler), data.(Process)
	s.pending--
	s.now = em.CurrentSeconds()

	delay, done, err := p.Resume(s.now)
	switch {
	case err != nil:
		s.lg.Debug("process aborted", slog.Any("process", p), slog.Float64("now", s.now))
		s.errs = append(s.errs, err)
	case done:
	default:
		if err := s.Schedule(p, delay); err != nil {
			err = fmt.Errorf("process %v: %w", p, err)
			s.lg.Error("process aborted", slog.Any("error", err))
			s.errs = append(s.errs, err)
		}
	}
	return nil
}

// stopRun is scheduled behind every process due at the RunUntil limit.
func stopRun(em *evtm.EventManager, context any, data any) any {
	em.Stop()
	return nil
}

// RunUntil resumes, earliest first, every process that is eligible at or
// before t and leaves the clock at t. Asking for a time before the
// current one does nothing. Processes whose turn returned an error are
// dropped; those errors are joined into the return value after all of the
// due processes have run.
func (s *Scheduler) RunUntil(t float64) error {
	if err := checkTime("run until", t); err != nil {
		return err
	}
	if t < s.now {
		s.lg.Debug("ignoring run_until in the past", slog.Float64("now", s.now), slog.Float64("t", t))
		return nil
	}

	s.em.Schedule(s, nil, stopRun, vrtime.SecondsToTimePri(t-s.now, math.MaxInt64))
	s.em.Run(t + 1)
	s.now = t

	errs := s.errs
	s.errs = nil
	return errors.Join(errs...)
}

// AdvanceBy is RunUntil(Now()+delta).
func (s *Scheduler) AdvanceBy(delta float64) error {
	if err := checkTime("advance", delta); err != nil {
		return err
	}
	if delta < 0 {
		return fmt.Errorf("advance %g: %w", delta, ErrNegativeAdvance)
	}
	return s.RunUntil(s.now + delta)
}
