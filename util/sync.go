// util/sync.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	gomath "math"
	"runtime"
	"sync"
	"time"

	"github.com/armada-sim/armada/log"

	"github.com/shirou/gopsutil/v3/cpu"
)

///////////////////////////////////////////////////////////////////////////
// LoggingMutex

var heldMutexesMutex sync.Mutex
var heldMutexes map[*LoggingMutex]interface{} = make(map[*LoggingMutex]interface{})

// LoggingMutex is a sync.Mutex that records where it was acquired and
// logs long waits and long holds. It is used to guard the Sim's public
// API, which is shared by the HTTP handlers.
type LoggingMutex struct {
	sync.Mutex
	acq      time.Time
	acqStack []log.Frame
}

// MutexWaitWarning is how long Lock waits before logging the held mutexes
// along with process load; the wait continues afterward.
var MutexWaitWarning = 10 * time.Second

func mutexWaitWarning() time.Duration {
	if log.RaceEnabled {
		// The race detector slows everything down by 5-10x.
		return 10 * MutexWaitWarning
	}
	return MutexWaitWarning
}

func (l *LoggingMutex) Lock(lg *log.Logger) {
	tryTime := time.Now()

	if !l.Mutex.TryLock() {
		locked := make(chan struct{}, 1)

		go func() {
			l.Mutex.Lock()
			locked <- struct{}{}
		}()

		select {
		case <-locked:

		case <-time.After(mutexWaitWarning()):
			heldMutexesMutex.Lock()
			lg.Error("unable to acquire mutex", slog.Any("mutex", l),
				slog.Duration("waited", mutexWaitWarning()), slog.Int("held_mutexes", len(heldMutexes)))
			heldMutexesMutex.Unlock()

			logProcessLoad(lg)
			<-locked
		}
	}

	heldMutexesMutex.Lock()
	heldMutexes[l] = nil
	heldMutexesMutex.Unlock()

	l.acq = time.Now()
	l.acqStack = log.Callstack(l.acqStack)
	if w := l.acq.Sub(tryTime); w > time.Second {
		lg.Warn("long wait to acquire mutex", slog.Any("mutex", l), slog.Duration("wait", w))
	}
}

func (l *LoggingMutex) Unlock(lg *log.Logger) {
	heldMutexesMutex.Lock()
	// Hold heldMutexesMutex until we return so the held set can't change
	// underneath any logging below.
	defer heldMutexesMutex.Unlock()

	if _, ok := heldMutexes[l]; !ok {
		lg.Error("mutex not held", slog.Int("held_mutexes", len(heldMutexes)))
	}
	delete(heldMutexes, l)

	if d := time.Since(l.acq); d > time.Second {
		lg.Warn("mutex held for over 1 second", slog.Any("mutex", l), slog.Duration("held", d))
	}

	l.acq = time.Time{}
	l.acqStack = l.acqStack[:0]
	l.Mutex.Unlock()
}

func (l *LoggingMutex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Time("acq", l.acq),
		slog.Duration("held", time.Since(l.acq)),
		slog.Any("acq_stack", l.acqStack))
}

func logProcessLoad(lg *log.Logger) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var usage float64
	if pct, err := cpu.Percent(time.Second, false); err == nil && len(pct) > 0 {
		usage = pct[0]
	}

	lg.Errorf("CPU: %d%% alloc: %dMB total alloc: %dMB sys mem: %dMB goroutines: %d",
		int(gomath.Round(usage)), m.Alloc/(1024*1024), m.TotalAlloc/(1024*1024), m.Sys/(1024*1024),
		runtime.NumGoroutine())
}
