// sim/export_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	av "github.com/armada-sim/armada/aviation"
)

// SkyportForTest returns the live skyport so that tests can tamper with its
// pads. Exported only to _test packages via Go's export_test.go convention.
func (s *Sim) SkyportForTest(name string) *av.Skyport {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.skyports[name]
}

// PendingForTest returns the number of processes waiting in the scheduler.
func (s *Sim) PendingForTest() int {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.scheduler.Pending()
}

// RouteCacheLenForTest returns the number of cached route distances.
func (s *Sim) RouteCacheLenForTest() int {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)
	return s.routeCache.Len()
}
