// sim/archive.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package sim

import (
	"fmt"
	"io"
	"os"

	"github.com/armada-sim/armada/util"
)

// ArchiveVersion is bumped whenever the archive layout changes.
const ArchiveVersion = 1

// Archive is the saved result of a run: the skyports and every vehicle's
// trajectory as of Time. It is written as zstd-compressed msgpack.
type Archive struct {
	Version      int                       `msgpack:"version"`
	Name         string                    `msgpack:"name"`
	Time         float64                   `msgpack:"time"`
	Skyports     []SkyportInfo             `msgpack:"skyports"`
	Vehicles     []string                  `msgpack:"vehicles"`
	Trajectories map[string][]FlightRecord `msgpack:"trajectories"`
}

// Archive captures the current state of the run.
func (s *Sim) Archive(name string) Archive {
	s.mu.Lock(s.lg)
	defer s.mu.Unlock(s.lg)

	return Archive{
		Version:      ArchiveVersion,
		Name:         name,
		Time:         s.scheduler.Now(),
		Skyports:     s.skyportInfo(),
		Vehicles:     s.recorder.Vehicles(),
		Trajectories: s.recorder.Snapshot(),
	}
}

func (a *Archive) Write(w io.Writer) error {
	return util.WriteMsgpackZstd(w, a)
}

func ReadArchive(r io.Reader) (*Archive, error) {
	var a Archive
	if err := util.ReadMsgpackZstd(r, &a); err != nil {
		return nil, err
	}
	if a.Version != ArchiveVersion {
		return nil, fmt.Errorf("archive version %d: expected %d", a.Version, ArchiveVersion)
	}
	return &a, nil
}

// WriteFile writes the archive to the named file.
func (a *Archive) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

func ReadArchiveFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := ReadArchive(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}
