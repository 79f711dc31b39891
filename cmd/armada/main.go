// cmd/armada/main.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// armada runs skyport fleet simulations. With no scenario it runs the
// built-in San Francisco to Oakland scenario.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/armada-sim/armada/log"
	"github.com/armada-sim/armada/scenario"
	"github.com/armada-sim/armada/server"
	"github.com/armada-sim/armada/sim"
	"github.com/armada-sim/armada/util"
)

var (
	scenarioFiles = flag.String("scenario", "", "comma-separated JSON scenario files (default: built-in SFO-OAK scenario)")
	until         = flag.Float64("until", 0, "run the clock to this time instead of the scenario's duration")
	step          = flag.Float64("step", server.DefaultStep, "default clock advance for POST /api/step")
	logLevel      = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir        = flag.String("logdir", "", "log file directory")
	archivePath   = flag.String("archive", "", "write the final trajectories to this msgpack+zstd file")
	serveAddr     = flag.String("serve", "", "serve the HTTP API on this address (e.g. :8080) instead of running to completion")
	dump          = flag.Bool("dump", false, "print the final skyport and vehicle state")
	last          = flag.Int("last", server.DefaultTrail, "number of trajectory samples per vehicle to print or serve")
	lint          = flag.Bool("lint", false, "check the scenario files and exit")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	scenarios, e := loadScenarios(*scenarioFiles)
	if e.HaveErrors() {
		e.PrintErrors(lg)
		os.Exit(1)
	}
	if *lint {
		for _, s := range scenarios {
			fmt.Printf("%s: %d skyports, %d vehicles, %d routes\n", s.Name, len(s.Skyports),
				len(s.Vehicles), len(s.Routes))
		}
		os.Exit(0)
	}
	if *until > 0 {
		for _, s := range scenarios {
			s.Duration = *until
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if *serveAddr != "" {
		if len(scenarios) != 1 {
			fmt.Fprintln(os.Stderr, "-serve: exactly one scenario must be given")
			os.Exit(1)
		}
		err = serve(ctx, scenarios[0], lg)
	} else {
		err = run(ctx, scenarios, lg)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadScenarios loads every file in the comma-separated list, collecting
// the errors from all of them.
func loadScenarios(files string) ([]*scenario.Scenario, *util.ErrorLogger) {
	var e util.ErrorLogger
	if files == "" {
		return []*scenario.Scenario{scenario.Default()}, &e
	}

	var scenarios []*scenario.Scenario
	for _, fn := range strings.Split(files, ",") {
		s, err := scenario.Load(strings.TrimSpace(fn))
		if err != nil {
			e.Error(err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, &e
}

func serve(ctx context.Context, s *scenario.Scenario, lg *log.Logger) error {
	sm, err := s.Build(ctx, lg)
	if err != nil {
		return err
	}
	// Clients step the clock themselves unless a start time was given.
	if *until > 0 {
		if err := sm.RunUntil(*until); err != nil {
			lg.Warnf("%v", err)
		}
	}

	srv := server.New(sm, lg, server.Options{Step: *step, Trail: *last})
	defer srv.Close()

	fmt.Printf("Serving %s on %s\n", s.Name, *serveAddr)
	return srv.ListenAndServe(ctx, *serveAddr)
}

func run(ctx context.Context, scenarios []*scenario.Scenario, lg *log.Logger) error {
	var archives []sim.Archive
	var runErr error
	if len(scenarios) == 1 {
		s := scenarios[0]
		sm, err := s.Build(ctx, lg)
		if err != nil {
			return err
		}
		runErr = sm.RunUntil(s.Duration)
		if *dump {
			sm.Dump(os.Stdout)
		}
		archives = []sim.Archive{sm.Archive(s.Name)}
	} else {
		var err error
		if archives, err = scenario.RunAll(ctx, scenarios, lg); archives == nil {
			return err
		}
		runErr = err
	}

	for _, a := range archives {
		printSummary(a, *last)
	}

	if *archivePath != "" {
		for _, a := range archives {
			path := *archivePath
			if len(archives) > 1 {
				ext := filepath.Ext(path)
				path = strings.TrimSuffix(path, ext) + "-" + a.Name + ext
			}
			if err := a.WriteFile(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
		}
	}

	return runErr
}

func printSummary(a sim.Archive, n int) {
	fmt.Printf("%s: t=%g\n", a.Name, a.Time)
	for _, sp := range a.Skyports {
		fmt.Printf("  %-8s %s pads %d/%d landed [%s]\n", sp.Name, sp.Location.DDString(),
			sp.AvailablePads, sp.NumPads, strings.Join(sp.Landed, ", "))
	}
	for _, id := range a.Vehicles {
		traj := a.Trajectories[id]
		fmt.Printf("  %s: %d samples\n", id, len(traj))
		if len(traj) > n {
			traj = traj[len(traj)-n:]
		}
		for _, r := range traj {
			fmt.Printf("    %8.1f %s %6.1f m\n", r.Time, r.Position.DDString(), r.Altitude)
		}
	}
}
