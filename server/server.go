// server/server.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package server exposes a running simulation over a JSON HTTP API: the
// vehicle trajectories and skyport locations, the event stream, and a
// step endpoint that advances the virtual clock.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/armada-sim/armada/log"
	"github.com/armada-sim/armada/sim"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	DefaultStep  = 10
	DefaultTrail = 20

	requestTimeout  = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	// Step is the clock advance for POST /api/step when no dt is given.
	Step float64
	// Trail is the number of trajectory samples per vehicle returned by
	// GET /api/vehicles when no last is given.
	Trail int
}

type Server struct {
	sim       *sim.Sim
	events    *sim.EventsSubscription
	step      float64
	trail     int
	startTime time.Time
	lg        *log.Logger
}

// New returns a Server for sm. Close must be called when it is no longer
// needed so that its event subscription is released.
func New(sm *sim.Sim, lg *log.Logger, opts Options) *Server {
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	if opts.Trail <= 0 {
		opts.Trail = DefaultTrail
	}
	return &Server{
		sim:       sm,
		events:    sm.Subscribe(),
		step:      opts.Step,
		trail:     opts.Trail,
		startTime: time.Now(),
		lg:        lg,
	}
}

func (s *Server) Close() {
	s.events.Unsubscribe()
}

// Routes returns the API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.logRequests,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, ErrNoSuchRoute)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/stats", s.stats)
		r.Get("/skyports", s.skyports)
		r.Get("/vehicles", s.vehicles)
		r.Get("/vehicles/{id}", s.vehicle)
		r.Get("/vehicles/{id}/latest", s.latest)
		r.Get("/events", s.pendingEvents)
		r.Post("/step", s.advance)
	})
	return r
}

// ListenAndServe serves the API on addr until ctx is canceled, then shuts
// the HTTP server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.lg.Info("serving HTTP API", slog.String("addr", l.Addr().String()))
		errCh <- hs.Serve(l)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.lg.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("elapsed", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}
