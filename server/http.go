// server/http.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/armada-sim/armada/sim"

	"github.com/go-chi/chi/v5"
	"github.com/iancoleman/orderedmap"
	"github.com/shirou/gopsutil/v3/cpu"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.lg.Warn("writing response", slog.Int("status", status), slog.Any("error", err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s=%q: %w", key, s, ErrBadParameter)
	}
	return v, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s=%q: %w", key, s, ErrBadParameter)
	}
	return v, nil
}

///////////////////////////////////////////////////////////////////////////

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": s.sim.Now()})
}

type serverStats struct {
	Uptime           string  `json:"uptime"`
	AllocMemory      uint64  `json:"alloc_mb"`
	TotalAllocMemory uint64  `json:"total_alloc_mb"`
	SysMemory        uint64  `json:"sys_mb"`
	NumGC            uint32  `json:"num_gc"`
	NumGoRoutines    int     `json:"num_goroutines"`
	CPUUsage         int     `json:"cpu_usage"`
	SimTime          float64 `json:"sim_time"`
	ActiveFlights    int     `json:"active_flights"`
}

func (st serverStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("uptime", st.Uptime),
		slog.Uint64("alloc_mb", st.AllocMemory),
		slog.Int("goroutines", st.NumGoRoutines),
		slog.Int("cpu", st.CPUUsage),
		slog.Float64("sim_time", st.SimTime),
		slog.Int("active_flights", st.ActiveFlights))
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	// Zero interval reports usage since the previous call.
	usage, _ := cpu.Percent(0, false)

	st := serverStats{
		Uptime:           time.Since(s.startTime).Round(time.Second).String(),
		AllocMemory:      m.Alloc / (1024 * 1024),
		TotalAllocMemory: m.TotalAlloc / (1024 * 1024),
		SysMemory:        m.Sys / (1024 * 1024),
		NumGC:            m.NumGC,
		NumGoRoutines:    runtime.NumGoroutine(),
		SimTime:          s.sim.Now(),
		ActiveFlights:    s.sim.ActiveFlights(),
	}
	if len(usage) > 0 {
		st.CPUUsage = int(usage[0])
	}
	s.lg.Debug("served stats", slog.Any("stats", st))

	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) skyports(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sim.GetSkyportLocations())
}

// vehicles returns the most recent samples of each vehicle's trajectory,
// keyed by id with the keys in the order the vehicles were added.
func (s *Server) vehicles(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "last", s.trail)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ids, trails := s.sim.RecentTrajectory(n)
	om := orderedmap.New()
	for _, id := range ids {
		om.Set(id, trails[id])
	}
	s.writeJSON(w, http.StatusOK, om)
}

func (s *Server) vehicle(w http.ResponseWriter, r *http.Request) {
	vi, err := s.sim.Vehicle(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, vi)
}

type latestResponse struct {
	Vehicle sim.VehicleInfo   `json:"vehicle"`
	Latest  *sim.FlightRecord `json:"latest"`
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	vi, err := s.sim.Vehicle(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := latestResponse{Vehicle: vi}
	if rec, ok := s.sim.Latest(id); ok {
		resp.Latest = &rec
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// pendingEvents returns the events posted since the previous request.
func (s *Server) pendingEvents(w http.ResponseWriter, r *http.Request) {
	events := s.events.Get()
	if events == nil {
		events = []sim.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

type stepResponse struct {
	Time          float64  `json:"time"`
	ActiveFlights int      `json:"active_flights"`
	Errors        []string `json:"errors,omitempty"`
}

// advance moves the clock forward by dt. Errors from individual flights
// do not fail the request; they are reported in the response.
func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	dt, err := queryFloat(r, "dt", s.step)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var resp stepResponse
	if err := s.sim.AdvanceBy(dt); errors.Is(err, sim.ErrNegativeAdvance) || errors.Is(err, sim.ErrTimeOutOfRange) {
		s.writeError(w, err)
		return
	} else if err != nil {
		s.lg.Warn("flight errors during step", slog.Any("error", err))
		resp.Errors = flattenErrors(err)
	}
	resp.Time = s.sim.Now()
	resp.ActiveFlights = s.sim.ActiveFlights()

	s.writeJSON(w, http.StatusOK, resp)
}

// flattenErrors splits an errors.Join result back into its messages.
func flattenErrors(err error) []string {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var s []string
		for _, e := range j.Unwrap() {
			s = append(s, flattenErrors(e)...)
		}
		return s
	}
	return []string{err.Error()}
}
