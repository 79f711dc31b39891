// server/http_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/armada-sim/armada/log"
)

func TestWriteJSONEncodeFailure(t *testing.T) {
	var sb strings.Builder
	s := &Server{lg: log.NewWriter(&sb, "warn")}

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]float64{"time": math.Inf(1)})

	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	if !strings.Contains(sb.String(), "writing response") {
		t.Errorf("encode failure not logged: %q", sb.String())
	}
}

func TestQueryFloat(t *testing.T) {
	for _, tc := range []struct {
		query string
		want  float64
		ok    bool
	}{
		{"", 10, true},
		{"dt=2.5", 2.5, true},
		{"dt=-1", -1, true},
		{"dt=Inf", 0, false},
		{"dt=+Inf", 0, false},
		{"dt=-inf", 0, false},
		{"dt=NaN", 0, false},
		{"dt=soon", 0, false},
	} {
		t.Run(tc.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/step?"+tc.query, nil)
			v, err := queryFloat(r, "dt", 10)
			if tc.ok {
				if err != nil || v != tc.want {
					t.Errorf("got %g, %v; expected %g", v, err, tc.want)
				}
			} else if err == nil {
				t.Errorf("accepted %g", v)
			}
		})
	}
}
