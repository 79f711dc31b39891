// log/log_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	} {
		got, err := ParseLevel(tc.in)
		if got != tc.want {
			t.Errorf("%q: got level %v, expected %v", tc.in, got, tc.want)
		}
		if (err != nil) != tc.wantErr {
			t.Errorf("%q: got error %v, expected error: %v", tc.in, err, tc.wantErr)
		}
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	// None of these should crash.
	lg.Debug("debug")
	lg.Debugf("debug %d", 1)
	lg.Info("info")
	lg.Infof("info %d", 2)
	if lg.With("k", "v") != nil {
		t.Errorf("With on nil logger should return nil")
	}
}

func TestWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWriter(&buf, "warn")

	lg.Info("should not appear")
	lg.Warn("skyport full", slog.String("skyport", "OAK"))

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "skyport full") || !strings.Contains(out, "skyport=OAK") {
		t.Errorf("expected warning with attribute, got %s", out)
	}
	if !strings.Contains(out, "callstack=") {
		t.Errorf("expected callstack attribute, got %s", out)
	}
}

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	lg := New("info", dir)
	lg.Info("flight started", slog.String("vehicle", "AAV001"))

	if lg.LogFile != filepath.Join(dir, "armada.slog") {
		t.Errorf("unexpected log file %q", lg.LogFile)
	}
	b, err := os.ReadFile(lg.LogFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !bytes.Contains(b, []byte(`"vehicle":"AAV001"`)) {
		t.Errorf("log file missing record: %s", b)
	}
}

func TestCallstack(t *testing.T) {
	fr := helperCallstack()
	if len(fr) == 0 {
		t.Fatalf("empty callstack")
	}
	if fr[0].File != "log_test.go" {
		t.Errorf("expected first frame in log_test.go, got %s", fr[0])
	}
}

func helperCallstack() []Frame {
	return func() []Frame { return Callstack(nil) }()
}
