// log/log.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time
}

// ParseLevel maps the -loglevel flag values to slog levels; unknown
// strings give info along with an error.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
	}
}

// New returns a Logger that writes JSON records to a rotating armada.slog
// file in dir. If dir is empty, the user's config directory is used.
func New(level string, dir string) *Logger {
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to find user config dir: %v", err)
			dir = "."
		}
		dir = filepath.Join(dir, "Armada")
	}

	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "armada.slog"),
		MaxSize:    32, // MB
		MaxBackups: 2,
		MaxAge:     14,
		Compress:   true,
	}
	if level == "debug" {
		w.MaxSize = 256
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	l := &Logger{
		Logger:  slog.New(h),
		LogFile: w.Filename,
		LogDir:  dir,
		Start:   time.Now(),
	}

	// Start out the logs with some basic information about the system
	// we're running on and the build that's being used.
	l.Info("Hello logging", slog.Time("start", l.Start))
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	var deps []any
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			deps = append(deps, slog.String(dep.Path, dep.Version))
		}
		l.Info("Build",
			slog.String("Go version", bi.GoVersion),
			slog.String("Path", bi.Path),
			slog.Group("Dependencies", deps...))
	}

	return l
}

// NewWriter returns a Logger that writes text records to w. It is mostly
// useful for tests and for tools that want logs on stderr.
func NewWriter(w io.Writer, level string) *Logger {
	lvl, _ := ParseLevel(level)
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})),
		Start:  time.Now(),
	}
}

// NewDiscard returns a Logger that drops everything.
func NewDiscard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Debug wraps slog.Debug to add call stack information (and similarly for
// the following Logger methods...)  Note that we do not wrap the entire
// slog logging interface, so, for example, WarnContext and Log do not have
// callstacks included.
//
// We also wrap the logging methods to allow a nil *Logger, in which case
// debug and info messages are discarded (though warnings and errors still
// go through to slog.)
func (l *Logger) Debug(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Debug(msg, args...)
	}
}

// Debugf is a convenience wrapper that logs just a message and allows
// printf-style formatting of the provided args.
func (l *Logger) Debugf(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Info(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
	if l == nil {
		slog.Warn(msg, args...)
	} else {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger) Warnf(msg string, args ...any) {
	if l == nil {
		slog.Warn(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	} else {
		l.Logger.Warn(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) Error(msg string, args ...any) {
	args = append([]any{slog.Any("callstack", Callstack(nil))}, args...)
	if l == nil {
		slog.Error(msg, args...)
	} else {
		l.Logger.Error(msg, args...)
	}
}

func (l *Logger) Errorf(msg string, args ...any) {
	if l == nil {
		slog.Error(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	} else {
		l.Logger.Error(fmt.Sprintf(msg, args...), slog.Any("callstack", Callstack(nil)))
	}
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		LogDir:  l.LogDir,
		Start:   l.Start,
	}
}
