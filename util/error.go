// util/error.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/armada-sim/armada/log"
)

// ErrorLogger accumulates validation errors for scenario files. It tracks
// what is currently being validated via Push()/Pop() so that each message
// carries its context (e.g. "skyports / SFO: num_pads must be positive"),
// and lets validation continue past the first problem.
type ErrorLogger struct {
	hierarchy []string
	errors    []string
}

func (e *ErrorLogger) Push(s string) {
	e.hierarchy = append(e.hierarchy, s)
}

func (e *ErrorLogger) Pop() {
	e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
}

func (e *ErrorLogger) ErrorString(s string, args ...interface{}) {
	e.errors = append(e.errors, e.prefix()+fmt.Sprintf(s, args...))
}

func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, e.prefix()+err.Error())
}

func (e *ErrorLogger) prefix() string {
	if len(e.hierarchy) == 0 {
		return ""
	}
	return strings.Join(e.hierarchy, " / ") + ": "
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errors) > 0
}

// Errors returns the accumulated messages in the order they were logged.
func (e *ErrorLogger) Errors() []string {
	return e.errors
}

func (e *ErrorLogger) PrintErrors(lg *log.Logger) {
	// Two loops so they aren't interleaved with logging to stdout
	if lg != nil {
		for _, err := range e.errors {
			lg.Errorf("%+v", err)
		}
	}
	for _, err := range e.errors {
		fmt.Fprintln(os.Stderr, err)
	}
}

func (e *ErrorLogger) String() string {
	return strings.Join(e.errors, "\n")
}

// CheckDepth is meant to be deferred with the depth at entry; it panics if
// a Push was not matched by a Pop.
func (e *ErrorLogger) CheckDepth(d int) {
	if e == nil || e.CurrentDepth() == d {
		return
	}

	if r := recover(); r != nil {
		panic(r)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "initial ErrorLogger depth %d, final %d\n", d, e.CurrentDepth())
	for _, f := range log.Callstack(nil) {
		fmt.Fprintf(&sb, "%15s:%d %s\n", f.File, f.Line, f.Function)
	}
	panic(sb.String())
}

func (e *ErrorLogger) CurrentDepth() int {
	if e == nil {
		return 0
	}
	return len(e.hierarchy)
}
