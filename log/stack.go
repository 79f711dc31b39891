// log/stack.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const modulePath = "github.com/armada-sim/armada/"

// Frame is one caller in a logged call stack.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.Function)
}

// Callstack returns up to 16 callers of the function that called the
// logging method, innermost first. The walk stops at main.main or the
// testing harness. fr's storage is reused.
func Callstack(fr []Frame) []Frame {
	var pcs [16]uintptr
	frames := runtime.CallersFrames(pcs[:runtime.Callers(3, pcs[:])])

	fr = fr[:0]
	for {
		f, more := frames.Next()
		if f.Function == "" || strings.HasPrefix(f.Function, "testing.") || strings.HasPrefix(f.Function, "runtime.") {
			break
		}
		fr = append(fr, Frame{
			File:     filepath.Base(f.File),
			Line:     f.Line,
			Function: strings.TrimPrefix(f.Function, modulePath),
		})
		if !more || f.Function == "main.main" {
			break
		}
	}
	return fr
}
