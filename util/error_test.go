// util/error_test.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"strings"
	"testing"

	"github.com/armada-sim/armada/log"
)

func TestErrorLoggerHierarchy(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() {
		t.Fatalf("fresh ErrorLogger reports errors")
	}

	e.ErrorString("no skyports defined")
	e.Push("skyports")
	e.Push("SFO")
	e.ErrorString("num_pads %d must be positive", 0)
	e.Pop()
	e.Push("OAK")
	e.Error(errors.New("invalid location"))
	e.Pop()
	e.Pop()

	if e.CurrentDepth() != 0 {
		t.Errorf("depth %d after balanced push/pop", e.CurrentDepth())
	}

	expected := "no skyports defined\n" +
		"skyports / SFO: num_pads 0 must be positive\n" +
		"skyports / OAK: invalid location"
	if e.String() != expected {
		t.Errorf("got %q, expected %q", e.String(), expected)
	}
}

func TestErrorLoggerCheckDepth(t *testing.T) {
	var e ErrorLogger
	func() {
		defer e.CheckDepth(e.CurrentDepth())
		e.Push("vehicles")
		e.Pop()
	}()

	defer func() {
		if recover() == nil {
			t.Errorf("expected CheckDepth to panic on unbalanced Push")
		}
	}()
	func() {
		defer e.CheckDepth(e.CurrentDepth())
		e.Push("routes")
	}()
}

func TestErrorLoggerPrintErrors(t *testing.T) {
	var e ErrorLogger
	e.Push("bay.json")
	e.ErrorString("no skyports defined")
	e.Pop()
	e.Error(errors.New("missing.json: no such file"))

	var sb strings.Builder
	e.PrintErrors(log.NewWriter(&sb, "error"))
	for _, msg := range []string{"bay.json: no skyports defined", "missing.json: no such file"} {
		if !strings.Contains(sb.String(), msg) {
			t.Errorf("log lacks %q: %s", msg, sb.String())
		}
	}
}
