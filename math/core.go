// math/core.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// Lerp returns a + (b-a)*x; x=0 gives exactly a and x=1 exactly b.
func Lerp(x, a, b float64) float64 {
	if x == 1 {
		return b
	}
	return a + (b-a)*x
}

// Floor returns the largest integer value that is <= v.
func Floor(v float64) int {
	return int(gomath.Floor(v))
}
