// log/race_off.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build !race

package log

const RaceEnabled = false
