// server/errors.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package server

import (
	"errors"
	"net/http"

	av "github.com/armada-sim/armada/aviation"
)

var (
	ErrBadParameter = errors.New("invalid query parameter")
	ErrNoSuchRoute  = errors.New("no such route")
)

// statusForError maps the error categories to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, av.ErrUnknownVehicle), errors.Is(err, av.ErrUnknownSkyport),
		errors.Is(err, ErrNoSuchRoute):
		return http.StatusNotFound
	case errors.Is(err, ErrBadParameter), errors.Is(err, av.ErrScheduling),
		errors.Is(err, av.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, av.ErrResourceInvariant):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
