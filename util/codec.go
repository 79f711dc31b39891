// util/codec.go
// Copyright(c) 2025 armada contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// WriteMsgpackZstd encodes obj with msgpack and writes it to w, compressed
// with zstd.
func WriteMsgpackZstd(w io.Writer, obj any) error {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(obj); err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

// ReadMsgpackZstd is the inverse of WriteMsgpackZstd.
func ReadMsgpackZstd(r io.Reader, obj any) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	if err := msgpack.NewDecoder(zr).Decode(obj); err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	return nil
}
