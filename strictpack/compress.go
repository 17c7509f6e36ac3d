// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// EncodeCompressed writes v to w as a single zstd frame.
func (c *Codec) EncodeCompressed(w io.Writer, v any) error {
	rv, err := c.valueOf(v)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("strictpack: zstd writer: %w", err)
	}
	if err := c.encodeValue(context.Background(), zw, rv); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("strictpack: zstd close: %w", err)
	}
	return nil
}

// DecodeCompressed reads one zstd-compressed value from r into out, which
// must be a non-nil pointer to the codec's type.
func (c *Codec) DecodeCompressed(r io.Reader, out any) error {
	dst, err := c.target(out)
	if err != nil {
		return err
	}
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("strictpack: zstd reader: %w", err)
	}
	defer zr.Close()
	return c.decodeValue(context.Background(), zr, dst)
}
