// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/Query-farm/strictpack/strictpack"
	"github.com/Query-farm/strictpack/strictpack/wire"
)

// StreamHeader precedes the values of a header stream.
type StreamHeader struct {
	TotalExpected int64  `strictpack:"total_expected"`
	Description   string `strictpack:"description"`
}

func streamCases() []Case {
	return []Case{
		{"stream_counter", counterStream(5)},
		{"stream_empty", counterStream(0)},
		{"stream_large", counterStream(10_000)},
		{"stream_unbuffered_source", unbufferedStream},
		{"stream_with_header", headerStream},
		{"stream_error_after_n", errorAfterN},
		{"stream_compressed", compressedStream},
	}
}

func writeCounters(c *strictpack.TypedCodec[Counter], w io.Writer, n int) error {
	for i := range n {
		if err := c.Encode(w, Counter{Index: int64(i), Value: int64(i) * 10}); err != nil {
			return fmt.Errorf("encoding value %d: %w", i, err)
		}
	}
	return nil
}

// readCounters decodes values until the stream ends cleanly.
func readCounters(c *strictpack.TypedCodec[Counter], r io.Reader) ([]Counter, error) {
	var out []Counter
	for {
		v, err := c.Decode(r)
		if errors.Is(err, strictpack.ErrStreamEnded) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("decoding value %d: %w", len(out), err)
		}
		out = append(out, v)
	}
}

func checkCounters(got []Counter, n int) error {
	if len(got) != n {
		return fmt.Errorf("got %d values, want %d", len(got), n)
	}
	for i, v := range got {
		if v.Index != int64(i) || v.Value != int64(i)*10 {
			return fmt.Errorf("value %d: got %+v", i, v)
		}
	}
	return nil
}

func counterStream(n int) func(*strictpack.Registry) error {
	return func(reg *strictpack.Registry) error {
		c, err := strictpack.For[Counter](reg)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := writeCounters(c, &buf, n); err != nil {
			return err
		}
		got, err := readCounters(c, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return err
		}
		return checkCounters(got, n)
	}
}

// unbufferedStream decodes from a reader without io.ByteScanner, wrapped
// once in a bufio.Reader so consecutive decodes share the buffer.
func unbufferedStream(reg *strictpack.Registry) error {
	c, err := strictpack.For[Counter](reg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeCounters(c, &buf, 100); err != nil {
		return err
	}
	src := bufio.NewReader(io.MultiReader(bytes.NewReader(buf.Bytes())))
	got, err := readCounters(c, src)
	if err != nil {
		return err
	}
	return checkCounters(got, 100)
}

func headerStream(reg *strictpack.Registry) error {
	hc, err := strictpack.For[StreamHeader](reg)
	if err != nil {
		return err
	}
	c, err := strictpack.For[Counter](reg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := hc.Encode(&buf, StreamHeader{TotalExpected: 3, Description: "counters"}); err != nil {
		return err
	}
	if err := writeCounters(c, &buf, 3); err != nil {
		return err
	}

	r := bytes.NewReader(buf.Bytes())
	header, err := hc.Decode(r)
	if err != nil {
		return fmt.Errorf("decoding header: %w", err)
	}
	got, err := readCounters(c, r)
	if err != nil {
		return err
	}
	return checkCounters(got, int(header.TotalExpected))
}

// errorAfterN places a malformed value after n good ones and checks the
// good values decode before the failure is reported.
func errorAfterN(reg *strictpack.Registry) error {
	const n = 3
	c, err := strictpack.For[Counter](reg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := writeCounters(c, &buf, n); err != nil {
		return err
	}
	bad, err := craft(func(w *wire.Writer) error {
		return pairs(w, "index", int64(n), "value", "not a number")
	})
	if err != nil {
		return err
	}
	buf.Write(bad)

	got, err := readCounters(c, bytes.NewReader(buf.Bytes()))
	if !errors.Is(err, strictpack.ErrWrongType) {
		return fmt.Errorf("expected WrongType after %d values, got %v", n, err)
	}
	return checkCounters(got, n)
}

func compressedStream(reg *strictpack.Registry) error {
	c, err := reg.Get(reflect.TypeFor[[]Counter]())
	if err != nil {
		return err
	}
	in := make([]Counter, 1000)
	for i := range in {
		in[i] = Counter{Index: int64(i), Value: int64(i) * 10}
	}
	var buf bytes.Buffer
	if err := c.EncodeCompressed(&buf, in); err != nil {
		return err
	}
	var out []Counter
	if err := c.DecodeCompressed(&buf, &out); err != nil {
		return err
	}
	return checkCounters(out, len(in))
}
