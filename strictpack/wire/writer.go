// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// Writer appends MessagePack values to an underlying stream. Integers are
// written in their most compact encoding. Writes are append-only: a failed
// write leaves whatever was already emitted in place.
type Writer struct {
	enc *msgpack.Encoder
}

// NewWriter returns a Writer that appends to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: msgpack.NewEncoder(w)}
}

// WriteMapHeader writes a map header for n key/value pairs.
func (w *Writer) WriteMapHeader(n int) error {
	return w.enc.EncodeMapLen(n)
}

// WriteArrayHeader writes an array header for n elements.
func (w *Writer) WriteArrayHeader(n int) error {
	return w.enc.EncodeArrayLen(n)
}

// WriteNil writes nil.
func (w *Writer) WriteNil() error {
	return w.enc.EncodeNil()
}

// WriteBool writes a boolean.
func (w *Writer) WriteBool(v bool) error {
	return w.enc.EncodeBool(v)
}

// WriteInt writes a signed integer of any width.
func (w *Writer) WriteInt(v int64) error {
	return w.enc.EncodeInt(v)
}

// WriteUint writes an unsigned integer of any width.
func (w *Writer) WriteUint(v uint64) error {
	return w.enc.EncodeUint(v)
}

// WriteFloat32 writes a single-precision float.
func (w *Writer) WriteFloat32(v float32) error {
	return w.enc.EncodeFloat32(v)
}

// WriteFloat64 writes a double-precision float.
func (w *Writer) WriteFloat64(v float64) error {
	return w.enc.EncodeFloat64(v)
}

// WriteString writes a string.
func (w *Writer) WriteString(v string) error {
	return w.enc.EncodeString(v)
}

// WriteBytes writes a binary value. A nil slice is written as an empty
// binary value so it reads back as bytes.
func (w *Writer) WriteBytes(v []byte) error {
	if v == nil {
		v = []byte{}
	}
	return w.enc.EncodeBytes(v)
}

// WriteDecimal writes d as its canonical string.
func (w *Writer) WriteDecimal(d decimal.Decimal) error {
	return w.enc.EncodeString(d.String())
}
