// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := msgpack.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal(%v): %v", v, err)
	}
	return data
}

func TestWriterReaderScalars(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	d := decimal.RequireFromString("123.4500")

	steps := []func() error{
		func() error { return w.WriteBool(true) },
		func() error { return w.WriteInt(-5) },
		func() error { return w.WriteInt(math.MinInt64) },
		func() error { return w.WriteUint(math.MaxUint64) },
		func() error { return w.WriteFloat32(1.5) },
		func() error { return w.WriteFloat64(math.Pi) },
		func() error { return w.WriteString("héllo") },
		func() error { return w.WriteBytes([]byte{1, 2, 3}) },
		func() error { return w.WriteDecimal(d) },
		func() error { return w.WriteNil() },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("write step %d: %v", i, err)
		}
	}

	r := NewBytesReader(buf.Bytes())
	if v, err := r.ReadBool(); err != nil || !v {
		t.Fatalf("ReadBool = %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != -5 {
		t.Fatalf("ReadInt8 = %v, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != math.MinInt64 {
		t.Fatalf("ReadInt64 = %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != math.MaxUint64 {
		t.Fatalf("ReadUint64 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != 1.5 {
		t.Fatalf("ReadFloat32 = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != math.Pi {
		t.Fatalf("ReadFloat64 = %v, %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "héllo" {
		t.Fatalf("ReadString = %q, %v", v, err)
	}
	if v, err := r.ReadBytes(); err != nil || !bytes.Equal(v, []byte{1, 2, 3}) {
		t.Fatalf("ReadBytes = %v, %v", v, err)
	}
	if v, err := r.ReadDecimal(); err != nil || !v.Equal(d) {
		t.Fatalf("ReadDecimal = %v, %v", v, err)
	}
	if ok, err := r.ReadNil(); err != nil || !ok {
		t.Fatalf("ReadNil = %v, %v", ok, err)
	}
	if _, err := r.PeekKind(); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("PeekKind at end: got %v, want ErrStreamEnded", err)
	}
}

func TestHeaders(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteMapHeader(2); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteArrayHeader(17); err != nil {
		t.Fatal(err)
	}
	r := NewBytesReader(buf.Bytes())
	if n, err := r.ReadMapHeader(); err != nil || n != 2 {
		t.Fatalf("ReadMapHeader = %d, %v", n, err)
	}
	if n, err := r.ReadArrayHeader(); err != nil || n != 17 {
		t.Fatalf("ReadArrayHeader = %d, %v", n, err)
	}
}

func TestKindMismatch(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		read   func(*Reader) error
		actual Kind
	}{
		{"string as int", "x", func(r *Reader) error { _, err := r.ReadInt32(); return err }, KindString},
		{"positive int as string", 5, func(r *Reader) error { _, err := r.ReadString(); return err }, KindUint},
		{"negative int as string", -5, func(r *Reader) error { _, err := r.ReadString(); return err }, KindInt},
		{"bytes as string", []byte("x"), func(r *Reader) error { _, err := r.ReadString(); return err }, KindBinary},
		{"float64 as float32", float64(1.25), func(r *Reader) error { _, err := r.ReadFloat32(); return err }, KindFloat64},
		{"positive int as float64", 3, func(r *Reader) error { _, err := r.ReadFloat64(); return err }, KindUint},
		{"negative int as float64", -300, func(r *Reader) error { _, err := r.ReadFloat64(); return err }, KindInt},
		{"array as map", []int{1}, func(r *Reader) error { _, err := r.ReadMapHeader(); return err }, KindArray},
		{"nil as array", nil, func(r *Reader) error { _, err := r.ReadArrayHeader(); return err }, KindNil},
		{"bool as int", true, func(r *Reader) error { _, err := r.ReadInt64(); return err }, KindBool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewBytesReader(mustMarshal(t, tt.value)))
			var mm *MismatchError
			if !errors.As(err, &mm) {
				t.Fatalf("got %v, want *MismatchError", err)
			}
			if mm.Actual != tt.actual {
				t.Errorf("Actual = %v, want %v", mm.Actual, tt.actual)
			}
		})
	}
}

func TestIntegerRange(t *testing.T) {
	var ive *InvalidValueError

	if _, err := NewBytesReader(mustMarshal(t, 200)).ReadInt8(); !errors.As(err, &ive) {
		t.Fatalf("ReadInt8(200): got %v, want *InvalidValueError", err)
	}
	if _, err := NewBytesReader(mustMarshal(t, -1)).ReadUint32(); !errors.As(err, &ive) {
		t.Fatalf("ReadUint32(-1): got %v, want *InvalidValueError", err)
	}
	if _, err := NewBytesReader(mustMarshal(t, uint64(math.MaxUint64))).ReadInt64(); !errors.As(err, &ive) {
		t.Fatalf("ReadInt64(MaxUint64): got %v, want *InvalidValueError", err)
	}
	// Positive values written through a signed encoder still read as unsigned.
	if v, err := NewBytesReader(mustMarshal(t, int64(300))).ReadUint16(); err != nil || v != 300 {
		t.Fatalf("ReadUint16(300) = %v, %v", v, err)
	}
	if v, err := NewBytesReader(mustMarshal(t, uint8(7))).ReadInt16(); err != nil || v != 7 {
		t.Fatalf("ReadInt16(uint8 7) = %v, %v", v, err)
	}
}

func TestFloat64AcceptsFloat32(t *testing.T) {
	v, err := NewBytesReader(mustMarshal(t, float32(0.5))).ReadFloat64()
	if err != nil || v != 0.5 {
		t.Fatalf("ReadFloat64(float32) = %v, %v", v, err)
	}
}

func TestDecimalStrict(t *testing.T) {
	_, err := NewBytesReader(mustMarshal(t, "12.x")).ReadDecimal()
	var ive *InvalidValueError
	if !errors.As(err, &ive) {
		t.Fatalf("got %v, want *InvalidValueError", err)
	}
	if ive.Text != "12.x" {
		t.Errorf("Text = %q", ive.Text)
	}
}

func TestStringMustBeUTF8(t *testing.T) {
	_, err := NewBytesReader(mustMarshal(t, "ok\xff")).ReadString()
	var ive *InvalidValueError
	if !errors.As(err, &ive) {
		t.Fatalf("got %v, want *InvalidValueError", err)
	}
	if ive.Text != "ok\xff" {
		t.Errorf("Text = %q", ive.Text)
	}
	if v, err := NewBytesReader(mustMarshal(t, "héllo")).ReadString(); err != nil || v != "héllo" {
		t.Fatalf("ReadString = %q, %v", v, err)
	}
}

func TestTruncated(t *testing.T) {
	full := mustMarshal(t, "a fairly long string value")
	r := NewBytesReader(full[:5])
	if _, err := r.ReadString(); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("got %v, want ErrStreamEnded", err)
	}
	if _, err := NewBytesReader(nil).ReadMapHeader(); !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("empty input: got %v, want ErrStreamEnded", err)
	}
}

func TestReadNilLeavesNonNil(t *testing.T) {
	r := NewBytesReader(mustMarshal(t, 42))
	ok, err := r.ReadNil()
	if err != nil || ok {
		t.Fatalf("ReadNil = %v, %v", ok, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != 42 {
		t.Fatalf("ReadInt32 after ReadNil = %v, %v", v, err)
	}
}

func TestSkipNested(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(mustMarshal(t, map[string]interface{}{"a": []interface{}{1, "x", map[string]int{"b": 2}}}))
	buf.Write(mustMarshal(t, "after"))
	r := NewBytesReader(buf.Bytes())
	if err := r.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if v, err := r.ReadString(); err != nil || v != "after" {
		t.Fatalf("ReadString after Skip = %q, %v", v, err)
	}
}

func TestKindString(t *testing.T) {
	if KindFloat32.String() != "float32" || KindMap.String() != "map" {
		t.Fatalf("unexpected names %q %q", KindFloat32, KindMap)
	}
	if !KindUint.IsInteger() || KindFloat64.IsInteger() {
		t.Fatal("IsInteger")
	}
}
