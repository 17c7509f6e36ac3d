// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the MessagePack primitives used by strictpack
// codecs: typed scalar reads with exact kind checking, map and array
// headers, and the matching writers.
//
// Every read inspects the leading byte before consuming anything, so a
// value of the wrong kind is reported as a [*MismatchError] and never
// coerced. Truncated input is reported as [ErrStreamEnded].
package wire

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// Reader reads MessagePack values from an underlying stream. A Reader is
// owned by a single decode call and is not safe for concurrent use.
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader returns a Reader over r. Readers that implement io.ByteScanner
// (bytes.Reader, bufio.Reader) are consumed exactly; other readers are
// buffered by the decoder.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// NewBytesReader returns a Reader over an in-memory message.
func NewBytesReader(data []byte) *Reader {
	return NewReader(bytes.NewReader(data))
}

// PeekKind classifies the next value without consuming it.
func (r *Reader) PeekKind() (Kind, error) {
	c, err := r.dec.PeekCode()
	if err != nil {
		return KindInvalid, streamErr(err)
	}
	return kindOf(c), nil
}

// expect peeks the next value and fails with a MismatchError unless its
// kind is one of want.
func (r *Reader) expect(expected string, want ...Kind) (Kind, error) {
	k, err := r.PeekKind()
	if err != nil {
		return k, err
	}
	for _, w := range want {
		if k == w {
			return k, nil
		}
	}
	return k, &MismatchError{Expected: expected, Actual: k}
}

// ReadMapHeader reads a map header and returns its pair count.
func (r *Reader) ReadMapHeader() (int, error) {
	if _, err := r.expect("map", KindMap); err != nil {
		return 0, err
	}
	n, err := r.dec.DecodeMapLen()
	if err != nil {
		return 0, streamErr(err)
	}
	return n, nil
}

// ReadArrayHeader reads an array header and returns its element count.
func (r *Reader) ReadArrayHeader() (int, error) {
	if _, err := r.expect("array", KindArray); err != nil {
		return 0, err
	}
	n, err := r.dec.DecodeArrayLen()
	if err != nil {
		return 0, streamErr(err)
	}
	return n, nil
}

// ReadNil consumes the next value if it is nil and reports whether it did.
func (r *Reader) ReadNil() (bool, error) {
	k, err := r.PeekKind()
	if err != nil {
		return false, err
	}
	if k != KindNil {
		return false, nil
	}
	if err := r.dec.DecodeNil(); err != nil {
		return false, streamErr(err)
	}
	return true, nil
}

// ReadBool reads a boolean.
func (r *Reader) ReadBool() (bool, error) {
	if _, err := r.expect("bool", KindBool); err != nil {
		return false, err
	}
	v, err := r.dec.DecodeBool()
	if err != nil {
		return false, streamErr(err)
	}
	return v, nil
}

// readSigned reads any integer encoding and checks it fits [min, max].
func (r *Reader) readSigned(expected string, min, max int64) (int64, error) {
	k, err := r.expect(expected, KindInt, KindUint)
	if err != nil {
		return 0, err
	}
	if k == KindUint {
		u, err := r.dec.DecodeUint64()
		if err != nil {
			return 0, streamErr(err)
		}
		if u > uint64(max) {
			return 0, &InvalidValueError{Expected: expected, Text: strconv.FormatUint(u, 10)}
		}
		return int64(u), nil
	}
	v, err := r.dec.DecodeInt64()
	if err != nil {
		return 0, streamErr(err)
	}
	if v < min || v > max {
		return 0, &InvalidValueError{Expected: expected, Text: strconv.FormatInt(v, 10)}
	}
	return v, nil
}

// readUnsigned reads any integer encoding and checks it fits [0, max].
func (r *Reader) readUnsigned(expected string, max uint64) (uint64, error) {
	k, err := r.expect(expected, KindInt, KindUint)
	if err != nil {
		return 0, err
	}
	if k == KindInt {
		v, err := r.dec.DecodeInt64()
		if err != nil {
			return 0, streamErr(err)
		}
		if v < 0 || uint64(v) > max {
			return 0, &InvalidValueError{Expected: expected, Text: strconv.FormatInt(v, 10)}
		}
		return uint64(v), nil
	}
	u, err := r.dec.DecodeUint64()
	if err != nil {
		return 0, streamErr(err)
	}
	if u > max {
		return 0, &InvalidValueError{Expected: expected, Text: strconv.FormatUint(u, 10)}
	}
	return u, nil
}

// ReadInt8 reads an integer that fits in an int8.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.readSigned("int8", math.MinInt8, math.MaxInt8)
	return int8(v), err
}

// ReadInt16 reads an integer that fits in an int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.readSigned("int16", math.MinInt16, math.MaxInt16)
	return int16(v), err
}

// ReadInt32 reads an integer that fits in an int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.readSigned("int32", math.MinInt32, math.MaxInt32)
	return int32(v), err
}

// ReadInt64 reads an integer that fits in an int64.
func (r *Reader) ReadInt64() (int64, error) {
	return r.readSigned("int64", math.MinInt64, math.MaxInt64)
}

// ReadUint8 reads a non-negative integer that fits in a uint8.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.readUnsigned("uint8", math.MaxUint8)
	return uint8(v), err
}

// ReadUint16 reads a non-negative integer that fits in a uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.readUnsigned("uint16", math.MaxUint16)
	return uint16(v), err
}

// ReadUint32 reads a non-negative integer that fits in a uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.readUnsigned("uint32", math.MaxUint32)
	return uint32(v), err
}

// ReadUint64 reads a non-negative integer.
func (r *Reader) ReadUint64() (uint64, error) {
	return r.readUnsigned("uint64", math.MaxUint64)
}

// ReadFloat32 reads a float32. Float64 encodings are rejected since they
// would lose precision.
func (r *Reader) ReadFloat32() (float32, error) {
	if _, err := r.expect("float32", KindFloat32); err != nil {
		return 0, err
	}
	v, err := r.dec.DecodeFloat32()
	if err != nil {
		return 0, streamErr(err)
	}
	return v, nil
}

// ReadFloat64 reads a float64, accepting either float encoding.
func (r *Reader) ReadFloat64() (float64, error) {
	if _, err := r.expect("float64", KindFloat32, KindFloat64); err != nil {
		return 0, err
	}
	v, err := r.dec.DecodeFloat64()
	if err != nil {
		return 0, streamErr(err)
	}
	return v, nil
}

// ReadString reads a UTF-8 string. Binary values are rejected, and a
// string that is not valid UTF-8 is an InvalidValueError.
func (r *Reader) ReadString() (string, error) {
	if _, err := r.expect("string", KindString); err != nil {
		return "", err
	}
	v, err := r.dec.DecodeString()
	if err != nil {
		return "", streamErr(err)
	}
	if !utf8.ValidString(v) {
		return "", &InvalidValueError{Expected: "UTF-8 string", Text: v}
	}
	return v, nil
}

// ReadBytes reads a binary value.
func (r *Reader) ReadBytes() ([]byte, error) {
	if _, err := r.expect("binary", KindBinary); err != nil {
		return nil, err
	}
	v, err := r.dec.DecodeBytes()
	if err != nil {
		return nil, streamErr(err)
	}
	return v, nil
}

// ReadDecimal reads a decimal encoded as its canonical string. A string
// that does not parse is an error, never a silent zero.
func (r *Reader) ReadDecimal() (decimal.Decimal, error) {
	if _, err := r.expect("decimal", KindString); err != nil {
		return decimal.Zero, err
	}
	s, err := r.dec.DecodeString()
	if err != nil {
		return decimal.Zero, streamErr(err)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &InvalidValueError{Expected: "decimal", Text: s, Cause: err}
	}
	return d, nil
}

// Skip consumes the next value, including any nested values.
func (r *Reader) Skip() error {
	if _, err := r.PeekKind(); err != nil {
		return err
	}
	return streamErr(r.dec.Skip())
}
