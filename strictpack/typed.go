// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"bytes"
	"context"
	"io"
	"reflect"
)

// TypedCodec is a Codec bound to the static type T.
type TypedCodec[T any] struct {
	codec *Codec
}

// For returns the typed codec for T from reg, compiling it on first use.
//
//	users, err := strictpack.For[UserScore](reg)
//	data, err := users.Marshal(UserScore{Name: "Bob", Score: 123})
func For[T any](reg *Registry) (*TypedCodec[T], error) {
	c, err := reg.Get(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &TypedCodec[T]{codec: c}, nil
}

// Codec returns the untyped codec.
func (tc *TypedCodec[T]) Codec() *Codec {
	return tc.codec
}

// Encode writes v to w.
func (tc *TypedCodec[T]) Encode(w io.Writer, v T) error {
	return tc.EncodeContext(context.Background(), w, v)
}

// EncodeContext is Encode with a context passed to the registry hook.
func (tc *TypedCodec[T]) EncodeContext(ctx context.Context, w io.Writer, v T) error {
	return tc.codec.encodeValue(ctx, w, reflect.ValueOf(&v).Elem())
}

// Decode reads one T from r. On failure it returns the zero T.
func (tc *TypedCodec[T]) Decode(r io.Reader) (T, error) {
	return tc.DecodeContext(context.Background(), r)
}

// DecodeContext is Decode with a context passed to the registry hook.
func (tc *TypedCodec[T]) DecodeContext(ctx context.Context, r io.Reader) (T, error) {
	var out T
	if err := tc.codec.decodeValue(ctx, r, reflect.ValueOf(&out).Elem()); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Marshal returns the encoding of v.
func (tc *TypedCodec[T]) Marshal(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := tc.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one T from data.
func (tc *TypedCodec[T]) Unmarshal(data []byte) (T, error) {
	return tc.Decode(bytes.NewReader(data))
}
