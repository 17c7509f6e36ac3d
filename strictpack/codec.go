// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/Query-farm/strictpack/strictpack/wire"
)

// Codec is the compiled encoder and decoder for one Go type. Codecs are
// obtained from a Registry, are immutable and are safe for concurrent use.
type Codec struct {
	reg     *Registry
	typ     reflect.Type
	variant shape
	read    ReadContract
	write   WriteContract
	root    *codecNode
}

// Type returns the Go type the codec was compiled for.
func (c *Codec) Type() reflect.Type { return c.typ }

// ReadContract returns the contract the codec decodes under.
func (c *Codec) ReadContract() ReadContract { return c.read }

// WriteContract returns the contract the codec encodes under.
func (c *Codec) WriteContract() WriteContract { return c.write }

// Encode writes v to w. v must have the codec's type or be a non-nil
// pointer to it. On failure w may hold a partial message; callers must
// discard it.
func (c *Codec) Encode(w io.Writer, v any) error {
	return c.EncodeContext(context.Background(), w, v)
}

// EncodeContext is Encode with a context passed to the registry hook.
func (c *Codec) EncodeContext(ctx context.Context, w io.Writer, v any) error {
	rv, err := c.valueOf(v)
	if err != nil {
		return err
	}
	return c.encodeValue(ctx, w, rv)
}

// Decode reads one value from r into out, which must be a non-nil pointer
// to the codec's type. out is left untouched on failure. Readers that do
// not implement io.ByteScanner are buffered, so bytes after the value may
// be consumed from r.
func (c *Codec) Decode(r io.Reader, out any) error {
	return c.DecodeContext(context.Background(), r, out)
}

// DecodeContext is Decode with a context passed to the registry hook.
func (c *Codec) DecodeContext(ctx context.Context, r io.Reader, out any) error {
	dst, err := c.target(out)
	if err != nil {
		return err
	}
	return c.decodeValue(ctx, r, dst)
}

// Marshal returns the encoding of v.
func (c *Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into out, which must be a non-nil pointer to the
// codec's type.
func (c *Codec) Unmarshal(data []byte, out any) error {
	return c.Decode(bytes.NewReader(data), out)
}

func (c *Codec) info(op string) CodecInfo {
	return CodecInfo{Operation: op, Type: c.typ.String(), Variant: c.variant.String()}
}

func (c *Codec) encodeValue(ctx context.Context, w io.Writer, v reflect.Value) (err error) {
	cw := &countingWriter{w: w}
	if c.reg.cfg.Hook != nil {
		info := c.info(CodecOpEncode)
		var token HookToken
		var active bool
		ctx, token, active = c.reg.hookStart(ctx, info)
		if active {
			defer func() {
				c.reg.hookEnd(ctx, token, info, &CodecStatistics{Bytes: cw.n}, err)
			}()
		}
	}
	return c.root.encode(wire.NewWriter(cw), v)
}

// decodeValue decodes into a fresh value and assigns it to dst only on
// success.
func (c *Codec) decodeValue(ctx context.Context, r io.Reader, dst reflect.Value) (err error) {
	src, count := counted(r)
	if c.reg.cfg.Hook != nil {
		info := c.info(CodecOpDecode)
		var token HookToken
		var active bool
		ctx, token, active = c.reg.hookStart(ctx, info)
		if active {
			defer func() {
				c.reg.hookEnd(ctx, token, info, &CodecStatistics{Bytes: count()}, err)
			}()
		}
	}
	fresh := reflect.New(c.typ).Elem()
	if err := c.root.decode(wire.NewReader(src), fresh); err != nil {
		return err
	}
	dst.Set(fresh)
	return nil
}

func (c *Codec) valueOf(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		switch c.typ.Kind() {
		case reflect.Pointer, reflect.Slice:
			return reflect.Zero(c.typ), nil
		}
	case rv.Type() == c.typ:
		return rv, nil
	case rv.Kind() == reflect.Pointer && rv.Type().Elem() == c.typ && !rv.IsNil():
		return rv.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("strictpack: codec for %v cannot encode %T", c.typ, v)
}

func (c *Codec) target(out any) (reflect.Value, error) {
	rv := reflect.ValueOf(out)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem() != c.typ {
		return reflect.Value{}, fmt.Errorf("strictpack: codec for %v cannot decode into %T", c.typ, out)
	}
	return rv.Elem(), nil
}
