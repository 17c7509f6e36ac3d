// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"context"
	"io"
)

// Operation string constants for CodecInfo.Operation.
const (
	CodecOpCompile = "compile"
	CodecOpEncode  = "encode"
	CodecOpDecode  = "decode"
)

// CodecHook provides observability callpoints around codec compilation,
// encoding and decoding. Implementations must be safe for concurrent use.
// Hooks are called without registry locks held, so a hook may itself use
// the registry; a hook that encodes or decodes through the same registry
// triggers nested hook calls.
type CodecHook interface {
	OnCodecStart(ctx context.Context, info CodecInfo) (context.Context, HookToken)
	OnCodecEnd(ctx context.Context, token HookToken, info CodecInfo, stats *CodecStatistics, err error)
}

// HookToken is an opaque value returned by OnCodecStart and passed back to
// OnCodecEnd. Only meaningful to the CodecHook that created it.
type HookToken interface{}

// CodecInfo carries codec metadata passed to hooks.
type CodecInfo struct {
	Operation string // CodecOpCompile, CodecOpEncode or CodecOpDecode
	Type      string // Go type name
	Variant   string // contract variant: primitive, enum, tuple, collection, record
}

// CodecStatistics holds per-call counters.
type CodecStatistics struct {
	Bytes int64 // bytes written (encode) or consumed from the source (decode)
	Types int64 // Go types compiled (compile)
}

// countingWriter counts bytes passed to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// countingReader counts bytes read from the underlying reader. It keeps
// io.ByteScanner available when the source provides it so the decoder
// does not add its own buffering.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingByteReader struct {
	countingReader
	bs io.ByteScanner
}

func (c *countingByteReader) ReadByte() (byte, error) {
	b, err := c.bs.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

func (c *countingByteReader) UnreadByte() error {
	err := c.bs.UnreadByte()
	if err == nil {
		c.n--
	}
	return err
}

// counted wraps r for byte counting and returns the wrapper with a
// function reporting the count so far.
func counted(r io.Reader) (io.Reader, func() int64) {
	if bs, ok := r.(io.ByteScanner); ok {
		c := &countingByteReader{countingReader: countingReader{r: r}, bs: bs}
		return c, func() int64 { return c.n }
	}
	c := &countingReader{r: r}
	return c, func() int64 { return c.n }
}

// hookStart calls the registry hook, recovering from panics. The returned
// bool reports whether OnCodecEnd should be called.
func (r *Registry) hookStart(ctx context.Context, info CodecInfo) (context.Context, HookToken, bool) {
	hook := r.cfg.Hook
	if hook == nil {
		return ctx, nil, false
	}
	var token HookToken
	active := false
	func() {
		defer func() {
			if rv := recover(); rv != nil {
				r.logger.Error("codec hook start panic", "err", rv, "op", info.Operation, "type", info.Type)
			}
		}()
		var hookCtx context.Context
		hookCtx, token = hook.OnCodecStart(ctx, info)
		if hookCtx != nil {
			ctx = hookCtx
		}
		active = true
	}()
	return ctx, token, active
}

// hookEnd calls OnCodecEnd, recovering from panics.
func (r *Registry) hookEnd(ctx context.Context, token HookToken, info CodecInfo, stats *CodecStatistics, err error) {
	func() {
		defer func() {
			if rv := recover(); rv != nil {
				r.logger.Error("codec hook end panic", "err", rv, "op", info.Operation, "type", info.Type)
			}
		}()
		r.cfg.Hook.OnCodecEnd(ctx, token, info, stats, err)
	}()
}
