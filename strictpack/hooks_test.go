// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Query-farm/strictpack/strictpack/wire"
)

type hookCall struct {
	info  CodecInfo
	stats CodecStatistics
	err   error
}

type recordingHook struct {
	mu    sync.Mutex
	calls []hookCall
}

type ctxKey struct{}

func (h *recordingHook) OnCodecStart(ctx context.Context, info CodecInfo) (context.Context, HookToken) {
	return context.WithValue(ctx, ctxKey{}, info.Operation), info.Operation
}

func (h *recordingHook) OnCodecEnd(ctx context.Context, token HookToken, info CodecInfo, stats *CodecStatistics, err error) {
	if ctx.Value(ctxKey{}) != token {
		panic("hook context not propagated")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, hookCall{info: info, stats: *stats, err: err})
}

func TestCodecHook(t *testing.T) {
	hook := &recordingHook{}
	cfg := DefaultConfig()
	cfg.Hook = hook
	reg := NewRegistryWithConfig(cfg)

	c := mustFor[WeightedUserScore](t, reg)
	data, err := c.Marshal(WeightedUserScore{Weight: 1, UserScore: UserScore{"a", 2}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Unmarshal(data); err != nil {
		t.Fatal(err)
	}
	_, err = c.Unmarshal(data[:3])
	if !errors.Is(err, ErrStreamEnded) {
		t.Fatalf("got %v", err)
	}

	if len(hook.calls) != 4 {
		t.Fatalf("got %d hook calls, want 4", len(hook.calls))
	}
	compile := hook.calls[0]
	if compile.info.Operation != CodecOpCompile || compile.info.Variant != "record" {
		t.Errorf("compile info = %+v", compile.info)
	}
	// WeightedUserScore, float64, UserScore, string, int32
	if compile.stats.Types != 5 {
		t.Errorf("compiled %d types, want 5", compile.stats.Types)
	}
	enc := hook.calls[1]
	if enc.info.Operation != CodecOpEncode || enc.stats.Bytes != int64(len(data)) || enc.err != nil {
		t.Errorf("encode call = %+v", enc)
	}
	dec := hook.calls[2]
	if dec.info.Operation != CodecOpDecode || dec.stats.Bytes != int64(len(data)) || dec.err != nil {
		t.Errorf("decode call = %+v", dec)
	}
	if failed := hook.calls[3]; !errors.Is(failed.err, ErrStreamEnded) {
		t.Errorf("failed decode reported %v", failed.err)
	}

	// A second lookup is served from the cache without compiling.
	if _, err := For[WeightedUserScore](reg); err != nil {
		t.Fatal(err)
	}
	if len(hook.calls) != 4 {
		t.Fatalf("cached lookup called the hook")
	}
}

func TestCodecHookCompileFailure(t *testing.T) {
	hook := &recordingHook{}
	reg := NewRegistry()
	reg.SetCodecHook(hook)
	_, err := reg.Get(reflect.TypeFor[map[string]int]())
	if !errors.Is(err, ErrUnsupportedShape) {
		t.Fatalf("got %v", err)
	}
	if len(hook.calls) != 1 || !errors.Is(hook.calls[0].err, ErrUnsupportedShape) {
		t.Fatalf("hook calls = %+v", hook.calls)
	}
}

type panickingHook struct{ onStart bool }

func (h panickingHook) OnCodecStart(ctx context.Context, info CodecInfo) (context.Context, HookToken) {
	if h.onStart {
		panic("start")
	}
	return ctx, nil
}

func (h panickingHook) OnCodecEnd(context.Context, HookToken, CodecInfo, *CodecStatistics, error) {
	panic("end")
}

func TestPanickingHookRecovered(t *testing.T) {
	for _, onStart := range []bool{true, false} {
		var logs bytes.Buffer
		cfg := DefaultConfig()
		cfg.Hook = panickingHook{onStart: onStart}
		cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))
		reg := NewRegistryWithConfig(cfg)

		c := mustFor[UserScore](t, reg)
		data, err := c.Marshal(UserScore{"a", 1})
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Unmarshal(data)
		if err != nil || got != (UserScore{"a", 1}) {
			t.Fatalf("got %+v, %v", got, err)
		}
		if !strings.Contains(logs.String(), "codec hook") {
			t.Errorf("panic not logged: %q", logs.String())
		}
	}
}

func TestCountingReaderKeepsByteScanner(t *testing.T) {
	data := craft(t, func(w *wire.Writer) error { return pairs(w, "name", "a", "score", 1) })
	r := bytes.NewReader(data)
	src, count := counted(r)
	if _, ok := src.(interface{ UnreadByte() error }); !ok {
		t.Fatal("ByteScanner hidden by counting wrapper")
	}
	reg := NewRegistry()
	c, err := reg.Get(reflect.TypeFor[UserScore]())
	if err != nil {
		t.Fatal(err)
	}
	var out UserScore
	if err := c.root.decode(wire.NewReader(src), reflect.ValueOf(&out).Elem()); err != nil {
		t.Fatal(err)
	}
	if count() != int64(len(data)) || r.Len() != 0 {
		t.Fatalf("counted %d of %d bytes, %d left", count(), len(data), r.Len())
	}
}

// reentrantHook compiles another type from inside the compile callbacks.
type reentrantHook struct {
	reg   *Registry
	errs  []error
	sizes []int
}

func (h *reentrantHook) OnCodecStart(ctx context.Context, info CodecInfo) (context.Context, HookToken) {
	if info.Type == reflect.TypeFor[WeightedUserScore]().String() {
		_, err := h.reg.Get(reflect.TypeFor[UserScore]())
		h.errs = append(h.errs, err)
	}
	return ctx, nil
}

func (h *reentrantHook) OnCodecEnd(ctx context.Context, token HookToken, info CodecInfo, stats *CodecStatistics, err error) {
	if info.Operation == CodecOpCompile {
		h.sizes = append(h.sizes, h.reg.Len())
	}
}

func TestHookMayUseRegistry(t *testing.T) {
	hook := &reentrantHook{}
	cfg := DefaultConfig()
	cfg.Hook = hook
	reg := NewRegistryWithConfig(cfg)
	hook.reg = reg

	done := make(chan error, 1)
	go func() {
		_, err := reg.Get(reflect.TypeFor[WeightedUserScore]())
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("compiling from inside a hook deadlocked")
	}

	if len(hook.errs) != 1 || hook.errs[0] != nil {
		t.Fatalf("nested Get errors = %v", hook.errs)
	}
	// UserScore finishes first, then WeightedUserScore.
	if want := []int{1, 2}; !reflect.DeepEqual(hook.sizes, want) {
		t.Fatalf("Len seen by hook = %v, want %v", hook.sizes, want)
	}
}
