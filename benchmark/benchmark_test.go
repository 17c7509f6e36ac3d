// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package benchmark

import (
	"bytes"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/Query-farm/strictpack/strictpack"
)

func mustFor[T any](b testing.TB) *strictpack.TypedCodec[T] {
	b.Helper()
	c, err := strictpack.For[T](strictpack.NewRegistry())
	if err != nil {
		b.Fatal(err)
	}
	return c
}

func benchRoundTrip[T any](b *testing.B, v T) {
	c := mustFor[T](b)
	data, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.Run("encode", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(data)))
		for b.Loop() {
			if err := c.Encode(io.Discard, v); err != nil {
				b.Fatal(err)
			}
		}
	})
	b.Run("decode", func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(data)))
		r := bytes.NewReader(data)
		for b.Loop() {
			r.Reset(data)
			if _, err := c.Decode(r); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkNoop(b *testing.B)  { benchRoundTrip(b, Noop{OK: true}) }
func BenchmarkAdd(b *testing.B)   { benchRoundTrip(b, Add{A: 1.5, B: 2.5}) }
func BenchmarkGreet(b *testing.B) { benchRoundTrip(b, Greet{Name: "World"}) }

func BenchmarkRoundtripTypes(b *testing.B) { benchRoundTrip(b, NewRoundtripTypes(16)) }
func BenchmarkOrder(b *testing.B)          { benchRoundTrip(b, NewOrder(100)) }
func BenchmarkTree(b *testing.B)           { benchRoundTrip(b, NewTree(4, 4)) }

func BenchmarkRegistryGet(b *testing.B) {
	reg := strictpack.NewRegistry()
	typ := reflect.TypeFor[Order]()
	if _, err := reg.Get(typ); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := reg.Get(typ); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

func BenchmarkCompile(b *testing.B) {
	typ := reflect.TypeFor[Order]()
	b.ReportAllocs()
	for b.Loop() {
		if _, err := strictpack.NewRegistry().Get(typ); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCanRead(b *testing.B) {
	reg := strictpack.NewRegistry()
	w, err := reg.WriteContract(reflect.TypeFor[Node]())
	if err != nil {
		b.Fatal(err)
	}
	r, err := reg.ReadContract(reflect.TypeFor[Node]())
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		if !strictpack.CanRead(w, r, false) {
			b.Fatal("incompatible")
		}
	}
}

func BenchmarkTransform(b *testing.B) {
	c := mustFor[Generate](b)
	data, err := EncodeGenerated(c, 1000)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		if _, _, err := Transform(c, data, 2); err != nil {
			b.Fatal(err)
		}
	}
}

func TestFixturesRoundTrip(t *testing.T) {
	reg := strictpack.NewRegistry()
	check := func(name string, typ reflect.Type, v any) {
		t.Helper()
		c, err := reg.Get(typ)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		data, err := c.Marshal(v)
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		out := reflect.New(typ)
		if err := c.Unmarshal(data, out.Interface()); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		again, err := c.Marshal(out.Interface())
		if err != nil || !bytes.Equal(data, again) {
			t.Fatalf("%s: re-encoding differs (%v)", name, err)
		}
	}
	check("RoundtripTypes", reflect.TypeFor[RoundtripTypes](), NewRoundtripTypes(4))
	check("Order", reflect.TypeFor[Order](), NewOrder(10))
	check("Tree", reflect.TypeFor[Node](), NewTree(3, 2))
}

func TestTransform(t *testing.T) {
	c := mustFor[Generate](t)
	data, err := EncodeGenerated(c, 50)
	if err != nil {
		t.Fatal(err)
	}
	out, n, err := Transform(c, data, 3)
	if err != nil || n != 50 {
		t.Fatalf("Transform = %d, %v", n, err)
	}
	r := bytes.NewReader(out)
	for i := range 50 {
		v, err := c.Decode(r)
		if err != nil {
			t.Fatal(err)
		}
		if v.I != int64(i) || v.Value != int64(i)*30 {
			t.Fatalf("value %d = %+v", i, v)
		}
	}
}

func TestConcurrentCodecUse(t *testing.T) {
	c := mustFor[Order](t)
	order := NewOrder(20)
	want, err := c.Marshal(order)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				got, err := c.Marshal(order)
				if err != nil || !bytes.Equal(got, want) {
					t.Error("concurrent encode differs")
					return
				}
				if _, err := c.Unmarshal(got); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
