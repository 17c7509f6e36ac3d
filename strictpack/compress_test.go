// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"bytes"
	"reflect"
	"testing"
)

func TestCompressedRoundTrip(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.Get(reflect.TypeFor[UserScoreList]())
	if err != nil {
		t.Fatal(err)
	}
	in := UserScoreList{Name: "scores", Scores: make([]int32, 4096)}
	for i := range in.Scores {
		in.Scores[i] = int32(i % 7)
	}

	var compressed bytes.Buffer
	if err := c.EncodeCompressed(&compressed, in); err != nil {
		t.Fatalf("EncodeCompressed: %v", err)
	}
	plain, err := c.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if compressed.Len() >= len(plain) {
		t.Errorf("compressed %d bytes, plain %d", compressed.Len(), len(plain))
	}

	var out UserScoreList
	if err := c.DecodeCompressed(&compressed, &out); err != nil {
		t.Fatalf("DecodeCompressed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatal("round trip mismatch")
	}
}

func TestDecodeCompressedRejectsGarbage(t *testing.T) {
	reg := NewRegistry()
	c, err := reg.Get(reflect.TypeFor[UserScore]())
	if err != nil {
		t.Fatal(err)
	}
	var out UserScore
	if err := c.DecodeCompressed(bytes.NewReader([]byte("not zstd")), &out); err == nil {
		t.Fatal("garbage accepted")
	}
	if out != (UserScore{}) {
		t.Fatal("target modified")
	}
}
