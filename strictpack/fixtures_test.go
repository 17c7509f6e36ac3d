// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Query-farm/strictpack/strictpack/wire"
)

type UserScore struct {
	Name  string `strictpack:"name"`
	Score int32  `strictpack:"score"`
}

type UserScoreWithDefault struct {
	Name  string `strictpack:"name"`
	Score int32  `strictpack:"score,default=100"`
}

type WeightedUserScore struct {
	Weight    float64
	UserScore UserScore
}

type UserScoreList struct {
	Name   string
	Scores []int32
}

type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (Color) EnumMembers() []EnumMember {
	return []EnumMember{{"Red", int64(Red)}, {"Green", int64(Green)}, {"Blue", int64(Blue)}}
}

// Shade is Color without Blue.
type Shade uint8

func (Shade) EnumMembers() []EnumMember {
	return []EnumMember{{"Red", 0}, {"Green", 1}}
}

type Defaults struct {
	Sb  int8            `strictpack:"sb,default=-12"`
	B   uint8           `strictpack:"b,default=12"`
	S   int16           `strictpack:"s,default=-1234"`
	Us  uint16          `strictpack:"us,default=1234"`
	I   int32           `strictpack:"i,default=-12345"`
	Ui  uint32          `strictpack:"ui,default=12345"`
	L   int64           `strictpack:"l,default=-12345678900"`
	Ul  uint64          `strictpack:"ul,default=12345678900"`
	Str string          `strictpack:"str,default=str"`
	F   float32         `strictpack:"f,default=1.23"`
	D   float64         `strictpack:"d,default=1.23"`
	Dc  decimal.Decimal `strictpack:"dc,default=1.23"`
	Bo  bool            `strictpack:"bo,default=true"`
	O   *UserScore      `strictpack:"o,default=null"`
	C   Color           `strictpack:"c,default=green"`
	P   *int32          `strictpack:"p,default=7"`
}

type Tree struct {
	Value    int32
	Children []Tree
}

type LinkedNode struct {
	Name string
	Next *LinkedNode
}

type Everything struct {
	I8     int8
	I16    int16
	I32    int32
	I64    int64
	I      int
	U8     uint8
	U16    uint16
	U32    uint32
	U64    uint64
	U      uint
	F32    float32
	F64    float64
	Bool   bool
	Str    string
	Blob   []byte
	Color  Color
	Pair   Tuple2[int32, string]
	Triple [3]int16
	Matrix [][]int32
	Nested []UserScore
	Opt    *UserScore
	hidden int
	Skip   string `strictpack:"-"`
}

// craft builds a wire message by hand, for inputs no codec would emit.
func craft(t *testing.T, build func(w *wire.Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := build(wire.NewWriter(&buf)); err != nil {
		t.Fatalf("crafting message: %v", err)
	}
	return buf.Bytes()
}

// pairs writes a map of string keys to values written by the given funcs.
func pairs(w *wire.Writer, kv ...any) error {
	if err := w.WriteMapHeader(len(kv) / 2); err != nil {
		return err
	}
	for i := 0; i < len(kv); i += 2 {
		if err := w.WriteString(kv[i].(string)); err != nil {
			return err
		}
		var err error
		switch v := kv[i+1].(type) {
		case string:
			err = w.WriteString(v)
		case int:
			err = w.WriteInt(int64(v))
		case float64:
			err = w.WriteFloat64(v)
		case bool:
			err = w.WriteBool(v)
		case nil:
			err = w.WriteNil()
		case func(*wire.Writer) error:
			err = v(w)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
