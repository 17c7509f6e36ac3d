// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package wire

import "github.com/vmihailenco/msgpack/v5/msgpcode"

// Kind classifies the next value in a MessagePack stream by its leading byte.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindBool
	KindInt  // signed integer encodings, including negative fixnums
	KindUint // unsigned integer encodings, including positive fixnums
	KindFloat32
	KindFloat64
	KindString
	KindBinary
	KindArray
	KindMap
	KindExt
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNil:     "nil",
	KindBool:    "bool",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindBinary:  "binary",
	KindArray:   "array",
	KindMap:     "map",
	KindExt:     "ext",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsInteger reports whether k is either integer encoding.
func (k Kind) IsInteger() bool {
	return k == KindInt || k == KindUint
}

// kindOf maps a MessagePack leading byte to its Kind.
func kindOf(c byte) Kind {
	switch {
	case c <= msgpcode.PosFixedNumHigh:
		return KindUint
	case c >= msgpcode.NegFixedNumLow:
		return KindInt
	case msgpcode.IsFixedMap(c):
		return KindMap
	case msgpcode.IsFixedArray(c):
		return KindArray
	case msgpcode.IsFixedString(c):
		return KindString
	}

	switch c {
	case msgpcode.Nil:
		return KindNil
	case msgpcode.False, msgpcode.True:
		return KindBool
	case msgpcode.Int8, msgpcode.Int16, msgpcode.Int32, msgpcode.Int64:
		return KindInt
	case msgpcode.Uint8, msgpcode.Uint16, msgpcode.Uint32, msgpcode.Uint64:
		return KindUint
	case msgpcode.Float:
		return KindFloat32
	case msgpcode.Double:
		return KindFloat64
	case msgpcode.Str8, msgpcode.Str16, msgpcode.Str32:
		return KindString
	case msgpcode.Bin8, msgpcode.Bin16, msgpcode.Bin32:
		return KindBinary
	case msgpcode.Array16, msgpcode.Array32:
		return KindArray
	case msgpcode.Map16, msgpcode.Map32:
		return KindMap
	case msgpcode.FixExt1, msgpcode.FixExt2, msgpcode.FixExt4, msgpcode.FixExt8, msgpcode.FixExt16,
		msgpcode.Ext8, msgpcode.Ext16, msgpcode.Ext32:
		return KindExt
	}
	return KindInvalid
}
