// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"reflect"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"
)

type contractPair struct {
	a, b Contract
}

// Equal reports whether a and b describe the same wire shape. Records are
// compared field by field (name, default and contract) and their Go type
// names are ignored. Recursive graphs are compared by assuming
// equality for any pair already under comparison.
func Equal(a, b Contract) bool {
	return equal(a, b, nil)
}

func equal(a, b Contract, inProgress map[contractPair]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch x := a.(type) {
	case *PrimitiveContract:
		y, ok := b.(*PrimitiveContract)
		return ok && x.Kind == y.Kind
	case *EnumContract:
		y, ok := b.(*EnumContract)
		if !ok || len(x.Members) != len(y.Members) {
			return false
		}
		for i := range x.Members {
			if x.Members[i] != y.Members[i] {
				return false
			}
		}
		return true
	case *TupleReadContract:
		y, ok := b.(*TupleReadContract)
		return ok && equalChildren(x.Children(), y.Children(), inProgress)
	case *TupleWriteContract:
		y, ok := b.(*TupleWriteContract)
		return ok && equalChildren(x.Children(), y.Children(), inProgress)
	case *ListReadContract:
		y, ok := b.(*ListReadContract)
		return ok && equal(x.Item, y.Item, inProgress)
	case *ListWriteContract:
		y, ok := b.(*ListWriteContract)
		return ok && equal(x.Item, y.Item, inProgress)
	case *NullableReadContract:
		y, ok := b.(*NullableReadContract)
		return ok && equal(x.Item, y.Item, inProgress)
	case *NullableWriteContract:
		y, ok := b.(*NullableWriteContract)
		return ok && equal(x.Item, y.Item, inProgress)
	case *RecordReadContract:
		y, ok := b.(*RecordReadContract)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		key := contractPair{a, b}
		if inProgress[key] {
			return true
		}
		if inProgress == nil {
			inProgress = make(map[contractPair]bool)
		}
		inProgress[key] = true
		for i := range x.Fields {
			fx, fy := x.Fields[i], y.Fields[i]
			if fx.Name != fy.Name || fx.HasDefault != fy.HasDefault {
				return false
			}
			if fx.HasDefault && !equalDefault(fx.Default, fy.Default) {
				return false
			}
			if !equal(fx.Contract, fy.Contract, inProgress) {
				return false
			}
		}
		return true
	case *RecordWriteContract:
		y, ok := b.(*RecordWriteContract)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		key := contractPair{a, b}
		if inProgress[key] {
			return true
		}
		if inProgress == nil {
			inProgress = make(map[contractPair]bool)
		}
		inProgress[key] = true
		for i := range x.Fields {
			fx, fy := x.Fields[i], y.Fields[i]
			if fx.Name != fy.Name {
				return false
			}
			if !equal(fx.Contract, fy.Contract, inProgress) {
				return false
			}
		}
		return true
	}
	return false
}

// equalDefault compares two field defaults. Decimals compare by value, so
// 1.5 and 1.50 are the same default.
func equalDefault(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Pointer && vb.Kind() == reflect.Pointer {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil() && va.Type() == vb.Type()
		}
		a, b = va.Elem().Interface(), vb.Elem().Interface()
	}
	if da, ok := a.(decimal.Decimal); ok {
		db, ok := b.(decimal.Decimal)
		return ok && da.Equal(db)
	}
	return reflect.DeepEqual(a, b)
}

func equalChildren(a, b []Contract, inProgress map[contractPair]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i], inProgress) {
			return false
		}
	}
	return true
}

// Variant tags mixed into hashes so that, for example, a tuple and a
// collection over the same child never collide by construction.
const (
	tagPrimitive byte = iota + 1
	tagEnum
	tagTupleRead
	tagTupleWrite
	tagListRead
	tagListWrite
	tagRecordRead
	tagRecordWrite
	tagNullableRead
	tagNullableWrite
)

func variantTag(c Contract) byte {
	switch c.(type) {
	case *PrimitiveContract:
		return tagPrimitive
	case *EnumContract:
		return tagEnum
	case *TupleReadContract:
		return tagTupleRead
	case *TupleWriteContract:
		return tagTupleWrite
	case *ListReadContract:
		return tagListRead
	case *ListWriteContract:
		return tagListWrite
	case *RecordReadContract:
		return tagRecordRead
	case *RecordWriteContract:
		return tagRecordWrite
	case *NullableReadContract:
		return tagNullableRead
	case *NullableWriteContract:
		return tagNullableWrite
	}
	return 0
}

// Hash returns a structural hash of c consistent with Equal. A record
// contributes its field names, defaults and the variant of each field
// contract when it is the root of c; records nested anywhere below the
// root contribute only their variant. The hash of a collection or tuple
// therefore never depends on the fields of a record it contains, which
// keeps hashing finite on recursive graphs and stable while a record is
// being built.
func Hash(c Contract) uint64 {
	d := xxhash.New()
	hashInto(d, c, true)
	return d.Sum64()
}

func hashInto(d *xxhash.Digest, c Contract, root bool) {
	tag := variantTag(c)
	d.Write([]byte{tag})
	switch x := c.(type) {
	case *PrimitiveContract:
		d.Write([]byte{byte(x.Kind)})
	case *EnumContract:
		for _, m := range x.Members {
			d.WriteString(m)
			d.Write([]byte{0})
		}
	case *TupleReadContract, *TupleWriteContract:
		children := c.Children()
		d.Write([]byte{byte(len(children))})
		for _, child := range children {
			hashInto(d, child, false)
		}
	case *ListReadContract:
		hashInto(d, x.Item, false)
	case *ListWriteContract:
		hashInto(d, x.Item, false)
	case *NullableReadContract:
		hashInto(d, x.Item, false)
	case *NullableWriteContract:
		hashInto(d, x.Item, false)
	case *RecordReadContract:
		if !root {
			return
		}
		for _, f := range x.Fields {
			d.WriteString(f.Name)
			if f.HasDefault {
				d.Write([]byte{1})
				hashDefault(d, f.Default)
			} else {
				d.Write([]byte{0})
			}
			hashInto(d, f.Contract, false)
		}
	case *RecordWriteContract:
		if !root {
			return
		}
		for _, f := range x.Fields {
			d.WriteString(f.Name)
			d.Write([]byte{0})
			hashInto(d, f.Contract, false)
		}
	}
}

// hashDefault mixes a default into d. Decimals and floats are skipped
// since equal values may render differently (1.5 and 1.50, 0 and -0).
func hashDefault(d *xxhash.Digest, v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			d.Write([]byte{0})
			return
		}
		v = rv.Elem().Interface()
	}
	if _, ok := v.(decimal.Decimal); ok {
		return
	}
	if k := reflect.ValueOf(v).Kind(); k == reflect.Float32 || k == reflect.Float64 {
		return
	}
	d.WriteString(defaultMarkup(v))
	d.Write([]byte{0})
}

// foldName normalises a field or member name for case-insensitive lookup.
func foldName(s string) string {
	return strings.ToLower(s)
}
