// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"fmt"
	"reflect"
	"strings"
)

// Markup renders the contract graph rooted at c as a single document for
// diagnostics. Each record is written out in full at its first occurrence,
// labelled "#Name", and referenced as "#Name" afterwards, so recursive
// graphs render finitely. The output is not meant to be parsed back.
//
//	{#UserScore name:string score:int32=100}
//	[{tuple int32 (Blue Green Red)}]
//	{#Node name:string next:#Node?}
//
// A trailing "?" marks a nullable contract.
func Markup(c Contract) string {
	var b strings.Builder
	writeMarkup(&b, c, make(map[Contract]bool))
	return b.String()
}

func writeMarkup(b *strings.Builder, c Contract, written map[Contract]bool) {
	switch x := c.(type) {
	case nil:
		b.WriteString("<nil>")
	case *TupleReadContract, *TupleWriteContract:
		b.WriteString("{tuple")
		for _, child := range x.Children() {
			b.WriteByte(' ')
			writeMarkup(b, child, written)
		}
		b.WriteByte('}')
	case *ListReadContract:
		b.WriteByte('[')
		writeMarkup(b, x.Item, written)
		b.WriteByte(']')
	case *ListWriteContract:
		b.WriteByte('[')
		writeMarkup(b, x.Item, written)
		b.WriteByte(']')
	case *NullableReadContract:
		writeMarkup(b, x.Item, written)
		b.WriteByte('?')
	case *NullableWriteContract:
		writeMarkup(b, x.Item, written)
		b.WriteByte('?')
	case *RecordReadContract, *RecordWriteContract:
		if written[c] {
			b.WriteString(recordRef(c))
			return
		}
		written[c] = true
		b.WriteString(recordBody(c, written))
	default:
		b.WriteString(c.MarkupValue())
	}
}

// refMarkup renders c with records abbreviated to their reference.
func refMarkup(c Contract) string {
	switch c.(type) {
	case *RecordReadContract, *RecordWriteContract:
		return recordRef(c)
	case nil:
		return "<nil>"
	}
	return c.MarkupValue()
}

func recordRef(c Contract) string {
	switch x := c.(type) {
	case *RecordReadContract:
		return "#" + x.Name
	case *RecordWriteContract:
		return "#" + x.Name
	}
	return ""
}

// tupleMarkup renders a tuple node with children by reference.
func tupleMarkup(children []Contract) string {
	parts := make([]string, 0, len(children)+1)
	parts = append(parts, "{tuple")
	for _, child := range children {
		parts = append(parts, refMarkup(child))
	}
	return strings.Join(parts, " ") + "}"
}

// recordBody renders a record node. With a nil written set, field
// contracts are rendered by reference; otherwise nested records are
// expanded on first use.
func recordBody(c Contract, written map[Contract]bool) string {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(recordRef(c))
	field := func(name string, child Contract, def string) {
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteByte(':')
		if written == nil {
			b.WriteString(refMarkup(child))
		} else {
			writeMarkup(&b, child, written)
		}
		b.WriteString(def)
	}
	switch x := c.(type) {
	case *RecordReadContract:
		for _, f := range x.Fields {
			def := ""
			if f.HasDefault {
				def = "=" + defaultMarkup(f.Default)
			}
			field(f.Name, f.Contract, def)
		}
	case *RecordWriteContract:
		for _, f := range x.Fields {
			field(f.Name, f.Contract, "")
		}
	}
	b.WriteByte('}')
	return b.String()
}

func defaultMarkup(v any) string {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "null"
		}
		rv = rv.Elem()
		v = rv.Interface()
	}
	if name, ok := enumMemberName(rv); ok {
		return name
	}
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}
