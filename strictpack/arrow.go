// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// Arrow metadata keys attached to exported schemas and fields.
const (
	MetaMarkup   = "strictpack.markup"
	MetaKind     = "strictpack.kind"
	MetaRecord   = "strictpack.record"
	MetaDefault  = "strictpack.default"
	MetaTupleLen = "strictpack.arity"
)

// ArrowType maps a contract to the Arrow type describing the same values.
// Decimals map to strings tagged with field metadata by ArrowSchema;
// enums map to dictionary-encoded strings, tuples to structs with fields
// item1..itemN, and records to structs. A nullable contract maps to the
// type of its item; ArrowSchema marks the field nullable. Recursive
// records have no Arrow representation and are rejected.
func ArrowType(c Contract) (arrow.DataType, error) {
	return arrowType(c, make(map[Contract]bool))
}

func arrowType(c Contract, inProgress map[Contract]bool) (arrow.DataType, error) {
	switch x := c.(type) {
	case *PrimitiveContract:
		return primitiveArrowType(x.Kind)
	case *EnumContract:
		return &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Int16,
			ValueType: arrow.BinaryTypes.String,
		}, nil
	case *TupleReadContract, *TupleWriteContract:
		children := c.Children()
		fields := make([]arrow.Field, len(children))
		for i, child := range children {
			f, err := arrowField("item"+strconv.Itoa(i+1), child, inProgress)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return arrow.StructOf(fields...), nil
	case *ListReadContract:
		elem, err := arrowType(x.Item, inProgress)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	case *ListWriteContract:
		elem, err := arrowType(x.Item, inProgress)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(elem), nil
	case *NullableReadContract:
		return arrowType(x.Item, inProgress)
	case *NullableWriteContract:
		return arrowType(x.Item, inProgress)
	case *RecordReadContract, *RecordWriteContract:
		if inProgress[c] {
			return nil, &Error{Kind: UnsupportedShape, Value: fmt.Sprintf("recursive record %s has no Arrow representation", recordRef(c))}
		}
		inProgress[c] = true
		defer delete(inProgress, c)
		fields, err := recordArrowFields(c, inProgress)
		if err != nil {
			return nil, err
		}
		return arrow.StructOf(fields...), nil
	}
	return nil, &Error{Kind: UnsupportedShape, Value: fmt.Sprintf("contract %T has no Arrow representation", c)}
}

func primitiveArrowType(k PrimitiveKind) (arrow.DataType, error) {
	switch k {
	case Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Uint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case Uint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case Uint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case Uint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String, Decimal:
		return arrow.BinaryTypes.String, nil
	case Bytes:
		return arrow.BinaryTypes.Binary, nil
	}
	return nil, &Error{Kind: UnsupportedShape, Value: fmt.Sprintf("primitive kind %d", k)}
}

// arrowField builds a named field for c, tagging decimals, tuples and
// records with metadata so the wire shape stays recoverable.
func arrowField(name string, c Contract, inProgress map[Contract]bool) (arrow.Field, error) {
	nullable := false
	switch x := c.(type) {
	case *NullableReadContract:
		c, nullable = x.Item, true
	case *NullableWriteContract:
		c, nullable = x.Item, true
	}
	dt, err := arrowType(c, inProgress)
	if err != nil {
		return arrow.Field{}, fmt.Errorf("field %s: %w", name, err)
	}
	f := arrow.Field{Name: name, Type: dt, Nullable: nullable}
	switch x := c.(type) {
	case *PrimitiveContract:
		if x.Kind == Decimal {
			f.Metadata = arrow.NewMetadata([]string{MetaKind}, []string{"decimal"})
		}
	case *TupleReadContract, *TupleWriteContract:
		f.Metadata = arrow.NewMetadata([]string{MetaKind, MetaTupleLen},
			[]string{"tuple", strconv.Itoa(len(c.Children()))})
	case *RecordReadContract:
		f.Metadata = arrow.NewMetadata([]string{MetaKind, MetaRecord}, []string{"record", x.Name})
	case *RecordWriteContract:
		f.Metadata = arrow.NewMetadata([]string{MetaKind, MetaRecord}, []string{"record", x.Name})
	}
	return f, nil
}

func recordArrowFields(c Contract, inProgress map[Contract]bool) ([]arrow.Field, error) {
	var fields []arrow.Field
	switch x := c.(type) {
	case *RecordReadContract:
		for _, rf := range x.Fields {
			f, err := arrowField(rf.Name, rf.Contract, inProgress)
			if err != nil {
				return nil, err
			}
			if rf.HasDefault {
				keys := append(append([]string(nil), f.Metadata.Keys()...), MetaDefault)
				vals := append(append([]string(nil), f.Metadata.Values()...), defaultMarkup(rf.Default))
				f.Metadata = arrow.NewMetadata(keys, vals)
			}
			fields = append(fields, f)
		}
	case *RecordWriteContract:
		for _, wf := range x.Fields {
			f, err := arrowField(wf.Name, wf.Contract, inProgress)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}
	return fields, nil
}

// ArrowSchema describes c as an Arrow schema. A record contributes one
// column per field; any other contract becomes a single column named
// "value". A nullable record is described by its fields. The schema
// metadata carries the contract markup.
func ArrowSchema(c Contract) (*arrow.Schema, error) {
	md := arrow.NewMetadata([]string{MetaMarkup}, []string{Markup(c)})
	rec := c
	switch x := c.(type) {
	case *NullableReadContract:
		rec = x.Item
	case *NullableWriteContract:
		rec = x.Item
	}
	switch rec.(type) {
	case *RecordReadContract, *RecordWriteContract:
		c = rec
		inProgress := map[Contract]bool{c: true}
		fields, err := recordArrowFields(c, inProgress)
		if err != nil {
			return nil, err
		}
		return arrow.NewSchema(fields, &md), nil
	}
	f, err := arrowField("value", c, make(map[Contract]bool))
	if err != nil {
		return nil, err
	}
	return arrow.NewSchema([]arrow.Field{f}, &md), nil
}

// SerializeSchema serializes an Arrow schema to IPC stream bytes.
func SerializeSchema(schema *arrow.Schema) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("strictpack: serializing schema: %w", err)
	}
	return buf.Bytes(), nil
}
