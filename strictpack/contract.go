// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"sort"
	"strings"
)

// Contract is an immutable description of a type's wire shape. The set of
// variants is closed: primitives, enums, tuples, collections and records,
// each of which may be wrapped as nullable.
type Contract interface {
	// Children returns the nested contracts in order.
	Children() []Contract
	// MarkupValue renders this node with records referenced by name.
	MarkupValue() string
	// Equal reports structural equality with other.
	Equal(other Contract) bool
	// Hash returns a structural hash consistent with Equal.
	Hash() uint64

	contract()
}

// ReadContract describes what a consumer requires in order to decode.
type ReadContract interface {
	Contract
	// CopyReadTo copies the contract graph into c, preserving shared nodes
	// and cycles.
	CopyReadTo(c *ContractCollection) ReadContract
	readContract()
}

// WriteContract describes what a producer emits.
type WriteContract interface {
	Contract
	// CopyWriteTo copies the contract graph into c, preserving shared nodes
	// and cycles.
	CopyWriteTo(c *ContractCollection) WriteContract
	writeContract()
}

// PrimitiveKind enumerates the scalar wire types.
type PrimitiveKind uint8

const (
	Int8 PrimitiveKind = iota + 1
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
	String
	Decimal // fixed-point decimal carried as its canonical string
	Bytes   // binary blob
)

var primitiveNames = map[PrimitiveKind]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
	String:  "string",
	Decimal: "decimal",
	Bytes:   "bytes",
}

func (k PrimitiveKind) String() string {
	if s, ok := primitiveNames[k]; ok {
		return s
	}
	return "invalid"
}

// PrimitiveContract is both the read and write contract of a scalar.
type PrimitiveContract struct {
	Kind PrimitiveKind
}

var primitives = func() map[PrimitiveKind]*PrimitiveContract {
	m := make(map[PrimitiveKind]*PrimitiveContract, len(primitiveNames))
	for k := range primitiveNames {
		m[k] = &PrimitiveContract{Kind: k}
	}
	return m
}()

// Primitive returns the shared contract for kind. It returns nil for an
// unknown kind.
func Primitive(kind PrimitiveKind) *PrimitiveContract {
	return primitives[kind]
}

func (c *PrimitiveContract) Children() []Contract  { return nil }
func (c *PrimitiveContract) MarkupValue() string   { return c.Kind.String() }
func (c *PrimitiveContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *PrimitiveContract) Hash() uint64          { return Hash(c) }
func (c *PrimitiveContract) contract()             {}
func (c *PrimitiveContract) readContract()         {}
func (c *PrimitiveContract) writeContract()        {}

func (c *PrimitiveContract) CopyReadTo(cc *ContractCollection) ReadContract {
	return cc.copyRead(c)
}

func (c *PrimitiveContract) CopyWriteTo(cc *ContractCollection) WriteContract {
	return cc.copyWrite(c)
}

// EnumContract lists member names. As a read contract it is the set of
// names accepted; as a write contract, the set of names that may be
// emitted. Names are kept sorted and unique.
type EnumContract struct {
	Members []string
}

// NewEnumContract returns an enum contract over names.
func NewEnumContract(names ...string) *EnumContract {
	members := append([]string(nil), names...)
	sort.Strings(members)
	out := members[:0]
	for i, m := range members {
		if i > 0 && m == members[i-1] {
			continue
		}
		out = append(out, m)
	}
	return &EnumContract{Members: out}
}

// Has reports whether name is a member, ignoring case.
func (c *EnumContract) Has(name string) bool {
	for _, m := range c.Members {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

func (c *EnumContract) Children() []Contract { return nil }
func (c *EnumContract) MarkupValue() string {
	return "(" + strings.Join(c.Members, " ") + ")"
}
func (c *EnumContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *EnumContract) Hash() uint64          { return Hash(c) }
func (c *EnumContract) contract()             {}
func (c *EnumContract) readContract()         {}
func (c *EnumContract) writeContract()        {}

func (c *EnumContract) CopyReadTo(cc *ContractCollection) ReadContract {
	return cc.copyRead(c)
}

func (c *EnumContract) CopyWriteTo(cc *ContractCollection) WriteContract {
	return cc.copyWrite(c)
}

// TupleReadContract is a fixed-arity positional sequence.
type TupleReadContract struct {
	Items []ReadContract
}

// NewTupleReadContract returns a tuple read contract over items.
func NewTupleReadContract(items ...ReadContract) *TupleReadContract {
	return &TupleReadContract{Items: append([]ReadContract(nil), items...)}
}

func (c *TupleReadContract) Children() []Contract {
	out := make([]Contract, len(c.Items))
	for i, item := range c.Items {
		out[i] = item
	}
	return out
}
func (c *TupleReadContract) MarkupValue() string   { return tupleMarkup(c.Children()) }
func (c *TupleReadContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *TupleReadContract) Hash() uint64          { return Hash(c) }
func (c *TupleReadContract) contract()             {}
func (c *TupleReadContract) readContract()         {}

func (c *TupleReadContract) CopyReadTo(cc *ContractCollection) ReadContract {
	return cc.copyRead(c)
}

// TupleWriteContract is a fixed-arity positional sequence.
type TupleWriteContract struct {
	Items []WriteContract
}

// NewTupleWriteContract returns a tuple write contract over items.
func NewTupleWriteContract(items ...WriteContract) *TupleWriteContract {
	return &TupleWriteContract{Items: append([]WriteContract(nil), items...)}
}

func (c *TupleWriteContract) Children() []Contract {
	out := make([]Contract, len(c.Items))
	for i, item := range c.Items {
		out[i] = item
	}
	return out
}
func (c *TupleWriteContract) MarkupValue() string   { return tupleMarkup(c.Children()) }
func (c *TupleWriteContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *TupleWriteContract) Hash() uint64          { return Hash(c) }
func (c *TupleWriteContract) contract()             {}
func (c *TupleWriteContract) writeContract()        {}

func (c *TupleWriteContract) CopyWriteTo(cc *ContractCollection) WriteContract {
	return cc.copyWrite(c)
}

// ListReadContract is a variable-length homogeneous sequence.
type ListReadContract struct {
	Item ReadContract
}

// NewListReadContract returns a collection read contract of item.
func NewListReadContract(item ReadContract) *ListReadContract {
	return &ListReadContract{Item: item}
}

func (c *ListReadContract) Children() []Contract  { return []Contract{c.Item} }
func (c *ListReadContract) MarkupValue() string   { return "[" + refMarkup(c.Item) + "]" }
func (c *ListReadContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *ListReadContract) Hash() uint64          { return Hash(c) }
func (c *ListReadContract) contract()             {}
func (c *ListReadContract) readContract()         {}

func (c *ListReadContract) CopyReadTo(cc *ContractCollection) ReadContract {
	return cc.copyRead(c)
}

// ListWriteContract is a variable-length homogeneous sequence.
type ListWriteContract struct {
	Item WriteContract
}

// NewListWriteContract returns a collection write contract of item.
func NewListWriteContract(item WriteContract) *ListWriteContract {
	return &ListWriteContract{Item: item}
}

func (c *ListWriteContract) Children() []Contract  { return []Contract{c.Item} }
func (c *ListWriteContract) MarkupValue() string   { return "[" + refMarkup(c.Item) + "]" }
func (c *ListWriteContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *ListWriteContract) Hash() uint64          { return Hash(c) }
func (c *ListWriteContract) contract()             {}
func (c *ListWriteContract) writeContract()        {}

func (c *ListWriteContract) CopyWriteTo(cc *ContractCollection) WriteContract {
	return cc.copyWrite(c)
}

// NullableReadContract accepts nil in addition to the values Item accepts.
// Pointers are read under a nullable contract.
type NullableReadContract struct {
	Item ReadContract
}

// NewNullableReadContract returns item made nullable. A contract that is
// already nullable is returned unchanged.
func NewNullableReadContract(item ReadContract) ReadContract {
	if _, ok := item.(*NullableReadContract); ok {
		return item
	}
	return &NullableReadContract{Item: item}
}

func (c *NullableReadContract) Children() []Contract  { return []Contract{c.Item} }
func (c *NullableReadContract) MarkupValue() string   { return refMarkup(c.Item) + "?" }
func (c *NullableReadContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *NullableReadContract) Hash() uint64          { return Hash(c) }
func (c *NullableReadContract) contract()             {}
func (c *NullableReadContract) readContract()         {}

func (c *NullableReadContract) CopyReadTo(cc *ContractCollection) ReadContract {
	return cc.copyRead(c)
}

// NullableWriteContract may emit nil in place of a value of Item.
type NullableWriteContract struct {
	Item WriteContract
}

// NewNullableWriteContract returns item made nullable. A contract that is
// already nullable is returned unchanged.
func NewNullableWriteContract(item WriteContract) WriteContract {
	if _, ok := item.(*NullableWriteContract); ok {
		return item
	}
	return &NullableWriteContract{Item: item}
}

func (c *NullableWriteContract) Children() []Contract  { return []Contract{c.Item} }
func (c *NullableWriteContract) MarkupValue() string   { return refMarkup(c.Item) + "?" }
func (c *NullableWriteContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *NullableWriteContract) Hash() uint64          { return Hash(c) }
func (c *NullableWriteContract) contract()             {}
func (c *NullableWriteContract) writeContract()        {}

func (c *NullableWriteContract) CopyWriteTo(cc *ContractCollection) WriteContract {
	return cc.copyWrite(c)
}

// acceptsNil reports whether a reader under c decodes a wire nil without
// a nullable wrapper. Collections and byte strings read nil as their nil
// value.
func acceptsNil(c ReadContract) bool {
	switch x := c.(type) {
	case *NullableReadContract, *ListReadContract:
		return true
	case *PrimitiveContract:
		return x.Kind == Bytes
	}
	return false
}

// ReadField is one field of a record read contract.
type ReadField struct {
	Name       string
	Contract   ReadContract
	HasDefault bool
	Default    any // used when the field is absent on the wire
}

// RecordReadContract is a set of uniquely named fields in declaration order.
// Record contracts are shared by reference so that recursive types resolve
// to a cycle rather than unbounded nesting.
type RecordReadContract struct {
	Name   string
	Fields []ReadField
}

// NewRecordReadContract returns a record read contract. Fields is copied.
func NewRecordReadContract(name string, fields ...ReadField) *RecordReadContract {
	return &RecordReadContract{Name: name, Fields: append([]ReadField(nil), fields...)}
}

// Field returns the first field whose name matches name ignoring case.
func (c *RecordReadContract) Field(name string) (ReadField, bool) {
	for _, f := range c.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return ReadField{}, false
}

func (c *RecordReadContract) Children() []Contract {
	out := make([]Contract, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Contract
	}
	return out
}
func (c *RecordReadContract) MarkupValue() string   { return recordBody(c, nil) }
func (c *RecordReadContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *RecordReadContract) Hash() uint64          { return Hash(c) }
func (c *RecordReadContract) contract()             {}
func (c *RecordReadContract) readContract()         {}

func (c *RecordReadContract) CopyReadTo(cc *ContractCollection) ReadContract {
	return cc.copyRead(c)
}

// WriteField is one field of a record write contract.
type WriteField struct {
	Name     string
	Contract WriteContract
}

// RecordWriteContract is a set of uniquely named fields in declaration
// order, emitted as a map keyed by field name.
type RecordWriteContract struct {
	Name   string
	Fields []WriteField
}

// NewRecordWriteContract returns a record write contract. Fields is copied.
func NewRecordWriteContract(name string, fields ...WriteField) *RecordWriteContract {
	return &RecordWriteContract{Name: name, Fields: append([]WriteField(nil), fields...)}
}

// Field returns the first field whose name matches name ignoring case.
func (c *RecordWriteContract) Field(name string) (WriteField, bool) {
	for _, f := range c.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return WriteField{}, false
}

func (c *RecordWriteContract) Children() []Contract {
	out := make([]Contract, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Contract
	}
	return out
}
func (c *RecordWriteContract) MarkupValue() string   { return recordBody(c, nil) }
func (c *RecordWriteContract) Equal(o Contract) bool { return Equal(c, o) }
func (c *RecordWriteContract) Hash() uint64          { return Hash(c) }
func (c *RecordWriteContract) contract()             {}
func (c *RecordWriteContract) writeContract()        {}

func (c *RecordWriteContract) CopyWriteTo(cc *ContractCollection) WriteContract {
	return cc.copyWrite(c)
}

// isByValue reports whether c is interned structurally rather than shared
// by reference.
func isByValue(c Contract) bool {
	switch c.(type) {
	case *RecordReadContract, *RecordWriteContract:
		return false
	}
	return true
}
