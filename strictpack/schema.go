// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// shape is the contract variant a Go type maps to.
type shape int

const (
	shapeUnsupported shape = iota
	shapePointer
	shapePrimitive
	shapeEnum
	shapeTuple
	shapeList
	shapeRecord
)

func (s shape) String() string {
	switch s {
	case shapePointer:
		return "pointer"
	case shapePrimitive:
		return "primitive"
	case shapeEnum:
		return "enum"
	case shapeTuple:
		return "tuple"
	case shapeList:
		return "collection"
	case shapeRecord:
		return "record"
	}
	return "unsupported"
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// classify decides which variant t maps to. Order matters: decimals and
// tuples are structs, enums and byte slices would otherwise match the
// integer and slice cases.
func classify(t reflect.Type) (shape, PrimitiveKind) {
	switch {
	case t.Kind() == reflect.Pointer:
		return shapePointer, 0
	case t == decimalType:
		return shapePrimitive, Decimal
	case isEnumType(t):
		return shapeEnum, 0
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 && !isEnumType(t.Elem()):
		return shapePrimitive, Bytes
	}

	switch t.Kind() {
	case reflect.Int8:
		return shapePrimitive, Int8
	case reflect.Int16:
		return shapePrimitive, Int16
	case reflect.Int32:
		return shapePrimitive, Int32
	case reflect.Int64, reflect.Int:
		return shapePrimitive, Int64
	case reflect.Uint8:
		return shapePrimitive, Uint8
	case reflect.Uint16:
		return shapePrimitive, Uint16
	case reflect.Uint32:
		return shapePrimitive, Uint32
	case reflect.Uint64, reflect.Uint:
		return shapePrimitive, Uint64
	case reflect.Float32:
		return shapePrimitive, Float32
	case reflect.Float64:
		return shapePrimitive, Float64
	case reflect.Bool:
		return shapePrimitive, Bool
	case reflect.String:
		return shapePrimitive, String
	}

	if _, ok := tupleItems(t); ok {
		return shapeTuple, 0
	}
	switch t.Kind() {
	case reflect.Slice:
		return shapeList, 0
	case reflect.Struct:
		return shapeRecord, 0
	}
	return shapeUnsupported, 0
}

// tagInfo holds parsed information from a `strictpack` struct tag.
type tagInfo struct {
	Name    string
	Skip    bool
	Default *string // nil if no default
}

// parseTag parses a strictpack struct tag like "name", "name,default=foo"
// or "-". The default option consumes the remainder of the tag so that
// default strings may contain commas.
func parseTag(tag string) tagInfo {
	if tag == "-" {
		return tagInfo{Skip: true}
	}
	name, rest, _ := strings.Cut(tag, ",")
	info := tagInfo{Name: name}
	for rest != "" {
		if val, ok := strings.CutPrefix(rest, "default="); ok {
			info.Default = &val
			break
		}
		_, rest, _ = strings.Cut(rest, ",")
	}
	return info
}

// fieldInfo describes one record field of a Go struct.
type fieldInfo struct {
	Index      int
	Name       string // wire name
	Type       reflect.Type
	HasDefault bool
	Default    reflect.Value // valid when HasDefault
}

// recordName is the name a record contract carries for t.
func recordName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// recordFields lists the serialisable fields of struct type t in
// declaration order. A struct with no eligible fields, or whose field names
// collide ignoring case, is rejected.
func recordFields(t reflect.Type) ([]fieldInfo, error) {
	var fields []fieldInfo
	seen := make(map[string]string)
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		info := parseTag(f.Tag.Get("strictpack"))
		if info.Skip {
			continue
		}
		name := info.Name
		if name == "" {
			name = f.Name
		}
		if prev, dup := seen[foldName(name)]; dup {
			return nil, unsupported(t, "fields %q and %q collide ignoring case", prev, name)
		}
		seen[foldName(name)] = name

		fi := fieldInfo{Index: i, Name: name, Type: f.Type}
		if info.Default != nil {
			v, err := parseDefault(f.Type, *info.Default)
			if err != nil {
				return nil, unsupported(t, "default for field %q: %v", name, err)
			}
			fi.HasDefault = true
			fi.Default = v
		}
		fields = append(fields, fi)
	}
	if len(fields) == 0 {
		return nil, unsupported(t, "struct has no serialisable fields")
	}
	return fields, nil
}

// parseDefault parses a default given in a struct tag into a value of type
// t. Parsing is strict: the text must be valid for the exact field type.
func parseDefault(t reflect.Type, s string) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		if s == "null" {
			return reflect.Zero(t), nil
		}
		elem, err := parseDefault(t.Elem(), s)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}

	v := reflect.New(t).Elem()
	if t == decimalType {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing decimal default %q: %w", s, err)
		}
		v.Set(reflect.ValueOf(d))
		return v, nil
	}
	if isEnumType(t) {
		for _, m := range enumMembers(t) {
			if strings.EqualFold(m.Name, s) {
				setEnumValue(v, m.Value)
				return v, nil
			}
		}
		return reflect.Value{}, fmt.Errorf("%q is not a member of %v", s, t)
	}

	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing int default %q: %w", s, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing uint default %q: %w", s, err)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing float default %q: %w", s, err)
		}
		v.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing bool default %q: %w", s, err)
		}
		v.SetBool(b)
	default:
		return reflect.Value{}, fmt.Errorf("default value parsing not supported for %v", t)
	}
	return v, nil
}
