// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"reflect"
)

// Enum is implemented by named integer types whose values are restricted
// to a fixed member set. Enum values travel on the wire as member names.
//
//	type Color int
//
//	const (
//		Red Color = iota
//		Green
//	)
//
//	func (Color) EnumMembers() []strictpack.EnumMember {
//		return []strictpack.EnumMember{{"Red", int64(Red)}, {"Green", int64(Green)}}
//	}
type Enum interface {
	EnumMembers() []EnumMember
}

// EnumMember names one legal value of an Enum.
type EnumMember struct {
	Name  string
	Value int64
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// isEnumType reports whether t is an integer type implementing Enum.
func isEnumType(t reflect.Type) bool {
	if !t.Implements(enumType) {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// enumMembers returns the declared members of enum type t.
func enumMembers(t reflect.Type) []EnumMember {
	return reflect.Zero(t).Interface().(Enum).EnumMembers()
}

// enumValue returns the integer value of an enum-typed value.
func enumValue(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	}
	return v.Int()
}

// setEnumValue stores n into an enum-typed value.
func setEnumValue(v reflect.Value, n int64) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(n))
	default:
		v.SetInt(n)
	}
}

// enumMemberName returns the member name of v when v is an enum value.
func enumMemberName(v reflect.Value) (string, bool) {
	if !v.IsValid() || !isEnumType(v.Type()) {
		return "", false
	}
	n := enumValue(v)
	for _, m := range enumMembers(v.Type()) {
		if m.Value == n {
			return m.Name, true
		}
	}
	return "", false
}
