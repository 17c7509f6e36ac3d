// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import "reflect"

// Tuple types are encoded as MessagePack arrays of their items in order.
// Fixed-size Go arrays ([N]T) are tuples of N identical items.

type Tuple2[A, B any] struct {
	Item1 A
	Item2 B
}

type Tuple3[A, B, C any] struct {
	Item1 A
	Item2 B
	Item3 C
}

type Tuple4[A, B, C, D any] struct {
	Item1 A
	Item2 B
	Item3 C
	Item4 D
}

type Tuple5[A, B, C, D, E any] struct {
	Item1 A
	Item2 B
	Item3 C
	Item4 D
	Item5 E
}

func (Tuple2[A, B]) isTuple()          {}
func (Tuple3[A, B, C]) isTuple()       {}
func (Tuple4[A, B, C, D]) isTuple()    {}
func (Tuple5[A, B, C, D, E]) isTuple() {}

// NewTuple2 returns a Tuple2 of a and b.
func NewTuple2[A, B any](a A, b B) Tuple2[A, B] {
	return Tuple2[A, B]{a, b}
}

// NewTuple3 returns a Tuple3 of a, b and c.
func NewTuple3[A, B, C any](a A, b B, c C) Tuple3[A, B, C] {
	return Tuple3[A, B, C]{a, b, c}
}

type tupleMarker interface {
	isTuple()
}

var tupleMarkerType = reflect.TypeOf((*tupleMarker)(nil)).Elem()

// tupleItems returns the item types of a tuple struct or array, or false
// when t is not tuple-shaped.
func tupleItems(t reflect.Type) ([]reflect.Type, bool) {
	switch {
	case t.Kind() == reflect.Array:
		items := make([]reflect.Type, t.Len())
		for i := range items {
			items[i] = t.Elem()
		}
		return items, true
	case t.Kind() == reflect.Struct && t.PkgPath() == tupleMarkerType.PkgPath() && t.Implements(tupleMarkerType):
		items := make([]reflect.Type, t.NumField())
		for i := range items {
			items[i] = t.Field(i).Type
		}
		return items, true
	}
	return nil, false
}
