// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package benchmark holds payload fixtures for strictpack codec benchmarks.
package benchmark

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Query-farm/strictpack/strictpack"
)

// Payload structs

type Noop struct {
	OK bool `strictpack:"ok"`
}

type Add struct {
	A float64 `strictpack:"a"`
	B float64 `strictpack:"b"`
}

type Greet struct {
	Name string `strictpack:"name"`
}

// Color is an enum payload.
type Color int

const (
	Red Color = iota
	Green
	Blue
)

func (Color) EnumMembers() []strictpack.EnumMember {
	return []strictpack.EnumMember{
		{Name: "RED", Value: int64(Red)},
		{Name: "GREEN", Value: int64(Green)},
		{Name: "BLUE", Value: int64(Blue)},
	}
}

type RoundtripTypes struct {
	Color  Color                             `strictpack:"color"`
	Tags   []int64                           `strictpack:"tags"`
	Price  decimal.Decimal                   `strictpack:"price"`
	Range  strictpack.Tuple2[int32, int32]   `strictpack:"range"`
	Labels []strictpack.Tuple2[string, bool] `strictpack:"labels"`
	Note   *string                           `strictpack:"note"`
	Retry  int32                             `strictpack:"retry,default=3"`
}

// Order is a nested record payload.
type Order struct {
	ID       int64           `strictpack:"id"`
	Customer Greet           `strictpack:"customer"`
	Lines    []OrderLine     `strictpack:"lines"`
	Total    decimal.Decimal `strictpack:"total"`
	Priority Color           `strictpack:"priority"`
}

type OrderLine struct {
	SKU      string  `strictpack:"sku"`
	Quantity uint16  `strictpack:"quantity"`
	Price    float64 `strictpack:"price"`
}

// Node is a recursive payload.
type Node struct {
	Value    int64  `strictpack:"value"`
	Children []Node `strictpack:"children"`
}

// Fixture generators

// NewRoundtripTypes returns a RoundtripTypes with n tags and labels.
func NewRoundtripTypes(n int) RoundtripTypes {
	note := "fixture"
	v := RoundtripTypes{
		Color: Green,
		Price: decimal.RequireFromString("19.99"),
		Range: strictpack.NewTuple2[int32, int32](-5, 5),
		Note:  &note,
		Retry: 3,
	}
	for i := range n {
		v.Tags = append(v.Tags, int64(i))
		v.Labels = append(v.Labels, strictpack.NewTuple2(fmt.Sprintf("l%d", i), i%2 == 0))
	}
	return v
}

// NewOrder returns an order with the given number of lines.
func NewOrder(lines int) Order {
	o := Order{
		ID:       42,
		Customer: Greet{Name: "Ada"},
		Total:    decimal.RequireFromString("0"),
		Priority: Blue,
	}
	for i := range lines {
		price := float64(i%17) + 0.99
		o.Lines = append(o.Lines, OrderLine{SKU: fmt.Sprintf("SKU-%05d", i), Quantity: uint16(i%9 + 1), Price: price})
		o.Total = o.Total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(i%9 + 1))))
	}
	return o
}

// NewTree returns a complete tree of the given depth and fan-out.
func NewTree(depth, fanout int) Node {
	n := Node{Value: int64(depth)}
	if depth == 0 {
		return n
	}
	n.Children = make([]Node, fanout)
	for i := range n.Children {
		n.Children[i] = NewTree(depth-1, fanout)
	}
	return n
}
