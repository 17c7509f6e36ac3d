// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"github.com/shopspring/decimal"

	"github.com/Query-farm/strictpack/strictpack"
)

// Status is an enum encoded by member name.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusClosed
)

func (Status) EnumMembers() []strictpack.EnumMember {
	return []strictpack.EnumMember{
		{Name: "PENDING", Value: int64(StatusPending)},
		{Name: "ACTIVE", Value: int64(StatusActive)},
		{Name: "CLOSED", Value: int64(StatusClosed)},
	}
}

// LegacyStatus is Status before CLOSED was added.
type LegacyStatus int

func (LegacyStatus) EnumMembers() []strictpack.EnumMember {
	return []strictpack.EnumMember{
		{Name: "PENDING", Value: 0},
		{Name: "ACTIVE", Value: 1},
	}
}

// Point is a simple 2D point.
type Point struct {
	X float64 `strictpack:"x"`
	Y float64 `strictpack:"y"`
}

// BoundingBox contains two nested Points and a label.
type BoundingBox struct {
	TopLeft     Point  `strictpack:"top_left"`
	BottomRight Point  `strictpack:"bottom_right"`
	Label       string `strictpack:"label"`
}

// AllTypes demonstrates comprehensive type coverage.
type AllTypes struct {
	StrField       string                                `strictpack:"str_field"`
	BytesField     []byte                                `strictpack:"bytes_field"`
	IntField       int64                                 `strictpack:"int_field"`
	FloatField     float64                               `strictpack:"float_field"`
	BoolField      bool                                  `strictpack:"bool_field"`
	DecimalField   decimal.Decimal                       `strictpack:"decimal_field"`
	ListOfInt      []int64                               `strictpack:"list_of_int"`
	ListOfStr      []string                              `strictpack:"list_of_str"`
	EnumField      Status                                `strictpack:"enum_field"`
	NestedPoint    Point                                 `strictpack:"nested_point"`
	OptionalStr    *string                               `strictpack:"optional_str"`
	OptionalInt    *int64                                `strictpack:"optional_int"`
	OptionalNested *Point                                `strictpack:"optional_nested"`
	ListOfNested   []Point                               `strictpack:"list_of_nested"`
	AnnotatedInt32 int32                                 `strictpack:"annotated_int32"`
	AnnotatedFloat float32                               `strictpack:"annotated_float32"`
	NestedList     [][]int64                             `strictpack:"nested_list"`
	Pair           strictpack.Tuple2[string, Status]     `strictpack:"pair"`
	Corners        [4]Point                              `strictpack:"corners"`
	Small          strictpack.Tuple3[int8, uint16, bool] `strictpack:"small"`
}

// Category is a self-referential record.
type Category struct {
	Name     string     `strictpack:"name"`
	Children []Category `strictpack:"children"`
	Parent   *Category  `strictpack:"parent"`
}

// WithDefaults has optional fields filled from tag defaults.
type WithDefaults struct {
	Required    int64  `strictpack:"required"`
	OptionalStr string `strictpack:"optional_str,default=default"`
	OptionalInt int64  `strictpack:"optional_int,default=42"`
	Status      Status `strictpack:"status,default=active"`
	Note        *Point `strictpack:"note,default=null"`
}

// PointV2 is Point with an added optional field, readable from Point data.
type PointV2 struct {
	X     float64 `strictpack:"x"`
	Y     float64 `strictpack:"y"`
	Label string  `strictpack:"label,default=origin"`
}

// Counter is the element type of stream cases.
type Counter struct {
	Index int64 `strictpack:"index"`
	Value int64 `strictpack:"value"`
}
