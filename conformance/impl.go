// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/Query-farm/strictpack/strictpack"
	"github.com/Query-farm/strictpack/strictpack/wire"
)

// Case is one conformance check.
type Case struct {
	Name string
	Run  func(reg *strictpack.Registry) error
}

// Result is the outcome of one Case. Err is nil when the case passed.
type Result struct {
	Name string
	Err  error
}

// Run executes every case against reg. A panicking case is reported as a
// failure rather than aborting the run.
func Run(reg *strictpack.Registry) []Result {
	cases := Cases()
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		results = append(results, RunCase(reg, c))
	}
	return results
}

// RunCase executes a single case against reg.
func RunCase(reg *strictpack.Registry, c Case) (res Result) {
	res.Name = c.Name
	defer func() {
		if rv := recover(); rv != nil {
			res.Err = fmt.Errorf("panic: %v", rv)
		}
	}()
	res.Err = c.Run(reg)
	return res
}

// Cases returns the full catalog in a stable order.
func Cases() []Case {
	cases := []Case{
		// Scalar round trips
		{"roundtrip_string", roundTrip("héllo, wörld")},
		{"roundtrip_bytes", roundTrip([]byte{0, 1, 2, 0xff})},
		{"roundtrip_int64_min", roundTrip(int64(math.MinInt64))},
		{"roundtrip_uint64_max", roundTrip(uint64(math.MaxUint64))},
		{"roundtrip_int32", roundTrip(int32(-123456))},
		{"roundtrip_float32", roundTrip(float32(1.5))},
		{"roundtrip_float64", roundTrip(math.Pi)},
		{"roundtrip_bool", roundTrip(true)},
		{"roundtrip_decimal", roundTrip(decimal.RequireFromString("-12345.6789"))},

		// Complex types
		{"roundtrip_enum", roundTrip(StatusClosed)},
		{"roundtrip_list", roundTrip([]string{"a", "b", "c"})},
		{"roundtrip_nested_list", roundTrip([][]int64{{1, 2}, {}, {3}})},
		{"roundtrip_tuple", roundTrip(strictpack.NewTuple2("x", StatusActive))},
		{"roundtrip_array", roundTrip([3]int16{1, -2, 3})},

		// Optional values
		{"roundtrip_nil_pointer", roundTrip[*Point](nil)},
		{"roundtrip_nil_list", roundTrip[[]int64](nil)},
		{"roundtrip_optional_string", roundTrip(ptr("present"))},

		// Records
		{"roundtrip_point", roundTrip(Point{X: 1.5, Y: -2.5})},
		{"roundtrip_bounding_box", roundTrip(BoundingBox{TopLeft: Point{0, 10}, BottomRight: Point{10, 0}, Label: "box"})},
		{"roundtrip_all_types", roundTrip(sampleAllTypes())},
		{"roundtrip_recursive", roundTrip(sampleCategory())},

		// Decoding leniency that is permitted
		{"decode_reordered_fields", decodeReorderedFields},
		{"decode_field_case_insensitive", decodeCaseInsensitive},
		{"decode_enum_case_insensitive", decodeEnumCaseInsensitive},
		{"decode_float32_as_float64", decodeFloat32AsFloat64},

		// Strict rejection
		{"reject_wrong_type", rejects[Point](strictpack.ErrWrongType, func(w *wire.Writer) error {
			return pairs(w, "x", "1.0", "y", 2.0)
		})},
		{"reject_int_for_float", rejects[Point](strictpack.ErrWrongType, func(w *wire.Writer) error {
			return pairs(w, "x", int64(1), "y", 2.0)
		})},
		{"reject_float64_for_float32", rejects[float32](strictpack.ErrWrongType, func(w *wire.Writer) error {
			return w.WriteFloat64(1.5)
		})},
		{"reject_duplicate_field", rejects[Point](strictpack.ErrDuplicateField, func(w *wire.Writer) error {
			return pairs(w, "x", 1.0, "y", 2.0, "X", 3.0)
		})},
		{"reject_missing_field", rejects[Point](strictpack.ErrMissingField, func(w *wire.Writer) error {
			return pairs(w, "x", 1.0)
		})},
		{"reject_unexpected_field", rejects[Point](strictpack.ErrUnexpectedField, func(w *wire.Writer) error {
			return pairs(w, "x", 1.0, "y", 2.0, "z", 3.0)
		})},
		{"reject_invalid_enum", rejects[Status](strictpack.ErrInvalidEnumValue, func(w *wire.Writer) error {
			return w.WriteString("ARCHIVED")
		})},
		{"reject_tuple_arity", rejects[strictpack.Tuple2[string, Status]](strictpack.ErrWrongType, func(w *wire.Writer) error {
			if err := w.WriteArrayHeader(1); err != nil {
				return err
			}
			return w.WriteString("x")
		})},
		{"reject_int_overflow", rejects[int8](strictpack.ErrInvalidValue, func(w *wire.Writer) error {
			return w.WriteInt(128)
		})},
		{"reject_negative_unsigned", rejects[uint32](strictpack.ErrInvalidValue, func(w *wire.Writer) error {
			return w.WriteInt(-1)
		})},
		{"reject_bad_decimal", rejects[decimal.Decimal](strictpack.ErrInvalidValue, func(w *wire.Writer) error {
			return w.WriteString("12,5")
		})},
		{"reject_nil_for_record", rejects[Point](strictpack.ErrWrongType, func(w *wire.Writer) error {
			return w.WriteNil()
		})},
		{"reject_empty_input", rejects[Point](strictpack.ErrStreamEnded, func(w *wire.Writer) error {
			return nil
		})},
		{"reject_truncated", rejectsTruncated},

		// Defaults
		{"defaults_all_absent", defaultsAllAbsent},
		{"defaults_overridden", defaultsOverridden},

		// Compatibility
		{"compat_added_optional_field", compatible[Point, PointV2](true, true)},
		{"compat_unrelated_records", compatible[PointV2, BoundingBox](false, false)},
		{"compat_enum_subset", compatible[LegacyStatus, Status](true, true)},
		{"compat_enum_superset", compatible[Status, LegacyStatus](true, false)},
		{"compat_widening", compatible[int32, int64](false, true)},
		{"compat_widening_strict", compatible[int32, int64](true, false)},
		{"compat_list_vs_tuple", compatible[[]int64, [3]int64](false, false)},
		{"compat_recursive", compatible[Category, Category](true, true)},
		{"decode_evolved_record", decodeEvolvedRecord},
	}
	return append(cases, streamCases()...)
}

func ptr[T any](v T) *T { return &v }

func sampleAllTypes() AllTypes {
	return AllTypes{
		StrField:       "hello",
		BytesField:     []byte("bytes"),
		IntField:       math.MaxInt64,
		FloatField:     2.5,
		BoolField:      true,
		DecimalField:   decimal.RequireFromString("3.14159"),
		ListOfInt:      []int64{1, 2, 3},
		ListOfStr:      []string{"a", "b"},
		EnumField:      StatusActive,
		NestedPoint:    Point{1, 2},
		OptionalStr:    ptr("opt"),
		OptionalNested: &Point{3, 4},
		ListOfNested:   []Point{{5, 6}, {7, 8}},
		AnnotatedInt32: math.MinInt32,
		AnnotatedFloat: 0.25,
		NestedList:     [][]int64{{1}, {2, 3}},
		Pair:           strictpack.NewTuple2("p", StatusClosed),
		Corners:        [4]Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
		Small:          strictpack.NewTuple3(int8(-8), uint16(65535), false),
	}
}

func sampleCategory() Category {
	root := Category{Name: "root"}
	root.Children = []Category{
		{Name: "a", Parent: &Category{Name: "root"}},
		{Name: "b", Children: []Category{{Name: "b1"}}},
	}
	return root
}

// roundTrip checks that v survives encode then decode, by comparing the
// re-encoding of the decoded value with the first encoding.
func roundTrip[T any](v T) func(*strictpack.Registry) error {
	return func(reg *strictpack.Registry) error {
		c, err := strictpack.For[T](reg)
		if err != nil {
			return err
		}
		first, err := c.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		out, err := c.Unmarshal(first)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		second, err := c.Marshal(out)
		if err != nil {
			return fmt.Errorf("re-encode: %w", err)
		}
		if !bytes.Equal(first, second) {
			return fmt.Errorf("round trip changed encoding: %x != %x", first, second)
		}
		if reflect.ValueOf(v).Comparable() && !reflect.DeepEqual(v, out) {
			if _, isDecimal := any(v).(decimal.Decimal); !isDecimal {
				return fmt.Errorf("round trip changed value: %v != %v", v, out)
			}
		}
		return nil
	}
}

// rejects checks that decoding the crafted message as T fails with want.
func rejects[T any](want error, build func(*wire.Writer) error) func(*strictpack.Registry) error {
	return func(reg *strictpack.Registry) error {
		data, err := craft(build)
		if err != nil {
			return err
		}
		c, err := strictpack.For[T](reg)
		if err != nil {
			return err
		}
		_, err = c.Unmarshal(data)
		if !errors.Is(err, want) {
			return fmt.Errorf("expected %v, got %v", want, err)
		}
		return nil
	}
}

func rejectsTruncated(reg *strictpack.Registry) error {
	c, err := strictpack.For[BoundingBox](reg)
	if err != nil {
		return err
	}
	data, err := c.Marshal(BoundingBox{Label: "truncate me"})
	if err != nil {
		return err
	}
	for n := range len(data) {
		if _, err := c.Unmarshal(data[:n]); !errors.Is(err, strictpack.ErrStreamEnded) {
			return fmt.Errorf("prefix of %d bytes: expected StreamEnded, got %v", n, err)
		}
	}
	return nil
}

func decodeReorderedFields(reg *strictpack.Registry) error {
	return expectDecoded(reg, Point{X: 1, Y: 2}, func(w *wire.Writer) error {
		return pairs(w, "y", 2.0, "x", 1.0)
	})
}

func decodeCaseInsensitive(reg *strictpack.Registry) error {
	return expectDecoded(reg, BoundingBox{TopLeft: Point{1, 2}, Label: "L"}, func(w *wire.Writer) error {
		return pairs(w,
			"LABEL", "L",
			"Top_Left", func(w *wire.Writer) error { return pairs(w, "X", 1.0, "Y", 2.0) },
			"bottom_RIGHT", func(w *wire.Writer) error { return pairs(w, "x", 0.0, "y", 0.0) },
		)
	})
}

func decodeEnumCaseInsensitive(reg *strictpack.Registry) error {
	return expectDecoded(reg, StatusActive, func(w *wire.Writer) error {
		return w.WriteString("active")
	})
}

func decodeFloat32AsFloat64(reg *strictpack.Registry) error {
	return expectDecoded(reg, float64(0.5), func(w *wire.Writer) error {
		return w.WriteFloat32(0.5)
	})
}

func defaultsAllAbsent(reg *strictpack.Registry) error {
	return expectDecoded(reg, WithDefaults{Required: 1, OptionalStr: "default", OptionalInt: 42, Status: StatusActive}, func(w *wire.Writer) error {
		return pairs(w, "required", int64(1))
	})
}

func defaultsOverridden(reg *strictpack.Registry) error {
	return expectDecoded(reg, WithDefaults{Required: 1, OptionalStr: "given", OptionalInt: 7, Status: StatusClosed, Note: &Point{1, 1}}, func(w *wire.Writer) error {
		return pairs(w,
			"required", int64(1),
			"optional_str", "given",
			"optional_int", int64(7),
			"status", "CLOSED",
			"note", func(w *wire.Writer) error { return pairs(w, "x", 1.0, "y", 1.0) },
		)
	})
}

// decodeEvolvedRecord reads data written by an older type under a newer
// one that added a field with a default.
func decodeEvolvedRecord(reg *strictpack.Registry) error {
	old, err := strictpack.For[Point](reg)
	if err != nil {
		return err
	}
	data, err := old.Marshal(Point{X: 3, Y: 4})
	if err != nil {
		return err
	}
	evolved, err := strictpack.For[PointV2](reg)
	if err != nil {
		return err
	}
	got, err := evolved.Unmarshal(data)
	if err != nil {
		return err
	}
	if got != (PointV2{X: 3, Y: 4, Label: "origin"}) {
		return fmt.Errorf("got %+v", got)
	}
	return nil
}

// compatible checks the registry's compatibility decision for W written
// and R read.
func compatible[W, R any](strict, want bool) func(*strictpack.Registry) error {
	return func(reg *strictpack.Registry) error {
		got, err := reg.CanRead(reflect.TypeFor[W](), reflect.TypeFor[R](), strict)
		if err != nil {
			return err
		}
		if got != want {
			return fmt.Errorf("CanRead(%v, %v, strict=%v) = %v, want %v",
				reflect.TypeFor[W](), reflect.TypeFor[R](), strict, got, want)
		}
		return nil
	}
}

func expectDecoded[T any](reg *strictpack.Registry, want T, build func(*wire.Writer) error) error {
	data, err := craft(build)
	if err != nil {
		return err
	}
	c, err := strictpack.For[T](reg)
	if err != nil {
		return err
	}
	got, err := c.Unmarshal(data)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(got, want) {
		return fmt.Errorf("got %+v, want %+v", got, want)
	}
	return nil
}

func craft(build func(*wire.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	if err := build(wire.NewWriter(&buf)); err != nil {
		return nil, fmt.Errorf("crafting message: %w", err)
	}
	return buf.Bytes(), nil
}

// pairs writes a map from alternating keys and values. Values may be
// strings, int64s, float64s, bools, nil or writer funcs.
func pairs(w *wire.Writer, kv ...any) error {
	if err := w.WriteMapHeader(len(kv) / 2); err != nil {
		return err
	}
	for i := 0; i < len(kv); i += 2 {
		if err := w.WriteString(kv[i].(string)); err != nil {
			return err
		}
		var err error
		switch v := kv[i+1].(type) {
		case string:
			err = w.WriteString(v)
		case int64:
			err = w.WriteInt(v)
		case float64:
			err = w.WriteFloat64(v)
		case bool:
			err = w.WriteBool(v)
		case nil:
			err = w.WriteNil()
		case func(*wire.Writer) error:
			err = v(w)
		default:
			err = fmt.Errorf("unsupported value %T", v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
