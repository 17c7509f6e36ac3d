// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Query-farm/strictpack/strictpack/wire"
)

// ErrorKind classifies a strictpack failure.
type ErrorKind int

const (
	// StreamEnded: fewer bytes remained than a header or scalar required.
	StreamEnded ErrorKind = iota + 1
	// WrongType: the wire value's kind does not match the declared contract.
	WrongType
	// MissingField: a required record field was absent and has no default.
	MissingField
	// DuplicateField: the same field appeared twice in one record.
	DuplicateField
	// UnexpectedField: a wire field name matched no declared field.
	UnexpectedField
	// InvalidEnumValue: an enum value outside the legal member set.
	InvalidEnumValue
	// UnsupportedShape: a Go type that cannot be described by a contract.
	UnsupportedShape
	// InvalidValue: a value of the right wire kind that the target cannot
	// hold, such as an integer overflowing its width or a malformed decimal.
	InvalidValue
)

var errorKindNames = map[ErrorKind]string{
	StreamEnded:      "StreamEnded",
	WrongType:        "WrongType",
	MissingField:     "MissingField",
	DuplicateField:   "DuplicateField",
	UnexpectedField:  "UnexpectedField",
	InvalidEnumValue: "InvalidEnumValue",
	UnsupportedShape: "UnsupportedShape",
	InvalidValue:     "InvalidValue",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for use with errors.Is. Any *Error of the same Kind matches.
var (
	ErrStreamEnded      = &Error{Kind: StreamEnded}
	ErrWrongType        = &Error{Kind: WrongType}
	ErrMissingField     = &Error{Kind: MissingField}
	ErrDuplicateField   = &Error{Kind: DuplicateField}
	ErrUnexpectedField  = &Error{Kind: UnexpectedField}
	ErrInvalidEnumValue = &Error{Kind: InvalidEnumValue}
	ErrUnsupportedShape = &Error{Kind: UnsupportedShape}
	ErrInvalidValue     = &Error{Kind: InvalidValue}
)

// Error is the single error type returned by contract construction,
// encoding and decoding. All failures are fatal for the call that produced
// them; none are transient.
type Error struct {
	Kind     ErrorKind
	Type     reflect.Type // target type being built, encoded or decoded
	Field    string       // field name as seen on the wire or declared
	Expected string       // expected kind, for WrongType
	Actual   string       // actual wire kind, for WrongType
	Value    string       // offending value or shape detail
	Path     string       // location from the root value, e.g. ".Scores[2].Name"
	Cause    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("strictpack")
	if e.Type != nil {
		b.WriteString(": ")
		b.WriteString(e.Type.String())
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	switch e.Kind {
	case StreamEnded:
		b.WriteString("data stream ended")
	case WrongType:
		if e.Field != "" {
			fmt.Fprintf(&b, "unexpected type for %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
		} else {
			fmt.Fprintf(&b, "unexpected type: expected %s, got %s", e.Expected, e.Actual)
		}
	case MissingField:
		fmt.Fprintf(&b, "missing required field %q", e.Field)
	case DuplicateField:
		fmt.Fprintf(&b, "encountered duplicate field %q", e.Field)
	case UnexpectedField:
		fmt.Fprintf(&b, "encountered unexpected field %q", e.Field)
	case InvalidEnumValue:
		fmt.Fprintf(&b, "invalid enum value %q", e.Value)
	case UnsupportedShape:
		b.WriteString("unsupported shape")
		if e.Value != "" {
			b.WriteString(": ")
			b.WriteString(e.Value)
		}
	case InvalidValue:
		if e.Expected != "" {
			fmt.Fprintf(&b, "invalid value %q for %s", e.Value, e.Expected)
		} else {
			fmt.Fprintf(&b, "invalid value %q", e.Value)
		}
	default:
		b.WriteString(e.Kind.String())
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is supports errors.Is by matching any *Error target of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func unsupported(t reflect.Type, format string, args ...any) *Error {
	return &Error{Kind: UnsupportedShape, Type: t, Value: fmt.Sprintf(format, args...)}
}

// fromWire translates a wire layer failure into an *Error naming t.
func fromWire(err error, t reflect.Type) error {
	if err == nil {
		return nil
	}
	var mm *wire.MismatchError
	var ive *wire.InvalidValueError
	switch {
	case errors.Is(err, wire.ErrStreamEnded):
		return &Error{Kind: StreamEnded, Type: t}
	case errors.As(err, &mm):
		return &Error{Kind: WrongType, Type: t, Expected: mm.Expected, Actual: mm.Actual.String()}
	case errors.As(err, &ive):
		return &Error{Kind: InvalidValue, Type: t, Expected: ive.Expected, Value: ive.Text, Cause: ive.Cause}
	}
	return &Error{Kind: InvalidValue, Type: t, Cause: err}
}

// atField records that err occurred while decoding the named field of a
// record of type t. The innermost record and field win; outer records only
// extend the path.
func atField(err error, t reflect.Type, field string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if e.Field == "" {
		e.Field = field
		e.Type = t
	}
	e.Path = "." + field + e.Path
	return e
}

// atIndex records that err occurred at position i of a tuple or collection.
func atIndex(err error, i int) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	e.Path = fmt.Sprintf("[%d]%s", i, e.Path)
	return e
}
