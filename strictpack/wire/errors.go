// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"errors"
	"fmt"
	"io"
)

// ErrStreamEnded is returned when fewer bytes remain than a header or
// scalar requires.
var ErrStreamEnded = errors.New("wire: data stream ended")

// MismatchError reports a value whose leading byte does not match the
// requested kind.
type MismatchError struct {
	Expected string
	Actual   Kind
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("wire: expected %s, got %s", e.Expected, e.Actual)
}

// InvalidValueError reports a value of the right wire kind that cannot be
// represented by the requested type: an integer outside the target width or
// a string that does not parse as a decimal.
type InvalidValueError struct {
	Expected string
	Text     string
	Cause    error
}

func (e *InvalidValueError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("wire: %q is not a valid %s: %v", e.Text, e.Expected, e.Cause)
	}
	return fmt.Sprintf("wire: %q is not a valid %s", e.Text, e.Expected)
}

func (e *InvalidValueError) Unwrap() error {
	return e.Cause
}

// streamErr folds the truncation errors surfaced by the msgpack decoder
// into ErrStreamEnded.
func streamErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrStreamEnded
	}
	return err
}
