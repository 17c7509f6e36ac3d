// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import "log/slog"

// UnexpectedFieldBehaviour selects what a record decoder does with a wire
// field that matches no declared field.
type UnexpectedFieldBehaviour int

const (
	// UnexpectedFieldThrow fails the decode with UnexpectedField.
	UnexpectedFieldThrow UnexpectedFieldBehaviour = iota
	// UnexpectedFieldIgnore skips the field's value and continues.
	UnexpectedFieldIgnore
)

func (b UnexpectedFieldBehaviour) String() string {
	if b == UnexpectedFieldIgnore {
		return "ignore"
	}
	return "throw"
}

// Config configures a Registry.
type Config struct {
	// UnexpectedFields controls record decoding of undeclared fields.
	UnexpectedFields UnexpectedFieldBehaviour
	// Widenings is the primitive widening table used by non-strict
	// compatibility checks. Nil permits no widening.
	Widenings WideningTable
	// Hook, if set, is called around every compile, encode and decode.
	Hook CodecHook
	// Logger receives compile diagnostics and hook failures. Nil means
	// slog.Default().
	Logger *slog.Logger
	// Contracts, if set, is the contract collection the registry builds
	// into. Sharing one collection across registries shares contracts.
	Contracts *ContractCollection
}

// DefaultConfig returns a Config with strict unexpected-field handling and
// the default widening table.
func DefaultConfig() Config {
	return Config{
		UnexpectedFields: UnexpectedFieldThrow,
		Widenings:        DefaultWidenings(),
	}
}
