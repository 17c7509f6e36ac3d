// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package strictpack implements schema-driven MessagePack serialization
// with strict decoding.
//
// Every Go type handled by the package is described by a pair of
// contracts: a [WriteContract] for what a producer emits and a
// [ReadContract] for what a consumer requires. [CanRead] decides ahead of
// time whether data written under one contract can be decoded under
// another, which is how services negotiate schema evolution.
//
// A [Registry] compiles one [Codec] per type, once, and caches it. Codecs
// never coerce: a value of the wrong wire kind, a duplicated, missing or
// unexpected record field, or an unknown enum member fails the decode with
// an [*Error] naming the target type and the field path.
//
// # Contract variants
//
//   - Primitive: int8..int64, uint8..uint64 (int and uint map to their
//     64-bit forms), float32, float64, bool, string, [decimal.Decimal]
//     (carried as its canonical string) and []byte.
//   - Enum: named integer types implementing [Enum], carried as member
//     names and matched ignoring case.
//   - Tuple: [Tuple2] through [Tuple5] and fixed-size arrays, carried as
//     MessagePack arrays of fixed arity.
//   - Collection: slices, carried as MessagePack arrays.
//   - Record: structs, carried as maps keyed by field name.
//
// Pointers are nullable: a nil pointer is written as MessagePack nil and
// the pointer's contract is wrapped as nullable, rendered with a trailing
// "?" in markup. Slices and byte slices round-trip nil without a wrapper,
// since their readers accept nil directly. [CanRead] rejects a nullable
// writer feeding a reader that cannot accept nil.
//
// # Struct tags
//
// Record fields are exported struct fields, optionally annotated with
// `strictpack` struct tags. The tag format is:
//
//	`strictpack:"wire_name[,default=VALUE]"`
//
// A tag of "-" excludes the field. The default option must come last and
// consumes the rest of the tag; VALUE is parsed strictly against the field
// type when the contract is built, and "null" is the default of a nil
// pointer. Fields are matched on decode by exact name first and then
// ignoring case, so declared names must be unique ignoring case.
//
// # Wire format
//
// Records are a map header followed by (name, value) pairs in declaration
// order; decoders accept the pairs in any order. Tuples and collections
// are an array header followed by their elements. The encoding is plain
// MessagePack and readable by any MessagePack library.
//
// # Observability
//
// A [CodecHook] set in [Config] is called around every compile, encode
// and decode. Package strictpack/otel provides an OpenTelemetry
// implementation. [Registry.Describe] returns an Arrow record describing
// every compiled codec.
package strictpack
