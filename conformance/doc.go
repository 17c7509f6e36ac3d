// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

// Package conformance provides a catalog of strictpack conformance cases.
// Each case exercises one behaviour of the codec against a registry:
// round trips of every contract variant, strict rejection of malformed
// messages (wrong types, duplicate, missing and unexpected fields,
// truncation, invalid enum values, tuple arity), default substitution,
// compatibility decisions, and multi-value streams.
//
// The entry point is [Run], which executes every case in [Cases] against
// a [strictpack.Registry] and reports one [Result] per case. The domain
// types [Status], [Point], [BoundingBox], [AllTypes] and [Category] are
// exported because they serve as examples of strictpack-encodable types.
package conformance
