// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"sync"
)

// WideningTable lists, for each primitive kind a producer may write, the
// other kinds a consumer may read it as when compatibility is checked
// non-strictly. Identity is always allowed and need not be listed.
type WideningTable map[PrimitiveKind][]PrimitiveKind

// DefaultWidenings returns the lossless numeric widenings: signed integers
// to any wider signed integer, unsigned integers to any wider unsigned
// integer or strictly wider signed integer, and float32 to float64.
func DefaultWidenings() WideningTable {
	return WideningTable{
		Int8:    {Int16, Int32, Int64},
		Int16:   {Int32, Int64},
		Int32:   {Int64},
		Uint8:   {Uint16, Uint32, Uint64, Int16, Int32, Int64},
		Uint16:  {Uint32, Uint64, Int32, Int64},
		Uint32:  {Uint64, Int64},
		Float32: {Float64},
	}
}

// Allows reports whether a value written as w may be read as r.
func (t WideningTable) Allows(w, r PrimitiveKind) bool {
	if w == r {
		return true
	}
	for _, k := range t[w] {
		if k == r {
			return true
		}
	}
	return false
}

// CompatibilityChecker decides whether messages written under a write
// contract can be decoded under a read contract. Results are memoised per
// contract pair, so a checker should be reused across checks over the same
// contract graphs. A CompatibilityChecker is safe for concurrent use.
type CompatibilityChecker struct {
	widenings WideningTable

	mu    sync.Mutex
	memo  map[compatKey]bool
	added []compatKey // pairs memoised during the current top-level check
}

type compatKey struct {
	w      WriteContract
	r      ReadContract
	strict bool
}

// NewCompatibilityChecker returns a checker using widenings for non-strict
// primitive comparisons. A nil table permits no widening.
func NewCompatibilityChecker(widenings WideningTable) *CompatibilityChecker {
	return &CompatibilityChecker{
		widenings: widenings,
		memo:      make(map[compatKey]bool),
	}
}

// CanRead reports whether data written under w can be read under r using
// the default widening table. See [CompatibilityChecker.CanRead].
func CanRead(w WriteContract, r ReadContract, strict bool) bool {
	return NewCompatibilityChecker(DefaultWidenings()).CanRead(w, r, strict)
}

// CanRead reports whether data written under w can be read under r. With
// strict set, primitives must match exactly; otherwise the checker's
// widening table applies.
//
// Enums are compatible when every member w may emit is legal for r.
// Tuples need equal arity and pairwise compatible items in order.
// Collections need compatible elements. Records need every field of r
// without a default to be present in w, matched ignoring case, with a
// compatible contract; fields of r with a default may be absent from w,
// and fields only w declares are ignored. Different variants never match.
//
// A nullable w may emit nil, so r must be nullable too unless it is a
// collection or bytes, which read nil directly. A non-nullable w may feed
// a nullable r.
func (c *CompatibilityChecker) CanRead(w WriteContract, r ReadContract, strict bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.added = c.added[:0]
	ok := c.canRead(w, r, strict)
	if !ok {
		// Positive results below may rest on an assumption that failed.
		// Negative results never do.
		for _, k := range c.added {
			if c.memo[k] {
				delete(c.memo, k)
			}
		}
	}
	return ok
}

func (c *CompatibilityChecker) canRead(w WriteContract, r ReadContract, strict bool) bool {
	if w == nil || r == nil {
		return false
	}
	key := compatKey{w, r, strict}
	if ok, done := c.memo[key]; done {
		return ok
	}
	// Assume success while the pair is being examined so that recursive
	// graphs terminate; a failure anywhere below overwrites it.
	c.memo[key] = true
	c.added = append(c.added, key)
	ok := c.check(w, r, strict)
	c.memo[key] = ok
	return ok
}

func (c *CompatibilityChecker) check(w WriteContract, r ReadContract, strict bool) bool {
	if wn, ok := w.(*NullableWriteContract); ok {
		if !acceptsNil(r) {
			return false
		}
		w = wn.Item
	}
	if rn, ok := r.(*NullableReadContract); ok {
		return c.canRead(w, rn.Item, strict)
	}

	switch rc := r.(type) {
	case *PrimitiveContract:
		wc, ok := w.(*PrimitiveContract)
		if !ok {
			return false
		}
		if strict {
			return wc.Kind == rc.Kind
		}
		return c.widenings.Allows(wc.Kind, rc.Kind)

	case *EnumContract:
		wc, ok := w.(*EnumContract)
		if !ok {
			return false
		}
		for _, m := range wc.Members {
			if !rc.Has(m) {
				return false
			}
		}
		return true

	case *TupleReadContract:
		wc, ok := w.(*TupleWriteContract)
		if !ok || len(wc.Items) != len(rc.Items) {
			return false
		}
		for i := range rc.Items {
			if !c.canRead(wc.Items[i], rc.Items[i], strict) {
				return false
			}
		}
		return true

	case *ListReadContract:
		wc, ok := w.(*ListWriteContract)
		return ok && c.canRead(wc.Item, rc.Item, strict)

	case *RecordReadContract:
		wc, ok := w.(*RecordWriteContract)
		if !ok {
			return false
		}
		for _, rf := range rc.Fields {
			wf, found := wc.Field(rf.Name)
			if !found {
				if rf.HasDefault {
					continue
				}
				return false
			}
			if !c.canRead(wf.Contract, rf.Contract, strict) {
				return false
			}
		}
		return true
	}
	return false
}
