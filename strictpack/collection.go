// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"reflect"
	"sync"
)

// ContractCollection caches contracts by Go type and interns by-value
// contracts (primitives, enums, tuples, collections and nullables) so that
// equal shapes are shared by reference. Records are shared by type: a
// record's contract is registered before its fields are built, so
// self-referential types resolve to a cycle.
//
// Entries are never evicted. A ContractCollection is safe for concurrent
// use.
type ContractCollection struct {
	mu       sync.RWMutex
	reads    map[reflect.Type]ReadContract
	writes   map[reflect.Type]WriteContract
	interned map[uint64][]Contract
	copies   map[Contract]Contract // source record -> copy, for CopyReadTo/CopyWriteTo
}

// NewContractCollection returns an empty collection.
func NewContractCollection() *ContractCollection {
	return &ContractCollection{
		reads:    make(map[reflect.Type]ReadContract),
		writes:   make(map[reflect.Type]WriteContract),
		interned: make(map[uint64][]Contract),
		copies:   make(map[Contract]Contract),
	}
}

// ReadContract returns the read contract for t, building it on first use.
// Repeated calls return the same contract object.
func (cc *ContractCollection) ReadContract(t reflect.Type) (ReadContract, error) {
	cc.mu.RLock()
	c, ok := cc.reads[t]
	cc.mu.RUnlock()
	if ok {
		return c, nil
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	b := cc.newBuilder()
	if _, err := b.read(t); err != nil {
		return nil, err
	}
	b.commit()
	return cc.reads[t], nil
}

// WriteContract returns the write contract for t, building it on first use.
// Repeated calls return the same contract object.
func (cc *ContractCollection) WriteContract(t reflect.Type) (WriteContract, error) {
	cc.mu.RLock()
	c, ok := cc.writes[t]
	cc.mu.RUnlock()
	if ok {
		return c, nil
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	b := cc.newBuilder()
	if _, err := b.write(t); err != nil {
		return nil, err
	}
	b.commit()
	return cc.writes[t], nil
}

// ReadContractOf returns the read contract for T.
func ReadContractOf[T any](cc *ContractCollection) (ReadContract, error) {
	return cc.ReadContract(reflect.TypeFor[T]())
}

// WriteContractOf returns the write contract for T.
func WriteContractOf[T any](cc *ContractCollection) (WriteContract, error) {
	return cc.WriteContract(reflect.TypeFor[T]())
}

// Intern returns the canonical instance of c within the collection. Nested
// by-value contracts are interned first, so two by-value contracts share
// an instance when they are equal and refer to the same record objects.
// Records are returned unchanged.
func (cc *ContractCollection) Intern(c Contract) Contract {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.newCanonicalizer().canon(c)
}

// Len returns the number of Go types with a cached read or write contract.
func (cc *ContractCollection) Len() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	n := len(cc.reads)
	for t := range cc.writes {
		if _, ok := cc.reads[t]; !ok {
			n++
		}
	}
	return n
}

// internLocked returns the interned node matching c. The children of c
// must already be canonical.
func (cc *ContractCollection) internLocked(c Contract) Contract {
	if !isByValue(c) {
		return c
	}
	if p, ok := c.(*PrimitiveContract); ok {
		if shared := Primitive(p.Kind); shared != nil {
			return shared
		}
	}
	h := Hash(c)
	for _, existing := range cc.interned[h] {
		if sameNode(existing, c) {
			return existing
		}
	}
	cc.interned[h] = append(cc.interned[h], c)
	return c
}

// sameNode reports whether two by-value nodes are equal and hold the same
// child objects.
func sameNode(a, b Contract) bool {
	if variantTag(a) != variantTag(b) {
		return false
	}
	switch x := a.(type) {
	case *PrimitiveContract:
		return x.Kind == b.(*PrimitiveContract).Kind
	case *EnumContract:
		return Equal(x, b)
	}
	ca, cb := a.Children(), b.Children()
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

// canonicalizer replaces by-value nodes with their interned instances.
// Records in owned were created by the current operation and have their
// fields rewritten in place; any other record is already canonical.
type canonicalizer struct {
	cc    *ContractCollection
	owned map[Contract]bool
	done  map[Contract]Contract
}

func (cc *ContractCollection) newCanonicalizer() *canonicalizer {
	return &canonicalizer{
		cc:    cc,
		owned: make(map[Contract]bool),
		done:  make(map[Contract]Contract),
	}
}

func (z *canonicalizer) canon(c Contract) Contract {
	if c == nil {
		return nil
	}
	if out, ok := z.done[c]; ok {
		return out
	}
	switch x := c.(type) {
	case *RecordReadContract:
		z.done[c] = c
		if z.owned[c] {
			for i := range x.Fields {
				x.Fields[i].Contract = z.read(x.Fields[i].Contract)
			}
		}
		return c
	case *RecordWriteContract:
		z.done[c] = c
		if z.owned[c] {
			for i := range x.Fields {
				x.Fields[i].Contract = z.write(x.Fields[i].Contract)
			}
		}
		return c
	}
	out := z.cc.internLocked(z.withChildren(c))
	z.done[c] = out
	return out
}

func (z *canonicalizer) read(c ReadContract) ReadContract {
	if c == nil {
		return nil
	}
	return z.canon(c).(ReadContract)
}

func (z *canonicalizer) write(c WriteContract) WriteContract {
	if c == nil {
		return nil
	}
	return z.canon(c).(WriteContract)
}

// withChildren returns c with canonical children, copying the node rather
// than modifying it when a child changes.
func (z *canonicalizer) withChildren(c Contract) Contract {
	switch x := c.(type) {
	case *TupleReadContract:
		items := make([]ReadContract, len(x.Items))
		changed := false
		for i, item := range x.Items {
			items[i] = z.read(item)
			changed = changed || items[i] != item
		}
		if changed {
			return &TupleReadContract{Items: items}
		}
	case *TupleWriteContract:
		items := make([]WriteContract, len(x.Items))
		changed := false
		for i, item := range x.Items {
			items[i] = z.write(item)
			changed = changed || items[i] != item
		}
		if changed {
			return &TupleWriteContract{Items: items}
		}
	case *ListReadContract:
		if item := z.read(x.Item); item != x.Item {
			return &ListReadContract{Item: item}
		}
	case *ListWriteContract:
		if item := z.write(x.Item); item != x.Item {
			return &ListWriteContract{Item: item}
		}
	case *NullableReadContract:
		if item := z.read(x.Item); item != x.Item {
			return &NullableReadContract{Item: item}
		}
	case *NullableWriteContract:
		if item := z.write(x.Item); item != x.Item {
			return &NullableWriteContract{Item: item}
		}
	}
	return c
}

func (cc *ContractCollection) copyRead(c ReadContract) ReadContract {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	z := cc.newCanonicalizer()
	return z.read(cc.copyReadRaw(c, z.owned))
}

func (cc *ContractCollection) copyWrite(c WriteContract) WriteContract {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	z := cc.newCanonicalizer()
	return z.write(cc.copyWriteRaw(c, z.owned))
}

// copyReadRaw copies the graph of c without interning. Records created
// here are added to owned; interning happens once every record is
// complete.
func (cc *ContractCollection) copyReadRaw(c ReadContract, owned map[Contract]bool) ReadContract {
	switch x := c.(type) {
	case *PrimitiveContract:
		return &PrimitiveContract{Kind: x.Kind}
	case *EnumContract:
		return NewEnumContract(x.Members...)
	case *TupleReadContract:
		items := make([]ReadContract, len(x.Items))
		for i, item := range x.Items {
			items[i] = cc.copyReadRaw(item, owned)
		}
		return &TupleReadContract{Items: items}
	case *ListReadContract:
		return &ListReadContract{Item: cc.copyReadRaw(x.Item, owned)}
	case *NullableReadContract:
		return &NullableReadContract{Item: cc.copyReadRaw(x.Item, owned)}
	case *RecordReadContract:
		if done, ok := cc.copies[c]; ok {
			return done.(ReadContract)
		}
		out := &RecordReadContract{Name: x.Name}
		cc.copies[c] = out
		owned[out] = true
		out.Fields = make([]ReadField, len(x.Fields))
		for i, f := range x.Fields {
			f.Contract = cc.copyReadRaw(f.Contract, owned)
			out.Fields[i] = f
		}
		return out
	}
	return c
}

func (cc *ContractCollection) copyWriteRaw(c WriteContract, owned map[Contract]bool) WriteContract {
	switch x := c.(type) {
	case *PrimitiveContract:
		return &PrimitiveContract{Kind: x.Kind}
	case *EnumContract:
		return NewEnumContract(x.Members...)
	case *TupleWriteContract:
		items := make([]WriteContract, len(x.Items))
		for i, item := range x.Items {
			items[i] = cc.copyWriteRaw(item, owned)
		}
		return &TupleWriteContract{Items: items}
	case *ListWriteContract:
		return &ListWriteContract{Item: cc.copyWriteRaw(x.Item, owned)}
	case *NullableWriteContract:
		return &NullableWriteContract{Item: cc.copyWriteRaw(x.Item, owned)}
	case *RecordWriteContract:
		if done, ok := cc.copies[c]; ok {
			return done.(WriteContract)
		}
		out := &RecordWriteContract{Name: x.Name}
		cc.copies[c] = out
		owned[out] = true
		out.Fields = make([]WriteField, len(x.Fields))
		for i, f := range x.Fields {
			f.Contract = cc.copyWriteRaw(f.Contract, owned)
			out.Fields[i] = f
		}
		return out
	}
	return c
}

// builder stages contracts built during one top-level request so that a
// failure deep in a type graph leaves the collection untouched. Staged
// by-value contracts are interned on commit, after every staged record has
// its fields.
type builder struct {
	cc      *ContractCollection
	reads   map[reflect.Type]ReadContract
	writes  map[reflect.Type]WriteContract
	records map[Contract]bool
}

func (cc *ContractCollection) newBuilder() *builder {
	return &builder{
		cc:      cc,
		reads:   make(map[reflect.Type]ReadContract),
		writes:  make(map[reflect.Type]WriteContract),
		records: make(map[Contract]bool),
	}
}

func (b *builder) commit() {
	z := b.cc.newCanonicalizer()
	z.owned = b.records
	for t, c := range b.reads {
		b.cc.reads[t] = z.read(c)
	}
	for t, c := range b.writes {
		b.cc.writes[t] = z.write(c)
	}
}

func (b *builder) read(t reflect.Type) (ReadContract, error) {
	if c, ok := b.cc.reads[t]; ok {
		return c, nil
	}
	if c, ok := b.reads[t]; ok {
		return c, nil
	}

	kind, prim := classify(t)
	var c ReadContract
	switch kind {
	case shapePointer:
		elem, err := b.read(t.Elem())
		if err != nil {
			return nil, err
		}
		c = NewNullableReadContract(elem)
	case shapePrimitive:
		c = Primitive(prim)
	case shapeEnum:
		c = NewEnumContract(memberNames(t)...)
	case shapeTuple:
		itemTypes, _ := tupleItems(t)
		items := make([]ReadContract, len(itemTypes))
		for i, it := range itemTypes {
			item, err := b.read(it)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		c = &TupleReadContract{Items: items}
	case shapeList:
		item, err := b.read(t.Elem())
		if err != nil {
			return nil, err
		}
		c = &ListReadContract{Item: item}
	case shapeRecord:
		fields, err := recordFields(t)
		if err != nil {
			return nil, err
		}
		rec := &RecordReadContract{Name: recordName(t)}
		b.reads[t] = rec
		b.records[rec] = true
		rec.Fields = make([]ReadField, len(fields))
		for i, f := range fields {
			fc, err := b.read(f.Type)
			if err != nil {
				return nil, err
			}
			rf := ReadField{Name: f.Name, Contract: fc, HasDefault: f.HasDefault}
			if f.HasDefault {
				rf.Default = f.Default.Interface()
			}
			rec.Fields[i] = rf
		}
		c = rec
	default:
		return nil, unsupported(t, "%v values have no contract", t.Kind())
	}
	b.reads[t] = c
	return c, nil
}

func (b *builder) write(t reflect.Type) (WriteContract, error) {
	if c, ok := b.cc.writes[t]; ok {
		return c, nil
	}
	if c, ok := b.writes[t]; ok {
		return c, nil
	}

	kind, prim := classify(t)
	var c WriteContract
	switch kind {
	case shapePointer:
		elem, err := b.write(t.Elem())
		if err != nil {
			return nil, err
		}
		c = NewNullableWriteContract(elem)
	case shapePrimitive:
		c = Primitive(prim)
	case shapeEnum:
		c = NewEnumContract(memberNames(t)...)
	case shapeTuple:
		itemTypes, _ := tupleItems(t)
		items := make([]WriteContract, len(itemTypes))
		for i, it := range itemTypes {
			item, err := b.write(it)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		c = &TupleWriteContract{Items: items}
	case shapeList:
		item, err := b.write(t.Elem())
		if err != nil {
			return nil, err
		}
		c = &ListWriteContract{Item: item}
	case shapeRecord:
		fields, err := recordFields(t)
		if err != nil {
			return nil, err
		}
		rec := &RecordWriteContract{Name: recordName(t)}
		b.writes[t] = rec
		b.records[rec] = true
		rec.Fields = make([]WriteField, len(fields))
		for i, f := range fields {
			fc, err := b.write(f.Type)
			if err != nil {
				return nil, err
			}
			rec.Fields[i] = WriteField{Name: f.Name, Contract: fc}
		}
		c = rec
	default:
		return nil, unsupported(t, "%v values have no contract", t.Kind())
	}
	b.writes[t] = c
	return c, nil
}

func memberNames(t reflect.Type) []string {
	members := enumMembers(t)
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}
