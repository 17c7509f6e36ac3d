// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Query-farm/strictpack/strictpack/wire"
)

type (
	encodeFunc func(w *wire.Writer, v reflect.Value) error
	decodeFunc func(r *wire.Reader, v reflect.Value) error
)

// codecNode is the compiled encode/decode pair for one Go type. Nodes
// reference their children by pointer so a recursive type compiles to a
// cyclic node graph; a node's functions are set before any value flows
// through it.
type codecNode struct {
	typ    reflect.Type
	encode encodeFunc
	decode decodeFunc // decodes into v, which must be settable
}

// compile returns the node for t, compiling it and any reachable types not
// yet compiled. The caller holds r.mu. On failure every node added by this
// call is discarded.
func (r *Registry) compile(t reflect.Type) (*codecNode, error) {
	var added []reflect.Type
	n, err := r.compileNode(t, &added)
	if err != nil {
		for _, at := range added {
			delete(r.nodes, at)
		}
		return nil, err
	}
	return n, nil
}

func (r *Registry) compileNode(t reflect.Type, added *[]reflect.Type) (*codecNode, error) {
	if n, ok := r.nodes[t]; ok {
		return n, nil
	}
	n := &codecNode{typ: t}
	r.nodes[t] = n
	*added = append(*added, t)

	var err error
	kind, prim := classify(t)
	switch kind {
	case shapePointer:
		err = r.compilePointer(n, added)
	case shapePrimitive:
		compilePrimitive(n, prim)
	case shapeEnum:
		compileEnum(n)
	case shapeTuple:
		err = r.compileTuple(n, added)
	case shapeList:
		err = r.compileList(n, added)
	case shapeRecord:
		err = r.compileRecord(n, added)
	default:
		err = unsupported(t, "%v values have no codec", t.Kind())
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *Registry) compilePointer(n *codecNode, added *[]reflect.Type) error {
	t := n.typ
	elem, err := r.compileNode(t.Elem(), added)
	if err != nil {
		return err
	}
	n.encode = func(w *wire.Writer, v reflect.Value) error {
		if v.IsNil() {
			return w.WriteNil()
		}
		return elem.encode(w, v.Elem())
	}
	n.decode = func(rd *wire.Reader, v reflect.Value) error {
		isNil, err := rd.ReadNil()
		if err != nil {
			return fromWire(err, t)
		}
		if isNil {
			v.Set(reflect.Zero(t))
			return nil
		}
		p := reflect.New(t.Elem())
		if err := elem.decode(rd, p.Elem()); err != nil {
			return err
		}
		v.Set(p)
		return nil
	}
	return nil
}

func compilePrimitive(n *codecNode, kind PrimitiveKind) {
	t := n.typ
	switch kind {
	case Int8, Int16, Int32, Int64:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteInt(v.Int())
		}
	case Uint8, Uint16, Uint32, Uint64:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteUint(v.Uint())
		}
	case Float32:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteFloat32(float32(v.Float()))
		}
	case Float64:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteFloat64(v.Float())
		}
	case Bool:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteBool(v.Bool())
		}
	case String:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteString(v.String())
		}
	case Decimal:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			return w.WriteDecimal(v.Interface().(decimal.Decimal))
		}
	case Bytes:
		n.encode = func(w *wire.Writer, v reflect.Value) error {
			if v.IsNil() {
				return w.WriteNil()
			}
			return w.WriteBytes(v.Bytes())
		}
	}

	switch kind {
	case Int8:
		n.decode = signedDecoder(t, func(rd *wire.Reader) (int64, error) {
			x, err := rd.ReadInt8()
			return int64(x), err
		})
	case Int16:
		n.decode = signedDecoder(t, func(rd *wire.Reader) (int64, error) {
			x, err := rd.ReadInt16()
			return int64(x), err
		})
	case Int32:
		n.decode = signedDecoder(t, func(rd *wire.Reader) (int64, error) {
			x, err := rd.ReadInt32()
			return int64(x), err
		})
	case Int64:
		n.decode = signedDecoder(t, (*wire.Reader).ReadInt64)
	case Uint8:
		n.decode = unsignedDecoder(t, func(rd *wire.Reader) (uint64, error) {
			x, err := rd.ReadUint8()
			return uint64(x), err
		})
	case Uint16:
		n.decode = unsignedDecoder(t, func(rd *wire.Reader) (uint64, error) {
			x, err := rd.ReadUint16()
			return uint64(x), err
		})
	case Uint32:
		n.decode = unsignedDecoder(t, func(rd *wire.Reader) (uint64, error) {
			x, err := rd.ReadUint32()
			return uint64(x), err
		})
	case Uint64:
		n.decode = unsignedDecoder(t, (*wire.Reader).ReadUint64)
	case Float32:
		n.decode = func(rd *wire.Reader, v reflect.Value) error {
			x, err := rd.ReadFloat32()
			if err != nil {
				return fromWire(err, t)
			}
			v.SetFloat(float64(x))
			return nil
		}
	case Float64:
		n.decode = func(rd *wire.Reader, v reflect.Value) error {
			x, err := rd.ReadFloat64()
			if err != nil {
				return fromWire(err, t)
			}
			v.SetFloat(x)
			return nil
		}
	case Bool:
		n.decode = func(rd *wire.Reader, v reflect.Value) error {
			x, err := rd.ReadBool()
			if err != nil {
				return fromWire(err, t)
			}
			v.SetBool(x)
			return nil
		}
	case String:
		n.decode = func(rd *wire.Reader, v reflect.Value) error {
			x, err := rd.ReadString()
			if err != nil {
				return fromWire(err, t)
			}
			v.SetString(x)
			return nil
		}
	case Decimal:
		n.decode = func(rd *wire.Reader, v reflect.Value) error {
			x, err := rd.ReadDecimal()
			if err != nil {
				return fromWire(err, t)
			}
			v.Set(reflect.ValueOf(x))
			return nil
		}
	case Bytes:
		n.decode = func(rd *wire.Reader, v reflect.Value) error {
			isNil, err := rd.ReadNil()
			if err != nil {
				return fromWire(err, t)
			}
			if isNil {
				v.Set(reflect.Zero(t))
				return nil
			}
			x, err := rd.ReadBytes()
			if err != nil {
				return fromWire(err, t)
			}
			v.SetBytes(x)
			return nil
		}
	}
}

func signedDecoder(t reflect.Type, read func(*wire.Reader) (int64, error)) decodeFunc {
	return func(rd *wire.Reader, v reflect.Value) error {
		x, err := read(rd)
		if err != nil {
			return fromWire(err, t)
		}
		if v.OverflowInt(x) {
			return &Error{Kind: InvalidValue, Type: t, Expected: t.String(), Value: strconv.FormatInt(x, 10)}
		}
		v.SetInt(x)
		return nil
	}
}

func unsignedDecoder(t reflect.Type, read func(*wire.Reader) (uint64, error)) decodeFunc {
	return func(rd *wire.Reader, v reflect.Value) error {
		x, err := read(rd)
		if err != nil {
			return fromWire(err, t)
		}
		if v.OverflowUint(x) {
			return &Error{Kind: InvalidValue, Type: t, Expected: t.String(), Value: strconv.FormatUint(x, 10)}
		}
		v.SetUint(x)
		return nil
	}
}

// compileEnum encodes enum values as member names and accepts any member
// name on decode, ignoring case.
func compileEnum(n *codecNode) {
	t := n.typ
	members := enumMembers(t)
	names := make(map[int64]string, len(members))
	values := make(map[string]int64, len(members))
	for _, m := range members {
		if _, ok := names[m.Value]; !ok {
			names[m.Value] = m.Name
		}
		if _, ok := values[foldName(m.Name)]; !ok {
			values[foldName(m.Name)] = m.Value
		}
	}

	n.encode = func(w *wire.Writer, v reflect.Value) error {
		x := enumValue(v)
		name, ok := names[x]
		if !ok {
			return &Error{Kind: InvalidEnumValue, Type: t, Value: strconv.FormatInt(x, 10)}
		}
		return w.WriteString(name)
	}
	n.decode = func(rd *wire.Reader, v reflect.Value) error {
		s, err := rd.ReadString()
		if err != nil {
			return fromWire(err, t)
		}
		x, ok := values[foldName(s)]
		if !ok {
			return &Error{Kind: InvalidEnumValue, Type: t, Value: s}
		}
		setEnumValue(v, x)
		return nil
	}
}

func (r *Registry) compileTuple(n *codecNode, added *[]reflect.Type) error {
	t := n.typ
	itemTypes, _ := tupleItems(t)
	items := make([]*codecNode, len(itemTypes))
	for i, it := range itemTypes {
		item, err := r.compileNode(it, added)
		if err != nil {
			return err
		}
		items[i] = item
	}
	arity := len(items)
	at := func(v reflect.Value, i int) reflect.Value {
		if v.Kind() == reflect.Array {
			return v.Index(i)
		}
		return v.Field(i)
	}

	n.encode = func(w *wire.Writer, v reflect.Value) error {
		if err := w.WriteArrayHeader(arity); err != nil {
			return err
		}
		for i, item := range items {
			if err := item.encode(w, at(v, i)); err != nil {
				return atIndex(err, i)
			}
		}
		return nil
	}
	n.decode = func(rd *wire.Reader, v reflect.Value) error {
		count, err := rd.ReadArrayHeader()
		if err != nil {
			return fromWire(err, t)
		}
		if count != arity {
			return &Error{
				Kind:     WrongType,
				Type:     t,
				Expected: fmt.Sprintf("array of %d", arity),
				Actual:   fmt.Sprintf("array of %d", count),
			}
		}
		out := reflect.New(t).Elem()
		for i, item := range items {
			if err := item.decode(rd, at(out, i)); err != nil {
				return atIndex(err, i)
			}
		}
		v.Set(out)
		return nil
	}
	return nil
}

// maxPrealloc bounds the capacity reserved from an untrusted array header.
const maxPrealloc = 1024

func (r *Registry) compileList(n *codecNode, added *[]reflect.Type) error {
	t := n.typ
	elem, err := r.compileNode(t.Elem(), added)
	if err != nil {
		return err
	}
	zero := reflect.Zero(t.Elem())

	n.encode = func(w *wire.Writer, v reflect.Value) error {
		if v.IsNil() {
			return w.WriteNil()
		}
		count := v.Len()
		if err := w.WriteArrayHeader(count); err != nil {
			return err
		}
		for i := range count {
			if err := elem.encode(w, v.Index(i)); err != nil {
				return atIndex(err, i)
			}
		}
		return nil
	}
	n.decode = func(rd *wire.Reader, v reflect.Value) error {
		isNil, err := rd.ReadNil()
		if err != nil {
			return fromWire(err, t)
		}
		if isNil {
			v.Set(reflect.Zero(t))
			return nil
		}
		count, err := rd.ReadArrayHeader()
		if err != nil {
			return fromWire(err, t)
		}
		out := reflect.MakeSlice(t, 0, min(count, maxPrealloc))
		for i := range count {
			out = reflect.Append(out, zero)
			if err := elem.decode(rd, out.Index(i)); err != nil {
				return atIndex(err, i)
			}
		}
		v.Set(out)
		return nil
	}
	return nil
}
