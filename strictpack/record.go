// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"reflect"

	"github.com/Query-farm/strictpack/strictpack/wire"
)

// recordField is one compiled field of a record codec.
type recordField struct {
	index      int // Go struct field index
	name       string
	node       *codecNode
	hasDefault bool
	def        reflect.Value
}

// setDefault stores the field default into v. Pointer defaults are copied
// so decoded values never alias each other.
func (f *recordField) setDefault(v reflect.Value) {
	if f.def.Kind() == reflect.Pointer && !f.def.IsNil() {
		p := reflect.New(f.def.Type().Elem())
		p.Elem().Set(f.def.Elem())
		v.Set(p)
		return
	}
	v.Set(f.def)
}

// compileRecord builds a codec writing a map of declared fields and
// reading one under strict name matching:
//
//   - keys match declared names exactly first, then ignoring case, with
//     the first declared field winning;
//   - a field seen twice fails with DuplicateField;
//   - an undeclared key fails with UnexpectedField unless the registry
//     ignores unexpected fields;
//   - after the map, unseen fields take their default or fail with
//     MissingField.
//
// The target value is only assigned once every field has been resolved.
func (r *Registry) compileRecord(n *codecNode, added *[]reflect.Type) error {
	t := n.typ
	infos, err := recordFields(t)
	if err != nil {
		return err
	}

	fields := make([]recordField, len(infos))
	exact := make(map[string]int, len(infos))
	folded := make(map[string]int, len(infos))
	for i, fi := range infos {
		node, err := r.compileNode(fi.Type, added)
		if err != nil {
			return err
		}
		fields[i] = recordField{
			index:      fi.Index,
			name:       fi.Name,
			node:       node,
			hasDefault: fi.HasDefault,
			def:        fi.Default,
		}
		exact[fi.Name] = i
		if _, ok := folded[foldName(fi.Name)]; !ok {
			folded[foldName(fi.Name)] = i
		}
	}
	ignoreUnexpected := r.cfg.UnexpectedFields == UnexpectedFieldIgnore

	n.encode = func(w *wire.Writer, v reflect.Value) error {
		if err := w.WriteMapHeader(len(fields)); err != nil {
			return err
		}
		for i := range fields {
			f := &fields[i]
			if err := w.WriteString(f.name); err != nil {
				return err
			}
			if err := f.node.encode(w, v.Field(f.index)); err != nil {
				return atField(err, t, f.name)
			}
		}
		return nil
	}

	n.decode = func(rd *wire.Reader, v reflect.Value) error {
		count, err := rd.ReadMapHeader()
		if err != nil {
			return fromWire(err, t)
		}
		out := reflect.New(t).Elem()
		seen := make([]bool, len(fields))
		for range count {
			key, err := rd.ReadString()
			if err != nil {
				return fromWire(err, t)
			}
			idx, ok := exact[key]
			if !ok {
				idx, ok = folded[foldName(key)]
			}
			if !ok {
				if ignoreUnexpected {
					if err := rd.Skip(); err != nil {
						return fromWire(err, t)
					}
					continue
				}
				return &Error{Kind: UnexpectedField, Type: t, Field: key}
			}
			if seen[idx] {
				return &Error{Kind: DuplicateField, Type: t, Field: key}
			}
			f := &fields[idx]
			if err := f.node.decode(rd, out.Field(f.index)); err != nil {
				return atField(err, t, key)
			}
			seen[idx] = true
		}
		for i := range fields {
			if seen[i] {
				continue
			}
			f := &fields[i]
			if !f.hasDefault {
				return &Error{Kind: MissingField, Type: t, Field: f.name}
			}
			f.setDefault(out.Field(f.index))
		}
		v.Set(out)
		return nil
	}
	return nil
}
