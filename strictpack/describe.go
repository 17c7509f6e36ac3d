// © Copyright 2025-2026, Query.Farm LLC - https://query.farm
// SPDX-License-Identifier: Apache-2.0

package strictpack

import (
	"reflect"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
)

// DescribeVersion is the version of the Describe batch layout.
const DescribeVersion = "1"

// MetaDescribeVersion is the schema metadata key carrying DescribeVersion.
const MetaDescribeVersion = "strictpack.describe_version"

// describeSchema lists one row per compiled codec.
var describeSchema = func() *arrow.Schema {
	md := arrow.NewMetadata([]string{MetaDescribeVersion}, []string{DescribeVersion})
	return arrow.NewSchema([]arrow.Field{
		{Name: "type", Type: arrow.BinaryTypes.String},
		{Name: "variant", Type: arrow.BinaryTypes.String},
		{Name: "read_markup", Type: arrow.BinaryTypes.String},
		{Name: "write_markup", Type: arrow.BinaryTypes.String},
		{Name: "arrow_schema_ipc", Type: arrow.BinaryTypes.Binary, Nullable: true},
		{Name: "field_defaults_json", Type: arrow.BinaryTypes.String, Nullable: true},
	}, &md)
}()

// Describe returns an Arrow record with one row per compiled codec, sorted
// by type name: the contract variant, read and write markup, the Arrow
// schema as IPC bytes (null for recursive records) and, for records with
// defaults, a JSON object of default values. The caller must Release it.
func (r *Registry) Describe() (arrow.Record, error) {
	codecs := r.published()
	sort.Slice(codecs, func(i, j int) bool {
		return codecs[i].typ.String() < codecs[j].typ.String()
	})

	mem := memory.NewGoAllocator()

	typeBuilder := array.NewStringBuilder(mem)
	defer typeBuilder.Release()

	variantBuilder := array.NewStringBuilder(mem)
	defer variantBuilder.Release()

	readBuilder := array.NewStringBuilder(mem)
	defer readBuilder.Release()

	writeBuilder := array.NewStringBuilder(mem)
	defer writeBuilder.Release()

	schemaBuilder := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer schemaBuilder.Release()

	defaultsBuilder := array.NewStringBuilder(mem)
	defer defaultsBuilder.Release()

	for _, c := range codecs {
		typeBuilder.Append(c.typ.String())
		variantBuilder.Append(c.variant.String())
		readBuilder.Append(Markup(c.read))
		writeBuilder.Append(Markup(c.write))

		// arrow_schema_ipc: null when the contract has no Arrow form
		if schema, err := ArrowSchema(c.read); err == nil {
			data, err := SerializeSchema(schema)
			if err != nil {
				return nil, err
			}
			schemaBuilder.Append(data)
		} else {
			r.logger.Debug("strictpack: no arrow schema", "type", c.typ.String(), "err", err)
			schemaBuilder.AppendNull()
		}

		// field_defaults_json
		defaults := recordDefaults(c.read)
		if len(defaults) == 0 {
			defaultsBuilder.AppendNull()
			continue
		}
		data, err := json.Marshal(defaults)
		if err != nil {
			r.logger.Error("strictpack: failed to marshal field defaults", "type", c.typ.String(), "err", err)
			defaultsBuilder.AppendNull()
			continue
		}
		defaultsBuilder.Append(string(data))
	}

	cols := []arrow.Array{
		typeBuilder.NewArray(),
		variantBuilder.NewArray(),
		readBuilder.NewArray(),
		writeBuilder.NewArray(),
		schemaBuilder.NewArray(),
		defaultsBuilder.NewArray(),
	}
	for _, col := range cols {
		defer col.Release()
	}
	return array.NewRecord(describeSchema, cols, int64(len(codecs))), nil
}

// recordDefaults returns the JSON-ready defaults of a record read contract.
func recordDefaults(c ReadContract) map[string]any {
	rec, ok := c.(*RecordReadContract)
	if !ok {
		return nil
	}
	out := make(map[string]any)
	for _, f := range rec.Fields {
		if f.HasDefault {
			out[f.Name] = jsonDefault(f.Default)
		}
	}
	return out
}

func jsonDefault(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
		v = rv.Interface()
	}
	if name, ok := enumMemberName(rv); ok {
		return name
	}
	return v
}
