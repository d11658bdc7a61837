// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package function

import (
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// jsonPath splits a BigQuery-style "$.a.b[0].c" path into jsonparser keys,
// the extraction library's native traversal unit.
func jsonPath(path string) []string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil
	}
	raw := strings.Split(path, ".")
	keys := make([]string, 0, len(raw))
	for _, seg := range raw {
		for {
			i := strings.IndexByte(seg, '[')
			if i < 0 {
				if seg != "" {
					keys = append(keys, seg)
				}
				break
			}
			if i > 0 {
				keys = append(keys, seg[:i])
			}
			j := strings.IndexByte(seg, ']')
			if j < 0 {
				break
			}
			keys = append(keys, seg[i+1:j])
			seg = seg[j+1:]
		}
	}
	return keys
}

func init() {
	reg := Global()

	// PARSE_JSON / TO_JSON* use encoding/json for structural construction —
	// buger/jsonparser is a zero-allocation *extraction* library and does
	// not build trees, so it has no role on the construction side.
	reg.Register(&Entry{Name: "PARSE_JSON", ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var tree interface{}
		if err := json.Unmarshal([]byte(args[0].Str()), &tree); err != nil {
			return sql.Null(), sql.ErrInvalidQuery("PARSE_JSON: %v", err)
		}
		return sql.JsonVal(tree), nil
	}})
	reg.Register(&Entry{Name: "TO_JSON_STRING", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		tree := valueToJSONTree(args[0])
		b, err := json.Marshal(tree)
		if err != nil {
			return sql.Null(), sql.ErrInternal("TO_JSON_STRING: %v", err)
		}
		return sql.StringVal(string(b)), nil
	}})
	reg.Register(&Entry{Name: "TO_JSON", ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.JsonVal(valueToJSONTree(args[0])), nil
	}})

	// JSON_VALUE / JSON_QUERY / JSON_EXTRACT* use jsonparser for extraction:
	// it walks the raw bytes without building an intermediate tree, the
	// right tool for a per-row scalar path lookup over a JSON/STRING column.
	reg.Register(&Entry{Name: "JSON_VALUE", ReturnType: StaticReturn(types.String), Row: jsonExtractScalarFn})
	reg.Register(&Entry{Name: "JSON_EXTRACT_SCALAR", ReturnType: StaticReturn(types.String), Row: jsonExtractScalarFn})
	reg.Register(&Entry{Name: "JSON_QUERY", ReturnType: StaticReturn(types.Json), Row: jsonExtractRawFn})
	reg.Register(&Entry{Name: "JSON_EXTRACT", ReturnType: StaticReturn(types.Json), Row: jsonExtractRawFn})

	reg.Register(&Entry{Name: "JSON_EXTRACT_ARRAY", ReturnType: StaticReturn(types.ArrayType{Elem: types.Json}), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		raw := jsonSource(args[0])
		var out []sql.Value
		_, err := jsonparser.ArrayEach([]byte(raw), func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			out = append(out, sql.StringVal(string(v)))
		}, jsonPath(args[1].Str())...)
		if err != nil {
			return sql.Null(), nil
		}
		return sql.ArrayVal(out), nil
	}})
	reg.Register(&Entry{Name: "JSON_EXTRACT_STRING_ARRAY", ReturnType: StaticReturn(types.ArrayType{Elem: types.String}), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		raw := jsonSource(args[0])
		var out []sql.Value
		_, err := jsonparser.ArrayEach([]byte(raw), func(v []byte, dt jsonparser.ValueType, _ int, _ error) {
			out = append(out, sql.StringVal(string(v)))
		}, jsonPath(args[1].Str())...)
		if err != nil {
			return sql.Null(), nil
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "JSON_TYPE", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		raw := jsonSource(args[0])
		_, dt, _, err := jsonparser.Get([]byte(raw))
		if err != nil {
			return sql.Null(), nil
		}
		return sql.StringVal(jsonTypeName(dt)), nil
	}})
	reg.Register(&Entry{Name: "JSON_KEYS", ReturnType: StaticReturn(types.ArrayType{Elem: types.String}), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		raw := jsonSource(args[0])
		var keys []sql.Value
		err := jsonparser.ObjectEach([]byte(raw), func(key []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
			keys = append(keys, sql.StringVal(string(key)))
			return nil
		})
		if err != nil {
			return sql.Null(), nil
		}
		return sql.ArrayVal(keys), nil
	}})

	// JSON_SET / JSON_REMOVE / JSON_STRIP_NULLS mutate structure, so they go
	// through the encoding/json tree rather than jsonparser's byte-walker.
	reg.Register(&Entry{Name: "JSON_SET", ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		tree := jsonTreeOf(args[0])
		setAtPath(&tree, jsonPath(args[1].Str()), valueToJSONTree(args[2]))
		return sql.JsonVal(tree), nil
	}})
	reg.Register(&Entry{Name: "JSON_REMOVE", ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		tree := jsonTreeOf(args[0])
		removeAtPath(&tree, jsonPath(args[1].Str()))
		return sql.JsonVal(tree), nil
	}})
	reg.Register(&Entry{Name: "JSON_STRIP_NULLS", ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		tree := jsonTreeOf(args[0])
		return sql.JsonVal(stripNulls(tree)), nil
	}})

	reg.Register(&Entry{Name: "JSON_OBJECT", NullTolerant: true, ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		m := make(map[string]interface{}, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			m[args[i].Str()] = valueToJSONTree(args[i+1])
		}
		return sql.JsonVal(m), nil
	}})
	reg.Register(&Entry{Name: "JSON_ARRAY", NullTolerant: true, ReturnType: StaticReturn(types.Json), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		arr := make([]interface{}, len(args))
		for i, a := range args {
			arr[i] = valueToJSONTree(a)
		}
		return sql.JsonVal(arr), nil
	}})
}

func jsonSource(v sql.Value) string {
	if v.Kind == sql.KJson {
		b, _ := json.Marshal(v.Json())
		return string(b)
	}
	return v.Str()
}

func jsonTreeOf(v sql.Value) interface{} {
	if v.Kind == sql.KJson {
		return v.Json()
	}
	var tree interface{}
	_ = json.Unmarshal([]byte(v.Str()), &tree)
	return tree
}

func jsonExtractScalarFn(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
	raw := jsonSource(args[0])
	v, dt, _, err := jsonparser.Get([]byte(raw), jsonPath(args[1].Str())...)
	if err != nil || dt == jsonparser.NotExist {
		return sql.Null(), nil
	}
	return sql.StringVal(string(v)), nil
}

func jsonExtractRawFn(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
	raw := jsonSource(args[0])
	v, dt, _, err := jsonparser.Get([]byte(raw), jsonPath(args[1].Str())...)
	if err != nil || dt == jsonparser.NotExist {
		return sql.Null(), nil
	}
	var tree interface{}
	if dt == jsonparser.String {
		tree = string(v)
	} else if err := json.Unmarshal(v, &tree); err != nil {
		tree = string(v)
	}
	return sql.JsonVal(tree), nil
}

func jsonTypeName(dt jsonparser.ValueType) string {
	switch dt {
	case jsonparser.String:
		return "string"
	case jsonparser.Number:
		return "number"
	case jsonparser.Object:
		return "object"
	case jsonparser.Array:
		return "array"
	case jsonparser.Boolean:
		return "boolean"
	case jsonparser.Null:
		return "null"
	default:
		return "unknown"
	}
}

// valueToJSONTree converts an engine Value into plain Go interface{} data
// suitable for encoding/json, mirroring TO_JSON's documented value mapping.
func valueToJSONTree(v sql.Value) interface{} {
	switch v.Kind {
	case sql.KNull:
		return nil
	case sql.KBool:
		return v.Bool()
	case sql.KInt64:
		return v.Int()
	case sql.KFloat64:
		return v.Float()
	case sql.KString, sql.KGeography:
		return v.Str()
	case sql.KNumeric, sql.KBigNumeric:
		return v.Decimal().String()
	case sql.KJson:
		return v.Json()
	case sql.KArray:
		elems := v.Array()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = valueToJSONTree(e)
		}
		return out
	case sql.KStruct:
		fields := v.Struct()
		m := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			m[f.Name] = valueToJSONTree(f.Value)
		}
		return m
	default:
		return v.String()
	}
}

func setAtPath(tree *interface{}, path []string, val interface{}) {
	if len(path) == 0 {
		*tree = val
		return
	}
	m, ok := (*tree).(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
		*tree = m
	}
	if len(path) == 1 {
		m[path[0]] = val
		return
	}
	child := m[path[0]]
	setAtPath(&child, path[1:], val)
	m[path[0]] = child
}

func removeAtPath(tree *interface{}, path []string) {
	if len(path) == 0 {
		return
	}
	m, ok := (*tree).(map[string]interface{})
	if !ok {
		return
	}
	if len(path) == 1 {
		delete(m, path[0])
		return
	}
	child, ok := m[path[0]]
	if !ok {
		return
	}
	removeAtPath(&child, path[1:])
	m[path[0]] = child
}

func stripNulls(tree interface{}) interface{} {
	switch t := tree.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, v := range t {
			if v == nil {
				continue
			}
			out[k] = stripNulls(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, v := range t {
			out[i] = stripNulls(v)
		}
		return out
	default:
		return tree
	}
}
