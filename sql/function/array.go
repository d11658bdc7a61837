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
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// arrayGenerateCap bounds GENERATE_ARRAY the way BigQuery itself refuses to
// materialize unbounded ranges; 1,000,000 matches the documented ceiling.
const arrayGenerateCap = 1_000_000

func arrayElemType(t sql.DataType) sql.DataType {
	if at, ok := t.(types.ArrayType); ok {
		return at.Elem
	}
	return types.Json
}

func init() {
	reg := Global()

	reg.Register(&Entry{Name: "ARRAY_LENGTH", ReturnType: StaticReturn(types.Int64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.Int64Val(int64(len(args[0].Array()))), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_TO_STRING", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		sep := args[1].Str()
		var nullRepl string
		hasNullRepl := len(args) > 2
		if hasNullRepl {
			nullRepl = args[2].Str()
		}
		parts := make([]string, 0, len(args[0].Array()))
		for _, e := range args[0].Array() {
			if e.IsNull() {
				if !hasNullRepl {
					continue
				}
				parts = append(parts, nullRepl)
				continue
			}
			parts = append(parts, e.String())
		}
		return sql.StringVal(strings.Join(parts, sep)), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_CONCAT", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var out []sql.Value
		for _, a := range args {
			out = append(out, a.Array()...)
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_REVERSE", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		out := make([]sql.Value, len(src))
		for i, e := range src {
			out[len(src)-1-i] = e
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_CONTAINS", ReturnType: StaticReturn(types.Bool), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		for _, e := range args[0].Array() {
			if e.Equal(args[1]) {
				return sql.BoolVal(true), nil
			}
		}
		return sql.BoolVal(false), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_POSITION", ReturnType: StaticReturn(types.Int64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		for i, e := range args[0].Array() {
			if e.Equal(args[1]) {
				return sql.Int64Val(int64(i) + 1), nil
			}
		}
		return sql.Int64Val(0), nil
	}})

	reg.Register(&Entry{Name: "GENERATE_ARRAY", ReturnType: StaticReturn(types.ArrayType{Elem: types.Int64}), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		start, end := args[0].Int(), args[1].Int()
		step := int64(1)
		if len(args) > 2 {
			step = args[2].Int()
		}
		if step == 0 {
			return sql.Null(), sql.ErrInvalidQuery("GENERATE_ARRAY: step cannot be 0")
		}
		var out []sql.Value
		if step > 0 {
			for v := start; v <= end; v += step {
				if len(out) >= arrayGenerateCap {
					return sql.Null(), sql.ErrOutOfBounds("GENERATE_ARRAY exceeds %d elements", arrayGenerateCap)
				}
				out = append(out, sql.Int64Val(v))
			}
		} else {
			for v := start; v >= end; v += step {
				if len(out) >= arrayGenerateCap {
					return sql.Null(), sql.ErrOutOfBounds("GENERATE_ARRAY exceeds %d elements", arrayGenerateCap)
				}
				out = append(out, sql.Int64Val(v))
			}
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_SORT", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := append([]sql.Value(nil), args[0].Array()...)
		desc := len(args) > 1 && strings.EqualFold(args[1].Str(), "DESC")
		sql.SortValues(src, desc)
		return sql.ArrayVal(src), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_DISTINCT", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		var out []sql.Value
		for _, e := range src {
			dup := false
			for _, o := range out {
				if o.Equal(e) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, e)
			}
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_COMPACT", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var out []sql.Value
		for _, e := range args[0].Array() {
			if !e.IsNull() {
				out = append(out, e)
			}
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_MIN", ReturnType: arrayElemReturn, Row: arrayReduce(func(acc, v sql.Value) sql.Value {
		if sql.Compare(v, acc) < 0 {
			return v
		}
		return acc
	})})
	reg.Register(&Entry{Name: "ARRAY_MAX", ReturnType: arrayElemReturn, Row: arrayReduce(func(acc, v sql.Value) sql.Value {
		if sql.Compare(v, acc) > 0 {
			return v
		}
		return acc
	})})

	reg.Register(&Entry{Name: "ARRAY_SUM", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var sum float64
		for _, e := range args[0].Array() {
			if !e.IsNull() {
				sum += toF(e)
			}
		}
		return sql.Float64Val(sum), nil
	}})
	reg.Register(&Entry{Name: "ARRAY_AVG", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var sum float64
		var n int
		for _, e := range args[0].Array() {
			if !e.IsNull() {
				sum += toF(e)
				n++
			}
		}
		if n == 0 {
			return sql.Null(), nil
		}
		return sql.Float64Val(sum / float64(n)), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_ZIP", ReturnType: StaticReturn(types.ArrayType{Elem: types.Json}), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		a, b := args[0].Array(), args[1].Array()
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		out := make([]sql.Value, n)
		for i := 0; i < n; i++ {
			out[i] = sql.StructVal([]sql.StructField{
				{Name: "0", Value: a[i]},
				{Name: "1", Value: b[i]},
			})
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "ARRAY_SLICE", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		start := arrayOffset(len(src), int(args[1].Int()))
		end := len(src)
		if len(args) > 2 {
			end = arrayOffset(len(src), int(args[2].Int())) + 1
		}
		if start < 0 {
			start = 0
		}
		if end > len(src) {
			end = len(src)
		}
		if end < start {
			end = start
		}
		return sql.ArrayVal(append([]sql.Value(nil), src[start:end]...)), nil
	}})

	reg.Register(&Entry{Name: "OFFSET", ReturnType: arrayElemReturn, Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		i := int(args[1].Int())
		if i < 0 || i >= len(src) {
			return sql.Null(), sql.ErrOutOfBounds("OFFSET(%d) out of bounds for array of length %d", i, len(src))
		}
		return src[i], nil
	}})
	reg.Register(&Entry{Name: "ORDINAL", ReturnType: arrayElemReturn, Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		i := int(args[1].Int()) - 1
		if i < 0 || i >= len(src) {
			return sql.Null(), sql.ErrOutOfBounds("ORDINAL(%d) out of bounds for array of length %d", i+1, len(src))
		}
		return src[i], nil
	}})
	reg.Register(&Entry{Name: "SAFE_OFFSET", ReturnType: arrayElemReturn, Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		i := int(args[1].Int())
		if i < 0 || i >= len(src) {
			return sql.Null(), nil
		}
		return src[i], nil
	}})
	reg.Register(&Entry{Name: "SAFE_ORDINAL", ReturnType: arrayElemReturn, Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		src := args[0].Array()
		i := int(args[1].Int()) - 1
		if i < 0 || i >= len(src) {
			return sql.Null(), nil
		}
		return src[i], nil
	}})
}

func arrayElemReturn(argTypes []sql.DataType) (sql.DataType, error) {
	if len(argTypes) == 0 {
		return nil, sql.ErrInvalidQuery("array accessor requires an array argument")
	}
	return arrayElemType(argTypes[0]), nil
}

func arrayReduce(pick func(acc, v sql.Value) sql.Value) RowFn {
	return func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var acc sql.Value
		set := false
		for _, e := range args[0].Array() {
			if e.IsNull() {
				continue
			}
			if !set {
				acc, set = e, true
				continue
			}
			acc = pick(acc, e)
		}
		if !set {
			return sql.Null(), nil
		}
		return acc, nil
	}
}

// arrayOffset resolves a 0-based array index, negative counting from the
// end, to a 0-based offset, shared by ARRAY_SLICE's bounds.
func arrayOffset(n, pos int) int {
	if pos >= 0 {
		return pos
	}
	return n + pos
}
