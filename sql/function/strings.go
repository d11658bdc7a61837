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

func init() {
	reg := Global()

	reg.Register(&Entry{Name: "CONCAT", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		var b strings.Builder
		for _, a := range args {
			b.WriteString(a.Str())
		}
		return sql.StringVal(b.String()), nil
	}})

	reg.Register(&Entry{Name: "LENGTH", ReturnType: StaticReturn(types.Int64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		if args[0].Kind == sql.KBytes {
			return sql.Int64Val(int64(len(args[0].Bytes()))), nil
		}
		return sql.Int64Val(int64(len([]rune(args[0].Str())))), nil
	}})

	reg.Register(&Entry{Name: "UPPER", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.StringVal(strings.ToUpper(args[0].Str())), nil
	}})
	reg.Register(&Entry{Name: "LOWER", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.StringVal(strings.ToLower(args[0].Str())), nil
	}})

	reg.Register(&Entry{Name: "SUBSTR", ReturnType: StaticReturn(types.String), Row: substrFn})
	reg.Register(&Entry{Name: "SUBSTRING", ReturnType: StaticReturn(types.String), Row: substrFn})

	reg.Register(&Entry{Name: "REPLACE", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.StringVal(strings.ReplaceAll(args[0].Str(), args[1].Str(), args[2].Str())), nil
	}})

	reg.Register(&Entry{Name: "TRIM", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		cutset := " "
		if len(args) > 1 {
			cutset = args[1].Str()
		}
		return sql.StringVal(strings.Trim(args[0].Str(), cutset)), nil
	}})
	reg.Register(&Entry{Name: "LTRIM", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		cutset := " "
		if len(args) > 1 {
			cutset = args[1].Str()
		}
		return sql.StringVal(strings.TrimLeft(args[0].Str(), cutset)), nil
	}})
	reg.Register(&Entry{Name: "RTRIM", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		cutset := " "
		if len(args) > 1 {
			cutset = args[1].Str()
		}
		return sql.StringVal(strings.TrimRight(args[0].Str(), cutset)), nil
	}})

	reg.Register(&Entry{Name: "STARTS_WITH", ReturnType: StaticReturn(types.Bool), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.BoolVal(strings.HasPrefix(args[0].Str(), args[1].Str())), nil
	}})
	reg.Register(&Entry{Name: "ENDS_WITH", ReturnType: StaticReturn(types.Bool), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.BoolVal(strings.HasSuffix(args[0].Str(), args[1].Str())), nil
	}})

	reg.Register(&Entry{Name: "SPLIT", ReturnType: StaticReturn(types.ArrayType{Elem: types.String}), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		sep := ","
		if len(args) > 1 {
			sep = args[1].Str()
		}
		parts := strings.Split(args[0].Str(), sep)
		out := make([]sql.Value, len(parts))
		for i, p := range parts {
			out[i] = sql.StringVal(p)
		}
		return sql.ArrayVal(out), nil
	}})

	reg.Register(&Entry{Name: "COALESCE", NullTolerant: true, ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		for _, a := range args {
			if !a.IsNull() {
				return a, nil
			}
		}
		return sql.Null(), nil
	}})
	reg.Register(&Entry{Name: "IFNULL", NullTolerant: true, ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		if !args[0].IsNull() {
			return args[0], nil
		}
		return args[1], nil
	}})
	reg.Register(&Entry{Name: "NULLIF", NullTolerant: true, ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		if !args[0].IsNull() && !args[1].IsNull() && args[0].Equal(args[1]) {
			return sql.Null(), nil
		}
		return args[0], nil
	}})

	reg.Register(&Entry{Name: "REGEXP_CONTAINS", ReturnType: StaticReturn(types.Bool), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		re, err := compileRegexp(args[1].Str())
		if err != nil {
			return sql.Null(), err
		}
		return sql.BoolVal(re.MatchString(args[0].Str())), nil
	}})
	reg.Register(&Entry{Name: "REGEXP_EXTRACT", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		re, err := compileRegexp(args[1].Str())
		if err != nil {
			return sql.Null(), err
		}
		m := re.FindStringSubmatch(args[0].Str())
		if m == nil {
			return sql.Null(), nil
		}
		if len(m) > 1 {
			return sql.StringVal(m[1]), nil
		}
		return sql.StringVal(m[0]), nil
	}})
	reg.Register(&Entry{Name: "REGEXP_REPLACE", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		re, err := compileRegexp(args[1].Str())
		if err != nil {
			return sql.Null(), err
		}
		return sql.StringVal(re.ReplaceAllString(args[0].Str(), args[2].Str())), nil
	}})
}

// SubstrEval exposes substrFn's SUBSTR/SUBSTRING kernel for the dedicated
// SUBSTRING(x FROM pos [FOR len]) AST syntax node, which evaluates outside
// the registry's CallRow dispatch.
func SubstrEval(args []sql.Value) (sql.Value, error) { return substrFn(nil, args) }

func substrFn(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
	s := []rune(args[0].Str())
	pos := int(args[1].Int())
	// BigQuery SUBSTR is 1-based; negative counts from the end.
	var start int
	if pos > 0 {
		start = pos - 1
	} else if pos < 0 {
		start = len(s) + pos
		if start < 0 {
			start = 0
		}
	}
	if start > len(s) {
		start = len(s)
	}
	length := len(s) - start
	if len(args) > 2 {
		length = int(args[2].Int())
		if length < 0 {
			return sql.Null(), sql.ErrInvalidQuery("SUBSTR: negative length")
		}
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}
	if end < start {
		end = start
	}
	return sql.StringVal(string(s[start:end])), nil
}
