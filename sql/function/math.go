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
	"math"

	"github.com/shopspring/decimal"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func init() {
	reg := Global()
	reg.Register(&Entry{Name: "ABS", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		v := args[0]
		switch v.Kind {
		case sql.KInt64:
			n := v.Int()
			if n < 0 {
				n = -n
			}
			return sql.Int64Val(n), nil
		case sql.KFloat64:
			return sql.Float64Val(math.Abs(v.Float())), nil
		case sql.KNumeric:
			return sql.NumericVal(v.Decimal().Abs()), nil
		case sql.KBigNumeric:
			return sql.BigNumericVal(v.Decimal().Abs()), nil
		}
		return sql.Null(), sql.ErrTypeMismatch("ABS: unsupported argument type")
	}})

	reg.Register(&Entry{Name: "SIGN", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		v := args[0]
		switch v.Kind {
		case sql.KInt64:
			return sql.Int64Val(int64(signOf(float64(v.Int())))), nil
		case sql.KFloat64:
			return sql.Float64Val(signOf(v.Float())), nil
		case sql.KNumeric, sql.KBigNumeric:
			return sql.Int64Val(int64(v.Decimal().Sign())), nil
		}
		return sql.Null(), sql.ErrTypeMismatch("SIGN: unsupported argument type")
	}})

	reg.Register(&Entry{Name: "FLOOR", ReturnType: StaticReturn(types.Float64), Row: float64Unary(math.Floor)})
	reg.Register(&Entry{Name: "CEIL", ReturnType: StaticReturn(types.Float64), Row: float64Unary(math.Ceil)})
	reg.Register(&Entry{Name: "CEILING", ReturnType: StaticReturn(types.Float64), Row: float64Unary(math.Ceil)})
	reg.Register(&Entry{Name: "SQRT", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		f := toF(args[0])
		if f < 0 {
			return sql.Null(), sql.ErrInvalidQuery("SQRT of negative number")
		}
		return sql.Float64Val(math.Sqrt(f)), nil
	}})
	reg.Register(&Entry{Name: "EXP", ReturnType: StaticReturn(types.Float64), Row: float64Unary(math.Exp)})
	reg.Register(&Entry{Name: "LN", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		f := toF(args[0])
		if f <= 0 {
			return sql.Null(), sql.ErrInvalidQuery("LN of non-positive number")
		}
		return sql.Float64Val(math.Log(f)), nil
	}})
	reg.Register(&Entry{Name: "LOG10", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		f := toF(args[0])
		if f <= 0 {
			return sql.Null(), sql.ErrInvalidQuery("LOG10 of non-positive number")
		}
		return sql.Float64Val(math.Log10(f)), nil
	}})
	reg.Register(&Entry{Name: "LOG", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		x := toF(args[0])
		base := math.E
		if len(args) > 1 {
			base = toF(args[1])
		}
		if x <= 0 || base <= 0 || base == 1 {
			return sql.Null(), sql.ErrInvalidQuery("LOG: invalid argument or base")
		}
		return sql.Float64Val(math.Log(x) / math.Log(base)), nil
	}})
	reg.Register(&Entry{Name: "POWER", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.Float64Val(math.Pow(toF(args[0]), toF(args[1]))), nil
	}})
	reg.Register(&Entry{Name: "POW", ReturnType: StaticReturn(types.Float64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.Float64Val(math.Pow(toF(args[0]), toF(args[1]))), nil
	}})
	reg.Register(&Entry{Name: "ROUND", ReturnType: FirstArgReturn(), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		prec := int32(0)
		if len(args) > 1 {
			prec = int32(args[1].Int())
		}
		switch args[0].Kind {
		case sql.KFloat64:
			mul := math.Pow(10, float64(prec))
			return sql.Float64Val(math.Round(args[0].Float()*mul) / mul), nil
		case sql.KNumeric:
			return sql.NumericVal(args[0].Decimal().Round(prec)), nil
		case sql.KBigNumeric:
			return sql.BigNumericVal(args[0].Decimal().Round(prec)), nil
		}
		return sql.Null(), sql.ErrTypeMismatch("ROUND: unsupported argument type")
	}})
}

func signOf(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func float64Unary(f func(float64) float64) RowFn {
	return func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.Float64Val(f(toF(args[0]))), nil
	}
}

func toF(v sql.Value) float64 {
	switch v.Kind {
	case sql.KFloat64:
		return v.Float()
	case sql.KInt64:
		return float64(v.Int())
	case sql.KNumeric, sql.KBigNumeric:
		f, _ := v.Decimal().Float64()
		return f
	default:
		return 0
	}
}

var _ = decimal.Zero
