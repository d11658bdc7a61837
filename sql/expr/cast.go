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

package expr

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// Cast is Expr's Cast(data_type, safe) variant; Safe selects SAFE_CAST
// semantics, where any cast error becomes Null instead of propagating.
type Cast struct {
	Operand Expr
	Typ     sql.DataType
	Safe    bool
}

func NewCast(operand Expr, t sql.DataType, safe bool) *Cast { return &Cast{Operand: operand, Typ: t, Safe: safe} }

func (c *Cast) Type() sql.DataType { return c.Typ }
func (c *Cast) String() string {
	name := "CAST"
	if c.Safe {
		name = "SAFE_CAST"
	}
	return name + "(" + c.Operand.String() + " AS " + c.Typ.String() + ")"
}
func (c *Cast) Children() []Expr { return []Expr{c.Operand} }
func (c *Cast) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Cast takes exactly 1 child")
	}
	n := *c
	n.Operand = children[0]
	return &n, nil
}

func (c *Cast) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := c.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if v.IsNull() {
		return sql.Null(), nil
	}
	out, err := CastValue(v, c.Typ)
	if err != nil {
		if c.Safe && sql.IsSafeRecoverable(err) {
			return sql.Null(), nil
		}
		return sql.Null(), err
	}
	return out, nil
}

func (c *Cast) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	in, err := c.Operand.EvalBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	out := sql.NewColumn(c.Typ, batch.NumRows())
	for i := 0; i < batch.NumRows(); i++ {
		if in.IsNull(i) {
			continue
		}
		v, err := CastValue(in.Get(i), c.Typ)
		if err != nil {
			if c.Safe && sql.IsSafeRecoverable(err) {
				continue
			}
			return nil, err
		}
		out.Set(i, v)
	}
	return out, nil
}

// CastValue implements the documented cast pairs and round-trip semantics:
// CAST(CAST(x AS T) AS S) is the identity whenever T ⊇ S losslessly.
func CastValue(v sql.Value, to sql.DataType) (sql.Value, error) {
	switch to.Kind() {
	case sql.TString:
		return sql.StringVal(valueToString(v)), nil
	case sql.TBytes:
		if v.Kind == sql.KString {
			return sql.BytesVal([]byte(v.Str())), nil
		}
		return sql.BytesVal(v.Bytes()), nil
	case sql.TInt64:
		return castToInt64(v)
	case sql.TFloat64:
		return castToFloat64(v)
	case sql.TBool:
		return castToBool(v)
	case sql.TNumeric, sql.TBigNumeric:
		return castToDecimal(v, to.(types.NumericType))
	case sql.TDate:
		return castToDate(v)
	case sql.TTimestamp:
		return castToTimestamp(v)
	case sql.TDateTime:
		return castToDateTime(v)
	case sql.TTime:
		return castToTime(v)
	default:
		return sql.Null(), sql.ErrInvalidCast(kindName(v), to.String())
	}
}

func kindName(v sql.Value) string {
	names := map[sql.ValueKind]string{
		sql.KNull: "NULL", sql.KBool: "BOOL", sql.KInt64: "INT64",
		sql.KFloat64: "FLOAT64", sql.KString: "STRING", sql.KBytes: "BYTES",
		sql.KDate: "DATE", sql.KTime: "TIME", sql.KDateTime: "DATETIME",
		sql.KTimestamp: "TIMESTAMP", sql.KNumeric: "NUMERIC",
		sql.KBigNumeric: "BIGNUMERIC",
	}
	if n, ok := names[v.Kind]; ok {
		return n
	}
	return "VALUE"
}

func valueToString(v sql.Value) string {
	switch v.Kind {
	case sql.KDate:
		return time.Unix(0, 0).UTC().AddDate(0, 0, int(v.Int())).Format("2006-01-02")
	case sql.KTimestamp:
		return time.Unix(0, v.Int()).UTC().Format(time.RFC3339Nano)
	case sql.KDateTime:
		return time.Unix(0, v.Int()).UTC().Format("2006-01-02T15:04:05.999999999")
	case sql.KTime:
		d := time.Duration(v.Int())
		return time.Time{}.Add(d).Format("15:04:05.999999999")
	default:
		return v.String()
	}
}

func castToInt64(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KInt64:
		return v, nil
	case sql.KFloat64:
		return sql.Int64Val(int64(v.Float() + sign(v.Float())*0.5)), nil
	case sql.KBool:
		if v.Bool() {
			return sql.Int64Val(1), nil
		}
		return sql.Int64Val(0), nil
	case sql.KNumeric, sql.KBigNumeric:
		return sql.Int64Val(v.Decimal().Round(0).IntPart()), nil
	case sql.KString:
		i, err := strconv.ParseInt(v.Str(), 10, 64)
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "INT64")
		}
		return sql.Int64Val(i), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "INT64")
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func castToFloat64(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KFloat64:
		return v, nil
	case sql.KInt64:
		return sql.Float64Val(float64(v.Int())), nil
	case sql.KNumeric, sql.KBigNumeric:
		f, _ := v.Decimal().Float64()
		return sql.Float64Val(f), nil
	case sql.KString:
		f, err := strconv.ParseFloat(v.Str(), 64)
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "FLOAT64")
		}
		return sql.Float64Val(f), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "FLOAT64")
}

func castToBool(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KBool:
		return v, nil
	case sql.KInt64:
		return sql.BoolVal(v.Int() != 0), nil
	case sql.KString:
		b, err := strconv.ParseBool(v.Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "BOOL")
		}
		return sql.BoolVal(b), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "BOOL")
}

func castToDecimal(v sql.Value, nt types.NumericType) (sql.Value, error) {
	var d decimal.Decimal
	switch v.Kind {
	case sql.KNumeric, sql.KBigNumeric:
		d = v.Decimal()
	case sql.KInt64:
		d = decimal.NewFromInt(v.Int())
	case sql.KFloat64:
		d = decimal.NewFromFloat(v.Float())
	case sql.KString:
		parsed, err := decimal.NewFromString(v.Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", nt.String())
		}
		d = parsed
	default:
		return sql.Null(), sql.ErrInvalidCast(kindName(v), nt.String())
	}
	if err := clampNumeric(d, nt); err != nil {
		return sql.Null(), err
	}
	if nt.Big {
		return sql.BigNumericVal(d), nil
	}
	return sql.NumericVal(d), nil
}

const dayNanos = int64(24 * time.Hour)

func castToDate(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KDate:
		return v, nil
	case sql.KTimestamp, sql.KDateTime:
		return sql.DateVal(v.Int() / dayNanos), nil
	case sql.KString:
		t, err := time.Parse("2006-01-02", v.Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "DATE")
		}
		return sql.DateVal(t.Unix() / 86400), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "DATE")
}

func castToTimestamp(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KTimestamp:
		return v, nil
	case sql.KDateTime:
		return sql.TimestampVal(v.Int()), nil
	case sql.KDate:
		return sql.TimestampVal(v.Int() * dayNanos), nil
	case sql.KString:
		t, err := time.Parse(time.RFC3339Nano, v.Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "TIMESTAMP")
		}
		return sql.TimestampVal(t.UnixNano()), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "TIMESTAMP")
}

func castToDateTime(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KDateTime:
		return v, nil
	case sql.KTimestamp:
		return sql.DateTimeVal(v.Int()), nil
	case sql.KDate:
		return sql.DateTimeVal(v.Int() * dayNanos), nil
	case sql.KString:
		t, err := time.Parse("2006-01-02T15:04:05.999999999", v.Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "DATETIME")
		}
		return sql.DateTimeVal(t.UnixNano()), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "DATETIME")
}

func castToTime(v sql.Value) (sql.Value, error) {
	switch v.Kind {
	case sql.KTime:
		return v, nil
	case sql.KTimestamp, sql.KDateTime:
		return sql.TimeVal(v.Int() % dayNanos), nil
	case sql.KString:
		t, err := time.Parse("15:04:05.999999999", v.Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "TIME")
		}
		return sql.TimeVal(int64(t.Sub(time.Time{}))), nil
	}
	return sql.Null(), sql.ErrInvalidCast(kindName(v), "TIME")
}
