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
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// BinaryOp covers arithmetic (+ - * / %), comparison (= != < <= > >=), and
// logical (AND OR) binary operators.
type BinaryOp struct {
	Op          string
	Left, Right Expr
	Typ         sql.DataType
}

func NewBinaryOp(op string, l, r Expr, t sql.DataType) *BinaryOp {
	return &BinaryOp{Op: op, Left: l, Right: r, Typ: t}
}

func (b *BinaryOp) Type() sql.DataType { return b.Typ }
func (b *BinaryOp) String() string     { return b.Left.String() + " " + b.Op + " " + b.Right.String() }
func (b *BinaryOp) Children() []Expr   { return []Expr{b.Left, b.Right} }

func (b *BinaryOp) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidQuery("BinaryOp takes exactly 2 children")
	}
	n := *b
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (b *BinaryOp) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	l, err := b.Left.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	// AND/OR short-circuit on a known-false/true side even if the other
	// side is Null, matching BigQuery three-valued-logic short circuiting.
	if b.Op == "AND" && !l.IsNull() && !l.Bool() {
		return sql.BoolVal(false), nil
	}
	if b.Op == "OR" && !l.IsNull() && l.Bool() {
		return sql.BoolVal(true), nil
	}
	r, err := b.Right.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	return EvalBinary(b.Op, l, r)
}

// EvalBinary is the row-at-a-time kernel for every binary operator, shared
// by BinaryOp.Eval and BinaryOp.EvalBatch.
func EvalBinary(op string, l, r sql.Value) (sql.Value, error) {
	switch op {
	case "AND":
		return evalAnd(l, r), nil
	case "OR":
		return evalOr(l, r), nil
	case "=", "!=", "<>", "<", "<=", ">", ">=":
		if l.IsNull() || r.IsNull() {
			return sql.Null(), nil
		}
		return evalCompare(op, l, r), nil
	case "+", "-", "*", "/", "%", "DIV":
		if l.IsNull() || r.IsNull() {
			return sql.Null(), nil
		}
		return evalArith(op, l, r)
	case "||":
		if l.IsNull() || r.IsNull() {
			return sql.Null(), nil
		}
		return sql.StringVal(l.Str() + r.Str()), nil
	case "&", "|", "^", "<<", ">>":
		if l.IsNull() || r.IsNull() {
			return sql.Null(), nil
		}
		return evalBitwise(op, l, r), nil
	default:
		return sql.Null(), sql.ErrUnsupported("unsupported binary operator %q", op)
	}
}

func evalAnd(l, r sql.Value) sql.Value {
	if (!l.IsNull() && !l.Bool()) || (!r.IsNull() && !r.Bool()) {
		return sql.BoolVal(false)
	}
	if l.IsNull() || r.IsNull() {
		return sql.Null()
	}
	return sql.BoolVal(true)
}

func evalOr(l, r sql.Value) sql.Value {
	if (!l.IsNull() && l.Bool()) || (!r.IsNull() && r.Bool()) {
		return sql.BoolVal(true)
	}
	if l.IsNull() || r.IsNull() {
		return sql.Null()
	}
	return sql.BoolVal(false)
}

func evalCompare(op string, l, r sql.Value) sql.Value {
	c := sql.Compare(l, r)
	var res bool
	switch op {
	case "=":
		res = c == 0
	case "!=", "<>":
		res = c != 0
	case "<":
		res = c < 0
	case "<=":
		res = c <= 0
	case ">":
		res = c > 0
	case ">=":
		res = c >= 0
	}
	return sql.BoolVal(res)
}

// isDecimalKind reports whether v is backed by shopspring/decimal.
func isDecimalKind(v sql.Value) bool {
	return v.Kind == sql.KNumeric || v.Kind == sql.KBigNumeric
}

func toDecimal(v sql.Value) decimal.Decimal {
	switch v.Kind {
	case sql.KNumeric, sql.KBigNumeric:
		return v.Decimal()
	case sql.KInt64:
		return decimal.NewFromInt(v.Int())
	case sql.KFloat64:
		return decimal.NewFromFloat(v.Float())
	default:
		return decimal.Zero
	}
}

func evalArith(op string, l, r sql.Value) (sql.Value, error) {
	if isDecimalKind(l) || isDecimalKind(r) {
		ld, rd := toDecimal(l), toDecimal(r)
		big := l.Kind == sql.KBigNumeric || r.Kind == sql.KBigNumeric
		var out decimal.Decimal
		switch op {
		case "+":
			out = ld.Add(rd)
		case "-":
			out = ld.Sub(rd)
		case "*":
			out = ld.Mul(rd)
		case "/", "DIV":
			if rd.IsZero() {
				return sql.Null(), sql.ErrDivisionByZero()
			}
			out = ld.DivRound(rd, 9)
		case "%":
			if rd.IsZero() {
				return sql.Null(), sql.ErrDivisionByZero()
			}
			out = ld.Mod(rd)
		}
		nt := types.NumericType{Big: big}
		if err := clampNumeric(out, nt); err != nil {
			return sql.Null(), err
		}
		if big {
			return sql.BigNumericVal(out), nil
		}
		return sql.NumericVal(out), nil
	}

	if l.Kind == sql.KFloat64 || r.Kind == sql.KFloat64 {
		lf, rf := toFloat(l), toFloat(r)
		switch op {
		case "+":
			return sql.Float64Val(lf + rf), nil
		case "-":
			return sql.Float64Val(lf - rf), nil
		case "*":
			return sql.Float64Val(lf * rf), nil
		case "/":
			if rf == 0 {
				return sql.Float64Val(math.NaN()), nil // BigQuery IEEE_DIVIDE semantics for FLOAT64
			}
			return sql.Float64Val(lf / rf), nil
		case "%":
			if rf == 0 {
				return sql.Null(), sql.ErrDivisionByZero()
			}
			return sql.Float64Val(math.Mod(lf, rf)), nil
		}
	}

	li, ri := l.Int(), r.Int()
	switch op {
	case "+":
		out := li + ri
		if (ri > 0 && out < li) || (ri < 0 && out > li) {
			return sql.Null(), sql.ErrArithmeticOverflow("int64 addition overflow")
		}
		return sql.Int64Val(out), nil
	case "-":
		out := li - ri
		if (ri < 0 && out < li) || (ri > 0 && out > li) {
			return sql.Null(), sql.ErrArithmeticOverflow("int64 subtraction overflow")
		}
		return sql.Int64Val(out), nil
	case "*":
		if li != 0 && ri != 0 {
			out := li * ri
			if out/ri != li {
				return sql.Null(), sql.ErrArithmeticOverflow("int64 multiplication overflow")
			}
			return sql.Int64Val(out), nil
		}
		return sql.Int64Val(0), nil
	case "/":
		if ri == 0 {
			return sql.Null(), sql.ErrDivisionByZero()
		}
		return sql.Float64Val(float64(li) / float64(ri)), nil
	case "DIV":
		if ri == 0 {
			return sql.Null(), sql.ErrDivisionByZero()
		}
		return sql.Int64Val(li / ri), nil
	case "%":
		if ri == 0 {
			return sql.Null(), sql.ErrDivisionByZero()
		}
		return sql.Int64Val(li % ri), nil
	}
	return sql.Null(), sql.ErrUnsupported("unsupported arithmetic operator %q", op)
}

// clampNumeric enforces the declared precision per (38 digits/9
// fractional for NUMERIC, 76/38 for BIGNUMERIC).
func clampNumeric(d decimal.Decimal, nt types.NumericType) error {
	d = d.Truncate(nt.MaxScale())
	digits := int32(len(strings.TrimLeft(d.Coefficient().String(), "-")))
	if digits > nt.MaxDigits() {
		return sql.ErrArithmeticOverflow("%s exceeds %d digit precision", nt.String(), nt.MaxDigits())
	}
	return nil
}

func toFloat(v sql.Value) float64 {
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

func evalBitwise(op string, l, r sql.Value) sql.Value {
	li, ri := l.Int(), r.Int()
	switch op {
	case "&":
		return sql.Int64Val(li & ri)
	case "|":
		return sql.Int64Val(li | ri)
	case "^":
		return sql.Int64Val(li ^ ri)
	case "<<":
		return sql.Int64Val(li << uint(ri))
	case ">>":
		return sql.Int64Val(li >> uint(ri))
	}
	return sql.Null()
}

func (b *BinaryOp) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	lc, err := b.Left.EvalBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	rc, err := b.Right.EvalBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	n := batch.NumRows()
	out := sql.NewColumn(b.Typ, n)
	for i := 0; i < n; i++ {
		if lc.IsNull(i) || rc.IsNull(i) {
			// AND/OR have non-null-propagating short circuits handled by
			// falling back to the row evaluator on this slot only.
			if b.Op == "AND" || b.Op == "OR" {
				v, err := EvalBinary(b.Op, lc.Get(i), rc.Get(i))
				if err != nil {
					return nil, err
				}
				out.Set(i, v)
				continue
			}
			continue // stays null
		}
		v, err := EvalBinary(b.Op, lc.Get(i), rc.Get(i))
		if err != nil {
			return nil, err
		}
		out.Set(i, v)
	}
	return out, nil
}
