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

import "github.com/coldbrook-data/bqengine/sql"

// UnaryOp covers NOT and unary minus.
type UnaryOp struct {
	Op      string // "NOT", "-"
	Operand Expr
	Typ     sql.DataType
}

func NewUnaryOp(op string, operand Expr, t sql.DataType) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand, Typ: t}
}

func (u *UnaryOp) Type() sql.DataType { return u.Typ }
func (u *UnaryOp) String() string     { return u.Op + " " + u.Operand.String() }
func (u *UnaryOp) Children() []Expr   { return []Expr{u.Operand} }

func (u *UnaryOp) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("UnaryOp takes exactly 1 child")
	}
	n := *u
	n.Operand = children[0]
	return &n, nil
}

func (u *UnaryOp) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := u.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	return EvalUnary(u.Op, v)
}

func EvalUnary(op string, v sql.Value) (sql.Value, error) {
	if v.IsNull() {
		return sql.Null(), nil
	}
	switch op {
	case "NOT":
		return sql.BoolVal(!v.Bool()), nil
	case "-":
		switch v.Kind {
		case sql.KInt64:
			return sql.Int64Val(-v.Int()), nil
		case sql.KFloat64:
			return sql.Float64Val(-v.Float()), nil
		case sql.KNumeric:
			return sql.NumericVal(v.Decimal().Neg()), nil
		case sql.KBigNumeric:
			return sql.BigNumericVal(v.Decimal().Neg()), nil
		}
	case "~":
		return sql.Int64Val(^v.Int()), nil
	}
	return sql.Null(), sql.ErrUnsupported("unsupported unary operator %q", op)
}

func (u *UnaryOp) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	in, err := u.Operand.EvalBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	n := batch.NumRows()
	out := sql.NewColumn(u.Typ, n)
	for i := 0; i < n; i++ {
		if in.IsNull(i) {
			continue
		}
		v, err := EvalUnary(u.Op, in.Get(i))
		if err != nil {
			return nil, err
		}
		out.Set(i, v)
	}
	return out, nil
}
