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
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/function"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// Substring is the dedicated SUBSTRING(x FROM pos [FOR len]) syntax node;
// the planner also accepts the function-call spelling, which resolves
// straight to function.Registry's SUBSTR entry via ScalarFunction instead.
type Substring struct {
	Operand Expr
	From    Expr
	For     Expr // nil => to end of string
}

func (s *Substring) Type() sql.DataType { return types.String }
func (s *Substring) String() string {
	if s.For != nil {
		return "SUBSTRING(" + s.Operand.String() + " FROM " + s.From.String() + " FOR " + s.For.String() + ")"
	}
	return "SUBSTRING(" + s.Operand.String() + " FROM " + s.From.String() + ")"
}

func (s *Substring) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	str, err := s.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	from, err := s.From.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if str.IsNull() || from.IsNull() {
		return sql.Null(), nil
	}
	args := []sql.Value{str, from}
	if s.For != nil {
		forV, err := s.For.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		if forV.IsNull() {
			return sql.Null(), nil
		}
		args = append(args, forV)
	}
	return function.SubstrEval(args)
}

func (s *Substring) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, s, batch, types.String)
}

func (s *Substring) Children() []Expr {
	children := []Expr{s.Operand, s.From}
	if s.For != nil {
		children = append(children, s.For)
	}
	return children
}

func (s *Substring) WithChildren(children []Expr) (Expr, error) {
	if len(children) < 2 || len(children) > 3 {
		return nil, sql.ErrInvalidQuery("Substring takes 2 or 3 children")
	}
	n := *s
	n.Operand, n.From = children[0], children[1]
	if len(children) == 3 {
		n.For = children[2]
	} else {
		n.For = nil
	}
	return &n, nil
}

// Trim is the dedicated TRIM([LEADING|TRAILING|BOTH] [chars] FROM x)
// syntax node.
type Trim struct {
	Operand Expr
	Chars   Expr // nil => trim ASCII space
	Mode    string // "LEADING", "TRAILING", "BOTH"
}

func (t *Trim) Type() sql.DataType { return types.String }
func (t *Trim) String() string     { return "TRIM(" + t.Mode + " FROM " + t.Operand.String() + ")" }

func (t *Trim) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := t.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if v.IsNull() {
		return sql.Null(), nil
	}
	cutset := " "
	if t.Chars != nil {
		c, err := t.Chars.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		if c.IsNull() {
			return sql.Null(), nil
		}
		cutset = c.Str()
	}
	switch t.Mode {
	case "LEADING":
		return sql.StringVal(strings.TrimLeft(v.Str(), cutset)), nil
	case "TRAILING":
		return sql.StringVal(strings.TrimRight(v.Str(), cutset)), nil
	default:
		return sql.StringVal(strings.Trim(v.Str(), cutset)), nil
	}
}

func (t *Trim) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, t, batch, types.String)
}

func (t *Trim) Children() []Expr {
	if t.Chars != nil {
		return []Expr{t.Operand, t.Chars}
	}
	return []Expr{t.Operand}
}

func (t *Trim) WithChildren(children []Expr) (Expr, error) {
	n := *t
	n.Operand = children[0]
	if len(children) > 1 {
		n.Chars = children[1]
	} else {
		n.Chars = nil
	}
	return &n, nil
}

// Extract is the dedicated EXTRACT(field FROM expr) syntax node, dispatched
// to function.ExtractField (datetime kernels).
type Extract struct {
	Field   string
	Operand Expr
}

func (e *Extract) Type() sql.DataType { return types.Int64 }
func (e *Extract) String() string     { return "EXTRACT(" + e.Field + " FROM " + e.Operand.String() + ")" }

func (e *Extract) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := e.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	return function.ExtractField(e.Field, v)
}

func (e *Extract) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, e, batch, types.Int64)
}

func (e *Extract) Children() []Expr { return []Expr{e.Operand} }

func (e *Extract) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Extract takes exactly one child")
	}
	n := *e
	n.Operand = children[0]
	return &n, nil
}

// TypedString is a string literal immediately cast to a declared type at
// parse time, e.g. DATE '2024-01-01' or TIMESTAMP '2024-01-01 00:00:00
// UTC'; unlike a general Cast it holds the raw text rather than an
// operand expression, and Eval casts Raw to Typ on every call.
type TypedString struct {
	Raw string
	Typ sql.DataType
}

func (t *TypedString) Type() sql.DataType { return t.Typ }
func (t *TypedString) String() string     { return t.Typ.String() + " '" + t.Raw + "'" }

func (t *TypedString) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return CastValue(sql.StringVal(t.Raw), t.Typ)
}

func (t *TypedString) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, t, batch, t.Typ)
}

func (t *TypedString) Children() []Expr { return nil }

func (t *TypedString) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("TypedString takes no children")
	}
	return t, nil
}
