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
	"github.com/coldbrook-data/bqengine/sql/types"
)

// StructExpr constructs a STRUCT(...) literal.
type StructExpr struct {
	Fields []StructFieldExpr
	Typ    types.StructType
}

type StructFieldExpr struct {
	Name  string
	Value Expr
}

func (s *StructExpr) Type() sql.DataType { return s.Typ }
func (s *StructExpr) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Value.String() + " AS " + f.Name
	}
	return "STRUCT(" + strings.Join(parts, ", ") + ")"
}

func (s *StructExpr) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	fields := make([]sql.StructField, len(s.Fields))
	for i, f := range s.Fields {
		v, err := f.Value.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		fields[i] = sql.StructField{Name: f.Name, Value: v}
	}
	return sql.StructVal(fields), nil
}

func (s *StructExpr) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, s, batch, s.Typ)
}

func (s *StructExpr) Children() []Expr {
	out := make([]Expr, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Value
	}
	return out
}

func (s *StructExpr) WithChildren(children []Expr) (Expr, error) {
	if len(children) != len(s.Fields) {
		return nil, sql.ErrInvalidQuery("StructExpr: child count mismatch")
	}
	n := *s
	n.Fields = make([]StructFieldExpr, len(children))
	for i, c := range children {
		n.Fields[i] = StructFieldExpr{Name: s.Fields[i].Name, Value: c}
	}
	return &n, nil
}

// ArrayExpr constructs an ARRAY[...] or ARRAY(subquery) literal; Elems is
// empty when the array is built from a SubPlan instead (see sql/expr
// subquery.go's ArraySubquery, a Subquery-kind node producing KArray).
type ArrayExpr struct {
	Elems []Expr
	Typ   types.ArrayType
}

func (a *ArrayExpr) Type() sql.DataType { return a.Typ }
func (a *ArrayExpr) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return "ARRAY[" + strings.Join(parts, ", ") + "]"
}

func (a *ArrayExpr) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	vals := make([]sql.Value, len(a.Elems))
	for i, e := range a.Elems {
		v, err := e.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		vals[i] = v
	}
	return sql.ArrayVal(vals), nil
}

func (a *ArrayExpr) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, a, batch, a.Typ)
}

func (a *ArrayExpr) Children() []Expr { return a.Elems }

func (a *ArrayExpr) WithChildren(children []Expr) (Expr, error) {
	n := *a
	n.Elems = children
	return &n, nil
}

// FieldAccess reads a named field out of a struct-typed child (x.field).
type FieldAccess struct {
	Operand Expr
	Field   string
	Typ     sql.DataType
}

func (f *FieldAccess) Type() sql.DataType { return f.Typ }
func (f *FieldAccess) String() string     { return f.Operand.String() + "." + f.Field }

func (f *FieldAccess) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := f.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if v.IsNull() {
		return sql.Null(), nil
	}
	out, ok := v.StructGet(f.Field)
	if !ok {
		return sql.Null(), sql.ErrColumnNotFound(f.Field)
	}
	return out, nil
}

func (f *FieldAccess) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, f, batch, f.Typ)
}

func (f *FieldAccess) Children() []Expr { return []Expr{f.Operand} }

func (f *FieldAccess) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("FieldAccess takes exactly one child")
	}
	n := *f
	n.Operand = children[0]
	return &n, nil
}

// Lambda is the param -> body form accepted by array higher-order
// functions (e.g. the ARRAY_FILTER/ARRAY_TRANSFORM family); Params bind
// positionally into a synthetic single-row Record when Invoke is called
// by the owning function's Row kernel.
type Lambda struct {
	Params []string
	Body   Expr
}

func (l *Lambda) Type() sql.DataType { return l.Body.Type() }
func (l *Lambda) String() string {
	return "(" + strings.Join(l.Params, ", ") + ") -> " + l.Body.String()
}

func (l *Lambda) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return l.Body.Eval(ctx, row)
}

func (l *Lambda) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return l.Body.EvalBatch(ctx, batch)
}

func (l *Lambda) Children() []Expr { return []Expr{l.Body} }

func (l *Lambda) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Lambda takes exactly one child")
	}
	n := *l
	n.Body = children[0]
	return &n, nil
}

// Invoke evaluates the lambda body against a single-row Record built from
// args, positionally bound to Params.
func (l *Lambda) Invoke(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
	return l.Body.Eval(ctx, sql.Record(args))
}
