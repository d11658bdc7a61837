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
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// CorrelatedParam binds one outer-query value into a session variable
// before a correlated subquery's plan is opened; the subquery's own plan
// references the outer value through a Variable node named Name rather
// than holding a live pointer back into the outer row (correlated
// subquery design note).
type CorrelatedParam struct {
	Name  string
	Outer Expr
}

func bindCorrelated(ctx *sql.Context, row sql.Record, params []CorrelatedParam) error {
	for _, p := range params {
		v, err := p.Outer.Eval(ctx, row)
		if err != nil {
			return err
		}
		ctx.SetVar(p.Name, v)
	}
	return nil
}

// ScalarSubquery evaluates Plan per outer row (for a correlated subquery,
// each Correlated param's outer value is bound into its session variable
// before Open) and returns its single scalar result, or Null if the
// subquery is empty.
type ScalarSubquery struct {
	Plan        sql.SubPlan
	Typ         sql.DataType
	Correlated  []CorrelatedParam
}

func (s *ScalarSubquery) Type() sql.DataType { return s.Typ }
func (s *ScalarSubquery) String() string     { return "(SELECT ...)" }

func (s *ScalarSubquery) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	if err := bindCorrelated(ctx, row, s.Correlated); err != nil {
		return sql.Null(), err
	}
	it, err := s.Plan.Open(ctx)
	if err != nil {
		return sql.Null(), err
	}
	defer it.Close(ctx)
	rows, err := sql.DrainAll(ctx, it)
	if err != nil {
		return sql.Null(), err
	}
	if len(rows) == 0 {
		return sql.Null(), nil
	}
	if len(rows) > 1 {
		return sql.Null(), sql.ErrInvalidQuery("scalar subquery returned more than one row")
	}
	if len(rows[0]) == 0 {
		return sql.Null(), nil
	}
	return rows[0][0], nil
}

func (s *ScalarSubquery) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, s, batch, s.Typ)
}

func (s *ScalarSubquery) Children() []Expr { return nil }

func (s *ScalarSubquery) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("ScalarSubquery takes no children")
	}
	return s, nil
}

// ArraySubquery implements ARRAY(subquery): the whole result set collapses
// into a single Array-typed value (Expr: subquery variants).
type ArraySubquery struct {
	Plan       sql.SubPlan
	Typ        types.ArrayType
	Correlated []CorrelatedParam
}

func (a *ArraySubquery) Type() sql.DataType { return a.Typ }
func (a *ArraySubquery) String() string     { return "ARRAY(SELECT ...)" }

func (a *ArraySubquery) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	if err := bindCorrelated(ctx, row, a.Correlated); err != nil {
		return sql.Null(), err
	}
	it, err := a.Plan.Open(ctx)
	if err != nil {
		return sql.Null(), err
	}
	defer it.Close(ctx)
	rows, err := sql.DrainAll(ctx, it)
	if err != nil {
		return sql.Null(), err
	}
	vals := make([]sql.Value, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			vals[i] = r[0]
		}
	}
	return sql.ArrayVal(vals), nil
}

func (a *ArraySubquery) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, a, batch, a.Typ)
}

func (a *ArraySubquery) Children() []Expr { return nil }

func (a *ArraySubquery) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("ArraySubquery takes no children")
	}
	return a, nil
}

// InSubquery implements `x IN (subquery)` / `x NOT IN (subquery)`.
type InSubquery struct {
	Operand    Expr
	Plan       sql.SubPlan
	Negated    bool
	Correlated []CorrelatedParam
}

func (s *InSubquery) Type() sql.DataType { return types.Bool }
func (s *InSubquery) String() string {
	if s.Negated {
		return s.Operand.String() + " NOT IN (SELECT ...)"
	}
	return s.Operand.String() + " IN (SELECT ...)"
}

func (s *InSubquery) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := s.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if v.IsNull() {
		return sql.Null(), nil
	}
	if err := bindCorrelated(ctx, row, s.Correlated); err != nil {
		return sql.Null(), err
	}
	it, err := s.Plan.Open(ctx)
	if err != nil {
		return sql.Null(), err
	}
	defer it.Close(ctx)
	rows, err := sql.DrainAll(ctx, it)
	if err != nil {
		return sql.Null(), err
	}
	found, sawNull := false, false
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		if r[0].IsNull() {
			sawNull = true
			continue
		}
		if r[0].Equal(v) {
			found = true
			break
		}
	}
	switch {
	case found:
		return sql.BoolVal(!s.Negated), nil
	case sawNull:
		return sql.Null(), nil
	default:
		return sql.BoolVal(s.Negated), nil
	}
}

func (s *InSubquery) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, s, batch, types.Bool)
}

func (s *InSubquery) Children() []Expr { return []Expr{s.Operand} }

func (s *InSubquery) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("InSubquery takes exactly one child")
	}
	n := *s
	n.Operand = children[0]
	return &n, nil
}

// Exists implements `EXISTS (subquery)` / `NOT EXISTS (subquery)`.
type Exists struct {
	Plan       sql.SubPlan
	Negated    bool
	Correlated []CorrelatedParam
}

func (e *Exists) Type() sql.DataType { return types.Bool }
func (e *Exists) String() string {
	if e.Negated {
		return "NOT EXISTS (SELECT ...)"
	}
	return "EXISTS (SELECT ...)"
}

func (e *Exists) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	if err := bindCorrelated(ctx, row, e.Correlated); err != nil {
		return sql.Null(), err
	}
	it, err := e.Plan.Open(ctx)
	if err != nil {
		return sql.Null(), err
	}
	defer it.Close(ctx)
	b, err := it.Next(ctx)
	found := err == nil && b != nil && b.NumRows() > 0
	if err != nil && err != sql.ErrEndOfBatches {
		return sql.Null(), err
	}
	return sql.BoolVal(found != e.Negated), nil
}

func (e *Exists) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, e, batch, types.Bool)
}

func (e *Exists) Children() []Expr { return nil }

func (e *Exists) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Exists takes no children")
	}
	return e, nil
}
