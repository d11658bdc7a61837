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

// WhenClause is one WHEN/THEN pair of a Case expression.
type WhenClause struct {
	When Expr
	Then Expr
}

// Case is Expr's Case(optional operand, WhenClauses, else) variant,
// covering both the simple (`CASE x WHEN...`) and searched (`CASE WHEN
//...`) forms.
type Case struct {
	Operand Expr // nil for searched CASE
	Whens   []WhenClause
	Else    Expr // nil if no ELSE (implicit NULL)
	Typ     sql.DataType
}

func NewCase(operand Expr, whens []WhenClause, els Expr, t sql.DataType) *Case {
	return &Case{Operand: operand, Whens: whens, Else: els, Typ: t}
}

func (c *Case) Type() sql.DataType { return c.Typ }
func (c *Case) String() string     { return "CASE ... END" }

func (c *Case) Children() []Expr {
	var out []Expr
	if c.Operand != nil {
		out = append(out, c.Operand)
	}
	for _, w := range c.Whens {
		out = append(out, w.When, w.Then)
	}
	if c.Else != nil {
		out = append(out, c.Else)
	}
	return out
}

func (c *Case) WithChildren(children []Expr) (Expr, error) {
	n := *c
	i := 0
	if c.Operand != nil {
		n.Operand = children[i]
		i++
	}
	n.Whens = make([]WhenClause, len(c.Whens))
	for w := range c.Whens {
		n.Whens[w] = WhenClause{When: children[i], Then: children[i+1]}
		i += 2
	}
	if c.Else != nil {
		n.Else = children[i]
	}
	return &n, nil
}

func (c *Case) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	var operand sql.Value
	if c.Operand != nil {
		v, err := c.Operand.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		operand = v
	}
	for _, w := range c.Whens {
		if c.Operand != nil {
			wv, err := w.When.Eval(ctx, row)
			if err != nil {
				return sql.Null(), err
			}
			if !wv.IsNull() && operand.Equal(wv) {
				return w.Then.Eval(ctx, row)
			}
			continue
		}
		cond, err := w.When.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		if !cond.IsNull() && cond.Bool() {
			return w.Then.Eval(ctx, row)
		}
	}
	if c.Else != nil {
		return c.Else.Eval(ctx, row)
	}
	return sql.Null(), nil
}

func (c *Case) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, c, batch, c.Typ)
}
