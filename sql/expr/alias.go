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

// Alias names its child expression in the enclosing operator's output
// schema without altering evaluation (Expr variant).
type Alias struct {
	Child Expr
	Name  string
}

func NewAlias(child Expr, name string) *Alias { return &Alias{Child: child, Name: name} }

func (a *Alias) Type() sql.DataType { return a.Child.Type() }
func (a *Alias) String() string     { return a.Child.String() + " AS " + a.Name }

func (a *Alias) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return a.Child.Eval(ctx, row)
}

func (a *Alias) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return a.Child.EvalBatch(ctx, batch)
}

func (a *Alias) Children() []Expr { return []Expr{a.Child} }

func (a *Alias) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Alias takes exactly one child")
	}
	n := *a
	n.Child = children[0]
	return &n, nil
}

// Default is the DEFAULT keyword placeholder used in INSERT/UPDATE value
// lists; it carries the column's declared type for type-checking but has
// no standalone evaluation outside DML planning.
type Default struct {
	Typ sql.DataType
}

func (d *Default) Type() sql.DataType { return d.Typ }
func (d *Default) String() string     { return "DEFAULT" }

func (d *Default) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return sql.DefaultVal(), nil
}

func (d *Default) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, d, batch, d.Typ)
}

func (d *Default) Children() []Expr { return nil }

func (d *Default) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Default takes no children")
	}
	return d, nil
}
