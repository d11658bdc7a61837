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

// Literal is a constant value of a declared type.
type Literal struct {
	Val sql.Value
	Typ sql.DataType
}

func NewLiteral(v sql.Value, t sql.DataType) *Literal { return &Literal{Val: v, Typ: t} }

func (l *Literal) Type() sql.DataType { return l.Typ }
func (l *Literal) String() string     { return l.Val.String() }

func (l *Literal) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return l.Val, nil
}

func (l *Literal) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	n := batch.NumRows()
	col := sql.NewColumn(l.Typ, n)
	for i := 0; i < n; i++ {
		col.Set(i, l.Val)
	}
	return col, nil
}

func (l *Literal) Children() []Expr { return nil }

func (l *Literal) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Literal takes no children")
	}
	return l, nil
}
