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

// Column is Expr's Column(table?, name, index?) variant. After
// planning, Index resolves within the enclosing operator's input schema
// (Expr invariant, quantified invariant).
type Column struct {
	Table    string
	Name     string
	Index    int
	Typ      sql.DataType
	Nullable bool
}

func NewColumn(index int, t sql.DataType, table, name string, nullable bool) *Column {
	return &Column{Table: table, Name: name, Index: index, Typ: t, Nullable: nullable}
}

func (c *Column) Type() sql.DataType { return c.Typ }
func (c *Column) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

func (c *Column) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	if c.Index < 0 || c.Index >= len(row) {
		return sql.Null(), sql.ErrOutOfBounds("column index %d out of range (row width %d)", c.Index, len(row))
	}
	return row[c.Index], nil
}

func (c *Column) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	if c.Index < 0 || c.Index >= len(batch.Columns) {
		return nil, sql.ErrOutOfBounds("column index %d out of range (batch width %d)", c.Index, len(batch.Columns))
	}
	return batch.Columns[c.Index], nil
}

func (c *Column) Children() []Expr { return nil }

func (c *Column) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Column takes no children")
	}
	return c, nil
}

// WithIndex returns a copy of c re-indexed; used by predicate pushdown to
// shift right-side column indices by -|L| (the cross-join-to-hash-join rule/2).
func (c *Column) WithIndex(i int) *Column {
	n := *c
	n.Index = i
	return &n
}
