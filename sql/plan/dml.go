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

package plan

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// Insert plans INSERT INTO table (cols) VALUES/SELECT (DML variants).
// Source is either a *Values node or an arbitrary query plan (INSERT...
// SELECT); DEFAULT placeholders in a Values row resolve against Table's
// column defaults at execution time.
type Insert struct {
	Table   string
	Columns []string
	Source  Node
}

func (i *Insert) Schema() sql.Schema { return nil }
func (i *Insert) Children() []Node   { return []Node{i.Source} }
func (i *Insert) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Insert takes exactly one child")
	}
	n := *i
	n.Source = children[0]
	return &n, nil
}
func (i *Insert) String() string { return "Insert(" + i.Table + ")" }

// SetClause is one `col = expr` assignment of an UPDATE statement.
type SetClause struct {
	Column string
	Value  expr.Expr
}

// Update plans UPDATE table SET... [WHERE...].
type Update struct {
	Table string
	Sets  []SetClause
	Where expr.Expr // nil => update every row
	Scan  Node      // the base Scan used to evaluate Where/Sets
}

func (u *Update) Schema() sql.Schema { return nil }
func (u *Update) Children() []Node   { return []Node{u.Scan} }
func (u *Update) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Update takes exactly one child")
	}
	n := *u
	n.Scan = children[0]
	return &n, nil
}
func (u *Update) String() string { return "Update(" + u.Table + ")" }

// Delete plans DELETE FROM table [WHERE...].
type Delete struct {
	Table string
	Where expr.Expr
	Scan  Node
}

func (d *Delete) Schema() sql.Schema { return nil }
func (d *Delete) Children() []Node   { return []Node{d.Scan} }
func (d *Delete) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Delete takes exactly one child")
	}
	n := *d
	n.Scan = children[0]
	return &n, nil
}
func (d *Delete) String() string { return "Delete(" + d.Table + ")" }

// MergeAction is one WHEN [NOT] MATCHED [AND cond] THEN... clause.
type MergeAction struct {
	Matched   bool
	ByTarget  bool // WHEN NOT MATCHED BY TARGET vs BY SOURCE
	Condition expr.Expr
	IsDelete  bool
	Sets      []SetClause
	InsertCols []string
	InsertVals []expr.Expr
}

// Merge plans MERGE INTO target USING source ON cond WHEN....
type Merge struct {
	Target     string
	Source     Node
	On         expr.Expr
	Actions    []MergeAction
}

func (m *Merge) Schema() sql.Schema { return nil }
func (m *Merge) Children() []Node   { return []Node{m.Source} }
func (m *Merge) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Merge takes exactly one child")
	}
	n := *m
	n.Source = children[0]
	return &n, nil
}
func (m *Merge) String() string { return "Merge(" + m.Target + ")" }
