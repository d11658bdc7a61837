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
	"fmt"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// Scan reads a base table from the Catalog; the planner resolves
// Table against the catalog's schema before building this node.
type Scan struct {
	Table     string
	Alias     string
	Sch       sql.Schema
	Pushdown  []expr.Expr // predicates pushed into the scan by the optimizer, advisory only
}

func NewScan(table, alias string, sch sql.Schema) *Scan { return &Scan{Table: table, Alias: alias, Sch: sch} }

func (s *Scan) Schema() sql.Schema      { return s.Sch }
func (s *Scan) Children() []Node        { return nil }
func (s *Scan) WithChildren(c []Node) (Node, error) {
	if len(c) != 0 {
		return nil, sql.ErrInvalidQuery("Scan takes no children")
	}
	return s, nil
}
func (s *Scan) String() string { return fmt.Sprintf("Scan(%s)", s.Table) }

// Empty yields exactly one row with no columns, the base case for a
// FROM-less SELECT.
type Empty struct{}

func (e *Empty) Schema() sql.Schema { return nil }
func (e *Empty) Children() []Node   { return nil }
func (e *Empty) WithChildren(c []Node) (Node, error) {
	if len(c) != 0 {
		return nil, sql.ErrInvalidQuery("Empty takes no children")
	}
	return e, nil
}
func (e *Empty) String() string { return "Empty" }

// Values is a literal row-list relation (VALUES (...), (...) and the
// planner's inlining of constant table factors).
type Values struct {
	Rows []sql.Record
	Sch  sql.Schema
}

func (v *Values) Schema() sql.Schema { return v.Sch }
func (v *Values) Children() []Node   { return nil }
func (v *Values) WithChildren(c []Node) (Node, error) {
	if len(c) != 0 {
		return nil, sql.ErrInvalidQuery("Values takes no children")
	}
	return v, nil
}
func (v *Values) String() string { return fmt.Sprintf("Values(%d rows)", len(v.Rows)) }

// ProjectColumn is one output column of a Project: the expression to
// evaluate plus the resulting field metadata.
type ProjectColumn struct {
	Expr  expr.Expr
	Field sql.PlanField
}

// Project evaluates a fixed expression list over its input.
type Project struct {
	Input   Node
	Columns []ProjectColumn
}

func NewProject(input Node, columns []ProjectColumn) *Project { return &Project{Input: input, Columns: columns} }

func (p *Project) Schema() sql.Schema {
	out := make(sql.Schema, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Field
	}
	return out
}
func (p *Project) Children() []Node { return []Node{p.Input} }
func (p *Project) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Project takes exactly one child")
	}
	n := *p
	n.Input = c[0]
	return &n, nil
}
func (p *Project) String() string { return "Project" }

// Filter applies a boolean predicate row-wise.
type Filter struct {
	Input     Node
	Predicate expr.Expr
}

func NewFilter(input Node, pred expr.Expr) *Filter { return &Filter{Input: input, Predicate: pred} }

func (f *Filter) Schema() sql.Schema { return f.Input.Schema() }
func (f *Filter) Children() []Node   { return []Node{f.Input} }
func (f *Filter) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Filter takes exactly one child")
	}
	n := *f
	n.Input = c[0]
	return &n, nil
}
func (f *Filter) String() string { return fmt.Sprintf("Filter(%s)", f.Predicate.String()) }

// Distinct removes duplicate rows by the input's full row tuple.
type Distinct struct {
	Input Node
}

func (d *Distinct) Schema() sql.Schema { return d.Input.Schema() }
func (d *Distinct) Children() []Node   { return []Node{d.Input} }
func (d *Distinct) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Distinct takes exactly one child")
	}
	n := *d
	n.Input = c[0]
	return &n, nil
}
func (d *Distinct) String() string { return "Distinct" }

// Limit bounds the row count, optionally skipping Offset rows first.
type Limit struct {
	Input  Node
	Count  int64
	Offset int64
}

func (l *Limit) Schema() sql.Schema { return l.Input.Schema() }
func (l *Limit) Children() []Node   { return []Node{l.Input} }
func (l *Limit) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Limit takes exactly one child")
	}
	n := *l
	n.Input = c[0]
	return &n, nil
}
func (l *Limit) String() string { return fmt.Sprintf("Limit(%d, %d)", l.Count, l.Offset) }

// Sort orders rows by a lexicographic key sequence.
type Sort struct {
	Input Node
	Keys  []OrderKey
	Hints ExecutionHints
}

func (s *Sort) Schema() sql.Schema { return s.Input.Schema() }
func (s *Sort) Children() []Node   { return []Node{s.Input} }
func (s *Sort) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Sort takes exactly one child")
	}
	n := *s
	n.Input = c[0]
	return &n, nil
}
func (s *Sort) String() string { return "Sort" }

// TopN is the physical specialization of Sort+Limit(k): a bounded
// max-heap of size K+Offset rather than a full materialize-then-sort.
type TopN struct {
	Input  Node
	Keys   []OrderKey
	K      int64
	Offset int64
	Hints  ExecutionHints
}

func (t *TopN) Schema() sql.Schema { return t.Input.Schema() }
func (t *TopN) Children() []Node   { return []Node{t.Input} }
func (t *TopN) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("TopN takes exactly one child")
	}
	n := *t
	n.Input = c[0]
	return &n, nil
}
func (t *TopN) String() string { return fmt.Sprintf("TopN(%d)", t.K) }
