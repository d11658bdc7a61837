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

// WindowCall is one resolved OVER(...) slot in a Window node, analogous to
// AggCall for HashAggregate.
type WindowCall struct {
	Win   *expr.WindowFunction
	Field sql.PlanField
}

// Window evaluates one or more window functions over its input, appending
// their results as trailing columns; the projection above references
// them positionally.
type Window struct {
	Input Node
	Calls []WindowCall
	Hints ExecutionHints
}

func (w *Window) Schema() sql.Schema {
	out := append(sql.Schema{}, w.Input.Schema()...)
	for _, c := range w.Calls {
		out = append(out, c.Field)
	}
	return out
}
func (w *Window) Children() []Node { return []Node{w.Input} }
func (w *Window) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Window takes exactly one child")
	}
	n := *w
	n.Input = c[0]
	return &n, nil
}
func (w *Window) String() string { return "Window" }

// Qualify is the post-window filter introduced by a QUALIFY clause;
// it behaves exactly like Filter but is distinguished structurally so the
// optimizer knows it must stay below nothing that assumes window-free
// input.
type Qualify struct {
	Input     Node
	Predicate expr.Expr
}

func (q *Qualify) Schema() sql.Schema { return q.Input.Schema() }
func (q *Qualify) Children() []Node   { return []Node{q.Input} }
func (q *Qualify) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Qualify takes exactly one child")
	}
	n := *q
	n.Input = c[0]
	return &n, nil
}
func (q *Qualify) String() string { return "Qualify" }
