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

// AggCall is one resolved aggregate slot: the Aggregate expression plus
// its output field in the post-aggregate schema. Multiple projected
// expressions may reference the same slot by CanonicalName.
type AggCall struct {
	Agg   *expr.Aggregate
	Field sql.PlanField
}

// Aggregate is the logical grouping/aggregation node; GroupingSets is
// the normalized `[][]int` of indices into GroupBy the planner expands
// GROUP BY ALL/ROLLUP/CUBE/explicit GROUPING SETS into. A single
// implicit grouping set (the plain GROUP BY case) is `[][]int{{0,1,...}}`.
type Aggregate struct {
	Input        Node
	GroupBy      []expr.Expr
	GroupFields  []sql.PlanField
	Aggregates   []AggCall
	GroupingSets [][]int
}

func (a *Aggregate) Schema() sql.Schema {
	out := make(sql.Schema, 0, len(a.GroupFields)+len(a.Aggregates))
	out = append(out, a.GroupFields...)
	for _, ac := range a.Aggregates {
		out = append(out, ac.Field)
	}
	return out
}
func (a *Aggregate) Children() []Node { return []Node{a.Input} }
func (a *Aggregate) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Aggregate takes exactly one child")
	}
	n := *a
	n.Input = c[0]
	return &n, nil
}
func (a *Aggregate) String() string {
	return fmt.Sprintf("Aggregate(%d group keys, %d aggregates, %d grouping sets)",
		len(a.GroupBy), len(a.Aggregates), len(a.GroupingSets))
}

// HashAggregate is the physical specialization of Aggregate produced by
// the optimizer's logical-to-physical pass: same shape, with
// ExecutionHints attached.
type HashAggregate struct {
	Aggregate
	Hints ExecutionHints
}

func (h *HashAggregate) Children() []Node { return []Node{h.Input} }
func (h *HashAggregate) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("HashAggregate takes exactly one child")
	}
	n := *h
	n.Input = c[0]
	return &n, nil
}
func (h *HashAggregate) String() string { return "Hash" + h.Aggregate.String() }
