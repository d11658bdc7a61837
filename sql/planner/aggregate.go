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

package planner

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// collectAggregates walks e depth-first and returns every *expr.Aggregate
// found; it does not recurse into an Aggregate's own Args, since nested
// aggregates (SUM(COUNT(x))) are not legal BigQuery SQL and would anyway
// already have raised ErrInvalidQuery while planning the inner call's
// allowAgg flag.
func collectAggregates(e expr.Expr) []*expr.Aggregate {
	var out []*expr.Aggregate
	var walk func(expr.Expr)
	walk = func(e expr.Expr) {
		if e == nil {
			return
		}
		if agg, ok := e.(*expr.Aggregate); ok {
			out = append(out, agg)
			return
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(e)
	return out
}

// collectWindows is the Window-node analogue of collectAggregates.
func collectWindows(e expr.Expr) []*expr.WindowFunction {
	var out []*expr.WindowFunction
	var walk func(expr.Expr)
	walk = func(e expr.Expr) {
		if e == nil {
			return
		}
		if w, ok := e.(*expr.WindowFunction); ok {
			out = append(out, w)
			return
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(e)
	return out
}

// rewriteSlots replaces every node satisfied by match with slot[key(node)]
// throughout e, recursing through Children/WithChildren; used to rewrite
// both *expr.Aggregate and *expr.WindowFunction leaves into plain Column
// references once their physical slot is known.
func rewriteSlots(e expr.Expr, key func(expr.Expr) (string, bool), slot map[string]expr.Expr) (expr.Expr, error) {
	if e == nil {
		return nil, nil
	}
	if k, ok := key(e); ok {
		if repl, ok := slot[k]; ok {
			return repl, nil
		}
	}
	children := e.Children()
	if len(children) == 0 {
		return e, nil
	}
	newChildren := make([]expr.Expr, len(children))
	changed := false
	for i, c := range children {
		nc, err := rewriteSlots(c, key, slot)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return e, nil
	}
	return e.WithChildren(newChildren)
}

func aggKey(e expr.Expr) (string, bool) {
	if a, ok := e.(*expr.Aggregate); ok {
		return a.CanonicalName(), true
	}
	return "", false
}

func winKey(e expr.Expr) (string, bool) {
	if w, ok := e.(*expr.WindowFunction); ok {
		return w.String(), true
	}
	return "", false
}

// groupKeySpec is one normalized GROUP BY key prior to grouping-set
// expansion.
type groupKeySpec struct {
	expr  expr.Expr
	field sql.PlanField
}

// planGroupingSets expands GROUP BY ALL/ROLLUP/CUBE/explicit GROUPING SETS
// into the `[][]int` normalized form every grouping-set consumer shares.
// keys is the
// resolved, de-duplicated GROUP BY key list (already built by the caller);
// gb is the original AST clause, consulted only for its Rollup/Cube/
// GroupingSets shape (index positions refer to keys in declaration order).
func planGroupingSets(gb *ast.GroupByClause, n int) [][]int {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	switch {
	case gb == nil:
		return nil
	case gb.Rollup:
		return rollupSets(n)
	case gb.Cube:
		return cubeSets(n)
	case len(gb.GroupingSets) > 0:
		sets := make([][]int, len(gb.GroupingSets))
		for i, s := range gb.GroupingSets {
			sets[i] = append([]int{}, s...)
		}
		return sets
	default:
		return [][]int{all}
	}
}

// rollupSets builds the n+1 prefix sets ROLLUP(n) expands to: {0..n-1},
// {0..n-2},..., {}.
func rollupSets(n int) [][]int {
	sets := make([][]int, 0, n+1)
	for k := n; k >= 0; k-- {
		s := make([]int, k)
		for i := 0; i < k; i++ {
			s[i] = i
		}
		sets = append(sets, s)
	}
	return sets
}

// cubeSets builds the 2^n subsets CUBE(n) expands to.
func cubeSets(n int) [][]int {
	total := 1 << uint(n)
	sets := make([][]int, 0, total)
	for mask := 0; mask < total; mask++ {
		var s []int
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				s = append(s, i)
			}
		}
		sets = append(sets, s)
	}
	return sets
}

// buildAggregateNode assembles the logical plan.Aggregate node from the
// resolved GROUP BY keys and the aggregate calls extracted from the
// select-list/HAVING/ORDER BY expression trees, deduping by CanonicalName
// so `SELECT SUM(x), SUM(x) + 1` shares one accumulator slot ("").
func buildAggregateNode(input plan.Node, keys []groupKeySpec, gsets [][]int, aggs []*expr.Aggregate) (*plan.Aggregate, map[string]expr.Expr) {
	groupBy := make([]expr.Expr, len(keys))
	groupFields := make([]sql.PlanField, len(keys))
	for i, k := range keys {
		groupBy[i] = k.expr
		groupFields[i] = k.field
	}

	slot := map[string]expr.Expr{}
	var calls []plan.AggCall
	for _, a := range aggs {
		name := a.CanonicalName()
		if _, ok := slot[name]; ok {
			continue
		}
		idx := len(keys) + len(calls)
		field := sql.PlanField{Name: name, Type: a.Type(), Nullable: true}
		calls = append(calls, plan.AggCall{Agg: a, Field: field})
		slot[name] = expr.NewColumn(idx, a.Type(), "", name, true)
	}

	if gsets == nil {
		if len(keys) > 0 {
			all := make([]int, len(keys))
			for i := range all {
				all[i] = i
			}
			gsets = [][]int{all}
		} else {
			gsets = [][]int{{}}
		}
	}

	node := &plan.Aggregate{
		Input:        input,
		GroupBy:      groupBy,
		GroupFields:  groupFields,
		Aggregates:   calls,
		GroupingSets: gsets,
	}
	// group keys are addressable post-aggregation by their own column
	// index too, so a bare `GROUP BY x` key can be referenced from the
	// projection without re-extracting it as an aggregate.
	for i, k := range keys {
		slot[k.expr.String()] = expr.NewColumn(i, k.field.Type, k.field.Table, k.field.Name, k.field.Nullable)
	}
	return node, slot
}
