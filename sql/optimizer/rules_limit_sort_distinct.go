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

package optimizer

import (
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// ruleLimitPushdown implements the limit-pushdown rule: Limit(k,o) over Project becomes
// Project(Limit(k,o)); Limit(k,o) over a UNION ALL pushes Limit(k+o) into
// each branch while the outer limit stays. Limits never push through Sort,
// HashAggregate, Distinct, Window, joins, or UNION DISTINCT.
func ruleLimitPushdown(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	return transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		lim, ok := node.(*plan.Limit)
		if !ok {
			return node, false, nil
		}
		switch in := lim.Input.(type) {
		case *plan.Project:
			pushed := *lim
			pushed.Input = in.Input
			newProj := *in
			newProj.Input = &pushed
			return &newProj, true, nil
		case *plan.SetOp:
			if in.Kind == plan.SetUnion && in.All {
				k := lim.Count + lim.Offset
				left := &plan.Limit{Input: in.Left, Count: k}
				right := &plan.Limit{Input: in.Right, Count: k}
				newSet := *in
				newSet.Left, newSet.Right = left, right
				newLim := *lim
				newLim.Input = &newSet
				return &newLim, true, nil
			}
		}
		return node, false, nil
	})
}

// sortKeysEqual reports whether two OrderKey slices match exactly on
// expression string, direction, and null ordering (the sort-elimination rule).
func sortKeysEqual(a, b []plan.OrderKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Desc != b[i].Desc || a[i].NullsFirst != b[i].NullsFirst {
			return false
		}
		if a[i].Expr.String() != b[i].Expr.String() {
			return false
		}
	}
	return true
}

// ruleSortElimination implements the sort-elimination rule: a Sort directly over another
// Sort with identical keys collapses to the outer one; a Sort directly over
// a TopN with identical keys collapses to the TopN (already ordered).
func ruleSortElimination(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	return transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		s, ok := node.(*plan.Sort)
		if !ok {
			return node, false, nil
		}
		switch in := s.Input.(type) {
		case *plan.Sort:
			if sortKeysEqual(s.Keys, in.Keys) {
				ns := *s
				ns.Input = in.Input
				return &ns, true, nil
			}
		case *plan.TopN:
			if sortKeysEqual(s.Keys, in.Keys) {
				return in, true, nil
			}
		}
		return node, false, nil
	})
}

// producesUniqueRows implements the distinct-elimination rule's uniqueness inference.
func producesUniqueRows(n plan.Node) bool {
	switch v := n.(type) {
	case *plan.Limit:
		return v.Count <= 1
	case *plan.Empty:
		return true
	case *plan.Values:
		return len(v.Rows) <= 1
	case *plan.TopN:
		return v.K <= 1
	case *plan.Distinct:
		return true
	case *plan.Project:
		return producesUniqueRows(v.Input)
	case *plan.Filter:
		return producesUniqueRows(v.Input)
	default:
		return false
	}
}

// ruleDistinctElimination implements the distinct-elimination rule.
func ruleDistinctElimination(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	return transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		d, ok := node.(*plan.Distinct)
		if !ok {
			return node, false, nil
		}
		if producesUniqueRows(d.Input) {
			return d.Input, true, nil
		}
		return node, false, nil
	})
}
