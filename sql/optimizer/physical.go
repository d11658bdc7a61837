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
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// physicalize performs the one-time Logical→Physical translation:
// Aggregate→HashAggregate, Join→HashJoin/NestedLoopJoin/
// CrossJoin depending on the condition shape, Sort+Limit(k)→TopN(k). The
// planner already eagerly produces TopN for the common Sort-directly-under-
// Limit shape (select.go's planLimitOffset); this pass catches the
// remaining logical Join/Aggregate/Sort+Limit shapes produced by paths that
// don't go through that helper (set-op bodies, CTE/view bodies planned on
// their own).
func physicalize(n plan.Node, o *Optimizer) (plan.Node, error) {
	out, _, err := transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		return physicalizeOne(o, node)
	})
	return out, err
}

func physicalizeOne(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	switch node := n.(type) {
	case *plan.Aggregate:
		return &plan.HashAggregate{Aggregate: *node}, true, nil
	case *plan.Join:
		return physicalizeJoin(o, node)
	case *plan.Limit:
		if sort, ok := node.Input.(*plan.Sort); ok {
			return &plan.TopN{
				Input:  sort.Input,
				Keys:   sort.Keys,
				K:      node.Count,
				Offset: node.Offset,
				Hints:  sort.Hints,
			}, true, nil
		}
	}
	return n, false, nil
}

// parallelJoinRowThreshold mirrors sql/exec's minParallelRows: below this
// estimated probe-side cardinality, per-row goroutine dispatch costs more
// than the sequential loop it would replace.
const parallelJoinRowThreshold = 256

// physicalizeJoin extracts equi-join keys from a logical Join's Condition
// the same way ruleCrossToHashJoin does for a Filter-over-CrossJoin shape
// (the cross-join-to-hash-join rule), since an explicit `JOIN... ON a.x = b.y` carries its
// condition directly on the Join node rather than as an external Filter.
// A HashJoin whose probe side is estimated (via the same stats-backed
// estimateRows the join-order rule uses) to be large enough gets
// Hints.Parallel set, so sql/exec's hash-join probe loop splits the work
// across a worker pool instead of running it on a single goroutine.
func physicalizeJoin(o *Optimizer, j *plan.Join) (plan.Node, bool, error) {
	if j.Condition == nil {
		return &plan.CrossJoin{Left: j.Left, Right: j.Right}, true, nil
	}
	leftWidth := len(j.Left.Schema())
	keys, residual := extractEquiKeys(j.Condition, leftWidth)
	if len(keys) == 0 {
		return &plan.NestedLoopJoin{Left: j.Left, Right: j.Right, Type: j.Type, Condition: j.Condition}, true, nil
	}
	hints := plan.ExecutionHints{Parallel: estimateRows(o, j.Left) >= parallelJoinRowThreshold}
	return &plan.HashJoin{Left: j.Left, Right: j.Right, Type: j.Type, Keys: keys, Residual: residual, Hints: hints}, true, nil
}

// extractEquiKeys splits pred's AND-conjuncts into equi-join key pairs
// (one column on each side, per leftWidth) plus a residual predicate for
// everything else (the cross-join-to-hash-join rule).
func extractEquiKeys(pred expr.Expr, leftWidth int) ([]plan.EquiKey, expr.Expr) {
	var keys []plan.EquiKey
	var residual []expr.Expr
	for _, c := range splitConjuncts(pred) {
		b, ok := c.(*expr.BinaryOp)
		if !ok || b.Op != "=" {
			residual = append(residual, c)
			continue
		}
		lc, lok := b.Left.(*expr.Column)
		rc, rok := b.Right.(*expr.Column)
		if !lok || !rok {
			residual = append(residual, c)
			continue
		}
		switch {
		case lc.Index < leftWidth && rc.Index >= leftWidth:
			keys = append(keys, plan.EquiKey{Left: lc, Right: rc.WithIndex(rc.Index - leftWidth)})
		case rc.Index < leftWidth && lc.Index >= leftWidth:
			keys = append(keys, plan.EquiKey{Left: rc, Right: lc.WithIndex(lc.Index - leftWidth)})
		default:
			residual = append(residual, c)
		}
	}
	return keys, combineConjuncts(residual)
}
