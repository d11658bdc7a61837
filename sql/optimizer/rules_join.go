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

// ruleCrossToHashJoin implements the cross-join-to-hash-join rule: a Filter over a CrossJoin is
// inspected for equi-join conjuncts, which become a HashJoin's Keys; any
// leftover conjuncts stay on HashJoin.Residual (the field already exists on
// the struct for exactly this) rather than an extra wrapping Filter node.
// If no equi-key is found the CrossJoin is preserved untouched.
func ruleCrossToHashJoin(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	return transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		f, ok := node.(*plan.Filter)
		if !ok {
			return node, false, nil
		}
		cj, ok := f.Input.(*plan.CrossJoin)
		if !ok {
			return node, false, nil
		}
		leftWidth := len(cj.Left.Schema())
		keys, residual := extractEquiKeys(f.Predicate, leftWidth)
		if len(keys) == 0 {
			return node, false, nil
		}
		hj := &plan.HashJoin{Left: cj.Left, Right: cj.Right, Type: plan.JoinInner, Keys: keys, Residual: residual, Hints: cj.Hints}
		return hj, true, nil
	})
}

// joinView reports which child is which plus the join's type and
// pushdown-relevant condition slot for every two-child join variant, so
// rulePredicatePushdown can treat them uniformly.
type joinView struct {
	left, right plan.Node
	joinType    plan.JoinType
	rebuild     func(left, right plan.Node, cond expr.Expr) plan.Node
	condition   expr.Expr // the join's own residual/condition, pushed on separately from an outer Filter
}

func viewJoin(n plan.Node) (joinView, bool) {
	switch j := n.(type) {
	case *plan.HashJoin:
		return joinView{
			left: j.Left, right: j.Right, joinType: j.Type, condition: j.Residual,
			rebuild: func(l, r plan.Node, cond expr.Expr) plan.Node {
				nj := *j
				nj.Left, nj.Right, nj.Residual = l, r, cond
				return &nj
			},
		}, true
	case *plan.NestedLoopJoin:
		return joinView{
			left: j.Left, right: j.Right, joinType: j.Type, condition: j.Condition,
			rebuild: func(l, r plan.Node, cond expr.Expr) plan.Node {
				nj := *j
				nj.Left, nj.Right, nj.Condition = l, r, cond
				return &nj
			},
		}, true
	case *plan.CrossJoin:
		return joinView{
			left: j.Left, right: j.Right, joinType: plan.JoinCross,
			rebuild: func(l, r plan.Node, cond expr.Expr) plan.Node {
				nj := *j
				nj.Left, nj.Right = l, r
				return &nj
			},
		}, true
	}
	return joinView{}, false
}

// pushPermission reports whether predicates may be pushed to the left
// and/or right child of a join of type t (the predicate-pushdown rule).
// Semi/Anti aren't standard join types with asymmetric output, but
// both-side pushdown is sound for them the same way it is for Inner,
// since the excluded output columns never carry the pushed predicate's
// truth value.
func pushPermission(t plan.JoinType) (left, right bool) {
	switch t {
	case plan.JoinLeft:
		return true, false
	case plan.JoinRight:
		return false, true
	case plan.JoinFull:
		return false, false
	default: // Inner, Cross, Semi, Anti
		return true, true
	}
}

// rulePredicatePushdown implements the predicate-pushdown rule.
func rulePredicatePushdown(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	return transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		f, ok := node.(*plan.Filter)
		if !ok {
			return node, false, nil
		}
		jv, ok := viewJoin(f.Input)
		if !ok {
			return node, false, nil
		}
		leftWidth := len(jv.left.Schema())
		pushLeftOK, pushRightOK := pushPermission(jv.joinType)

		var onLeft, onRight, onTop []expr.Expr
		for _, c := range splitConjuncts(f.Predicate) {
			switch classify(c, leftWidth) {
			case sideLeft, sideNeither:
				if pushLeftOK {
					onLeft = append(onLeft, c)
				} else {
					onTop = append(onTop, c)
				}
			case sideRight:
				if pushRightOK {
					shifted, err := shiftColumns(c, -leftWidth)
					if err != nil {
						return nil, false, err
					}
					onRight = append(onRight, shifted)
				} else {
					onTop = append(onTop, c)
				}
			default:
				onTop = append(onTop, c)
			}
		}
		if len(onLeft) == 0 && len(onRight) == 0 {
			return node, false, nil
		}

		newLeft, newRight := jv.left, jv.right
		if len(onLeft) > 0 {
			newLeft = plan.NewFilter(newLeft, combineConjuncts(onLeft))
		}
		if len(onRight) > 0 {
			newRight = plan.NewFilter(newRight, combineConjuncts(onRight))
		}
		newJoin := jv.rebuild(newLeft, newRight, jv.condition)

		top := combineConjuncts(onTop)
		if top == nil {
			return newJoin, true, nil
		}
		return plan.NewFilter(newJoin, top), true, nil
	})
}
