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
)

// splitConjuncts flattens a tree of AND-BinaryOps into its leaf conjuncts
// (the predicate-pushdown rule: "Split the filter into AND-conjuncts").
func splitConjuncts(e expr.Expr) []expr.Expr {
	if b, ok := e.(*expr.BinaryOp); ok && b.Op == "AND" {
		return append(splitConjuncts(b.Left), splitConjuncts(b.Right)...)
	}
	return []expr.Expr{e}
}

// combineConjuncts rebuilds an AND-tree from conjuncts, or nil if empty.
func combineConjuncts(cs []expr.Expr) expr.Expr {
	if len(cs) == 0 {
		return nil
	}
	out := cs[0]
	for _, c := range cs[1:] {
		out = expr.NewBinaryOp("AND", out, c, out.Type())
	}
	return out
}

// columnIndices collects every *expr.Column.Index referenced anywhere in e.
func columnIndices(e expr.Expr) []int {
	var out []int
	var walk func(expr.Expr)
	walk = func(x expr.Expr) {
		if c, ok := x.(*expr.Column); ok {
			out = append(out, c.Index)
			return
		}
		for _, c := range x.Children() {
			walk(c)
		}
	}
	walk(e)
	return out
}

// containsSubquery reports whether e embeds a scalar/array/IN/EXISTS
// subquery anywhere — such predicates stay on top per the predicate-pushdown rule
// ("Predicates that reference both sides or contain subqueries remain on
// top").
func containsSubquery(e expr.Expr) bool {
	switch e.(type) {
	case *expr.ScalarSubquery, *expr.ArraySubquery, *expr.InSubquery, *expr.Exists:
		return true
	}
	for _, c := range e.Children() {
		if containsSubquery(c) {
			return true
		}
	}
	return false
}

// side classifies which relation(s) a conjunct over a two-child operator
// with a left-schema width of leftWidth references.
type side int

const (
	sideNeither side = iota
	sideLeft
	sideRight
	sideBoth
)

func classify(e expr.Expr, leftWidth int) side {
	if containsSubquery(e) {
		return sideBoth
	}
	idxs := columnIndices(e)
	if len(idxs) == 0 {
		return sideNeither
	}
	hasLeft, hasRight := false, false
	for _, i := range idxs {
		if i < leftWidth {
			hasLeft = true
		} else {
			hasRight = true
		}
	}
	switch {
	case hasLeft && hasRight:
		return sideBoth
	case hasLeft:
		return sideLeft
	default:
		return sideRight
	}
}

// shiftColumns rewrites every *expr.Column.Index in e by delta, used to
// re-home a right-side predicate against the right child's own schema
// (the cross-join-to-hash-join rule/2: "the right-side column is re-indexed relative to the
// right child").
func shiftColumns(e expr.Expr, delta int) (expr.Expr, error) {
	return transformExprUp(e, func(x expr.Expr) (expr.Expr, error) {
		if c, ok := x.(*expr.Column); ok {
			return c.WithIndex(c.Index + delta), nil
		}
		return x, nil
	})
}
