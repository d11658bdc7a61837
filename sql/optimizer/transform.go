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

// transformUp rewrites n's children first, then applies f to the
// (already-rewritten) node itself — the same post-order shape
// go-mysql-server's own plan.TransformUp walks a query tree with, adapted
// to a plain (Node, bool, error) return instead of a TreeIdentity
// sentinel.
func transformUp(n plan.Node, f func(plan.Node) (plan.Node, bool, error)) (plan.Node, bool, error) {
	children := n.Children()
	changed := false
	if len(children) > 0 {
		newChildren := make([]plan.Node, len(children))
		for i, c := range children {
			nc, ch, err := transformUp(c, f)
			if err != nil {
				return nil, false, err
			}
			newChildren[i] = nc
			changed = changed || ch
		}
		if changed {
			var err error
			n, err = n.WithChildren(newChildren)
			if err != nil {
				return nil, false, err
			}
		}
	}
	out, ch, err := f(n)
	if err != nil {
		return nil, false, err
	}
	return out, changed || ch, nil
}

// transformExprUp rewrites e's children first, then applies f — the
// expr-tree analogue of transformUp, used to shift column indices and
// split/rebuild conjuncts.
func transformExprUp(e expr.Expr, f func(expr.Expr) (expr.Expr, error)) (expr.Expr, error) {
	children := e.Children()
	if len(children) > 0 {
		newChildren := make([]expr.Expr, len(children))
		for i, c := range children {
			nc, err := transformExprUp(c, f)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
		}
		var err error
		e, err = e.WithChildren(newChildren)
		if err != nil {
			return nil, err
		}
	}
	return f(e)
}
