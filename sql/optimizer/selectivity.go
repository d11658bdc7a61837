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
	"github.com/coldbrook-data/bqengine/sql/stats"
)

// filterSelectivity estimates the fraction of rows a predicate keeps,
// used by reorderBushy to size a leaf that is a Filter over a Scan
// rather than a bare Scan. An AND splits into its conjuncts, each
// estimated independently and multiplied together (the standard
// independence assumption a statistics-free optimizer falls back on);
// every other predicate shape routes to the matching sql/stats formula.
func filterSelectivity(o *Optimizer, scanLocal func(*expr.Column) (distinct int64, nullRatio float64, hasStats bool), e expr.Expr) float64 {
	if b, ok := e.(*expr.BinaryOp); ok && b.Op == "AND" {
		return filterSelectivity(o, scanLocal, b.Left) * filterSelectivity(o, scanLocal, b.Right)
	}

	switch t := e.(type) {
	case *expr.BinaryOp:
		switch t.Op {
		case "=":
			lc, lok := t.Left.(*expr.Column)
			rc, rok := t.Right.(*expr.Column)
			switch {
			case lok && rok:
				d1, _, _ := scanLocal(lc)
				d2, _, _ := scanLocal(rc)
				return stats.EqualitySelectivity(d1, d2)
			case lok:
				d, _, _ := scanLocal(lc)
				return stats.EqualitySelectivity(d, 0)
			case rok:
				d, _, _ := scanLocal(rc)
				return stats.EqualitySelectivity(d, 0)
			default:
				return stats.DefaultSelectivity
			}
		case "<", ">", "<=", ">=":
			return stats.RangeSelectivity
		default:
			return stats.DefaultSelectivity
		}
	case *expr.Like:
		pattern := ""
		if lit, ok := t.Pattern.(*expr.Literal); ok {
			pattern = lit.Val.Str()
		}
		return stats.LikeSelectivity(pattern, t.Negated)
	case *expr.InList:
		return stats.InSelectivity(len(t.List), t.Negated)
	case *expr.IsNull:
		if c, ok := t.Operand.(*expr.Column); ok {
			_, ratio, hasStats := scanLocal(c)
			return stats.NullSelectivity(ratio, hasStats, t.Negated)
		}
		return stats.NullSelectivity(0, false, t.Negated)
	default:
		return stats.DefaultSelectivity
	}
}
