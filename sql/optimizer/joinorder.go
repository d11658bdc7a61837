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
	"math"

	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/stats"
)

// defaultRowEstimate is the fallback cardinality for a relation the
// Optimizer has no statistics for, matching sql/stats.DefaultSampleSize as
// a reasonable stand-in for "a table we'd otherwise sample".
const defaultRowEstimate = int64(stats.DefaultSampleSize)

// graphEdge is one equality predicate between relation aLeaf's column
// aLocal and relation bLeaf's column bLocal, indices being local to each
// leaf's own schema (the join-order rule join graph).
type graphEdge struct {
	aLeaf, aLocal int
	bLeaf, bLocal int
}

// ruleJoinOrder implements the join-order rule: when a subtree is entirely Inner
// equi-HashJoins, flatten it into a join graph (relations + selectivity-
// annotated equality edges) and rebuild it with a greedy enumeration that
// starts from the smallest relation and repeatedly adds the relation whose
// connecting edge minimizes estimated output cardinality.
//
// Simplification (documented, not a gap): a full join-order optimizer
// would explore arbitrary "bushy" join trees; this enumeration grows a
// single accumulating intermediate result (a left-deep tree) instead,
// since full bushy DP is substantially more machinery for the same
// selectivity model. Also, only the lowest-cost equi-edge between a
// newly added relation and the accumulated set becomes that step's
// HashJoin key; any additional edges to other already-included relations
// are dropped rather than folded in as extra keys.
func ruleJoinOrder(o *Optimizer, n plan.Node) (plan.Node, bool, error) {
	return transformUp(n, func(node plan.Node) (plan.Node, bool, error) {
		hj, ok := node.(*plan.HashJoin)
		if !ok || hj.Type != plan.JoinInner || hj.Residual != nil {
			return node, false, nil
		}
		leaves, edges, qualified := flattenJoinGraph(hj)
		if !qualified || len(leaves) < 3 {
			return node, false, nil
		}
		reordered := reorderBushy(o, leaves, edges)
		return reordered, true, nil
	})
}

// flattenJoinGraph decomposes a tree of Inner pure-equi HashJoins into its
// base relations and the equality edges between them; it stops descending
// (treating the node as an opaque leaf) at anything else — a non-Inner
// join, a join with leftover residual conjuncts, or a non-join node — which
// is how a subtree that doesn't qualify "disqualifies" only itself.
func flattenJoinGraph(n plan.Node) (leaves []plan.Node, edges []graphEdge, qualified bool) {
	hj, ok := n.(*plan.HashJoin)
	if !ok || hj.Type != plan.JoinInner || hj.Residual != nil {
		return []plan.Node{n}, nil, false
	}
	leftLeaves, leftEdges, _ := flattenJoinGraph(hj.Left)
	rightLeaves, rightEdges, _ := flattenJoinGraph(hj.Right)

	offset := len(leftLeaves)
	edges = append(edges, leftEdges...)
	for _, e := range rightEdges {
		edges = append(edges, graphEdge{aLeaf: e.aLeaf + offset, aLocal: e.aLocal, bLeaf: e.bLeaf + offset, bLocal: e.bLocal})
	}
	leaves = append(leaves, leftLeaves...)
	leaves = append(leaves, rightLeaves...)

	for _, k := range hj.Keys {
		lc, lok := k.Left.(*expr.Column)
		rc, rok := k.Right.(*expr.Column)
		if !lok || !rok {
			continue
		}
		aLeaf, aLocal := locateColumn(lc.Index, leftLeaves)
		bLeaf, bLocal := locateColumn(rc.Index, rightLeaves)
		edges = append(edges, graphEdge{aLeaf: aLeaf, aLocal: aLocal, bLeaf: bLeaf + offset, bLocal: bLocal})
	}
	return leaves, edges, true
}

// locateColumn maps an index within the concatenated schema of leaves to
// (leaf position, local index within that leaf's own schema).
func locateColumn(idx int, leaves []plan.Node) (int, int) {
	for i, l := range leaves {
		w := len(l.Schema())
		if idx < w {
			return i, idx
		}
		idx -= w
	}
	return len(leaves) - 1, idx
}

// underlyingScan unwraps a leaf down to its base Scan when the leaf is a
// bare Scan or a Filter directly over one; predicate pushdown (see
// sql/optimizer/predicate.go) puts a leaf's own local predicates right
// above its Scan before join ordering runs, so this is the shape that
// matters for cardinality estimation.
func underlyingScan(n plan.Node) (*plan.Scan, expr.Expr) {
	switch t := n.(type) {
	case *plan.Scan:
		return t, nil
	case *plan.Filter:
		if scan, ok := t.Input.(*plan.Scan); ok {
			return scan, t.Predicate
		}
	}
	return nil, nil
}

func estimateRows(o *Optimizer, n plan.Node) int64 {
	scan, pred := underlyingScan(n)
	if scan == nil || o == nil || o.Stats == nil {
		return defaultRowEstimate
	}
	ts, ok := o.Stats.TableStats(scan.Table)
	base := defaultRowEstimate
	if ok && ts.RowCount > 0 {
		base = ts.RowCount
	}
	if pred == nil {
		return base
	}
	sel := filterSelectivity(o, func(c *expr.Column) (int64, float64, bool) {
		if c.Index < 0 || c.Index >= len(scan.Sch) {
			return 0, 0, false
		}
		cs, ok := ts.Columns[scan.Sch[c.Index].Name]
		if !ok {
			return 0, 0, false
		}
		return cs.DistinctCount, cs.NullRatio, true
	}, pred)
	est := int64(float64(base) * sel)
	if est < 1 {
		est = 1
	}
	return est
}

func distinctCount(o *Optimizer, n plan.Node, localIdx int) int64 {
	scan, _ := underlyingScan(n)
	if scan == nil || o == nil || o.Stats == nil || localIdx < 0 || localIdx >= len(scan.Sch) {
		return 0
	}
	ts, ok := o.Stats.TableStats(scan.Table)
	if !ok {
		return 0
	}
	cs, ok := ts.Columns[scan.Sch[localIdx].Name]
	if !ok {
		return 0
	}
	return cs.DistinctCount
}

// reorderBushy greedily grows an intermediate result one relation at a
// time, each step adding the unjoined relation whose connecting edge
// minimizes the estimated output cardinality (the join-order rule).
func reorderBushy(o *Optimizer, leaves []plan.Node, edges []graphEdge) plan.Node {
	rows := make([]int64, len(leaves))
	for i, l := range leaves {
		rows[i] = estimateRows(o, l)
	}

	start := 0
	for i := range leaves {
		if rows[i] < rows[start] {
			start = i
		}
	}

	included := map[int]bool{start: true}
	order := []int{start}
	current := leaves[start]
	currentRows := float64(rows[start])

	for len(included) < len(leaves) {
		bestEdge := -1
		bestIn, bestOut, bestOutLocal, bestInLocal := -1, -1, -1, -1
		bestCost := math.MaxFloat64
		for i, e := range edges {
			var inLeaf, inLocal, outLeaf, outLocal int
			switch {
			case included[e.aLeaf] && !included[e.bLeaf]:
				inLeaf, inLocal, outLeaf, outLocal = e.aLeaf, e.aLocal, e.bLeaf, e.bLocal
			case included[e.bLeaf] && !included[e.aLeaf]:
				inLeaf, inLocal, outLeaf, outLocal = e.bLeaf, e.bLocal, e.aLeaf, e.aLocal
			default:
				continue
			}
			d1 := distinctCount(o, leaves[inLeaf], inLocal)
			d2 := distinctCount(o, leaves[outLeaf], outLocal)
			sel := stats.EqualitySelectivity(d1, d2)
			cost := currentRows * float64(rows[outLeaf]) * sel
			if cost < bestCost {
				bestCost, bestEdge = cost, i
				bestIn, bestOut, bestInLocal, bestOutLocal = inLeaf, outLeaf, inLocal, outLocal
			}
		}
		if bestEdge == -1 {
			// disconnected component: no equi-edge bridges the accumulated
			// set to any remaining relation. Cross-join the rest in their
			// original order rather than leaving them unjoined.
			for i := range leaves {
				if !included[i] {
					current = &plan.CrossJoin{Left: current, Right: leaves[i]}
					included[i] = true
					order = append(order, i)
				}
			}
			break
		}

		prefixWidth := 0
		for _, li := range order {
			if li == bestIn {
				break
			}
			prefixWidth += len(leaves[li].Schema())
		}
		leftCol := expr.NewColumn(prefixWidth+bestInLocal, leaves[bestIn].Schema()[bestInLocal].Type, "", leaves[bestIn].Schema()[bestInLocal].Name, true)
		rightCol := expr.NewColumn(bestOutLocal, leaves[bestOut].Schema()[bestOutLocal].Type, "", leaves[bestOut].Schema()[bestOutLocal].Name, true)
		current = &plan.HashJoin{
			Left: current, Right: leaves[bestOut], Type: plan.JoinInner,
			Keys: []plan.EquiKey{{Left: leftCol, Right: rightCol}},
		}
		currentRows = bestCost
		included[bestOut] = true
		order = append(order, bestOut)
	}
	return current
}
