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

package exec

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// openWindow implements /Window: rows are partitioned, each
// partition sorted by its call's ORDER BY, then every call is evaluated
// over the sorted partition and the results scattered back to the row
// they came from. BigQuery allows each OVER(...) its own PARTITION
// BY/ORDER BY, so partitioning/sorting happens per call, not once for the
// whole node.
func openWindow(ctx *sql.Context, n *plan.Window, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	rows, err := newRowCursor(in).drainAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]sql.Value, len(n.Calls))
	for ci, call := range n.Calls {
		vals := make([]sql.Value, len(rows))
		partitions, order := partitionIndices(ctx, rows, call.Win.PartitionBy)
		for _, pkey := range order {
			idxs := partitions[pkey]
			sortPartition(ctx, rows, idxs, call.Win.OrderBy)
			out, err := evalWindowCall(ctx, call.Win, rows, idxs)
			if err != nil {
				return nil, err
			}
			for pos, rowIdx := range idxs {
				vals[rowIdx] = out[pos]
			}
		}
		results[ci] = vals
	}

	out := make([]sql.Record, len(rows))
	for i, r := range rows {
		rec := make(sql.Record, 0, len(r)+len(n.Calls))
		rec = append(rec, r...)
		for ci := range n.Calls {
			rec = append(rec, results[ci][i])
		}
		out[i] = rec
	}
	return newRecordsIterHinted(n.Schema(), out, n.Hints), nil
}

// partitionIndices groups row indices by PartitionBy key, preserving the
// order partitions were first seen (map iteration order is not stable).
func partitionIndices(ctx *sql.Context, rows []sql.Record, partitionBy []expr.Expr) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, r := range rows {
		key := ""
		if len(partitionBy) > 0 {
			vs := make([]sql.Value, len(partitionBy))
			for j, e := range partitionBy {
				v, err := e.Eval(ctx, r)
				if err != nil {
					v = sql.Null()
				}
				vs[j] = v
			}
			key = encodeValues(vs)
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	return groups, order
}

func sortPartition(ctx *sql.Context, rows []sql.Record, idxs []int, keys []plan.OrderKey) {
	if len(keys) == 0 {
		return
	}
	insertionSortStable(idxs, func(a, b int) bool {
		c, err := compareKeys(ctx, keys, rows[a], rows[b])
		if err != nil {
			return false
		}
		return c < 0
	})
}

// insertionSortStable avoids taking a dependency on sort.Slice's closure
// index semantics when idxs itself (not a parallel index) is reordered.
func insertionSortStable(idxs []int, less func(a, b int) bool) {
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0 && less(idxs[j], idxs[j-1]); j-- {
			idxs[j], idxs[j-1] = idxs[j-1], idxs[j]
		}
	}
}

// evalWindowCall computes one WindowCall's results over a single already
// partitioned-and-sorted group, returned aligned with idxs.
func evalWindowCall(ctx *sql.Context, w *expr.WindowFunction, rows []sql.Record, idxs []int) ([]sql.Value, error) {
	n := len(idxs)
	out := make([]sql.Value, n)

	if expr.RankFuncs[w.FuncName] {
		rank, dense := computeRanks(ctx, rows, idxs, w.OrderBy)
		switch w.FuncName {
		case "ROW_NUMBER":
			for i := range out {
				out[i] = sql.Int64Val(int64(i + 1))
			}
		case "RANK":
			for i := range out {
				out[i] = sql.Int64Val(int64(rank[i]))
			}
		case "DENSE_RANK":
			for i := range out {
				out[i] = sql.Int64Val(int64(dense[i]))
			}
		case "PERCENT_RANK":
			for i := range out {
				if n <= 1 {
					out[i] = sql.Float64Val(0)
				} else {
					out[i] = sql.Float64Val(float64(rank[i]-1) / float64(n-1))
				}
			}
		case "CUME_DIST":
			rankEnd := make([]int, n)
			rankEnd[n-1] = n - 1
			for i := n - 2; i >= 0; i-- {
				if rank[i] == rank[i+1] {
					rankEnd[i] = rankEnd[i+1]
				} else {
					rankEnd[i] = i
				}
			}
			for i := range out {
				out[i] = sql.Float64Val(float64(rankEnd[i]+1) / float64(n))
			}
		case "NTILE":
			k := int64(1)
			if len(w.Args) > 0 {
				v, err := w.Args[0].Eval(ctx, rows[idxs[0]])
				if err != nil {
					return nil, err
				}
				if !v.IsNull() && v.Int() > 0 {
					k = v.Int()
				}
			}
			quotient, remainder := int64(n)/k, int64(n)%k
			pos := 0
			for b := int64(1); b <= k && pos < n; b++ {
				size := quotient
				if b <= remainder {
					size++
				}
				for j := int64(0); j < size && pos < n; j++ {
					out[pos] = sql.Int64Val(b)
					pos++
				}
			}
		case "LAG", "LEAD":
			offset := int64(1)
			if len(w.Args) > 1 {
				v, err := w.Args[1].Eval(ctx, rows[idxs[0]])
				if err != nil {
					return nil, err
				}
				if !v.IsNull() {
					offset = v.Int()
				}
			}
			var def sql.Value = sql.Null()
			if len(w.Args) > 2 {
				v, err := w.Args[2].Eval(ctx, rows[idxs[0]])
				if err != nil {
					return nil, err
				}
				def = v
			}
			dir := int64(-1)
			if w.FuncName == "LEAD" {
				dir = 1
			}
			for i := range out {
				src := i + int(dir*offset)
				if src < 0 || src >= n || len(w.Args) == 0 {
					out[i] = def
					continue
				}
				v, err := w.Args[0].Eval(ctx, rows[idxs[src]])
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		case "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE":
			for i := range out {
				start, end, err := resolveFrame(ctx, w, rows, idxs, i)
				if err != nil {
					return nil, err
				}
				target := start
				switch w.FuncName {
				case "LAST_VALUE":
					target = end
				case "NTH_VALUE":
					nth := int64(1)
					if len(w.Args) > 1 {
						v, err := w.Args[1].Eval(ctx, rows[idxs[i]])
						if err != nil {
							return nil, err
						}
						if !v.IsNull() {
							nth = v.Int()
						}
					}
					target = start + int(nth) - 1
				}
				if target < start || target > end || len(w.Args) == 0 {
					out[i] = sql.Null()
					continue
				}
				v, err := w.Args[0].Eval(ctx, rows[idxs[target]])
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
		}
		return out, nil
	}

	// Aggregate-as-window-function: recompute the accumulator over each
	// row's frame (simple and correct, not incremental).
	if w.AggEntry == nil {
		return out, sql.ErrInternal("window function %s has no aggregate entry and is not a ranking function", w.FuncName)
	}
	for i := range out {
		start, end, err := resolveFrame(ctx, w, rows, idxs, i)
		if err != nil {
			return nil, err
		}
		acc := w.AggEntry.New()
		for p := start; p <= end && p < len(idxs); p++ {
			if p < 0 {
				continue
			}
			args := make([]sql.Value, len(w.Args))
			for j, a := range w.Args {
				v, err := a.Eval(ctx, rows[idxs[p]])
				if err != nil {
					return nil, err
				}
				args[j] = v
			}
			acc.Update(args)
		}
		out[i] = acc.Result()
	}
	return out, nil
}

func computeRanks(ctx *sql.Context, rows []sql.Record, idxs []int, keys []plan.OrderKey) ([]int, []int) {
	n := len(idxs)
	rank := make([]int, n)
	dense := make([]int, n)
	if n == 0 {
		return rank, dense
	}
	rank[0], dense[0] = 1, 1
	for i := 1; i < n; i++ {
		c, _ := compareKeys(ctx, keys, rows[idxs[i]], rows[idxs[i-1]])
		if c != 0 {
			rank[i] = i + 1
			dense[i] = dense[i-1] + 1
		} else {
			rank[i] = rank[i-1]
			dense[i] = dense[i-1]
		}
	}
	return rank, dense
}

// resolveFrame turns a (possibly nil) Frame into inclusive [start,end]
// positions within idxs for row position i. A nil Frame defaults to
// UNBOUNDED PRECEDING..CURRENT ROW when ORDER BY is present (running
// frame) or the whole partition otherwise, per standard SQL.
//
// Frame.Mode is not read: every RANGE-mode frame is treated identically
// to ROWS here, and bounds are row positions; true RANGE semantics
// (peer-group boundaries keyed by value distance) are not implemented,
// as DESIGN.md records.
func resolveFrame(ctx *sql.Context, w *expr.WindowFunction, rows []sql.Record, idxs []int, i int) (int, int, error) {
	n := len(idxs)
	if w.Frame == nil {
		if len(w.OrderBy) > 0 {
			return 0, i, nil
		}
		return 0, n - 1, nil
	}
	start, err := resolveBound(ctx, w.Frame.Start, rows, idxs, i, n)
	if err != nil {
		return 0, 0, err
	}
	end, err := resolveBound(ctx, w.Frame.End, rows, idxs, i, n)
	if err != nil {
		return 0, 0, err
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	return start, end, nil
}

func resolveBound(ctx *sql.Context, b expr.FrameBound, rows []sql.Record, idxs []int, i, n int) (int, error) {
	switch b.Kind {
	case expr.BoundUnboundedPreceding:
		return 0, nil
	case expr.BoundUnboundedFollowing:
		return n - 1, nil
	case expr.BoundCurrentRow:
		return i, nil
	case expr.BoundPreceding:
		off, err := evalOffset(ctx, b.Offset, rows[idxs[i]])
		if err != nil {
			return 0, err
		}
		return i - off, nil
	case expr.BoundFollowing:
		off, err := evalOffset(ctx, b.Offset, rows[idxs[i]])
		if err != nil {
			return 0, err
		}
		return i + off, nil
	}
	return i, nil
}

func evalOffset(ctx *sql.Context, e expr.Expr, row sql.Record) (int, error) {
	if e == nil {
		return 0, nil
	}
	v, err := e.Eval(ctx, row)
	if err != nil {
		return 0, err
	}
	if v.IsNull() {
		return 0, nil
	}
	return int(v.Int()), nil
}
