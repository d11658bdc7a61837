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
	"sort"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// compareKeys orders two rows by keys, evaluated row-at-a-time against
// their own Record (Sort / total order, NULLS LAST under ASC unless
// a key overrides nulls-first).
func compareKeys(ctx *sql.Context, keys []plan.OrderKey, a, b sql.Record) (int, error) {
	for _, k := range keys {
		av, err := k.Expr.Eval(ctx, a)
		if err != nil {
			return 0, err
		}
		bv, err := k.Expr.Eval(ctx, b)
		if err != nil {
			return 0, err
		}
		var c int
		if k.Collate != "" && av.Kind == sql.KString && bv.Kind == sql.KString {
			c = compareCollated(k.Collate, av.Str(), bv.Str())
		} else {
			c = sql.Compare(av, bv)
		}
		if av.IsNull() != bv.IsNull() {
			if k.NullsFirst {
				if av.IsNull() {
					return -1, nil
				}
				return 1, nil
			}
			if av.IsNull() {
				return 1, nil
			}
			return -1, nil
		}
		if k.Desc {
			c = -c
		}
		if c != 0 {
			return c, nil
		}
	}
	return 0, nil
}

// openSort materializes the whole input (a full sort is inherently
// blocking) and emits it back out in batchSize chunks.
func openSort(ctx *sql.Context, n *plan.Sort, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	rows, err := newRowCursor(in).drainAll(ctx)
	if err != nil {
		return nil, err
	}
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := compareKeys(ctx, n.Keys, rows[i], rows[j])
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return newRecordsIterHinted(n.Schema(), rows, n.Hints), nil
}

// openTopN keeps a bounded max-heap of size K+Offset rather than sorting the
// full input: heap ordering is the reverse of the target order so the
// worst-of-the-top-K sits at the root for eviction.
func openTopN(ctx *sql.Context, n *plan.TopN, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	cur := newRowCursor(in)

	limit := int(n.K + n.Offset)
	if limit <= 0 {
		return newRecordsIterHinted(n.Schema(), nil, n.Hints), nil
	}
	h := &topNHeap{keys: n.Keys, ctx: ctx}
	for {
		r, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(h.rows) < limit {
			h.rows = append(h.rows, r)
			sortUp(h, len(h.rows)-1)
			continue
		}
		// worse-than-current-worst rows never enter the heap.
		c, err := compareKeys(ctx, n.Keys, r, h.rows[0])
		if err != nil {
			return nil, err
		}
		if c < 0 {
			h.rows[0] = r
			sortDown(h, 0, len(h.rows))
		}
	}

	sort.SliceStable(h.rows, func(i, j int) bool {
		c, _ := compareKeys(ctx, n.Keys, h.rows[i], h.rows[j])
		return c < 0
	})
	out := h.rows
	if int(n.Offset) < len(out) {
		out = out[n.Offset:]
	} else {
		out = nil
	}
	return newRecordsIterHinted(n.Schema(), out, n.Hints), nil
}

// topNHeap is a max-heap (by sort order, so the root is the current
// worst-of-the-top-K) over plain OrderKey comparisons.
type topNHeap struct {
	rows []sql.Record
	keys []plan.OrderKey
	ctx  *sql.Context
}

func (h *topNHeap) less(i, j int) bool {
	c, _ := compareKeys(h.ctx, h.keys, h.rows[i], h.rows[j])
	return c < 0
}

// sortUp/sortDown implement a textbook binary-heap sift, inverted (root
// is the maximum under `less`) so the current worst-of-top-K is always
// evictable in O(log K).
func sortUp(h *topNHeap, i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(parent, i) {
			break
		}
		h.rows[parent], h.rows[i] = h.rows[i], h.rows[parent]
		i = parent
	}
}

func sortDown(h *topNHeap, i, n int) {
	for {
		left, right, largest := 2*i+1, 2*i+2, i
		if left < n && h.less(largest, left) {
			largest = left
		}
		if right < n && h.less(largest, right) {
			largest = right
		}
		if largest == i {
			break
		}
		h.rows[i], h.rows[largest] = h.rows[largest], h.rows[i]
		i = largest
	}
}
