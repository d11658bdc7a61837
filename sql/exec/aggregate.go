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
	"strconv"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/function"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// aggSlot is one AggCall's running state for one group: an Accumulator
// plus, for COUNT(DISTINCT x)-style calls, the dedup set the planner
// relies on the executor to maintain — deduplicating args happens here,
// not in the planner, before Update is ever called.
type aggSlot struct {
	acc      function.Accumulator
	distinct bool
	seen     map[string]struct{}
}

type aggGroupState struct {
	groupVals []sql.Value
	slots     []aggSlot
}

func newAggGroupState(a *plan.Aggregate, numFields int) *aggGroupState {
	slots := make([]aggSlot, len(a.Aggregates))
	for i, ac := range a.Aggregates {
		slots[i] = aggSlot{acc: ac.Agg.Entry.New(), distinct: ac.Agg.Distinct}
		if ac.Agg.Distinct {
			slots[i].seen = make(map[string]struct{})
		}
	}
	return &aggGroupState{groupVals: make([]sql.Value, numFields), slots: slots}
}

// openHashAggregate implements /HashAggregate: every grouping set
// is evaluated against every input row (columns outside the active set's
// indices come out Null in the group key, BigQuery's GROUPING SETS/ROLLUP/
// CUBE semantics), groups keyed by their encoded key tuple, one
// Accumulator per (group, AggCall) pair.
func openHashAggregate(ctx *sql.Context, n *plan.HashAggregate, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	cur := newRowCursor(in)

	sets := n.GroupingSets
	if len(sets) == 0 {
		full := make([]int, len(n.GroupBy))
		for i := range full {
			full[i] = i
		}
		sets = [][]int{full}
	}

	groups := make(map[string]*aggGroupState)
	var order []string
	rowCount := 0

	for {
		r, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rowCount++
		for setIdx, set := range sets {
			keyVals := make([]sql.Value, len(set))
			for i, idx := range set {
				v, err := n.GroupBy[idx].Eval(ctx, r)
				if err != nil {
					return nil, err
				}
				keyVals[i] = v
			}
			key := encodeValues(keyVals) + "\x02" + strconv.Itoa(setIdx)
			st, ok := groups[key]
			if !ok {
				st = newAggGroupState(&n.Aggregate, len(n.GroupFields))
				for i, idx := range set {
					st.groupVals[idx] = keyVals[i]
				}
				groups[key] = st
				order = append(order, key)
			}
			for i, ac := range n.Aggregates {
				args := make([]sql.Value, len(ac.Agg.Args))
				for j, a := range ac.Agg.Args {
					v, err := a.Eval(ctx, r)
					if err != nil {
						return nil, err
					}
					args[j] = v
				}
				slot := &st.slots[i]
				if slot.distinct {
					dk := encodeValues(args)
					if _, seen := slot.seen[dk]; seen {
						continue
					}
					slot.seen[dk] = struct{}{}
				}
				slot.acc.Update(args)
			}
		}
	}

	// A global aggregate (no GROUP BY) still emits exactly one row even
	// over zero input rows (COUNT = 0, SUM = NULL), per standard SQL.
	if rowCount == 0 && len(n.GroupBy) == 0 && len(sets) == 1 && len(sets[0]) == 0 {
		st := newAggGroupState(&n.Aggregate, len(n.GroupFields))
		groups[""] = st
		order = append(order, "")
	}

	out := make([]sql.Record, 0, len(order))
	for _, key := range order {
		st := groups[key]
		rec := make(sql.Record, len(n.GroupFields)+len(n.Aggregates))
		copy(rec, st.groupVals)
		for i, slot := range st.slots {
			rec[len(n.GroupFields)+i] = slot.acc.Result()
		}
		out = append(out, rec)
	}
	return newRecordsIterHinted(n.Schema(), out, n.Hints), nil
}
