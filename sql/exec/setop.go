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
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// openSetOp implements UNION/INTERSECT/EXCEPT [ALL|DISTINCT]: ALL
// never dedups; DISTINCT dedups the final result by full-row key, and for
// INTERSECT/EXCEPT additionally needs the right side's row multiset (ALL)
// or row set (DISTINCT) to test membership against.
func openSetOp(ctx *sql.Context, n *plan.SetOp, cat sql.Catalog) (sql.BatchIter, error) {
	leftIn, err := Open(ctx, n.Left, cat)
	if err != nil {
		return nil, err
	}
	leftRows, err := newRowCursor(leftIn).drainAll(ctx)
	leftIn.Close(ctx)
	if err != nil {
		return nil, err
	}

	rightIn, err := Open(ctx, n.Right, cat)
	if err != nil {
		return nil, err
	}
	rightRows, err := newRowCursor(rightIn).drainAll(ctx)
	rightIn.Close(ctx)
	if err != nil {
		return nil, err
	}

	var out []sql.Record
	switch n.Kind {
	case plan.SetUnion:
		out = append(out, leftRows...)
		out = append(out, rightRows...)
	case plan.SetIntersect:
		counts := make(map[string]int)
		for _, r := range rightRows {
			counts[encodeRow(r)]++
		}
		for _, r := range leftRows {
			key := encodeRow(r)
			if counts[key] > 0 {
				out = append(out, r)
				if !n.All {
					counts[key] = 0
				} else {
					counts[key]--
				}
			}
		}
	case plan.SetExcept:
		counts := make(map[string]int)
		for _, r := range rightRows {
			counts[encodeRow(r)]++
		}
		for _, r := range leftRows {
			key := encodeRow(r)
			if counts[key] > 0 {
				if n.All {
					counts[key]--
				}
				continue
			}
			out = append(out, r)
		}
	}

	if !n.All {
		seen := make(map[string]struct{})
		deduped := out[:0]
		for _, r := range out {
			key := encodeRow(r)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			deduped = append(deduped, r)
		}
		out = deduped
	}
	return newRecordsIter(n.Schema(), out), nil
}

// openUnnest implements /Unnest: one output row per (input row,
// array element) pair, with an optional trailing zero-based offset column.
func openUnnest(ctx *sql.Context, n *plan.Unnest, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	cur := newRowCursor(in)

	var out []sql.Record
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		r, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		arrVal, err := n.ArrayExpr.Eval(ctx, r)
		if err != nil {
			return nil, err
		}
		if arrVal.IsNull() {
			continue
		}
		for i, elem := range arrVal.Array() {
			row := make(sql.Record, 0, len(r)+2)
			row = append(row, r...)
			row = append(row, elem)
			if n.WithOffset {
				row = append(row, sql.Int64Val(int64(i)))
			}
			out = append(out, row)
		}
	}
	return newRecordsIter(n.Schema(), out), nil
}
