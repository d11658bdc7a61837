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
	"runtime"
	"sync"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

func nullRow(width int) sql.Record {
	r := make(sql.Record, width)
	for i := range r {
		r[i] = sql.Null()
	}
	return r
}

func concatRows(a, b sql.Record) sql.Record {
	r := make(sql.Record, 0, len(a)+len(b))
	r = append(r, a...)
	r = append(r, b...)
	return r
}

// evalCond evaluates an optional residual/condition expr against a row;
// nil means "always true" (e.g. a bare Cross join has no Condition).
func evalCond(ctx *sql.Context, e expr.Expr, r sql.Record) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := e.Eval(ctx, r)
	if err != nil {
		return false, err
	}
	return !v.IsNull() && v.Bool(), nil
}

// openHashJoin implements the physical hash join the cross-to-hash-join
// rewrite produces: the right side builds a hash table keyed by Keys
// (right-local indices), the left side probes with its own (left-local)
// Keys; Residual, if any, is evaluated against the concatenated
// left++right row since it references the combined schema.
func openHashJoin(ctx *sql.Context, n *plan.HashJoin, cat sql.Catalog) (sql.BatchIter, error) {
	rightIn, err := Open(ctx, n.Right, cat)
	if err != nil {
		return nil, err
	}
	rightRows, err := newRowCursor(rightIn).drainAll(ctx)
	rightIn.Close(ctx)
	if err != nil {
		return nil, err
	}

	leftIn, err := Open(ctx, n.Left, cat)
	if err != nil {
		return nil, err
	}
	leftRows, err := newRowCursor(leftIn).drainAll(ctx)
	leftIn.Close(ctx)
	if err != nil {
		return nil, err
	}

	leftWidth := len(n.Left.Schema())
	rightWidth := len(n.Right.Schema())

	buckets := make(map[string][]int)
	for i, rr := range rightRows {
		key, err := hashKeyRight(ctx, n.Keys, rr)
		if err != nil {
			return nil, err
		}
		buckets[key] = append(buckets[key], i)
	}

	probe := func(lr sql.Record) (emitted []sql.Record, matchedIdx []int, err error) {
		key, err := hashKeyLeft(ctx, n.Keys, lr)
		if err != nil {
			return nil, nil, err
		}
		for _, idx := range buckets[key] {
			combined := concatRows(lr, rightRows[idx])
			ok, err := evalCond(ctx, n.Residual, combined)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
			matchedIdx = append(matchedIdx, idx)
			emitted = append(emitted, combined)
		}
		var rowOut []sql.Record
		switch n.Type {
		case plan.JoinSemi:
			if len(matchedIdx) > 0 {
				rowOut = append(rowOut, lr)
			}
		case plan.JoinAnti:
			if len(matchedIdx) == 0 {
				rowOut = append(rowOut, lr)
			}
		case plan.JoinLeft, plan.JoinFull:
			if len(matchedIdx) == 0 {
				emitted = append(emitted, concatRows(lr, nullRow(rightWidth)))
			}
			rowOut = emitted
		default: // Inner, Right
			rowOut = emitted
		}
		return rowOut, matchedIdx, nil
	}

	out, matchedIdx, err := probeRows(ctx, leftRows, n.Hints, probe)
	if err != nil {
		return nil, err
	}

	rightMatched := make([]bool, len(rightRows))
	for _, idx := range matchedIdx {
		rightMatched[idx] = true
	}
	if n.Type == plan.JoinRight || n.Type == plan.JoinFull {
		for i, rr := range rightRows {
			if !rightMatched[i] {
				out = append(out, concatRows(nullRow(leftWidth), rr))
			}
		}
	}
	return newRecordsIterHinted(n.Schema(), out, n.Hints), nil
}

// probeRows runs probe over every row in rows and concatenates the
// results in row order. With hints.Parallel set and enough rows to be
// worth it, rows are split into contiguous chunks probed concurrently
// by a small worker pool (the build side, buckets, is read-only once
// built, so concurrent probes need no locking); sequentially otherwise.
// This is the one place ExecutionHints.Parallel takes effect: a hash
// join's per-row probe work is embarrassingly parallel since no row's
// result depends on another's.
func probeRows(ctx *sql.Context, rows []sql.Record, hints plan.ExecutionHints, probe func(sql.Record) ([]sql.Record, []int, error)) ([]sql.Record, []int, error) {
	const minParallelRows = 256
	if !hints.Parallel || len(rows) < minParallelRows {
		var out []sql.Record
		var matchedIdx []int
		for _, r := range rows {
			if err := ctx.CheckCancelled(); err != nil {
				return nil, nil, err
			}
			emitted, idx, err := probe(r)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, emitted...)
			matchedIdx = append(matchedIdx, idx...)
		}
		return out, matchedIdx, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(rows) {
		workers = len(rows)
	}
	chunkOut := make([][]sql.Record, workers)
	chunkIdx := make([][]int, workers)
	chunkErr := make([]error, workers)

	chunkSize := (len(rows) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			var out []sql.Record
			var matchedIdx []int
			for _, r := range rows[start:end] {
				emitted, idx, err := probe(r)
				if err != nil {
					chunkErr[w] = err
					return
				}
				out = append(out, emitted...)
				matchedIdx = append(matchedIdx, idx...)
			}
			chunkOut[w] = out
			chunkIdx[w] = matchedIdx
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range chunkErr {
		if err != nil {
			return nil, nil, err
		}
	}
	var out []sql.Record
	var matchedIdx []int
	for w := 0; w < workers; w++ {
		out = append(out, chunkOut[w]...)
		matchedIdx = append(matchedIdx, chunkIdx[w]...)
	}
	return out, matchedIdx, nil
}

func hashKeyLeft(ctx *sql.Context, keys []plan.EquiKey, r sql.Record) (string, error) {
	vs := make([]sql.Value, len(keys))
	for i, k := range keys {
		v, err := k.Left.Eval(ctx, r)
		if err != nil {
			return "", err
		}
		vs[i] = v
	}
	return encodeValues(vs), nil
}

func hashKeyRight(ctx *sql.Context, keys []plan.EquiKey, r sql.Record) (string, error) {
	vs := make([]sql.Value, len(keys))
	for i, k := range keys {
		v, err := k.Right.Eval(ctx, r)
		if err != nil {
			return "", err
		}
		vs[i] = v
	}
	return encodeValues(vs), nil
}

// openNestedLoopJoin is the fallback when no equi-join key exists:
// Condition is evaluated per (L,R) pair over the materialized right side.
func openNestedLoopJoin(ctx *sql.Context, n *plan.NestedLoopJoin, cat sql.Catalog) (sql.BatchIter, error) {
	rightIn, err := Open(ctx, n.Right, cat)
	if err != nil {
		return nil, err
	}
	rightRows, err := newRowCursor(rightIn).drainAll(ctx)
	rightIn.Close(ctx)
	if err != nil {
		return nil, err
	}

	leftIn, err := Open(ctx, n.Left, cat)
	if err != nil {
		return nil, err
	}
	defer leftIn.Close(ctx)

	leftWidth := len(n.Left.Schema())
	rightWidth := len(n.Right.Schema())
	rightMatched := make([]bool, len(rightRows))

	var out []sql.Record
	cur := newRowCursor(leftIn)
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		lr, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		matched := false
		var emitted []sql.Record
		for idx, rr := range rightRows {
			combined := concatRows(lr, rr)
			ok, err := evalCond(ctx, n.Condition, combined)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			matched = true
			rightMatched[idx] = true
			emitted = append(emitted, combined)
		}
		switch n.Type {
		case plan.JoinSemi:
			if matched {
				out = append(out, lr)
			}
		case plan.JoinAnti:
			if !matched {
				out = append(out, lr)
			}
		case plan.JoinLeft, plan.JoinFull:
			if !matched {
				emitted = append(emitted, concatRows(lr, nullRow(rightWidth)))
			}
			out = append(out, emitted...)
		default:
			out = append(out, emitted...)
		}
	}
	if n.Type == plan.JoinRight || n.Type == plan.JoinFull {
		for i, rr := range rightRows {
			if !rightMatched[i] {
				out = append(out, concatRows(nullRow(leftWidth), rr))
			}
		}
	}
	return newRecordsIterHinted(n.Schema(), out, n.Hints), nil
}

// openCrossJoin emits the full cartesian product with no condition:
// preserved when no equi-key is found and no residual remains.
func openCrossJoin(ctx *sql.Context, n *plan.CrossJoin, cat sql.Catalog) (sql.BatchIter, error) {
	rightIn, err := Open(ctx, n.Right, cat)
	if err != nil {
		return nil, err
	}
	rightRows, err := newRowCursor(rightIn).drainAll(ctx)
	rightIn.Close(ctx)
	if err != nil {
		return nil, err
	}

	leftIn, err := Open(ctx, n.Left, cat)
	if err != nil {
		return nil, err
	}
	defer leftIn.Close(ctx)

	var out []sql.Record
	cur := newRowCursor(leftIn)
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		lr, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		for _, rr := range rightRows {
			out = append(out, concatRows(lr, rr))
		}
	}
	return newRecordsIterHinted(n.Schema(), out, n.Hints), nil
}
