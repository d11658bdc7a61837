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

// Package exec is the vectorized executor: it turns a Logical/Physical
// Plan tree into a running sql.BatchIter, the way go-mysql-server's
// rowexec package turns a sql/plan tree into a sql.RowIter, except the
// unit of work here is a RecordBatch rather than a single Row.
package exec

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/planner"
)

const batchSize = 1024

func init() {
	planner.RegisterOpener(Open)
}

// Open builds the BatchIter for node against cat, dispatching on the
// concrete plan.Node variant: one operator per physical node kind.
func Open(ctx *sql.Context, node plan.Node, cat sql.Catalog) (sql.BatchIter, error) {
	switch n := node.(type) {
	case *plan.Scan:
		return openScan(ctx, n, cat)
	case *plan.Empty:
		return &onceIter{batch: sql.RecordsToBatch(nil, []sql.Record{{}})}, nil
	case *plan.Values:
		return &onceIter{batch: sql.RecordsToBatch(n.Sch, n.Rows)}, nil
	case *plan.Project:
		return openProject(ctx, n, cat)
	case *plan.Filter:
		return openFilter(ctx, n.Input, n.Predicate, cat)
	case *plan.Qualify:
		return openFilter(ctx, n.Input, n.Predicate, cat)
	case *plan.Distinct:
		return openDistinct(ctx, n, cat)
	case *plan.Limit:
		return openLimit(ctx, n, cat)
	case *plan.Sort:
		return openSort(ctx, n, cat)
	case *plan.TopN:
		return openTopN(ctx, n, cat)
	case *plan.HashAggregate:
		return openHashAggregate(ctx, n, cat)
	case *plan.Aggregate:
		return openHashAggregate(ctx, &plan.HashAggregate{Aggregate: *n}, cat)
	case *plan.HashJoin:
		return openHashJoin(ctx, n, cat)
	case *plan.NestedLoopJoin:
		return openNestedLoopJoin(ctx, n, cat)
	case *plan.CrossJoin:
		return openCrossJoin(ctx, n, cat)
	case *plan.Join:
		return openNestedLoopJoin(ctx, &plan.NestedLoopJoin{Left: n.Left, Right: n.Right, Type: n.Type, Condition: n.Condition}, cat)
	case *plan.SetOp:
		return openSetOp(ctx, n, cat)
	case *plan.Unnest:
		return openUnnest(ctx, n, cat)
	case *plan.Window:
		return openWindow(ctx, n, cat)
	case *plan.CreateTable:
		return openCreateTable(ctx, n, cat)
	case *plan.CreateView:
		return openCreateView(ctx, n, cat)
	case *plan.CreateFunction:
		return openCreateFunction(ctx, n, cat)
	case *plan.CreateSchema:
		return openCreateSchema(ctx, n, cat)
	case *plan.AlterTable:
		return openAlterTable(ctx, n, cat)
	case *plan.Insert:
		return openInsert(ctx, n, cat)
	case *plan.Update:
		return openUpdate(ctx, n, cat)
	case *plan.Delete:
		return openDelete(ctx, n, cat)
	case *plan.Merge:
		return openMerge(ctx, n, cat)
	case *plan.Block, *plan.If, *plan.While, *plan.Loop, *plan.Repeat, *plan.For,
		*plan.Return, *plan.Raise, *plan.Break, *plan.Continue, *plan.TryCatch,
		*plan.ExecuteImmediate, *plan.Assert, *plan.Declare, *plan.Set, *plan.Transaction:
		return openStatement(ctx, n, cat)
	default:
		return nil, sql.ErrUnsupported("exec: no operator for %T", node)
	}
}

// rowCursor pulls a child BatchIter one Record at a time, the common
// "drain a child operator row by row" building block every non-columnar
// operator below (joins, aggregation, sort, window, set ops) is built on.
type rowCursor struct {
	it    sql.BatchIter
	batch *sql.RecordBatch
	pos   int
}

func newRowCursor(it sql.BatchIter) *rowCursor { return &rowCursor{it: it} }

func (c *rowCursor) next(ctx *sql.Context) (sql.Record, bool, error) {
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, false, err
		}
		if c.batch != nil && c.pos < c.batch.NumRows() {
			r := c.batch.Row(c.pos)
			c.pos++
			return r, true, nil
		}
		b, err := c.it.Next(ctx)
		if err != nil {
			if err == sql.ErrEndOfBatches {
				return nil, false, nil
			}
			return nil, false, err
		}
		c.batch, c.pos = b, 0
	}
}

func (c *rowCursor) drainAll(ctx *sql.Context) ([]sql.Record, error) {
	var out []sql.Record
	for {
		r, ok, err := c.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, r)
	}
}

// onceIter yields a single fixed batch then ends, used by Empty/Values and
// every DDL/DML/procedural statement's status/no-op result.
type onceIter struct {
	batch *sql.RecordBatch
	done  bool
}

func (o *onceIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	if o.done {
		return nil, sql.ErrEndOfBatches
	}
	o.done = true
	return o.batch, nil
}
func (o *onceIter) Close(ctx *sql.Context) error { return nil }

// recordsIter serves a slice of pre-materialized Records in batchSz
// chunks, the shape every row-materializing operator (join, aggregate,
// sort, set-op, unnest, window) emits through.
type recordsIter struct {
	schema  sql.Schema
	rows    []sql.Record
	pos     int
	batchSz int
}

func newRecordsIter(schema sql.Schema, rows []sql.Record) *recordsIter {
	return newRecordsIterHinted(schema, rows, plan.ExecutionHints{})
}

// newRecordsIterHinted is newRecordsIter with the physical node's
// ExecutionHints applied: a positive Hints.BatchSize overrides the
// executor-wide default batchSize for that one operator's output.
func newRecordsIterHinted(schema sql.Schema, rows []sql.Record, hints plan.ExecutionHints) *recordsIter {
	sz := batchSize
	if hints.BatchSize > 0 {
		sz = hints.BatchSize
	}
	return &recordsIter{schema: schema, rows: rows, batchSz: sz}
}

func (r *recordsIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	if err := ctx.CheckCancelled(); err != nil {
		return nil, err
	}
	if r.pos >= len(r.rows) {
		return nil, sql.ErrEndOfBatches
	}
	end := r.pos + r.batchSz
	if end > len(r.rows) {
		end = len(r.rows)
	}
	chunk := r.rows[r.pos:end]
	r.pos = end
	return sql.RecordsToBatch(r.schema, chunk), nil
}

func (r *recordsIter) Close(ctx *sql.Context) error { return nil }
