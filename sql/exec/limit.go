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

// limitIter skips Offset rows then yields at most Count more, slicing
// columns rather than materializing Records (Limit).
type limitIter struct {
	input       sql.BatchIter
	toSkip      int64
	toEmit      int64
	schema      sql.Schema
	exhausted   bool
}

func openLimit(ctx *sql.Context, n *plan.Limit, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	return &limitIter{input: in, toSkip: n.Offset, toEmit: n.Count, schema: n.Schema()}, nil
}

func (l *limitIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	if l.exhausted || l.toEmit <= 0 {
		return nil, sql.ErrEndOfBatches
	}
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		batch, err := l.input.Next(ctx)
		if err != nil {
			l.exhausted = true
			return nil, err
		}
		n := int64(batch.NumRows())
		if l.toSkip >= n {
			l.toSkip -= n
			continue
		}
		lo := l.toSkip
		l.toSkip = 0
		hi := lo + l.toEmit
		if hi > n {
			hi = n
		}
		l.toEmit -= hi - lo
		cols := make([]*sql.Column, len(batch.Columns))
		for i, c := range batch.Columns {
			cols[i] = c.Slice(int(lo), int(hi))
		}
		if l.toEmit <= 0 {
			l.exhausted = true
		}
		return sql.NewRecordBatch(l.schema, cols), nil
	}
}

func (l *limitIter) Close(ctx *sql.Context) error { return l.input.Close(ctx) }
