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

// filterIter evaluates Predicate columnar-ly and gathers the surviving row
// indices out of every input column (the vectorized evaluation mode):
// Filter and Qualify share this operator since Qualify is structurally a
// post-window Filter.
type filterIter struct {
	input  sql.BatchIter
	pred   expr.Expr
	schema sql.Schema
}

func openFilter(ctx *sql.Context, input plan.Node, pred expr.Expr, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, input, cat)
	if err != nil {
		return nil, err
	}
	return &filterIter{input: in, pred: pred, schema: input.Schema()}, nil
}

func (f *filterIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		batch, err := f.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		mask, err := f.pred.EvalBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		keep := make([]int, 0, batch.NumRows())
		for i := 0; i < batch.NumRows(); i++ {
			if !mask.IsNull(i) && mask.Get(i).Bool() {
				keep = append(keep, i)
			}
		}
		if len(keep) == 0 {
			continue
		}
		cols := make([]*sql.Column, len(batch.Columns))
		for i, c := range batch.Columns {
			cols[i] = c.Gather(keep)
		}
		return sql.NewRecordBatch(f.schema, cols), nil
	}
}

func (f *filterIter) Close(ctx *sql.Context) error { return f.input.Close(ctx) }
