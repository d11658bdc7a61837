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

// projectIter evaluates each output expression's EvalBatch over every
// input batch (the vectorized evaluation mode): a genuinely columnar
// operator, no row materialization.
type projectIter struct {
	input  sql.BatchIter
	node   *plan.Project
	schema sql.Schema
}

func openProject(ctx *sql.Context, n *plan.Project, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	return &projectIter{input: in, node: n, schema: n.Schema()}, nil
}

func (p *projectIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	if err := ctx.CheckCancelled(); err != nil {
		return nil, err
	}
	in, err := p.input.Next(ctx)
	if err != nil {
		return nil, err
	}
	cols := make([]*sql.Column, len(p.node.Columns))
	for i, c := range p.node.Columns {
		col, err := c.Expr.EvalBatch(ctx, in)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return sql.NewRecordBatch(p.schema, cols), nil
}

func (p *projectIter) Close(ctx *sql.Context) error { return p.input.Close(ctx) }
