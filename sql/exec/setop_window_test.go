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

package exec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/exec"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func singleColSchema(name string) sql.Schema {
	return sql.Schema{{Name: name, Type: types.Int64}}
}

func TestOpen_SetOpUnionAll(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	left := &plan.Values{Sch: singleColSchema("n"), Rows: []sql.Record{{sql.Int64Val(1)}, {sql.Int64Val(2)}}}
	right := &plan.Values{Sch: singleColSchema("n"), Rows: []sql.Record{{sql.Int64Val(2)}, {sql.Int64Val(3)}}}

	u := &plan.SetOp{Left: left, Right: right, Kind: plan.SetUnion, All: true}
	it, err := exec.Open(ctx, u, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 4)
}

func TestOpen_SetOpUnionDistinct(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	left := &plan.Values{Sch: singleColSchema("n"), Rows: []sql.Record{{sql.Int64Val(1)}, {sql.Int64Val(2)}}}
	right := &plan.Values{Sch: singleColSchema("n"), Rows: []sql.Record{{sql.Int64Val(2)}, {sql.Int64Val(3)}}}

	u := &plan.SetOp{Left: left, Right: right, Kind: plan.SetUnion, All: false}
	it, err := exec.Open(ctx, u, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 3)
}

func TestOpen_SetOpExceptAll(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	left := &plan.Values{Sch: singleColSchema("n"), Rows: []sql.Record{{sql.Int64Val(1)}, {sql.Int64Val(2)}, {sql.Int64Val(2)}}}
	right := &plan.Values{Sch: singleColSchema("n"), Rows: []sql.Record{{sql.Int64Val(2)}}}

	e := &plan.SetOp{Left: left, Right: right, Kind: plan.SetExcept, All: true}
	it, err := exec.Open(ctx, e, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2) // one surviving 2, plus the untouched 1
}

func TestOpen_WindowRowNumberPartitioned(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)
	win := &plan.Window{
		Input: scan,
		Calls: []plan.WindowCall{{
			Win: &expr.WindowFunction{
				FuncName:    "ROW_NUMBER",
				PartitionBy: []expr.Expr{col(1, sch[1])},
				OrderBy:     []expr.OrderKey{{Expr: col(0, sch[0])}},
				Typ:         types.Int64,
			},
			Field: sql.PlanField{Name: "rn", Type: types.Int64},
		}},
	}

	it, err := exec.Open(ctx, win, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 4)

	rn := map[int64]int64{}
	for _, r := range rows {
		rn[r[0].Int()] = r[len(r)-1].Int()
	}
	require.Equal(t, int64(1), rn[1]) // first "a" row by id
	require.Equal(t, int64(2), rn[2]) // second "a" row by id
	require.Equal(t, int64(1), rn[3]) // first "b" row by id
	require.Equal(t, int64(2), rn[4]) // second "b" row by id
}

func TestOpen_NestedLoopJoinInner(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	left := plan.NewScan("items", "items", sch)
	right := plan.NewScan("items", "items2", sch)

	nlj := &plan.NestedLoopJoin{
		Left: left, Right: right, Type: plan.JoinInner,
		Condition: expr.NewBinaryOp("<", col(2, sch[2]), col(5, sql.PlanField{Type: types.Int64}), types.Bool),
	}
	it, err := exec.Open(ctx, nlj, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.NotEmpty(t, rows)
	for _, r := range rows {
		require.True(t, r[2].Int() < r[5].Int())
	}
}
