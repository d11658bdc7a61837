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
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/exec"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/function"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func newCtx() *sql.Context {
	return sql.NewContext(context.Background(), logrus.NewEntry(logrus.StandardLogger()))
}

func itemSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64, Table: "items"},
		{Name: "category", Type: types.String, Table: "items"},
		{Name: "price", Type: types.Int64, Table: "items"},
	}
}

func seedItems(t *testing.T, db *memory.Database, ctx *sql.Context) {
	t.Helper()
	require.NoError(t, db.CreateTable(ctx, "items", itemSchema(), false, false))
	_, err := db.InsertRows(ctx, "items", []sql.Record{
		{sql.Int64Val(1), sql.StringVal("a"), sql.Int64Val(10)},
		{sql.Int64Val(2), sql.StringVal("a"), sql.Int64Val(30)},
		{sql.Int64Val(3), sql.StringVal("b"), sql.Int64Val(20)},
		{sql.Int64Val(4), sql.StringVal("b"), sql.Int64Val(20)},
	})
	require.NoError(t, err)
}

func drain(t *testing.T, it sql.BatchIter, ctx *sql.Context) []sql.Record {
	t.Helper()
	var out []sql.Record
	for {
		b, err := it.Next(ctx)
		if err == sql.ErrEndOfBatches {
			break
		}
		require.NoError(t, err)
		out = append(out, b.ToRecords()...)
	}
	require.NoError(t, it.Close(ctx))
	return out
}

func col(i int, f sql.PlanField) expr.Expr {
	return expr.NewColumn(i, f.Type, f.Table, f.Name, f.Nullable)
}

func TestOpen_ScanProjectFilter(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)
	filter := plan.NewFilter(scan, expr.NewBinaryOp(">", col(2, sch[2]), expr.NewLiteral(sql.Int64Val(15), types.Int64), types.Bool))
	proj := plan.NewProject(filter, []plan.ProjectColumn{
		{Expr: col(0, sch[0]), Field: sch[0]},
		{Expr: col(1, sch[1]), Field: sch[1]},
	})

	it, err := exec.Open(ctx, proj, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 3)
	require.Equal(t, int64(2), rows[0][0].Int())
}

func TestOpen_DistinctDedupesFullRow(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)
	proj := plan.NewProject(scan, []plan.ProjectColumn{
		{Expr: col(1, sch[1]), Field: sch[1]},
		{Expr: col(2, sch[2]), Field: sch[2]},
	})
	dist := &plan.Distinct{Input: proj}

	it, err := exec.Open(ctx, dist, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 3) // (a,10) (a,30) (b,20); the duplicate (b,20) collapses
}

func TestOpen_TopNOrdersAndBounds(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)
	topn := &plan.TopN{
		Input: scan,
		Keys:  []expr.OrderKey{{Expr: col(2, sch[2]), Desc: true}},
		K:     2,
	}

	it, err := exec.Open(ctx, topn, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2)
	require.Equal(t, int64(30), rows[0][2].Int())
	require.Equal(t, int64(20), rows[1][2].Int())
}

func TestOpen_LimitOffset(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)
	sorted := &plan.Sort{Input: scan, Keys: []expr.OrderKey{{Expr: col(0, sch[0])}}}
	limit := &plan.Limit{Input: sorted, Count: 2, Offset: 1}

	it, err := exec.Open(ctx, limit, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2)
	require.Equal(t, int64(2), rows[0][0].Int())
	require.Equal(t, int64(3), rows[1][0].Int())
}

func TestOpen_HashAggregateGroupsByCategory(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)

	sumEntry, ok := function.GlobalAggregates().Lookup("SUM")
	require.True(t, ok)

	agg := &plan.HashAggregate{Aggregate: plan.Aggregate{
		Input:       scan,
		GroupBy:     []expr.Expr{col(1, sch[1])},
		GroupFields: []sql.PlanField{{Name: "category", Type: types.String}},
		Aggregates: []plan.AggCall{
			{Agg: expr.NewAggregate("SUM", []expr.Expr{col(2, sch[2])}, false, sumEntry, types.Float64), Field: sql.PlanField{Name: "total", Type: types.Float64}},
		},
		GroupingSets: [][]int{{0}},
	}}

	it, err := exec.Open(ctx, agg, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2)

	totals := map[string]float64{}
	for _, r := range rows {
		totals[r[0].Str()] = r[1].Float()
	}
	require.Equal(t, 40.0, totals["a"])
	require.Equal(t, 40.0, totals["b"])
}

func TestOpen_HashJoinInner(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	ordersSchema := sql.Schema{
		{Name: "order_id", Type: types.Int64, Table: "orders"},
		{Name: "item_id", Type: types.Int64, Table: "orders"},
	}
	require.NoError(t, db.CreateTable(ctx, "orders", ordersSchema, false, false))
	_, err := db.InsertRows(ctx, "orders", []sql.Record{
		{sql.Int64Val(100), sql.Int64Val(1)},
		{sql.Int64Val(101), sql.Int64Val(3)},
		{sql.Int64Val(102), sql.Int64Val(99)},
	})
	require.NoError(t, err)
	seedItems(t, db, ctx)

	itemsSch := itemSchema()
	left := plan.NewScan("orders", "orders", ordersSchema)
	right := plan.NewScan("items", "items", itemsSch)

	hj := &plan.HashJoin{
		Left: left, Right: right, Type: plan.JoinInner,
		Keys: []plan.EquiKey{{
			Left:  col(1, ordersSchema[1]),
			Right: col(0, itemsSch[0]),
		}},
	}

	it, err := exec.Open(ctx, hj, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2)
}
