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

func TestOpen_MergeInsertsUpdatesAndDeletes(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	targetSchema := sql.Schema{
		{Name: "id", Type: types.Int64},
		{Name: "qty", Type: types.Int64},
	}
	require.NoError(t, db.CreateTable(ctx, "target", targetSchema, false, false))
	_, err := db.InsertRows(ctx, "target", []sql.Record{
		{sql.Int64Val(1), sql.Int64Val(10)},
		{sql.Int64Val(2), sql.Int64Val(20)},
	})
	require.NoError(t, err)

	sourceSchema := sql.Schema{
		{Name: "id", Type: types.Int64},
		{Name: "qty", Type: types.Int64},
	}
	source := &plan.Values{Sch: sourceSchema, Rows: []sql.Record{
		{sql.Int64Val(1), sql.Int64Val(99)},  // matches target id=1 -> update
		{sql.Int64Val(3), sql.Int64Val(30)},  // no match -> insert
	}}

	on := expr.NewBinaryOp("=",
		expr.NewColumn(0, types.Int64, "target", "id", false),
		expr.NewColumn(2, types.Int64, "source", "id", false),
		types.Bool)

	m := &plan.Merge{
		Target: "target",
		Source: source,
		On:     on,
		Actions: []plan.MergeAction{
			{
				Matched: true,
				Sets:    []plan.SetClause{{Column: "qty", Value: expr.NewColumn(3, types.Int64, "source", "qty", false)}},
			},
			{
				Matched:    false,
				ByTarget:   true,
				InsertCols: []string{"id", "qty"},
				InsertVals: []expr.Expr{
					expr.NewColumn(0, types.Int64, "source", "id", false),
					expr.NewColumn(1, types.Int64, "source", "qty", false),
				},
			},
		},
	}

	it, err := exec.Open(ctx, m, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0][0].Int()) // 1 update + 1 insert

	scanIt, err := db.Scan(ctx, "target")
	require.NoError(t, err)
	final := drain(t, scanIt, ctx)
	require.Len(t, final, 3)

	byID := map[int64]int64{}
	for _, r := range final {
		byID[r[0].Int()] = r[1].Int()
	}
	require.Equal(t, int64(99), byID[1])
	require.Equal(t, int64(20), byID[2])
	require.Equal(t, int64(30), byID[3])
}

func TestOpen_UnnestExpandsArrayPerRowWithOffset(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	arrType := types.ArrayType{Elem: types.Int64}
	sch := sql.Schema{{Name: "tags", Type: arrType}}
	input := &plan.Values{Sch: sch, Rows: []sql.Record{
		{sql.ArrayVal([]sql.Value{sql.Int64Val(10), sql.Int64Val(20)})},
	}}

	u := &plan.Unnest{
		Input:      input,
		ArrayExpr:  expr.NewColumn(0, arrType, "", "tags", false),
		Alias:      "tag",
		WithOffset: true,
		OffsetName: "off",
		OutSchema: sql.Schema{
			{Name: "tags", Type: arrType},
			{Name: "tag", Type: types.Int64},
			{Name: "off", Type: types.Int64},
		},
	}

	it, err := exec.Open(ctx, u, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2)
	require.Equal(t, int64(10), rows[0][1].Int())
	require.Equal(t, int64(0), rows[0][2].Int())
	require.Equal(t, int64(20), rows[1][1].Int())
	require.Equal(t, int64(1), rows[1][2].Int())
}
