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

func TestOpen_CreateTableThenInsert(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	ct := &plan.CreateTable{
		Name: "widgets",
		Columns: []plan.ColumnDef{
			{Name: "id", Type: types.Int64},
			{Name: "name", Type: types.String, Nullable: true},
		},
	}
	it, err := exec.Open(ctx, ct, db)
	require.NoError(t, err)
	require.Empty(t, drain(t, it, ctx))

	sch, ok := db.GetTableSchema("widgets")
	require.True(t, ok)

	ins := &plan.Insert{
		Table:   "widgets",
		Columns: []string{"id", "name"},
		Source:  &plan.Values{Sch: sch, Rows: []sql.Record{{sql.Int64Val(1), sql.StringVal("w1")}}},
	}
	it, err = exec.Open(ctx, ins, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)
	require.Equal(t, int64(1), rows[0][0].Int())
}

func TestOpen_CreateTableAsSelect(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	scan := plan.NewScan("items", "items", sch)
	filtered := plan.NewFilter(scan, expr.NewBinaryOp(">", col(2, sch[2]), expr.NewLiteral(sql.Int64Val(15), types.Int64), types.Bool))

	ct := &plan.CreateTable{Name: "pricey", AsSelect: filtered}
	it, err := exec.Open(ctx, ct, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)
	require.Equal(t, int64(3), rows[0][0].Int())

	scanSch, ok := db.GetTableSchema("pricey")
	require.True(t, ok)
	require.Equal(t, sch, scanSch)
}

func TestOpen_UpdateAndDelete(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	sch := itemSchema()
	upd := &plan.Update{
		Table: "items",
		Scan:  plan.NewScan("items", "items", sch),
		Where: expr.NewBinaryOp("=", col(0, sch[0]), expr.NewLiteral(sql.Int64Val(1), types.Int64), types.Bool),
		Sets:  []plan.SetClause{{Column: "price", Value: expr.NewLiteral(sql.Int64Val(999), types.Int64)}},
	}
	it, err := exec.Open(ctx, upd, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Equal(t, int64(1), rows[0][0].Int())

	del := &plan.Delete{
		Table: "items",
		Scan:  plan.NewScan("items", "items", sch),
		Where: expr.NewBinaryOp("=", col(0, sch[0]), expr.NewLiteral(sql.Int64Val(4), types.Int64), types.Bool),
	}
	it, err = exec.Open(ctx, del, db)
	require.NoError(t, err)
	rows = drain(t, it, ctx)
	require.Equal(t, int64(1), rows[0][0].Int())

	remaining, err := db.Scan(ctx, "items")
	require.NoError(t, err)
	left := drain(t, remaining, ctx)
	require.Len(t, left, 3)
}

func TestOpen_AlterTableAddColumn(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	seedItems(t, db, ctx)

	at := &plan.AlterTable{
		Table:    "items",
		AddColumn: &plan.ColumnDef{Name: "tag", Type: types.String, Nullable: true},
	}
	it, err := exec.Open(ctx, at, db)
	require.NoError(t, err)
	require.Empty(t, drain(t, it, ctx))

	sch, ok := db.GetTableSchema("items")
	require.True(t, ok)
	require.Len(t, sch, 4)
	require.Equal(t, "tag", sch[3].Name)
}
