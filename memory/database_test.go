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

package memory_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func newCtx() *sql.Context {
	return sql.NewContext(context.Background(), logrus.NewEntry(logrus.StandardLogger()))
}

func userSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64},
		{Name: "name", Type: types.String, Nullable: true},
	}
}

func drainAll(t *testing.T, it sql.BatchIter, ctx *sql.Context) []sql.Record {
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

func TestDatabase_CreateTableIfNotExists(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, false))
	err := db.CreateTable(ctx, "t", userSchema(), false, false)
	require.Error(t, err)

	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, true))
}

func TestDatabase_CreateTableOrReplace(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, false))

	_, err := db.InsertRows(ctx, "t", []sql.Record{{sql.Int64Val(1), sql.StringVal("a")}})
	require.NoError(t, err)

	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), true, false))
	sch, ok := db.GetTableSchema("t")
	require.True(t, ok)
	require.Equal(t, userSchema(), sch)

	it, err := db.Scan(ctx, "t")
	require.NoError(t, err)
	require.Empty(t, drainAll(t, it, ctx))
}

func TestDatabase_InsertScanUpdateDelete(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, false))

	n, err := db.InsertRows(ctx, "t", []sql.Record{
		{sql.Int64Val(1), sql.StringVal("alice")},
		{sql.Int64Val(2), sql.StringVal("bob")},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	it, err := db.Scan(ctx, "t")
	require.NoError(t, err)
	rows := drainAll(t, it, ctx)
	require.Len(t, rows, 2)

	upd, err := db.UpdateRows(ctx, "t", []sql.RowUpdate{
		{Old: sql.Record{sql.Int64Val(2), sql.StringVal("bob")}, New: sql.Record{sql.Int64Val(2), sql.StringVal("bobby")}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), upd)

	del, err := db.DeleteRows(ctx, "t", []sql.Record{{sql.Int64Val(1), sql.StringVal("alice")}})
	require.NoError(t, err)
	require.Equal(t, int64(1), del)

	it, err = db.Scan(ctx, "t")
	require.NoError(t, err)
	rows = drainAll(t, it, ctx)
	require.Len(t, rows, 1)
	require.Equal(t, int64(0), sql.Compare(rows[0][1], sql.StringVal("bobby")))
}

func TestDatabase_ScanSnapshotIsolatedFromConcurrentInsert(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, false))
	_, err := db.InsertRows(ctx, "t", []sql.Record{{sql.Int64Val(1), sql.StringVal("a")}})
	require.NoError(t, err)

	it, err := db.Scan(ctx, "t")
	require.NoError(t, err)

	_, err = db.InsertRows(ctx, "t", []sql.Record{{sql.Int64Val(2), sql.StringVal("b")}})
	require.NoError(t, err)

	rows := drainAll(t, it, ctx)
	require.Len(t, rows, 1, "snapshot taken at Scan time must not observe a later insert")
}

func TestDatabase_AlterTableAddColumn(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, false))

	err := db.AlterTable(ctx, "t", func(s sql.Schema) (sql.Schema, error) {
		return append(s.Clone(), sql.PlanField{Name: "age", Type: types.Int64, Nullable: true}), nil
	})
	require.NoError(t, err)

	sch, ok := db.GetTableSchema("t")
	require.True(t, ok)
	require.Len(t, sch, 3)
	require.Equal(t, "age", sch[2].Name)
}

func TestDatabase_DropTable(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "t", userSchema(), false, false))
	require.NoError(t, db.DropTable(ctx, "t"))

	_, ok := db.GetTableSchema("t")
	require.False(t, ok)
	require.Error(t, db.DropTable(ctx, "t"))
}

func TestDatabase_ViewsAndFunctions(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	require.NoError(t, db.CreateView(ctx, "v", sql.ViewDef{Query: "SELECT 1"}, false))
	_, ok := db.GetView("v")
	require.True(t, ok)
	require.Error(t, db.CreateView(ctx, "v", sql.ViewDef{Query: "SELECT 2"}, false))
	require.NoError(t, db.CreateView(ctx, "v", sql.ViewDef{Query: "SELECT 2"}, true))

	require.NoError(t, db.CreateFunction(ctx, "f", sql.FuncDef{Name: "f"}, false))
	_, ok = db.GetFunction("f")
	require.True(t, ok)
	require.Error(t, db.CreateFunction(ctx, "f", sql.FuncDef{Name: "f"}, false))
}
