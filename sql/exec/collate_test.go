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

func TestOpen_SortWithCollationOrdersCaseInsensitively(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	sch := sql.Schema{{Name: "name", Type: types.String, Table: "words"}}
	require.NoError(t, db.CreateTable(ctx, "words", sch, false, false))
	_, err := db.InsertRows(ctx, "words", []sql.Record{
		{sql.StringVal("banana")},
		{sql.StringVal("Apple")},
		{sql.StringVal("cherry")},
	})
	require.NoError(t, err)

	scan := plan.NewScan("words", "words", sch)
	sorted := &plan.Sort{Input: scan, Keys: []expr.OrderKey{{Expr: col(0, sch[0]), Collate: "und:ci"}}}

	it, err := exec.Open(ctx, sorted, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 3)
	require.Equal(t, "Apple", rows[0][0].Str())
	require.Equal(t, "banana", rows[1][0].Str())
	require.Equal(t, "cherry", rows[2][0].Str())
}

func TestOpen_SortWithoutCollationIsBinary(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	sch := sql.Schema{{Name: "name", Type: types.String, Table: "words"}}
	require.NoError(t, db.CreateTable(ctx, "words", sch, false, false))
	_, err := db.InsertRows(ctx, "words", []sql.Record{
		{sql.StringVal("banana")},
		{sql.StringVal("Apple")},
	})
	require.NoError(t, err)

	scan := plan.NewScan("words", "words", sch)
	sorted := &plan.Sort{Input: scan, Keys: []expr.OrderKey{{Expr: col(0, sch[0])}}}

	it, err := exec.Open(ctx, sorted, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 2)
	require.Equal(t, "Apple", rows[0][0].Str()) // uppercase sorts first in plain byte order
	require.Equal(t, "banana", rows[1][0].Str())
}
