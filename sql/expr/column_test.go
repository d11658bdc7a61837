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

package expr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func TestColumn_EvalReadsRowAtIndex(t *testing.T) {
	c := expr.NewColumn(1, types.String, "t", "name", true)
	row := sql.Record{sql.Int64Val(1), sql.StringVal("hi")}
	v, err := c.Eval(newCtx(), row)
	require.NoError(t, err)
	require.Equal(t, "hi", v.Str())
}

func TestColumn_EvalOutOfBoundsErrors(t *testing.T) {
	c := expr.NewColumn(5, types.Int64, "", "id", false)
	_, err := c.Eval(newCtx(), sql.Record{sql.Int64Val(1)})
	require.Error(t, err)
}

func TestColumn_WithIndexReturnsShiftedCopy(t *testing.T) {
	c := expr.NewColumn(2, types.Int64, "r", "id", false)
	shifted := c.WithIndex(0)
	require.Equal(t, 0, shifted.Index)
	require.Equal(t, 2, c.Index) // original untouched
}

func TestColumn_StringQualifiesWithTable(t *testing.T) {
	c := expr.NewColumn(0, types.Int64, "t", "id", false)
	require.Equal(t, "t.id", c.String())

	unqualified := expr.NewColumn(0, types.Int64, "", "id", false)
	require.Equal(t, "id", unqualified.String())
}

func TestLiteral_EvalReturnsConstant(t *testing.T) {
	l := expr.NewLiteral(sql.Int64Val(42), types.Int64)
	v, err := l.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int())
}

func TestLiteral_EvalBatchBroadcasts(t *testing.T) {
	l := expr.NewLiteral(sql.Int64Val(7), types.Int64)
	batch := sql.RecordsToBatch(sql.Schema{{Name: "x", Type: types.Int64}}, []sql.Record{{sql.Int64Val(1)}, {sql.Int64Val(2)}, {sql.Int64Val(3)}})
	col, err := l.EvalBatch(newCtx(), batch)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.Equal(t, int64(7), col.Get(i).Int())
	}
}
