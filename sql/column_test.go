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

package sql_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func TestColumn_NewColumnStartsAllNull(t *testing.T) {
	c := sql.NewColumn(types.Int64, 3)
	require.Equal(t, 3, c.Len())
	for i := 0; i < 3; i++ {
		require.True(t, c.IsNull(i))
		require.True(t, c.Get(i).IsNull())
	}
}

func TestColumn_SetAndGetRoundTrip(t *testing.T) {
	c := sql.NewColumn(types.String, 2)
	c.Set(0, sql.StringVal("a"))
	c.Set(1, sql.Null())

	require.False(t, c.IsNull(0))
	require.Equal(t, "a", c.Get(0).Str())
	require.True(t, c.IsNull(1))
}

func TestColumn_SliceCopiesRange(t *testing.T) {
	c := sql.NewColumn(types.Int64, 5)
	for i := 0; i < 5; i++ {
		c.Set(i, sql.Int64Val(int64(i)))
	}
	s := c.Slice(1, 4)
	require.Equal(t, 3, s.Len())
	require.Equal(t, int64(1), s.Get(0).Int())
	require.Equal(t, int64(3), s.Get(2).Int())
}

func TestColumn_GatherHonorsNegativeFillSlot(t *testing.T) {
	c := sql.NewColumn(types.Int64, 3)
	for i := 0; i < 3; i++ {
		c.Set(i, sql.Int64Val(int64(i*10)))
	}
	g := c.Gather([]int{2, -1, 0})
	require.Equal(t, int64(20), g.Get(0).Int())
	require.True(t, g.IsNull(1))
	require.Equal(t, int64(0), g.Get(2).Int())
}

func TestNullBitmap_SetAndQuery(t *testing.T) {
	b := sql.NewNullBitmap(65)
	require.False(t, b.AnyNull())
	b.SetNull(64, true)
	require.True(t, b.IsNull(64))
	require.True(t, b.AnyNull())
	b.SetNull(64, false)
	require.False(t, b.IsNull(64))
}

func TestRecordBatch_RecordsToBatchRoundTrips(t *testing.T) {
	sch := sql.Schema{
		{Name: "id", Type: types.Int64},
		{Name: "name", Type: types.String, Nullable: true},
	}
	records := []sql.Record{
		{sql.Int64Val(1), sql.StringVal("a")},
		{sql.Int64Val(2), sql.Null()},
	}
	batch := sql.RecordsToBatch(sch, records)
	require.Equal(t, 2, batch.NumRows())

	got := batch.ToRecords()
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0][0].Int())
	require.Equal(t, "a", got[0][1].Str())
	require.True(t, got[1][1].IsNull())
}
