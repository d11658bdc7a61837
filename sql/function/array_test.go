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

package function_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/function"
)

func arr(vs ...sql.Value) sql.Value { return sql.ArrayVal(vs) }

func TestArrayLength(t *testing.T) {
	e, ok := function.Global().Lookup("ARRAY_LENGTH")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(1), sql.Int64Val(2), sql.Int64Val(3))})
	require.NoError(t, err)
	require.Equal(t, int64(3), v.Int())
}

func TestArrayToString_SkipsNullsWithoutReplacement(t *testing.T) {
	e, ok := function.Global().Lookup("ARRAY_TO_STRING")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{arr(sql.StringVal("a"), sql.Null(), sql.StringVal("b")), sql.StringVal(",")})
	require.NoError(t, err)
	require.Equal(t, "a,b", v.Str())
}

func TestArrayConcat(t *testing.T) {
	e, ok := function.Global().Lookup("ARRAY_CONCAT")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(1)), arr(sql.Int64Val(2), sql.Int64Val(3))})
	require.NoError(t, err)
	require.Len(t, v.Array(), 3)
}

func TestArrayContainsAndPosition(t *testing.T) {
	contains, _ := function.Global().Lookup("ARRAY_CONTAINS")
	v, err := contains.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(5), sql.Int64Val(7)), sql.Int64Val(7)})
	require.NoError(t, err)
	require.True(t, v.Bool())

	pos, _ := function.Global().Lookup("ARRAY_POSITION")
	v, err = pos.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(5), sql.Int64Val(7)), sql.Int64Val(7)})
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Int()) // 1-based
}

func TestGenerateArray_AscendingRange(t *testing.T) {
	e, ok := function.Global().Lookup("GENERATE_ARRAY")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{sql.Int64Val(1), sql.Int64Val(5), sql.Int64Val(2)})
	require.NoError(t, err)
	got := v.Array()
	require.Len(t, got, 3)
	require.Equal(t, int64(1), got[0].Int())
	require.Equal(t, int64(3), got[1].Int())
	require.Equal(t, int64(5), got[2].Int())
}

func TestGenerateArray_ZeroStepErrors(t *testing.T) {
	e, _ := function.Global().Lookup("GENERATE_ARRAY")
	_, err := e.CallRow(newCtx(), []sql.Value{sql.Int64Val(1), sql.Int64Val(5), sql.Int64Val(0)})
	require.Error(t, err)
}

func TestArrayDistinct(t *testing.T) {
	e, _ := function.Global().Lookup("ARRAY_DISTINCT")
	v, err := e.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(1), sql.Int64Val(1), sql.Int64Val(2))})
	require.NoError(t, err)
	require.Len(t, v.Array(), 2)
}

func TestArraySumAndAvg(t *testing.T) {
	sum, _ := function.Global().Lookup("ARRAY_SUM")
	v, err := sum.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(1), sql.Int64Val(2), sql.Int64Val(3))})
	require.NoError(t, err)
	require.Equal(t, 6.0, v.Float())

	avg, _ := function.Global().Lookup("ARRAY_AVG")
	v, err = avg.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(1), sql.Int64Val(2), sql.Int64Val(3))})
	require.NoError(t, err)
	require.Equal(t, 2.0, v.Float())
}

func TestOffsetAndSafeOffset(t *testing.T) {
	off, _ := function.Global().Lookup("OFFSET")
	v, err := off.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(10), sql.Int64Val(20)), sql.Int64Val(1)})
	require.NoError(t, err)
	require.Equal(t, int64(20), v.Int())

	_, err = off.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(10)), sql.Int64Val(5)})
	require.Error(t, err)

	safe, _ := function.Global().Lookup("SAFE_OFFSET")
	v, err = safe.CallRow(newCtx(), []sql.Value{arr(sql.Int64Val(10)), sql.Int64Val(5)})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestArraySlice(t *testing.T) {
	e, _ := function.Global().Lookup("ARRAY_SLICE")
	v, err := e.CallRow(newCtx(), []sql.Value{
		arr(sql.Int64Val(0), sql.Int64Val(1), sql.Int64Val(2), sql.Int64Val(3)),
		sql.Int64Val(1), sql.Int64Val(2),
	})
	require.NoError(t, err)
	got := v.Array()
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].Int())
	require.Equal(t, int64(2), got[1].Int())
}
