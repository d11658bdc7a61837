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
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
)

func TestCompare_NullSortsLast(t *testing.T) {
	require.Equal(t, 1, sql.Compare(sql.Null(), sql.Int64Val(1)))
	require.Equal(t, -1, sql.Compare(sql.Int64Val(1), sql.Null()))
	require.Equal(t, 0, sql.Compare(sql.Null(), sql.Null()))
}

func TestCompare_Int64Ordering(t *testing.T) {
	require.Equal(t, -1, sql.Compare(sql.Int64Val(1), sql.Int64Val(2)))
	require.Equal(t, 1, sql.Compare(sql.Int64Val(2), sql.Int64Val(1)))
	require.Equal(t, 0, sql.Compare(sql.Int64Val(2), sql.Int64Val(2)))
}

func TestCompare_NaNEqualsNaNAndBeatsEveryFloat(t *testing.T) {
	nan := sql.Float64Val(math.NaN())
	require.Equal(t, 0, sql.Compare(nan, sql.Float64Val(math.NaN())))
	require.Equal(t, 1, sql.Compare(nan, sql.Float64Val(1e300)))
	require.Equal(t, -1, sql.Compare(sql.Float64Val(1e300), nan))
}

func TestCompare_StringLexicographic(t *testing.T) {
	require.Equal(t, -1, sql.Compare(sql.StringVal("abc"), sql.StringVal("abd")))
	require.Equal(t, 0, sql.Compare(sql.StringVal("abc"), sql.StringVal("abc")))
}

func TestCompare_NumericUsesDecimalCmp(t *testing.T) {
	a := sql.NumericVal(decimal.NewFromFloat(1.10))
	b := sql.NumericVal(decimal.NewFromFloat(1.2))
	require.Equal(t, -1, sql.Compare(a, b))
}

func TestCompare_ArrayLexicographicThenLength(t *testing.T) {
	short := sql.ArrayVal([]sql.Value{sql.Int64Val(1)})
	long := sql.ArrayVal([]sql.Value{sql.Int64Val(1), sql.Int64Val(2)})
	require.Equal(t, -1, sql.Compare(short, long))
	require.Equal(t, 1, sql.Compare(long, short))
}

func TestCompare_StructFieldwise(t *testing.T) {
	a := sql.StructVal([]sql.StructField{{Name: "x", Value: sql.Int64Val(1)}})
	b := sql.StructVal([]sql.StructField{{Name: "x", Value: sql.Int64Val(2)}})
	require.True(t, sql.Compare(a, b) < 0)
}

func TestValue_Equal(t *testing.T) {
	require.True(t, sql.Int64Val(5).Equal(sql.Int64Val(5)))
	require.False(t, sql.Int64Val(5).Equal(sql.Int64Val(6)))
	require.True(t, sql.Null().Equal(sql.Null()))
}

func TestValue_StructGetIsCaseInsensitive(t *testing.T) {
	s := sql.StructVal([]sql.StructField{{Name: "Name", Value: sql.StringVal("ok")}})
	v, ok := s.StructGet("name")
	require.True(t, ok)
	require.Equal(t, "ok", v.Str())

	_, ok = s.StructGet("missing")
	require.False(t, ok)
}

func TestSortValues_AscAndDesc(t *testing.T) {
	vs := []sql.Value{sql.Int64Val(3), sql.Int64Val(1), sql.Int64Val(2)}
	sql.SortValues(vs, false)
	require.Equal(t, []int64{1, 2, 3}, ints(vs))

	sql.SortValues(vs, true)
	require.Equal(t, []int64{3, 2, 1}, ints(vs))
}

func ints(vs []sql.Value) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.Int()
	}
	return out
}

func TestValue_String(t *testing.T) {
	require.Equal(t, "NULL", sql.Null().String())
	require.Equal(t, "3", sql.Int64Val(3).String())
	require.Equal(t, "[1, 2]", sql.ArrayVal([]sql.Value{sql.Int64Val(1), sql.Int64Val(2)}).String())
}
