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
	"github.com/coldbrook-data/bqengine/sql/types"
)

func newCtx() *sql.Context {
	return sql.NewContext(nil, nil)
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	e, ok := function.Global().Lookup("upper")
	require.True(t, ok)
	require.Equal(t, "UPPER", e.Name)

	e2, ok := function.Global().Lookup("UPPER")
	require.True(t, ok)
	require.Same(t, e, e2)
}

func TestRegistry_LookupMissing(t *testing.T) {
	_, ok := function.Global().Lookup("NOT_A_REAL_FUNCTION")
	require.False(t, ok)
}

func TestEntry_CallRowPropagatesNullByDefault(t *testing.T) {
	e, ok := function.Global().Lookup("UPPER")
	require.True(t, ok)

	v, err := e.CallRow(newCtx(), []sql.Value{sql.Null()})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestEntry_CallRowUpper(t *testing.T) {
	e, ok := function.Global().Lookup("UPPER")
	require.True(t, ok)

	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("abc")})
	require.NoError(t, err)
	require.Equal(t, "ABC", v.Str())
}

func TestEntry_CallRowConcat(t *testing.T) {
	e, ok := function.Global().Lookup("CONCAT")
	require.True(t, ok)

	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("a"), sql.StringVal("b"), sql.StringVal("c")})
	require.NoError(t, err)
	require.Equal(t, "abc", v.Str())
}

func TestEntry_CallRowAbsAcrossKinds(t *testing.T) {
	e, ok := function.Global().Lookup("ABS")
	require.True(t, ok)

	v, err := e.CallRow(newCtx(), []sql.Value{sql.Int64Val(-5)})
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Int())

	v, err = e.CallRow(newCtx(), []sql.Value{sql.Float64Val(-2.5)})
	require.NoError(t, err)
	require.Equal(t, 2.5, v.Float())
}

func TestEntry_CallVecFallsBackToBroadcastRowwise(t *testing.T) {
	e, ok := function.Global().Lookup("LENGTH")
	require.True(t, ok)

	col := sql.NewColumn(types.String, 3)
	col.Set(0, sql.StringVal("a"))
	col.Set(1, sql.StringVal("abc"))
	// row 2 left null

	out, err := e.CallVec(newCtx(), []*sql.Column{col}, 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), out.Get(0).Int())
	require.Equal(t, int64(3), out.Get(1).Int())
	require.True(t, out.IsNull(2))
}

func TestStaticReturn_IgnoresArgTypes(t *testing.T) {
	fn := function.StaticReturn(types.String)
	got, err := fn(nil)
	require.NoError(t, err)
	require.Equal(t, types.String, got)
}

func TestFirstArgReturn_ErrorsOnNoArgs(t *testing.T) {
	fn := function.FirstArgReturn()
	_, err := fn(nil)
	require.Error(t, err)
}
