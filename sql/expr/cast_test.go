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

func TestCast_StringToInt64(t *testing.T) {
	c := expr.NewCast(lit(sql.StringVal("42"), types.String), types.Int64, false)
	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int())
}

func TestCast_InvalidCastPropagatesError(t *testing.T) {
	c := expr.NewCast(lit(sql.StringVal("not-a-number"), types.String), types.Int64, false)
	_, err := c.Eval(newCtx(), nil)
	require.Error(t, err)
}

func TestCast_SafeCastRecoversToNullOnError(t *testing.T) {
	c := expr.NewCast(lit(sql.StringVal("not-a-number"), types.String), types.Int64, true)
	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestCast_NullOperandStaysNull(t *testing.T) {
	c := expr.NewCast(lit(sql.Null(), types.String), types.Int64, false)
	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestCast_Int64ToFloat64(t *testing.T) {
	c := expr.NewCast(lit(sql.Int64Val(7), types.Int64), types.Float64, false)
	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, 7.0, v.Float())
}

func TestCastValue_BoolToStringAndBack(t *testing.T) {
	s, err := expr.CastValue(sql.BoolVal(true), types.String)
	require.NoError(t, err)
	require.Equal(t, "true", s.Str())

	b, err := expr.CastValue(sql.StringVal("true"), types.Bool)
	require.NoError(t, err)
	require.True(t, b.Bool())
}

func TestCastValue_DateRoundTripsThroughString(t *testing.T) {
	d, err := expr.CastValue(sql.StringVal("2024-03-15"), types.Date)
	require.NoError(t, err)
	back, err := expr.CastValue(d, types.String)
	require.NoError(t, err)
	require.Equal(t, "2024-03-15", back.Str())
}
