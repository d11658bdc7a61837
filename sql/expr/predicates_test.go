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

func TestIsNull_NegatedAndPlain(t *testing.T) {
	isNull := expr.NewIsNull(lit(sql.Null(), types.Int64), false)
	v, err := isNull.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.Bool())

	isNotNull := expr.NewIsNull(lit(sql.Int64Val(1), types.Int64), true)
	v, err = isNotNull.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.Bool())
}

func TestIsDistinctFrom_NullsAreNotDistinctFromEachOther(t *testing.T) {
	d := expr.NewIsDistinctFrom(lit(sql.Null(), types.Int64), lit(sql.Null(), types.Int64), false)
	v, err := d.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.False(t, v.Bool())
}

func TestIsDistinctFrom_NullVsValueIsDistinct(t *testing.T) {
	d := expr.NewIsDistinctFrom(lit(sql.Null(), types.Int64), lit(sql.Int64Val(1), types.Int64), false)
	v, err := d.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.Bool())
}

func TestLike_PercentAndUnderscoreWildcards(t *testing.T) {
	require.True(t, expr.MatchLike("hello", "h%o", false))
	require.True(t, expr.MatchLike("hello", "h_llo", false))
	require.False(t, expr.MatchLike("hello", "h_lo", false))
}

func TestLike_CaseInsensitive(t *testing.T) {
	require.True(t, expr.MatchLike("HELLO", "hello", true))
	require.False(t, expr.MatchLike("HELLO", "hello", false))
}

func TestLike_EvalHonorsNegated(t *testing.T) {
	l := expr.NewLike(lit(sql.StringVal("abc"), types.String), lit(sql.StringVal("a%"), types.String), true, false)
	v, err := l.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.False(t, v.Bool())
}

func TestInList_MatchAndNullHandling(t *testing.T) {
	in := expr.NewInList(lit(sql.Int64Val(2), types.Int64), []expr.Expr{
		lit(sql.Int64Val(1), types.Int64),
		lit(sql.Int64Val(2), types.Int64),
	}, false)
	v, err := in.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.Bool())

	// non-matching value with a NULL present in the list => NULL
	notFound := expr.NewInList(lit(sql.Int64Val(3), types.Int64), []expr.Expr{
		lit(sql.Int64Val(1), types.Int64),
		lit(sql.Null(), types.Int64),
	}, false)
	v, err = notFound.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestBetween_InclusiveBounds(t *testing.T) {
	b := expr.NewBetween(lit(sql.Int64Val(5), types.Int64), lit(sql.Int64Val(1), types.Int64), lit(sql.Int64Val(5), types.Int64), false)
	v, err := b.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.Bool())
}

func TestBetween_Negated(t *testing.T) {
	b := expr.NewBetween(lit(sql.Int64Val(10), types.Int64), lit(sql.Int64Val(1), types.Int64), lit(sql.Int64Val(5), types.Int64), true)
	v, err := b.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.Bool())
}
