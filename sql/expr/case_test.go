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

func TestCase_SearchedFormPicksFirstTrueWhen(t *testing.T) {
	c := expr.NewCase(nil, []expr.WhenClause{
		{When: lit(sql.BoolVal(false), types.Bool), Then: lit(sql.StringVal("no"), types.String)},
		{When: lit(sql.BoolVal(true), types.Bool), Then: lit(sql.StringVal("yes"), types.String)},
	}, lit(sql.StringVal("else"), types.String), types.String)

	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, "yes", v.Str())
}

func TestCase_FallsThroughToElse(t *testing.T) {
	c := expr.NewCase(nil, []expr.WhenClause{
		{When: lit(sql.BoolVal(false), types.Bool), Then: lit(sql.StringVal("no"), types.String)},
	}, lit(sql.StringVal("else"), types.String), types.String)

	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, "else", v.Str())
}

func TestCase_NoElseYieldsNull(t *testing.T) {
	c := expr.NewCase(nil, []expr.WhenClause{
		{When: lit(sql.BoolVal(false), types.Bool), Then: lit(sql.StringVal("no"), types.String)},
	}, nil, types.String)

	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestCase_SimpleFormComparesOperandToWhenValues(t *testing.T) {
	c := expr.NewCase(
		lit(sql.Int64Val(2), types.Int64),
		[]expr.WhenClause{
			{When: lit(sql.Int64Val(1), types.Int64), Then: lit(sql.StringVal("one"), types.String)},
			{When: lit(sql.Int64Val(2), types.Int64), Then: lit(sql.StringVal("two"), types.String)},
		},
		lit(sql.StringVal("other"), types.String),
		types.String,
	)

	v, err := c.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, "two", v.Str())
}

func TestCase_ChildrenAndWithChildrenRoundTrip(t *testing.T) {
	c := expr.NewCase(nil, []expr.WhenClause{
		{When: lit(sql.BoolVal(true), types.Bool), Then: lit(sql.Int64Val(1), types.Int64)},
	}, lit(sql.Int64Val(0), types.Int64), types.Int64)

	children := c.Children()
	require.Len(t, children, 3) // when, then, else

	rebuilt, err := c.WithChildren(children)
	require.NoError(t, err)
	v, err := rebuilt.Eval(newCtx(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), v.Int())
}
