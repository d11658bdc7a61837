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

func TestRegexpContains(t *testing.T) {
	e, ok := function.Global().Lookup("REGEXP_CONTAINS")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("hello world"), sql.StringVal("wor.d")})
	require.NoError(t, err)
	require.True(t, v.Bool())
}

func TestRegexpContains_InvalidPatternErrors(t *testing.T) {
	e, _ := function.Global().Lookup("REGEXP_CONTAINS")
	_, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("x"), sql.StringVal("(")})
	require.Error(t, err)
}

func TestRegexpExtract_PrefersFirstCaptureGroup(t *testing.T) {
	e, ok := function.Global().Lookup("REGEXP_EXTRACT")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("foo=bar"), sql.StringVal("foo=(\\w+)")})
	require.NoError(t, err)
	require.Equal(t, "bar", v.Str())
}

func TestRegexpExtract_NoMatchIsNull(t *testing.T) {
	e, _ := function.Global().Lookup("REGEXP_EXTRACT")
	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("nope"), sql.StringVal("\\d+")})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestRegexpReplace(t *testing.T) {
	e, ok := function.Global().Lookup("REGEXP_REPLACE")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("a1b2c3"), sql.StringVal("\\d"), sql.StringVal("#")})
	require.NoError(t, err)
	require.Equal(t, "a#b#c#", v.Str())
}
