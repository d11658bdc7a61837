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

func TestParseJsonAndToJsonString_RoundTrip(t *testing.T) {
	parse, ok := function.Global().Lookup("PARSE_JSON")
	require.True(t, ok)
	v, err := parse.CallRow(newCtx(), []sql.Value{sql.StringVal(`{"a":1,"b":"x"}`)})
	require.NoError(t, err)
	require.Equal(t, sql.KJson, v.Kind)

	toStr, ok := function.Global().Lookup("TO_JSON_STRING")
	require.True(t, ok)
	s, err := toStr.CallRow(newCtx(), []sql.Value{v})
	require.NoError(t, err)
	require.Contains(t, s.Str(), `"a":1`)
}

func TestParseJson_InvalidJsonErrors(t *testing.T) {
	e, _ := function.Global().Lookup("PARSE_JSON")
	_, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal("not json")})
	require.Error(t, err)
}

func TestJsonValue_ExtractsScalarByPath(t *testing.T) {
	e, ok := function.Global().Lookup("JSON_VALUE")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{
		sql.StringVal(`{"a":{"b":"hello"}}`),
		sql.StringVal("$.a.b"),
	})
	require.NoError(t, err)
	require.Equal(t, "hello", v.Str())
}

func TestJsonValue_MissingPathIsNull(t *testing.T) {
	e, _ := function.Global().Lookup("JSON_VALUE")
	v, err := e.CallRow(newCtx(), []sql.Value{
		sql.StringVal(`{"a":1}`),
		sql.StringVal("$.missing"),
	})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestJsonQuery_ReturnsRawJson(t *testing.T) {
	e, ok := function.Global().Lookup("JSON_QUERY")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{
		sql.StringVal(`{"a":{"b":2}}`),
		sql.StringVal("$.a"),
	})
	require.NoError(t, err)
	require.Equal(t, sql.KJson, v.Kind)
}

func TestJsonType(t *testing.T) {
	e, ok := function.Global().Lookup("JSON_TYPE")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal(`{"a":1}`)})
	require.NoError(t, err)
	require.Equal(t, "object", v.Str())
}

func TestJsonKeys(t *testing.T) {
	e, ok := function.Global().Lookup("JSON_KEYS")
	require.True(t, ok)
	v, err := e.CallRow(newCtx(), []sql.Value{sql.StringVal(`{"a":1,"b":2}`)})
	require.NoError(t, err)
	require.Len(t, v.Array(), 2)
}

func TestJsonObjectAndArray_AreNullTolerant(t *testing.T) {
	obj, ok := function.Global().Lookup("JSON_OBJECT")
	require.True(t, ok)
	require.True(t, obj.NullTolerant)

	arr, ok := function.Global().Lookup("JSON_ARRAY")
	require.True(t, ok)
	require.True(t, arr.NullTolerant)
}
