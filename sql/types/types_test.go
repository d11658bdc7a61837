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

package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func TestSimpleType_EqualAndZero(t *testing.T) {
	require.True(t, types.Int64.Equal(types.Int64))
	require.False(t, types.Int64.Equal(types.String))
	require.Equal(t, int64(0), types.Int64.Zero().Int())
	require.Equal(t, "", types.String.Zero().Str())
}

func TestArrayType_EqualComparesElement(t *testing.T) {
	a := types.ArrayType{Elem: types.Int64}
	b := types.ArrayType{Elem: types.Int64}
	c := types.ArrayType{Elem: types.String}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.Equal(t, "ARRAY<INT64>", a.String())
}

func TestStructType_EqualRequiresSameFieldsInOrder(t *testing.T) {
	a := types.StructType{Fields: []sql.StructFieldType{{Name: "x", Type: types.Int64}}}
	b := types.StructType{Fields: []sql.StructFieldType{{Name: "x", Type: types.Int64}}}
	c := types.StructType{Fields: []sql.StructFieldType{{Name: "y", Type: types.Int64}}}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.Equal(t, 0, a.FieldIndex("x"))
	require.Equal(t, -1, a.FieldIndex("y"))
}

func TestNumericType_MaxDigitsAndScale(t *testing.T) {
	require.Equal(t, int32(38), types.Numeric.MaxDigits())
	require.Equal(t, int32(9), types.Numeric.MaxScale())
	require.Equal(t, int32(76), types.BigNumeric.MaxDigits())
	require.Equal(t, int32(38), types.BigNumeric.MaxScale())
	require.False(t, types.Numeric.Equal(types.BigNumeric))
}

func TestIsNumeric(t *testing.T) {
	require.True(t, types.IsNumeric(types.Int64))
	require.True(t, types.IsNumeric(types.Float64))
	require.True(t, types.IsNumeric(types.Numeric))
	require.False(t, types.IsNumeric(types.String))
}

func TestIsComparable(t *testing.T) {
	require.True(t, types.IsComparable(types.Int64, types.Int64))
	require.True(t, types.IsComparable(types.Int64, types.Float64))
	require.False(t, types.IsComparable(types.String, types.Int64))
}
