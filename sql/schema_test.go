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

func joinSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64, Table: "l"},
		{Name: "id", Type: types.Int64, Table: "r"},
		{Name: "name", Type: types.String, Table: "l"},
	}
}

func TestSchema_IndexOfQualifiedPreferred(t *testing.T) {
	sch := joinSchema()
	require.Equal(t, 0, sch.IndexOf("l", "id"))
	require.Equal(t, 1, sch.IndexOf("r", "id"))
}

func TestSchema_IndexOfUnqualifiedAmbiguous(t *testing.T) {
	sch := joinSchema()
	require.Equal(t, -2, sch.IndexOf("", "id"))
}

func TestSchema_IndexOfUnqualifiedUnique(t *testing.T) {
	sch := joinSchema()
	require.Equal(t, 2, sch.IndexOf("", "name"))
}

func TestSchema_IndexOfMissing(t *testing.T) {
	sch := joinSchema()
	require.Equal(t, -1, sch.IndexOf("", "ghost"))
}

func TestSchema_NamesAndConcat(t *testing.T) {
	left := sql.Schema{{Name: "id", Type: types.Int64}}
	right := sql.Schema{{Name: "note", Type: types.String}}
	combined := left.Concat(right)
	require.Equal(t, []string{"id", "note"}, combined.Names())
}

func TestSchema_CloneIsIndependent(t *testing.T) {
	sch := sql.Schema{{Name: "id", Type: types.Int64}}
	clone := sch.Clone()
	clone[0].Name = "other"
	require.Equal(t, "id", sch[0].Name)
}
