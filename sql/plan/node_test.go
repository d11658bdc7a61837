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

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func leaf(name string) *plan.Scan {
	return plan.NewScan(name, "", sql.Schema{{Name: "id", Type: types.Int64, Table: name}})
}

func TestScan_WithChildrenRejectsAny(t *testing.T) {
	s := leaf("t")
	_, err := s.WithChildren([]plan.Node{leaf("u")})
	require.Error(t, err)

	n, err := s.WithChildren(nil)
	require.NoError(t, err)
	require.Same(t, s, n)
}

func TestFilter_WithChildrenRequiresExactlyOne(t *testing.T) {
	f := plan.NewFilter(leaf("t"), expr.NewLiteral(sql.BoolVal(true), types.Bool))

	_, err := f.WithChildren(nil)
	require.Error(t, err)
	_, err = f.WithChildren([]plan.Node{leaf("a"), leaf("b")})
	require.Error(t, err)

	replaced, err := f.WithChildren([]plan.Node{leaf("u")})
	require.NoError(t, err)
	rf := replaced.(*plan.Filter)
	require.Equal(t, "u", rf.Input.(*plan.Scan).Table)
	require.Equal(t, "t", f.Input.(*plan.Scan).Table) // original untouched
}

func TestProject_SchemaReflectsColumnFields(t *testing.T) {
	p := plan.NewProject(leaf("t"), []plan.ProjectColumn{
		{Expr: expr.NewColumn(0, types.Int64, "t", "id", false), Field: sql.PlanField{Name: "id", Type: types.Int64}},
	})
	require.Equal(t, sql.Schema{{Name: "id", Type: types.Int64}}, p.Schema())

	_, err := p.WithChildren(nil)
	require.Error(t, err)
}

func TestJoin_WithChildrenRequiresExactlyTwo(t *testing.T) {
	j := plan.NewJoin(leaf("l"), leaf("r"), plan.JoinInner, expr.NewLiteral(sql.BoolVal(true), types.Bool))

	_, err := j.WithChildren([]plan.Node{leaf("a")})
	require.Error(t, err)

	replaced, err := j.WithChildren([]plan.Node{leaf("x"), leaf("y")})
	require.NoError(t, err)
	rj := replaced.(*plan.Join)
	require.Equal(t, "x", rj.Left.(*plan.Scan).Table)
	require.Equal(t, "y", rj.Right.(*plan.Scan).Table)
}

func TestJoin_SemiAndAntiSchemaIsLeftOnly(t *testing.T) {
	j := plan.NewJoin(leaf("l"), leaf("r"), plan.JoinSemi, nil)
	require.Equal(t, leaf("l").Schema(), j.Schema())
}

func TestLimit_WithChildrenPreservesCountAndOffset(t *testing.T) {
	l := &plan.Limit{Input: leaf("t"), Count: 10, Offset: 5}
	replaced, err := l.WithChildren([]plan.Node{leaf("u")})
	require.NoError(t, err)
	rl := replaced.(*plan.Limit)
	require.Equal(t, int64(10), rl.Count)
	require.Equal(t, int64(5), rl.Offset)
}

func TestValues_RejectsChildren(t *testing.T) {
	v := &plan.Values{Sch: sql.Schema{{Name: "x", Type: types.Int64}}, Rows: []sql.Record{{sql.Int64Val(1)}}}
	_, err := v.WithChildren([]plan.Node{leaf("t")})
	require.Error(t, err)
}
