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

package planner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/planner"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

type stubParser struct{}

func (stubParser) Parse(string) (ast.Statement, error) {
	return nil, sql.ErrUnsupported("stubParser never re-parses in these tests")
}

func usersSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64},
		{Name: "name", Type: types.String, Nullable: true},
	}
}

func litInt(n int64) *ast.Literal { return &ast.Literal{Raw: n} }

func TestPlan_SelectNoFromYieldsEmptyUnderProject(t *testing.T) {
	db := memory.NewDatabase("db")
	p := planner.New(db, stubParser{})

	stmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Expr: litInt(1), Alias: "one"}},
	}
	node, err := p.Plan(stmt)
	require.NoError(t, err)

	proj, ok := node.(*plan.Project)
	require.True(t, ok, "expected *plan.Project, got %T", node)
	require.IsType(t, &plan.Empty{}, proj.Input)
	require.Equal(t, "one", proj.Schema()[0].Name)
}

func TestPlan_SelectFromWhereResolvesColumnsByIndex(t *testing.T) {
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(nil, "users", usersSchema(), false, false))
	p := planner.New(db, stubParser{})

	stmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Expr: &ast.Ident{Name: "name"}}},
		From:       []ast.TableExpr{&ast.TableName{Name: "users"}},
		Where:      &ast.BinaryExpr{Op: ">", Left: &ast.Ident{Name: "id"}, Right: litInt(1)},
	}
	node, err := p.Plan(stmt)
	require.NoError(t, err)

	proj, ok := node.(*plan.Project)
	require.True(t, ok, "expected *plan.Project, got %T", node)
	filt, ok := proj.Input.(*plan.Filter)
	require.True(t, ok, "expected *plan.Filter under Project, got %T", proj.Input)
	_, ok = filt.Input.(*plan.SubqueryAlias)
	require.True(t, ok, "expected aliased Scan under Filter, got %T", filt.Input)
}

func TestPlan_OrderByLimitBuildsTopNEagerly(t *testing.T) {
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(nil, "users", usersSchema(), false, false))
	p := planner.New(db, stubParser{})

	stmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Expr: &ast.Ident{Name: "id"}}},
		From:       []ast.TableExpr{&ast.TableName{Name: "users"}},
		OrderBy:    []ast.OrderItem{{Expr: &ast.Ident{Name: "id"}, Desc: true}},
		Limit:      litInt(3),
	}
	node, err := p.Plan(stmt)
	require.NoError(t, err)

	proj, ok := node.(*plan.Project)
	require.True(t, ok, "expected *plan.Project, got %T", node)
	topn, ok := proj.Input.(*plan.TopN)
	require.True(t, ok, "planner should build *plan.TopN eagerly for ORDER BY + LIMIT, got %T", proj.Input)
	require.Equal(t, int64(3), topn.K)
}

func TestPlan_GroupByAggregateRewritesProjectionToColumn(t *testing.T) {
	db := memory.NewDatabase("db")
	ordersSchema := sql.Schema{
		{Name: "region", Type: types.String},
		{Name: "amount", Type: types.Int64},
	}
	require.NoError(t, db.CreateTable(nil, "orders", ordersSchema, false, false))
	p := planner.New(db, stubParser{})

	stmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{
			{Expr: &ast.Ident{Name: "region"}},
			{Expr: &ast.FuncCall{Name: "SUM", Args: []ast.Expr{&ast.Ident{Name: "amount"}}}, Alias: "total"},
		},
		From:    []ast.TableExpr{&ast.TableName{Name: "orders"}},
		GroupBy: &ast.GroupByClause{Exprs: []ast.Expr{&ast.Ident{Name: "region"}}},
	}
	node, err := p.Plan(stmt)
	require.NoError(t, err)

	proj, ok := node.(*plan.Project)
	require.True(t, ok, "expected *plan.Project, got %T", node)
	_, ok = proj.Input.(*plan.Aggregate)
	require.True(t, ok, "expected *plan.Aggregate under Project, got %T", proj.Input)
	require.Len(t, proj.Columns, 2)
}

func TestPlan_UnresolvedColumnErrors(t *testing.T) {
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(nil, "users", usersSchema(), false, false))
	p := planner.New(db, stubParser{})

	stmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Expr: &ast.Ident{Name: "nonexistent"}}},
		From:       []ast.TableExpr{&ast.TableName{Name: "users"}},
	}
	_, err := p.Plan(stmt)
	require.Error(t, err)
}

func TestPlan_UnknownTableErrors(t *testing.T) {
	db := memory.NewDatabase("db")
	p := planner.New(db, stubParser{})

	stmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Expr: &ast.Ident{Name: "id"}}},
		From:       []ast.TableExpr{&ast.TableName{Name: "ghost"}},
	}
	_, err := p.Plan(stmt)
	require.Error(t, err)
}
