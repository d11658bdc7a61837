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
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/exec"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/planner"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func itemsSchema() sql.Schema {
	return sql.Schema{
		{Name: "id", Type: types.Int64, Table: "items"},
		{Name: "price", Type: types.Int64, Table: "items"},
	}
}

func testCtx() *sql.Context {
	return sql.NewContext(context.Background(), logrus.NewEntry(logrus.StandardLogger()))
}

// registerTableFunction plans a CREATE TABLE FUNCTION statement and runs
// it through exec.Open, the same path the engine uses end to end, so the
// catalog ends up holding exactly the FuncDef the executor would build.
func registerTableFunction(t *testing.T, p *planner.Planner, db *memory.Database, ctx *sql.Context, stmt *ast.CreateFunctionStmt) {
	t.Helper()
	node, err := p.Plan(stmt)
	require.NoError(t, err)
	it, err := exec.Open(ctx, node, db)
	require.NoError(t, err)
	_, err = it.Next(ctx)
	require.NoError(t, err)
	require.NoError(t, it.Close(ctx))
}

// TestPlanCreateFunction_TableValuedPlansBodyEagerly covers the preferred
// TVF substitution path: a parameter referenced only in the body's WHERE
// clause resolves through the same outer-scope mechanism a correlated
// subquery uses, so CREATE TABLE FUNCTION plans the body once up front
// instead of storing it as unplanned text.
func TestPlanCreateFunction_TableValuedPlansBodyEagerly(t *testing.T) {
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(nil, "items", itemsSchema(), false, false))
	p := planner.New(db, stubParser{})

	stmt := &ast.CreateFunctionStmt{
		Name:      "region_items",
		IsTableFn: true,
		Params:    []ast.ColumnDef{{Name: "threshold", Type: "INT64"}},
		BodyQuery: &ast.SelectStmt{
			SelectList: []ast.SelectItem{{Star: true}},
			From:       []ast.TableExpr{&ast.TableName{Name: "items"}},
			Where:      &ast.BinaryExpr{Op: ">", Left: &ast.Ident{Name: "price"}, Right: &ast.Ident{Name: "threshold"}},
		},
	}
	node, err := p.Plan(stmt)
	require.NoError(t, err)

	cf, ok := node.(*plan.CreateFunction)
	require.True(t, ok, "expected *plan.CreateFunction, got %T", node)
	require.Equal(t, sql.FuncBodySQLExpr, cf.BodyKind)
	require.NotNil(t, cf.Plan)
	require.Len(t, cf.PlanVars, 1)
}

// TestPlanTVFCall_PreferredPathInlinesArgumentByVariableRewrite exercises
// the full round trip: create the table function, call it with a literal
// argument, and confirm the call inlines straight into the pre-planned
// body (no second parse) with the threshold bound to the literal.
func TestPlanTVFCall_PreferredPathInlinesArgumentByVariableRewrite(t *testing.T) {
	ctx := testCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "items", itemsSchema(), false, false))
	_, err := db.InsertRows(ctx, "items", []sql.Record{
		{sql.Int64Val(1), sql.Int64Val(5)},
		{sql.Int64Val(2), sql.Int64Val(50)},
	})
	require.NoError(t, err)

	p := planner.New(db, stubParser{})
	registerTableFunction(t, p, db, ctx, &ast.CreateFunctionStmt{
		Name:      "region_items",
		IsTableFn: true,
		Params:    []ast.ColumnDef{{Name: "threshold", Type: "INT64"}},
		BodyQuery: &ast.SelectStmt{
			SelectList: []ast.SelectItem{{Star: true}},
			From:       []ast.TableExpr{&ast.TableName{Name: "items"}},
			Where:      &ast.BinaryExpr{Op: ">", Left: &ast.Ident{Name: "price"}, Right: &ast.Ident{Name: "threshold"}},
		},
	})

	callStmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Star: true}},
		From: []ast.TableExpr{&ast.TVFCall{
			Name: "region_items",
			Args: []ast.Expr{litInt(10)},
		}},
	}
	node, err := p.Plan(callStmt)
	require.NoError(t, err)

	it, err := exec.Open(ctx, node, db)
	require.NoError(t, err)
	var rows []sql.Record
	for {
		b, err := it.Next(ctx)
		if err == sql.ErrEndOfBatches {
			break
		}
		require.NoError(t, err)
		rows = append(rows, b.ToRecords()...)
	}
	require.NoError(t, it.Close(ctx))

	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0][0].Int())
}

// TestPlanTVFCall_TextualFallbackSubstitutesAndReparses covers the
// fallback path for a TVF whose body was stored as raw SQL text: the
// call site's word-boundary substitution rewrites the parameter
// reference and the result is reparsed through the Planner's Parser.
func TestPlanTVFCall_TextualFallbackSubstitutesAndReparses(t *testing.T) {
	ctx := testCtx()
	db := memory.NewDatabase("db")
	require.NoError(t, db.CreateTable(ctx, "items", itemsSchema(), false, false))
	_, err := db.InsertRows(ctx, "items", []sql.Record{
		{sql.Int64Val(1), sql.Int64Val(5)},
		{sql.Int64Val(2), sql.Int64Val(50)},
	})
	require.NoError(t, err)

	require.NoError(t, db.CreateFunction(ctx, "region_items", sql.FuncDef{
		Name:       "region_items",
		Parameters: []sql.FuncParam{{Name: "threshold", Type: types.Int64}},
		IsTableFn:  true,
		BodyKind:   sql.FuncBodySQLQuery,
		SQLQuery:   "SELECT * FROM items WHERE price > threshold",
	}, false))

	rewrittenStmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Star: true}},
		From:       []ast.TableExpr{&ast.TableName{Name: "items"}},
		Where:      &ast.BinaryExpr{Op: ">", Left: &ast.Ident{Name: "price"}, Right: litInt(10)},
	}
	fp := fakeParser{stmts: map[string]ast.Statement{
		"SELECT * FROM items WHERE price > 10": rewrittenStmt,
	}}
	p := planner.New(db, fp)

	callStmt := &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Star: true}},
		From: []ast.TableExpr{&ast.TVFCall{
			Name: "region_items",
			Args: []ast.Expr{litInt(10)},
		}},
	}
	node, err := p.Plan(callStmt)
	require.NoError(t, err)

	it, err := exec.Open(ctx, node, db)
	require.NoError(t, err)
	var rows []sql.Record
	for {
		b, err := it.Next(ctx)
		if err == sql.ErrEndOfBatches {
			break
		}
		require.NoError(t, err)
		rows = append(rows, b.ToRecords()...)
	}
	require.NoError(t, it.Close(ctx))

	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0][0].Int())
}

type fakeParser struct {
	stmts map[string]ast.Statement
}

func (p fakeParser) Parse(text string) (ast.Statement, error) {
	stmt, ok := p.stmts[text]
	if !ok {
		return nil, sql.ErrInvalidQuery("fakeParser: no fixture registered for %q", text)
	}
	return stmt, nil
}
