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

package bqengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	bqengine "github.com/coldbrook-data/bqengine"
	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
)

// fakeParser satisfies planner.Parser without a tokenizer/grammar: every
// statement this engine runs in tests is hand-built and handed to Parse
// keyed by the SQL text used purely as a lookup token, mirroring how
// go-mysql-server's own enginetest harnesses stub out collaborators they
// don't own.
type fakeParser struct {
	stmts map[string]ast.Statement
}

func newFakeParser() *fakeParser {
	return &fakeParser{stmts: make(map[string]ast.Statement)}
}

func (p *fakeParser) register(key string, stmt ast.Statement) {
	p.stmts[key] = stmt
}

func (p *fakeParser) Parse(sqlText string) (ast.Statement, error) {
	stmt, ok := p.stmts[sqlText]
	if !ok {
		return nil, sql.ErrInvalidQuery("fakeParser: no fixture registered for %q", sqlText)
	}
	return stmt, nil
}

// RequireRows asserts a ResultSet's flattened rows match want exactly,
// order-sensitive, the way an assert_table_eq! helper compares a query's
// output against an expected table literal.
func RequireRows(t *testing.T, rs *bqengine.ResultSet, want []sql.Record) {
	t.Helper()
	got := rs.ToRecords()
	require.Equal(t, len(want), len(got), "row count mismatch")
	for i := range want {
		require.Equal(t, len(want[i]), len(got[i]), "row %d column count mismatch", i)
		for j := range want[i] {
			require.True(t, sql.Compare(want[i][j], got[i][j]) == 0,
				"row %d col %d: want %v got %v", i, j, want[i][j], got[i][j])
		}
	}
}

func litInt(n int64) *ast.Literal { return &ast.Literal{Raw: n} }
func litStr(s string) *ast.Literal { return &ast.Literal{Raw: s} }

func TestExec_SelectLiteralNoFrom(t *testing.T) {
	p := newFakeParser()
	p.register("SELECT 1", &ast.SelectStmt{
		SelectList: []ast.SelectItem{{Expr: litInt(1), Alias: "x"}},
	})

	db := memory.NewDatabase("test")
	eng := bqengine.New(db, p, bqengine.Config{})
	sess := eng.NewSession(context.Background())

	rs, err := sess.Exec(context.Background(), "SELECT 1")
	require.NoError(t, err)
	RequireRows(t, rs, []sql.Record{{sql.Int64Val(1)}})
}

func TestExec_CreateInsertSelect(t *testing.T) {
	p := newFakeParser()
	p.register("CREATE TABLE users", &ast.CreateTableStmt{
		Name: "users",
		Columns: []ast.ColumnDef{
			{Name: "id", Type: "INT64"},
			{Name: "name", Type: "STRING", Nullable: true},
		},
	})
	p.register("INSERT INTO users", &ast.InsertStmt{
		Table:   "users",
		Columns: []string{"id", "name"},
		Values: [][]ast.Expr{
			{litInt(1), litStr("alice")},
			{litInt(2), litStr("bob")},
			{litInt(3), litStr("carol")},
		},
	})
	p.register("SELECT FROM users", &ast.SelectStmt{
		SelectList: []ast.SelectItem{
			{Expr: &ast.Ident{Name: "id"}},
			{Expr: &ast.Ident{Name: "name"}},
		},
		From:  []ast.TableExpr{&ast.TableName{Name: "users"}},
		Where: &ast.BinaryExpr{Op: ">", Left: &ast.Ident{Name: "id"}, Right: litInt(1)},
		OrderBy: []ast.OrderItem{
			{Expr: &ast.Ident{Name: "id"}},
		},
	})

	db := memory.NewDatabase("test")
	eng := bqengine.New(db, p, bqengine.Config{})
	sess := eng.NewSession(context.Background())

	_, err := sess.Exec(context.Background(), "CREATE TABLE users")
	require.NoError(t, err)

	rs, err := sess.Exec(context.Background(), "INSERT INTO users")
	require.NoError(t, err)
	require.Equal(t, int64(3), rs.RowsAffected)

	rs, err = sess.Exec(context.Background(), "SELECT FROM users")
	require.NoError(t, err)
	RequireRows(t, rs, []sql.Record{
		{sql.Int64Val(2), sql.StringVal("bob")},
		{sql.Int64Val(3), sql.StringVal("carol")},
	})
}

func TestExec_GroupByAggregate(t *testing.T) {
	p := newFakeParser()
	p.register("CREATE TABLE orders", &ast.CreateTableStmt{
		Name: "orders",
		Columns: []ast.ColumnDef{
			{Name: "region", Type: "STRING"},
			{Name: "amount", Type: "INT64"},
		},
	})
	p.register("INSERT INTO orders", &ast.InsertStmt{
		Table:   "orders",
		Columns: []string{"region", "amount"},
		Values: [][]ast.Expr{
			{litStr("east"), litInt(10)},
			{litStr("east"), litInt(5)},
			{litStr("west"), litInt(7)},
		},
	})
	p.register("SELECT SUM amount BY region", &ast.SelectStmt{
		SelectList: []ast.SelectItem{
			{Expr: &ast.Ident{Name: "region"}},
			{Expr: &ast.FuncCall{Name: "SUM", Args: []ast.Expr{&ast.Ident{Name: "amount"}}}, Alias: "total"},
		},
		From:    []ast.TableExpr{&ast.TableName{Name: "orders"}},
		GroupBy: &ast.GroupByClause{Exprs: []ast.Expr{&ast.Ident{Name: "region"}}},
		OrderBy: []ast.OrderItem{{Expr: &ast.Ident{Name: "region"}}},
	})

	db := memory.NewDatabase("test")
	eng := bqengine.New(db, p, bqengine.Config{})
	sess := eng.NewSession(context.Background())

	_, err := sess.Exec(context.Background(), "CREATE TABLE orders")
	require.NoError(t, err)
	_, err = sess.Exec(context.Background(), "INSERT INTO orders")
	require.NoError(t, err)

	rs, err := sess.Exec(context.Background(), "SELECT SUM amount BY region")
	require.NoError(t, err)
	RequireRows(t, rs, []sql.Record{
		{sql.StringVal("east"), sql.Float64Val(15)},
		{sql.StringVal("west"), sql.Float64Val(7)},
	})
}

func TestExec_ReadOnlyRejectsWrite(t *testing.T) {
	p := newFakeParser()
	p.register("DELETE FROM users", &ast.DeleteStmt{Table: "users"})

	db := memory.NewDatabase("test")
	eng := bqengine.New(db, p, bqengine.Config{IsReadOnly: true})
	sess := eng.NewSession(context.Background())

	_, err := sess.Exec(context.Background(), "DELETE FROM users")
	require.Error(t, err)
}
