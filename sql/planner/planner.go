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

package planner

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// Parser turns SQL text into an AST; views, TVF bodies and EXECUTE
// IMMEDIATE all need to parse a second string mid-plan, so the Planner
// holds one rather than importing sql/parser directly (sql/parser in turn
// has no reason to import sql/planner, but keeping the dependency
// injected avoids ever having to care about the direction).
type Parser interface {
	Parse(sqlText string) (ast.Statement, error)
}

// Planner lowers a parsed AST statement into a Logical Plan.
type Planner struct {
	Catalog sql.Catalog
	Parser  Parser
}

func New(cat sql.Catalog, parser Parser) *Planner {
	return &Planner{Catalog: cat, Parser: parser}
}

func (p *Planner) parseSQL(text string) (ast.Statement, error) {
	if p.Parser == nil {
		return nil, sql.ErrInternal("planner: no parser configured")
	}
	return p.Parser.Parse(text)
}

// Plan is the package's entry point: parse has already happened by the
// time a Statement reaches here (top-level callers go through the
// Parser themselves so parse errors surface before planning starts).
func (p *Planner) Plan(stmt ast.Statement) (plan.Node, error) {
	pn, err := p.planStatementWithOuter(stmt, nil)
	if err != nil {
		return nil, err
	}
	return pn.node, nil
}

// planStatementWithOuter dispatches every ast.Statement variant that can
// appear nested (as a CTE body, subquery, view body, or TVF body) or at
// the top level, threading outer through for correlated-subquery scoping.
func (p *Planner) planStatementWithOuter(stmt ast.Statement, outer *scope) (*plannedNode, error) {
	switch n := stmt.(type) {
	case *ast.SelectStmt:
		return p.planSelect(n, outer)
	case *ast.SetOpStmt:
		return p.planSetOp(n, outer)
	case *ast.InsertStmt:
		return p.planInsert(n, outer)
	case *ast.UpdateStmt:
		return p.planUpdate(n, outer)
	case *ast.DeleteStmt:
		return p.planDelete(n, outer)
	case *ast.MergeStmt:
		return p.planMerge(n, outer)
	case *ast.CreateTableStmt:
		return p.planCreateTable(n, outer)
	case *ast.CreateViewStmt:
		return p.planCreateView(n, outer)
	case *ast.CreateFunctionStmt:
		return p.planCreateFunction(n, outer)
	case *ast.CreateSchemaStmt:
		return p.planCreateSchema(n, outer)
	case *ast.AlterTableStmt:
		return p.planAlterTable(n, outer)
	case *ast.BlockStmt:
		return p.planBlock(n, outer)
	case *ast.DeclareStmt:
		return p.planDeclare(n, outer)
	case *ast.SetStmt:
		return p.planSet(n, outer)
	case *ast.IfStmt:
		return p.planIf(n, outer)
	case *ast.WhileStmt:
		return p.planWhile(n, outer)
	case *ast.LoopStmt:
		return p.planLoop(n, outer)
	case *ast.RepeatStmt:
		return p.planRepeat(n, outer)
	case *ast.ForStmt:
		return p.planFor(n, outer)
	case *ast.BreakStmt:
		return &plannedNode{node: &plan.Break{}}, nil
	case *ast.ContinueStmt:
		return &plannedNode{node: &plan.Continue{}}, nil
	case *ast.ReturnStmt:
		return p.planReturn(n, outer)
	case *ast.RaiseStmt:
		return p.planRaise(n, outer)
	case *ast.TryCatchStmt:
		return p.planTryCatch(n, outer)
	case *ast.ExecuteImmediateStmt:
		return p.planExecuteImmediate(n, outer)
	case *ast.AssertStmt:
		return p.planAssert(n, outer)
	case *ast.BeginTxnStmt:
		return &plannedNode{node: &plan.Transaction{Kind: plan.TxBegin}}, nil
	case *ast.CommitTxnStmt:
		return &plannedNode{node: &plan.Transaction{Kind: plan.TxCommit}}, nil
	case *ast.RollbackTxnStmt:
		return &plannedNode{node: &plan.Transaction{Kind: plan.TxRollback}}, nil
	default:
		return nil, sql.ErrUnsupported("unsupported statement %T", stmt)
	}
}
