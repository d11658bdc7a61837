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
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

func (p *Planner) planCreateTable(n *ast.CreateTableStmt, outer *scope) (*plannedNode, error) {
	var asSelect plan.Node
	var corr []expr.CorrelatedParam
	if n.AsQuery != nil {
		inner, err := p.planStatementWithOuter(n.AsQuery, outer)
		if err != nil {
			return nil, err
		}
		asSelect = inner.node
		corr = inner.corr
	}
	cols := make([]plan.ColumnDef, len(n.Columns))
	for i, c := range n.Columns {
		t, err := parseTypeName(c.Type)
		if err != nil {
			return nil, err
		}
		var def expr.Expr
		if c.Default != nil {
			de, err := p.planExpr(c.Default, &exprCtx{sc: newScope(nil, outer)})
			if err != nil {
				return nil, err
			}
			def = de
		}
		cols[i] = plan.ColumnDef{Name: c.Name, Type: t, Nullable: c.Nullable, Default: def}
	}
	return &plannedNode{node: &plan.CreateTable{
		Name:        n.Name,
		Columns:     cols,
		IfNotExists: n.IfNotExists,
		AsSelect:    asSelect,
	}, corr: corr}, nil
}

func (p *Planner) planCreateView(n *ast.CreateViewStmt, outer *scope) (*plannedNode, error) {
	return &plannedNode{node: &plan.CreateView{
		Name:          n.Name,
		Query:         ast.Render(n.Query),
		ColumnAliases: n.ColumnAliases,
		OrReplace:     n.OrReplace,
	}}, nil
}

func (p *Planner) planCreateFunction(n *ast.CreateFunctionStmt, outer *scope) (*plannedNode, error) {
	params := make([]sql.FuncParam, len(n.Params))
	for i, c := range n.Params {
		t, err := parseTypeName(c.Type)
		if err != nil {
			return nil, err
		}
		params[i] = sql.FuncParam{Name: c.Name, Type: t}
	}
	cf := &plan.CreateFunction{
		Name:       n.Name,
		Parameters: params,
		IsTableFn:  n.IsTableFn,
		OrReplace:  n.OrReplace,
	}
	if n.ReturnType != "" {
		t, err := parseTypeName(n.ReturnType)
		if err != nil {
			return nil, err
		}
		cf.ReturnType = t
	}
	switch {
	case n.BodyQuery != nil && n.IsTableFn:
		if planNode, vars, ok := p.planTVFBody(n.BodyQuery, params); ok {
			cf.BodyKind = sql.FuncBodySQLExpr
			cf.Plan = planNode
			cf.PlanVars = vars
		} else {
			// The body doesn't resolve against a standalone parameter
			// scope (e.g. it references a CTE or correlates on
			// something only visible at call time); fall back to
			// re-parsing and textually substituting at every call.
			cf.BodyKind = sql.FuncBodySQLQuery
			cf.SQLQuery = ast.Render(n.BodyQuery)
		}
	case n.BodyQuery != nil:
		cf.BodyKind = sql.FuncBodySQLQuery
		cf.SQLQuery = ast.Render(n.BodyQuery)
	case n.BodyExpr != nil:
		sc := newScope(nil, nil)
		for _, prm := range params {
			sc.Schema = append(sc.Schema, sql.PlanField{Name: prm.Name, Type: prm.Type, Nullable: true})
		}
		be, err := p.planExpr(n.BodyExpr, &exprCtx{sc: sc})
		if err != nil {
			return nil, err
		}
		cf.BodyKind = sql.FuncBodySQLExpr
		cf.SQLExpr = be
	default:
		cf.BodyKind = sql.FuncBodyJavaScript
		cf.SQLQuery = n.BodyText
	}
	return &plannedNode{node: cf}, nil
}

// planTVFBody plans a table function's SQL-query body once at CREATE
// [TABLE] FUNCTION time, the preferred path over re-parsing and
// textually substituting the raw SQL on every call. A declared
// parameter with no matching column in the body's own FROM clause
// resolves through the same outer-scope mechanism a correlated
// subquery uses, surfacing as an expr.Variable rather than an
// expr.Column; the returned vars map records each synthesized
// variable's name back to the parameter it stands in for, so
// planTVFCall can rebind them to call-site arguments later without
// ever re-parsing the body. ok is false when the body doesn't plan
// against a standalone parameter scope, signaling the caller to fall
// back to the textual-substitution path.
func (p *Planner) planTVFBody(body ast.Statement, params []sql.FuncParam) (planNode plan.Node, vars map[string]string, ok bool) {
	paramSc := newScope(nil, nil)
	for _, prm := range params {
		paramSc.Schema = append(paramSc.Schema, sql.PlanField{Name: prm.Name, Type: prm.Type, Nullable: true})
	}
	inner, err := p.planStatementWithOuter(body, paramSc)
	if err != nil {
		return nil, nil, false
	}
	vars = make(map[string]string, len(inner.corr))
	for _, cp := range inner.corr {
		if oc, ok := cp.Outer.(*expr.Column); ok {
			vars[cp.Name] = oc.Name
		}
	}
	return inner.node, vars, true
}

func (p *Planner) planCreateSchema(n *ast.CreateSchemaStmt, outer *scope) (*plannedNode, error) {
	return &plannedNode{node: &plan.CreateSchema{Name: n.Name, IfNotExists: n.IfNotExists}}, nil
}

func (p *Planner) planAlterTable(n *ast.AlterTableStmt, outer *scope) (*plannedNode, error) {
	// The grammar allows multiple actions per statement; this engine
	// applies one at a time, so a multi-action ALTER TABLE plans into a
	// Block of single-action AlterTable nodes.
	var nodes []plan.Node
	for _, a := range n.Actions {
		at := &plan.AlterTable{Table: n.Name}
		switch a.Kind {
		case "ADD_COLUMN":
			t, err := parseTypeName(a.Column.Type)
			if err != nil {
				return nil, err
			}
			at.AddColumn = &plan.ColumnDef{Name: a.Column.Name, Type: t, Nullable: a.Column.Nullable}
		case "DROP_COLUMN":
			at.DropColumn = a.Column.Name
		case "RENAME_COLUMN":
			at.RenameFrom, at.RenameTo = a.OldName, a.NewName
		case "ALTER_COLUMN":
			t, err := parseTypeName(a.Column.Type)
			if err != nil {
				return nil, err
			}
			at.AddColumn = &plan.ColumnDef{Name: a.Column.Name, Type: t, Nullable: a.Column.Nullable}
		default:
			return nil, sql.ErrUnsupported("unsupported ALTER TABLE action %q", a.Kind)
		}
		nodes = append(nodes, at)
	}
	if len(nodes) == 1 {
		return &plannedNode{node: nodes[0]}, nil
	}
	return &plannedNode{node: &plan.Block{Stmts: nodes}}, nil
}
