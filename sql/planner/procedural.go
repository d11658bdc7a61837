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

// planBlock plans a BEGIN...END body. DECLAREs are planned first (in
// order) so every later statement's scope sees them as session variables;
// the procedural scope itself is untyped column-wise (variables resolve
// through ctx.GetVar at execution time, not through the column scope), so
// outer is simply threaded through unchanged ("Variables are
// session-scoped name->Value").
func (p *Planner) planBlock(n *ast.BlockStmt, outer *scope) (*plannedNode, error) {
	var nodes []plan.Node
	var corr []expr.CorrelatedParam
	for _, d := range n.Declares {
		pn, err := p.planDeclare(&d, outer)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, pn.node)
		corr = append(corr, pn.corr...)
	}
	for _, stmt := range n.Body {
		pn, err := p.planStatementWithOuter(stmt, outer)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, pn.node)
		corr = append(corr, pn.corr...)
	}
	return &plannedNode{node: &plan.Block{Stmts: nodes}, corr: corr}, nil
}

func (p *Planner) planDeclare(n *ast.DeclareStmt, outer *scope) (*plannedNode, error) {
	var t sql.DataType
	if n.Type != "" {
		pt, err := parseTypeName(n.Type)
		if err != nil {
			return nil, err
		}
		t = pt
	}
	var def expr.Expr
	if n.Default != nil {
		de, err := p.planExpr(n.Default, &exprCtx{sc: newScope(nil, outer)})
		if err != nil {
			return nil, err
		}
		def = de
		if t == nil {
			t = de.Type()
		}
	}
	if len(n.Names) == 1 {
		return &plannedNode{node: &plan.Declare{Name: n.Names[0], Type: t, Default: def}}, nil
	}
	nodes := make([]plan.Node, len(n.Names))
	for i, name := range n.Names {
		nodes[i] = &plan.Declare{Name: name, Type: t, Default: def}
	}
	return &plannedNode{node: &plan.Block{Stmts: nodes}}, nil
}

func (p *Planner) planSet(n *ast.SetStmt, outer *scope) (*plannedNode, error) {
	ve, err := p.planExpr(n.Value, &exprCtx{sc: newScope(nil, outer)})
	if err != nil {
		return nil, err
	}
	return &plannedNode{node: &plan.Set{Names: n.Names, Value: ve}}, nil
}

func (p *Planner) planIf(n *ast.IfStmt, outer *scope) (*plannedNode, error) {
	var branches []plan.IfBranch
	var corr []expr.CorrelatedParam

	addBranch := func(cond ast.Expr, body []ast.Statement) error {
		var condE expr.Expr
		if cond != nil {
			ec := &exprCtx{sc: newScope(nil, outer)}
			ce, err := p.planExpr(cond, ec)
			if err != nil {
				return err
			}
			condE = ce
			corr = append(corr, ec.corr...)
		}
		bodyNode, err := p.planStatementList(body, outer)
		if err != nil {
			return err
		}
		branches = append(branches, plan.IfBranch{Condition: condE, Body: bodyNode.node})
		corr = append(corr, bodyNode.corr...)
		return nil
	}

	if err := addBranch(n.Cond, n.Then); err != nil {
		return nil, err
	}
	for _, ei := range n.ElseIfs {
		if err := addBranch(ei.Cond, ei.Then); err != nil {
			return nil, err
		}
	}
	if n.Else != nil {
		if err := addBranch(nil, n.Else); err != nil {
			return nil, err
		}
	}
	return &plannedNode{node: &plan.If{Branches: branches}, corr: corr}, nil
}

func (p *Planner) planWhile(n *ast.WhileStmt, outer *scope) (*plannedNode, error) {
	ec := &exprCtx{sc: newScope(nil, outer)}
	cond, err := p.planExpr(n.Cond, ec)
	if err != nil {
		return nil, err
	}
	body, err := p.planStatementList(n.Body, outer)
	if err != nil {
		return nil, err
	}
	corr := append(ec.corr, body.corr...)
	return &plannedNode{node: &plan.While{Condition: cond, Body: body.node}, corr: corr}, nil
}

func (p *Planner) planLoop(n *ast.LoopStmt, outer *scope) (*plannedNode, error) {
	body, err := p.planStatementList(n.Body, outer)
	if err != nil {
		return nil, err
	}
	return &plannedNode{node: &plan.Loop{Body: body.node}, corr: body.corr}, nil
}

func (p *Planner) planRepeat(n *ast.RepeatStmt, outer *scope) (*plannedNode, error) {
	body, err := p.planStatementList(n.Body, outer)
	if err != nil {
		return nil, err
	}
	ec := &exprCtx{sc: newScope(nil, outer)}
	until, err := p.planExpr(n.Until, ec)
	if err != nil {
		return nil, err
	}
	corr := append(body.corr, ec.corr...)
	return &plannedNode{node: &plan.Repeat{Body: body.node, Condition: until}, corr: corr}, nil
}

func (p *Planner) planFor(n *ast.ForStmt, outer *scope) (*plannedNode, error) {
	q, err := p.planStatementWithOuter(n.Query, outer)
	if err != nil {
		return nil, err
	}
	rowSc := newScope(nil, outer)
	rowSc.Schema = q.node.Schema()
	body, err := p.planStatementList(n.Body, rowSc)
	if err != nil {
		return nil, err
	}
	corr := append(q.corr, body.corr...)
	return &plannedNode{node: &plan.For{VarName: n.Var, Query: q.node, Body: body.node}, corr: corr}, nil
}

func (p *Planner) planReturn(n *ast.ReturnStmt, outer *scope) (*plannedNode, error) {
	return &plannedNode{node: &plan.Return{}}, nil
}

func (p *Planner) planRaise(n *ast.RaiseStmt, outer *scope) (*plannedNode, error) {
	var msg expr.Expr
	if n.Message != nil {
		me, err := p.planExpr(n.Message, &exprCtx{sc: newScope(nil, outer)})
		if err != nil {
			return nil, err
		}
		msg = me
	}
	return &plannedNode{node: &plan.Raise{Message: msg}}, nil
}

func (p *Planner) planTryCatch(n *ast.TryCatchStmt, outer *scope) (*plannedNode, error) {
	try, err := p.planStatementList(n.Try, outer)
	if err != nil {
		return nil, err
	}
	catch, err := p.planStatementList(n.Catch, outer)
	if err != nil {
		return nil, err
	}
	corr := append(try.corr, catch.corr...)
	return &plannedNode{node: &plan.TryCatch{Try: try.node, Catch: catch.node, CatchVarName: "error"}, corr: corr}, nil
}

func (p *Planner) planExecuteImmediate(n *ast.ExecuteImmediateStmt, outer *scope) (*plannedNode, error) {
	ec := &exprCtx{sc: newScope(nil, outer)}
	sqlExpr, err := p.planExpr(n.SQL, ec)
	if err != nil {
		return nil, err
	}
	args := make([]expr.Expr, len(n.UsingArgs))
	for i, a := range n.UsingArgs {
		ae, err := p.planExpr(a, ec)
		if err != nil {
			return nil, err
		}
		args[i] = ae
	}
	return &plannedNode{node: &plan.ExecuteImmediate{SQLExpr: sqlExpr, IntoVars: n.IntoVars, UsingArgs: args}, corr: ec.corr}, nil
}

func (p *Planner) planAssert(n *ast.AssertStmt, outer *scope) (*plannedNode, error) {
	ec := &exprCtx{sc: newScope(nil, outer)}
	cond, err := p.planExpr(n.Cond, ec)
	if err != nil {
		return nil, err
	}
	var desc string
	if n.Message != nil {
		if lit, ok := n.Message.(*ast.Literal); ok {
			if s, ok := lit.Raw.(string); ok {
				desc = s
			}
		}
	}
	return &plannedNode{node: &plan.Assert{Condition: cond, Description: desc}, corr: ec.corr}, nil
}

// planStatementList plans a []ast.Statement body into a single Block node,
// the shape every procedural control-flow node's Body/Try/Catch/Then
// expects.
func (p *Planner) planStatementList(stmts []ast.Statement, outer *scope) (*plannedNode, error) {
	var nodes []plan.Node
	var corr []expr.CorrelatedParam
	for _, s := range stmts {
		pn, err := p.planStatementWithOuter(s, outer)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, pn.node)
		corr = append(corr, pn.corr...)
	}
	return &plannedNode{node: &plan.Block{Stmts: nodes}, corr: corr}, nil
}
