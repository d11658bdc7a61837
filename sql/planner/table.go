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
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// planFrom plans the FROM clause of a SELECT: an empty list becomes
// a single-row Empty; a comma-separated list chains Cross joins; an
// UNNEST directly over an Empty-joined-by-cross-join base collapses into a
// bare Unnest node instead of CrossJoin(Empty, Unnest(...)).
func (p *Planner) planFrom(from []ast.TableExpr, sc *scope) (plan.Node, error) {
	if len(from) == 0 {
		return &plan.Empty{}, nil
	}
	node, err := p.planTableExpr(from[0], sc)
	if err != nil {
		return nil, err
	}
	for _, te := range from[1:] {
		sc2 := newScope(node.Schema(), sc.Outer)
		sc2.CTEs, sc2.Wins = sc.CTEs, sc.Wins

		if u, ok := te.(*ast.UnnestExpr); ok {
			// A comma-joined UNNEST may reference columns of every table
			// already in the FROM list (`FROM t, UNNEST(t.arr)`); plan it
			// against the accumulated schema directly rather than as an
			// independent table factor, and collapse into a bare Unnest
			// node when the accumulated relation so far is Empty.
			joined, err := p.planUnnestExprJoined(u, sc2, node)
			if err != nil {
				return nil, err
			}
			if un, ok := joined.(*plan.Unnest); ok && isEmptyRelation(node) {
				node = un
				continue
			}
			node = joined
			continue
		}

		rhs, err := p.planTableExpr(te, sc)
		if err != nil {
			return nil, err
		}
		node = plan.NewJoin(node, rhs, plan.JoinCross, nil)
	}
	return node, nil
}

func isEmptyRelation(n plan.Node) bool {
	_, ok := n.(*plan.Empty)
	return ok
}

// planTableExpr dispatches one FROM-clause table factor.
func (p *Planner) planTableExpr(te ast.TableExpr, sc *scope) (plan.Node, error) {
	switch n := te.(type) {
	case *ast.TableName:
		return p.planTableName(n, sc)
	case *ast.TVFCall:
		return p.planTVFCall(n, sc)
	case *ast.SubqueryExpr:
		return p.planDerivedTable(n, sc)
	case *ast.JoinExpr:
		return p.planJoinExpr(n, sc)
	case *ast.UnnestExpr:
		return p.planUnnestExpr(n, sc, &plan.Empty{})
	default:
		return nil, sql.ErrUnsupported("unsupported table expression %T", te)
	}
}

// planTableName resolves a bare name in this order: (a) TVF name in
// catalog, (b) CTE name, (c) catalog table, (d) catalog view. A bare
// Ident never reaches UNNEST resolution, which requires explicit
// UNNEST(...) syntax.
func (p *Planner) planTableName(n *ast.TableName, sc *scope) (plan.Node, error) {
	alias := n.Alias
	if alias == "" {
		alias = n.Name
	}

	if def, ok := p.Catalog.GetFunction(n.Name); ok && def.IsTableFn {
		return p.planTVFCall(&ast.TVFCall{Name: n.Name, Alias: alias}, sc)
	}

	if stmt, ok := sc.CTEs[strings.ToUpper(n.Name)]; ok {
		inner, err := p.planStatementWithOuter(stmt, sc.Outer)
		if err != nil {
			return nil, err
		}
		return &plan.SubqueryAlias{Alias: alias, Input: inner.node}, nil
	}

	if sch, ok := p.Catalog.GetTableSchema(n.Name); ok {
		scan := plan.NewScan(n.Name, alias, sch)
		return aliasSchema(scan, alias), nil
	}

	if view, ok := p.Catalog.GetView(n.Name); ok {
		stmt, err := p.parseSQL(view.Query)
		if err != nil {
			return nil, err
		}
		inner, err := p.planStatementWithOuter(stmt, sc.Outer)
		if err != nil {
			return nil, err
		}
		body := inner.node
		if len(view.ColumnAliases) > 0 {
			body = applyColumnAliases(body, view.ColumnAliases)
		}
		return &plan.SubqueryAlias{Alias: alias, Input: body}, nil
	}

	return nil, sql.ErrTableNotFound(n.Name)
}

func aliasSchema(n plan.Node, alias string) plan.Node {
	return &plan.SubqueryAlias{Alias: alias, Input: n}
}

func applyColumnAliases(n plan.Node, aliases []string) plan.Node {
	sch := n.Schema()
	cols := make([]plan.ProjectColumn, len(sch))
	for i, f := range sch {
		name := f.Name
		if i < len(aliases) {
			name = aliases[i]
		}
		cols[i] = plan.ProjectColumn{
			Expr:  expr.NewColumn(i, f.Type, f.Table, f.Name, f.Nullable),
			Field: sql.PlanField{Name: name, Type: f.Type, Nullable: f.Nullable},
		}
	}
	return plan.NewProject(n, cols)
}

// planTVFCall substitutes call-site arguments for the TVF's declared
// parameters and inlines the rewritten body under the call-site alias
// ("TVF parameter substitution").
func (p *Planner) planTVFCall(n *ast.TVFCall, sc *scope) (plan.Node, error) {
	def, ok := p.Catalog.GetFunction(n.Name)
	if !ok || !def.IsTableFn {
		return nil, sql.ErrFunctionNotFound(n.Name)
	}
	alias := n.Alias
	if alias == "" {
		alias = n.Name
	}

	ec := &exprCtx{sc: sc, allowAgg: false}
	args := make([]expr.Expr, len(n.Args))
	for i, a := range n.Args {
		ae, err := p.planExpr(a, ec)
		if err != nil {
			return nil, err
		}
		args[i] = ae
	}

	bind := map[string]expr.Expr{}
	for i, prm := range def.Parameters {
		if i < len(args) {
			bind[strings.ToUpper(prm.Name)] = args[i]
		}
	}

	var body plan.Node
	switch def.BodyKind {
	case sql.FuncBodySQLExpr:
		bodyNode, ok := def.Plan.(plan.Node)
		if !ok {
			return nil, sql.ErrUnsupported("table function %s has no pre-planned body", n.Name)
		}
		varBind := make(map[string]expr.Expr, len(def.PlanVars))
		for varName, paramName := range def.PlanVars {
			if v, ok := bind[strings.ToUpper(paramName)]; ok {
				varBind[varName] = v
			}
		}
		rewritten, err := rewriteTVFBody(bodyNode, varBind)
		if err != nil {
			return nil, err
		}
		body = rewritten
	case sql.FuncBodySQLQuery:
		rewritten := substituteWords(def.SQLQuery, bind)
		stmt, err := p.parseSQL(rewritten)
		if err != nil {
			return nil, err
		}
		inner, err := p.planStatementWithOuter(stmt, sc.Outer)
		if err != nil {
			return nil, err
		}
		body = inner.node
	default:
		return nil, sql.ErrUnsupported("table function %s has unsupported body kind", n.Name)
	}

	return &plan.SubqueryAlias{Alias: alias, Input: body}, nil
}

// rewriteTVFBody substitutes a pre-planned table function body's
// parameter placeholders with call-site argument expressions: the
// plan-tree analogue of bindUDFParams/rewriteParamColumns, which do the
// same substitution for a scalar UDF's single expression body. Every
// node recurses through its children structurally; Project, Filter,
// Sort/TopN, Aggregate, Join, Qualify and Unnest additionally carry
// their own expr.Expr fields and get those rewritten too.
func rewriteTVFBody(n plan.Node, bind map[string]expr.Expr) (plan.Node, error) {
	if len(bind) == 0 {
		return n, nil
	}
	children := n.Children()
	if len(children) > 0 {
		newChildren := make([]plan.Node, len(children))
		changed := false
		for i, c := range children {
			nc, err := rewriteTVFBody(c, bind)
			if err != nil {
				return nil, err
			}
			newChildren[i] = nc
			if nc != c {
				changed = true
			}
		}
		if changed {
			var err error
			n, err = n.WithChildren(newChildren)
			if err != nil {
				return nil, err
			}
		}
	}

	switch t := n.(type) {
	case *plan.Project:
		cols := make([]plan.ProjectColumn, len(t.Columns))
		for i, c := range t.Columns {
			re, err := rewriteVariables(c.Expr, bind)
			if err != nil {
				return nil, err
			}
			cols[i] = plan.ProjectColumn{Expr: re, Field: c.Field}
		}
		nt := *t
		nt.Columns = cols
		return &nt, nil
	case *plan.Filter:
		re, err := rewriteVariables(t.Predicate, bind)
		if err != nil {
			return nil, err
		}
		nt := *t
		nt.Predicate = re
		return &nt, nil
	case *plan.Sort:
		keys, err := rewriteOrderKeys(t.Keys, bind)
		if err != nil {
			return nil, err
		}
		nt := *t
		nt.Keys = keys
		return &nt, nil
	case *plan.TopN:
		keys, err := rewriteOrderKeys(t.Keys, bind)
		if err != nil {
			return nil, err
		}
		nt := *t
		nt.Keys = keys
		return &nt, nil
	case *plan.Aggregate:
		gb := make([]expr.Expr, len(t.GroupBy))
		for i, g := range t.GroupBy {
			re, err := rewriteVariables(g, bind)
			if err != nil {
				return nil, err
			}
			gb[i] = re
		}
		aggs := make([]plan.AggCall, len(t.Aggregates))
		for i, a := range t.Aggregates {
			re, err := rewriteVariables(a.Agg, bind)
			if err != nil {
				return nil, err
			}
			agg, ok := re.(*expr.Aggregate)
			if !ok {
				return nil, sql.ErrInternal("table function body rewrite produced a non-aggregate in an aggregate slot")
			}
			aggs[i] = plan.AggCall{Agg: agg, Field: a.Field}
		}
		nt := *t
		nt.GroupBy = gb
		nt.Aggregates = aggs
		return &nt, nil
	case *plan.Join:
		if t.Condition == nil {
			return t, nil
		}
		re, err := rewriteVariables(t.Condition, bind)
		if err != nil {
			return nil, err
		}
		nt := *t
		nt.Condition = re
		return &nt, nil
	case *plan.Qualify:
		re, err := rewriteVariables(t.Predicate, bind)
		if err != nil {
			return nil, err
		}
		nt := *t
		nt.Predicate = re
		return &nt, nil
	case *plan.Unnest:
		re, err := rewriteVariables(t.ArrayExpr, bind)
		if err != nil {
			return nil, err
		}
		nt := *t
		nt.ArrayExpr = re
		return &nt, nil
	default:
		return n, nil
	}
}

func rewriteOrderKeys(keys []plan.OrderKey, bind map[string]expr.Expr) ([]plan.OrderKey, error) {
	out := make([]plan.OrderKey, len(keys))
	for i, k := range keys {
		re, err := rewriteVariables(k.Expr, bind)
		if err != nil {
			return nil, err
		}
		nk := k
		nk.Expr = re
		out[i] = nk
	}
	return out, nil
}

// rewriteVariables walks e replacing any *expr.Variable bound in bind.
// A table function's parameter references resolve through the same
// outer-scope mechanism a correlated subquery uses (see planTVFBody), so
// they surface as Variable nodes rather than the Columns
// rewriteParamColumns matches for a scalar UDF body.
func rewriteVariables(e expr.Expr, bind map[string]expr.Expr) (expr.Expr, error) {
	if v, ok := e.(*expr.Variable); ok {
		if repl, ok := bind[v.Name]; ok {
			return repl, nil
		}
		return e, nil
	}
	children := e.Children()
	if len(children) == 0 {
		return e, nil
	}
	newChildren := make([]expr.Expr, len(children))
	changed := false
	for i, c := range children {
		nc, err := rewriteVariables(c, bind)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
		if nc != c {
			changed = true
		}
	}
	if !changed {
		return e, nil
	}
	return e.WithChildren(newChildren)
}

// substituteWords performs word-boundary textual substitution, the
// fallback path for SQL-string TVF bodies; the caller re-parses the
// result. Bind values are rendered via their String form since the body
// is about to be re-tokenized from scratch.
func substituteWords(body string, bind map[string]expr.Expr) string {
	var sb strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if isIdentStart(c) {
			j := i + 1
			for j < len(body) && isIdentPart(body[j]) {
				j++
			}
			word := body[i:j]
			if repl, ok := bind[strings.ToUpper(word)]; ok {
				sb.WriteString(repl.String())
			} else {
				sb.WriteString(word)
			}
			i = j
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// planDerivedTable inlines `(SELECT...) alias` as a SubqueryAlias wrapping
// a Project whose output schema carries the derived alias.
func (p *Planner) planDerivedTable(n *ast.SubqueryExpr, sc *scope) (plan.Node, error) {
	inner, err := p.planStatementWithOuter(n.Query, sc.Outer)
	if err != nil {
		return nil, err
	}
	body := inner.node
	if len(n.ColumnAliases) > 0 {
		body = applyColumnAliases(body, n.ColumnAliases)
	}
	alias := n.Alias
	if alias == "" {
		alias = "_derived"
	}
	return &plan.SubqueryAlias{Alias: alias, Input: body}, nil
}

// planJoinExpr plans both sides, resolves ON/USING against the
// concatenated schema, and builds a logical Join (the optimizer later
// specializes it into HashJoin/NestedLoopJoin/CrossJoin, the cross-join-to-hash-join rule).
func (p *Planner) planJoinExpr(n *ast.JoinExpr, sc *scope) (plan.Node, error) {
	left, err := p.planTableExpr(n.Left, sc)
	if err != nil {
		return nil, err
	}

	var right plan.Node
	if u, ok := n.Right.(*ast.UnnestExpr); ok {
		// `... CROSS JOIN UNNEST(x.arr)` needs x's schema visible while
		// planning the array expression, so plan it against left's output
		// rather than as an independent table factor.
		leftSc := newScope(left.Schema(), sc.Outer)
		leftSc.CTEs, leftSc.Wins = sc.CTEs, sc.Wins
		right, err = p.planUnnestExprJoined(u, leftSc, left)
		if err != nil {
			return nil, err
		}
		return right, nil
	}
	right, err = p.planTableExpr(n.Right, sc)
	if err != nil {
		return nil, err
	}

	jt := joinTypeOf(n.Kind)
	combined := newScope(left.Schema().Concat(right.Schema()), sc.Outer)
	combined.CTEs, combined.Wins = sc.CTEs, sc.Wins

	var cond expr.Expr
	switch {
	case n.On != nil:
		ec := &exprCtx{sc: combined, allowAgg: false}
		c, err := p.planExpr(n.On, ec)
		if err != nil {
			return nil, err
		}
		cond = c
	case len(n.Using) > 0:
		c, err := buildUsingCondition(left.Schema(), right.Schema(), n.Using)
		if err != nil {
			return nil, err
		}
		cond = c
	}

	if jt == plan.JoinCross {
		return plan.NewJoin(left, right, plan.JoinCross, nil), nil
	}
	return plan.NewJoin(left, right, jt, cond), nil
}

func joinTypeOf(kind string) plan.JoinType {
	switch strings.ToUpper(kind) {
	case "LEFT":
		return plan.JoinLeft
	case "RIGHT":
		return plan.JoinRight
	case "FULL":
		return plan.JoinFull
	case "CROSS":
		return plan.JoinCross
	default:
		return plan.JoinInner
	}
}

// buildUsingCondition builds the equality-AND-chain for `JOIN... USING
// (cols)`, indexing the right side relative to its own schema (the
// optimizer/executor shift this by |left| when building a physical join).
func buildUsingCondition(left, right sql.Schema, cols []string) (expr.Expr, error) {
	var out expr.Expr
	for _, c := range cols {
		li := left.IndexOf("", c)
		ri := right.IndexOf("", c)
		if li < 0 {
			return nil, sql.ErrColumnNotFound(c)
		}
		if ri < 0 {
			return nil, sql.ErrColumnNotFound(c)
		}
		lf, rf := left[li], right[ri]
		cmp := expr.NewBinaryOp("=",
			expr.NewColumn(li, lf.Type, lf.Table, lf.Name, lf.Nullable),
			expr.NewColumn(len(left)+ri, rf.Type, rf.Table, rf.Name, rf.Nullable),
			types.Bool)
		if out == nil {
			out = cmp
		} else {
			out = expr.NewBinaryOp("AND", out, cmp, types.Bool)
		}
	}
	return out, nil
}

// planUnnestExpr plans a standalone UNNEST(...) table factor; input is the
// relation it's logically cross-joined against (Empty for a bare FROM
// UNNEST(...), or the preceding table for `t, UNNEST(t.arr)`).
func (p *Planner) planUnnestExpr(n *ast.UnnestExpr, sc *scope, input plan.Node) (plan.Node, error) {
	return p.planUnnestExprJoined(n, sc, input)
}

func (p *Planner) planUnnestExprJoined(n *ast.UnnestExpr, sc *scope, input plan.Node) (plan.Node, error) {
	ec := &exprCtx{sc: sc, allowAgg: false}
	arr, err := p.planExpr(n.Array, ec)
	if err != nil {
		return nil, err
	}
	elemType := elementType(arr.Type())
	alias := n.Alias
	if alias == "" {
		alias = "_unnest"
	}
	outSchema := append(append(sql.Schema{}, input.Schema()...), sql.PlanField{Name: alias, Type: elemType, Nullable: true, Table: alias})
	if n.WithOffset {
		offAlias := n.OffsetAlias
		if offAlias == "" {
			offAlias = "offset"
		}
		outSchema = append(outSchema, sql.PlanField{Name: offAlias, Type: types.Int64, Nullable: false})
	}
	return &plan.Unnest{
		Input:      input,
		ArrayExpr:  arr,
		Alias:      alias,
		WithOffset: n.WithOffset,
		OffsetName: n.OffsetAlias,
		OutSchema:  outSchema,
	}, nil
}

// elementType extracts an ARRAY<T>'s T, falling back to the array type
// itself if it somehow wasn't an ArrayType (the planner's own bug, not a
// user error, so this never surfaces to a caller).
func elementType(t sql.DataType) sql.DataType {
	if at, ok := t.(types.ArrayType); ok {
		return at.Elem
	}
	return t
}
