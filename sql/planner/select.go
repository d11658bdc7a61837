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
)

// planSelect assembles a SELECT bottom-up: FROM -> WHERE -> GROUP
// BY/aggregates/HAVING -> window -> QUALIFY -> ORDER BY/LIMIT/OFFSET ->
// projection -> DISTINCT. ORDER BY keys resolve against the
// pre-projection scope, so they may name columns the SELECT list drops.
func (p *Planner) planSelect(stmt *ast.SelectStmt, outer *scope) (*plannedNode, error) {
	sc := newScope(nil, outer)
	var corr []expr.CorrelatedParam
	var cteDefs []plan.CTEDef

	for _, cte := range stmt.With {
		planned, err := p.planStatementWithOuter(cte.Query, outer)
		if err != nil {
			return nil, err
		}
		corr = append(corr, planned.corr...)
		cteDefs = append(cteDefs, plan.CTEDef{Name: cte.Name, Plan: planned.node})
		sc = sc.withCTE(cte.Name, cte.Query)
	}

	from, err := p.planFrom(stmt.From, sc)
	if err != nil {
		return nil, err
	}
	sc.Schema = from.Schema()

	winMap := map[string]ast.WindowSpec{}
	for _, nw := range stmt.Window {
		winMap[nw.Name] = nw.Spec
	}
	sc.Wins = winMap

	node := from
	if stmt.Where != nil {
		ec := &exprCtx{sc: sc, allowAgg: false}
		pred, err := p.planExpr(stmt.Where, ec)
		if err != nil {
			return nil, err
		}
		corr = append(corr, ec.corr...)
		node = plan.NewFilter(node, pred)
	}

	// Plan the select list, HAVING and ORDER BY against the pre-aggregate
	// scope with aggregate calls allowed; planAggregation then extracts
	// every *expr.Aggregate it finds across all three, builds the logical
	// Aggregate node (or passes node through untouched if none appear and
	// there's no GROUP BY), and rewrites the already-planned expression
	// trees in place so each aggregate leaf becomes a Column into the new
	// post-aggregate schema — mixed expressions like SUM(x)+1 fall out of
	// rewriting leaves rather than splitting whole expressions.
	aggEc := &exprCtx{sc: sc, allowAgg: true}
	projExprs := make([]expr.Expr, 0, len(stmt.SelectList))
	var projFields []projField
	for _, item := range stmt.SelectList {
		if item.Star {
			projFields = append(projFields, projField{star: true, qual: item.Qual})
			continue
		}
		e, err := p.planExpr(item.Expr, aggEc)
		if err != nil {
			return nil, err
		}
		name := item.Alias
		if name == "" {
			name = defaultColumnName(item.Expr, e)
		}
		projExprs = append(projExprs, e)
		projFields = append(projFields, projField{name: name})
	}
	var havingExpr expr.Expr
	if stmt.Having != nil {
		e, err := p.planExpr(stmt.Having, aggEc)
		if err != nil {
			return nil, err
		}
		havingExpr = e
	}
	corr = append(corr, aggEc.corr...)

	node, sc, projExprs, havingExpr, err = p.planAggregation(stmt, node, sc, projExprs, havingExpr)
	if err != nil {
		return nil, err
	}

	if havingExpr != nil {
		node = plan.NewFilter(node, havingExpr)
	}

	// Re-assemble the final column list: non-star items take their
	// (possibly aggregate-rewritten) expression from projExprs in order;
	// star items expand against sc, which after planAggregation already
	// reflects the post-aggregate schema when grouping occurred.
	var cols []plan.ProjectColumn
	ei := 0
	for _, pf := range projFields {
		if pf.star {
			for i, f := range sc.Schema {
				if pf.qual != "" && !strings.EqualFold(f.Table, pf.qual) {
					continue
				}
				cols = append(cols, plan.ProjectColumn{
					Expr:  expr.NewColumn(i, f.Type, f.Table, f.Name, f.Nullable),
					Field: f,
				})
			}
			continue
		}
		e := projExprs[ei]
		ei++
		cols = append(cols, plan.ProjectColumn{
			Expr:  e,
			Field: sql.PlanField{Name: pf.name, Type: e.Type(), Nullable: true},
		})
	}

	// Window functions are extracted from the projection list and from
	// QUALIFY/ORDER BY so identical OVER(...) calls share a slot; the
	// Window node sits between aggregation/HAVING and the final Project.
	allExprs := make([]expr.Expr, len(cols))
	for i, c := range cols {
		allExprs[i] = c.Expr
	}
	var qualifyPred expr.Expr
	if stmt.Qualify != nil {
		ec := &exprCtx{sc: sc, allowAgg: false}
		qp, err := p.planExpr(stmt.Qualify, ec)
		if err != nil {
			return nil, err
		}
		corr = append(corr, ec.corr...)
		qualifyPred = qp
		allExprs = append(allExprs, qp)
	}
	var orderKeys []expr.OrderKey
	if len(stmt.OrderBy) > 0 {
		keys, err := p.planOrderBy(stmt.OrderBy, sc)
		if err != nil {
			return nil, err
		}
		orderKeys = keys
		for _, k := range keys {
			allExprs = append(allExprs, k.Expr)
		}
	}

	winNode, rewritten, err := buildWindowNode(node, allExprs)
	if err != nil {
		return nil, err
	}
	node = winNode
	for i := range cols {
		cols[i].Expr = rewritten[i]
	}
	off := len(cols)
	if qualifyPred != nil {
		qualifyPred = rewritten[off]
		off++
	}
	for i := range orderKeys {
		orderKeys[i].Expr = rewritten[off]
		off++
	}

	// QUALIFY and ORDER BY were rewritten against the Window node's
	// schema, not the projection's, so they sit below the Project.
	if qualifyPred != nil {
		node = &plan.Qualify{Input: node, Predicate: qualifyPred}
	}

	if len(orderKeys) > 0 {
		node = &plan.Sort{Input: node, Keys: orderKeys}
	}

	node, err = p.planLimitOffset(stmt.Limit, stmt.Offset, node, sc)
	if err != nil {
		return nil, err
	}

	node = plan.NewProject(node, cols)

	if stmt.Distinct {
		node = &plan.Distinct{Input: node}
	}

	if len(cteDefs) > 0 {
		node = &plan.CTE{Defs: cteDefs, Input: node}
	}

	return &plannedNode{node: node, corr: corr}, nil
}

// projField carries either a plain output column's chosen name or the
// fact that the original select-list item was a `*`/`t.*` wildcard,
// deferred until the post-aggregate schema is known.
type projField struct {
	star bool
	qual string
	name string
}

// planAggregation handles GROUP BY ALL/ROLLUP/CUBE/GROUPING SETS, extracts
// aggregate calls already planned into projExprs/havingExpr, and builds
// the logical Aggregate node when any are present; when no GROUP BY
// clause and no aggregate call appears anywhere, everything passes
// through unchanged.
func (p *Planner) planAggregation(stmt *ast.SelectStmt, input plan.Node, sc *scope, projExprs []expr.Expr, havingExpr expr.Expr) (plan.Node, *scope, []expr.Expr, expr.Expr, error) {
	var aggs []*expr.Aggregate
	for _, e := range projExprs {
		aggs = append(aggs, collectAggregates(e)...)
	}
	if havingExpr != nil {
		aggs = append(aggs, collectAggregates(havingExpr)...)
	}

	if stmt.GroupBy == nil && len(aggs) == 0 {
		return input, sc, projExprs, havingExpr, nil
	}

	var keys []groupKeySpec
	if stmt.GroupBy != nil {
		exprs := stmt.GroupBy.Exprs
		if stmt.GroupBy.All {
			exprs = nonAggregateSelectExprs(stmt.SelectList)
		}
		for _, ge := range exprs {
			ke, err := p.planExpr(ge, &exprCtx{sc: sc, allowAgg: false})
			if err != nil {
				return nil, nil, nil, nil, err
			}
			name := ke.String()
			if col, ok := ke.(*expr.Column); ok {
				name = col.Name
			}
			keys = append(keys, groupKeySpec{expr: ke, field: sql.PlanField{Name: name, Type: ke.Type(), Nullable: true}})
		}
	}

	var gsets [][]int
	if stmt.GroupBy != nil {
		gsets = planGroupingSets(stmt.GroupBy, len(keys))
	}

	aggNode, slot := buildAggregateNode(input, keys, gsets, aggs)

	newProjExprs := make([]expr.Expr, len(projExprs))
	for i, e := range projExprs {
		re, err := rewriteSlots(e, aggKey, slot)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		newProjExprs[i] = re
	}
	var newHaving expr.Expr
	if havingExpr != nil {
		re, err := rewriteSlots(havingExpr, aggKey, slot)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		newHaving = re
	}

	newSc := newScope(aggNode.Schema(), sc.Outer)
	newSc.CTEs, newSc.Wins = sc.CTEs, sc.Wins
	return aggNode, newSc, newProjExprs, newHaving, nil
}

// nonAggregateSelectExprs extracts the raw AST expressions GROUP BY ALL
// groups by: every non-star select-list item that isn't itself a direct
// aggregate call ("GROUP BY ALL" defers to the select list verbatim).
func nonAggregateSelectExprs(items []ast.SelectItem) []ast.Expr {
	var out []ast.Expr
	for _, it := range items {
		if it.Star {
			continue
		}
		if fc, ok := it.Expr.(*ast.FuncCall); ok && isAggregateName(fc.Name) {
			continue
		}
		out = append(out, it.Expr)
	}
	return out
}

func isAggregateName(name string) bool {
	switch strings.ToUpper(name) {
	case "SUM", "AVG", "COUNT", "COUNTIF", "SUMIF", "MIN", "MAX", "ARRAY_AGG", "STRING_AGG", "APPROX_COUNT_DISTINCT":
		return true
	}
	return false
}

func defaultColumnName(src ast.Expr, planned expr.Expr) string {
	if id, ok := src.(*ast.Ident); ok {
		return id.Name
	}
	if fc, ok := src.(*ast.FuncCall); ok {
		return strings.ToLower(fc.Name)
	}
	if fa, ok := src.(*ast.FieldAccess); ok {
		return fa.Field
	}
	return planned.String()
}

func (p *Planner) planOrderBy(items []ast.OrderItem, sc *scope) ([]expr.OrderKey, error) {
	out := make([]expr.OrderKey, len(items))
	ec := &exprCtx{sc: sc, allowAgg: true}
	for i, it := range items {
		e, err := p.planExpr(it.Expr, ec)
		if err != nil {
			return nil, err
		}
		out[i] = expr.OrderKey{Expr: e, Desc: it.Desc, NullsFirst: it.NullsFirst, Collate: it.Collate}
	}
	return out, nil
}

func (p *Planner) planLimitOffset(limitE, offsetE ast.Expr, node plan.Node, sc *scope) (plan.Node, error) {
	if limitE == nil && offsetE == nil {
		return node, nil
	}
	var limit, offset int64 = -1, 0
	ec := &exprCtx{sc: sc, allowAgg: false}
	if limitE != nil {
		v, err := evalConstInt(p, limitE, ec)
		if err != nil {
			return nil, err
		}
		limit = v
	}
	if offsetE != nil {
		v, err := evalConstInt(p, offsetE, ec)
		if err != nil {
			return nil, err
		}
		offset = v
	}
	if s, ok := node.(*plan.Sort); ok && limit >= 0 {
		return &plan.TopN{Input: s.Input, Keys: s.Keys, K: limit, Offset: offset}, nil
	}
	return &plan.Limit{Input: node, Count: limit, Offset: offset}, nil
}

// evalConstInt plans e and requires it fold to a Literal, since LIMIT/
// OFFSET must be constant at plan time in this engine.
func evalConstInt(p *Planner, e ast.Expr, ec *exprCtx) (int64, error) {
	planned, err := p.planExpr(e, ec)
	if err != nil {
		return 0, err
	}
	lit, ok := planned.(*expr.Literal)
	if !ok {
		return 0, sql.ErrInvalidQuery("LIMIT/OFFSET must be a constant expression")
	}
	return lit.Val.Int(), nil
}

// planSetOp plans a UNION/INTERSECT/EXCEPT {ALL|DISTINCT}; the right
// side's schema isn't re-validated against the left's column names (only
// arity/position), matching BigQuery's positional set-operation semantics.
func (p *Planner) planSetOp(stmt *ast.SetOpStmt, outer *scope) (*plannedNode, error) {
	left, err := p.planStatementWithOuter(stmt.Left, outer)
	if err != nil {
		return nil, err
	}
	right, err := p.planStatementWithOuter(stmt.Right, outer)
	if err != nil {
		return nil, err
	}
	kind := plan.SetUnion
	switch strings.ToUpper(stmt.Op) {
	case "INTERSECT":
		kind = plan.SetIntersect
	case "EXCEPT":
		kind = plan.SetExcept
	}
	node := plan.Node(&plan.SetOp{Left: left.node, Right: right.node, Kind: kind, All: stmt.All})
	corr := append(left.corr, right.corr...)

	sc := newScope(node.Schema(), outer)
	if len(stmt.OrderBy) > 0 {
		keys, err := p.planOrderBy(stmt.OrderBy, sc)
		if err != nil {
			return nil, err
		}
		node = &plan.Sort{Input: node, Keys: keys}
	}
	node, err = p.planLimitOffset(stmt.Limit, stmt.Offset, node, sc)
	if err != nil {
		return nil, err
	}
	return &plannedNode{node: node, corr: corr}, nil
}
