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
	"github.com/coldbrook-data/bqengine/sql/function"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// exprCtx threads everything expression planning needs beyond the scope
// itself: whether aggregate/window calls are legal here, and the
// correlation bindings accumulated while resolving outer-scope columns
// for the subquery expression node being built around this tree.
type exprCtx struct {
	sc       *scope
	allowAgg bool
	corr     []expr.CorrelatedParam
}

// planExpr is the single AST::Expr -> Expr recursive descent every
// expression in a statement goes through.
func (p *Planner) planExpr(e ast.Expr, ec *exprCtx) (expr.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return p.planIdent(n, ec)
	case *ast.Literal:
		return p.planLiteral(n)
	case *ast.Variable:
		return expr.NewVariable(n.Name, types.String), nil
	case *ast.BinaryExpr:
		return p.planBinary(n, ec)
	case *ast.UnaryExpr:
		return p.planUnary(n, ec)
	case *ast.IsNullExpr:
		operand, err := p.planExpr(n.Operand, ec)
		if err != nil {
			return nil, err
		}
		return expr.NewIsNull(operand, n.Negated), nil
	case *ast.IsDistinctFromExpr:
		l, err := p.planExpr(n.Left, ec)
		if err != nil {
			return nil, err
		}
		r, err := p.planExpr(n.Right, ec)
		if err != nil {
			return nil, err
		}
		return expr.NewIsDistinctFrom(l, r, n.Negated), nil
	case *ast.LikeExpr:
		operand, err := p.planExpr(n.Operand, ec)
		if err != nil {
			return nil, err
		}
		pat, err := p.planExpr(n.Pattern, ec)
		if err != nil {
			return nil, err
		}
		return expr.NewLike(operand, pat, n.Negated, n.CaseInsensitive), nil
	case *ast.InListExpr:
		return p.planInList(n, ec)
	case *ast.InSubqueryExpr:
		return p.planInSubquery(n, ec)
	case *ast.ExistsExpr:
		return p.planExists(n, ec)
	case *ast.BetweenExpr:
		operand, err := p.planExpr(n.Operand, ec)
		if err != nil {
			return nil, err
		}
		lo, err := p.planExpr(n.Low, ec)
		if err != nil {
			return nil, err
		}
		hi, err := p.planExpr(n.High, ec)
		if err != nil {
			return nil, err
		}
		return expr.NewBetween(operand, lo, hi, n.Negated), nil
	case *ast.CastExpr:
		return p.planCast(n, ec)
	case *ast.CaseExpr:
		return p.planCase(n, ec)
	case *ast.FuncCall:
		return p.planFuncCall(n, ec)
	case *ast.StructLiteral:
		return p.planStructLiteral(n, ec)
	case *ast.ArrayLiteral:
		return p.planArrayLiteral(n, ec)
	case *ast.FieldAccess:
		return p.planFieldAccess(n, ec)
	case *ast.LambdaExpr:
		body, err := p.planExpr(n.Body, ec)
		if err != nil {
			return nil, err
		}
		return &expr.Lambda{Params: n.Params, Body: body}, nil
	case *ast.SubstringExpr:
		return p.planSubstring(n, ec)
	case *ast.TrimExpr:
		return p.planTrim(n, ec)
	case *ast.ExtractExpr:
		operand, err := p.planExpr(n.Operand, ec)
		if err != nil {
			return nil, err
		}
		return &expr.Extract{Field: strings.ToUpper(n.Field), Operand: operand}, nil
	case *ast.AliasExpr:
		child, err := p.planExpr(n.Expr, ec)
		if err != nil {
			return nil, err
		}
		return expr.NewAlias(child, n.Alias), nil
	case *ast.DefaultExpr:
		return &expr.Default{Typ: types.String}, nil
	case *ast.ScalarSubquery:
		return p.planScalarSubquery(n, ec)
	case *ast.SubqueryExpr:
		return p.planScalarSubqueryStmt(n.Query, ec)
	default:
		return nil, sql.ErrUnsupported("unsupported expression node %T", e)
	}
}

func (p *Planner) planIdent(n *ast.Ident, ec *exprCtx) (expr.Expr, error) {
	e, cp, err := ec.sc.resolve(n.Table, n.Name)
	if err != nil {
		return nil, err
	}
	if cp != nil {
		ec.corr = append(ec.corr, *cp)
	}
	return e, nil
}

func (p *Planner) planLiteral(n *ast.Literal) (expr.Expr, error) {
	if n.TypeHint != "" {
		t, err := parseTypeName(n.TypeHint)
		if err != nil {
			return nil, err
		}
		raw, _ := n.Raw.(string)
		return &expr.TypedString{Raw: raw, Typ: t}, nil
	}
	switch v := n.Raw.(type) {
	case nil:
		return expr.NewLiteral(sql.Null(), types.Int64), nil
	case bool:
		return expr.NewLiteral(sql.BoolVal(v), types.Bool), nil
	case int64:
		return expr.NewLiteral(sql.Int64Val(v), types.Int64), nil
	case int:
		return expr.NewLiteral(sql.Int64Val(int64(v)), types.Int64), nil
	case float64:
		return expr.NewLiteral(sql.Float64Val(v), types.Float64), nil
	case string:
		return expr.NewLiteral(sql.StringVal(v), types.String), nil
	default:
		return nil, sql.ErrUnsupported("unsupported literal value %T", n.Raw)
	}
}

func (p *Planner) planBinary(n *ast.BinaryExpr, ec *exprCtx) (expr.Expr, error) {
	op := strings.ToUpper(n.Op)
	l, err := p.planExpr(n.Left, ec)
	if err != nil {
		return nil, err
	}
	r, err := p.planExpr(n.Right, ec)
	if err != nil {
		return nil, err
	}
	// x = ANY(<array literal>) / x = ALL(<array literal>) arrive as a
	// BinaryExpr whose Op carries the ANY/SOME/ALL suffix and whose Right
	// planned to a literal ArrayExpr; lower into the equivalent OR/AND
	// chain ("ANY/ALL/SOME -> OR/AND combinations"). Anything else
	// (quantified comparison against a subquery, or a plain array-valued
	// comparison) is left as an ordinary BinaryOp for the executor.
	if arr, ok := r.(*expr.ArrayExpr); ok {
		if base, all, quantified := splitQuantifier(op); quantified {
			return lowerQuantified(base, l, arr, all)
		}
	}
	return expr.NewBinaryOp(op, l, r, inferBinaryType(op, l.Type(), r.Type())), nil
}

// splitQuantifier recognizes the "<op> ANY"/"<op> SOME"/"<op> ALL" op
// spellings the parser produces for quantified comparisons.
func splitQuantifier(op string) (base string, all bool, quantified bool) {
	switch {
	case strings.HasSuffix(op, " ANY"), strings.HasSuffix(op, " SOME"):
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(op, " ANY"), " SOME")), false, true
	case strings.HasSuffix(op, " ALL"):
		return strings.TrimSpace(strings.TrimSuffix(op, " ALL")), true, true
	default:
		return op, false, false
	}
}

// lowerQuantified builds the OR-chain (ANY/SOME) or AND-chain (ALL) a
// quantified comparison against a literal array expands to.
func lowerQuantified(op string, l expr.Expr, arr *expr.ArrayExpr, all bool) (expr.Expr, error) {
	if len(arr.Elems) == 0 {
		return expr.NewLiteral(sql.BoolVal(all), types.Bool), nil
	}
	combine := func(a, b expr.Expr) expr.Expr {
		if all {
			return expr.NewBinaryOp("AND", a, b, types.Bool)
		}
		return expr.NewBinaryOp("OR", a, b, types.Bool)
	}
	var out expr.Expr
	for _, elem := range arr.Elems {
		cmp := expr.NewBinaryOp(op, l, elem, types.Bool)
		if out == nil {
			out = cmp
		} else {
			out = combine(out, cmp)
		}
	}
	return out, nil
}

func inferBinaryType(op string, l, r sql.DataType) sql.DataType {
	switch op {
	case "AND", "OR", "=", "!=", "<>", "<", "<=", ">", ">=":
		return types.Bool
	case "||":
		return types.String
	case "&", "|", "^", "<<", ">>":
		return types.Int64
	case "/":
		if isDecimalType(l) || isDecimalType(r) {
			return decimalPromote(l, r)
		}
		return types.Float64
	default: // + - * % DIV
		if isDecimalType(l) || isDecimalType(r) {
			return decimalPromote(l, r)
		}
		if l.Kind() == sql.TFloat64 || r.Kind() == sql.TFloat64 {
			return types.Float64
		}
		return types.Int64
	}
}

func isDecimalType(t sql.DataType) bool {
	return t.Kind() == sql.TNumeric || t.Kind() == sql.TBigNumeric
}

func decimalPromote(l, r sql.DataType) sql.DataType {
	if l.Kind() == sql.TBigNumeric || r.Kind() == sql.TBigNumeric {
		return types.BigNumeric
	}
	return types.Numeric
}

func (p *Planner) planUnary(n *ast.UnaryExpr, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	op := strings.ToUpper(n.Op)
	t := operand.Type()
	if op == "NOT" {
		t = types.Bool
	}
	return expr.NewUnaryOp(op, operand, t), nil
}

func (p *Planner) planInList(n *ast.InListExpr, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	list := make([]expr.Expr, len(n.List))
	for i, e := range n.List {
		v, err := p.planExpr(e, ec)
		if err != nil {
			return nil, err
		}
		list[i] = v
	}
	return expr.NewInList(operand, list, n.Negated), nil
}

func (p *Planner) planInSubquery(n *ast.InSubqueryExpr, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	sp, err := p.planSubqueryPlan(n.Query, ec.sc)
	if err != nil {
		return nil, err
	}
	return &expr.InSubquery{Operand: operand, Plan: sp.plan, Negated: n.Negated, Correlated: sp.corr}, nil
}

func (p *Planner) planExists(n *ast.ExistsExpr, ec *exprCtx) (expr.Expr, error) {
	sp, err := p.planSubqueryPlan(n.Query, ec.sc)
	if err != nil {
		return nil, err
	}
	return &expr.Exists{Plan: sp.plan, Negated: n.Negated, Correlated: sp.corr}, nil
}

func (p *Planner) planScalarSubquery(n *ast.ScalarSubquery, ec *exprCtx) (expr.Expr, error) {
	return p.planScalarSubqueryStmt(n.Query, ec)
}

func (p *Planner) planScalarSubqueryStmt(stmt ast.Statement, ec *exprCtx) (expr.Expr, error) {
	sp, err := p.planSubqueryPlan(stmt, ec.sc)
	if err != nil {
		return nil, err
	}
	var typ sql.DataType = types.String
	if sch := sp.plan.Schema(); len(sch) > 0 {
		typ = sch[0].Type
	}
	return &expr.ScalarSubquery{Plan: sp.plan, Typ: typ, Correlated: sp.corr}, nil
}

func (p *Planner) planCast(n *ast.CastExpr, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	t, err := parseTypeName(n.Type)
	if err != nil {
		return nil, err
	}
	return expr.NewCast(operand, t, n.Safe), nil
}

func (p *Planner) planCase(n *ast.CaseExpr, ec *exprCtx) (expr.Expr, error) {
	var operand expr.Expr
	var err error
	if n.Operand != nil {
		operand, err = p.planExpr(n.Operand, ec)
		if err != nil {
			return nil, err
		}
	}
	whens := make([]expr.WhenClause, len(n.Whens))
	var typ sql.DataType = types.String
	for i, w := range n.Whens {
		whenE, err := p.planExpr(w.When, ec)
		if err != nil {
			return nil, err
		}
		thenE, err := p.planExpr(w.Then, ec)
		if err != nil {
			return nil, err
		}
		whens[i] = expr.WhenClause{When: whenE, Then: thenE}
		if i == 0 {
			typ = thenE.Type()
		}
	}
	var els expr.Expr
	if n.Else != nil {
		els, err = p.planExpr(n.Else, ec)
		if err != nil {
			return nil, err
		}
		typ = els.Type()
	}
	return expr.NewCase(operand, whens, els, typ), nil
}

func (p *Planner) planStructLiteral(n *ast.StructLiteral, ec *exprCtx) (expr.Expr, error) {
	fields := make([]expr.StructFieldExpr, len(n.Values))
	ftypes := make([]sql.StructFieldType, len(n.Values))
	for i, v := range n.Values {
		ve, err := p.planExpr(v, ec)
		if err != nil {
			return nil, err
		}
		name := ""
		if i < len(n.Names) {
			name = n.Names[i]
		}
		fields[i] = expr.StructFieldExpr{Name: name, Value: ve}
		ftypes[i] = sql.StructFieldType{Name: name, Type: ve.Type()}
	}
	return &expr.StructExpr{Fields: fields, Typ: types.StructType{Fields: ftypes}}, nil
}

func (p *Planner) planArrayLiteral(n *ast.ArrayLiteral, ec *exprCtx) (expr.Expr, error) {
	elems := make([]expr.Expr, len(n.Values))
	var elemType sql.DataType = types.Int64
	for i, v := range n.Values {
		ve, err := p.planExpr(v, ec)
		if err != nil {
			return nil, err
		}
		elems[i] = ve
		if i == 0 {
			elemType = ve.Type()
		}
	}
	if n.ElemType != "" {
		t, err := parseTypeName(n.ElemType)
		if err != nil {
			return nil, err
		}
		elemType = t
	}
	return &expr.ArrayExpr{Elems: elems, Typ: types.ArrayType{Elem: elemType}}, nil
}

func (p *Planner) planFieldAccess(n *ast.FieldAccess, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	st, ok := operand.Type().(types.StructType)
	var ftype sql.DataType = types.String
	if ok {
		if idx := st.FieldIndex(n.Field); idx >= 0 {
			ftype = st.Fields[idx].Type
		}
	}
	return &expr.FieldAccess{Operand: operand, Field: n.Field, Typ: ftype}, nil
}

func (p *Planner) planSubstring(n *ast.SubstringExpr, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	from, err := p.planExpr(n.From, ec)
	if err != nil {
		return nil, err
	}
	s := &expr.Substring{Operand: operand, From: from}
	if n.For != nil {
		forE, err := p.planExpr(n.For, ec)
		if err != nil {
			return nil, err
		}
		s.For = forE
	}
	return s, nil
}

func (p *Planner) planTrim(n *ast.TrimExpr, ec *exprCtx) (expr.Expr, error) {
	operand, err := p.planExpr(n.Operand, ec)
	if err != nil {
		return nil, err
	}
	mode := n.Mode
	if mode == "" {
		mode = "BOTH"
	}
	t := &expr.Trim{Operand: operand, Mode: mode}
	if n.CharSet != nil {
		ce, err := p.planExpr(n.CharSet, ec)
		if err != nil {
			return nil, err
		}
		t.Chars = ce
	}
	return t, nil
}

// planFuncCall dispatches a parsed call to a window function, an
// aggregate, or a plain scalar builtin/UDF (expression planning,
// kernel dispatch).
func (p *Planner) planFuncCall(n *ast.FuncCall, ec *exprCtx) (expr.Expr, error) {
	name := strings.ToUpper(n.Name)

	if n.Over != nil {
		return p.planWindowCall(n, ec)
	}

	if agg, ok := function.GlobalAggregates().Lookup(name); ok || (name == "COUNT" && len(n.Args) == 0) {
		if !ec.allowAgg {
			return nil, sql.ErrInvalidQuery("aggregate function %s not allowed in this context", name)
		}
		return p.planAggregateCall(name, agg, n, ec)
	}

	args := make([]expr.Expr, len(n.Args))
	argTypes := make([]sql.DataType, len(n.Args))
	for i, a := range n.Args {
		ae, err := p.planExpr(a, ec)
		if err != nil {
			return nil, err
		}
		args[i] = ae
		argTypes[i] = ae.Type()
	}

	if fn, ok := function.Global().Lookup(name); ok {
		rt, err := fn.ReturnType(argTypes)
		if err != nil {
			return nil, err
		}
		return expr.NewScalarFunction(name, args, fn, rt), nil
	}

	if def, ok := p.Catalog.GetFunction(name); ok && !def.IsTableFn {
		sf := expr.NewScalarFunction(name, args, nil, def.ReturnType)
		if def.BodyKind == sql.FuncBodySQLExpr {
			if body, ok := def.SQLExpr.(expr.Expr); ok {
				sf.UDFBody = bindUDFParams(body, def.Parameters, args)
			}
		}
		return sf, nil
	}

	return nil, sql.ErrFunctionNotFound(name)
}

// bindUDFParams substitutes a UDF's declared parameter Columns with the
// call-site argument expressions, the scalar-UDF analogue of the TVF
// parameter substitution planTVFCall performs for table functions.
func bindUDFParams(body expr.Expr, params []sql.FuncParam, args []expr.Expr) expr.Expr {
	bind := map[string]expr.Expr{}
	for i, prm := range params {
		if i < len(args) {
			bind[strings.ToUpper(prm.Name)] = args[i]
		}
	}
	out, err := rewriteParamColumns(body, bind)
	if err != nil {
		return body
	}
	return out
}

// rewriteParamColumns walks body replacing any *expr.Column whose Name
// matches a bound parameter with the bound argument expression; it
// recurses through Children/WithChildren so it works uniformly across
// every Expr variant without a type switch per node kind.
func rewriteParamColumns(e expr.Expr, bind map[string]expr.Expr) (expr.Expr, error) {
	if c, ok := e.(*expr.Column); ok {
		if repl, ok := bind[strings.ToUpper(c.Name)]; ok {
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
		nc, err := rewriteParamColumns(c, bind)
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

// planAggregateCall builds an expr.Aggregate; arg planning happens against
// ec.sc, the pre-aggregation FROM-based scope, since aggregate arguments
// reference input columns rather than the post-aggregation output.
func (p *Planner) planAggregateCall(name string, agg *function.AggEntry, n *ast.FuncCall, ec *exprCtx) (expr.Expr, error) {
	var args []expr.Expr
	var argTypes []sql.DataType
	for _, a := range n.Args {
		ae, err := p.planExpr(a, ec)
		if err != nil {
			return nil, err
		}
		args = append(args, ae)
		argTypes = append(argTypes, ae.Type())
	}
	if name == "COUNT" && len(n.Args) == 0 {
		agg, _ = function.GlobalAggregates().Lookup("COUNT_STAR")
		name = "COUNT_STAR"
	}
	if agg == nil {
		return nil, sql.ErrFunctionNotFound(name)
	}
	var rt sql.DataType = types.Int64
	if agg.ReturnType != nil {
		t, err := agg.ReturnType(argTypes)
		if err != nil {
			return nil, err
		}
		rt = t
	}
	if n.Filter != nil {
		cond, err := p.planExpr(n.Filter, ec)
		if err != nil {
			return nil, err
		}
		for i, a := range args {
			args[i] = expr.NewCase(nil, []expr.WhenClause{{When: cond, Then: a}}, nil, a.Type())
		}
	}
	return expr.NewAggregate(n.Name, args, n.Distinct, agg, rt), nil
}

// subqueryPlan bundles a planned subquery's physical-ish SubPlan shim with
// the correlation bindings its evaluator must push into Context vars.
type subqueryPlan struct {
	plan sql.SubPlan
	corr []expr.CorrelatedParam
}

// planSubqueryPlan plans stmt as a Logical Plan nested inside outer,
// wiring outer as the new scope's Outer so column resolution can find
// correlated references ("an outer-query schema used when planning
// correlated subqueries").
func (p *Planner) planSubqueryPlan(stmt ast.Statement, outer *scope) (*subqueryPlan, error) {
	inner, err := p.planStatementWithOuter(stmt, outer)
	if err != nil {
		return nil, err
	}
	return &subqueryPlan{plan: &planSubPlanAdapter{node: inner, cat: p.Catalog}, corr: inner.corr}, nil
}

// plannedNode carries a Logical Plan node plus the correlation bindings
// collected anywhere inside it.
type plannedNode struct {
	node plan.Node
	corr []expr.CorrelatedParam
}

func (pn *plannedNode) Schema() sql.Schema { return pn.node.Schema() }

// planSubPlanAdapter implements sql.SubPlan by deferring to the executor
// package at Open time; the executor package supplies the concrete
// Open implementation via RegisterOpener (see sql/exec/subplan.go) to
// avoid an import cycle between sql/planner and sql/exec.
type planSubPlanAdapter struct {
	node plan.Node
	cat  sql.Catalog
}

func (a *planSubPlanAdapter) Schema() sql.Schema { return a.node.Schema() }

func (a *planSubPlanAdapter) Open(ctx *sql.Context) (sql.BatchIter, error) {
	opener := Opener()
	if opener == nil {
		return nil, sql.ErrInternal("no plan opener registered")
	}
	return opener(ctx, a.node, a.cat)
}
