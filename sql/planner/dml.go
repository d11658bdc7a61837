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

func (p *Planner) planInsert(n *ast.InsertStmt, outer *scope) (*plannedNode, error) {
	sch, ok := p.Catalog.GetTableSchema(n.Table)
	if !ok {
		return nil, sql.ErrTableNotFound(n.Table)
	}
	if n.Query != nil {
		inner, err := p.planStatementWithOuter(n.Query, outer)
		if err != nil {
			return nil, err
		}
		return &plannedNode{node: &plan.Insert{Table: n.Table, Columns: n.Columns, Source: inner.node}, corr: inner.corr}, nil
	}

	targetCols := n.Columns
	if len(targetCols) == 0 {
		targetCols = sch.Names()
	}
	ec := &exprCtx{sc: newScope(nil, outer)}
	rows := make([]sql.Record, len(n.Values))
	for i, row := range n.Values {
		vals := make([]sql.Value, len(row))
		for j, ve := range row {
			e, err := p.planExpr(ve, ec)
			if err != nil {
				return nil, err
			}
			lit, ok := e.(*expr.Literal)
			if !ok {
				return nil, sql.ErrInvalidQuery("VALUES entries must be constant expressions")
			}
			vals[j] = lit.Val
		}
		rows[i] = sql.Record(vals)
	}
	valSchema := make(sql.Schema, len(targetCols))
	for i, name := range targetCols {
		idx := sch.IndexOf("", name)
		if idx < 0 {
			return nil, sql.ErrColumnNotFound(name)
		}
		valSchema[i] = sch[idx]
	}
	values := &plan.Values{Rows: rows, Sch: valSchema}
	return &plannedNode{node: &plan.Insert{Table: n.Table, Columns: targetCols, Source: values}}, nil
}

func (p *Planner) planUpdate(n *ast.UpdateStmt, outer *scope) (*plannedNode, error) {
	sch, ok := p.Catalog.GetTableSchema(n.Table)
	if !ok {
		return nil, sql.ErrTableNotFound(n.Table)
	}
	scanNode := plan.NewScan(n.Table, n.Table, sch)
	sc := newScope(scanNode.Schema(), outer)
	ec := &exprCtx{sc: sc}

	sets := make([]plan.SetClause, len(n.Order))
	for i, name := range n.Order {
		ve, err := p.planExpr(n.Sets[name], ec)
		if err != nil {
			return nil, err
		}
		sets[i] = plan.SetClause{Column: name, Value: ve}
	}
	var where expr.Expr
	if n.Where != nil {
		we, err := p.planExpr(n.Where, ec)
		if err != nil {
			return nil, err
		}
		where = we
	}
	corr := ec.corr
	return &plannedNode{node: &plan.Update{Table: n.Table, Sets: sets, Where: where, Scan: scanNode}, corr: corr}, nil
}

func (p *Planner) planDelete(n *ast.DeleteStmt, outer *scope) (*plannedNode, error) {
	sch, ok := p.Catalog.GetTableSchema(n.Table)
	if !ok {
		return nil, sql.ErrTableNotFound(n.Table)
	}
	scanNode := plan.NewScan(n.Table, n.Table, sch)
	var where expr.Expr
	var corr []expr.CorrelatedParam
	if n.Where != nil {
		ec := &exprCtx{sc: newScope(scanNode.Schema(), outer)}
		we, err := p.planExpr(n.Where, ec)
		if err != nil {
			return nil, err
		}
		where = we
		corr = ec.corr
	}
	return &plannedNode{node: &plan.Delete{Table: n.Table, Where: where, Scan: scanNode}, corr: corr}, nil
}

func (p *Planner) planMerge(n *ast.MergeStmt, outer *scope) (*plannedNode, error) {
	source, err := p.planTableExpr(n.Source, newScope(nil, outer))
	if err != nil {
		return nil, err
	}
	sourceSchema := source.Schema()
	if n.SourceAlias != "" {
		source = aliasSchema(source, n.SourceAlias)
		sourceSchema = source.Schema()
	}
	targetSchema, ok := p.Catalog.GetTableSchema(n.Target)
	if !ok {
		return nil, sql.ErrTableNotFound(n.Target)
	}
	targetAlias := n.TargetAlias
	if targetAlias == "" {
		targetAlias = n.Target
	}
	targetSchema = targetSchema.Clone()
	for i := range targetSchema {
		targetSchema[i].Table = targetAlias
	}
	combined := newScope(targetSchema.Concat(sourceSchema), outer)
	ec := &exprCtx{sc: combined}

	on, err := p.planExpr(n.On, ec)
	if err != nil {
		return nil, err
	}

	actions := make([]plan.MergeAction, len(n.Whens))
	for i, w := range n.Whens {
		ma := plan.MergeAction{Matched: w.Matched, ByTarget: !w.BySource, IsDelete: w.Action == "DELETE"}
		if w.Condition != nil {
			ce, err := p.planExpr(w.Condition, ec)
			if err != nil {
				return nil, err
			}
			ma.Condition = ce
		}
		switch w.Action {
		case "UPDATE":
			sets := make([]plan.SetClause, len(w.SetOrder))
			for j, name := range w.SetOrder {
				ve, err := p.planExpr(w.Sets[name], ec)
				if err != nil {
					return nil, err
				}
				sets[j] = plan.SetClause{Column: name, Value: ve}
			}
			ma.Sets = sets
		case "INSERT":
			ma.InsertCols = w.InsertCols
			vals := make([]expr.Expr, len(w.InsertVals))
			for j, ve := range w.InsertVals {
				v, err := p.planExpr(ve, ec)
				if err != nil {
					return nil, err
				}
				vals[j] = v
			}
			ma.InsertVals = vals
		}
		actions[i] = ma
	}

	return &plannedNode{node: &plan.Merge{
		Target:  n.Target,
		Source:  source,
		On:      on,
		Actions: actions,
	}, corr: ec.corr}, nil
}
