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

func upperName(s string) string { return strings.ToUpper(s) }

// planWindowCall builds an expr.WindowFunction from a FuncCall whose Over
// is set, resolving a named WINDOW reference first ("named-window
// resolution") and merging any PARTITION BY/ORDER BY/frame the call site
// itself specifies on top of it.
func (p *Planner) planWindowCall(n *ast.FuncCall, ec *exprCtx) (expr.Expr, error) {
	spec := *n.Over
	if spec.RefName != "" {
		named, ok := ec.sc.Wins[spec.RefName]
		if !ok {
			return nil, sql.ErrInvalidQuery("undefined window %q", spec.RefName)
		}
		merged := named
		if len(spec.PartitionBy) > 0 {
			merged.PartitionBy = spec.PartitionBy
		}
		if len(spec.OrderBy) > 0 {
			merged.OrderBy = spec.OrderBy
		}
		if spec.Frame != nil {
			merged.Frame = spec.Frame
		}
		spec = merged
	}

	name := upperName(n.Name)
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

	partBy := make([]expr.Expr, len(spec.PartitionBy))
	for i, e := range spec.PartitionBy {
		pe, err := p.planExpr(e, ec)
		if err != nil {
			return nil, err
		}
		partBy[i] = pe
	}

	orderBy := make([]expr.OrderKey, len(spec.OrderBy))
	for i, o := range spec.OrderBy {
		oe, err := p.planExpr(o.Expr, ec)
		if err != nil {
			return nil, err
		}
		orderBy[i] = expr.OrderKey{Expr: oe, Desc: o.Desc, NullsFirst: o.NullsFirst, Collate: o.Collate}
	}

	var frame *expr.Frame
	if spec.Frame != nil {
		f, err := p.planFrame(spec.Frame, ec)
		if err != nil {
			return nil, err
		}
		frame = f
	}

	var aggEntry *function.AggEntry
	var rt sql.DataType
	if entry, ok := function.GlobalAggregates().Lookup(name); ok {
		aggEntry = entry
		t, err := entry.ReturnType(argTypes)
		if err != nil {
			return nil, err
		}
		rt = t
	} else {
		rt = rankFuncReturnType(name, argTypes)
	}

	return &expr.WindowFunction{
		FuncName:    name,
		Args:        args,
		PartitionBy: partBy,
		OrderBy:     orderBy,
		Frame:       frame,
		AggEntry:    aggEntry,
		Typ:         rt,
	}, nil
}

func (p *Planner) planFrame(fc *ast.FrameClause, ec *exprCtx) (*expr.Frame, error) {
	start, err := p.planFrameBound(fc.Start, ec)
	if err != nil {
		return nil, err
	}
	end, err := p.planFrameBound(fc.End, ec)
	if err != nil {
		return nil, err
	}
	return &expr.Frame{Mode: fc.Mode, Start: start, End: end}, nil
}

func (p *Planner) planFrameBound(fb ast.FrameBound, ec *exprCtx) (expr.FrameBound, error) {
	out := expr.FrameBound{Kind: expr.FrameBoundKind(fb.Kind)}
	if fb.Offset != nil {
		oe, err := p.planExpr(fb.Offset, ec)
		if err != nil {
			return out, err
		}
		out.Offset = oe
	}
	return out, nil
}

func rankFuncReturnType(name string, argTypes []sql.DataType) sql.DataType {
	switch name {
	case "ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE":
		return types.Int64
	case "PERCENT_RANK", "CUME_DIST":
		return types.Float64
	case "LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE":
		if len(argTypes) > 0 {
			return argTypes[0]
		}
	}
	return types.Float64
}

// buildWindowNode extracts every distinct WindowFunction referenced across
// exprs, appends one Window slot per distinct call (keyed by its rendered
// form so identical OVER(...) calls share a slot the way aggregates do),
// and rewrites exprs in place to reference the slot by Column.
func buildWindowNode(input plan.Node, exprs []expr.Expr) (plan.Node, []expr.Expr, error) {
	var calls []plan.WindowCall
	slot := map[string]expr.Expr{}
	base := len(input.Schema())

	for _, e := range exprs {
		for _, w := range collectWindows(e) {
			key := w.String()
			if _, ok := slot[key]; ok {
				continue
			}
			idx := base + len(calls)
			field := sql.PlanField{Name: w.FuncName, Type: w.Type(), Nullable: true}
			calls = append(calls, plan.WindowCall{Win: w, Field: field})
			slot[key] = expr.NewColumn(idx, w.Type(), "", w.FuncName, true)
		}
	}

	if len(calls) == 0 {
		return input, exprs, nil
	}

	winNode := &plan.Window{Input: input, Calls: calls}
	out := make([]expr.Expr, len(exprs))
	for i, e := range exprs {
		re, err := rewriteSlots(e, winKey, slot)
		if err != nil {
			return nil, nil, err
		}
		out[i] = re
	}
	return winNode, out, nil
}
