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
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// scope is the planner's column-resolution context. Schema is the
// enclosing operator's current output; Outer is the schema of the query
// this one is nested inside of, used only when planning a correlated
// subquery — the planner supports one level of outer correlation;
// deeper (grandparent-level) correlation is out of scope (see DESIGN.md).
type scope struct {
	Schema sql.Schema
	Outer  *scope
	CTEs   map[string]ast.Statement
	Wins   map[string]ast.WindowSpec
}

func newScope(sch sql.Schema, outer *scope) *scope {
	s := &scope{Schema: sch, Outer: outer}
	if outer != nil {
		s.CTEs = outer.CTEs
	}
	return s
}

// withCTE returns a copy of s with name bound to stmt, visible to every
// table reference planned from the returned scope onward — copy-on-write
// so a sibling branch that planned before the WITH clause was seen still
// sees the pre-binding map ("a CTE-name→Schema map").
func (s *scope) withCTE(name string, stmt ast.Statement) *scope {
	n := *s
	n.CTEs = map[string]ast.Statement{}
	for k, v := range s.CTEs {
		n.CTEs[k] = v
	}
	n.CTEs[strings.ToUpper(name)] = stmt
	return &n
}

// resolve looks up table.name first in s.Schema, then (if s.Outer is set)
// in the immediately enclosing query's schema, synthesizing a
// CorrelatedParam the caller threads onto its subquery expression node.
func (s *scope) resolve(table, name string) (expr.Expr, *expr.CorrelatedParam, error) {
	idx := s.Schema.IndexOf(table, name)
	if idx == -2 {
		return nil, nil, sql.ErrAmbiguousColumn(name)
	}
	if idx >= 0 {
		f := s.Schema[idx]
		return expr.NewColumn(idx, f.Type, f.Table, f.Name, f.Nullable), nil, nil
	}
	if s.Outer == nil {
		return nil, nil, sql.ErrColumnNotFound(qualify(table, name))
	}
	oidx := s.Outer.Schema.IndexOf(table, name)
	if oidx == -2 {
		return nil, nil, sql.ErrAmbiguousColumn(name)
	}
	if oidx < 0 {
		return nil, nil, sql.ErrColumnNotFound(qualify(table, name))
	}
	f := s.Outer.Schema[oidx]
	outerCol := expr.NewColumn(oidx, f.Type, f.Table, f.Name, f.Nullable)
	varName := nextCorrName()
	v := expr.NewVariable(varName, f.Type)
	return v, &expr.CorrelatedParam{Name: varName, Outer: outerCol}, nil
}

func qualify(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

var corrSeq int64

func nextCorrName() string {
	n := atomic.AddInt64(&corrSeq, 1)
	return "__corr_" + strconv.FormatInt(n, 10)
}
