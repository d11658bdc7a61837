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

package plan

import (
	"github.com/coldbrook-data/bqengine/sql"
)

// CTEDef is one WITH-clause binding, kept on the CTE node purely for
// EXPLAIN/debugging — by the time planning finishes, every reference has
// already been inlined (CTE scoping design note: names shadow tables
// only within the statement scope and are resolved at plan time, not at
// execution time).
type CTEDef struct {
	Name string
	Plan Node
}

// CTE wraps a root plan together with the WITH-bindings that were visible
// while it was planned (informational; execution walks Input only).
type CTE struct {
	Defs  []CTEDef
	Input Node
}

func (c *CTE) Schema() sql.Schema { return c.Input.Schema() }
func (c *CTE) Children() []Node   { return []Node{c.Input} }
func (c *CTE) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("CTE takes exactly one child")
	}
	n := *c
	n.Input = children[0]
	return &n, nil
}
func (c *CTE) String() string { return "CTE" }

// SubqueryAlias is an inlined derived-table or view reference `(SELECT
//...) alias`: a pass-through node carrying the alias name so
// error messages and EXPLAIN output can name it, and so unqualified
// `alias.col` references resolve.
type SubqueryAlias struct {
	Alias string
	Input Node
}

func (s *SubqueryAlias) Schema() sql.Schema {
	sch := s.Input.Schema()
	out := make(sql.Schema, len(sch))
	for i, f := range sch {
		out[i] = f
		out[i].Table = s.Alias
	}
	return out
}
func (s *SubqueryAlias) Children() []Node { return []Node{s.Input} }
func (s *SubqueryAlias) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("SubqueryAlias takes exactly one child")
	}
	n := *s
	n.Input = children[0]
	return &n, nil
}
func (s *SubqueryAlias) String() string { return "SubqueryAlias(" + s.Alias + ")" }
