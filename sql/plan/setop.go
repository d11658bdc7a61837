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
	"fmt"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// SetOp is UNION/INTERSECT/EXCEPT [ALL|DISTINCT] over two inputs sharing a
// schema.
type SetOp struct {
	Left, Right Node
	Kind        SetOpKind
	All         bool
}

func (s *SetOp) Schema() sql.Schema { return s.Left.Schema() }
func (s *SetOp) Children() []Node   { return []Node{s.Left, s.Right} }
func (s *SetOp) WithChildren(c []Node) (Node, error) {
	if len(c) != 2 {
		return nil, sql.ErrInvalidQuery("SetOp takes exactly two children")
	}
	n := *s
	n.Left, n.Right = c[0], c[1]
	return &n, nil
}
func (s *SetOp) String() string {
	mode := "DISTINCT"
	if s.All {
		mode = "ALL"
	}
	return fmt.Sprintf("%s %s", s.Kind, mode)
}

// Unnest emits the Cartesian product of each input row with the elements
// of ArrayExpr; WithOffset appends a zero-based index column when true.
type Unnest struct {
	Input      Node
	ArrayExpr  expr.Expr
	Alias      string
	WithOffset bool
	OffsetName string
	OutSchema  sql.Schema
}

func (u *Unnest) Schema() sql.Schema { return u.OutSchema }
func (u *Unnest) Children() []Node   { return []Node{u.Input} }
func (u *Unnest) WithChildren(c []Node) (Node, error) {
	if len(c) != 1 {
		return nil, sql.ErrInvalidQuery("Unnest takes exactly one child")
	}
	n := *u
	n.Input = c[0]
	return &n, nil
}
func (u *Unnest) String() string { return fmt.Sprintf("Unnest(%s)", u.Alias) }
