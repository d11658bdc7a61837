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

// Join is the logical join node; Condition is nil only for Cross.
type Join struct {
	Left, Right Node
	Type        JoinType
	Condition   expr.Expr
}

func NewJoin(left, right Node, t JoinType, cond expr.Expr) *Join {
	return &Join{Left: left, Right: right, Type: t, Condition: cond}
}

func (j *Join) Schema() sql.Schema {
	switch j.Type {
	case JoinSemi, JoinAnti:
		return j.Left.Schema()
	default:
		return j.Left.Schema().Concat(j.Right.Schema())
	}
}
func (j *Join) Children() []Node { return []Node{j.Left, j.Right} }
func (j *Join) WithChildren(c []Node) (Node, error) {
	if len(c) != 2 {
		return nil, sql.ErrInvalidQuery("Join takes exactly two children")
	}
	n := *j
	n.Left, n.Right = c[0], c[1]
	return &n, nil
}
func (j *Join) String() string { return fmt.Sprintf("Join(%s)", j.Type) }

// EquiKey is a resolved hash-join key pair: Left indexes the left child's
// schema, Right indexes the right child's schema (already shifted by −|L|
// per the cross-join-to-hash-join rule).
type EquiKey struct {
	Left, Right expr.Expr
}

// HashJoin is the physical specialization used when at least one equi-join
// key was extracted by the cross-join-to-hash-join rule: the right side
// builds a hash table keyed by Keys, the left side probes.
type HashJoin struct {
	Left, Right Node
	Type        JoinType
	Keys        []EquiKey
	Residual    expr.Expr // leftover non-equi conjuncts, nil if none
	Hints       ExecutionHints
}

func (h *HashJoin) Schema() sql.Schema {
	switch h.Type {
	case JoinSemi, JoinAnti:
		return h.Left.Schema()
	default:
		return h.Left.Schema().Concat(h.Right.Schema())
	}
}
func (h *HashJoin) Children() []Node { return []Node{h.Left, h.Right} }
func (h *HashJoin) WithChildren(c []Node) (Node, error) {
	if len(c) != 2 {
		return nil, sql.ErrInvalidQuery("HashJoin takes exactly two children")
	}
	n := *h
	n.Left, n.Right = c[0], c[1]
	return &n, nil
}
func (h *HashJoin) String() string { return fmt.Sprintf("HashJoin(%s, %d keys)", h.Type, len(h.Keys)) }

// NestedLoopJoin is the physical fallback when no equi-join key exists:
// Condition is evaluated per (L,R) pair.
type NestedLoopJoin struct {
	Left, Right Node
	Type        JoinType
	Condition   expr.Expr
	Hints       ExecutionHints
}

func (n *NestedLoopJoin) Schema() sql.Schema {
	switch n.Type {
	case JoinSemi, JoinAnti:
		return n.Left.Schema()
	default:
		return n.Left.Schema().Concat(n.Right.Schema())
	}
}
func (n *NestedLoopJoin) Children() []Node { return []Node{n.Left, n.Right} }
func (n *NestedLoopJoin) WithChildren(c []Node) (Node, error) {
	if len(c) != 2 {
		return nil, sql.ErrInvalidQuery("NestedLoopJoin takes exactly two children")
	}
	cp := *n
	cp.Left, cp.Right = c[0], c[1]
	return &cp, nil
}
func (n *NestedLoopJoin) String() string { return fmt.Sprintf("NestedLoopJoin(%s)", n.Type) }

// CrossJoin is the physical specialization for an equi-key-free Cross
// join (the cross-join-to-hash-join rule: preserved when no equi-key is found).
type CrossJoin struct {
	Left, Right Node
	Hints       ExecutionHints
}

func (c *CrossJoin) Schema() sql.Schema { return c.Left.Schema().Concat(c.Right.Schema()) }
func (c *CrossJoin) Children() []Node   { return []Node{c.Left, c.Right} }
func (c *CrossJoin) WithChildren(children []Node) (Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidQuery("CrossJoin takes exactly two children")
	}
	n := *c
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}
func (c *CrossJoin) String() string { return "CrossJoin" }
