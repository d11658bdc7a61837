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

// Package plan is the Logical/Physical Plan tree: an immutable tree of
// variants, each carrying its output Schema, built once per statement and
// never mutated — optimizer passes return new trees, the way
// go-mysql-server's own sql/plan package represents its query plans.
package plan

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// Node is the plan-tree element every logical and physical variant
// implements.
type Node interface {
	Schema() sql.Schema
	Children() []Node
	WithChildren(children []Node) (Node, error)
	String() string
}

// JoinType enumerates the Join variants.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
	JoinSemi
	JoinAnti
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "Inner"
	case JoinLeft:
		return "Left"
	case JoinRight:
		return "Right"
	case JoinFull:
		return "Full"
	case JoinCross:
		return "Cross"
	case JoinSemi:
		return "Semi"
	case JoinAnti:
		return "Anti"
	default:
		return "Unknown"
	}
}

// SetOpKind enumerates Union/Intersect/Except.
type SetOpKind int

const (
	SetUnion SetOpKind = iota
	SetIntersect
	SetExcept
)

func (k SetOpKind) String() string {
	switch k {
	case SetUnion:
		return "Union"
	case SetIntersect:
		return "Intersect"
	case SetExcept:
		return "Except"
	default:
		return "Unknown"
	}
}

// ExecutionHints carries the optimizer's parallelism/batch-size decisions,
// attached to join/aggregate/union/sort/window physical nodes.
type ExecutionHints struct {
	Parallel  bool
	BatchSize int
}

// OrderKey re-exports expr.OrderKey for plan nodes (Sort, TopN, Window)
// that carry resolved ORDER BY items.
type OrderKey = expr.OrderKey
