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
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// ColumnDef is one declared column of a CreateTable/AlterTable statement.
type ColumnDef struct {
	Name     string
	Type     sql.DataType
	Nullable bool
	Default  expr.Expr // nil when no DEFAULT clause
}

// CreateTable plans CREATE TABLE [IF NOT EXISTS]. The executor honours
// OrReplace, but ast.CreateTableStmt has no OR REPLACE flag and the
// planner never sets it, so CREATE OR REPLACE TABLE is not planned.
type CreateTable struct {
	Name        string
	Columns     []ColumnDef
	OrReplace   bool
	IfNotExists bool
	AsSelect    Node // non-nil for CREATE TABLE ... AS SELECT
}

func (c *CreateTable) Schema() sql.Schema { return nil }
func (c *CreateTable) Children() []Node {
	if c.AsSelect != nil {
		return []Node{c.AsSelect}
	}
	return nil
}
func (c *CreateTable) WithChildren(children []Node) (Node, error) {
	if c.AsSelect == nil {
		if len(children) != 0 {
			return nil, sql.ErrInvalidQuery("CreateTable takes no children")
		}
		return c, nil
	}
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("CreateTable AS SELECT takes exactly one child")
	}
	n := *c
	n.AsSelect = children[0]
	return &n, nil
}
func (c *CreateTable) String() string { return "CreateTable(" + c.Name + ")" }

// CreateView plans CREATE [OR REPLACE] VIEW; the view body SQL text
// is kept unplanned (re-planned at each use, view inlining design note).
type CreateView struct {
	Name          string
	Query         string
	ColumnAliases []string
	OrReplace     bool
}

func (c *CreateView) Schema() sql.Schema                       { return nil }
func (c *CreateView) Children() []Node                         { return nil }
func (c *CreateView) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("CreateView takes no children")
	}
	return c, nil
}
func (c *CreateView) String() string { return "CreateView(" + c.Name + ")" }

// CreateFunction plans CREATE [OR REPLACE] FUNCTION, scalar or
// table-valued.
type CreateFunction struct {
	Name       string
	Parameters []sql.FuncParam
	ReturnType sql.DataType // nil for a TVF
	IsTableFn  bool
	BodyKind   sql.FuncBodyKind
	SQLExpr    expr.Expr
	Plan       Node              // FuncBodySQLExpr, TVF: a pre-planned body
	PlanVars   map[string]string // TVF only: Plan's placeholder variable name -> declared parameter name
	SQLQuery   string
	OrReplace  bool
}

func (c *CreateFunction) Schema() sql.Schema                       { return nil }
func (c *CreateFunction) Children() []Node                         { return nil }
func (c *CreateFunction) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("CreateFunction takes no children")
	}
	return c, nil
}
func (c *CreateFunction) String() string { return "CreateFunction(" + c.Name + ")" }

// AlterTable plans ALTER TABLE ADD/DROP/RENAME COLUMN.
type AlterTable struct {
	Table      string
	AddColumn  *ColumnDef
	DropColumn string
	RenameFrom string
	RenameTo   string
}

func (a *AlterTable) Schema() sql.Schema                       { return nil }
func (a *AlterTable) Children() []Node                         { return nil }
func (a *AlterTable) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("AlterTable takes no children")
	}
	return a, nil
}
func (a *AlterTable) String() string { return "AlterTable(" + a.Table + ")" }

// CreateSchema plans CREATE SCHEMA (a named namespace for tables/views).
type CreateSchema struct {
	Name        string
	IfNotExists bool
}

func (c *CreateSchema) Schema() sql.Schema                       { return nil }
func (c *CreateSchema) Children() []Node                         { return nil }
func (c *CreateSchema) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("CreateSchema takes no children")
	}
	return c, nil
}
func (c *CreateSchema) String() string { return "CreateSchema(" + c.Name + ")" }
