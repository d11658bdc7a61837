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

package sql

// FuncBodyKind classifies how a catalog function's body is expressed
// (Catalog).
type FuncBodyKind uint8

const (
	FuncBodySQLExpr FuncBodyKind = iota
	FuncBodySQLQuery
	FuncBodyJavaScript
	FuncBodyLanguage
)

// FuncParam is one declared parameter of a scalar or table-valued function.
type FuncParam struct {
	Name string
	Type DataType
}

// FuncDef is what the catalog returns for a scalar UDF or TVF lookup.
type FuncDef struct {
	Name       string
	Parameters []FuncParam
	ReturnType DataType // nil for a TVF (return type is the body plan's schema)
	IsTableFn  bool

	BodyKind FuncBodyKind
	SQLExpr  Expression // FuncBodySQLExpr, scalar UDF: a pre-planned Expr
	Plan     PlanNode   // FuncBodySQLExpr, TVF: a pre-planned plan.Node body
	// PlanVars maps a synthesized placeholder variable name inside Plan
	// back to the declared parameter name it stands in for, so the
	// planner can rebind Plan's placeholders to call-site arguments.
	PlanVars map[string]string
	SQLQuery string // FuncBodySQLQuery / JavaScript / Language: raw body text
}

// ViewDef is what the catalog returns for a view lookup: the view's SQL
// text, re-planned at each use, and optional column aliases applied as
// a final Project.
type ViewDef struct {
	Query          string
	ColumnAliases  []string
}

// Expression is the minimal interface sql/expr.Expr satisfies, declared
// here (rather than imported) to avoid a sql <-> sql/expr import cycle:
// the catalog needs to hand planned UDF bodies back to the planner, but
// the planner package depends on sql, not the other way around.
type Expression interface {
	Type() DataType
	String() string
}

// PlanNode is the minimal interface sql/plan.Node satisfies, declared
// here for the same reason as Expression: the catalog hands a
// pre-planned table-valued function body back to the planner for
// parameter substitution, but sql/plan imports sql rather than the
// other way around.
type PlanNode interface {
	Schema() Schema
	String() string
}

// Catalog is the external collaborator interface the planner/optimizer
// resolve tables, views, and functions against. Implementations
// (e.g. memory.Database) are read-only from the optimizer/executor's
// perspective; DDL mutates a session-owned mutable catalog view.
type Catalog interface {
	GetTableSchema(name string) (Schema, bool)
	GetView(name string) (ViewDef, bool)
	GetFunction(name string) (FuncDef, bool)

	// Scan opens a row source for a base table, used by the executor's
	// Scan operator.
	Scan(ctx *Context, table string) (BatchIter, error)
}

// BatchIter is the pull-based iterator every physical operator implements:
// repeated Next calls yield RecordBatches until ErrEndOfBatches (Scheduling).
type BatchIter interface {
	Next(ctx *Context) (*RecordBatch, error)
	Close(ctx *Context) error
}

// RowUpdate is one old-row/new-row pair an Update statement applies;
// mirrors the row-replace shape a RowUpdater takes (find old, write new).
type RowUpdate struct {
	Old, New Record
}

// Mutator is the write-side collaborator DDL/DML execution goes through;
// a Catalog that also implements Mutator (memory.Database does) accepts
// schema and data changes under its own exclusive-lock-per-table
// discipline. A read-only Catalog simply doesn't implement it, and
// the executor reports ErrUnsupported when a write is attempted against
// one.
type Mutator interface {
	InsertRows(ctx *Context, table string, rows []Record) (int64, error)
	UpdateRows(ctx *Context, table string, updates []RowUpdate) (int64, error)
	DeleteRows(ctx *Context, table string, rows []Record) (int64, error)

	CreateTable(ctx *Context, name string, schema Schema, orReplace, ifNotExists bool) error
	DropTable(ctx *Context, name string) error
	AlterTable(ctx *Context, name string, fn func(Schema) (Schema, error)) error

	CreateView(ctx *Context, name string, def ViewDef, orReplace bool) error
	CreateFunction(ctx *Context, name string, def FuncDef, orReplace bool) error
	CreateSchema(ctx *Context, name string, ifNotExists bool) error
}
