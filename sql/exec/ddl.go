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

package exec

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

var rowsAffectedType = types.Int64

// mutatorOf returns cat's write-side collaborator, or ErrUnsupported if
// the catalog in play is read-only.
func mutatorOf(cat sql.Catalog) (sql.Mutator, error) {
	m, ok := cat.(sql.Mutator)
	if !ok {
		return nil, sql.ErrUnsupported("exec: catalog does not support schema/data mutation")
	}
	return m, nil
}

func statusBatch() *sql.RecordBatch {
	return sql.RecordsToBatch(nil, []sql.Record{{}})
}

func rowsAffectedSchema() sql.Schema {
	return sql.Schema{{Name: "rows_affected", Type: rowsAffectedType}}
}

func rowsAffectedBatch(n int64) *sql.RecordBatch {
	return sql.RecordsToBatch(rowsAffectedSchema(), []sql.Record{{sql.Int64Val(n)}})
}

func openCreateTable(ctx *sql.Context, n *plan.CreateTable, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	if n.AsSelect != nil {
		in, err := Open(ctx, n.AsSelect, cat)
		if err != nil {
			return nil, err
		}
		defer in.Close(ctx)
		schema := n.AsSelect.Schema()
		if err := m.CreateTable(ctx, n.Name, schema, n.OrReplace, n.IfNotExists); err != nil {
			return nil, err
		}
		rows, err := newRowCursor(in).drainAll(ctx)
		if err != nil {
			return nil, err
		}
		affected, err := m.InsertRows(ctx, n.Name, rows)
		if err != nil {
			return nil, err
		}
		return &onceIter{batch: rowsAffectedBatch(affected)}, nil
	}
	schema := make(sql.Schema, len(n.Columns))
	for i, c := range n.Columns {
		schema[i] = sql.PlanField{Name: c.Name, Type: c.Type, Nullable: c.Nullable, Table: n.Name}
	}
	if err := m.CreateTable(ctx, n.Name, schema, n.OrReplace, n.IfNotExists); err != nil {
		return nil, err
	}
	return &onceIter{batch: statusBatch()}, nil
}

func openCreateView(ctx *sql.Context, n *plan.CreateView, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	def := sql.ViewDef{Query: n.Query, ColumnAliases: n.ColumnAliases}
	if err := m.CreateView(ctx, n.Name, def, n.OrReplace); err != nil {
		return nil, err
	}
	return &onceIter{batch: statusBatch()}, nil
}

func openCreateFunction(ctx *sql.Context, n *plan.CreateFunction, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	def := sql.FuncDef{
		Name:       n.Name,
		Parameters: n.Parameters,
		ReturnType: n.ReturnType,
		IsTableFn:  n.IsTableFn,
		BodyKind:   n.BodyKind,
		SQLQuery:   n.SQLQuery,
	}
	if n.SQLExpr != nil {
		def.SQLExpr = n.SQLExpr
	}
	if n.Plan != nil {
		def.Plan = n.Plan
		def.PlanVars = n.PlanVars
	}
	if err := m.CreateFunction(ctx, n.Name, def, n.OrReplace); err != nil {
		return nil, err
	}
	return &onceIter{batch: statusBatch()}, nil
}

func openCreateSchema(ctx *sql.Context, n *plan.CreateSchema, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	if err := m.CreateSchema(ctx, n.Name, n.IfNotExists); err != nil {
		return nil, err
	}
	return &onceIter{batch: statusBatch()}, nil
}

func openAlterTable(ctx *sql.Context, n *plan.AlterTable, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	fn := func(schema sql.Schema) (sql.Schema, error) {
		switch {
		case n.AddColumn != nil:
			return append(schema, sql.PlanField{
				Name: n.AddColumn.Name, Type: n.AddColumn.Type,
				Nullable: n.AddColumn.Nullable, Table: n.Table,
			}), nil
		case n.DropColumn != "":
			out := make(sql.Schema, 0, len(schema))
			for _, f := range schema {
				if f.Name == n.DropColumn {
					continue
				}
				out = append(out, f)
			}
			return out, nil
		case n.RenameFrom != "":
			out := append(sql.Schema{}, schema...)
			for i, f := range out {
				if f.Name == n.RenameFrom {
					out[i].Name = n.RenameTo
				}
			}
			return out, nil
		}
		return schema, nil
	}
	if err := m.AlterTable(ctx, n.Table, fn); err != nil {
		return nil, err
	}
	return &onceIter{batch: statusBatch()}, nil
}
