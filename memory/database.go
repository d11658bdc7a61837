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

package memory

import (
	"sync"

	"github.com/coldbrook-data/bqengine/sql"
)

// Database is the in-process Catalog: a name-keyed set of tables, views,
// and functions, each table individually locked so row-level reads and
// writes on one table never block those on another.
//
// DDL on a single table is exclusive: CreateTable/DropTable/AlterTable
// take ddlMu for the whole operation rather than relying on each Table's
// own RWMutex, since swapping the map entry itself must be atomic with
// respect to concurrent GetTableSchema/Scan lookups.
type Database struct {
	name string

	ddlMu sync.RWMutex
	tables map[string]*Table
	views  map[string]sql.ViewDef
	funcs  map[string]sql.FuncDef
}

func NewDatabase(name string) *Database {
	return &Database{
		name:   name,
		tables: make(map[string]*Table),
		views:  make(map[string]sql.ViewDef),
		funcs:  make(map[string]sql.FuncDef),
	}
}

func (d *Database) Name() string { return d.name }

func (d *Database) Tables() map[string]*Table {
	d.ddlMu.RLock()
	defer d.ddlMu.RUnlock()
	out := make(map[string]*Table, len(d.tables))
	for k, v := range d.tables {
		out[k] = v
	}
	return out
}

func (d *Database) GetTableSchema(name string) (sql.Schema, bool) {
	d.ddlMu.RLock()
	defer d.ddlMu.RUnlock()
	t, ok := d.tables[name]
	if !ok {
		return nil, false
	}
	return t.Schema(), true
}

func (d *Database) GetView(name string) (sql.ViewDef, bool) {
	d.ddlMu.RLock()
	defer d.ddlMu.RUnlock()
	v, ok := d.views[name]
	return v, ok
}

func (d *Database) GetFunction(name string) (sql.FuncDef, bool) {
	d.ddlMu.RLock()
	defer d.ddlMu.RUnlock()
	f, ok := d.funcs[name]
	return f, ok
}

func (d *Database) Scan(ctx *sql.Context, table string) (sql.BatchIter, error) {
	d.ddlMu.RLock()
	t, ok := d.tables[table]
	d.ddlMu.RUnlock()
	if !ok {
		return nil, sql.ErrTableNotFound(table)
	}
	return t.scan(ctx)
}

func (d *Database) InsertRows(ctx *sql.Context, table string, rows []sql.Record) (int64, error) {
	t, err := d.table(table)
	if err != nil {
		return 0, err
	}
	return t.insert(rows), nil
}

func (d *Database) UpdateRows(ctx *sql.Context, table string, updates []sql.RowUpdate) (int64, error) {
	t, err := d.table(table)
	if err != nil {
		return 0, err
	}
	return t.update(updates), nil
}

func (d *Database) DeleteRows(ctx *sql.Context, table string, rows []sql.Record) (int64, error) {
	t, err := d.table(table)
	if err != nil {
		return 0, err
	}
	return t.delete(rows), nil
}

func (d *Database) table(name string) (*Table, error) {
	d.ddlMu.RLock()
	defer d.ddlMu.RUnlock()
	t, ok := d.tables[name]
	if !ok {
		return nil, sql.ErrTableNotFound(name)
	}
	return t, nil
}

func (d *Database) CreateTable(ctx *sql.Context, name string, schema sql.Schema, orReplace, ifNotExists bool) error {
	d.ddlMu.Lock()
	defer d.ddlMu.Unlock()
	_, exists := d.tables[name]
	if exists {
		if ifNotExists {
			return nil
		}
		if !orReplace {
			return sql.ErrInvalidQuery("table %s already exists", name)
		}
	}
	d.tables[name] = NewTable(name, schema)
	return nil
}

func (d *Database) DropTable(ctx *sql.Context, name string) error {
	d.ddlMu.Lock()
	defer d.ddlMu.Unlock()
	if _, ok := d.tables[name]; !ok {
		return sql.ErrTableNotFound(name)
	}
	delete(d.tables, name)
	return nil
}

func (d *Database) AlterTable(ctx *sql.Context, name string, fn func(sql.Schema) (sql.Schema, error)) error {
	d.ddlMu.Lock()
	defer d.ddlMu.Unlock()
	t, ok := d.tables[name]
	if !ok {
		return sql.ErrTableNotFound(name)
	}
	newSchema, err := fn(t.Schema())
	if err != nil {
		return err
	}
	t.setSchema(newSchema)
	return nil
}

func (d *Database) CreateView(ctx *sql.Context, name string, def sql.ViewDef, orReplace bool) error {
	d.ddlMu.Lock()
	defer d.ddlMu.Unlock()
	if _, exists := d.views[name]; exists && !orReplace {
		return sql.ErrInvalidQuery("view %s already exists", name)
	}
	d.views[name] = def
	return nil
}

func (d *Database) CreateFunction(ctx *sql.Context, name string, def sql.FuncDef, orReplace bool) error {
	d.ddlMu.Lock()
	defer d.ddlMu.Unlock()
	if _, exists := d.funcs[name]; exists && !orReplace {
		return sql.ErrInvalidQuery("function %s already exists", name)
	}
	d.funcs[name] = def
	return nil
}

func (d *Database) CreateSchema(ctx *sql.Context, name string, ifNotExists bool) error {
	return nil
}

var (
	_ sql.Catalog = (*Database)(nil)
	_ sql.Mutator = (*Database)(nil)
)
