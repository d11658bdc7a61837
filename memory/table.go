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

// Package memory is the in-process Catalog/Mutator backing used by tests
// and a bare engine.New with no external storage wired in, the way
// go-mysql-server's own memory package backs enginetest.
package memory

import (
	"sync"

	"github.com/coldbrook-data/bqengine/sql"
)

const batchSize = 1024

// Table is one base table's schema plus its row data, held as a flat
// []sql.Record rather than go-mysql-server's row partitions; scan converts
// the rows into column-major RecordBatch chunks of batchSize rows.
type Table struct {
	name   string
	mu     sync.RWMutex
	schema sql.Schema
	rows   []sql.Record
}

func NewTable(name string, schema sql.Schema) *Table {
	return &Table{name: name, schema: schema}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Schema() sql.Schema {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schema
}

func (t *Table) setSchema(s sql.Schema) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schema = s
}

// scan opens a read snapshot of the table's current rows; the snapshot is
// copied out under the read lock so a concurrent writer never mutates a
// batch already handed to a reader.
func (t *Table) scan(ctx *sql.Context) (sql.BatchIter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snapshot := make([]sql.Record, len(t.rows))
	copy(snapshot, t.rows)
	return &tableIter{schema: t.schema, rows: snapshot}, nil
}

func (t *Table) insert(rows []sql.Record) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, rows...)
	return int64(len(rows))
}

func (t *Table) update(updates []sql.RowUpdate) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var affected int64
	for _, u := range updates {
		for i, r := range t.rows {
			if recordEqual(r, u.Old) {
				t.rows[i] = u.New
				affected++
				break
			}
		}
	}
	return affected
}

func (t *Table) delete(rows []sql.Record) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var affected int64
	for _, target := range rows {
		for i, r := range t.rows {
			if recordEqual(r, target) {
				t.rows = append(t.rows[:i], t.rows[i+1:]...)
				affected++
				break
			}
		}
	}
	return affected
}

func recordEqual(a, b sql.Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if sql.Compare(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

// tableIter serves a snapshot of rows in batchSize chunks: every BatchIter
// ends with sql.ErrEndOfBatches, never io.EOF.
type tableIter struct {
	schema sql.Schema
	rows   []sql.Record
	pos    int
}

func (it *tableIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	if err := ctx.CheckCancelled(); err != nil {
		return nil, err
	}
	if it.pos >= len(it.rows) {
		return nil, sql.ErrEndOfBatches
	}
	end := it.pos + batchSize
	if end > len(it.rows) {
		end = len(it.rows)
	}
	chunk := it.rows[it.pos:end]
	it.pos = end
	return sql.RecordsToBatch(it.schema, chunk), nil
}

func (it *tableIter) Close(ctx *sql.Context) error { return nil }
