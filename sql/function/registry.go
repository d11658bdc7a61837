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

// Package function is the scalar/aggregate kernel registry: both the
// row-at-a-time and vectorized entry points for every BigQuery scalar
// function family, keyed by name the way go-mysql-server's own
// sql/expression/function package registers builtins.
package function

import (
	"strings"
	"sync"

	"github.com/coldbrook-data/bqengine/sql"
)

// RowFn is the row-at-a-time kernel signature.
type RowFn func(ctx *sql.Context, args []sql.Value) (sql.Value, error)

// VecFn is the vectorized kernel signature: args are aligned Columns of
// equal length n; the result Column must honor every input's null
// bitmap.
type VecFn func(ctx *sql.Context, args []*sql.Column, n int) (*sql.Column, error)

// TypeFn infers a call's return type from its argument types, used by the
// planner while building the logical plan's output schema.
type TypeFn func(argTypes []sql.DataType) (sql.DataType, error)

// Entry is one registered builtin.
type Entry struct {
	Name       string
	Row        RowFn
	Vec        VecFn // nil => Row is broadcast row-wise over the batch
	ReturnType TypeFn
	// NullTolerant functions (COALESCE, IFNULL,...) are responsible for
	// their own null handling; everything else gets Null if any arg is
	// Null before Row/Vec is even invoked.
	NullTolerant bool
}

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

var global = &Registry{entries: make(map[string]*Entry)}

// Global returns the process-wide builtin registry every session shares
// read-only after init; UDFs registered per-catalog live separately.
func Global() *Registry { return global }

func (r *Registry) Register(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[strings.ToUpper(e.Name)] = e
}

func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[strings.ToUpper(name)]
	return e, ok
}

// CallRow evaluates a registered function row-at-a-time with default null
// propagation unless the entry opts out.
func (e *Entry) CallRow(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
	if !e.NullTolerant {
		for _, a := range args {
			if a.IsNull() {
				return sql.Null(), nil
			}
		}
	}
	return e.Row(ctx, args)
}

// CallVec evaluates a registered function vectorized, falling back to a
// generic broadcast-and-null-propagate loop over Row when no bespoke Vec
// kernel is registered — vectorized kernels must honor the input null
// bitmap.
func (e *Entry) CallVec(ctx *sql.Context, args []*sql.Column, n int) (*sql.Column, error) {
	if e.Vec != nil {
		return e.Vec(ctx, args, n)
	}
	return BroadcastRowwise(ctx, e, args, n)
}

// BroadcastRowwise is the shared fallback vectorization strategy: for each
// row, gather the per-column Values, skip (leave null) when any input is
// null and the function isn't null-tolerant, else invoke Row.
func BroadcastRowwise(ctx *sql.Context, e *Entry, args []*sql.Column, n int) (*sql.Column, error) {
	rt, err := e.ReturnType(columnTypes(args))
	if err != nil {
		return nil, err
	}
	out := sql.NewColumn(rt, n)
	row := make([]sql.Value, len(args))
	for i := 0; i < n; i++ {
		skip := false
		for a, c := range args {
			row[a] = c.Get(i)
			if !e.NullTolerant && row[a].IsNull() {
				skip = true
			}
		}
		if skip {
			continue
		}
		v, err := e.Row(ctx, row)
		if err != nil {
			return nil, err
		}
		out.Set(i, v)
	}
	return out, nil
}

func columnTypes(cols []*sql.Column) []sql.DataType {
	out := make([]sql.DataType, len(cols))
	for i, c := range cols {
		out[i] = c.Type
	}
	return out
}

// StaticReturn builds a TypeFn ignoring argument types, used by functions
// whose return type never depends on its arguments (e.g. LENGTH -> INT64).
func StaticReturn(t sql.DataType) TypeFn {
	return func([]sql.DataType) (sql.DataType, error) { return t, nil }
}

// FirstArgReturn builds a TypeFn returning the first argument's type,
// used by functions like GREATEST/LEAST/COALESCE whose output matches
// their (type-unified) input.
func FirstArgReturn() TypeFn {
	return func(argTypes []sql.DataType) (sql.DataType, error) {
		if len(argTypes) == 0 {
			return nil, sql.ErrInvalidQuery("function requires at least one argument")
		}
		return argTypes[0], nil
	}
}
