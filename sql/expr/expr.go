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

// Package expr is the logical/physical expression tree (Expr): Literal,
// Column, Variable, BinaryOp, UnaryOp, IsNull,
// IsDistinctFrom, Like, InList, Between, Cast, Case, ScalarFunction,
// Aggregate, WindowFunction, subquery variants, Struct, Array, Lambda,
// Substring, Trim, Extract, TypedString, Alias, Default.
package expr

import (
	"github.com/coldbrook-data/bqengine/sql"
)

// Expr is the evaluable expression interface: every node supports both the
// row-at-a-time and vectorized evaluation modes.
type Expr interface {
	sql.Expression
	// Eval evaluates the expression against a single row, row-at-a-time:
	// used inside CASE, aggregate argument evaluation, and subquery scalar
	// paths.
	Eval(ctx *sql.Context, row sql.Record) (sql.Value, error)
	// EvalBatch evaluates the expression over an entire batch, producing
	// an aligned Column whose null slots mirror the inputs'.
	EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error)
	Children() []Expr
	WithChildren(children []Expr) (Expr, error)
}

// EvalBatchRowwise is the fallback vectorization strategy for expression
// kinds that don't have a bespoke columnar kernel (e.g. CASE, struct/array
// construction): evaluate Eval per row and pack results into a Column. This
// still honors the null-propagation and aligned-output contract — it's
// just not SIMD-friendly — and is what every node below falls back to
// unless it implements a genuinely columnar path.
func EvalBatchRowwise(ctx *sql.Context, e Expr, batch *sql.RecordBatch, out sql.DataType) (*sql.Column, error) {
	n := batch.NumRows()
	col := sql.NewColumn(out, n)
	records := batch.ToRecords()
	for i := 0; i < n; i++ {
		v, err := e.Eval(ctx, records[i])
		if err != nil {
			return nil, err
		}
		col.Set(i, v)
	}
	return col, nil
}

// NullIfAnyNull returns true if evaluating op should short-circuit to Null
// because of args, for the default (non-null-tolerant) propagation rule.
func NullIfAnyNull(args ...sql.Value) (sql.Value, bool) {
	for _, a := range args {
		if a.IsNull() {
			return sql.Null(), true
		}
	}
	return sql.Value{}, false
}
