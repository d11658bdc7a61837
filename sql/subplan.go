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

// SubPlan is the minimal surface an expression-embedded subquery's physical
// plan exposes back to the expression evaluator. Declared in package sql
// (rather than imported from sql/exec) so sql/expr can hold a subquery's
// compiled plan without sql/expr and sql/exec importing each other — each
// Subquery/ScalarSubquery node owns its own plan by value (design note).
type SubPlan interface {
	Schema() Schema
	Open(ctx *Context) (BatchIter, error)
}

// DrainAll pulls every row out of a BatchIter, used by scalar/EXISTS/IN
// subquery evaluation which needs the whole (typically tiny, correlated)
// result materialized per outer row.
func DrainAll(ctx *Context, it BatchIter) ([]Record, error) {
	var out []Record
	for {
		b, err := it.Next(ctx)
		if err != nil {
			if err == ErrEndOfBatches {
				break
			}
			return nil, err
		}
		out = append(out, b.ToRecords()...)
	}
	return out, nil
}

// ErrEndOfBatches is the sentinel BatchIter.Next returns once exhausted,
// the columnar analogue of io.EOF.
var ErrEndOfBatches = NewError(KindInternal, "end of batches")
