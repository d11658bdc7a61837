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

package expr

import (
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/function"
)

// Aggregate is the logical-plan form of an aggregate call (SUM(x),
// COUNT(DISTINCT y),...). It is never evaluated directly — the optimizer
// rewrites every plan.Aggregate node's Exprs into a physical HashAggregate
// whose output schema slots match each Aggregate's CanonicalName, and
// Project/Having/Sort nodes above it reference that slot via a plain
// expr.Column. Eval/EvalBatch exist only so Aggregate satisfies Expr
// during planning (e.g. inside a HAVING clause before rewrite).
type Aggregate struct {
	FuncName    string
	Args        []Expr
	Distinct    bool
	Entry       *function.AggEntry
	Typ         sql.DataType
	Filter      Expr      // FILTER (WHERE ...), nil if absent
	OrderBy     []OrderKey // ARRAY_AGG/STRING_AGG ORDER BY slot; the planner leaves it empty and HashAggregate does not read it
	Limit       int64      // ARRAY_AGG/STRING_AGG LIMIT slot (0 means unlimited); the planner leaves it 0 and HashAggregate does not read it
	IgnoreNulls bool
}

func NewAggregate(name string, args []Expr, distinct bool, entry *function.AggEntry, typ sql.DataType) *Aggregate {
	return &Aggregate{FuncName: strings.ToUpper(name), Args: args, Distinct: distinct, Entry: entry, Typ: typ}
}

func (a *Aggregate) Type() sql.DataType { return a.Typ }
func (a *Aggregate) String() string     { return a.CanonicalName() }

// CanonicalName produces a dedup key so that `SELECT SUM(x), SUM(x)` and
// `HAVING SUM(x) > 0` referencing the same aggregate share one accumulator
// slot in the physical HashAggregate instead of computing it twice.
func (a *Aggregate) CanonicalName() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	name := a.FuncName + "(" + strings.Join(parts, ", ") + ")"
	if a.Distinct {
		name = a.FuncName + "(DISTINCT " + strings.Join(parts, ", ") + ")"
	}
	return name
}

func (a *Aggregate) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return sql.Null(), sql.ErrInternal("Aggregate %s must be rewritten into a physical HashAggregate before evaluation", a.CanonicalName())
}

func (a *Aggregate) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return nil, sql.ErrInternal("Aggregate %s must be rewritten into a physical HashAggregate before evaluation", a.CanonicalName())
}

func (a *Aggregate) Children() []Expr { return a.Args }

func (a *Aggregate) WithChildren(children []Expr) (Expr, error) {
	n := *a
	n.Args = children
	return &n, nil
}
