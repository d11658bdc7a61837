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

package function

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// Accumulator is the per-group state machine driving HashAggregate: one
// instance per (group, aggregate expression) pair. Update is called once
// per input row belonging to the group; Result is called once when the
// group is finalized.
type Accumulator interface {
	Update(args []sql.Value)
	Result() sql.Value
}

// NullsConfigurable is implemented by accumulators whose IGNORE NULLS
// clause behavior is runtime-configurable (ARRAY_AGG); most aggregates
// ignore nulls in their sole argument unconditionally and need no hook.
type NullsConfigurable interface {
	SetIgnoreNulls(bool)
}

// LimitConfigurable is implemented by accumulators that can cap how many
// ordered input values they retain (ARRAY_AGG/STRING_AGG's LIMIT clause).
type LimitConfigurable interface {
	SetLimit(int64)
}

// AggEntry is the aggregate-function analog of function.Entry: it builds a
// fresh Accumulator per group rather than evaluating a stateless kernel.
type AggEntry struct {
	Name       string
	New        func() Accumulator
	ReturnType TypeFn
	// AggEntry carries no DISTINCT flag: COUNT(DISTINCT x) is marked on
	// expr.Aggregate.Distinct, and the executor's hash aggregate drops
	// repeated args before Update is ever called.
}

type aggRegistry struct {
	entries map[string]*AggEntry
}

var globalAgg = &aggRegistry{entries: make(map[string]*AggEntry)}

func GlobalAggregates() *aggRegistry { return globalAgg }

func (r *aggRegistry) Register(e *AggEntry) { r.entries[strings.ToUpper(e.Name)] = e }

func (r *aggRegistry) Lookup(name string) (*AggEntry, bool) {
	e, ok := r.entries[strings.ToUpper(name)]
	return e, ok
}

type countAcc struct {
	star bool
	n    int64
}

func (a *countAcc) Update(args []sql.Value) {
	if a.star {
		a.n++
		return
	}
	if len(args) > 0 && !args[0].IsNull() {
		a.n++
	}
}
func (a *countAcc) Result() sql.Value { return sql.Int64Val(a.n) }

type countIfAcc struct{ n int64 }

func (a *countIfAcc) Update(args []sql.Value) {
	if len(args) > 0 && !args[0].IsNull() && args[0].Bool() {
		a.n++
	}
}
func (a *countIfAcc) Result() sql.Value { return sql.Int64Val(a.n) }

type sumAcc struct {
	isDecimal bool
	dec       decimal.Decimal
	f         float64
	any       bool
}

func (a *sumAcc) Update(args []sql.Value) {
	v := args[0]
	if v.IsNull() {
		return
	}
	a.any = true
	switch v.Kind {
	case sql.KNumeric, sql.KBigNumeric:
		a.isDecimal = true
		a.dec = a.dec.Add(v.Decimal())
	case sql.KInt64:
		a.f += float64(v.Int())
	default:
		a.f += toF(v)
	}
}
func (a *sumAcc) Result() sql.Value {
	if !a.any {
		return sql.Null()
	}
	if a.isDecimal {
		return sql.NumericVal(a.dec)
	}
	return sql.Float64Val(a.f)
}

type sumIfAcc struct{ sumAcc }

func (a *sumIfAcc) Update(args []sql.Value) {
	if len(args) > 1 && !args[1].IsNull() && args[1].Bool() {
		a.sumAcc.Update(args[:1])
	}
}

type avgAcc struct {
	sum sumAcc
	n   int64
}

func (a *avgAcc) Update(args []sql.Value) {
	if args[0].IsNull() {
		return
	}
	a.sum.Update(args)
	a.n++
}
func (a *avgAcc) Result() sql.Value {
	if a.n == 0 {
		return sql.Null()
	}
	s := a.sum.Result()
	return sql.Float64Val(toF(s) / float64(a.n))
}

type minMaxAcc struct {
	max bool
	v   sql.Value
	set bool
}

func (a *minMaxAcc) Update(args []sql.Value) {
	if args[0].IsNull() {
		return
	}
	if !a.set {
		a.v, a.set = args[0], true
		return
	}
	c := sql.Compare(args[0], a.v)
	if (a.max && c > 0) || (!a.max && c < 0) {
		a.v = args[0]
	}
}
func (a *minMaxAcc) Result() sql.Value {
	if !a.set {
		return sql.Null()
	}
	return a.v
}

// arrayAggAcc backs ARRAY_AGG, collecting values in input order; it does
// no sorting of its own. SetIgnoreNulls and SetLimit make Update skip
// NULLs and stop after limit values; unless they are called, every
// value, NULLs included, is kept.
type arrayAggAcc struct {
	vals         []sql.Value
	ignoreNulls  bool
	limit        int64
}

func (a *arrayAggAcc) Update(args []sql.Value) {
	if args[0].IsNull() && a.ignoreNulls {
		return
	}
	if a.limit > 0 && int64(len(a.vals)) >= a.limit {
		return
	}
	a.vals = append(a.vals, args[0])
}
func (a *arrayAggAcc) Result() sql.Value { return sql.ArrayVal(a.vals) }
func (a *arrayAggAcc) SetIgnoreNulls(b bool) { a.ignoreNulls = b }
func (a *arrayAggAcc) SetLimit(n int64)      { a.limit = n }

type stringAggAcc struct {
	parts []string
	sep   string
	limit int64
}

func (a *stringAggAcc) Update(args []sql.Value) {
	if args[0].IsNull() {
		return
	}
	if a.limit > 0 && int64(len(a.parts)) >= a.limit {
		return
	}
	if len(args) > 1 {
		a.sep = args[1].Str()
	}
	a.parts = append(a.parts, args[0].Str())
}
func (a *stringAggAcc) SetLimit(n int64) { a.limit = n }
func (a *stringAggAcc) Result() sql.Value {
	if len(a.parts) == 0 {
		return sql.Null()
	}
	sep := a.sep
	if sep == "" {
		sep = ","
	}
	return sql.StringVal(strings.Join(a.parts, sep))
}

// approxCountDistinctAcc is a linear-memory distinct set rather than a
// probabilistic sketch (HyperLogLog); accuracy over approximation is the
// right tradeoff at the data volumes this in-process engine targets, and
// no pack library supplies a BigQuery-compatible HLL++ sketch.
type approxCountDistinctAcc struct {
	seen map[string]struct{}
}

func (a *approxCountDistinctAcc) Update(args []sql.Value) {
	if args[0].IsNull() {
		return
	}
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	a.seen[args[0].String()] = struct{}{}
}
func (a *approxCountDistinctAcc) Result() sql.Value { return sql.Int64Val(int64(len(a.seen))) }

func init() {
	reg := GlobalAggregates()

	reg.Register(&AggEntry{Name: "COUNT", ReturnType: StaticReturn(types.Int64), New: func() Accumulator { return &countAcc{} }})
	reg.Register(&AggEntry{Name: "COUNT_STAR", ReturnType: StaticReturn(types.Int64), New: func() Accumulator { return &countAcc{star: true} }})
	reg.Register(&AggEntry{Name: "COUNTIF", ReturnType: StaticReturn(types.Int64), New: func() Accumulator { return &countIfAcc{} }})
	reg.Register(&AggEntry{Name: "SUM", ReturnType: StaticReturn(types.Float64), New: func() Accumulator { return &sumAcc{} }})
	reg.Register(&AggEntry{Name: "SUMIF", ReturnType: StaticReturn(types.Float64), New: func() Accumulator { return &sumIfAcc{} }})
	reg.Register(&AggEntry{Name: "AVG", ReturnType: StaticReturn(types.Float64), New: func() Accumulator { return &avgAcc{} }})
	reg.Register(&AggEntry{Name: "MIN", ReturnType: FirstArgReturn(), New: func() Accumulator { return &minMaxAcc{max: false} }})
	reg.Register(&AggEntry{Name: "MAX", ReturnType: FirstArgReturn(), New: func() Accumulator { return &minMaxAcc{max: true} }})
	reg.Register(&AggEntry{Name: "ARRAY_AGG", ReturnType: func(argTypes []sql.DataType) (sql.DataType, error) {
		if len(argTypes) == 0 {
			return nil, sql.ErrInvalidQuery("ARRAY_AGG requires an argument")
		}
		return types.ArrayType{Elem: argTypes[0]}, nil
	}, New: func() Accumulator { return &arrayAggAcc{} }})
	reg.Register(&AggEntry{Name: "STRING_AGG", ReturnType: StaticReturn(types.String), New: func() Accumulator { return &stringAggAcc{} }})
	reg.Register(&AggEntry{Name: "APPROX_COUNT_DISTINCT", ReturnType: StaticReturn(types.Int64), New: func() Accumulator { return &approxCountDistinctAcc{} }})
}
