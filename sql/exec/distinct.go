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
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// encodeRow builds a map key from a Record's total order per value, used
// by Distinct and the hash-based Join/Aggregate/SetOp operators below;
// Value isn't itself comparable (it embeds slices), so every grouping/
// dedup structure in this package keys off this string encoding instead.
func encodeRow(r sql.Record) string {
	var b strings.Builder
	for i, v := range r {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		encodeValue(&b, v)
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v sql.Value) {
	if v.IsNull() {
		b.WriteString("\x00N")
		return
	}
	b.WriteByte(byte(v.Kind))
	b.WriteByte(':')
	switch v.Kind {
	case sql.KArray:
		for i, e := range v.Array() {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeValue(b, e)
		}
	case sql.KStruct:
		for i, f := range v.Struct() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name)
			b.WriteByte('=')
			encodeValue(b, f.Value)
		}
	default:
		b.WriteString(v.String())
	}
}

func encodeValues(vs []sql.Value) string {
	var b strings.Builder
	for i, v := range vs {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		encodeValue(&b, v)
	}
	return b.String()
}

// distinctIter removes duplicate rows by full-row key (Distinct); a
// single seen-set spans the whole operator so duplicates across batch
// boundaries are still caught.
type distinctIter struct {
	input  sql.BatchIter
	seen   map[string]struct{}
	schema sql.Schema
}

func openDistinct(ctx *sql.Context, n *plan.Distinct, cat sql.Catalog) (sql.BatchIter, error) {
	in, err := Open(ctx, n.Input, cat)
	if err != nil {
		return nil, err
	}
	return &distinctIter{input: in, seen: make(map[string]struct{}), schema: n.Schema()}, nil
}

func (d *distinctIter) Next(ctx *sql.Context) (*sql.RecordBatch, error) {
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		batch, err := d.input.Next(ctx)
		if err != nil {
			return nil, err
		}
		keep := make([]int, 0, batch.NumRows())
		for i := 0; i < batch.NumRows(); i++ {
			key := encodeRow(batch.Row(i))
			if _, ok := d.seen[key]; ok {
				continue
			}
			d.seen[key] = struct{}{}
			keep = append(keep, i)
		}
		if len(keep) == 0 {
			continue
		}
		cols := make([]*sql.Column, len(batch.Columns))
		for i, c := range batch.Columns {
			cols[i] = c.Gather(keep)
		}
		return sql.NewRecordBatch(d.schema, cols), nil
	}
}

func (d *distinctIter) Close(ctx *sql.Context) error { return d.input.Close(ctx) }
