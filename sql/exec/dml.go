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
)

func openInsert(ctx *sql.Context, n *plan.Insert, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	in, err := Open(ctx, n.Source, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	rows, err := newRowCursor(in).drainAll(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := m.InsertRows(ctx, n.Table, rows)
	if err != nil {
		return nil, err
	}
	return &onceIter{batch: rowsAffectedBatch(affected)}, nil
}

// openUpdate evaluates Sets against each scanned row to build the new
// row value, then hands (old,new) pairs to the Mutator: a full-row value
// replace, not primary-key based.
func openUpdate(ctx *sql.Context, n *plan.Update, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	in, err := Open(ctx, n.Scan, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	cur := newRowCursor(in)

	schema := n.Scan.Schema()
	var updates []sql.RowUpdate
	for {
		r, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if n.Where != nil {
			ok, err := evalCond(ctx, n.Where, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		newRow := append(sql.Record{}, r...)
		for _, set := range n.Sets {
			idx := schema.IndexOf("", set.Column)
			if idx < 0 {
				return nil, sql.ErrColumnNotFound(set.Column)
			}
			v, err := set.Value.Eval(ctx, r)
			if err != nil {
				return nil, err
			}
			newRow[idx] = v
		}
		updates = append(updates, sql.RowUpdate{Old: r, New: newRow})
	}
	affected, err := m.UpdateRows(ctx, n.Table, updates)
	if err != nil {
		return nil, err
	}
	return &onceIter{batch: rowsAffectedBatch(affected)}, nil
}

func openDelete(ctx *sql.Context, n *plan.Delete, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	in, err := Open(ctx, n.Scan, cat)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx)
	cur := newRowCursor(in)

	var rows []sql.Record
	for {
		r, ok, err := cur.next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if n.Where != nil {
			ok, err := evalCond(ctx, n.Where, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, r)
	}
	affected, err := m.DeleteRows(ctx, n.Table, rows)
	if err != nil {
		return nil, err
	}
	return &onceIter{batch: rowsAffectedBatch(affected)}, nil
}

// openMerge implements MERGE INTO: Source rows are matched against
// the target's current rows by On, and each matched/unmatched pair is
// dispatched through the first applicable WHEN clause, BigQuery
// evaluates WHEN clauses in order and applies the first whose optional
// AND condition holds.
func openMerge(ctx *sql.Context, n *plan.Merge, cat sql.Catalog) (sql.BatchIter, error) {
	m, err := mutatorOf(cat)
	if err != nil {
		return nil, err
	}
	targetSchema, ok := cat.GetTableSchema(n.Target)
	if !ok {
		return nil, sql.ErrTableNotFound(n.Target)
	}
	targetIter, err := cat.Scan(ctx, n.Target)
	if err != nil {
		return nil, err
	}
	targetRows, err := newRowCursor(targetIter).drainAll(ctx)
	targetIter.Close(ctx)
	if err != nil {
		return nil, err
	}

	sourceIter, err := Open(ctx, n.Source, cat)
	if err != nil {
		return nil, err
	}
	defer sourceIter.Close(ctx)
	sourceRows, err := newRowCursor(sourceIter).drainAll(ctx)
	if err != nil {
		return nil, err
	}

	targetWidth := len(targetSchema)
	targetMatched := make([]bool, len(targetRows))

	var inserts []sql.Record
	var updates []sql.RowUpdate
	var deletes []sql.Record

	applyMatched := func(combined sql.Record, target sql.Record) error {
		for _, act := range n.Actions {
			if !act.Matched {
				continue
			}
			if act.Condition != nil {
				ok, err := evalCond(ctx, act.Condition, combined)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			if act.IsDelete {
				deletes = append(deletes, target)
				return nil
			}
			newRow := append(sql.Record{}, target...)
			for _, set := range act.Sets {
				idx := targetSchema.IndexOf("", set.Column)
				if idx < 0 {
					return sql.ErrColumnNotFound(set.Column)
				}
				v, err := set.Value.Eval(ctx, combined)
				if err != nil {
					return err
				}
				newRow[idx] = v
			}
			updates = append(updates, sql.RowUpdate{Old: target, New: newRow})
			return nil
		}
		return nil
	}

	applyNotMatchedByTarget := func(source sql.Record) error {
		for _, act := range n.Actions {
			if act.Matched || !act.ByTarget {
				continue
			}
			if act.Condition != nil {
				ok, err := evalCond(ctx, act.Condition, source)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			row := nullRow(targetWidth)
			for i, col := range act.InsertCols {
				idx := targetSchema.IndexOf("", col)
				if idx < 0 {
					return sql.ErrColumnNotFound(col)
				}
				v, err := act.InsertVals[i].Eval(ctx, source)
				if err != nil {
					return err
				}
				row[idx] = v
			}
			inserts = append(inserts, row)
			return nil
		}
		return nil
	}

	applyNotMatchedBySource := func(target sql.Record) error {
		for _, act := range n.Actions {
			if act.Matched || act.ByTarget {
				continue
			}
			if act.Condition != nil {
				ok, err := evalCond(ctx, act.Condition, target)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			if act.IsDelete {
				deletes = append(deletes, target)
			}
			return nil
		}
		return nil
	}

	for _, sr := range sourceRows {
		matched := false
		for ti, tr := range targetRows {
			combined := concatRows(tr, sr)
			ok, err := evalCond(ctx, n.On, combined)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			matched = true
			targetMatched[ti] = true
			if err := applyMatched(combined, tr); err != nil {
				return nil, err
			}
		}
		if !matched {
			if err := applyNotMatchedByTarget(sr); err != nil {
				return nil, err
			}
		}
	}
	for ti, tr := range targetRows {
		if !targetMatched[ti] {
			if err := applyNotMatchedBySource(tr); err != nil {
				return nil, err
			}
		}
	}

	var affected int64
	if len(inserts) > 0 {
		cnt, err := m.InsertRows(ctx, n.Target, inserts)
		if err != nil {
			return nil, err
		}
		affected += cnt
	}
	if len(updates) > 0 {
		cnt, err := m.UpdateRows(ctx, n.Target, updates)
		if err != nil {
			return nil, err
		}
		affected += cnt
	}
	if len(deletes) > 0 {
		cnt, err := m.DeleteRows(ctx, n.Target, deletes)
		if err != nil {
			return nil, err
		}
		affected += cnt
	}
	return &onceIter{batch: rowsAffectedBatch(affected)}, nil
}
