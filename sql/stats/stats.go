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

// Package stats holds the column/table statistics the optimizer's
// selectivity estimation and cost-based join ordering consume, grounded
// on go-mysql-server's own sql/stats package existing for exactly this
// purpose.
package stats

// ColumnStats summarizes one column's value distribution for selectivity
// estimation: distinct-count for equality selectivity, null-ratio for
// IS [NOT] NULL selectivity, min/max for range comparisons.
type ColumnStats struct {
	DistinctCount int64
	NullRatio     float64
	Min, Max      interface{}
}

// TableStats summarizes one base table: row count plus per-column stats
// keyed by column name.
type TableStats struct {
	RowCount int64
	Columns  map[string]ColumnStats
}

// Provider is the optional catalog collaborator that supplies
// pre-computed statistics; when a table has none, the optimizer assumes
// DefaultSampleSize rows and the fallback selectivities below. No rows are
// sampled.
type Provider interface {
	TableStats(table string) (TableStats, bool)
}

// DefaultSampleSize is the row count the optimizer assumes for a table
// that has no statistics.
const DefaultSampleSize = 1000

// EqualitySelectivity estimates an equi-predicate's selectivity as
// 1/max(d1,d2) when both distinct counts are known, 1/d with one known,
// else the 0.1 fallback used when neither side has statistics.
func EqualitySelectivity(d1, d2 int64) float64 {
	switch {
	case d1 > 0 && d2 > 0:
		if d1 > d2 {
			return 1 / float64(d1)
		}
		return 1 / float64(d2)
	case d1 > 0:
		return 1 / float64(d1)
	case d2 > 0:
		return 1 / float64(d2)
	default:
		return 0.1
	}
}

// RangeSelectivity is the fixed 0.3 constant for <,>,<=,>= comparisons.
const RangeSelectivity = 0.3

// LikeSelectivity estimates a LIKE predicate's selectivity: 0.1 for a
// literal prefix pattern (no leading % or _), else 0.5; Negated flips it.
func LikeSelectivity(pattern string, negated bool) float64 {
	base := 0.5
	if len(pattern) > 0 && pattern[0] != '%' && pattern[0] != '_' {
		base = 0.1
	}
	if negated {
		return 1 - base
	}
	return base
}

// InSelectivity estimates an IN(list of k) predicate's selectivity as
// min(k*0.1, 0.5); Negated flips it.
func InSelectivity(k int, negated bool) float64 {
	base := float64(k) * 0.1
	if base > 0.5 {
		base = 0.5
	}
	if negated {
		return 1 - base
	}
	return base
}

// NullSelectivity estimates an IS [NOT] NULL predicate's selectivity as
// the column's null ratio (fallback 0.01), or its complement for IS NOT
// NULL.
func NullSelectivity(nullRatio float64, hasStats bool, isNot bool) float64 {
	r := nullRatio
	if !hasStats {
		r = 0.01
	}
	if isNot {
		return 1 - r
	}
	return r
}

// DefaultSelectivity is the catch-all for predicate shapes with no
// dedicated formula.
const DefaultSelectivity = 0.1
