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

package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/optimizer"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/stats"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func twoTableSchemas() (sql.Schema, sql.Schema) {
	left := sql.Schema{{Name: "id", Type: types.Int64, Table: "l"}, {Name: "val", Type: types.Int64, Table: "l"}}
	right := sql.Schema{{Name: "id", Type: types.Int64, Table: "r"}, {Name: "note", Type: types.String, Table: "r"}}
	return left, right
}

func TestOptimize_SortLimitBecomesTopN(t *testing.T) {
	sch := sql.Schema{{Name: "id", Type: types.Int64}}
	scan := plan.NewScan("t", "t", sch)
	sorted := &plan.Sort{Input: scan, Keys: []expr.OrderKey{{Expr: expr.NewColumn(0, types.Int64, "", "id", false)}}}
	lim := &plan.Limit{Input: sorted, Count: 5, Offset: 2}

	out, err := optimizer.New(nil).Optimize(lim)
	require.NoError(t, err)

	topn, ok := out.(*plan.TopN)
	require.True(t, ok, "expected *plan.TopN, got %T", out)
	require.Equal(t, int64(5), topn.K)
	require.Equal(t, int64(2), topn.Offset)
	require.Equal(t, scan, topn.Input)
}

func TestOptimize_CrossJoinWithEqualityFilterBecomesHashJoin(t *testing.T) {
	left, right := twoTableSchemas()
	l := plan.NewScan("l", "l", left)
	r := plan.NewScan("r", "r", right)
	cross := plan.NewJoin(l, r, plan.JoinCross, nil)

	cond := expr.NewBinaryOp("=",
		expr.NewColumn(0, types.Int64, "l", "id", false),
		expr.NewColumn(2, types.Int64, "r", "id", false),
		types.Bool)
	filt := plan.NewFilter(cross, cond)

	out, err := optimizer.New(nil).Optimize(filt)
	require.NoError(t, err)

	hj, ok := out.(*plan.HashJoin)
	require.True(t, ok, "expected *plan.HashJoin, got %T", out)
	require.Len(t, hj.Keys, 1)
	require.Nil(t, hj.Residual)
}

func TestOptimize_JoinWithNoEquiKeyBecomesNestedLoop(t *testing.T) {
	left, right := twoTableSchemas()
	l := plan.NewScan("l", "l", left)
	r := plan.NewScan("r", "r", right)

	cond := expr.NewBinaryOp("<",
		expr.NewColumn(1, types.Int64, "l", "val", false),
		expr.NewColumn(2, types.Int64, "r", "id", false),
		types.Bool)
	j := plan.NewJoin(l, r, plan.JoinInner, cond)

	out, err := optimizer.New(nil).Optimize(j)
	require.NoError(t, err)

	_, ok := out.(*plan.NestedLoopJoin)
	require.True(t, ok, "expected *plan.NestedLoopJoin, got %T", out)
}

func TestOptimize_PlainCrossJoinStaysPlain(t *testing.T) {
	left, right := twoTableSchemas()
	l := plan.NewScan("l", "l", left)
	r := plan.NewScan("r", "r", right)
	j := plan.NewJoin(l, r, plan.JoinCross, nil)

	out, err := optimizer.New(nil).Optimize(j)
	require.NoError(t, err)

	_, ok := out.(*plan.CrossJoin)
	require.True(t, ok, "expected *plan.CrossJoin, got %T", out)
}

func TestOptimize_DistinctOverLimitOneEliminated(t *testing.T) {
	sch := sql.Schema{{Name: "id", Type: types.Int64}}
	scan := plan.NewScan("t", "t", sch)
	lim := &plan.Limit{Input: scan, Count: 1}
	dist := &plan.Distinct{Input: lim}

	out, err := optimizer.New(nil).Optimize(dist)
	require.NoError(t, err)
	require.Equal(t, lim, out)
}

type fakeStatsProvider map[string]stats.TableStats

func (p fakeStatsProvider) TableStats(table string) (stats.TableStats, bool) {
	ts, ok := p[table]
	return ts, ok
}

func TestOptimize_HashJoinParallelHintFollowsEstimatedProbeSize(t *testing.T) {
	left, right := twoTableSchemas()
	cond := expr.NewBinaryOp("=",
		expr.NewColumn(0, types.Int64, "l", "id", false),
		expr.NewColumn(2, types.Int64, "r", "id", false),
		types.Bool)

	build := func(provider stats.Provider) *plan.HashJoin {
		l := plan.NewScan("l", "l", left)
		r := plan.NewScan("r", "r", right)
		j := plan.NewJoin(l, r, plan.JoinInner, cond)
		out, err := optimizer.New(provider).Optimize(j)
		require.NoError(t, err)
		hj, ok := out.(*plan.HashJoin)
		require.True(t, ok, "expected *plan.HashJoin, got %T", out)
		return hj
	}

	small := build(fakeStatsProvider{"l": stats.TableStats{RowCount: 10}})
	require.False(t, small.Hints.Parallel)

	large := build(fakeStatsProvider{"l": stats.TableStats{RowCount: 10000}})
	require.True(t, large.Hints.Parallel)
}

func TestOptimize_AggregateBecomesHashAggregate(t *testing.T) {
	sch := sql.Schema{{Name: "id", Type: types.Int64}}
	scan := plan.NewScan("t", "t", sch)
	agg := &plan.Aggregate{Input: scan, GroupingSets: [][]int{{}}}

	out, err := optimizer.New(nil).Optimize(agg)
	require.NoError(t, err)

	_, ok := out.(*plan.HashAggregate)
	require.True(t, ok, "expected *plan.HashAggregate, got %T", out)
}
