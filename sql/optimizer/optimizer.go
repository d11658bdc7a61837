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

// Package optimizer rewrites a Logical Plan into a Physical Plan: a
// one-time Logical→Physical translation followed by rule passes iterated
// to a fixed point, grounded in go-mysql-server's analyzer.Analyzer/
// batch-rule structure but operating over an immutable plan.Node tree
// directly rather than a rule-registry of named batches.
package optimizer

import (
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/stats"
)

// MaxRounds bounds the rewrite-pass fixed-point loop (Pipeline: "cap
// at, e.g., 16 rounds").
const MaxRounds = 16

// rule is one full-tree rewrite pass; ok reports whether it changed
// anything, so the fixed-point loop can stop early.
type rule func(o *Optimizer, n plan.Node) (plan.Node, bool, error)

// Optimizer holds the optional statistics collaborator the cost-based
// join-order rule and selectivity estimation consult; a nil Stats
// falls back to the constant defaults in sql/stats.
type Optimizer struct {
	Stats stats.Provider
}

func New(p stats.Provider) *Optimizer {
	return &Optimizer{Stats: p}
}

// rules runs in the declared order (numbering) each round; cost-based
// join reordering runs last so it sees the already-hash-joined,
// already-pushed-down shape of the tree.
var rules = []rule{
	ruleCrossToHashJoin,
	rulePredicatePushdown,
	ruleLimitPushdown,
	ruleSortElimination,
	ruleDistinctElimination,
	ruleJoinOrder,
}

// Optimize translates the Logical Plan to a Physical Plan and iterates the
// rule passes to a fixed point. Pure and synchronous per Propagation:
// no I/O, no Context, errors return immediately.
func (o *Optimizer) Optimize(n plan.Node) (plan.Node, error) {
	n, err := physicalize(n, o)
	if err != nil {
		return nil, err
	}
	for round := 0; round < MaxRounds; round++ {
		changed := false
		for _, r := range rules {
			var rc bool
			var err error
			n, rc, err = r(o, n)
			if err != nil {
				return nil, err
			}
			changed = changed || rc
		}
		if !changed {
			break
		}
	}
	return n, nil
}
