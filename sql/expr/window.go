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

// OrderKey is a resolved ORDER BY item: the planner has already bound Expr
// to a column index within the relevant operator's input schema. Collate
// carries a BigQuery collation specifier (e.g. "und:ci") verbatim from the
// AST; empty means binary comparison.
type OrderKey struct {
	Expr       Expr
	Desc       bool
	NullsFirst bool
	Collate    string
}

// FrameBoundKind mirrors ast.FrameBoundKind after planning.
type FrameBoundKind int

const (
	BoundUnboundedPreceding FrameBoundKind = iota
	BoundPreceding
	BoundCurrentRow
	BoundFollowing
	BoundUnboundedFollowing
)

// Frame is a resolved window frame: Mode is "ROWS" or "RANGE" (RANGE
// frame semantics over non-ORDER-BY-column types remain an explicit open
// question, carried forward rather than guessed at — see DESIGN.md).
type Frame struct {
	Mode  string
	Start FrameBound
	End   FrameBound
}

type FrameBound struct {
	Kind   FrameBoundKind
	Offset Expr
}

// WindowFunction is the logical-plan form of an OVER(...) call. Like
// Aggregate, it is rewritten by the optimizer into a physical Window
// operator slot rather than evaluated directly; Eval/EvalBatch exist only
// to satisfy Expr pre-rewrite.
type WindowFunction struct {
	FuncName    string
	Args        []Expr
	PartitionBy []Expr
	OrderBy     []OrderKey
	Frame       *Frame
	AggEntry    *function.AggEntry // non-nil for aggregate-as-window-function (SUM(x) OVER (...))
	Typ         sql.DataType
}

func (w *WindowFunction) Type() sql.DataType { return w.Typ }
func (w *WindowFunction) String() string {
	parts := make([]string, len(w.Args))
	for i, a := range w.Args {
		parts[i] = a.String()
	}
	return w.FuncName + "(" + strings.Join(parts, ", ") + ") OVER (...)"
}

func (w *WindowFunction) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	return sql.Null(), sql.ErrInternal("WindowFunction %s must be rewritten into a physical Window operator before evaluation", w.FuncName)
}

func (w *WindowFunction) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return nil, sql.ErrInternal("WindowFunction %s must be rewritten into a physical Window operator before evaluation", w.FuncName)
}

func (w *WindowFunction) Children() []Expr {
	children := append([]Expr{}, w.Args...)
	children = append(children, w.PartitionBy...)
	for _, ob := range w.OrderBy {
		children = append(children, ob.Expr)
	}
	return children
}

func (w *WindowFunction) WithChildren(children []Expr) (Expr, error) {
	n := *w
	i := 0
	n.Args = append([]Expr{}, children[i:i+len(w.Args)]...)
	i += len(w.Args)
	n.PartitionBy = append([]Expr{}, children[i:i+len(w.PartitionBy)]...)
	i += len(w.PartitionBy)
	n.OrderBy = make([]OrderKey, len(w.OrderBy))
	for j := range w.OrderBy {
		n.OrderBy[j] = OrderKey{Expr: children[i], Desc: w.OrderBy[j].Desc, NullsFirst: w.OrderBy[j].NullsFirst}
		i++
	}
	return &n, nil
}

// RankFuncs names the window functions computed from row position within
// the sorted partition rather than through AggEntry; ROW_NUMBER, RANK,
// DENSE_RANK, PERCENT_RANK and CUME_DIST ignore Args, while NTILE, LAG,
// LEAD, FIRST_VALUE, LAST_VALUE and NTH_VALUE read them.
var RankFuncs = map[string]bool{
	"ROW_NUMBER": true, "RANK": true, "DENSE_RANK": true,
	"PERCENT_RANK": true, "CUME_DIST": true, "NTILE": true,
	"LAG": true, "LEAD": true, "FIRST_VALUE": true, "LAST_VALUE": true, "NTH_VALUE": true,
}
