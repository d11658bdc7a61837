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
	"github.com/coldbrook-data/bqengine/sql/types"
)

// IsNull is Expr's IsNull(+negated) variant — one of the null-tolerant
// exceptions to default null propagation.
type IsNull struct {
	Operand Expr
	Negated bool
}

func NewIsNull(operand Expr, negated bool) *IsNull { return &IsNull{Operand: operand, Negated: negated} }

func (n *IsNull) Type() sql.DataType { return types.Bool }
func (n *IsNull) String() string {
	if n.Negated {
		return n.Operand.String() + " IS NOT NULL"
	}
	return n.Operand.String() + " IS NULL"
}
func (n *IsNull) Children() []Expr { return []Expr{n.Operand} }
func (n *IsNull) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("IsNull takes exactly 1 child")
	}
	c := *n
	c.Operand = children[0]
	return &c, nil
}

func (n *IsNull) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	v, err := n.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	return sql.BoolVal(v.IsNull() != n.Negated), nil
}

func (n *IsNull) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	in, err := n.Operand.EvalBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	out := sql.NewColumn(types.Bool, batch.NumRows())
	for i := 0; i < batch.NumRows(); i++ {
		out.Set(i, sql.BoolVal(in.IsNull(i) != n.Negated))
	}
	return out, nil
}

// IsDistinctFrom is Expr's IsDistinctFrom(+negated) — also null-tolerant:
// unlike `=`, it never itself returns Null.
type IsDistinctFrom struct {
	Left, Right Expr
	Negated     bool
}

func NewIsDistinctFrom(l, r Expr, negated bool) *IsDistinctFrom {
	return &IsDistinctFrom{Left: l, Right: r, Negated: negated}
}

func (d *IsDistinctFrom) Type() sql.DataType { return types.Bool }
func (d *IsDistinctFrom) String() string {
	op := "IS DISTINCT FROM"
	if d.Negated {
		op = "IS NOT DISTINCT FROM"
	}
	return d.Left.String() + " " + op + " " + d.Right.String()
}
func (d *IsDistinctFrom) Children() []Expr { return []Expr{d.Left, d.Right} }
func (d *IsDistinctFrom) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidQuery("IsDistinctFrom takes exactly 2 children")
	}
	c := *d
	c.Left, c.Right = children[0], children[1]
	return &c, nil
}

func (d *IsDistinctFrom) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	l, err := d.Left.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	r, err := d.Right.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	distinct := distinctValues(l, r)
	return sql.BoolVal(distinct != d.Negated), nil
}

func distinctValues(l, r sql.Value) bool {
	if l.IsNull() && r.IsNull() {
		return false
	}
	if l.IsNull() != r.IsNull() {
		return true
	}
	return !l.Equal(r)
}

func (d *IsDistinctFrom) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, d, batch, types.Bool)
}

// Like is Expr's Like(+negated, case_insensitive) variant (ILIKE lowers to
// CaseInsensitive=true).
type Like struct {
	Operand         Expr
	Pattern         Expr
	Negated         bool
	CaseInsensitive bool
}

func NewLike(operand, pattern Expr, negated, ci bool) *Like {
	return &Like{Operand: operand, Pattern: pattern, Negated: negated, CaseInsensitive: ci}
}

func (l *Like) Type() sql.DataType { return types.Bool }
func (l *Like) String() string {
	op := "LIKE"
	if l.CaseInsensitive {
		op = "ILIKE"
	}
	if l.Negated {
		op = "NOT " + op
	}
	return l.Operand.String() + " " + op + " " + l.Pattern.String()
}
func (l *Like) Children() []Expr { return []Expr{l.Operand, l.Pattern} }
func (l *Like) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidQuery("Like takes exactly 2 children")
	}
	c := *l
	c.Operand, c.Pattern = children[0], children[1]
	return &c, nil
}

func (l *Like) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	ov, err := l.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	pv, err := l.Pattern.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if ov.IsNull() || pv.IsNull() {
		return sql.Null(), nil
	}
	m := MatchLike(ov.Str(), pv.Str(), l.CaseInsensitive)
	return sql.BoolVal(m != l.Negated), nil
}

// MatchLike implements SQL LIKE semantics (% = any run, _ = single char)
// with an explicit backslash escape, case-folding both sides first when ci
// is set.
func MatchLike(s, pattern string, ci bool) bool {
	if ci {
		s = strings.ToLower(s)
		pattern = strings.ToLower(pattern)
	}
	return likeMatch(s, pattern)
}

func likeMatch(s, p string) bool {
	var memo = map[[2]int]bool{}
	var rec func(si, pi int) bool
	rec = func(si, pi int) bool {
		key := [2]int{si, pi}
		if v, ok := memo[key]; ok {
			return v
		}
		var res bool
		switch {
		case pi == len(p):
			res = si == len(s)
		case p[pi] == '%':
			res = rec(si, pi+1)
			for i := si; !res && i < len(s); i++ {
				res = rec(i+1, pi+1)
			}
		case p[pi] == '_':
			res = si < len(s) && rec(si+1, pi+1)
		case p[pi] == '\\' && pi+1 < len(p):
			res = si < len(s) && s[si] == p[pi+1] && rec(si+1, pi+2)
		default:
			res = si < len(s) && s[si] == p[pi] && rec(si+1, pi+1)
		}
		memo[key] = res
		return res
	}
	return rec(0, 0)
}

func (l *Like) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, l, batch, types.Bool)
}

// InList is Expr's InList(+negated) variant.
type InList struct {
	Operand Expr
	List    []Expr
	Negated bool
}

func NewInList(operand Expr, list []Expr, negated bool) *InList {
	return &InList{Operand: operand, List: list, Negated: negated}
}

func (n *InList) Type() sql.DataType { return types.Bool }
func (n *InList) String() string     { return n.Operand.String() + " IN (...)" }
func (n *InList) Children() []Expr {
	out := append([]Expr{n.Operand}, n.List...)
	return out
}
func (n *InList) WithChildren(children []Expr) (Expr, error) {
	if len(children) < 1 {
		return nil, sql.ErrInvalidQuery("InList takes at least 1 child")
	}
	c := *n
	c.Operand = children[0]
	c.List = children[1:]
	return &c, nil
}

func (n *InList) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	ov, err := n.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if ov.IsNull() {
		return sql.Null(), nil
	}
	sawNull := false
	for _, e := range n.List {
		lv, err := e.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		if lv.IsNull() {
			sawNull = true
			continue
		}
		if ov.Equal(lv) {
			return sql.BoolVal(!n.Negated), nil
		}
	}
	if sawNull {
		return sql.Null(), nil
	}
	return sql.BoolVal(n.Negated), nil
}

func (n *InList) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, n, batch, types.Bool)
}

// Between is Expr's Between(+negated) variant: operand BETWEEN low AND high.
type Between struct {
	Operand   Expr
	Low, High Expr
	Negated   bool
}

func NewBetween(operand, low, high Expr, negated bool) *Between {
	return &Between{Operand: operand, Low: low, High: high, Negated: negated}
}

func (b *Between) Type() sql.DataType { return types.Bool }
func (b *Between) String() string     { return b.Operand.String() + " BETWEEN ... AND ..." }
func (b *Between) Children() []Expr   { return []Expr{b.Operand, b.Low, b.High} }
func (b *Between) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 3 {
		return nil, sql.ErrInvalidQuery("Between takes exactly 3 children")
	}
	c := *b
	c.Operand, c.Low, c.High = children[0], children[1], children[2]
	return &c, nil
}

func (b *Between) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	ov, err := b.Operand.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	lo, err := b.Low.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	hi, err := b.High.Eval(ctx, row)
	if err != nil {
		return sql.Null(), err
	}
	if ov.IsNull() || lo.IsNull() || hi.IsNull() {
		return sql.Null(), nil
	}
	res := sql.Compare(ov, lo) >= 0 && sql.Compare(ov, hi) <= 0
	return sql.BoolVal(res != b.Negated), nil
}

func (b *Between) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, b, batch, types.Bool)
}
