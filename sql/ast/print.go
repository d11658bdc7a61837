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

package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Render deparses stmt back into SQL text, the AST package's analogue of
// vitess's sqlparser.String(nodes): CREATE VIEW/CREATE TABLE FUNCTION
// bodies are stored as raw text in the catalog and re-parsed at each
// reference, so the planner needs a way back from the AST it built
// while planning the CREATE statement to the text the catalog keeps.
// Render does not need to be a byte-identical round-trip, only a
// semantically equivalent one the same grammar can re-parse.
func Render(stmt Statement) string {
	var b strings.Builder
	writeStmt(&b, stmt)
	return b.String()
}

func writeStmt(b *strings.Builder, stmt Statement) {
	switch n := stmt.(type) {
	case *SelectStmt:
		writeSelect(b, n)
	case *SetOpStmt:
		writeStmt(b, n.Left)
		b.WriteString(" ")
		b.WriteString(n.Op)
		if n.All {
			b.WriteString(" ALL")
		}
		b.WriteString(" ")
		writeStmt(b, n.Right)
		writeOrderLimit(b, n.OrderBy, n.Limit, n.Offset)
	default:
		b.WriteString(fmt.Sprintf("/* unrenderable statement %T */", stmt))
	}
}

func writeSelect(b *strings.Builder, s *SelectStmt) {
	if len(s.With) > 0 {
		b.WriteString("WITH ")
		for i, c := range s.With {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
			b.WriteString(" AS (")
			writeStmt(b, c.Query)
			b.WriteString(")")
		}
		b.WriteString(" ")
	}
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, item := range s.SelectList {
		if i > 0 {
			b.WriteString(", ")
		}
		writeSelectItem(b, item)
	}
	if len(s.From) > 0 {
		b.WriteString(" FROM ")
		for i, te := range s.From {
			if i > 0 {
				b.WriteString(", ")
			}
			writeTableExpr(b, te)
		}
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		writeExpr(b, s.Where)
	}
	if s.GroupBy != nil {
		b.WriteString(" GROUP BY ")
		writeGroupBy(b, s.GroupBy)
	}
	if s.Having != nil {
		b.WriteString(" HAVING ")
		writeExpr(b, s.Having)
	}
	if s.Qualify != nil {
		b.WriteString(" QUALIFY ")
		writeExpr(b, s.Qualify)
	}
	writeOrderLimit(b, s.OrderBy, s.Limit, s.Offset)
}

func writeGroupBy(b *strings.Builder, gb *GroupByClause) {
	switch {
	case gb.All:
		b.WriteString("ALL")
	case gb.Rollup:
		b.WriteString("ROLLUP(")
		writeExprList(b, gb.Exprs)
		b.WriteString(")")
	case gb.Cube:
		b.WriteString("CUBE(")
		writeExprList(b, gb.Exprs)
		b.WriteString(")")
	case len(gb.GroupingSets) > 0:
		b.WriteString("GROUPING SETS(")
		for i, s := range gb.GroupingSets {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			writeExprList(b, s)
			b.WriteString(")")
		}
		b.WriteString(")")
	default:
		writeExprList(b, gb.Exprs)
	}
}

func writeOrderLimit(b *strings.Builder, order []OrderItem, limit, offset Expr) {
	if len(order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range order {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, o.Expr)
			if o.Desc {
				b.WriteString(" DESC")
			}
			if o.NullsSet {
				if o.NullsFirst {
					b.WriteString(" NULLS FIRST")
				} else {
					b.WriteString(" NULLS LAST")
				}
			}
		}
	}
	if limit != nil {
		b.WriteString(" LIMIT ")
		writeExpr(b, limit)
	}
	if offset != nil {
		b.WriteString(" OFFSET ")
		writeExpr(b, offset)
	}
}

func writeSelectItem(b *strings.Builder, item SelectItem) {
	if item.Star {
		if item.Qual != "" {
			b.WriteString(item.Qual)
			b.WriteString(".")
		}
		b.WriteString("*")
		return
	}
	writeExpr(b, item.Expr)
	if item.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(item.Alias)
	}
}

func writeTableExpr(b *strings.Builder, te TableExpr) {
	switch n := te.(type) {
	case *TableName:
		if n.Schema != "" {
			b.WriteString(n.Schema)
			b.WriteString(".")
		}
		b.WriteString(n.Name)
		if n.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(n.Alias)
		}
	case *TVFCall:
		b.WriteString(n.Name)
		b.WriteString("(")
		writeExprList(b, n.Args)
		b.WriteString(")")
		if n.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(n.Alias)
		}
	case *SubqueryExpr:
		b.WriteString("(")
		writeStmt(b, n.Query)
		b.WriteString(")")
		if n.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(n.Alias)
		}
	case *JoinExpr:
		writeTableExpr(b, n.Left)
		b.WriteString(" ")
		b.WriteString(n.Kind)
		b.WriteString(" JOIN ")
		writeTableExpr(b, n.Right)
		if n.On != nil {
			b.WriteString(" ON ")
			writeExpr(b, n.On)
		} else if len(n.Using) > 0 {
			b.WriteString(" USING (")
			b.WriteString(strings.Join(n.Using, ", "))
			b.WriteString(")")
		}
	case *UnnestExpr:
		b.WriteString("UNNEST(")
		writeExpr(b, n.Array)
		b.WriteString(")")
		if n.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(n.Alias)
		}
		if n.WithOffset {
			b.WriteString(" WITH OFFSET")
			if n.OffsetAlias != "" {
				b.WriteString(" AS ")
				b.WriteString(n.OffsetAlias)
			}
		}
	default:
		b.WriteString(fmt.Sprintf("/* unrenderable table expr %T */", te))
	}
}

func writeExprList(b *strings.Builder, exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, e)
	}
}

func writeExpr(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("NULL")
	case *Ident:
		if n.Table != "" {
			b.WriteString(n.Table)
			b.WriteString(".")
		}
		b.WriteString(n.Name)
	case *Literal:
		writeLiteral(b, n)
	case *Variable:
		b.WriteString("@")
		b.WriteString(n.Name)
	case *BinaryExpr:
		b.WriteString("(")
		writeExpr(b, n.Left)
		b.WriteString(" ")
		b.WriteString(n.Op)
		b.WriteString(" ")
		writeExpr(b, n.Right)
		b.WriteString(")")
	case *UnaryExpr:
		b.WriteString(n.Op)
		b.WriteString(" ")
		writeExpr(b, n.Operand)
	case *IsNullExpr:
		writeExpr(b, n.Operand)
		b.WriteString(" IS ")
		if n.Negated {
			b.WriteString("NOT ")
		}
		b.WriteString("NULL")
	case *IsDistinctFromExpr:
		writeExpr(b, n.Left)
		b.WriteString(" IS ")
		if n.Negated {
			b.WriteString("NOT ")
		}
		b.WriteString("DISTINCT FROM ")
		writeExpr(b, n.Right)
	case *LikeExpr:
		writeExpr(b, n.Operand)
		if n.Negated {
			b.WriteString(" NOT")
		}
		if n.CaseInsensitive {
			b.WriteString(" ILIKE ")
		} else {
			b.WriteString(" LIKE ")
		}
		writeExpr(b, n.Pattern)
	case *InListExpr:
		writeExpr(b, n.Operand)
		if n.Negated {
			b.WriteString(" NOT")
		}
		b.WriteString(" IN (")
		writeExprList(b, n.List)
		b.WriteString(")")
	case *InSubqueryExpr:
		writeExpr(b, n.Operand)
		if n.Negated {
			b.WriteString(" NOT")
		}
		b.WriteString(" IN (")
		writeStmt(b, n.Query)
		b.WriteString(")")
	case *ExistsExpr:
		if n.Negated {
			b.WriteString("NOT ")
		}
		b.WriteString("EXISTS (")
		writeStmt(b, n.Query)
		b.WriteString(")")
	case *BetweenExpr:
		writeExpr(b, n.Operand)
		if n.Negated {
			b.WriteString(" NOT")
		}
		b.WriteString(" BETWEEN ")
		writeExpr(b, n.Low)
		b.WriteString(" AND ")
		writeExpr(b, n.High)
	case *CastExpr:
		if n.Safe {
			b.WriteString("SAFE_CAST(")
		} else {
			b.WriteString("CAST(")
		}
		writeExpr(b, n.Operand)
		b.WriteString(" AS ")
		b.WriteString(n.Type)
		b.WriteString(")")
	case *CaseExpr:
		b.WriteString("CASE ")
		if n.Operand != nil {
			writeExpr(b, n.Operand)
			b.WriteString(" ")
		}
		for _, w := range n.Whens {
			b.WriteString("WHEN ")
			writeExpr(b, w.When)
			b.WriteString(" THEN ")
			writeExpr(b, w.Then)
			b.WriteString(" ")
		}
		if n.Else != nil {
			b.WriteString("ELSE ")
			writeExpr(b, n.Else)
			b.WriteString(" ")
		}
		b.WriteString("END")
	case *FuncCall:
		b.WriteString(n.Name)
		b.WriteString("(")
		if n.Distinct {
			b.WriteString("DISTINCT ")
		}
		writeExprList(b, n.Args)
		b.WriteString(")")
	case *StructLiteral:
		b.WriteString("STRUCT(")
		for i, v := range n.Values {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, v)
			if i < len(n.Names) && n.Names[i] != "" {
				b.WriteString(" AS ")
				b.WriteString(n.Names[i])
			}
		}
		b.WriteString(")")
	case *ArrayLiteral:
		b.WriteString("[")
		writeExprList(b, n.Values)
		b.WriteString("]")
	case *FieldAccess:
		writeExpr(b, n.Operand)
		b.WriteString(".")
		b.WriteString(n.Field)
	case *LambdaExpr:
		b.WriteString("(")
		b.WriteString(strings.Join(n.Params, ", "))
		b.WriteString(") -> ")
		writeExpr(b, n.Body)
	case *SubstringExpr:
		b.WriteString("SUBSTR(")
		writeExpr(b, n.Operand)
		b.WriteString(", ")
		writeExpr(b, n.From)
		if n.For != nil {
			b.WriteString(", ")
			writeExpr(b, n.For)
		}
		b.WriteString(")")
	case *TrimExpr:
		b.WriteString("TRIM(")
		writeExpr(b, n.Operand)
		b.WriteString(")")
	case *ExtractExpr:
		b.WriteString("EXTRACT(")
		b.WriteString(n.Field)
		b.WriteString(" FROM ")
		writeExpr(b, n.Operand)
		b.WriteString(")")
	case *AliasExpr:
		writeExpr(b, n.Expr)
		b.WriteString(" AS ")
		b.WriteString(n.Alias)
	case *DefaultExpr:
		b.WriteString("DEFAULT")
	case *ScalarSubquery:
		b.WriteString("(")
		writeStmt(b, n.Query)
		b.WriteString(")")
	case *SubqueryExpr:
		b.WriteString("(")
		writeStmt(b, n.Query)
		b.WriteString(")")
	default:
		b.WriteString(fmt.Sprintf("/* unrenderable expr %T */", e))
	}
}

func writeLiteral(b *strings.Builder, n *Literal) {
	if n.TypeHint != "" {
		b.WriteString(n.TypeHint)
		b.WriteString(" ")
		if s, ok := n.Raw.(string); ok {
			b.WriteString(strconv.Quote(s))
			return
		}
	}
	switch v := n.Raw.(type) {
	case nil:
		b.WriteString("NULL")
	case bool:
		if v {
			b.WriteString("TRUE")
		} else {
			b.WriteString("FALSE")
		}
	case string:
		b.WriteString(strconv.Quote(v))
	default:
		fmt.Fprintf(b, "%v", v)
	}
}
