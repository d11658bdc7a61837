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

package plan

import (
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/expr"
)

// Block is a BEGIN... END sequence of statements (Procedural).
type Block struct {
	Stmts []Node
}

func (b *Block) Schema() sql.Schema { return nil }
func (b *Block) Children() []Node   { return b.Stmts }
func (b *Block) WithChildren(children []Node) (Node, error) {
	n := *b
	n.Stmts = children
	return &n, nil
}
func (b *Block) String() string { return "Block" }

// IfBranch is one branch of an If statement: IF cond THEN body, or the
// final ELSE branch with Condition == nil.
type IfBranch struct {
	Condition expr.Expr
	Body      Node
}

// If plans IF/ELSEIF/ELSE.
type If struct {
	Branches []IfBranch
}

func (i *If) Schema() sql.Schema { return nil }
func (i *If) Children() []Node {
	out := make([]Node, len(i.Branches))
	for idx, b := range i.Branches {
		out[idx] = b.Body
	}
	return out
}
func (i *If) WithChildren(children []Node) (Node, error) {
	if len(children) != len(i.Branches) {
		return nil, sql.ErrInvalidQuery("If: child count mismatch")
	}
	n := *i
	n.Branches = make([]IfBranch, len(children))
	for idx, c := range children {
		n.Branches[idx] = IfBranch{Condition: i.Branches[idx].Condition, Body: c}
	}
	return &n, nil
}
func (i *If) String() string { return "If" }

// While plans WHILE cond DO body END WHILE.
type While struct {
	Condition expr.Expr
	Body      Node
}

func (w *While) Schema() sql.Schema { return nil }
func (w *While) Children() []Node   { return []Node{w.Body} }
func (w *While) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("While takes exactly one child")
	}
	n := *w
	n.Body = children[0]
	return &n, nil
}
func (w *While) String() string { return "While" }

// Loop plans LOOP body END LOOP: an unconditional loop, exited only via
// BREAK.
type Loop struct {
	Body Node
}

func (l *Loop) Schema() sql.Schema { return nil }
func (l *Loop) Children() []Node   { return []Node{l.Body} }
func (l *Loop) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Loop takes exactly one child")
	}
	n := *l
	n.Body = children[0]
	return &n, nil
}
func (l *Loop) String() string { return "Loop" }

// Repeat plans REPEAT body UNTIL cond END REPEAT: body runs at least once.
type Repeat struct {
	Body      Node
	Condition expr.Expr
}

func (r *Repeat) Schema() sql.Schema { return nil }
func (r *Repeat) Children() []Node   { return []Node{r.Body} }
func (r *Repeat) WithChildren(children []Node) (Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidQuery("Repeat takes exactly one child")
	}
	n := *r
	n.Body = children[0]
	return &n, nil
}
func (r *Repeat) String() string { return "Repeat" }

// For plans FOR var IN (query) DO body END FOR: body runs once per row of
// the query, with var bound to the row's struct value.
type For struct {
	VarName string
	Query   Node
	Body    Node
}

func (f *For) Schema() sql.Schema { return nil }
func (f *For) Children() []Node   { return []Node{f.Query, f.Body} }
func (f *For) WithChildren(children []Node) (Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidQuery("For takes exactly two children")
	}
	n := *f
	n.Query, n.Body = children[0], children[1]
	return &n, nil
}
func (f *For) String() string { return "For(" + f.VarName + ")" }

// Return plans RETURN [expr] inside a procedure/function body.
type Return struct {
	Value expr.Expr
}

func (r *Return) Schema() sql.Schema                       { return nil }
func (r *Return) Children() []Node                         { return nil }
func (r *Return) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Return takes no children")
	}
	return r, nil
}
func (r *Return) String() string { return "Return" }

// Raise plans RAISE [USING MESSAGE = expr]: raises a user error.
type Raise struct {
	Message expr.Expr
}

func (r *Raise) Schema() sql.Schema                       { return nil }
func (r *Raise) Children() []Node                         { return nil }
func (r *Raise) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Raise takes no children")
	}
	return r, nil
}
func (r *Raise) String() string { return "Raise" }

// Break plans BREAK inside a Loop/While/Repeat/For.
type Break struct{}

func (b *Break) Schema() sql.Schema                       { return nil }
func (b *Break) Children() []Node                         { return nil }
func (b *Break) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Break takes no children")
	}
	return b, nil
}
func (b *Break) String() string { return "Break" }

// Continue plans CONTINUE inside a Loop/While/Repeat/For.
type Continue struct{}

func (c *Continue) Schema() sql.Schema                       { return nil }
func (c *Continue) Children() []Node                         { return nil }
func (c *Continue) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Continue takes no children")
	}
	return c, nil
}
func (c *Continue) String() string { return "Continue" }

// TryCatch plans BEGIN... EXCEPTION WHEN ERROR THEN... END: any
// EngineError raised inside Try binds a descriptor value to CatchVarName
// within Catch's scope.
type TryCatch struct {
	Try          Node
	Catch        Node
	CatchVarName string
}

func (t *TryCatch) Schema() sql.Schema { return nil }
func (t *TryCatch) Children() []Node   { return []Node{t.Try, t.Catch} }
func (t *TryCatch) WithChildren(children []Node) (Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidQuery("TryCatch takes exactly two children")
	}
	n := *t
	n.Try, n.Catch = children[0], children[1]
	return &n, nil
}
func (t *TryCatch) String() string { return "TryCatch" }

// ExecuteImmediate plans EXECUTE IMMEDIATE sql_expr [INTO vars] [USING
// params]: the executor re-enters the whole pipeline with the dynamically
// composed SQL text and a child session state.
type ExecuteImmediate struct {
	SQLExpr   expr.Expr
	IntoVars  []string
	UsingArgs []expr.Expr
}

func (e *ExecuteImmediate) Schema() sql.Schema                       { return nil }
func (e *ExecuteImmediate) Children() []Node                         { return nil }
func (e *ExecuteImmediate) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("ExecuteImmediate takes no children")
	}
	return e, nil
}
func (e *ExecuteImmediate) String() string { return "ExecuteImmediate" }

// Assert plans ASSERT cond [AS description]: raises InvalidQuery when cond
// evaluates false.
type Assert struct {
	Condition   expr.Expr
	Description string
}

func (a *Assert) Schema() sql.Schema                       { return nil }
func (a *Assert) Children() []Node                         { return nil }
func (a *Assert) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Assert takes no children")
	}
	return a, nil
}
func (a *Assert) String() string { return "Assert" }

// Declare plans DECLARE var [type] [DEFAULT expr]: introduces a
// session-scoped variable binding (Procedural: "Variables are
// session-scoped name→Value").
type Declare struct {
	Name    string
	Type    sql.DataType
	Default expr.Expr
}

func (d *Declare) Schema() sql.Schema                       { return nil }
func (d *Declare) Children() []Node                         { return nil }
func (d *Declare) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Declare takes no children")
	}
	return d, nil
}
func (d *Declare) String() string { return "Declare(" + d.Name + ")" }

// Set plans SET var = expr, or SET (var,...) = (expr,...) when Names
// has more than one entry.
type Set struct {
	Names []string
	Value expr.Expr
}

func (s *Set) Schema() sql.Schema                       { return nil }
func (s *Set) Children() []Node                         { return nil }
func (s *Set) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Set takes no children")
	}
	return s, nil
}
func (s *Set) String() string { return "Set(" + strings.Join(s.Names, ",") + ")" }

// TxKind enumerates BEGIN/COMMIT/ROLLBACK transaction markers.
type TxKind int

const (
	TxBegin TxKind = iota
	TxCommit
	TxRollback
)

// Transaction is a logical-unit marker; the in-memory engine gates DML
// visibility within the session rather than implementing cross-session
// isolation (Transactions).
type Transaction struct {
	Kind TxKind
}

func (t *Transaction) Schema() sql.Schema                       { return nil }
func (t *Transaction) Children() []Node                         { return nil }
func (t *Transaction) WithChildren(children []Node) (Node, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Transaction takes no children")
	}
	return t, nil
}
func (t *Transaction) String() string { return "Transaction" }
