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
	"github.com/coldbrook-data/bqengine/sql/types"
)

// ctrlKind distinguishes the three ways a statement body can unwind
// without a real error: BREAK/CONTINUE out of a loop, or RETURN out of a
// procedure. No package in go-mysql-server implements comparable scripting
// control flow; this sentinel-error mechanism is this executor's own
// design.
type ctrlKind int

const (
	ctrlBreak ctrlKind = iota
	ctrlContinue
	ctrlReturn
)

type ctrlSignal struct {
	kind  ctrlKind
	value sql.Value
}

func (c *ctrlSignal) Error() string { return "procedural control transfer" }

// sqlRunner is the re-entrancy hook EXECUTE IMMEDIATE calls through; set
// by the top-level engine (which alone holds the parser/planner/optimizer
// needed to run dynamically composed SQL text), analogous to
// planner.RegisterOpener's indirection.
var sqlRunner func(ctx *sql.Context, text string, args []sql.Value) ([]sql.Record, sql.Schema, error)

// SetSQLRunner installs the callback EXECUTE IMMEDIATE uses to re-enter
// the engine with dynamically composed SQL text.
func SetSQLRunner(fn func(ctx *sql.Context, text string, args []sql.Value) ([]sql.Record, sql.Schema, error)) {
	sqlRunner = fn
}

// openStatement runs a procedural node to completion and reports its
// outcome as a single-row status batch, or as the carried value if a bare
// RETURN escaped to the top of the script.
func openStatement(ctx *sql.Context, node plan.Node, cat sql.Catalog) (sql.BatchIter, error) {
	err := execStmt(ctx, node, cat)
	if err == nil {
		return &onceIter{batch: statusBatch()}, nil
	}
	if sig, ok := err.(*ctrlSignal); ok {
		if sig.kind != ctrlReturn {
			return nil, sql.ErrInvalidQuery("BREAK/CONTINUE used outside a loop")
		}
		if sig.value.IsNull() {
			return &onceIter{batch: statusBatch()}, nil
		}
		schema := sql.Schema{{Name: "value", Type: valueType(sig.value)}}
		return &onceIter{batch: sql.RecordsToBatch(schema, []sql.Record{{sig.value}})}, nil
	}
	return nil, err
}

func valueType(v sql.Value) sql.DataType {
	switch v.Kind {
	case sql.KBool:
		return types.Bool
	case sql.KInt64, sql.KDate, sql.KTime, sql.KDateTime, sql.KTimestamp:
		return types.Int64
	case sql.KFloat64:
		return types.Float64
	case sql.KString:
		return types.String
	case sql.KBytes:
		return types.Bytes
	case sql.KJson:
		return types.Json
	default:
		return types.String
	}
}

// execStmt runs one procedural node, returning a *ctrlSignal when
// BREAK/CONTINUE/RETURN needs to unwind past it, or any evaluation error.
func execStmt(ctx *sql.Context, node plan.Node, cat sql.Catalog) error {
	if err := ctx.CheckCancelled(); err != nil {
		return err
	}
	switch n := node.(type) {
	case *plan.Block:
		for _, s := range n.Stmts {
			if err := execStmt(ctx, s, cat); err != nil {
				return err
			}
		}
		return nil

	case *plan.If:
		for _, br := range n.Branches {
			if br.Condition != nil {
				ok, err := evalCond(ctx, br.Condition, nil)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
			}
			return execStmt(ctx, br.Body, cat)
		}
		return nil

	case *plan.While:
		for {
			ok, err := evalCond(ctx, n.Condition, nil)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if done, err := runLoopBody(ctx, n.Body, cat); done || err != nil {
				return err
			}
		}

	case *plan.Loop:
		for {
			if done, err := runLoopBody(ctx, n.Body, cat); done || err != nil {
				return err
			}
		}

	case *plan.Repeat:
		for {
			if done, err := runLoopBody(ctx, n.Body, cat); done || err != nil {
				return err
			}
			ok, err := evalCond(ctx, n.Condition, nil)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}

	case *plan.For:
		in, err := Open(ctx, n.Query, cat)
		if err != nil {
			return err
		}
		defer in.Close(ctx)
		cur := newRowCursor(in)
		schema := n.Query.Schema()
		for {
			r, ok, err := cur.next(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			fields := make([]sql.StructField, len(schema))
			for i, f := range schema {
				fields[i] = sql.StructField{Name: f.Name, Value: r[i]}
			}
			ctx.SetVar(n.VarName, sql.StructVal(fields))
			if done, err := runLoopBody(ctx, n.Body, cat); done || err != nil {
				return err
			}
		}

	case *plan.Return:
		v := sql.Null()
		if n.Value != nil {
			val, err := n.Value.Eval(ctx, nil)
			if err != nil {
				return err
			}
			v = val
		}
		return &ctrlSignal{kind: ctrlReturn, value: v}

	case *plan.Raise:
		msg := "user-raised error"
		if n.Message != nil {
			v, err := n.Message.Eval(ctx, nil)
			if err != nil {
				return err
			}
			if !v.IsNull() {
				msg = v.Str()
			}
		}
		return sql.ErrRaised(msg)

	case *plan.Break:
		return &ctrlSignal{kind: ctrlBreak}

	case *plan.Continue:
		return &ctrlSignal{kind: ctrlContinue}

	case *plan.TryCatch:
		err := execStmt(ctx, n.Try, cat)
		if err == nil {
			return nil
		}
		if _, ok := err.(*ctrlSignal); ok {
			return err
		}
		ctx.SetVar(n.CatchVarName, sql.StructVal([]sql.StructField{
			{Name: "message", Value: sql.StringVal(err.Error())},
		}))
		return execStmt(ctx, n.Catch, cat)

	case *plan.ExecuteImmediate:
		if sqlRunner == nil {
			return sql.ErrUnsupported("EXECUTE IMMEDIATE is not wired to a SQL runner")
		}
		textVal, err := n.SQLExpr.Eval(ctx, nil)
		if err != nil {
			return err
		}
		args := make([]sql.Value, len(n.UsingArgs))
		for i, a := range n.UsingArgs {
			v, err := a.Eval(ctx, nil)
			if err != nil {
				return err
			}
			args[i] = v
		}
		rows, schema, err := sqlRunner(ctx, textVal.Str(), args)
		if err != nil {
			return err
		}
		if len(n.IntoVars) > 0 && len(rows) > 0 {
			row := rows[0]
			for i, name := range n.IntoVars {
				if i < len(row) {
					ctx.SetVar(name, row[i])
				}
			}
		}
		_ = schema
		return nil

	case *plan.Assert:
		ok, err := evalCond(ctx, n.Condition, nil)
		if err != nil {
			return err
		}
		if !ok {
			desc := n.Description
			if desc == "" {
				desc = "assertion failed"
			}
			return sql.ErrInvalidQuery("%s", desc)
		}
		return nil

	case *plan.Declare:
		v := sql.Null()
		if n.Default != nil {
			val, err := n.Default.Eval(ctx, nil)
			if err != nil {
				return err
			}
			v = val
		}
		ctx.SetVar(n.Name, v)
		return nil

	case *plan.Set:
		v, err := n.Value.Eval(ctx, nil)
		if err != nil {
			return err
		}
		if len(n.Names) == 1 {
			ctx.SetVar(n.Names[0], v)
			return nil
		}
		for i, name := range n.Names {
			if v.Kind == sql.KStruct && i < len(v.Struct()) {
				ctx.SetVar(name, v.Struct()[i].Value)
			} else {
				ctx.SetVar(name, sql.Null())
			}
		}
		return nil

	case *plan.Transaction:
		return nil

	default:
		return sql.ErrUnsupported("exec: unsupported procedural node %T", node)
	}
}

// runLoopBody executes a loop body once, reporting (true, nil) when the
// enclosing loop should stop (BREAK), (false, nil) to keep looping
// (including after a CONTINUE), or (true, err) when a real error or a
// RETURN needs to propagate further up.
func runLoopBody(ctx *sql.Context, body plan.Node, cat sql.Catalog) (bool, error) {
	err := execStmt(ctx, body, cat)
	if err == nil {
		return false, nil
	}
	if sig, ok := err.(*ctrlSignal); ok {
		switch sig.kind {
		case ctrlBreak:
			return true, nil
		case ctrlContinue:
			return false, nil
		case ctrlReturn:
			return true, err
		}
	}
	return true, err
}
