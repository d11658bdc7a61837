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

// Package bqengine is the in-process, vectorized BigQuery-dialect SQL
// engine: Engine wires together the Parser/Planner/Optimizer/executor
// collaborators behind a single Session.Exec entry point, mirroring
// go-mysql-server's own sqle.Engine/Config split at the repository root.
package bqengine

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/ast"
	"github.com/coldbrook-data/bqengine/sql/exec"
	"github.com/coldbrook-data/bqengine/sql/optimizer"
	"github.com/coldbrook-data/bqengine/sql/planner"
	"github.com/coldbrook-data/bqengine/sql/stats"
)

// Config holds the Engine's tunables, mirroring go-mysql-server's own
// sqle.Config (VersionPostfix, IsReadOnly,...) scaled to this engine's
// own knobs.
type Config struct {
	// BatchSize is stored on the Engine but not read by it: the executor
	// always uses its own package default RecordBatch width.
	BatchSize int
	// MaxOptimizerRounds is stored on the Engine but not read by it: the
	// optimizer always stops after optimizer.MaxRounds rounds.
	MaxOptimizerRounds int
	// IsReadOnly rejects DDL/DML statements before they reach the executor.
	IsReadOnly bool
}

// Engine owns the collaborators a Session needs: a Catalog (and, for
// writes, its Mutator side), a Parser, and optional column statistics for
// the cost-based optimizer.
type Engine struct {
	Catalog sql.Catalog
	Parser  planner.Parser
	Stats   stats.Provider
	Config  Config

	log *logrus.Entry
}

// New builds an Engine. parser is the external tokenizer/grammar
// collaborator, not implemented by this module; cat is typically a
// *memory.Database for a bare engine with no external storage wired in.
func New(cat sql.Catalog, parser planner.Parser, cfg Config) *Engine {
	e := &Engine{
		Catalog: cat,
		Parser:  parser,
		Config:  cfg,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	exec.SetSQLRunner(func(ctx *sql.Context, text string, args []sql.Value) ([]sql.Record, sql.Schema, error) {
		for i, v := range args {
			ctx.SetVar(positionalParamName(i), v)
		}
		rs, err := e.execText(ctx, text)
		if err != nil {
			return nil, nil, err
		}
		return rs.ToRecords(), rs.Schema, nil
	})
	return e
}

// NewSession opens a Session bound to this Engine, stamping a fresh
// session-scoped Context.
func (e *Engine) NewSession(parent context.Context) *Session {
	ctx := sql.NewContext(parent, e.log)
	return &Session{engine: e, ctx: ctx}
}

// ResultSet is what Session.Exec returns: the output schema plus the
// materialized rows, batched through the same RecordBatch shape the
// executor produces internally, not flattened until ToRecords is called.
type ResultSet struct {
	Schema    sql.Schema
	Batches   []*sql.RecordBatch
	RowsAffected int64
}

// ToRecords flattens every batch into row-major Records, the shape test
// assertions and callers that don't care about vectorization want.
func (r *ResultSet) ToRecords() []sql.Record {
	var out []sql.Record
	for _, b := range r.Batches {
		out = append(out, b.ToRecords()...)
	}
	return out
}

// Session is one client's query-execution context against an Engine: a
// session-scoped Context carrying variables, cancellation, and clock,
// re-stamped with a fresh query ID on every Exec.
type Session struct {
	engine *Engine
	ctx    *sql.Context
}

func (s *Session) Context() *sql.Context { return s.ctx }

// Cancel marks the session's Context cancelled; every in-flight operator
// observes it at its next batch boundary.
func (s *Session) Cancel() { s.ctx.Cancel() }

// Exec parses, plans, optimizes, and executes one statement of SQL text,
// draining the result into a ResultSet.
func (s *Session) Exec(ctx context.Context, text string) (*ResultSet, error) {
	qctx := s.ctx.WithQuery()
	return s.engine.execText(qctx, text)
}

func (e *Engine) execText(ctx *sql.Context, text string) (*ResultSet, error) {
	if e.Parser == nil {
		return nil, sql.ErrInternal("engine: no parser configured")
	}
	stmt, err := e.Parser.Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return e.execStatement(ctx, stmt)
}

func (e *Engine) execStatement(ctx *sql.Context, stmt ast.Statement) (*ResultSet, error) {
	if e.Config.IsReadOnly && isWriteStatement(stmt) {
		return nil, sql.ErrUnsupported("engine: read-only, statement would mutate state")
	}
	p := planner.New(e.Catalog, e.Parser)
	logical, err := p.Plan(stmt)
	if err != nil {
		return nil, errors.Wrap(err, "plan")
	}

	opt := optimizer.New(e.Stats)
	physical, err := opt.Optimize(logical)
	if err != nil {
		return nil, errors.Wrap(err, "optimize")
	}

	it, err := exec.Open(ctx, physical, e.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer it.Close(ctx)

	rs := &ResultSet{Schema: physical.Schema()}
	for {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, err
		}
		batch, err := it.Next(ctx)
		if err != nil {
			if err == sql.ErrEndOfBatches {
				break
			}
			return nil, err
		}
		rs.Batches = append(rs.Batches, batch)
	}
	if rs.Schema == nil && len(rs.Batches) == 1 {
		if v, ok := singleInt64Column(rs.Batches[0], "rows_affected"); ok {
			rs.RowsAffected = v
		}
	}
	return rs, nil
}

func singleInt64Column(b *sql.RecordBatch, name string) (int64, bool) {
	if len(b.Schema) != 1 || b.Schema[0].Name != name || b.NumRows() != 1 {
		return 0, false
	}
	return b.Columns[0].Get(0).Int(), true
}

func positionalParamName(i int) string {
	return "?" + string(rune('1'+i))
}

func isWriteStatement(stmt ast.Statement) bool {
	switch stmt.(type) {
	case *ast.InsertStmt, *ast.UpdateStmt, *ast.DeleteStmt, *ast.MergeStmt,
		*ast.CreateTableStmt, *ast.CreateViewStmt, *ast.CreateFunctionStmt,
		*ast.CreateSchemaStmt, *ast.AlterTableStmt:
		return true
	default:
		return false
	}
}
