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

package sql

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context wraps a standard context.Context with the session-scoped state
// planning and execution need: variables, a cancellation flag checked at
// operator batch boundaries, the session clock, and its locale.
//
// Every operator's RowIter/BatchIter threads a *Context through, the way
// go-mysql-server's own sql.Context wraps context.Context and is passed to
// every RowIter.Next call.
type Context struct {
	context.Context

	SessionID uuid.UUID
	QueryID   uuid.UUID
	Log       *logrus.Entry

	now    time.Time
	Locale string // BCP-47 tag of the session; COLLATE does not read it, a COLLATE specifier names its own tag

	// cancelled is shared by pointer so a Cancel on the session is seen by
	// every query Context WithQuery derived from it.
	cancelled *int32

	vars map[string]Value
}

// NewContext creates a session Context. now is captured once at session
// start so CURRENT_TIMESTAMP and friends are stable within a statement
// unless the caller advances it explicitly (matching BigQuery's
// statement-level timestamp stability).
func NewContext(parent context.Context, log *logrus.Entry) *Context {
	if parent == nil {
		parent = context.Background()
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	sid := uuid.New()
	return &Context{
		Context:   parent,
		SessionID: sid,
		Log:       log.WithField("session_id", sid.String()),
		now:       time.Now().UTC(),
		Locale:    "en-US",
		cancelled: new(int32),
		vars:      make(map[string]Value),
	}
}

// WithQuery returns a child Context stamped with a fresh query ID and
// current timestamp, used once per execute_sql call.
func (c *Context) WithQuery() *Context {
	qid := uuid.New()
	child := *c
	child.QueryID = qid
	child.now = time.Now().UTC()
	child.Log = c.Log.WithField("query_id", qid.String())
	return &child
}

func (c *Context) Now() time.Time { return c.now }

// Cancel marks the session cancelled; checked cooperatively by every
// operator between batches (Cancellation).
func (c *Context) Cancel() { atomic.StoreInt32(c.cancelled, 1) }

func (c *Context) Cancelled() bool { return atomic.LoadInt32(c.cancelled) != 0 }

// CheckCancelled returns ErrCancelled if the session was cancelled or the
// underlying context.Context was, so operators can bail out of a batch
// loop with a single call.
func (c *Context) CheckCancelled() error {
	if c.Cancelled() {
		return ErrCancelled()
	}
	select {
	case <-c.Done():
		return ErrCancelled()
	default:
		return nil
	}
}

// GetVar reads a session variable bound by DECLARE/SET/EXECUTE IMMEDIATE
// parameter passing, resolved at expression-evaluation time for Variable
// expressions (Procedural).
func (c *Context) GetVar(name string) (Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c *Context) SetVar(name string, v Value) {
	c.vars[name] = v
}
