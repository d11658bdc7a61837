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

// ScalarFunction dispatches a call to the registered builtin or UDF Expr
// body looked up at plan time; Entry is resolved once by the
// planner so evaluation never pays a registry lookup per row.
type ScalarFunction struct {
	Name    string
	Args    []Expr
	Entry   *function.Entry
	UDFBody Expr // non-nil when Name resolved to a catalog SQL-expression UDF instead of a builtin
	Typ     sql.DataType
}

func NewScalarFunction(name string, args []Expr, entry *function.Entry, typ sql.DataType) *ScalarFunction {
	return &ScalarFunction{Name: strings.ToUpper(name), Args: args, Entry: entry, Typ: typ}
}

func (f *ScalarFunction) Type() sql.DataType { return f.Typ }
func (f *ScalarFunction) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (f *ScalarFunction) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	if f.UDFBody != nil {
		return f.UDFBody.Eval(ctx, row)
	}
	args := make([]sql.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(ctx, row)
		if err != nil {
			return sql.Null(), err
		}
		args[i] = v
	}
	return f.Entry.CallRow(ctx, args)
}

func (f *ScalarFunction) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	if f.UDFBody != nil {
		return f.UDFBody.EvalBatch(ctx, batch)
	}
	cols := make([]*sql.Column, len(f.Args))
	for i, a := range f.Args {
		c, err := a.EvalBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return f.Entry.CallVec(ctx, cols, batch.NumRows())
}

func (f *ScalarFunction) Children() []Expr { return f.Args }

func (f *ScalarFunction) WithChildren(children []Expr) (Expr, error) {
	n := *f
	n.Args = children
	return &n, nil
}
