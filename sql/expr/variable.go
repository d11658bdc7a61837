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

import "github.com/coldbrook-data/bqengine/sql"

// Variable resolves a session-scoped variable (DECLARE/SET, or a prepared
// statement's @bind parameter) at evaluation time.
type Variable struct {
	Name string
	Typ  sql.DataType
}

func NewVariable(name string, t sql.DataType) *Variable { return &Variable{Name: name, Typ: t} }

func (v *Variable) Type() sql.DataType { return v.Typ }
func (v *Variable) String() string     { return "@" + v.Name }

func (v *Variable) Eval(ctx *sql.Context, row sql.Record) (sql.Value, error) {
	if val, ok := ctx.GetVar(v.Name); ok {
		return val, nil
	}
	return sql.Null(), nil
}

func (v *Variable) EvalBatch(ctx *sql.Context, batch *sql.RecordBatch) (*sql.Column, error) {
	return EvalBatchRowwise(ctx, v, batch, v.Typ)
}

func (v *Variable) Children() []Expr { return nil }

func (v *Variable) WithChildren(children []Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidQuery("Variable takes no children")
	}
	return v, nil
}
