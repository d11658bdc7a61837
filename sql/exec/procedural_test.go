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

package exec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/memory"
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/exec"
	"github.com/coldbrook-data/bqengine/sql/expr"
	"github.com/coldbrook-data/bqengine/sql/plan"
	"github.com/coldbrook-data/bqengine/sql/types"
)

func TestOpen_DeclareSetIfBranchesOnVariable(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	block := &plan.Block{Stmts: []plan.Node{
		&plan.Declare{Name: "x", Type: types.Int64, Default: expr.NewLiteral(sql.Int64Val(0), types.Int64)},
		&plan.Set{Names: []string{"x"}, Value: expr.NewLiteral(sql.Int64Val(5), types.Int64)},
		&plan.If{Branches: []plan.IfBranch{
			{
				Condition: expr.NewBinaryOp(">", expr.NewVariable("x", types.Int64), expr.NewLiteral(sql.Int64Val(3), types.Int64), types.Bool),
				Body:      &plan.Set{Names: []string{"x"}, Value: expr.NewLiteral(sql.Int64Val(100), types.Int64)},
			},
		}},
	}}

	it, err := exec.Open(ctx, block, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)

	v, ok := ctx.GetVar("x")
	require.True(t, ok)
	require.Equal(t, int64(100), v.Int())
}

func TestOpen_WhileLoopWithBreak(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	block := &plan.Block{Stmts: []plan.Node{
		&plan.Declare{Name: "i", Type: types.Int64, Default: expr.NewLiteral(sql.Int64Val(0), types.Int64)},
		&plan.While{
			Condition: expr.NewLiteral(sql.BoolVal(true), types.Bool),
			Body: &plan.Block{Stmts: []plan.Node{
				&plan.Set{Names: []string{"i"}, Value: expr.NewBinaryOp("+", expr.NewVariable("i", types.Int64), expr.NewLiteral(sql.Int64Val(1), types.Int64), types.Int64)},
				&plan.If{Branches: []plan.IfBranch{
					{
						Condition: expr.NewBinaryOp(">=", expr.NewVariable("i", types.Int64), expr.NewLiteral(sql.Int64Val(3), types.Int64), types.Bool),
						Body:      &plan.Break{},
					},
				}},
			}},
		},
	}}

	it, err := exec.Open(ctx, block, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)

	v, ok := ctx.GetVar("i")
	require.True(t, ok)
	require.Equal(t, int64(3), v.Int())
}

func TestOpen_ReturnCarriesValueToTop(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	ret := &plan.Return{Value: expr.NewLiteral(sql.Int64Val(42), types.Int64)}
	it, err := exec.Open(ctx, ret, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)
	require.Equal(t, int64(42), rows[0][0].Int())
}

func TestOpen_AssertFailureRaisesError(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	assert := &plan.Assert{Condition: expr.NewLiteral(sql.BoolVal(false), types.Bool), Description: "boom"}
	_, err := exec.Open(ctx, assert, db)
	require.Error(t, err)
}

func TestOpen_TryCatchRecoversAndBindsMessage(t *testing.T) {
	ctx := newCtx()
	db := memory.NewDatabase("db")

	tc := &plan.TryCatch{
		Try:          &plan.Assert{Condition: expr.NewLiteral(sql.BoolVal(false), types.Bool), Description: "nope"},
		CatchVarName: "err",
		Catch:        &plan.Declare{Name: "recovered", Type: types.Bool, Default: expr.NewLiteral(sql.BoolVal(true), types.Bool)},
	}

	it, err := exec.Open(ctx, tc, db)
	require.NoError(t, err)
	rows := drain(t, it, ctx)
	require.Len(t, rows, 1)

	v, ok := ctx.GetVar("recovered")
	require.True(t, ok)
	require.True(t, v.Bool())
}
