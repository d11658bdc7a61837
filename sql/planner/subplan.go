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

package planner

import (
	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/plan"
)

// OpenFunc turns a Logical/Physical Plan node into a running BatchIter; the
// executor package supplies the real implementation via RegisterOpener at
// init time. Indirecting through a package variable lets sql/planner build
// sql.SubPlan shims for subquery expressions without importing sql/exec,
// which itself imports sql/planner's sibling sql/optimizer output.
type OpenFunc func(ctx *sql.Context, node plan.Node, cat sql.Catalog) (sql.BatchIter, error)

var opener OpenFunc

// RegisterOpener installs the executor's plan-opening entry point. Called
// once from sql/exec's init.
func RegisterOpener(f OpenFunc) { opener = f }

// Opener returns the currently registered OpenFunc, or nil before the
// executor package has been linked in.
func Opener() OpenFunc { return opener }
