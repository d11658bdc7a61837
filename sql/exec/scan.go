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
)

// openScan delegates straight to the Catalog's own BatchIter: the
// executor doesn't know or care whether that's an in-memory column vector
// or something richer, only that it yields batches shaped like Sch.
func openScan(ctx *sql.Context, n *plan.Scan, cat sql.Catalog) (sql.BatchIter, error) {
	return cat.Scan(ctx, n.Table)
}
