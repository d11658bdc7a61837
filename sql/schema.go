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

import "strings"

// PlanField describes one column of a plan node's output schema: name,
// type, nullability, and the table it was projected from (if any). Field
// indices are stable within a node — downstream operators reference
// columns by index, never by name (Schema / PlanField invariant).
type PlanField struct {
	Name     string
	Type     DataType
	Nullable bool
	Table    string // owning table, empty if synthesized (e.g. expr alias)
}

// Schema is an ordered sequence of PlanField.
type Schema []PlanField

// IndexOf returns the index of the first field matching name, preferring
// an exact (table, name) match over an unqualified name match, per the
// planner's "qualified t.c preferred over unqualified" resolution rule.
func (s Schema) IndexOf(table, name string) int {
	qualified := -1
	unqualified := -1
	count := 0
	for i, f := range s {
		if !strings.EqualFold(f.Name, name) {
			continue
		}
		if table != "" && strings.EqualFold(f.Table, table) {
			qualified = i
		}
		if unqualified == -1 {
			unqualified = i
		}
		count++
	}
	if qualified >= 0 {
		return qualified
	}
	if count > 1 && table == "" {
		return -2 // ambiguous
	}
	return unqualified
}

func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Concat returns a new Schema that is the receiver followed by other,
// used when building a join's output schema (L ++ R, testable property).
func (s Schema) Concat(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	out = append(out, s...)
	out = append(out, other...)
	return out
}

func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}
