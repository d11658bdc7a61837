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
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collatorCache memoizes *collate.Collator construction per collation
// specifier: BigQuery's COLLATE clause spells these as a BCP-47 language
// tag plus an optional ":ci"/":cs" strength suffix, e.g. "en_US:ci".
var (
	collatorMu    sync.Mutex
	collatorCache = map[string]*collate.Collator{}
)

func collatorFor(spec string) *collate.Collator {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	if c, ok := collatorCache[spec]; ok {
		return c
	}

	tagPart, strength, _ := strings.Cut(spec, ":")
	tagPart = strings.ReplaceAll(tagPart, "_", "-")
	tag := language.Und
	if tagPart != "" && !strings.EqualFold(tagPart, "und") {
		if t, err := language.Parse(tagPart); err == nil {
			tag = t
		}
	}

	opts := []collate.Option{collate.IgnoreDiacritics}
	if strings.EqualFold(strength, "ci") {
		opts = append(opts, collate.IgnoreCase)
	}
	c := collate.New(tag, opts...)
	collatorCache[spec] = c
	return c
}

// compareCollated orders two String values under a BigQuery collation
// specifier rather than the engine's default binary byte order.
func compareCollated(spec, a, b string) int {
	return collatorFor(spec).CompareString(a, b)
}
