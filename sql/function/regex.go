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

package function

import (
	"regexp"
	"sync"

	"github.com/coldbrook-data/bqengine/sql"
)

// compileRegexp compiles and caches a RE2 pattern for the REGEXP_* family.
// BigQuery's engine documents ICU/RE2-flavored regex; RE2 (Go's stdlib
// regexp) is the closest match available without a cgo dependency, and no
// pack library wraps ICU-semantics regex in pure Go — see DESIGN.md.
var (
	reCacheMu sync.Mutex
	reCache   = map[string]*regexp.Regexp{}
)

func compileRegexp(pattern string) (*regexp.Regexp, error) {
	reCacheMu.Lock()
	defer reCacheMu.Unlock()
	if re, ok := reCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, sql.ErrInvalidQuery("invalid regular expression %q: %v", pattern, err)
	}
	reCache[pattern] = re
	return re, nil
}
