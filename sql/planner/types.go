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
	"strings"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

// parseTypeName resolves a CAST/DECLARE/column-def type spelling (as the
// parser hands it to us, e.g. "INT64", "ARRAY<STRING>", "STRUCT<a INT64,
// b STRING>") into a concrete sql.DataType.
func parseTypeName(name string) (sql.DataType, error) {
	s := strings.TrimSpace(name)
	upper := strings.ToUpper(s)
	switch upper {
	case "INT64", "INTEGER", "INT", "SMALLINT", "BIGINT", "TINYINT", "BYTEINT":
		return types.Int64, nil
	case "FLOAT64", "FLOAT", "DOUBLE":
		return types.Float64, nil
	case "BOOL", "BOOLEAN":
		return types.Bool, nil
	case "STRING", "TEXT":
		return types.String, nil
	case "BYTES":
		return types.Bytes, nil
	case "DATE":
		return types.Date, nil
	case "TIME":
		return types.Time, nil
	case "DATETIME":
		return types.DateTime, nil
	case "TIMESTAMP":
		return types.Timestamp, nil
	case "NUMERIC", "DECIMAL":
		return types.Numeric, nil
	case "BIGNUMERIC", "BIGDECIMAL":
		return types.BigNumeric, nil
	case "INTERVAL":
		return types.Interval, nil
	case "JSON":
		return types.Json, nil
	case "GEOGRAPHY":
		return types.Geography, nil
	}
	switch {
	case strings.HasPrefix(upper, "ARRAY<") && strings.HasSuffix(s, ">"):
		inner := s[len("ARRAY<") : len(s)-1]
		elem, err := parseTypeName(inner)
		if err != nil {
			return nil, err
		}
		return types.ArrayType{Elem: elem}, nil
	case strings.HasPrefix(upper, "STRUCT<") && strings.HasSuffix(s, ">"):
		inner := s[len("STRUCT<") : len(s)-1]
		fields, err := parseStructFields(inner)
		if err != nil {
			return nil, err
		}
		return types.StructType{Fields: fields}, nil
	case strings.HasPrefix(upper, "RANGE<") && strings.HasSuffix(s, ">"):
		inner := s[len("RANGE<") : len(s)-1]
		elem, err := parseTypeName(inner)
		if err != nil {
			return nil, err
		}
		return types.RangeType{Elem: elem}, nil
	}
	return nil, sql.ErrUnsupported("unrecognized type %q", name)
}

// parseStructFields splits a STRUCT<...> body on top-level commas (nested
// angle brackets don't count) and parses each "name type" pair.
func parseStructFields(body string) ([]sql.StructFieldType, error) {
	parts := splitTopLevel(body, ',')
	out := make([]sql.StructFieldType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		fields := strings.SplitN(p, " ", 2)
		if len(fields) != 2 {
			return nil, sql.ErrUnsupported("malformed struct field %q", p)
		}
		t, err := parseTypeName(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, err
		}
		out = append(out, sql.StructFieldType{Name: strings.TrimSpace(fields[0]), Type: t})
	}
	return out, nil
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

