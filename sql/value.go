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
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueKind tags the variant held by a Value, mirroring the data model's
// tagged union.
type ValueKind uint8

const (
	KNull ValueKind = iota
	KBool
	KInt64
	KFloat64
	KString
	KBytes
	KDate
	KTime
	KDateTime
	KTimestamp
	KNumeric
	KBigNumeric
	KInterval
	KArray
	KStruct
	KJson
	KGeography
	KRange
	KDefault
)

// Interval is the months/days/nanos triple BigQuery uses for INTERVAL
// literals and DATE/TIMESTAMP arithmetic.
type Interval struct {
	Months int32
	Days   int32
	Nanos  int64
}

// StructField is one (name, Value) pair of a Struct value; names are
// unique within the enclosing struct but the sequence is ordered.
type StructField struct {
	Name  string
	Value Value
}

// RangeValue is the [Start, End) pair backing a Range(T) value.
type RangeValue struct {
	Start Value
	End   Value
}

// Value is a tagged union holding exactly one of the variants in. The
// zero Value is Null.
type Value struct {
	Kind ValueKind

	b    bool
	i    int64
	f    float64
	s    string // String, Bytes (raw), Geography (WKT)
	dec  decimal.Decimal
	ivl  Interval
	arr  []Value
	strct []StructField
	json  interface{} // nil | bool | float64 | string | []interface{} | map[string]interface{}
	rng   *RangeValue
}

func Null() Value                 { return Value{Kind: KNull} }
func BoolVal(b bool) Value        { return Value{Kind: KBool, b: b} }
func Int64Val(i int64) Value      { return Value{Kind: KInt64, i: i} }
func Float64Val(f float64) Value  { return Value{Kind: KFloat64, f: f} }
func StringVal(s string) Value    { return Value{Kind: KString, s: s} }
func BytesVal(b []byte) Value     { return Value{Kind: KBytes, s: string(b)} }
func DateVal(days int64) Value    { return Value{Kind: KDate, i: days} }
func TimeVal(nanos int64) Value   { return Value{Kind: KTime, i: nanos} }
func DateTimeVal(nanos int64) Value  { return Value{Kind: KDateTime, i: nanos} }
func TimestampVal(nanos int64) Value { return Value{Kind: KTimestamp, i: nanos} }
func NumericVal(d decimal.Decimal) Value    { return Value{Kind: KNumeric, dec: d} }
func BigNumericVal(d decimal.Decimal) Value { return Value{Kind: KBigNumeric, dec: d} }
func IntervalVal(i Interval) Value { return Value{Kind: KInterval, ivl: i} }
func ArrayVal(elems []Value) Value { return Value{Kind: KArray, arr: elems} }
func StructVal(fields []StructField) Value { return Value{Kind: KStruct, strct: fields} }
func JsonVal(tree interface{}) Value { return Value{Kind: KJson, json: tree} }
func GeographyVal(wkt string) Value  { return Value{Kind: KGeography, s: wkt} }
func RangeVal(start, end Value) Value { return Value{Kind: KRange, rng: &RangeValue{Start: start, End: end}} }
func DefaultVal() Value { return Value{Kind: KDefault} }

func (v Value) IsNull() bool { return v.Kind == KNull }

func (v Value) Bool() bool            { return v.b }
func (v Value) Int() int64            { return v.i }
func (v Value) Float() float64        { return v.f }
func (v Value) Str() string           { return v.s }
func (v Value) Bytes() []byte         { return []byte(v.s) }
func (v Value) Decimal() decimal.Decimal { return v.dec }
func (v Value) Interval() Interval    { return v.ivl }
func (v Value) Array() []Value        { return v.arr }
func (v Value) Struct() []StructField { return v.strct }
func (v Value) Json() interface{}     { return v.json }
func (v Value) Range() *RangeValue    { return v.rng }

// StructGet returns the value of the first struct field whose name matches
// name case-insensitively, as BigQuery struct field access does.
func (v Value) StructGet(name string) (Value, bool) {
	for _, f := range v.strct {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return Null(), false
}

// Equal implements the data model's structural equality.
func (v Value) Equal(o Value) bool {
	return Compare(v, o) == 0
}

// Compare implements the engine's total order: Null sorts last under ASC
// (NULLS LAST default), NaN compares equal to NaN and greater than every
// non-NaN Float64.
func Compare(a, b Value) int {
	if a.Kind == KNull && b.Kind == KNull {
		return 0
	}
	if a.Kind == KNull {
		return 1
	}
	if b.Kind == KNull {
		return -1
	}
	switch a.Kind {
	case KBool:
		return boolCompare(a.b, b.b)
	case KInt64, KDate, KTime, KDateTime, KTimestamp:
		return int64Compare(a.i, b.i)
	case KFloat64:
		return floatTotalOrderCompare(a.f, b.f)
	case KString, KBytes, KGeography:
		return strings.Compare(a.s, b.s)
	case KNumeric, KBigNumeric:
		return a.dec.Cmp(b.dec)
	case KInterval:
		return intervalCompare(a.ivl, b.ivl)
	case KArray:
		return arrayCompare(a.arr, b.arr)
	case KStruct:
		return structCompare(a.strct, b.strct)
	case KJson:
		return strings.Compare(fmt.Sprint(a.json), fmt.Sprint(b.json))
	case KRange:
		if c := Compare(a.rng.Start, b.rng.Start); c != 0 {
			return c
		}
		return Compare(a.rng.End, b.rng.End)
	default:
		return 0
	}
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func int64Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// floatTotalOrderCompare gives Float64 a well-defined total order per the
// design note: NaN == NaN and NaN > every non-NaN value.
func floatTotalOrderCompare(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func intervalCompare(a, b Interval) int {
	an := int64(a.Months)*2592000_000000000 + int64(a.Days)*86400_000000000 + a.Nanos
	bn := int64(b.Months)*2592000_000000000 + int64(b.Days)*86400_000000000 + b.Nanos
	return int64Compare(an, bn)
}

func arrayCompare(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return int64Compare(int64(len(a)), int64(len(b)))
}

func structCompare(a, b []StructField) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return int64Compare(int64(len(a)), int64(len(b)))
}

// SortValues sorts a slice of Value in place using the total order above;
// used by ARRAY_SORT, which sorts one array value rather than rows through
// a plan Sort node.
func SortValues(vs []Value, desc bool) {
	sort.SliceStable(vs, func(i, j int) bool {
		c := Compare(vs[i], vs[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func (v Value) String() string {
	switch v.Kind {
	case KNull:
		return "NULL"
	case KBool:
		return fmt.Sprint(v.b)
	case KInt64, KDate, KTime, KDateTime, KTimestamp:
		return fmt.Sprint(v.i)
	case KFloat64:
		return fmt.Sprint(v.f)
	case KString, KBytes, KGeography:
		return v.s
	case KNumeric, KBigNumeric:
		return v.dec.String()
	case KArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KStruct:
		parts := make([]string, len(v.strct))
		for i, f := range v.strct {
			parts[i] = f.Name + ":" + f.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KJson:
		return fmt.Sprint(v.json)
	case KDefault:
		return "DEFAULT"
	default:
		return ""
	}
}
