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

// Package types provides the concrete sql.DataType implementations for
// every BigQuery-dialect scalar and structural type, the way
// go-mysql-server separates core interfaces (package sql) from concrete
// type implementations (package sql/types).
package types

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coldbrook-data/bqengine/sql"
)

type simpleType struct {
	kind sql.TypeKind
	name string
}

func (t simpleType) Kind() sql.TypeKind { return t.kind }
func (t simpleType) String() string     { return t.name }
func (t simpleType) Equal(o sql.DataType) bool {
	os, ok := o.(simpleType)
	return ok && os.kind == t.kind
}
func (t simpleType) Zero() sql.Value {
	switch t.kind {
	case sql.TBool:
		return sql.BoolVal(false)
	case sql.TInt64, sql.TDate, sql.TTime, sql.TDateTime, sql.TTimestamp:
		return sql.Int64Val(0)
	case sql.TFloat64:
		return sql.Float64Val(0)
	case sql.TString, sql.TBytes, sql.TGeography:
		return sql.StringVal("")
	case sql.TInterval:
		return sql.IntervalVal(sql.Interval{})
	case sql.TJson:
		return sql.JsonVal(nil)
	default:
		return sql.Null()
	}
}

var (
	Bool      sql.DataType = simpleType{sql.TBool, "BOOL"}
	Int64     sql.DataType = simpleType{sql.TInt64, "INT64"}
	Float64   sql.DataType = simpleType{sql.TFloat64, "FLOAT64"}
	String    sql.DataType = simpleType{sql.TString, "STRING"}
	Bytes     sql.DataType = simpleType{sql.TBytes, "BYTES"}
	Date      sql.DataType = simpleType{sql.TDate, "DATE"}
	Time      sql.DataType = simpleType{sql.TTime, "TIME"}
	DateTime  sql.DataType = simpleType{sql.TDateTime, "DATETIME"}
	Timestamp sql.DataType = simpleType{sql.TTimestamp, "TIMESTAMP"}
	Interval  sql.DataType = simpleType{sql.TInterval, "INTERVAL"}
	Json      sql.DataType = simpleType{sql.TJson, "JSON"}
	Geography sql.DataType = simpleType{sql.TGeography, "GEOGRAPHY"}
)

// NumericType is the fixed-precision decimal type; Numeric caps at 38
// digits/9 fractional, BigNumeric at 76 digits/38 fractional.
type NumericType struct {
	Big bool
}

func (t NumericType) Kind() sql.TypeKind {
	if t.Big {
		return sql.TBigNumeric
	}
	return sql.TNumeric
}

func (t NumericType) String() string {
	if t.Big {
		return "BIGNUMERIC"
	}
	return "NUMERIC"
}

func (t NumericType) Equal(o sql.DataType) bool {
	ot, ok := o.(NumericType)
	return ok && ot.Big == t.Big
}

func (t NumericType) Zero() sql.Value {
	if t.Big {
		return sql.BigNumericVal(decimal.Zero)
	}
	return sql.NumericVal(decimal.Zero)
}

func (t NumericType) MaxDigits() int32 {
	if t.Big {
		return 76
	}
	return 38
}

func (t NumericType) MaxScale() int32 {
	if t.Big {
		return 38
	}
	return 9
}

var Numeric = NumericType{Big: false}
var BigNumeric = NumericType{Big: true}

// ArrayType is Array(element); elements share the declared element type
// but may individually be Null.
type ArrayType struct {
	Elem sql.DataType
}

func (t ArrayType) Kind() sql.TypeKind { return sql.TArray }
func (t ArrayType) String() string     { return fmt.Sprintf("ARRAY<%s>", t.Elem.String()) }
func (t ArrayType) Equal(o sql.DataType) bool {
	ot, ok := o.(ArrayType)
	return ok && t.Elem.Equal(ot.Elem)
}
func (t ArrayType) Zero() sql.Value { return sql.ArrayVal(nil) }

// StructType is an ordered sequence of named, typed fields, unique within
// the struct.
type StructType struct {
	Fields []sql.StructFieldType
}

func (t StructType) Kind() sql.TypeKind { return sql.TStruct }
func (t StructType) String() string {
	s := "STRUCT<"
	for i, f := range t.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Name + " " + f.Type.String()
	}
	return s + ">"
}
func (t StructType) Equal(o sql.DataType) bool {
	ot, ok := o.(StructType)
	if !ok || len(ot.Fields) != len(t.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i].Name != ot.Fields[i].Name || !t.Fields[i].Type.Equal(ot.Fields[i].Type) {
			return false
		}
	}
	return true
}
func (t StructType) Zero() sql.Value { return sql.StructVal(nil) }

func (t StructType) FieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// RangeType is Range(T): a [start, end) pair over Date/DateTime/Timestamp.
type RangeType struct {
	Elem sql.DataType
}

func (t RangeType) Kind() sql.TypeKind { return sql.TRange }
func (t RangeType) String() string     { return fmt.Sprintf("RANGE<%s>", t.Elem.String()) }
func (t RangeType) Equal(o sql.DataType) bool {
	ot, ok := o.(RangeType)
	return ok && t.Elem.Equal(ot.Elem)
}
func (t RangeType) Zero() sql.Value { return sql.RangeVal(sql.Null(), sql.Null()) }

// IsNumeric reports whether t is a numeric-ish type usable in arithmetic.
func IsNumeric(t sql.DataType) bool {
	switch t.Kind() {
	case sql.TInt64, sql.TFloat64, sql.TNumeric, sql.TBigNumeric:
		return true
	default:
		return false
	}
}

// IsComparable reports whether two types may be compared/ordered directly
// without an explicit cast (same kind, or both numeric-ish).
func IsComparable(a, b sql.DataType) bool {
	if a.Equal(b) {
		return true
	}
	return IsNumeric(a) && IsNumeric(b)
}
