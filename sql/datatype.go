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

import "fmt"

// TypeKind names the type-system category a DataType belongs to; it lines
// up 1:1 with ValueKind for scalar kinds and adds structural kinds for
// Array/Struct which carry a nested DataType.
type TypeKind uint8

const (
	TBool TypeKind = iota
	TInt64
	TFloat64
	TString
	TBytes
	TDate
	TTime
	TDateTime
	TTimestamp
	TNumeric
	TBigNumeric
	TInterval
	TArray
	TStruct
	TJson
	TGeography
	TRange
)

// DataType is the engine's type interface; concrete implementations live
// in sql/types, the way go-mysql-server splits core interfaces (package
// sql) from concrete type implementations (package sql/types).
type DataType interface {
	Kind() TypeKind
	String() string
	Equal(DataType) bool
	// Zero returns a representative non-null Value of this type, used by
	// the executor to size/allocate Column buffers before data is filled in.
	Zero() Value
}

// StructFieldType is a named, typed field of a StructType.
type StructFieldType struct {
	Name string
	Type DataType
}

func typeString(k TypeKind) string {
	names := [...]string{
		"BOOL", "INT64", "FLOAT64", "STRING", "BYTES", "DATE", "TIME",
		"DATETIME", "TIMESTAMP", "NUMERIC", "BIGNUMERIC", "INTERVAL",
		"ARRAY", "STRUCT", "JSON", "GEOGRAPHY", "RANGE",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("UNKNOWN(%d)", k)
}
