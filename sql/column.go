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
	"unsafe"

	"github.com/shopspring/decimal"
)

const defaultBatchSize = 1024

// alignment is the byte boundary numeric/logical column buffers are
// aligned to, so vectorized kernels can iterate cache-friendly slices
// (Column).
const alignment = 64

// newAligned allocates a slice of n T values whose backing array starts on
// a 64-byte boundary. Go's allocator doesn't expose alignment guarantees
// for arbitrary types, so we over-allocate and slice from the first
// aligned offset — the standard manual-alignment trick used by hand-rolled
// vectorized engines that don't carry a full columnar-memory library.
func newAligned[T any](n int) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || n == 0 {
		return make([]T, n)
	}
	buf := make([]byte, n*size+alignment)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	pad := (alignment - int(addr%alignment)) % alignment
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[pad])), n)
}

// NullBitmap is a dense bit-per-row null mask. Authoritative over the data
// buffer's content at that slot (Column invariant, quantified
// invariant len(nulls) == len(data)).
type NullBitmap struct {
	bits []uint64
	n    int
}

func NewNullBitmap(n int) *NullBitmap {
	return &NullBitmap{bits: make([]uint64, (n+63)/64), n: n}
}

func (b *NullBitmap) Len() int { return b.n }

func (b *NullBitmap) IsNull(i int) bool {
	if b == nil || i < 0 || i >= b.n {
		return false
	}
	return b.bits[i/64]&(1<<uint(i%64)) != 0
}

func (b *NullBitmap) SetNull(i int, null bool) {
	if null {
		b.bits[i/64] |= 1 << uint(i%64)
	} else {
		b.bits[i/64] &^= 1 << uint(i%64)
	}
}

// AnyNull reports whether at least one row in [0,n) is null; used by
// kernels to take an all-non-null fast path.
func (b *NullBitmap) AnyNull() bool {
	if b == nil {
		return false
	}
	for _, w := range b.bits {
		if w != 0 {
			return true
		}
	}
	return false
}

func (b *NullBitmap) Clone() *NullBitmap {
	if b == nil {
		return nil
	}
	out := &NullBitmap{bits: make([]uint64, len(b.bits)), n: b.n}
	copy(out.bits, b.bits)
	return out
}

// Column is a typed, length-N sequence of Values with an auxiliary null
// bitmap. Exactly one of the typed backing slices is populated, selected
// by Type.Kind; scalar kinds with fixed-width payloads use an
// alignment-padded buffer, variable-width/structural kinds use a plain Go
// slice (Column).
type Column struct {
	Type  DataType
	Nulls *NullBitmap
	n     int

	boolData   []bool
	i64Data    []int64
	f64Data    []float64
	strData    []string // String, Bytes (raw bytes as string), Geography (WKT)
	decData    []decimal.Decimal
	ivlData    []Interval
	arrData    [][]Value
	structData [][]StructField
	jsonData   []interface{}
	rngData    []*RangeValue
}

// NewColumn allocates a Column of length n for the given type, with every
// row initially null.
func NewColumn(t DataType, n int) *Column {
	c := &Column{Type: t, Nulls: NewNullBitmap(n), n: n}
	switch t.Kind() {
	case TBool:
		c.boolData = newAligned[bool](n)
	case TInt64, TDate, TTime, TDateTime, TTimestamp:
		c.i64Data = newAligned[int64](n)
	case TFloat64:
		c.f64Data = newAligned[float64](n)
	case TString, TBytes, TGeography:
		c.strData = make([]string, n)
	case TNumeric, TBigNumeric:
		c.decData = make([]decimal.Decimal, n)
	case TInterval:
		c.ivlData = make([]Interval, n)
	case TArray:
		c.arrData = make([][]Value, n)
	case TStruct:
		c.structData = make([][]StructField, n)
	case TJson:
		c.jsonData = make([]interface{}, n)
	case TRange:
		c.rngData = make([]*RangeValue, n)
	}
	for i := 0; i < n; i++ {
		c.Nulls.SetNull(i, true)
	}
	return c
}

func (c *Column) Len() int        { return c.n }
func (c *Column) IsNull(i int) bool { return c.Nulls.IsNull(i) }

// Get returns the row i as a Value, decoding from the typed backing slice.
func (c *Column) Get(i int) Value {
	if c.IsNull(i) {
		return Null()
	}
	switch c.Type.Kind() {
	case TBool:
		return BoolVal(c.boolData[i])
	case TInt64:
		return Int64Val(c.i64Data[i])
	case TDate:
		return DateVal(c.i64Data[i])
	case TTime:
		return TimeVal(c.i64Data[i])
	case TDateTime:
		return DateTimeVal(c.i64Data[i])
	case TTimestamp:
		return TimestampVal(c.i64Data[i])
	case TFloat64:
		return Float64Val(c.f64Data[i])
	case TString:
		return StringVal(c.strData[i])
	case TBytes:
		return BytesVal([]byte(c.strData[i]))
	case TGeography:
		return GeographyVal(c.strData[i])
	case TNumeric:
		return NumericVal(c.decData[i])
	case TBigNumeric:
		return BigNumericVal(c.decData[i])
	case TInterval:
		return IntervalVal(c.ivlData[i])
	case TArray:
		return ArrayVal(c.arrData[i])
	case TStruct:
		return StructVal(c.structData[i])
	case TJson:
		return JsonVal(c.jsonData[i])
	case TRange:
		r := c.rngData[i]
		return RangeVal(r.Start, r.End)
	default:
		return Null()
	}
}

// Set writes v into row i, updating the null bitmap.
func (c *Column) Set(i int, v Value) {
	c.Nulls.SetNull(i, v.IsNull())
	if v.IsNull() {
		return
	}
	switch c.Type.Kind() {
	case TBool:
		c.boolData[i] = v.Bool()
	case TInt64, TDate, TTime, TDateTime, TTimestamp:
		c.i64Data[i] = v.Int()
	case TFloat64:
		c.f64Data[i] = v.Float()
	case TString, TBytes, TGeography:
		c.strData[i] = v.Str()
		if v.Kind == KBytes {
			c.strData[i] = string(v.Bytes())
		}
	case TNumeric, TBigNumeric:
		c.decData[i] = v.Decimal()
	case TInterval:
		c.ivlData[i] = v.Interval()
	case TArray:
		c.arrData[i] = v.Array()
	case TStruct:
		c.structData[i] = v.Struct()
	case TJson:
		c.jsonData[i] = v.Json()
	case TRange:
		c.rngData[i] = v.Range()
	}
}

// Slice returns a new Column holding rows [lo, hi) copied out of c, used by
// TopN/Limit and batch re-chunking.
func (c *Column) Slice(lo, hi int) *Column {
	out := NewColumn(c.Type, hi-lo)
	for i := lo; i < hi; i++ {
		out.Set(i-lo, c.Get(i))
	}
	return out
}

// Gather returns a new Column containing the rows at the given indices, in
// order — the core operation a Filter uses to materialize surviving rows
// and a HashJoin probe uses to replicate matched build-side rows.
func (c *Column) Gather(indices []int) *Column {
	out := NewColumn(c.Type, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			continue // null-filling slot (outer join non-match)
		}
		out.Set(i, c.Get(idx))
	}
	return out
}

// RecordBatch is a fixed-schema block of N rows, materialized column-major
// for execution (Record / RecordBatch).
type RecordBatch struct {
	Schema  Schema
	Columns []*Column
}

func NewRecordBatch(schema Schema, columns []*Column) *RecordBatch {
	return &RecordBatch{Schema: schema, Columns: columns}
}

// NumRows returns the batch's row count, or 0 for a columnless batch.
func (b *RecordBatch) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return b.Columns[0].Len()
}

// Row materializes row i as a heterogeneous Record (row-major value list).
func (b *RecordBatch) Row(i int) Record {
	r := make(Record, len(b.Columns))
	for c, col := range b.Columns {
		r[c] = col.Get(i)
	}
	return r
}

// Record is a heterogeneous row: an ordered Value list (Record).
type Record []Value

// RecordsToBatch converts row-major Records into a column-major
// RecordBatch against schema; round-trips exactly with Batch.Row/ToRecords
// when every value matches its declared type (Lifecycle invariant).
func RecordsToBatch(schema Schema, records []Record) *RecordBatch {
	cols := make([]*Column, len(schema))
	for i, f := range schema {
		cols[i] = NewColumn(f.Type, len(records))
	}
	for r, rec := range records {
		for c := range schema {
			if c < len(rec) {
				cols[c].Set(r, rec[c])
			}
		}
	}
	return NewRecordBatch(schema, cols)
}

// ToRecords converts the batch back to row-major Records.
func (b *RecordBatch) ToRecords() []Record {
	n := b.NumRows()
	out := make([]Record, n)
	for i := 0; i < n; i++ {
		out[i] = b.Row(i)
	}
	return out
}
