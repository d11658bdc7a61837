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

package function_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/function"
)

func TestDateAdd_AddsIntervalDays(t *testing.T) {
	e, ok := function.Global().Lookup("DATE_ADD")
	require.True(t, ok)
	base := sql.DateVal(0) // 1970-01-01
	v, err := e.CallRow(newCtx(), []sql.Value{base, sql.IntervalVal(sql.Interval{Days: 10})})
	require.NoError(t, err)
	require.Equal(t, int64(10), v.Int())
}

func TestDateDiff_Days(t *testing.T) {
	e, ok := function.Global().Lookup("DATE_DIFF")
	require.True(t, ok)
	a := sql.DateVal(10)
	b := sql.DateVal(3)
	v, err := e.CallRow(newCtx(), []sql.Value{a, b, sql.StringVal("DAY")})
	require.NoError(t, err)
	require.Equal(t, int64(7), v.Int())
}

func TestTimestampAddAndSub_RoundTrip(t *testing.T) {
	add, _ := function.Global().Lookup("TIMESTAMP_ADD")
	sub, _ := function.Global().Lookup("TIMESTAMP_SUB")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	ts := sql.TimestampVal(start)
	ivl := sql.IntervalVal(sql.Interval{Nanos: int64(time.Hour)})

	added, err := add.CallRow(newCtx(), []sql.Value{ts, ivl})
	require.NoError(t, err)
	require.Equal(t, start+int64(time.Hour), added.Int())

	back, err := sub.CallRow(newCtx(), []sql.Value{added, ivl})
	require.NoError(t, err)
	require.Equal(t, start, back.Int())
}

func TestTimestampDiff_Hours(t *testing.T) {
	e, _ := function.Global().Lookup("TIMESTAMP_DIFF")
	a := sql.TimestampVal(int64(3 * time.Hour))
	b := sql.TimestampVal(int64(1 * time.Hour))
	v, err := e.CallRow(newCtx(), []sql.Value{a, b, sql.StringVal("HOUR")})
	require.NoError(t, err)
	require.Equal(t, int64(2), v.Int())
}

func TestFormatAndParseTimestamp_RoundTrip(t *testing.T) {
	format, _ := function.Global().Lookup("FORMAT_TIMESTAMP")
	parse, _ := function.Global().Lookup("PARSE_TIMESTAMP")

	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC).UnixNano()
	s, err := format.CallRow(newCtx(), []sql.Value{sql.StringVal("%Y-%m-%d %H:%M:%S"), sql.TimestampVal(ts)})
	require.NoError(t, err)
	require.Equal(t, "2024-03-15 10:30:00", s.Str())

	back, err := parse.CallRow(newCtx(), []sql.Value{sql.StringVal("%Y-%m-%d %H:%M:%S"), s})
	require.NoError(t, err)
	require.Equal(t, ts, back.Int())
}

func TestCurrentTimestampAndDate_AreNullTolerant(t *testing.T) {
	ts, ok := function.Global().Lookup("CURRENT_TIMESTAMP")
	require.True(t, ok)
	require.True(t, ts.NullTolerant)

	v, err := ts.CallRow(newCtx(), nil)
	require.NoError(t, err)
	require.False(t, v.IsNull())

	d, _ := function.Global().Lookup("CURRENT_DATE")
	v, err = d.CallRow(newCtx(), nil)
	require.NoError(t, err)
	require.False(t, v.IsNull())
}
