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
	"strings"
	"time"

	"github.com/coldbrook-data/bqengine/sql"
	"github.com/coldbrook-data/bqengine/sql/types"
)

const dayNanos = int64(24 * time.Hour)

// toTime converts a Date/DateTime/Timestamp Value to a UTC time.Time for
// use with the standard library's calendar arithmetic.
func toTime(v sql.Value) time.Time {
	switch v.Kind {
	case sql.KDate:
		return time.Unix(v.Int()*86400, 0).UTC()
	case sql.KDateTime, sql.KTimestamp:
		return time.Unix(0, v.Int()).UTC()
	default:
		return time.Time{}
	}
}

// ExtractField implements EXTRACT(field FROM expr) for every field named
// in: YEAR/MONTH/DAY/HOUR/MINUTE/SECOND/MILLISECOND/MICROSECOND/
// QUARTER/WEEK/ISOWEEK/ISOYEAR/DAYOFWEEK/DAYOFYEAR/DATE/TIME.
func ExtractField(field string, v sql.Value) (sql.Value, error) {
	if v.IsNull() {
		return sql.Null(), nil
	}
	field = strings.ToUpper(field)
	if v.Kind == sql.KTime {
		return extractTimeField(field, v.Int())
	}
	t := toTime(v)
	switch field {
	case "YEAR":
		return sql.Int64Val(int64(t.Year())), nil
	case "MONTH":
		return sql.Int64Val(int64(t.Month())), nil
	case "DAY":
		return sql.Int64Val(int64(t.Day())), nil
	case "HOUR":
		return sql.Int64Val(int64(t.Hour())), nil
	case "MINUTE":
		return sql.Int64Val(int64(t.Minute())), nil
	case "SECOND":
		return sql.Int64Val(int64(t.Second())), nil
	case "MILLISECOND":
		return sql.Int64Val(int64(t.Nanosecond() / 1e6)), nil
	case "MICROSECOND":
		return sql.Int64Val(int64(t.Nanosecond() / 1e3)), nil
	case "QUARTER":
		return sql.Int64Val(int64((t.Month()-1)/3 + 1)), nil
	case "WEEK":
		return sql.Int64Val(int64(t.YearDay()-int(t.Weekday())+6) / 7), nil
	case "ISOWEEK":
		_, wk := t.ISOWeek()
		return sql.Int64Val(int64(wk)), nil
	case "ISOYEAR":
		yr, _ := t.ISOWeek()
		return sql.Int64Val(int64(yr)), nil
	case "DAYOFWEEK":
		return sql.Int64Val(int64(t.Weekday()) + 1), nil
	case "DAYOFYEAR":
		return sql.Int64Val(int64(t.YearDay())), nil
	case "DATE":
		return sql.DateVal(t.Unix() / 86400), nil
	case "TIME":
		nanos := int64(t.Hour())*3600e9 + int64(t.Minute())*60e9 + int64(t.Second())*1e9 + int64(t.Nanosecond())
		return sql.TimeVal(nanos), nil
	default:
		return sql.Null(), sql.ErrUnsupported("unsupported EXTRACT field %q", field)
	}
}

func extractTimeField(field string, nanos int64) (sql.Value, error) {
	d := time.Duration(nanos)
	switch field {
	case "HOUR":
		return sql.Int64Val(int64(d / time.Hour)), nil
	case "MINUTE":
		return sql.Int64Val(int64((d % time.Hour) / time.Minute)), nil
	case "SECOND":
		return sql.Int64Val(int64((d % time.Minute) / time.Second)), nil
	case "MILLISECOND":
		return sql.Int64Val(int64((d % time.Second) / time.Millisecond)), nil
	case "MICROSECOND":
		return sql.Int64Val(int64((d % time.Second) / time.Microsecond)), nil
	default:
		return sql.Null(), sql.ErrUnsupported("EXTRACT(%s) not valid on TIME", field)
	}
}

func init() {
	reg := Global()

	reg.Register(&Entry{Name: "CURRENT_TIMESTAMP", ReturnType: StaticReturn(types.Timestamp), NullTolerant: true, Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.TimestampVal(ctx.Now().UnixNano()), nil
	}})
	reg.Register(&Entry{Name: "CURRENT_DATE", ReturnType: StaticReturn(types.Date), NullTolerant: true, Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		return sql.DateVal(ctx.Now().Unix() / 86400), nil
	}})

	reg.Register(&Entry{Name: "TIMESTAMP_ADD", ReturnType: StaticReturn(types.Timestamp), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		ivl := args[1].Interval()
		return sql.TimestampVal(addInterval(args[0].Int(), ivl)), nil
	}})
	reg.Register(&Entry{Name: "TIMESTAMP_SUB", ReturnType: StaticReturn(types.Timestamp), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		ivl := args[1].Interval()
		neg := sql.Interval{Months: -ivl.Months, Days: -ivl.Days, Nanos: -ivl.Nanos}
		return sql.TimestampVal(addInterval(args[0].Int(), neg)), nil
	}})
	reg.Register(&Entry{Name: "DATE_ADD", ReturnType: StaticReturn(types.Date), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		t := toTime(args[0])
		ivl := args[1].Interval()
		t = t.AddDate(0, int(ivl.Months), int(ivl.Days))
		return sql.DateVal(t.Unix() / 86400), nil
	}})
	reg.Register(&Entry{Name: "DATE_DIFF", ReturnType: StaticReturn(types.Int64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		a, b := toTime(args[0]), toTime(args[1])
		field := strings.ToUpper(args[2].Str())
		return dateDiff(a, b, field)
	}})
	reg.Register(&Entry{Name: "TIMESTAMP_DIFF", ReturnType: StaticReturn(types.Int64), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		field := strings.ToUpper(args[2].Str())
		delta := args[0].Int() - args[1].Int()
		return sql.Int64Val(delta / unitNanos(field)), nil
	}})

	reg.Register(&Entry{Name: "FORMAT_TIMESTAMP", ReturnType: StaticReturn(types.String), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		layout := bqFormatToGoLayout(args[0].Str())
		t := time.Unix(0, args[1].Int()).UTC()
		return sql.StringVal(t.Format(layout)), nil
	}})
	reg.Register(&Entry{Name: "PARSE_TIMESTAMP", ReturnType: StaticReturn(types.Timestamp), Row: func(ctx *sql.Context, args []sql.Value) (sql.Value, error) {
		layout := bqFormatToGoLayout(args[0].Str())
		t, err := time.Parse(layout, args[1].Str())
		if err != nil {
			return sql.Null(), sql.ErrInvalidCast("STRING", "TIMESTAMP")
		}
		return sql.TimestampVal(t.UnixNano()), nil
	}})
}

func addInterval(tsNanos int64, ivl sql.Interval) int64 {
	t := time.Unix(0, tsNanos).UTC()
	t = t.AddDate(0, int(ivl.Months), int(ivl.Days))
	return t.UnixNano() + ivl.Nanos
}

func unitNanos(field string) int64 {
	switch field {
	case "MICROSECOND":
		return 1e3
	case "MILLISECOND":
		return 1e6
	case "SECOND":
		return 1e9
	case "MINUTE":
		return 60e9
	case "HOUR":
		return 3600e9
	case "DAY":
		return dayNanos
	default:
		return 1
	}
}

func dateDiff(a, b time.Time, field string) (sql.Value, error) {
	switch field {
	case "DAY":
		return sql.Int64Val(int64(a.Sub(b).Hours() / 24)), nil
	case "WEEK":
		return sql.Int64Val(int64(a.Sub(b).Hours() / 24 / 7)), nil
	case "MONTH":
		months := (a.Year()-b.Year())*12 + int(a.Month()) - int(b.Month())
		return sql.Int64Val(int64(months)), nil
	case "YEAR":
		return sql.Int64Val(int64(a.Year() - b.Year())), nil
	default:
		return sql.Null(), sql.ErrUnsupported("unsupported DATE_DIFF field %q", field)
	}
}

// bqFormatToGoLayout translates the handful of BigQuery strftime-style
// format elements this engine supports into a Go reference-time layout.
func bqFormatToGoLayout(bq string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%E*S", "05.000000", "%Z", "MST", "%z", "-0700",
	)
	return r.Replace(bq)
}
