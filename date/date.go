// Package date provides a day-granularity Date used by the dated fields of
// accounts (loan schedule, pay periods, payment history).
//
// Unlike time.Time, the zero Date is meaningful: it stands for "no date" and is
// persisted as an empty string.
package date

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

// Date represents a date with day-level granularity.
type Date struct {
	y int
	m time.Month
	d int
}

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// New returns a normalized Date for the given year, month, and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// IsZero reports whether d is the "no date" value.
func (d Date) IsZero() bool { return d == Date{} }

// Year returns current year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns current day of the month.
func (d Date) Day() int { return d.d }

// String format the date in its standard format, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(DateFormat)
}

// Parse parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
// A full RFC 3339 timestamp is accepted too, only its day is kept.
// An empty string is the zero Date.
func Parse(str string) (Date, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return Date{}, nil
	}
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		ts, terr := time.Parse(time.RFC3339, str)
		if terr != nil {
			return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, DateFormat, err)
		}
		on = ts
	}
	return New(on.Date()), nil
}

// UnmarshalJSON implements the json specific way to unmarshall a date from a json string.
func (j *Date) UnmarshalJSON(bytes []byte) error {
	if string(bytes) == "null" {
		*j = Date{}
		return nil
	}
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	d, err := Parse(str)
	if err != nil {
		return err
	}
	*j = d
	return nil
}

func (j Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.String())
}

// check that a Date pointer is a valid json marshall/unmarshaller type.
var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
