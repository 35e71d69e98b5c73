/*
Package calendar provides timezone-free calendar dates.

PURPOSE:
  Schedules and revenue windows are expressed in whole calendar days. A
  time.Time carries a clock and a location, and converting one between
  zones can move it to the previous or next day. Date carries only the
  year, month and day, so parsing and formatting are exact inverses.

KEY CONCEPTS:
  - Date:  a calendar day (year/month/day), no time of day, no location
  - Range: an inclusive run of calendar days [Start, End]

USAGE:
  start, err := calendar.Parse("2025-01-06")
  end := start.AddDays(27)
  year, week := end.ISOWeek()

  today := calendar.Today(time.Local)

SEE ALSO:
  - period.go: Range and trailing windows
  - protocol/generator.go: walks ranges day by day
*/
package calendar

import (
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the only accepted textual form of a Date.
const Layout = "2006-01-02"

// =============================================================================
// DATE - Calendar day without clock or location
// =============================================================================

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date, normalizing overflow the way time.Date does
// (e.g. January 32 becomes February 1).
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime takes the calendar day of t as seen in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day in loc. A nil loc means time.Local.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(time.Now().In(loc))
}

// Parse reads a strict YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	if len(s) != len(Layout) {
		return Date{}, &ParseError{Input: s}
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, &ParseError{Input: s, Err: err}
	}
	return FromTime(t), nil
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// time returns midnight UTC of the date. UTC has no DST, so day arithmetic
// on it never skips or repeats a day.
func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool        { return d.time().Before(other.time()) }
func (d Date) After(other Date) bool         { return d.time().After(other.time()) }
func (d Date) Equal(other Date) bool         { return d == other }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d == Date{} }

// Arithmetic
func (d Date) AddDays(n int) Date { return FromTime(d.time().AddDate(0, 0, n)) }

// DaysUntil returns the signed number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.time().Sub(d.time()).Hours() / 24)
}

// Properties
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }
func (d Date) WeekdayAbbrev() string { return d.Weekday().String()[:3] }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ISOWeek returns the ISO-8601 year and week number: the week belongs to the
// year of its Thursday, and week 1 holds that year's first Thursday.
func (d Date) ISOWeek() (year, week int) {
	thursday := d.AddDays(int(time.Thursday) - isoWeekday(d))
	first := New(thursday.Year, time.January, 1)
	firstThursday := first.AddDays((int(time.Thursday) - isoWeekday(first) + 7) % 7)
	return thursday.Year, firstThursday.DaysUntil(thursday)/7 + 1
}

// isoWeekday numbers Monday=1 .. Sunday=7.
func isoWeekday(d Date) int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// =============================================================================
// ENCODING
// =============================================================================

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (d Date) MarshalCSV() (string, error) { return d.String(), nil }

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (d *Date) UnmarshalCSV(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
