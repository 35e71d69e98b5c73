/*
Package protocol generates administration schedules for a dosing protocol.

PURPOSE:
  Given a recurrence rule and a duration, produce the ordered list of
  calendar days on which a dose is administered, then optionally compress
  that list into runs for display.

KEY CONCEPTS:
  - Config:          frequency, time of day, duration, custom weekdays, start
  - Entry:           one administration day
  - SimplifiedEntry: a run of consecutive days sharing a time of day
  - Week:            entries of one ISO week, for the calendar grid

FREQUENCIES:
  daily     every day
  eod       every other day, counted from the start date (start included)
  2x/week   Monday and Thursday
  3x/week   Monday, Wednesday and Friday
  weekly    Monday
  custom    the weekdays listed in CustomDays (0=Sunday .. 6=Saturday)

DURATION:
  DurationDays is the inclusive number of calendar days starting at
  StartDate. Zero or negative durations produce an empty schedule.

DATES:
  All arithmetic is on calendar.Date, which has no clock and no location,
  so a start date never drifts a day when the server's timezone changes.

EXAMPLE:
  sched, err := protocol.GenerateWithEOD(protocol.Config{
      Frequency:    protocol.EveryOtherDay,
      TimeOfDay:    protocol.PM,
      DurationDays: 8,
      StartDate:    calendar.MustParse("2025-01-01"),
  })
  // 2025-01-01, 01-03, 01-05, 01-07

  runs := protocol.Simplify(sched.Entries)

SEE ALSO:
  - generator.go: Generate / GenerateWithEOD
  - simplify.go: Simplify / Flatten / Weeks
  - export.go: CSV export
*/
package protocol

import (
	"time"

	"github.com/samber/lo"

	"github.com/peptora/backoffice/calendar"
)

// MaxDurationDays bounds a single generation to roughly ten years.
const MaxDurationDays = 3660

// =============================================================================
// FREQUENCY
// =============================================================================

type Frequency string

const (
	Daily         Frequency = "daily"
	EveryOtherDay Frequency = "eod"
	TwicePerWeek  Frequency = "2x/week"
	ThricePerWeek Frequency = "3x/week"
	Weekly        Frequency = "weekly"
	Custom        Frequency = "custom"
)

// Frequencies lists every supported frequency.
var Frequencies = []Frequency{Daily, EveryOtherDay, TwicePerWeek, ThricePerWeek, Weekly, Custom}

func (f Frequency) IsValid() bool { return lo.Contains(Frequencies, f) }

// ParseFrequency rejects anything outside Frequencies.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", &UnknownValueError{Field: "frequency", Value: s, Err: ErrUnknownFrequency}
	}
	return f, nil
}

// =============================================================================
// TIME OF DAY
// =============================================================================

type TimeOfDay string

const (
	AM   TimeOfDay = "am"
	PM   TimeOfDay = "pm"
	Both TimeOfDay = "both"
)

var TimesOfDay = []TimeOfDay{AM, PM, Both}

func (t TimeOfDay) IsValid() bool { return lo.Contains(TimesOfDay, t) }

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t := TimeOfDay(s)
	if !t.IsValid() {
		return "", &UnknownValueError{Field: "time_of_day", Value: s, Err: ErrUnknownTimeOfDay}
	}
	return t, nil
}

// =============================================================================
// CONFIG
// =============================================================================

type Config struct {
	Frequency    Frequency
	TimeOfDay    TimeOfDay
	DurationDays int

	// CustomDays is only read when Frequency is Custom, and must then be non-empty.
	CustomDays []time.Weekday

	// StartDate defaults to today in Location when zero.
	StartDate calendar.Date
	Location  *time.Location
}

// Validate checks the enumerations and custom weekdays. Durations of zero or
// less are valid and simply produce nothing.
func (c Config) Validate() error {
	if !c.Frequency.IsValid() {
		return &UnknownValueError{Field: "frequency", Value: string(c.Frequency), Err: ErrUnknownFrequency}
	}
	if !c.TimeOfDay.IsValid() {
		return &UnknownValueError{Field: "time_of_day", Value: string(c.TimeOfDay), Err: ErrUnknownTimeOfDay}
	}
	if c.DurationDays > MaxDurationDays {
		return ErrDurationTooLong
	}
	if c.Frequency == Custom {
		if len(c.CustomDays) == 0 {
			return ErrNoCustomDays
		}
		for _, wd := range c.CustomDays {
			if wd < time.Sunday || wd > time.Saturday {
				return &CustomDayError{Day: int(wd)}
			}
		}
	}
	return nil
}

// start resolves the effective start date.
func (c Config) start() calendar.Date {
	if !c.StartDate.IsZero() {
		return c.StartDate
	}
	return calendar.Today(c.Location)
}

// =============================================================================
// OUTPUT
// =============================================================================

// Entry is one administration day.
type Entry struct {
	Date      calendar.Date
	DayOfWeek string // "Mon", "Tue", ...
	TimeOfDay TimeOfDay
	Week      int // ISO-8601 week number of Date
}

// Schedule is the result of one generation.
type Schedule struct {
	Entries      []Entry
	TotalDays    int // number of administration days, len(Entries)
	Frequency    Frequency
	TimeOfDay    TimeOfDay
	DurationDays int
	StartDate    calendar.Date
}

// Dates returns the entry dates in order.
func (s Schedule) Dates() []calendar.Date {
	return lo.Map(s.Entries, func(e Entry, _ int) calendar.Date { return e.Date })
}

// SimplifiedEntry is a run of consecutive days with the same time of day.
type SimplifiedEntry struct {
	DateRange string // "2025-01-01" or "2025-01-01 - 2025-01-07"
	Dates     []calendar.Date
	TimeOfDay TimeOfDay
	Count     int
}

// Week holds the entries falling in one ISO week.
type Week struct {
	Year    int // ISO year, which can differ from the calendar year in late Dec / early Jan
	Number  int
	Entries []Entry
}
