package protocol

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/peptora/backoffice/calendar"
)

// =============================================================================
// GENERATION
// =============================================================================

// Generate walks every calendar day of [start, start+DurationDays-1] and
// emits an entry for each day the frequency selects. EveryOtherDay depends
// on the distance from the start date rather than the weekday, so it takes
// the counting walk of GenerateWithEOD.
func Generate(cfg Config) (Schedule, error) {
	if err := cfg.Validate(); err != nil {
		return Schedule{}, err
	}
	if cfg.Frequency == EveryOtherDay {
		return generateEveryOtherDay(cfg), nil
	}

	start := cfg.start()
	entries := make([]Entry, 0, max(cfg.DurationDays, 0))
	for _, day := range calendar.RangeOf(start, cfg.DurationDays).Days() {
		if includesWeekday(cfg, day.Weekday()) {
			entries = append(entries, newEntry(day, cfg.TimeOfDay))
		}
	}
	return newSchedule(cfg, start, entries), nil
}

// GenerateWithEOD handles EveryOtherDay with a running day counter and
// delegates every other frequency to Generate unchanged.
func GenerateWithEOD(cfg Config) (Schedule, error) {
	if cfg.Frequency != EveryOtherDay {
		return Generate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Schedule{}, err
	}
	return generateEveryOtherDay(cfg), nil
}

// generateEveryOtherDay includes day 0, 2, 4, ... counted from the start date.
func generateEveryOtherDay(cfg Config) Schedule {
	start := cfg.start()
	entries := make([]Entry, 0, max(cfg.DurationDays, 0)/2+1)
	dayCount := 0
	for _, day := range calendar.RangeOf(start, cfg.DurationDays).Days() {
		if dayCount%2 == 0 {
			entries = append(entries, newEntry(day, cfg.TimeOfDay))
		}
		dayCount++
	}
	return newSchedule(cfg, start, entries)
}

func includesWeekday(cfg Config, wd time.Weekday) bool {
	switch cfg.Frequency {
	case Daily:
		return true
	case Weekly:
		return wd == time.Monday
	case TwicePerWeek:
		return wd == time.Monday || wd == time.Thursday
	case ThricePerWeek:
		return wd == time.Monday || wd == time.Wednesday || wd == time.Friday
	case Custom:
		return lo.Contains(cfg.CustomDays, wd)
	case EveryOtherDay:
		panic("protocol: eod is not a weekday rule")
	default:
		// Validate rejects unknown frequencies before we get here.
		panic(fmt.Sprintf("protocol: unhandled frequency %q", cfg.Frequency))
	}
}

func newEntry(day calendar.Date, tod TimeOfDay) Entry {
	_, week := day.ISOWeek()
	return Entry{
		Date:      day,
		DayOfWeek: day.WeekdayAbbrev(),
		TimeOfDay: tod,
		Week:      week,
	}
}

func newSchedule(cfg Config, start calendar.Date, entries []Entry) Schedule {
	return Schedule{
		Entries:      entries,
		TotalDays:    len(entries),
		Frequency:    cfg.Frequency,
		TimeOfDay:    cfg.TimeOfDay,
		DurationDays: cfg.DurationDays,
		StartDate:    start,
	}
}
