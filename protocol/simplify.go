package protocol

import (
	"github.com/samber/lo"

	"github.com/peptora/backoffice/calendar"
)

// Simplify collapses entries into runs of consecutive calendar days that
// share a time of day. entries must already be in increasing date order;
// they are not re-sorted. Every entry lands in exactly one run.
func Simplify(entries []Entry) []SimplifiedEntry {
	runs := []SimplifiedEntry{}
	if len(entries) == 0 {
		return runs
	}

	run := []Entry{entries[0]}
	for _, e := range entries[1:] {
		last := run[len(run)-1]
		if e.Date.Equal(last.Date.AddDays(1)) && e.TimeOfDay == last.TimeOfDay {
			run = append(run, e)
			continue
		}
		runs = append(runs, summarize(run))
		run = []Entry{e}
	}
	return append(runs, summarize(run))
}

func summarize(run []Entry) SimplifiedEntry {
	dates := lo.Map(run, func(e Entry, _ int) calendar.Date { return e.Date })
	dateRange := dates[0].String()
	if len(dates) > 1 {
		dateRange += " - " + dates[len(dates)-1].String()
	}
	return SimplifiedEntry{
		DateRange: dateRange,
		Dates:     dates,
		TimeOfDay: run[0].TimeOfDay,
		Count:     len(dates),
	}
}

// Flatten concatenates the dates of every run, in order.
func Flatten(runs []SimplifiedEntry) []calendar.Date {
	return lo.FlatMap(runs, func(r SimplifiedEntry, _ int) []calendar.Date { return r.Dates })
}

// Weeks groups ordered entries by ISO week for the calendar grid.
func Weeks(entries []Entry) []Week {
	type isoWeek struct{ year, week int }
	groups := lo.PartitionBy(entries, func(e Entry) isoWeek {
		y, w := e.Date.ISOWeek()
		return isoWeek{year: y, week: w}
	})
	return lo.Map(groups, func(group []Entry, _ int) Week {
		y, w := group[0].Date.ISOWeek()
		return Week{Year: y, Number: w, Entries: group}
	})
}
