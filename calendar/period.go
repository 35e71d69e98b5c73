package calendar

// =============================================================================
// RANGE - Inclusive run of calendar days
// =============================================================================

// Range is the inclusive day range [Start, End]. A Range whose End is before
// its Start is empty.
type Range struct {
	Start Date
	End   Date
}

// RangeOf returns the range of n consecutive days beginning at start.
// n <= 0 yields an empty range.
func RangeOf(start Date, n int) Range {
	return Range{Start: start, End: start.AddDays(n - 1)}
}

// TrailingWindow returns the n days ending at asOf, asOf included.
func TrailingWindow(asOf Date, n int) Range {
	return Range{Start: asOf.AddDays(-(n - 1)), End: asOf}
}

func (r Range) IsEmpty() bool { return r.End.Before(r.Start) }

// Len is the number of days in the range.
func (r Range) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// Contains returns true if d is within [Start, End].
func (r Range) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns every day in the range in order.
func (r Range) Days() []Date {
	days := make([]Date, 0, r.Len())
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

func (r Range) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
