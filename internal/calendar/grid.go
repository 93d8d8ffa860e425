package calendar

import "time"

// Grid granularities. Day view slices the day into 5-minute rows,
// week view into 30-minute rows. One granularity per view, applied
// consistently to both row and span math.
const (
	DayViewGranularityMinutes  = 5
	WeekViewGranularityMinutes = 30

	// gridHeaderRows reserves the top rows of a CSS-style 1-indexed
	// grid for the column headers, so the first time slot renders at
	// row 2.
	gridHeaderRows = 2
)

// RowsPerDay is the number of time-slot rows a day occupies at the
// given granularity.
func RowsPerDay(granularityMinutes int) int {
	return (24 * 60) / granularityMinutes
}

// TimeToRow maps a time of day onto its grid row at the given
// granularity. Rows are 1-indexed with the header occupying the rows
// above the first slot.
func TimeToRow(t time.Time, granularityMinutes int) int {
	minutes := t.Hour()*60 + t.Minute()
	return minutes/granularityMinutes + gridHeaderRows
}

// DurationToSpan returns how many grid rows the [start, end) interval
// occupies at the given granularity. The span is never less than 1:
// an appointment always fills at least one visible cell. An interval
// reaching past midnight is clipped to the end of start's day — the
// grid renders a single day column and a multi-day appointment shows
// truncated rather than overflowing into the next column.
func DurationToSpan(start, end time.Time, granularityMinutes int) int {
	if !end.After(start) {
		return 1
	}
	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := endMinutesOfDay(start, end)

	span := (endMinutes - startMinutes + granularityMinutes - 1) / granularityMinutes
	if span < 1 {
		span = 1
	}
	// Clip at the bottom of the grid.
	if max := RowsPerDay(granularityMinutes) - startMinutes/granularityMinutes; span > max {
		span = max
	}
	return span
}

// endMinutesOfDay projects end onto start's calendar day, clamping
// anything on a later day to 24:00.
func endMinutesOfDay(start, end time.Time) int {
	if SameDay(start, end) {
		return end.Hour()*60 + end.Minute()
	}
	return 24 * 60
}

// DayColumnIndex returns the 0-based weekday column of date within the
// Monday-aligned week starting at weekStart. The result is always in
// [0, 6]; dates outside the week clamp to its edges.
func DayColumnIndex(date, weekStart time.Time) int {
	days := int(StartOfDay(date).Sub(StartOfDay(weekStart)).Hours() / 24)
	if days < 0 {
		return 0
	}
	if days > 6 {
		return 6
	}
	return days
}
