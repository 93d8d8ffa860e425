package calendar

import (
	"fmt"
	"time"
)

// DateRange is the visible span for a view and anchor date. It is
// always derived, never stored: {start, end} is a closed interval on
// local calendar days with end at 23:59:59.999. No timezone conversion
// is performed; all math happens in the anchor's location.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

const endOfDayNanos = 999 * int(time.Millisecond)

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns t's calendar day at 23:59:59.999.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, endOfDayNanos, t.Location())
}

// StartOfWeek returns the Monday on or before t, at midnight. Weeks
// start on Monday throughout the calendar.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	// time.Weekday puts Sunday at 0; shift so Monday is 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// ComputeRange derives the visible date span for a view anchored at
// the given date. Start <= End holds for every view.
func ComputeRange(view View, anchor time.Time) DateRange {
	switch view {
	case ViewDay:
		return DateRange{Start: StartOfDay(anchor), End: EndOfDay(anchor)}
	case ViewWeek:
		start := StartOfWeek(anchor)
		return DateRange{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
	case ViewMonth:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		last := first.AddDate(0, 1, -1)
		return DateRange{Start: first, End: EndOfDay(last)}
	case ViewYear:
		start := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location())
		end := time.Date(anchor.Year(), time.December, 31, 23, 59, 59, endOfDayNanos, anchor.Location())
		return DateRange{Start: start, End: end}
	}
	// Unknown views fall back to the day span rather than panicking;
	// the state store never holds an invalid view.
	return DateRange{Start: StartOfDay(anchor), End: EndOfDay(anchor)}
}

// FormatLabel produces the human-readable caption for the visible
// range: weekday+date for day view, the Monday–Sunday span for week
// view (collapsing the month/year when both ends share them), month
// name for month view and the bare year for year view.
func FormatLabel(view View, anchor time.Time) string {
	switch view {
	case ViewDay:
		return anchor.Format("Monday, January 2, 2006")
	case ViewWeek:
		r := ComputeRange(ViewWeek, anchor)
		start, end := r.Start, r.End
		switch {
		case start.Year() != end.Year():
			return fmt.Sprintf("%s – %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
		case start.Month() != end.Month():
			return fmt.Sprintf("%s – %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), end.Year())
		default:
			return fmt.Sprintf("%s – %d, %d", start.Format("Jan 2"), end.Day(), end.Year())
		}
	case ViewMonth:
		return anchor.Format("January 2006")
	case ViewYear:
		return anchor.Format("2006")
	}
	return anchor.Format("January 2, 2006")
}

// GridDay describes one cell of the month grid.
type GridDay struct {
	Date           time.Time `json:"date"`
	IsCurrentMonth bool      `json:"is_current_month"`
	IsToday        bool      `json:"is_today"`
	IsSelected     bool      `json:"is_selected"`
}

// monthGridCells is fixed at 6 weeks of 7 days so month layouts never
// reflow between months.
const monthGridCells = 42

// EnumerateGridDays produces the day cells a view renders. Month view
// yields the fixed 42-cell grid starting on the Monday on/before the
// 1st; week view yields its 7 days; day view a single cell. Year view
// has no day cells of its own (it is rendered as 12 month grids) and
// yields nil. Cells outside the anchor month are valid dates flagged
// IsCurrentMonth=false.
func EnumerateGridDays(view View, anchor, today time.Time, selected *time.Time) []GridDay {
	switch view {
	case ViewDay:
		return []GridDay{newGridDay(StartOfDay(anchor), anchor.Month(), today, selected)}
	case ViewWeek:
		days := make([]GridDay, 0, 7)
		start := StartOfWeek(anchor)
		for i := 0; i < 7; i++ {
			d := start.AddDate(0, 0, i)
			days = append(days, newGridDay(d, anchor.Month(), today, selected))
		}
		return days
	case ViewMonth:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		start := StartOfWeek(first)
		days := make([]GridDay, 0, monthGridCells)
		for i := 0; i < monthGridCells; i++ {
			d := start.AddDate(0, 0, i)
			days = append(days, newGridDay(d, anchor.Month(), today, selected))
		}
		return days
	}
	return nil
}

func newGridDay(d time.Time, current time.Month, today time.Time, selected *time.Time) GridDay {
	return GridDay{
		Date:           d,
		IsCurrentMonth: d.Month() == current,
		IsToday:        SameDay(d, today),
		IsSelected:     selected != nil && SameDay(d, *selected),
	}
}

// SameDay reports whether two timestamps fall on the same local
// calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
