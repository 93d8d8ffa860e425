package calendar

import "fmt"

// View selects how much of the calendar is visible at once.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
	ViewYear  View = "year"
)

func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewDay, ViewWeek, ViewMonth, ViewYear:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown calendar view: %q", s)
}

func (v View) Valid() bool {
	switch v {
	case ViewDay, ViewWeek, ViewMonth, ViewYear:
		return true
	}
	return false
}
