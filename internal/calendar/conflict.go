package calendar

import (
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/calendar-api/internal/model"
)

// HasConflict reports whether booking [start, end) for the given staff
// member would overlap an existing appointment. Conflicts are
// partitioned by staff: appointments assigned to different staff never
// conflict regardless of time overlap. excludeID, when non-nil, skips
// that appointment so an edit does not conflict with itself.
//
// Intervals are half-open: back-to-back appointments (candidate start
// equal to an existing end) do not conflict. Cancelled and no-show
// appointments do not block the slot.
//
// An inverted interval (end <= start) is an input-validation error the
// caller must reject before getting here; the detector reports no
// conflict for it.
func HasConflict(staffID uuid.UUID, start, end time.Time, existing []*model.Appointment, excludeID *uuid.UUID) bool {
	for _, apt := range existing {
		if apt.StaffID != staffID {
			continue
		}
		if excludeID != nil && apt.ID == *excludeID {
			continue
		}
		if apt.Status == model.AppointmentStatusCancelled || apt.Status == model.AppointmentStatusNoShow {
			continue
		}
		if Overlaps(start, end, apt.StartTime, apt.EndTime) {
			return true
		}
	}
	return false
}

// Overlaps reports whether the half-open intervals [s1, e1) and
// [s2, e2) intersect: s1 < e2 && s2 < e1.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}
