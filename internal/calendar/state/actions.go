package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/calendar-api/internal/calendar"
	"github.com/vetdesk/calendar-api/internal/model"
)

// Action is a named state transition. The store's state is mutated
// exclusively by dispatching actions; there is no other writer.
type Action interface {
	isAction()
}

// SetView switches the active calendar view. The visible date range is
// derived from (view, current date) on demand, never stored.
type SetView struct{ View calendar.View }

// NavigateToday moves the anchor date back to the current time.
type NavigateToday struct{}

// NavigatePrevious shifts the anchor date back by one unit of the
// active view (day, week, month or year).
type NavigatePrevious struct{}

// NavigateNext shifts the anchor date forward by one unit of the
// active view.
type NavigateNext struct{}

type SetCurrentDate struct{ Date time.Time }

// SetSelectedDate highlights a day for drill-down, independent of the
// anchor date. Nil clears the selection.
type SetSelectedDate struct{ Date *time.Time }

// ToggleStaffSelection adds or removes a staff member from the filter.
// Toggling the selection down to empty means "show all".
type ToggleStaffSelection struct{ StaffID uuid.UUID }

// SelectAllStaff selects every known staff member.
type SelectAllStaff struct{ StaffIDs []uuid.UUID }

// DeselectAllStaff clears the filter. An empty selection shows all
// staff, not none.
type DeselectAllStaff struct{}

type OpenCreateModal struct{ DefaultDate *time.Time }

type OpenEditModal struct{ Appointment *model.Appointment }

type OpenDeleteModal struct{ Appointment *model.Appointment }

// CloseModals closes whichever modal is open and clears the targeted
// appointment.
type CloseModals struct{}

// SetAppointments replaces the working set wholesale. Used when a
// fetch for the visible range resolves.
type SetAppointments struct{ Appointments []*model.Appointment }

// SetStaff replaces the known staff members.
type SetStaff struct{ Staff []*model.StaffMember }

// AddAppointment merges a single appointment into the working set,
// replacing any entry with the same id.
type AddAppointment struct{ Appointment *model.Appointment }

// UpdateAppointment replaces the appointment with a matching id. An
// unknown id is added; realtime updates and in-flight fetches may
// arrive in either order and both must converge by id.
type UpdateAppointment struct{ Appointment *model.Appointment }

type RemoveAppointment struct{ ID uuid.UUID }

// SetLoading flags an in-flight fetch.
type SetLoading struct{ Loading bool }

// SetError records a fetch failure. The previous working set is kept;
// stale data beats no data.
type SetError struct{ Message string }

// ClearError removes the error banner.
type ClearError struct{}

func (SetView) isAction()              {}
func (NavigateToday) isAction()        {}
func (NavigatePrevious) isAction()     {}
func (NavigateNext) isAction()         {}
func (SetCurrentDate) isAction()       {}
func (SetSelectedDate) isAction()      {}
func (ToggleStaffSelection) isAction() {}
func (SelectAllStaff) isAction()       {}
func (DeselectAllStaff) isAction()     {}
func (OpenCreateModal) isAction()      {}
func (OpenEditModal) isAction()        {}
func (OpenDeleteModal) isAction()      {}
func (CloseModals) isAction()          {}
func (SetAppointments) isAction()      {}
func (SetStaff) isAction()             {}
func (AddAppointment) isAction()       {}
func (UpdateAppointment) isAction()    {}
func (RemoveAppointment) isAction()    {}
func (SetLoading) isAction()           {}
func (SetError) isAction()             {}
func (ClearError) isAction()           {}
