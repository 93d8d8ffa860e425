package state

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetdesk/calendar-api/internal/calendar"
	"github.com/vetdesk/calendar-api/internal/model"
)

var testNow = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return NewStoreAt(func() time.Time { return testNow })
}

func apt(staffID uuid.UUID, start, end time.Time) *model.Appointment {
	a := &model.Appointment{StaffID: staffID, StartTime: start, EndTime: end, Status: model.AppointmentStatusScheduled}
	a.ID = uuid.New()
	return a
}

func TestInitialState(t *testing.T) {
	s := newTestStore().Snapshot()

	assert.Equal(t, calendar.ViewWeek, s.CurrentView)
	assert.Equal(t, testNow, s.CurrentDate)
	assert.Nil(t, s.SelectedDate)
	assert.Empty(t, s.Appointments)
	assert.True(t, s.ShowAllStaff)
	assert.False(t, s.ShowCreateModal || s.ShowEditModal || s.ShowDeleteModal)
}

func TestNavigation(t *testing.T) {
	tests := []struct {
		view calendar.View
		next time.Time
	}{
		{calendar.ViewDay, testNow.AddDate(0, 0, 1)},
		{calendar.ViewWeek, testNow.AddDate(0, 0, 7)},
		{calendar.ViewMonth, testNow.AddDate(0, 1, 0)},
		{calendar.ViewYear, testNow.AddDate(1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			st := newTestStore()
			st.Dispatch(SetView{View: tt.view})

			st.Dispatch(NavigateNext{})
			assert.Equal(t, tt.next, st.Snapshot().CurrentDate)

			st.Dispatch(NavigatePrevious{})
			assert.Equal(t, testNow, st.Snapshot().CurrentDate)

			st.Dispatch(NavigatePrevious{})
			st.Dispatch(NavigateToday{})
			assert.Equal(t, testNow, st.Snapshot().CurrentDate)
		})
	}
}

func TestNavigateNextWeekRange(t *testing.T) {
	st := newTestStore()
	st.Dispatch(NavigateNext{})

	s := st.Snapshot()
	require.Equal(t, time.Date(2024, time.January, 17, 12, 0, 0, 0, time.UTC), s.CurrentDate)

	r := s.Range()
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, time.January, 21, 23, 59, 59, 999000000, time.UTC), r.End)
}

func TestSetView_RejectsUnknown(t *testing.T) {
	st := newTestStore()
	st.Dispatch(SetView{View: calendar.View("fortnight")})
	assert.Equal(t, calendar.ViewWeek, st.Snapshot().CurrentView)
}

func TestToggleStaffSelection_EmptyMeansShowAll(t *testing.T) {
	st := newTestStore()
	id := uuid.New()

	st.Dispatch(ToggleStaffSelection{StaffID: id})
	s := st.Snapshot()
	assert.Equal(t, []uuid.UUID{id}, s.SelectedStaffIDs)
	assert.False(t, s.ShowAllStaff)

	// Toggling the only selected id off restores "show all".
	st.Dispatch(ToggleStaffSelection{StaffID: id})
	s = st.Snapshot()
	assert.Empty(t, s.SelectedStaffIDs)
	assert.True(t, s.ShowAllStaff)
}

func TestSelectAndDeselectAllStaff(t *testing.T) {
	st := newTestStore()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	st.Dispatch(SelectAllStaff{StaffIDs: ids})
	s := st.Snapshot()
	assert.Equal(t, ids, s.SelectedStaffIDs)
	assert.True(t, s.ShowAllStaff)

	st.Dispatch(ToggleStaffSelection{StaffID: ids[0]})
	assert.False(t, st.Snapshot().ShowAllStaff)

	st.Dispatch(DeselectAllStaff{})
	s = st.Snapshot()
	assert.Empty(t, s.SelectedStaffIDs)
	assert.True(t, s.ShowAllStaff)
}

func TestModals_AtMostOneOpen(t *testing.T) {
	st := newTestStore()
	target := apt(uuid.New(), testNow, testNow.Add(time.Hour))

	st.Dispatch(OpenEditModal{Appointment: target})
	s := st.Snapshot()
	assert.True(t, s.ShowEditModal)
	assert.Equal(t, target, s.SelectedAppointment)

	st.Dispatch(OpenDeleteModal{Appointment: target})
	s = st.Snapshot()
	assert.False(t, s.ShowEditModal)
	assert.True(t, s.ShowDeleteModal)

	defaultDate := testNow.AddDate(0, 0, 2)
	st.Dispatch(OpenCreateModal{DefaultDate: &defaultDate})
	s = st.Snapshot()
	assert.True(t, s.ShowCreateModal)
	assert.False(t, s.ShowDeleteModal)
	assert.Nil(t, s.SelectedAppointment)
	require.NotNil(t, s.SelectedDate)
	assert.Equal(t, defaultDate, *s.SelectedDate)

	st.Dispatch(CloseModals{})
	s = st.Snapshot()
	assert.False(t, s.ShowCreateModal || s.ShowEditModal || s.ShowDeleteModal)
	assert.Nil(t, s.SelectedAppointment)
}

func TestAppointmentListEdits(t *testing.T) {
	st := newTestStore()
	staff := uuid.New()
	a := apt(staff, testNow, testNow.Add(time.Hour))
	b := apt(staff, testNow.Add(2*time.Hour), testNow.Add(3*time.Hour))

	st.Dispatch(SetAppointments{Appointments: []*model.Appointment{a}})
	st.Dispatch(AddAppointment{Appointment: b})
	assert.Len(t, st.Snapshot().Appointments, 2)

	// Update replaces by id.
	updated := *b
	updated.Title = "Dental cleaning"
	st.Dispatch(UpdateAppointment{Appointment: &updated})
	s := st.Snapshot()
	assert.Len(t, s.Appointments, 2)
	assert.Equal(t, "Dental cleaning", s.Appointments[1].Title)

	// An update for an unknown id is merged as an insert.
	c := apt(staff, testNow.Add(4*time.Hour), testNow.Add(5*time.Hour))
	st.Dispatch(UpdateAppointment{Appointment: c})
	assert.Len(t, st.Snapshot().Appointments, 3)

	st.Dispatch(RemoveAppointment{ID: a.ID})
	s = st.Snapshot()
	assert.Len(t, s.Appointments, 2)
	for _, got := range s.Appointments {
		assert.NotEqual(t, a.ID, got.ID)
	}

	// A full replace drops everything not in the new set.
	st.Dispatch(SetAppointments{Appointments: nil})
	assert.Empty(t, st.Snapshot().Appointments)
}

func TestSetError_KeepsWorkingSet(t *testing.T) {
	st := newTestStore()
	a := apt(uuid.New(), testNow, testNow.Add(time.Hour))
	st.Dispatch(SetAppointments{Appointments: []*model.Appointment{a}})

	st.Dispatch(SetLoading{Loading: true})
	st.Dispatch(SetError{Message: "store unreachable"})

	s := st.Snapshot()
	assert.Equal(t, "store unreachable", s.ErrorMessage)
	assert.False(t, s.Loading)
	assert.Len(t, s.Appointments, 1)

	// A later successful fetch clears the banner.
	st.Dispatch(SetAppointments{Appointments: []*model.Appointment{a}})
	assert.Empty(t, st.Snapshot().ErrorMessage)
}

func TestVisibleAppointments_Filter(t *testing.T) {
	st := newTestStore()
	staffA, staffB := uuid.New(), uuid.New()
	a := apt(staffA, testNow, testNow.Add(time.Hour))
	b := apt(staffB, testNow, testNow.Add(time.Hour))
	st.Dispatch(SetAppointments{Appointments: []*model.Appointment{a, b}})

	assert.Len(t, st.Snapshot().VisibleAppointments(), 2)

	st.Dispatch(ToggleStaffSelection{StaffID: staffA})
	visible := st.Snapshot().VisibleAppointments()
	require.Len(t, visible, 1)
	assert.Equal(t, staffA, visible[0].StaffID)
}

func TestSubscribe_NotifiesOnDepChange(t *testing.T) {
	st := newTestStore()
	ch := st.Subscribe()

	st.Dispatch(NavigateNext{})
	select {
	case <-ch:
	default:
		t.Fatal("expected a dep-change tick after navigation")
	}

	// Modal churn does not touch the fetch deps.
	st.Dispatch(OpenCreateModal{})
	st.Dispatch(CloseModals{})
	select {
	case <-ch:
		t.Fatal("modal transitions must not trigger refetch")
	default:
	}

	// Rapid changes coalesce into one pending tick.
	st.Dispatch(NavigateNext{})
	st.Dispatch(NavigateNext{})
	<-ch
	select {
	case <-ch:
		t.Fatal("ticks should coalesce")
	default:
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := newTestStore()
	st.Dispatch(SetAppointments{Appointments: []*model.Appointment{apt(uuid.New(), testNow, testNow.Add(time.Hour))}})

	s := st.Snapshot()
	st.Dispatch(SetAppointments{Appointments: nil})
	assert.Len(t, s.Appointments, 1, "snapshot must not observe later dispatches")
}
