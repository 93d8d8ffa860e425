package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/calendar-api/internal/calendar"
	"github.com/vetdesk/calendar-api/internal/model"
)

// State is the calendar view state for one browsing session. It is a
// value: the store hands out copies, never aliases into its own data.
type State struct {
	CurrentView  calendar.View
	CurrentDate  time.Time
	SelectedDate *time.Time

	// Appointments is the working set for the visible range only; no
	// other range is cached.
	Appointments []*model.Appointment
	Staff        []*model.StaffMember

	// Staff filter. When ShowAllStaff is true the id list is ignored.
	SelectedStaffIDs []uuid.UUID
	ShowAllStaff     bool

	// At most one modal is open at a time.
	ShowCreateModal     bool
	ShowEditModal       bool
	ShowDeleteModal     bool
	SelectedAppointment *model.Appointment

	Loading      bool
	ErrorMessage string
}

// Range derives the visible date span from the current view and
// anchor date.
func (s State) Range() calendar.DateRange {
	return calendar.ComputeRange(s.CurrentView, s.CurrentDate)
}

// FetchDeps is the tuple of state the synchronization layer watches:
// whenever it changes, appointments for the new range/filter must be
// refetched.
type FetchDeps struct {
	View         calendar.View
	RangeStart   time.Time
	RangeEnd     time.Time
	ShowAllStaff bool
	StaffKey     string
}

func (s State) fetchDeps() FetchDeps {
	r := s.Range()
	key := ""
	if !s.ShowAllStaff {
		for _, id := range s.SelectedStaffIDs {
			key += id.String() + ","
		}
	}
	return FetchDeps{
		View:         s.CurrentView,
		RangeStart:   r.Start,
		RangeEnd:     r.End,
		ShowAllStaff: s.ShowAllStaff,
		StaffKey:     key,
	}
}

// Store owns the session state and serializes every mutation through
// Dispatch. Long-lived: there is no terminal state.
type Store struct {
	mu    sync.Mutex
	state State
	now   func() time.Time

	subs []chan struct{}
}

// NewStore returns a store in the initial state: week view anchored at
// now, no selection, no modal, empty working set.
func NewStore() *Store {
	return NewStoreAt(time.Now)
}

// NewStoreAt injects the clock, for tests and deterministic replays.
func NewStoreAt(now func() time.Time) *Store {
	return &Store{
		now: now,
		state: State{
			CurrentView:  calendar.ViewWeek,
			CurrentDate:  now(),
			ShowAllStaff: true,
		},
	}
}

// Snapshot returns a copy of the current state. Slices are copied so
// callers can range over them while dispatches continue.
func (st *Store) Snapshot() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return cloneState(st.state)
}

// Deps returns the current fetch-dependency tuple.
func (st *Store) Deps() FetchDeps {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.fetchDeps()
}

// Subscribe returns a channel that receives a (coalesced) tick
// whenever the fetch dependencies change. The synchronization layer
// listens on it to drive refetches.
func (st *Store) Subscribe() <-chan struct{} {
	st.mu.Lock()
	defer st.mu.Unlock()
	ch := make(chan struct{}, 1)
	st.subs = append(st.subs, ch)
	return ch
}

// Dispatch applies one action. Actions always succeed syntactically; a
// failed fetch is itself dispatched as a SetError transition.
func (st *Store) Dispatch(action Action) {
	st.mu.Lock()
	before := st.state.fetchDeps()
	st.state = reduce(st.state, action, st.now)
	changed := st.state.fetchDeps() != before
	subs := st.subs
	st.mu.Unlock()

	if changed {
		for _, ch := range subs {
			select {
			case ch <- struct{}{}:
			default: // a pending tick already covers this change
			}
		}
	}
}

func reduce(s State, action Action, now func() time.Time) State {
	switch a := action.(type) {
	case SetView:
		if a.View.Valid() {
			s.CurrentView = a.View
		}
	case NavigateToday:
		s.CurrentDate = now()
	case NavigatePrevious:
		s.CurrentDate = shift(s.CurrentView, s.CurrentDate, -1)
	case NavigateNext:
		s.CurrentDate = shift(s.CurrentView, s.CurrentDate, 1)
	case SetCurrentDate:
		s.CurrentDate = a.Date
	case SetSelectedDate:
		s.SelectedDate = a.Date
	case ToggleStaffSelection:
		s.SelectedStaffIDs = toggleID(s.SelectedStaffIDs, a.StaffID)
		s.ShowAllStaff = len(s.SelectedStaffIDs) == 0
	case SelectAllStaff:
		s.SelectedStaffIDs = append([]uuid.UUID(nil), a.StaffIDs...)
		s.ShowAllStaff = true
	case DeselectAllStaff:
		// Empty selection means "show all", not "show none".
		s.SelectedStaffIDs = nil
		s.ShowAllStaff = true
	case OpenCreateModal:
		s = closeModals(s)
		s.ShowCreateModal = true
		if a.DefaultDate != nil {
			s.SelectedDate = a.DefaultDate
		}
	case OpenEditModal:
		s = closeModals(s)
		s.SelectedAppointment = a.Appointment
		s.ShowEditModal = true
	case OpenDeleteModal:
		s = closeModals(s)
		s.SelectedAppointment = a.Appointment
		s.ShowDeleteModal = true
	case CloseModals:
		s = closeModals(s)
	case SetAppointments:
		s.Appointments = append([]*model.Appointment(nil), a.Appointments...)
		s.Loading = false
		s.ErrorMessage = ""
	case SetStaff:
		s.Staff = append([]*model.StaffMember(nil), a.Staff...)
	case AddAppointment:
		s.Appointments = upsertAppointment(s.Appointments, a.Appointment)
	case UpdateAppointment:
		s.Appointments = upsertAppointment(s.Appointments, a.Appointment)
	case RemoveAppointment:
		s.Appointments = removeAppointment(s.Appointments, a.ID)
	case SetLoading:
		s.Loading = a.Loading
	case SetError:
		// Keep the stale working set; the error banner is enough.
		s.Loading = false
		s.ErrorMessage = a.Message
	case ClearError:
		s.ErrorMessage = ""
	}
	return s
}

func shift(view calendar.View, date time.Time, direction int) time.Time {
	switch view {
	case calendar.ViewDay:
		return date.AddDate(0, 0, direction)
	case calendar.ViewWeek:
		return date.AddDate(0, 0, 7*direction)
	case calendar.ViewMonth:
		return date.AddDate(0, direction, 0)
	case calendar.ViewYear:
		return date.AddDate(direction, 0, 0)
	}
	return date
}

func closeModals(s State) State {
	s.ShowCreateModal = false
	s.ShowEditModal = false
	s.ShowDeleteModal = false
	s.SelectedAppointment = nil
	return s
}

func toggleID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, existing := range ids {
		if existing == id {
			return append(append([]uuid.UUID(nil), ids[:i]...), ids[i+1:]...)
		}
	}
	return append(append([]uuid.UUID(nil), ids...), id)
}

// upsertAppointment replaces by id, appending unknown ids. Both
// realtime inserts and updates go through here so the merge is
// idempotent regardless of arrival order.
func upsertAppointment(list []*model.Appointment, apt *model.Appointment) []*model.Appointment {
	if apt == nil {
		return list
	}
	out := append([]*model.Appointment(nil), list...)
	for i, existing := range out {
		if existing.ID == apt.ID {
			out[i] = apt
			return out
		}
	}
	return append(out, apt)
}

func removeAppointment(list []*model.Appointment, id uuid.UUID) []*model.Appointment {
	out := make([]*model.Appointment, 0, len(list))
	for _, apt := range list {
		if apt.ID != id {
			out = append(out, apt)
		}
	}
	return out
}

func cloneState(s State) State {
	s.Appointments = append([]*model.Appointment(nil), s.Appointments...)
	s.Staff = append([]*model.StaffMember(nil), s.Staff...)
	s.SelectedStaffIDs = append([]uuid.UUID(nil), s.SelectedStaffIDs...)
	return s
}

// VisibleAppointments applies the staff filter to the working set.
func (s State) VisibleAppointments() []*model.Appointment {
	if s.ShowAllStaff || len(s.SelectedStaffIDs) == 0 {
		return s.Appointments
	}
	selected := make(map[uuid.UUID]bool, len(s.SelectedStaffIDs))
	for _, id := range s.SelectedStaffIDs {
		selected[id] = true
	}
	out := make([]*model.Appointment, 0, len(s.Appointments))
	for _, apt := range s.Appointments {
		if selected[apt.StaffID] {
			out = append(out, apt)
		}
	}
	return out
}
