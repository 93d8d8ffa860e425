package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetdesk/calendar-api/internal/calendar/state"
	"github.com/vetdesk/calendar-api/internal/model"
	"github.com/vetdesk/calendar-api/internal/realtime"
	"github.com/vetdesk/calendar-api/internal/repository"
)

var testNow = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

type fakeAppointmentRepo struct {
	mu      stdsync.Mutex
	result  []*model.Appointment
	err     error
	filters []*model.AppointmentFilters

	// block, when non-nil, is received from once per List call before
	// returning, letting tests control completion order.
	block chan struct{}
}

var _ repository.AppointmentRepository = (*fakeAppointmentRepo)(nil)

func (f *fakeAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filters)
	result, err, block := f.result, f.err, f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return result, err
}

func (f *fakeAppointmentRepo) setResult(result []*model.Appointment, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

func (f *fakeAppointmentRepo) lastFilters() *model.AppointmentFilters {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.filters) == 0 {
		return nil
	}
	return f.filters[len(f.filters)-1]
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, apt *model.Appointment) error { return nil }
func (f *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeAppointmentRepo) Update(ctx context.Context, apt *model.Appointment) error { return nil }
func (f *fakeAppointmentRepo) FindConflictingAppointments(ctx context.Context, staffID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

type fakeStaffRepo struct {
	mu    stdsync.Mutex
	staff []*model.StaffMember
	calls int
}

var _ repository.StaffRepository = (*fakeStaffRepo)(nil)

func (f *fakeStaffRepo) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStaffRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*model.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.staff, nil
}

func (f *fakeStaffRepo) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFeed struct {
	mu       stdsync.Mutex
	handlers realtime.Handlers
}

func (f *fakeFeed) Subscribe(ctx context.Context, tenantID uuid.UUID, handlers realtime.Handlers) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = handlers
	return func() {}, nil
}

type recordingBroadcaster struct {
	mu     stdsync.Mutex
	events []realtime.ChangeEvent
}

func (b *recordingBroadcaster) Broadcast(event realtime.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func newTestSynchronizer(repo *fakeAppointmentRepo, staff *fakeStaffRepo) (*Synchronizer, *state.Store) {
	store := state.NewStoreAt(func() time.Time { return testNow })
	logger := zerolog.Nop()
	s := New(store, repo, staff, &fakeFeed{}, nil, Config{TenantID: uuid.New()}, &logger)
	return s, store
}

func visibleApt(staffID uuid.UUID) *model.Appointment {
	a := &model.Appointment{
		StaffID:   staffID,
		StartTime: testNow,
		EndTime:   testNow.Add(time.Hour),
		Status:    model.AppointmentStatusScheduled,
	}
	a.ID = uuid.New()
	return a
}

func TestRefetch_CommitsAppointmentsForVisibleRange(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	staffRepo := &fakeStaffRepo{staff: []*model.StaffMember{{Name: "Dr. Reyes", Role: "vet", Color: "#336699"}}}
	s, store := newTestSynchronizer(repo, staffRepo)

	apt := visibleApt(uuid.New())
	repo.setResult([]*model.Appointment{apt}, nil)

	s.Refetch(context.Background())

	snap := store.Snapshot()
	require.Len(t, snap.Appointments, 1)
	assert.Equal(t, apt.ID, snap.Appointments[0].ID)
	assert.Len(t, snap.Staff, 1)
	assert.False(t, snap.Loading)

	// The filter matches the store's derived week range.
	filters := repo.lastFilters()
	require.NotNil(t, filters)
	r := snap.Range()
	assert.Equal(t, r.Start, filters.StartDate)
	assert.Equal(t, r.End, filters.EndDate)
	assert.Empty(t, filters.StaffIDs, "show-all must not send a staff filter")
}

func TestRefetch_StaffFilterApplied(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	s, store := newTestSynchronizer(repo, &fakeStaffRepo{})

	staffID := uuid.New()
	store.Dispatch(state.ToggleStaffSelection{StaffID: staffID})

	s.Refetch(context.Background())

	filters := repo.lastFilters()
	require.NotNil(t, filters)
	assert.Equal(t, []uuid.UUID{staffID}, filters.StaffIDs)
}

func TestRefetch_FailureKeepsWorkingSet(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	s, store := newTestSynchronizer(repo, &fakeStaffRepo{})

	apt := visibleApt(uuid.New())
	repo.setResult([]*model.Appointment{apt}, nil)
	s.Refetch(context.Background())
	require.Len(t, store.Snapshot().Appointments, 1)

	repo.setResult(nil, errors.New("connection refused"))
	s.Refetch(context.Background())

	snap := store.Snapshot()
	assert.Len(t, snap.Appointments, 1, "stale data beats no data")
	assert.NotEmpty(t, snap.ErrorMessage)
	assert.False(t, snap.Loading)
}

func TestRefetch_StaleResponseDiscarded(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	s, store := newTestSynchronizer(repo, &fakeStaffRepo{})

	slowApt := visibleApt(uuid.New())
	fastApt := visibleApt(uuid.New())

	release := make(chan struct{})
	repo.mu.Lock()
	repo.result = []*model.Appointment{slowApt}
	repo.block = release
	repo.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refetch(context.Background())
	}()

	// Wait for the slow fetch to be in flight, then dispatch a newer
	// one that completes first.
	require.Eventually(t, func() bool { return repo.lastFilters() != nil }, time.Second, time.Millisecond)

	repo.mu.Lock()
	repo.result = []*model.Appointment{fastApt}
	repo.block = nil
	repo.mu.Unlock()
	s.Refetch(context.Background())

	require.Len(t, store.Snapshot().Appointments, 1)
	assert.Equal(t, fastApt.ID, store.Snapshot().Appointments[0].ID)

	// Now let the slow fetch resolve; its result must be discarded.
	close(release)
	<-done

	require.Len(t, store.Snapshot().Appointments, 1)
	assert.Equal(t, fastApt.ID, store.Snapshot().Appointments[0].ID)
}

func TestRefetch_StaffListCached(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	staffRepo := &fakeStaffRepo{}
	s, _ := newTestSynchronizer(repo, staffRepo)

	s.Refetch(context.Background())
	s.Refetch(context.Background())
	assert.Equal(t, 1, staffRepo.listCalls())

	s.InvalidateStaffCache()
	s.Refetch(context.Background())
	assert.Equal(t, 2, staffRepo.listCalls())
}

func TestFeedHandlers_MergeIncrementally(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	s, store := newTestSynchronizer(repo, &fakeStaffRepo{})
	handlers := s.feedHandlers()

	apt := visibleApt(uuid.New())
	handlers.OnInsert(apt)
	require.Len(t, store.Snapshot().Appointments, 1)

	updated := *apt
	updated.Title = "Spay surgery"
	handlers.OnUpdate(&updated)
	snap := store.Snapshot()
	require.Len(t, snap.Appointments, 1)
	assert.Equal(t, "Spay surgery", snap.Appointments[0].Title)

	handlers.OnDelete(apt.ID)
	assert.Empty(t, store.Snapshot().Appointments)
}

func TestFeedHandlers_OutOfRangeInsertIgnored(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	s, store := newTestSynchronizer(repo, &fakeStaffRepo{})
	handlers := s.feedHandlers()

	outside := visibleApt(uuid.New())
	outside.StartTime = testNow.AddDate(0, 2, 0)
	outside.EndTime = outside.StartTime.Add(time.Hour)

	handlers.OnInsert(outside)
	assert.Empty(t, store.Snapshot().Appointments)
}

func TestFeedHandlers_RescheduleOutOfRangeRemoves(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	s, store := newTestSynchronizer(repo, &fakeStaffRepo{})
	handlers := s.feedHandlers()

	apt := visibleApt(uuid.New())
	handlers.OnInsert(apt)
	require.Len(t, store.Snapshot().Appointments, 1)

	moved := *apt
	moved.StartTime = testNow.AddDate(0, 2, 0)
	moved.EndTime = moved.StartTime.Add(time.Hour)
	handlers.OnUpdate(&moved)

	assert.Empty(t, store.Snapshot().Appointments)
}

func TestFeedHandlers_BroadcastForwarded(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	store := state.NewStoreAt(func() time.Time { return testNow })
	logger := zerolog.Nop()
	b := &recordingBroadcaster{}
	s := New(store, repo, &fakeStaffRepo{}, &fakeFeed{}, b, Config{TenantID: uuid.New()}, &logger)

	handlers := s.feedHandlers()
	apt := visibleApt(uuid.New())
	handlers.OnInsert(apt)
	handlers.OnDelete(apt.ID)

	assert.Equal(t, 2, b.count())
}

func TestRun_RefetchesOnDepChange(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	staffRepo := &fakeStaffRepo{}
	store := state.NewStoreAt(func() time.Time { return testNow })
	logger := zerolog.Nop()
	feed := &fakeFeed{}
	s := New(store, repo, staffRepo, feed, nil, Config{TenantID: uuid.New()}, &logger)

	apt := visibleApt(uuid.New())
	repo.setResult([]*model.Appointment{apt}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Initial fetch.
	require.Eventually(t, func() bool {
		return len(store.Snapshot().Appointments) == 1
	}, time.Second, time.Millisecond)

	// A navigation triggers a refetch for the new range.
	store.Dispatch(state.NavigateNext{})
	require.Eventually(t, func() bool {
		f := repo.lastFilters()
		return f != nil && f.StartDate.Equal(store.Snapshot().Range().Start)
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}
