package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/vetdesk/calendar-api/internal/calendar/state"
	"github.com/vetdesk/calendar-api/internal/model"
	"github.com/vetdesk/calendar-api/internal/realtime"
	"github.com/vetdesk/calendar-api/internal/repository"
	"github.com/vetdesk/calendar-api/pkg/metrics"
)

const (
	staffCacheKey = "staff"
	staffCacheTTL = 5 * time.Minute

	// reconcileSpec refetches the full working set periodically as a
	// fallback for realtime events lost to a silent disconnect.
	reconcileSpec = "@every 2m"
)

// Broadcaster forwards merged change events, typically to the
// websocket hub. Optional.
type Broadcaster interface {
	Broadcast(event realtime.ChangeEvent)
}

type Config struct {
	TenantID     uuid.UUID
	FetchTimeout time.Duration
}

// Synchronizer keeps the store's working set in step with the
// external appointment store. Whenever the store's fetch dependencies
// change (view, anchor date, staff filter) it recomputes the visible
// range, fetches matching appointments and commits them. Realtime
// change events are merged incrementally, with a periodic full
// reconcile as the fallback.
type Synchronizer struct {
	store        *state.Store
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
	feed         realtime.Feed
	broadcaster  Broadcaster
	cfg          Config
	logger       *zerolog.Logger

	staffCache *gocache.Cache

	// seq orders fetches; a response whose seq is no longer the latest
	// dispatched one is stale and is discarded instead of clobbering a
	// fresher result.
	seq atomic.Uint64
}

func New(
	store *state.Store,
	appointments repository.AppointmentRepository,
	staff repository.StaffRepository,
	feed realtime.Feed,
	broadcaster Broadcaster,
	cfg Config,
	logger *zerolog.Logger,
) *Synchronizer {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Synchronizer{
		store:        store,
		appointments: appointments,
		staff:        staff,
		feed:         feed,
		broadcaster:  broadcaster,
		cfg:          cfg,
		logger:       logger,
		staffCache:   gocache.New(staffCacheTTL, 2*staffCacheTTL),
	}
}

// Run drives the synchronizer until ctx is cancelled: initial fetch,
// refetch on every dep change, realtime merge, periodic reconcile.
// The realtime subscription is released on shutdown.
func (s *Synchronizer) Run(ctx context.Context) error {
	deps := s.store.Subscribe()

	unsubscribe, err := s.feed.Subscribe(ctx, s.cfg.TenantID, s.feedHandlers())
	if err != nil {
		return fmt.Errorf("failed to subscribe to realtime feed: %w", err)
	}
	defer unsubscribe()

	reconciler := cron.New()
	if _, err := reconciler.AddFunc(reconcileSpec, func() { s.Refetch(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reconcile job: %w", err)
	}
	reconciler.Start()
	defer reconciler.Stop()

	s.Refetch(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deps:
			s.Refetch(ctx)
		}
	}
}

// Refetch loads appointments and staff for the current fetch deps and
// commits them. A failed fetch records the error and leaves the
// previous working set intact; stale data beats no data.
func (s *Synchronizer) Refetch(ctx context.Context) {
	seq := s.seq.Add(1)
	start := time.Now()

	s.store.Dispatch(state.SetLoading{Loading: true})
	deps := s.store.Deps()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	filters := s.filtersFor(deps)
	appointments, err := s.appointments.List(fetchCtx, filters)
	if err != nil {
		metrics.Default().FetchesTotal.WithLabelValues("error").Inc()
		if s.seq.Load() == seq {
			s.logger.Error().Err(err).Msg("appointment fetch failed")
			s.store.Dispatch(state.SetError{Message: "failed to load appointments"})
		}
		return
	}

	// A newer fetch was dispatched while this one was in flight; its
	// result wins, ours is discarded.
	if s.seq.Load() != seq {
		s.logger.Debug().Uint64("seq", seq).Msg("discarding stale fetch result")
		metrics.Default().StaleFetches.Inc()
		return
	}

	metrics.Default().FetchesTotal.WithLabelValues("success").Inc()
	metrics.Default().FetchLatency.Observe(time.Since(start).Seconds())

	s.store.Dispatch(state.SetAppointments{Appointments: appointments})

	staff, err := s.fetchStaff(fetchCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("staff fetch failed")
		return
	}
	s.store.Dispatch(state.SetStaff{Staff: staff})
}

func (s *Synchronizer) filtersFor(deps state.FetchDeps) *model.AppointmentFilters {
	filters := &model.AppointmentFilters{
		TenantID:  s.cfg.TenantID,
		StartDate: deps.RangeStart,
		EndDate:   deps.RangeEnd,
	}
	if !deps.ShowAllStaff {
		filters.StaffIDs = s.store.Snapshot().SelectedStaffIDs
	}
	return filters
}

func (s *Synchronizer) fetchStaff(ctx context.Context) ([]*model.StaffMember, error) {
	if cached, ok := s.staffCache.Get(staffCacheKey); ok {
		return cached.([]*model.StaffMember), nil
	}
	staff, err := s.staff.List(ctx, s.cfg.TenantID)
	if err != nil {
		return nil, err
	}
	s.staffCache.Set(staffCacheKey, staff, gocache.DefaultExpiration)
	return staff, nil
}

// feedHandlers merge realtime changes into the working set in arrival
// order. Merges are idempotent by appointment id, so an event racing
// an in-flight fetch converges either way.
func (s *Synchronizer) feedHandlers() realtime.Handlers {
	return realtime.Handlers{
		OnInsert: func(apt *model.Appointment) {
			if !s.inVisibleRange(apt) {
				return
			}
			s.store.Dispatch(state.AddAppointment{Appointment: apt})
			s.broadcast(realtime.ChangeInsert, apt.ID, apt)
		},
		OnUpdate: func(apt *model.Appointment) {
			if !s.inVisibleRange(apt) {
				// Rescheduled out of the visible range.
				s.store.Dispatch(state.RemoveAppointment{ID: apt.ID})
				s.broadcast(realtime.ChangeDelete, apt.ID, nil)
				return
			}
			s.store.Dispatch(state.UpdateAppointment{Appointment: apt})
			s.broadcast(realtime.ChangeUpdate, apt.ID, apt)
		},
		OnDelete: func(id uuid.UUID) {
			s.store.Dispatch(state.RemoveAppointment{ID: id})
			s.broadcast(realtime.ChangeDelete, id, nil)
		},
	}
}

func (s *Synchronizer) inVisibleRange(apt *model.Appointment) bool {
	deps := s.store.Deps()
	return apt.StartTime.Before(deps.RangeEnd) && apt.EndTime.After(deps.RangeStart)
}

func (s *Synchronizer) broadcast(t realtime.ChangeType, id uuid.UUID, apt *model.Appointment) {
	metrics.Default().RealtimeEvents.WithLabelValues(string(t)).Inc()
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(realtime.ChangeEvent{
		Type:          t,
		TenantID:      s.cfg.TenantID,
		AppointmentID: id,
		Appointment:   apt,
	})
}

// InvalidateStaffCache drops the cached staff list so the next fetch
// reloads it.
func (s *Synchronizer) InvalidateStaffCache() {
	s.staffCache.Delete(staffCacheKey)
}
