package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vetdesk/calendar-api/internal/calendar"
	"github.com/vetdesk/calendar-api/internal/model"
	"github.com/vetdesk/calendar-api/internal/realtime"
	"github.com/vetdesk/calendar-api/internal/repository"
	"github.com/vetdesk/calendar-api/internal/service/notification"
	apperrors "github.com/vetdesk/calendar-api/pkg/errors"
	"github.com/vetdesk/calendar-api/pkg/metrics"
)

const (
	MinAppointmentDuration = 5 * time.Minute
	MaxAppointmentDuration = 8 * time.Hour
)

// Service owns the booking flow: validate, check conflicts, persist,
// publish the change event and notify the staff member. Conflicts are
// enforced here before the write — there is no server-side constraint
// to fall back on.
type Service struct {
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
	publisher    realtime.Publisher
	notifier     notification.Notifier
	validate     *validator.Validate
	logger       *zerolog.Logger
}

func NewService(
	appointments repository.AppointmentRepository,
	staff repository.StaffRepository,
	publisher realtime.Publisher,
	notifier notification.Notifier,
	logger *zerolog.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		staff:        staff,
		publisher:    publisher,
		notifier:     notifier,
		validate:     validator.New(),
		logger:       logger,
	}
}

func (s *Service) validateInterval(start, end time.Time) error {
	if !end.After(start) {
		return apperrors.NewValidation("end time must be after start time", nil)
	}
	duration := end.Sub(start)
	if duration < MinAppointmentDuration {
		return apperrors.NewValidation(fmt.Sprintf("appointment must be at least %v", MinAppointmentDuration), nil)
	}
	if duration > MaxAppointmentDuration {
		return apperrors.NewValidation(fmt.Sprintf("appointment cannot exceed %v", MaxAppointmentDuration), nil)
	}
	return nil
}

// checkConflicts loads the staff member's overlapping appointments and
// runs the detector over them. The interval must already be validated.
func (s *Service) checkConflicts(ctx context.Context, staffID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	existing, err := s.appointments.FindConflictingAppointments(ctx, staffID, start, end, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check conflicts: %w", err)
	}
	if calendar.HasConflict(staffID, start, end, existing, excludeID) {
		metrics.Default().ConflictChecks.WithLabelValues("conflict").Inc()
		return apperrors.NewConflict("the staff member already has an appointment in this time slot")
	}
	metrics.Default().ConflictChecks.WithLabelValues("clear").Inc()
	return nil
}

// CreateAppointment books a new appointment. Validation errors and
// conflicts come back as AppErrors the caller surfaces to the form;
// anything else is a wrapped internal failure.
func (s *Service) CreateAppointment(ctx context.Context, tenantID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidation("invalid appointment request", err)
	}
	if err := s.validateInterval(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	staff, err := s.staff.Get(ctx, req.StaffID)
	if err != nil {
		return nil, apperrors.NewNotFound("staff member", err)
	}

	if err := s.checkConflicts(ctx, req.StaffID, req.StartTime, req.EndTime, nil); err != nil {
		return nil, err
	}

	now := time.Now()
	apt := &model.Appointment{
		TenantID:        tenantID,
		StaffID:         req.StaffID,
		CustomerID:      req.CustomerID,
		AnimalID:        req.AnimalID,
		Title:           req.Title,
		Description:     req.Description,
		Reason:          req.Reason,
		Notes:           req.Notes,
		AppointmentType: req.AppointmentType,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Status:          model.AppointmentStatusScheduled,
		Color:           req.Color,
	}
	apt.ID = uuid.New()
	apt.CreatedAt = now
	apt.UpdatedAt = now
	if apt.Color == nil && staff.Color != "" {
		color := staff.Color
		apt.Color = &color
	}

	if err := s.appointments.Create(ctx, apt); err != nil {
		metrics.Default().BookingsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}
	metrics.Default().BookingsTotal.WithLabelValues("created").Inc()

	s.publish(ctx, realtime.ChangeInsert, apt)

	if err := s.notifier.SendBookingConfirmation(ctx, staff, apt); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("booking notification failed")
	}

	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	return apt, nil
}

// RescheduleAppointment moves or edits an appointment. The conflict
// check excludes the appointment itself so it never conflicts with its
// own slot.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}

	if req.StartTime != nil {
		apt.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		apt.EndTime = *req.EndTime
	}
	if req.Status != nil {
		apt.Status = *req.Status
	}
	if req.Title != nil {
		apt.Title = *req.Title
	}
	if req.Notes != nil {
		apt.Notes = req.Notes
	}
	if req.Color != nil {
		apt.Color = req.Color
	}

	if err := s.validateInterval(apt.StartTime, apt.EndTime); err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, apt.StaffID, apt.StartTime, apt.EndTime, &apt.ID); err != nil {
		return nil, err
	}

	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.publish(ctx, realtime.ChangeUpdate, apt)
	return apt, nil
}

// CancelAppointment marks an appointment cancelled. Appointments are
// never physically deleted here; removal from storage is an external
// concern.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}

	switch apt.Status {
	case model.AppointmentStatusCancelled:
		return nil, apperrors.NewBadRequest("appointment is already cancelled", nil)
	case model.AppointmentStatusCompleted:
		return nil, apperrors.NewBadRequest("cannot cancel a completed appointment", nil)
	}

	apt.Status = model.AppointmentStatusCancelled
	if reason != "" {
		apt.Notes = &reason
	}

	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.publish(ctx, realtime.ChangeUpdate, apt)
	return apt, nil
}

// publish emits the change event behind the realtime feed. Publish
// failures degrade to the periodic reconcile; the write itself stands.
func (s *Service) publish(ctx context.Context, t realtime.ChangeType, apt *model.Appointment) {
	if s.publisher == nil {
		return
	}
	event := realtime.ChangeEvent{
		Type:          t,
		TenantID:      apt.TenantID,
		AppointmentID: apt.ID,
		Appointment:   apt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to publish change event")
	}
}
