package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vetdesk/calendar-api/internal/model"
)

// All repository interfaces in one file
type (
	// AppointmentRepository is the external appointment store. List
	// returns every appointment whose [start, end) interval intersects
	// the filter's [StartDate, EndDate] span.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		FindConflictingAppointments(ctx context.Context, staffID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
	}

	// StaffRepository reads schedulable staff members for a tenant.
	StaffRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error)
		List(ctx context.Context, tenantID uuid.UUID) ([]*model.StaffMember, error)
	}
)
