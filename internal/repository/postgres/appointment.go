package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vetdesk/calendar-api/internal/model"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, tenant_id, staff_id, customer_id, animal_id,
			title, description, reason, notes, appointment_type,
			start_time, end_time, status, color,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.TenantID,
		appointment.StaffID,
		appointment.CustomerID,
		appointment.AnimalID,
		appointment.Title,
		appointment.Description,
		appointment.Reason,
		appointment.Notes,
		appointment.AppointmentType,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Color,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, tenant_id, staff_id, customer_id, animal_id,
			   title, description, reason, notes, appointment_type,
			   start_time, end_time, status, color,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, status = $3, title = $4,
			notes = $5, color = $6, updated_at = $7
		WHERE id = $8
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Status,
		appointment.Title,
		appointment.Notes,
		appointment.Color,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("appointment not found")
	}

	return nil
}

// List returns appointments whose interval intersects the filter's
// date span, newest range first by start time. The optional staff,
// status and type predicates narrow the result.
func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, tenant_id, staff_id, customer_id, animal_id,
			   title, description, reason, notes, appointment_type,
			   start_time, end_time, status, color,
			   created_at, updated_at
		FROM appointments
		WHERE tenant_id = $1
		AND start_time <= $2
		AND end_time >= $3
	`
	args := []interface{}{filters.TenantID, filters.EndDate, filters.StartDate}

	if len(filters.StaffIDs) > 0 {
		args = append(args, pq.Array(filters.StaffIDs))
		query += fmt.Sprintf(" AND staff_id = ANY($%d)", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.AppointmentType != "" {
		args = append(args, filters.AppointmentType)
		query += fmt.Sprintf(" AND appointment_type = $%d", len(args))
	}
	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// FindConflictingAppointments returns active appointments for the
// staff member whose half-open interval overlaps [start, end).
// Touching intervals are not conflicts, hence strict inequalities.
func (r *appointmentRepository) FindConflictingAppointments(ctx context.Context, staffID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, tenant_id, staff_id, customer_id, animal_id,
			   title, description, reason, notes, appointment_type,
			   start_time, end_time, status, color,
			   created_at, updated_at
		FROM appointments
		WHERE staff_id = $1
		AND start_time < $2
		AND end_time > $3
		AND status NOT IN ('cancelled', 'no_show')
	`
	args := []interface{}{staffID, end, start}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf(" AND id != $%d", len(args))
	}
	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find conflicting appointments: %w", err)
	}
	return appointments, nil
}
