package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// Appointment is a scheduled encounter between a staff member and,
// optionally, a customer's animal. Customer and animal are nullable
// because an appointment may be created before the booking flow has
// resolved them.
type Appointment struct {
	Base
	TenantID        uuid.UUID         `db:"tenant_id" json:"tenant_id"`
	StaffID         uuid.UUID         `db:"staff_id" json:"staff_id"`
	CustomerID      *uuid.UUID        `db:"customer_id" json:"customer_id,omitempty"`
	AnimalID        *uuid.UUID        `db:"animal_id" json:"animal_id,omitempty"`
	Title           string            `db:"title" json:"title"`
	Description     *string           `db:"description" json:"description,omitempty"`
	Reason          *string           `db:"reason" json:"reason,omitempty"`
	Notes           *string           `db:"notes" json:"notes,omitempty"`
	AppointmentType string            `db:"appointment_type" json:"appointment_type"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Color           *string           `db:"color" json:"color,omitempty"`
}

// DisplayColor resolves the color shown on the calendar: the
// appointment's own color when set, otherwise the assigned staff
// member's color.
func (a *Appointment) DisplayColor(staff *StaffMember) string {
	if a.Color != nil && *a.Color != "" {
		return *a.Color
	}
	if staff != nil {
		return staff.Color
	}
	return ""
}

type CreateAppointmentRequest struct {
	StaffID         uuid.UUID  `json:"staff_id" validate:"required"`
	CustomerID      *uuid.UUID `json:"customer_id"`
	AnimalID        *uuid.UUID `json:"animal_id"`
	Title           string     `json:"title" validate:"required,max=200"`
	Description     *string    `json:"description"`
	Reason          *string    `json:"reason"`
	Notes           *string    `json:"notes" validate:"omitempty,max=1000"`
	AppointmentType string     `json:"appointment_type" validate:"required,oneof=checkup vaccination surgery grooming dental emergency followup"`
	StartTime       time.Time  `json:"start_time" validate:"required"`
	EndTime         time.Time  `json:"end_time" validate:"required,gtfield=StartTime"`
	Color           *string    `json:"color"`
}

type UpdateAppointmentRequest struct {
	StartTime *time.Time         `json:"start_time"`
	EndTime   *time.Time         `json:"end_time"`
	Status    *AppointmentStatus `json:"status"`
	Title     *string            `json:"title"`
	Notes     *string            `json:"notes"`
	Color     *string            `json:"color"`
}

// AppointmentFilters narrows an appointment fetch to the visible
// calendar range plus optional staff/status/type predicates. StaffIDs
// empty means no staff filter (all staff).
type AppointmentFilters struct {
	TenantID        uuid.UUID
	StartDate       time.Time
	EndDate         time.Time
	StaffIDs        []uuid.UUID
	Status          AppointmentStatus
	AppointmentType string
}
