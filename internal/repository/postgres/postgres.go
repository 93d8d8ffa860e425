package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/vetdesk/calendar-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type staffRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}
