package model

import "github.com/google/uuid"

// Customer is the owner of one or more animals. Only the fields the
// calendar surface needs are modelled here; full customer records are
// managed elsewhere.
type Customer struct {
	Base
	TenantID uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Name     string    `db:"name" json:"name"`
	Email    string    `db:"email" json:"email"`
	Phone    string    `db:"phone" json:"phone"`
}

// Animal is the patient of an appointment.
type Animal struct {
	Base
	TenantID   uuid.UUID `db:"tenant_id" json:"tenant_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	Name       string    `db:"name" json:"name"`
	Species    string    `db:"species" json:"species"`
	Breed      string    `db:"breed" json:"breed"`
}
