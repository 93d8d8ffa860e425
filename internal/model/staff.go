package model

import "github.com/google/uuid"

// StaffMember is a schedulable person resource, distinct from any
// user/login identity. Color disambiguates staff visually and is the
// fallback appointment color.
type StaffMember struct {
	Base
	TenantID uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Name     string    `db:"name" json:"name"`
	Role     string    `db:"role" json:"role"`
	Color    string    `db:"color" json:"color"`
	Email    string    `db:"email" json:"email"`
	Status   string    `db:"status" json:"status"`
}
