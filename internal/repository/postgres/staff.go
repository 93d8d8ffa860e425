package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vetdesk/calendar-api/internal/model"
)

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.StaffMember, error) {
	query := `
		SELECT id, tenant_id, name, role, color, email, status,
			   created_at, updated_at
		FROM staff_members
		WHERE id = $1
	`
	var staff model.StaffMember
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*model.StaffMember, error) {
	query := `
		SELECT id, tenant_id, name, role, color, email, status,
			   created_at, updated_at
		FROM staff_members
		WHERE tenant_id = $1
		AND status = 'active'
		ORDER BY name ASC
	`
	var staff []*model.StaffMember
	if err := r.db.SelectContext(ctx, &staff, query, tenantID); err != nil {
		return nil, fmt.Errorf("failed to list staff members: %w", err)
	}
	return staff, nil
}
