package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/repository"
)

type permissionRepository struct {
	BaseRepository
}

func NewPermissionRepository(db *sqlx.DB) repository.PermissionRepository {
	return &permissionRepository{NewBaseRepository(db)}
}

func (r *permissionRepository) HasActive(ctx context.Context, adminID int64, permType model.PermissionType) (bool, error) {
	var count int
	query := `
        SELECT COUNT(*) FROM delegated_permissions
        WHERE admin_id = $1 AND permission_type = $2 AND active = TRUE`
	if err := r.DB().GetContext(ctx, &count, query, adminID, permType); err != nil {
		return false, fmt.Errorf("failed to check delegated permission: %w", err)
	}
	return count > 0, nil
}

func (r *permissionRepository) Insert(ctx context.Context, grant *model.DelegatedPermission) error {
	query := `
        INSERT INTO delegated_permissions (
            admin_id, permission_type, granted_by, granted_at, active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING permission_id`
	if err := r.DB().GetContext(ctx, &grant.ID, query,
		grant.AdminID, grant.Type, grant.GrantedBy, grant.GrantedAt, grant.Active); err != nil {
		return fmt.Errorf("failed to insert delegated permission: %w", err)
	}
	return nil
}

// Deactivate flips matching active grants off; rows are kept for the
// audit trail.
func (r *permissionRepository) Deactivate(ctx context.Context, adminID int64, permType model.PermissionType) (int64, error) {
	query := `
        UPDATE delegated_permissions
        SET active = FALSE, updated_at = NOW()
        WHERE admin_id = $1 AND permission_type = $2 AND active = TRUE`
	res, err := r.DB().ExecContext(ctx, query, adminID, permType)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate delegated permission: %w", err)
	}
	return res.RowsAffected()
}

func (r *permissionRepository) ListByAdmin(ctx context.Context, adminID int64) ([]*model.DelegatedPermission, error) {
	var grants []*model.DelegatedPermission
	query := `
        SELECT * FROM delegated_permissions
        WHERE admin_id = $1
        ORDER BY granted_at DESC`
	if err := r.DB().SelectContext(ctx, &grants, query, adminID); err != nil {
		return nil, fmt.Errorf("failed to list delegated permissions: %w", err)
	}
	return grants, nil
}
