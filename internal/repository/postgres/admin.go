package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/repository"
	"github.com/campusware/gatepass/pkg/errors"
)

type adminRepository struct {
	BaseRepository
}

func NewAdminRepository(db *sqlx.DB) repository.AdminRepository {
	return &adminRepository{NewBaseRepository(db)}
}

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	var admin model.Admin
	query := `SELECT * FROM admins WHERE admin_id = $1`
	if err := r.DB().GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("admin")
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &admin, nil
}

func (r *adminRepository) GetByLoginName(ctx context.Context, loginName string) (*model.Admin, error) {
	var admin model.Admin
	query := `SELECT * FROM admins WHERE login_name = $1`
	if err := r.DB().GetContext(ctx, &admin, query, loginName); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("admin")
		}
		return nil, fmt.Errorf("failed to get admin by login name: %w", err)
	}
	return &admin, nil
}

func (r *adminRepository) List(ctx context.Context) ([]*model.Admin, error) {
	var admins []*model.Admin
	query := `SELECT * FROM admins ORDER BY admin_id`
	if err := r.DB().SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

func (r *adminRepository) UpdateLoginAttempts(ctx context.Context, id int64, attempts int) error {
	query := `UPDATE admins SET login_attempts = $2, updated_at = NOW() WHERE admin_id = $1`
	if _, err := r.DB().ExecContext(ctx, query, id, attempts); err != nil {
		return fmt.Errorf("failed to update login attempts: %w", err)
	}
	return nil
}

func (r *adminRepository) Lock(ctx context.Context, id int64, until time.Time) error {
	query := `
        UPDATE admins
        SET locked_until = $2, login_attempts = $3, updated_at = NOW()
        WHERE admin_id = $1`
	if _, err := r.DB().ExecContext(ctx, query, id, until, model.MaxLoginAttempts); err != nil {
		return fmt.Errorf("failed to lock admin: %w", err)
	}
	return nil
}

func (r *adminRepository) Unlock(ctx context.Context, id int64) error {
	query := `
        UPDATE admins
        SET locked_until = NULL, login_attempts = 0, updated_at = NOW()
        WHERE admin_id = $1`
	if _, err := r.DB().ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to unlock admin: %w", err)
	}
	return nil
}

func (r *adminRepository) UpdatePassword(ctx context.Context, id int64, hash string, changedAt time.Time) error {
	query := `
        UPDATE admins
        SET password_hash = $2, last_password_change = $3, updated_at = NOW()
        WHERE admin_id = $1`
	if _, err := r.DB().ExecContext(ctx, query, id, hash, changedAt); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *adminRepository) UpdateEnabled(ctx context.Context, id int64, enabled bool) error {
	query := `UPDATE admins SET enabled = $2, updated_at = NOW() WHERE admin_id = $1`
	if _, err := r.DB().ExecContext(ctx, query, id, enabled); err != nil {
		return fmt.Errorf("failed to update admin status: %w", err)
	}
	return nil
}
