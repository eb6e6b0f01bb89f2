package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/repository"
	"github.com/campusware/gatepass/pkg/errors"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}

// NextID reserves a sequence id so the integrity tag can cover the
// entry's final id before the row exists.
func (r *auditRepository) NextID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.DB().GetContext(ctx, &id, `SELECT nextval('audit_entries_log_id_seq')`); err != nil {
		return 0, fmt.Errorf("failed to reserve audit entry id: %w", err)
	}
	return id, nil
}

func (r *auditRepository) Insert(ctx context.Context, entry *model.AuditEntry) error {
	query := `
        INSERT INTO audit_entries (
            log_id, actor_id, operation, description, origin, operation_time, integrity_tag, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`
	_, err := r.DB().ExecContext(ctx, query,
		entry.ID, entry.ActorID, entry.Operation, entry.Description,
		entry.Origin, entry.Timestamp, entry.IntegrityTag)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) GetByID(ctx context.Context, id int64) (*model.AuditEntry, error) {
	var entry model.AuditEntry
	query := `
        SELECT e.*, COALESCE(a.real_name, '') AS actor_name
        FROM audit_entries e
        LEFT JOIN admins a ON e.actor_id = a.admin_id
        WHERE e.log_id = $1`
	if err := r.DB().GetContext(ctx, &entry, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("audit entry")
		}
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}
	return &entry, nil
}

func (r *auditRepository) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error) {
	query := `
        SELECT e.*, COALESCE(a.real_name, '') AS actor_name
        FROM audit_entries e
        LEFT JOIN admins a ON e.actor_id = a.admin_id
        WHERE 1=1`
	var args []interface{}

	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		query += fmt.Sprintf(" AND e.actor_id = $%d", len(args))
	}
	if filter.Operation != "" {
		args = append(args, filter.Operation)
		query += fmt.Sprintf(" AND e.operation = $%d", len(args))
	}
	if !filter.Range.Start.IsZero() {
		args = append(args, filter.Range.Start)
		query += fmt.Sprintf(" AND e.operation_time >= $%d", len(args))
	}
	if !filter.Range.End.IsZero() {
		args = append(args, filter.Range.End)
		query += fmt.Sprintf(" AND e.operation_time <= $%d", len(args))
	}

	query += " ORDER BY e.operation_time DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var entries []*model.AuditEntry
	if err := r.DB().SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) Count(ctx context.Context, tr model.TimeRange) (int64, error) {
	query := `SELECT COUNT(*) FROM audit_entries WHERE 1=1`
	var args []interface{}

	if !tr.Start.IsZero() {
		args = append(args, tr.Start)
		query += fmt.Sprintf(" AND operation_time >= $%d", len(args))
	}
	if !tr.End.IsZero() {
		args = append(args, tr.End)
		query += fmt.Sprintf(" AND operation_time <= $%d", len(args))
	}

	var count int64
	if err := r.DB().GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return count, nil
}
