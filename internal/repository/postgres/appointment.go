package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/repository"
	"github.com/campusware/gatepass/pkg/errors"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	query := `
        INSERT INTO appointments (
            id, type, campus, visit_at, status, purpose, dept_id,
            name_encrypted, name_masked, id_card_encrypted, id_card_masked,
            phone_encrypted, phone_masked, review_comment, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())`
	_, err := r.DB().ExecContext(ctx, query,
		appt.ID, appt.Type, appt.Campus, appt.VisitAt, appt.Status, appt.Purpose, appt.DeptID,
		appt.NameEncrypted, appt.NameMasked, appt.IDCardEncrypted, appt.IDCardMasked,
		appt.PhoneEncrypted, appt.PhoneMasked, appt.ReviewComment)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appt model.Appointment
	query := `SELECT * FROM appointments WHERE id = $1`
	if err := r.DB().GetContext(ctx, &appt, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE 1=1`
	var args []interface{}

	if filter.Type != "" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.DeptID != nil {
		args = append(args, *filter.DeptID)
		query += fmt.Sprintf(" AND dept_id = $%d", len(args))
	}
	if !filter.Range.Start.IsZero() {
		args = append(args, filter.Range.Start)
		query += fmt.Sprintf(" AND visit_at >= $%d", len(args))
	}
	if !filter.Range.End.IsZero() {
		args = append(args, filter.Range.End)
		query += fmt.Sprintf(" AND visit_at <= $%d", len(args))
	}

	query += " ORDER BY visit_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var appts []*model.Appointment
	if err := r.DB().SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reviewedBy int64, comment string) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
            UPDATE appointments
            SET status = $2, reviewed_by = $3, review_comment = $4, updated_at = NOW()
            WHERE id = $1`
		res, err := tx.ExecContext(ctx, query, id, status, reviewedBy, comment)
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.NotFound("appointment")
		}
		return nil
	})
}
