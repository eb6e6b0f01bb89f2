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

type departmentRepository struct {
	BaseRepository
}

func NewDepartmentRepository(db *sqlx.DB) repository.DepartmentRepository {
	return &departmentRepository{NewBaseRepository(db)}
}

func (r *departmentRepository) GetByID(ctx context.Context, id int64) (*model.Department, error) {
	var dept model.Department
	query := `SELECT * FROM departments WHERE dept_id = $1`
	if err := r.DB().GetContext(ctx, &dept, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("department")
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]*model.Department, error) {
	var depts []*model.Department
	query := `SELECT * FROM departments ORDER BY dept_id`
	if err := r.DB().SelectContext(ctx, &depts, query); err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return depts, nil
}
