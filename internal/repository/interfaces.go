package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusware/gatepass/internal/model"
)

// AdminRepository is the credential row store. Single-row atomicity is
// all the core relies on; concurrent stale-counter writes are tolerated.
type AdminRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
	GetByLoginName(ctx context.Context, loginName string) (*model.Admin, error)
	List(ctx context.Context) ([]*model.Admin, error)
	UpdateLoginAttempts(ctx context.Context, id int64, attempts int) error
	Lock(ctx context.Context, id int64, until time.Time) error
	Unlock(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string, changedAt time.Time) error
	UpdateEnabled(ctx context.Context, id int64, enabled bool) error
}

// PermissionRepository stores delegated grants. Deactivate reports the
// number of rows it flipped so callers can tell a no-op revocation.
type PermissionRepository interface {
	HasActive(ctx context.Context, adminID int64, permType model.PermissionType) (bool, error)
	Insert(ctx context.Context, grant *model.DelegatedPermission) error
	Deactivate(ctx context.Context, adminID int64, permType model.PermissionType) (int64, error)
	ListByAdmin(ctx context.Context, adminID int64) ([]*model.DelegatedPermission, error)
}

// AuditRepository is append-only from the core's perspective: no
// update, no delete. NextID reserves the sequence id the integrity tag
// is computed over before the row is written.
type AuditRepository interface {
	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, entry *model.AuditEntry) error
	GetByID(ctx context.Context, id int64) (*model.AuditEntry, error)
	List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditEntry, error)
	Count(ctx context.Context, r model.TimeRange) (int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, reviewedBy int64, comment string) error
}

type DepartmentRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Department, error)
	List(ctx context.Context) ([]*model.Department, error)
}
