package model

import (
	"time"
)

// AdminRole is the closed set of staff roles. Roles are assigned at
// provisioning and never changed by the security core.
type AdminRole string

const (
	RoleSystemAdmin     AdminRole = "SYSTEM_ADMIN"
	RoleDepartmentAdmin AdminRole = "DEPARTMENT_ADMIN"
	RoleReceptionAdmin  AdminRole = "RECEPTION_ADMIN"
	RoleAuditAdmin      AdminRole = "AUDIT_ADMIN"
)

// Valid reports whether the role is one of the closed set.
func (r AdminRole) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleDepartmentAdmin, RoleReceptionAdmin, RoleAuditAdmin:
		return true
	}
	return false
}

// Credential lockout and password-age policy.
const (
	MaxLoginAttempts   = 5
	LockoutDuration    = 30 * time.Minute
	PasswordMaxAgeDays = 90
	PasswordWarnDays   = 7
)

// Admin is a staff credential. Accounts are never deleted, only
// disabled. The counter and lock fields are mutated exclusively by the
// credential service.
type Admin struct {
	ID                 int64      `json:"id" db:"admin_id"`
	LoginName          string     `json:"login_name" db:"login_name"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	RealName           string     `json:"real_name" db:"real_name"`
	Email              string     `json:"email" db:"email"`
	Role               AdminRole  `json:"role" db:"role"`
	DeptID             *int64     `json:"dept_id" db:"dept_id"`
	Enabled            bool       `json:"enabled" db:"enabled"`
	LoginAttempts      int        `json:"-" db:"login_attempts"`
	LockedUntil        *time.Time `json:"-" db:"locked_until"`
	LastPasswordChange *time.Time `json:"last_password_change" db:"last_password_change"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// LockedAt reports whether the account is locked at the given instant.
func (a *Admin) LockedAt(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// Department anchors department-scoped authorization checks and
// official appointments.
type Department struct {
	ID        int64     `json:"id" db:"dept_id"`
	Name      string    `json:"name" db:"name"`
	Contact   string    `json:"contact" db:"contact"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
