package model

import "time"

// PermissionType is the closed set of delegable permissions.
type PermissionType string

const (
	PermViewPublicAppointment   PermissionType = "VIEW_PUBLIC_APPOINTMENT"
	PermManagePublicAppointment PermissionType = "MANAGE_PUBLIC_APPOINTMENT"
	PermViewAllDepartments      PermissionType = "VIEW_ALL_DEPARTMENTS"
	PermManageDepartment        PermissionType = "MANAGE_DEPARTMENT"
)

func (p PermissionType) Valid() bool {
	switch p {
	case PermViewPublicAppointment, PermManagePublicAppointment,
		PermViewAllDepartments, PermManageDepartment:
		return true
	}
	return false
}

// DelegatedPermission is a grant narrower than the subject's role,
// issued by another privileged subject. Revocation flips Active to
// false instead of deleting the row, preserving the audit trail.
type DelegatedPermission struct {
	ID        int64          `json:"id" db:"permission_id"`
	AdminID   int64          `json:"admin_id" db:"admin_id"`
	Type      PermissionType `json:"type" db:"permission_type"`
	GrantedBy int64          `json:"granted_by" db:"granted_by"`
	GrantedAt time.Time      `json:"granted_at" db:"granted_at"`
	Active    bool           `json:"active" db:"active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
