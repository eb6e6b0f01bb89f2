package model

import (
	"fmt"
	"strconv"
	"time"
)

// Operation labels used across the services.
const (
	OpLogin               = "login"
	OpLoginFailed         = "login_failed"
	OpAccountLocked       = "account_locked"
	OpAccountStatus       = "account_status_change"
	OpPasswordChange      = "password_change"
	OpPasswordReset       = "password_reset"
	OpPermissionGrant     = "permission_grant"
	OpPermissionRevoke    = "permission_revoke"
	OpApproveAppointment  = "appointment_approve"
	OpRejectAppointment   = "appointment_reject"
	OpCompleteAppointment = "appointment_complete"
)

// canonicalTimeLayout fixes the timestamp rendering inside the
// canonical content; the tag is computed over this exact byte string.
const canonicalTimeLayout = "2006-01-02 15:04:05"

// AuditEntry is an append-only log record. ActorID is nil when the
// actor could not be identified, e.g. an unknown login name. Entries
// are immutable once written.
type AuditEntry struct {
	ID           int64     `json:"id" db:"log_id"`
	ActorID      *int64    `json:"actor_id" db:"actor_id"`
	Operation    string    `json:"operation" db:"operation"`
	Description  string    `json:"description" db:"description"`
	Origin       string    `json:"origin" db:"origin"`
	Timestamp    time.Time `json:"timestamp" db:"operation_time"`
	IntegrityTag string    `json:"integrity_tag" db:"integrity_tag"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// ActorName is resolved by the read side, never part of the tag.
	ActorName string `json:"actor_name,omitempty" db:"actor_name"`
}

// CanonicalContent is the exact serialization the integrity tag covers.
// Field order and rendering must never change for stored entries to
// keep verifying.
func (e *AuditEntry) CanonicalContent() string {
	actor := ""
	if e.ActorID != nil {
		actor = strconv.FormatInt(*e.ActorID, 10)
	}
	return fmt.Sprintf("LogId:%d,AdminId:%s,Operation:%s,Description:%s,IpAddress:%s,OperationTime:%s",
		e.ID, actor, e.Operation, e.Description, e.Origin,
		e.Timestamp.UTC().Format(canonicalTimeLayout))
}

// AuditFilter bounds ledger queries.
type AuditFilter struct {
	ActorID   *int64
	Operation string
	Range     TimeRange
	Limit     int
	Offset    int
}
