package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the closed set of workflow states.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusApproved  AppointmentStatus = "APPROVED"
	StatusRejected  AppointmentStatus = "REJECTED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// AppointmentType distinguishes public visitors from official guests.
type AppointmentType string

const (
	AppointmentPublic   AppointmentType = "PUBLIC"
	AppointmentOfficial AppointmentType = "OFFICIAL"
)

// Appointment is a campus-entry request. PII is persisted only as
// ciphertext plus a write-time display mask; plaintext never reaches
// the store.
type Appointment struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	Type            AppointmentType   `json:"type" db:"type"`
	Campus          string            `json:"campus" db:"campus"`
	VisitAt         time.Time         `json:"visit_at" db:"visit_at"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Purpose         string            `json:"purpose" db:"purpose"`
	DeptID          *int64            `json:"dept_id" db:"dept_id"`
	NameEncrypted   string            `json:"-" db:"name_encrypted"`
	NameMasked      string            `json:"name_masked" db:"name_masked"`
	IDCardEncrypted string            `json:"-" db:"id_card_encrypted"`
	IDCardMasked    string            `json:"id_card_masked" db:"id_card_masked"`
	PhoneEncrypted  string            `json:"-" db:"phone_encrypted"`
	PhoneMasked     string            `json:"phone_masked" db:"phone_masked"`
	ReviewedBy      *int64            `json:"reviewed_by" db:"reviewed_by"`
	ReviewComment   string            `json:"review_comment" db:"review_comment"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// AppointmentFilter bounds list queries.
type AppointmentFilter struct {
	Type   AppointmentType
	Status AppointmentStatus
	DeptID *int64
	Range  TimeRange
	Limit  int
	Offset int
}

// CreateAppointmentRequest carries visitor-submitted plaintext PII;
// it exists only in memory on the write path.
type CreateAppointmentRequest struct {
	Type    AppointmentType `json:"type" binding:"required,oneof=PUBLIC OFFICIAL"`
	Campus  string          `json:"campus" binding:"required"`
	VisitAt time.Time       `json:"visit_at" binding:"required,future"`
	Purpose string          `json:"purpose"`
	DeptID  *int64          `json:"dept_id"`
	Name    string          `json:"name" binding:"required"`
	IDCard  string          `json:"id_card" binding:"required"`
	Phone   string          `json:"phone" binding:"required"`
}
