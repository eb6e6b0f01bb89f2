package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/repository"
	"github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/internal/service/permission"
	"github.com/campusware/gatepass/pkg/crypto"
	"github.com/campusware/gatepass/pkg/errors"
	"github.com/campusware/gatepass/pkg/logger"
)

// PII is the decrypted view of an appointment's personal fields,
// produced only for authorized viewers. Fields that fail to decrypt
// degrade to their ciphertext.
type PII struct {
	Name   string `json:"name"`
	IDCard string `json:"id_card"`
	Phone  string `json:"phone"`
}

// Service is the appointment workflow that composes the security
// core: every transition is permission-checked and produces exactly
// one audit entry.
type Service struct {
	repo     repository.AppointmentRepository
	resolver *permission.Service
	auditor  *audit.Service
	vault    *crypto.Vault
	mask     crypto.MaskPolicy
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, resolver *permission.Service, auditor *audit.Service, vault *crypto.Vault, mask crypto.MaskPolicy, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		auditor:  auditor,
		vault:    vault,
		mask:     mask,
		log:      log.WithComponent("appointment"),
		now:      time.Now,
	}
}

// Create encrypts and masks the submitted PII and persists the
// appointment as pending. Plaintext never reaches the store.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if req.Type == model.AppointmentOfficial && req.DeptID == nil {
		return nil, errors.BadRequest("official appointments require a department")
	}

	nameEnc, err := s.vault.Encrypt(req.Name)
	if err != nil {
		return nil, err
	}
	idEnc, err := s.vault.Encrypt(req.IDCard)
	if err != nil {
		return nil, err
	}
	phoneEnc, err := s.vault.Encrypt(req.Phone)
	if err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		ID:              uuid.New(),
		Type:            req.Type,
		Campus:          req.Campus,
		VisitAt:         req.VisitAt,
		Status:          model.StatusPending,
		Purpose:         req.Purpose,
		DeptID:          req.DeptID,
		NameEncrypted:   nameEnc,
		NameMasked:      s.mask.Name(req.Name),
		IDCardEncrypted: idEnc,
		IDCardMasked:    s.mask.ID(req.IDCard),
		PhoneEncrypted:  phoneEnc,
		PhoneMasked:     s.mask.Phone(req.Phone),
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.log.Info("appointment created",
		"id", appt.ID.String(), "type", string(appt.Type), "campus", appt.Campus)
	return appt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Detail returns one appointment after checking the viewer may read
// rows of its type and department.
func (s *Service) Detail(ctx context.Context, actorID int64, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeView(ctx, actorID, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// List returns appointments narrowed to the viewer's scope. The scope
// comes from the resolver, not the filter: an explicit filter outside
// the scope is rejected, an open filter is shrunk to it.
func (s *Service) List(ctx context.Context, actorID int64, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	scope, err := s.resolver.ViewScope(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if filter.Type == model.AppointmentPublic && !scope.Public {
		return nil, errors.NoDelegatedGrant()
	}
	if filter.DeptID != nil && !scope.AllDepartments &&
		(scope.DeptID == nil || *scope.DeptID != *filter.DeptID) {
		return nil, errors.NotOwnDepartment()
	}
	if filter.Type == model.AppointmentOfficial && !scope.AllDepartments {
		if scope.DeptID == nil {
			return nil, errors.NotOwnDepartment()
		}
		filter.DeptID = scope.DeptID
	}

	if scope.AllDepartments || filter.Type != "" {
		return s.repo.List(ctx, filter)
	}

	// Untyped query by a scoped viewer: fetch each slice the scope
	// allows instead of one query that would leak the rest.
	var out []*model.Appointment
	if scope.DeptID != nil {
		official := filter
		official.Type = model.AppointmentOfficial
		official.DeptID = scope.DeptID
		rows, err := s.repo.List(ctx, official)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	if scope.Public {
		public := filter
		public.Type = model.AppointmentPublic
		rows, err := s.repo.List(ctx, public)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Reveal decrypts the PII of one appointment for an authorized
// viewer. An undecryptable field falls back to its ciphertext rather
// than failing the request.
func (s *Service) Reveal(ctx context.Context, actorID int64, appt *model.Appointment) (*PII, error) {
	if err := s.authorizeView(ctx, actorID, appt); err != nil {
		return nil, err
	}
	return &PII{
		Name:   s.vault.DecryptOrFallback(appt.NameEncrypted),
		IDCard: s.vault.DecryptOrFallback(appt.IDCardEncrypted),
		Phone:  s.vault.DecryptOrFallback(appt.PhoneEncrypted),
	}, nil
}

// Approve moves a pending appointment to approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actorID int64, comment, origin string) error {
	return s.transition(ctx, id, actorID, comment, origin,
		model.StatusPending, model.StatusApproved, model.OpApproveAppointment)
}

// Reject moves a pending appointment to rejected.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actorID int64, comment, origin string) error {
	return s.transition(ctx, id, actorID, comment, origin,
		model.StatusPending, model.StatusRejected, model.OpRejectAppointment)
}

// Complete closes out an approved appointment after the visit.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actorID int64, comment, origin string) error {
	return s.transition(ctx, id, actorID, comment, origin,
		model.StatusApproved, model.StatusCompleted, model.OpCompleteAppointment)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, actorID int64, comment, origin string, from, to model.AppointmentStatus, operation string) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.Status != from {
		return errors.BadRequest(fmt.Sprintf("appointment is %s, expected %s", appt.Status, from))
	}

	if err := s.authorizeManage(ctx, actorID, appt); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, to, actorID, comment); err != nil {
		return err
	}

	desc := fmt.Sprintf("appointment %s (%s, %s) moved to %s", id, appt.Type, appt.NameMasked, to)
	if _, err := s.auditor.Append(ctx, &actorID, operation, desc, origin, s.now()); err != nil {
		s.log.Error(err, "failed to record transition", "appointment_id", id.String())
	}
	return nil
}

func (s *Service) authorizeManage(ctx context.Context, actorID int64, appt *model.Appointment) error {
	if appt.Type == model.AppointmentOfficial {
		deptID := int64(0)
		if appt.DeptID != nil {
			deptID = *appt.DeptID
		}
		ok, err := s.resolver.CanManageOfficialAppointment(ctx, actorID, deptID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NotOwnDepartment()
		}
		return nil
	}

	ok, err := s.resolver.CanManagePublicAppointment(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.InsufficientRole()
	}
	return nil
}

func (s *Service) authorizeView(ctx context.Context, actorID int64, appt *model.Appointment) error {
	if appt.Type == model.AppointmentPublic {
		ok, err := s.resolver.CanViewPublicAppointments(ctx, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NoDelegatedGrant()
		}
		return nil
	}

	deptID := int64(0)
	if appt.DeptID != nil {
		deptID = *appt.DeptID
	}
	ok, err := s.resolver.CanAccessDepartment(ctx, actorID, deptID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotOwnDepartment()
	}
	return nil
}
