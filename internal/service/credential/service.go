package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/repository"
	"github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/pkg/crypto"
	"github.com/campusware/gatepass/pkg/errors"
	"github.com/campusware/gatepass/pkg/logger"
	"github.com/campusware/gatepass/pkg/metrics"
)

// Notifier delivers out-of-band account notices. Failures are logged,
// never propagated.
type Notifier interface {
	NotifyLockout(ctx context.Context, admin *model.Admin, until time.Time) error
	NotifyExpiryWarning(ctx context.Context, admin *model.Admin, remainingDays int64) error
}

// VerifyResult is the structured verdict of a credential check. The
// caller builds the per-verdict audit entry from it, which keeps
// actor-attribution logic in one place; only the lockout transition is
// logged here, because it happens whether or not the caller records
// the failed attempt.
type VerifyResult struct {
	// Reason is empty on success.
	Reason errors.ErrorCode
	// SubjectID is set whenever the identifier resolved to an account.
	SubjectID *int64
	// Admin is set only on success.
	Admin *model.Admin
}

func (r VerifyResult) Authenticated() bool {
	return r.Reason == ""
}

// Service is the credential guard: login verification with
// brute-force lockout and the password-age policy.
type Service struct {
	repo     repository.AdminRepository
	auditor  *audit.Service
	notifier Notifier
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewService wires the credential guard. m may be nil when no metrics
// registry is running.
func NewService(repo repository.AdminRepository, auditor *audit.Service, notifier Notifier, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		auditor:  auditor,
		notifier: notifier,
		metrics:  m,
		log:      log.WithComponent("credential"),
		now:      time.Now,
	}
}

// Verify checks a login name and password and returns a structured
// verdict. origin is the caller's network address, used only for the
// lockout audit entry.
func (s *Service) Verify(ctx context.Context, loginName, password, origin string) (VerifyResult, error) {
	if loginName == "" || password == "" {
		return VerifyResult{}, errors.BadRequest("login name and password are required")
	}

	admin, err := s.repo.GetByLoginName(ctx, loginName)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			// Nothing to lock; no counter is touched.
			return VerifyResult{Reason: errors.CodeUnknownIdentifier}, nil
		}
		return VerifyResult{}, err
	}

	now := s.now()

	if !admin.Enabled {
		return VerifyResult{Reason: errors.CodeDisabled, SubjectID: &admin.ID}, nil
	}

	if admin.LockedAt(now) {
		return VerifyResult{Reason: errors.CodeLocked, SubjectID: &admin.ID}, nil
	}
	if admin.LockedUntil != nil {
		// Lock has expired; clear it before continuing.
		if err := s.repo.Unlock(ctx, admin.ID); err != nil {
			return VerifyResult{}, err
		}
		admin.LockedUntil = nil
		admin.LoginAttempts = 0
	}

	if !crypto.HashEqual(crypto.Hash(password), admin.PasswordHash) {
		if err := s.recordFailedAttempt(ctx, admin, origin, now); err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{Reason: errors.CodeWrongPassword, SubjectID: &admin.ID}, nil
	}

	// Success resets the counter and clears any lock.
	if err := s.repo.Unlock(ctx, admin.ID); err != nil {
		return VerifyResult{}, err
	}
	admin.LoginAttempts = 0
	admin.LockedUntil = nil

	return VerifyResult{SubjectID: &admin.ID, Admin: admin}, nil
}

func (s *Service) recordFailedAttempt(ctx context.Context, admin *model.Admin, origin string, now time.Time) error {
	attempts := admin.LoginAttempts + 1
	if attempts < model.MaxLoginAttempts {
		return s.repo.UpdateLoginAttempts(ctx, admin.ID, attempts)
	}

	// Threshold reached: lock for the fixed window, freeze the counter
	// at the threshold and record the lockout.
	until := now.Add(model.LockoutDuration)
	if err := s.repo.Lock(ctx, admin.ID, until); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.AccountLockouts.Inc()
	}

	desc := fmt.Sprintf("%d consecutive failed logins, account locked for %d minutes",
		model.MaxLoginAttempts, int(model.LockoutDuration.Minutes()))
	if _, err := s.auditor.Append(ctx, &admin.ID, model.OpAccountLocked, desc, origin, now); err != nil {
		s.log.Error(err, "failed to record lockout", "admin_id", admin.ID)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyLockout(ctx, admin, until); err != nil {
			s.log.Error(err, "failed to send lockout notice", "admin_id", admin.ID)
		}
	}
	return nil
}

// ChangePassword verifies the old password, enforces the strength
// policy and rotates the digest. Every outcome is audit-logged.
func (s *Service) ChangePassword(ctx context.Context, adminID int64, oldPassword, newPassword, origin string) error {
	if oldPassword == "" || newPassword == "" {
		return errors.BadRequest("old and new passwords are required")
	}

	now := s.now()

	if res := crypto.ValidatePasswordStrength(newPassword); !res.Valid {
		s.logPasswordChange(ctx, adminID, origin, now, false,
			"password policy violation: "+strings.Join(res.Violations, "; "))
		return errors.WeakPassword(res.Violations)
	}

	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	if !crypto.HashEqual(crypto.Hash(oldPassword), admin.PasswordHash) {
		s.logPasswordChange(ctx, adminID, origin, now, false, "wrong old password")
		return errors.WrongPassword()
	}

	newHash := crypto.Hash(newPassword)
	if crypto.HashEqual(newHash, admin.PasswordHash) {
		s.logPasswordChange(ctx, adminID, origin, now, false, "new password identical to current")
		return errors.SamePassword()
	}

	if err := s.repo.UpdatePassword(ctx, adminID, newHash, now); err != nil {
		return err
	}

	s.logPasswordChange(ctx, adminID, origin, now, true, "password changed")
	return nil
}

// ResetPassword sets a new password on behalf of an operator, with the
// same strength policy. The operator is the audit actor.
func (s *Service) ResetPassword(ctx context.Context, adminID int64, newPassword string, operatorID int64, origin string) error {
	if newPassword == "" {
		return errors.BadRequest("new password is required")
	}

	now := s.now()

	if res := crypto.ValidatePasswordStrength(newPassword); !res.Valid {
		desc := fmt.Sprintf("password reset for admin %d rejected: %s", adminID, strings.Join(res.Violations, "; "))
		s.appendEntry(ctx, &operatorID, model.OpPasswordReset, desc, origin, now)
		return errors.WeakPassword(res.Violations)
	}

	if _, err := s.repo.GetByID(ctx, adminID); err != nil {
		return err
	}

	if err := s.repo.UpdatePassword(ctx, adminID, crypto.Hash(newPassword), now); err != nil {
		return err
	}

	desc := fmt.Sprintf("password reset for admin %d", adminID)
	s.appendEntry(ctx, &operatorID, model.OpPasswordReset, desc, origin, now)
	return nil
}

// SetEnabled disables or re-enables an account. Accounts are never
// deleted.
func (s *Service) SetEnabled(ctx context.Context, adminID int64, enabled bool, operatorID int64, origin string) error {
	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEnabled(ctx, adminID, enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	desc := fmt.Sprintf("account %s %s", admin.LoginName, state)
	s.appendEntry(ctx, &operatorID, model.OpAccountStatus, desc, origin, s.now())
	return nil
}

// Get returns an admin by id for the handler layer.
func (s *Service) Get(ctx context.Context, adminID int64) (*model.Admin, error) {
	return s.repo.GetByID(ctx, adminID)
}

// CheckExpiryWarning sends the expiry notice when the password has
// entered the warning window. Best effort.
func (s *Service) CheckExpiryWarning(ctx context.Context, admin *model.Admin) {
	if s.notifier == nil {
		return
	}
	now := s.now()
	if !NeedsExpiryWarning(admin, now) {
		return
	}
	if err := s.notifier.NotifyExpiryWarning(ctx, admin, PasswordRemainingDays(admin, now)); err != nil {
		s.log.Error(err, "failed to send expiry warning", "admin_id", admin.ID)
	}
}

func (s *Service) logPasswordChange(ctx context.Context, adminID int64, origin string, at time.Time, success bool, details string) {
	status := "failed"
	if success {
		status = "succeeded"
	}
	s.appendEntry(ctx, &adminID, model.OpPasswordChange,
		fmt.Sprintf("password change %s: %s", status, details), origin, at)
}

func (s *Service) appendEntry(ctx context.Context, actorID *int64, operation, description, origin string, at time.Time) {
	if _, err := s.auditor.Append(ctx, actorID, operation, description, origin, at); err != nil {
		s.log.Error(err, "failed to append audit entry", "operation", operation)
	}
}

// Password-age policy. A credential that has never changed its
// password is always considered expired.

func IsPasswordExpired(admin *model.Admin, now time.Time) bool {
	if admin.LastPasswordChange == nil {
		return true
	}
	days := int64(now.Sub(*admin.LastPasswordChange).Hours() / 24)
	return days >= model.PasswordMaxAgeDays
}

// PasswordRemainingDays returns days until expiry; negative when
// already expired, -1 when the password was never changed.
func PasswordRemainingDays(admin *model.Admin, now time.Time) int64 {
	if admin.LastPasswordChange == nil {
		return -1
	}
	days := int64(now.Sub(*admin.LastPasswordChange).Hours() / 24)
	return model.PasswordMaxAgeDays - days
}

func NeedsExpiryWarning(admin *model.Admin, now time.Time) bool {
	remaining := PasswordRemainingDays(admin, now)
	return remaining > 0 && remaining <= model.PasswordWarnDays
}
