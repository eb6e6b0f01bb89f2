package credential

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/pkg/crypto"
	"github.com/campusware/gatepass/pkg/errors"
	"github.com/campusware/gatepass/pkg/logger"
	"github.com/campusware/gatepass/pkg/metrics"
)

const (
	testPassword  = "Gx7#mKp2!w"
	testPassword2 = "Hz8#nLq3!v"
)

type fakeAdminRepo struct {
	admins map[int64]*model.Admin
}

func newFakeAdminRepo(admins ...*model.Admin) *fakeAdminRepo {
	r := &fakeAdminRepo{admins: make(map[int64]*model.Admin)}
	for _, a := range admins {
		r.admins[a.ID] = a
	}
	return r
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	a, ok := r.admins[id]
	if !ok {
		return nil, errors.NotFound("admin")
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAdminRepo) GetByLoginName(_ context.Context, loginName string) (*model.Admin, error) {
	for _, a := range r.admins {
		if a.LoginName == loginName {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errors.NotFound("admin")
}

func (r *fakeAdminRepo) List(_ context.Context) ([]*model.Admin, error) {
	out := make([]*model.Admin, 0, len(r.admins))
	for _, a := range r.admins {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAdminRepo) UpdateLoginAttempts(_ context.Context, id int64, attempts int) error {
	r.admins[id].LoginAttempts = attempts
	return nil
}

func (r *fakeAdminRepo) Lock(_ context.Context, id int64, until time.Time) error {
	a := r.admins[id]
	a.LockedUntil = &until
	a.LoginAttempts = model.MaxLoginAttempts
	return nil
}

func (r *fakeAdminRepo) Unlock(_ context.Context, id int64) error {
	a := r.admins[id]
	a.LockedUntil = nil
	a.LoginAttempts = 0
	return nil
}

func (r *fakeAdminRepo) UpdatePassword(_ context.Context, id int64, hash string, changedAt time.Time) error {
	a := r.admins[id]
	a.PasswordHash = hash
	a.LastPasswordChange = &changedAt
	return nil
}

func (r *fakeAdminRepo) UpdateEnabled(_ context.Context, id int64, enabled bool) error {
	r.admins[id].Enabled = enabled
	return nil
}

type fakeAuditRepo struct {
	nextID  int64
	entries []*model.AuditEntry
}

func (r *fakeAuditRepo) NextID(_ context.Context) (int64, error) {
	r.nextID++
	return r.nextID, nil
}

func (r *fakeAuditRepo) Insert(_ context.Context, entry *model.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) GetByID(_ context.Context, id int64) (*model.AuditEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errors.NotFound("audit entry")
}

func (r *fakeAuditRepo) List(_ context.Context, _ model.AuditFilter) ([]*model.AuditEntry, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) Count(_ context.Context, _ model.TimeRange) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) byOperation(op string) []*model.AuditEntry {
	var out []*model.AuditEntry
	for _, e := range r.entries {
		if e.Operation == op {
			out = append(out, e)
		}
	}
	return out
}

type fakeNotifier struct {
	lockouts int
	warnings int
}

func (n *fakeNotifier) NotifyLockout(context.Context, *model.Admin, time.Time) error {
	n.lockouts++
	return nil
}

func (n *fakeNotifier) NotifyExpiryWarning(context.Context, *model.Admin, int64) error {
	n.warnings++
	return nil
}

func testAdmin() *model.Admin {
	changed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &model.Admin{
		ID:                 1,
		LoginName:          "alice",
		PasswordHash:       crypto.Hash(testPassword),
		RealName:           "Alice Chen",
		Role:               model.RoleReceptionAdmin,
		Enabled:            true,
		LastPasswordChange: &changed,
	}
}

func newTestService(repo *fakeAdminRepo, notifier Notifier, now time.Time) (*Service, *fakeAuditRepo) {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})
	auditRepo := &fakeAuditRepo{}
	auditor := audit.NewService(auditRepo, []byte("test-hmac-key"), nil, log)
	svc := NewService(repo, auditor, notifier, nil, log)
	svc.now = func() time.Time { return now }
	return svc, auditRepo
}

func TestVerifySuccess(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	svc, _ := newTestService(repo, nil, now)

	result, err := svc.Verify(context.Background(), "alice", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Authenticated())
	require.NotNil(t, result.Admin)
	assert.Equal(t, int64(1), result.Admin.ID)
}

func TestVerifyUnknownLoginName(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	svc, _ := newTestService(repo, nil, now)

	result, err := svc.Verify(context.Background(), "nobody", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, errors.CodeUnknownIdentifier, result.Reason)
	assert.Nil(t, result.SubjectID)
	// No account, so no counter was touched anywhere.
	assert.Equal(t, 0, repo.admins[1].LoginAttempts)
}

func TestVerifyDisabledAccount(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	admin := testAdmin()
	admin.Enabled = false
	repo := newFakeAdminRepo(admin)
	svc, _ := newTestService(repo, nil, now)

	result, err := svc.Verify(context.Background(), "alice", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, errors.CodeDisabled, result.Reason)
}

func TestVerifyLockoutAtThreshold(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	notifier := &fakeNotifier{}
	svc, auditRepo := newTestService(repo, notifier, now)

	for i := 1; i <= model.MaxLoginAttempts; i++ {
		result, err := svc.Verify(context.Background(), "alice", "wrong-password", "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, errors.CodeWrongPassword, result.Reason)

		if i < model.MaxLoginAttempts {
			assert.Equal(t, i, repo.admins[1].LoginAttempts, "attempt %d", i)
			assert.Nil(t, repo.admins[1].LockedUntil, "attempt %d", i)
		}
	}

	// The fifth failure locks for the full window and freezes the
	// counter at the threshold.
	require.NotNil(t, repo.admins[1].LockedUntil)
	assert.Equal(t, now.Add(model.LockoutDuration), *repo.admins[1].LockedUntil)
	assert.Equal(t, model.MaxLoginAttempts, repo.admins[1].LoginAttempts)
	assert.Equal(t, 1, notifier.lockouts)
	require.Len(t, auditRepo.byOperation(model.OpAccountLocked), 1)
}

func TestVerifyLockoutCountsMetric(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	svc, _ := newTestService(repo, nil, now)
	svc.metrics = metrics.NewMetrics("credential_test")

	for i := 0; i < model.MaxLoginAttempts; i++ {
		_, err := svc.Verify(context.Background(), "alice", "wrong-password", "10.0.0.1")
		require.NoError(t, err)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.AccountLockouts))
}

func TestVerifyLockedRejectsCorrectPassword(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	admin := testAdmin()
	until := now.Add(10 * time.Minute)
	admin.LockedUntil = &until
	admin.LoginAttempts = model.MaxLoginAttempts
	repo := newFakeAdminRepo(admin)
	svc, _ := newTestService(repo, nil, now)

	// Correct password makes no difference while the lock holds.
	result, err := svc.Verify(context.Background(), "alice", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, errors.CodeLocked, result.Reason)
	assert.Equal(t, model.MaxLoginAttempts, repo.admins[1].LoginAttempts)
}

func TestVerifyExpiredLockClears(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	admin := testAdmin()
	until := now.Add(-time.Minute)
	admin.LockedUntil = &until
	admin.LoginAttempts = model.MaxLoginAttempts
	repo := newFakeAdminRepo(admin)
	svc, _ := newTestService(repo, nil, now)

	result, err := svc.Verify(context.Background(), "alice", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Authenticated())
	assert.Nil(t, repo.admins[1].LockedUntil)
	assert.Equal(t, 0, repo.admins[1].LoginAttempts)
}

func TestVerifySuccessResetsCounter(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	admin := testAdmin()
	admin.LoginAttempts = 3
	repo := newFakeAdminRepo(admin)
	svc, _ := newTestService(repo, nil, now)

	result, err := svc.Verify(context.Background(), "alice", testPassword, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Authenticated())
	assert.Equal(t, 0, repo.admins[1].LoginAttempts)
}

func TestChangePassword(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		old      string
		new      string
		wantCode errors.ErrorCode
	}{
		{"weak new password", testPassword, "short", errors.CodeWeakPassword},
		{"wrong old password", "not-the-password", testPassword2, errors.CodeWrongPassword},
		{"same as current", testPassword, testPassword, errors.CodeSamePassword},
		{"success", testPassword, testPassword2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeAdminRepo(testAdmin())
			svc, auditRepo := newTestService(repo, nil, now)

			err := svc.ChangePassword(context.Background(), 1, tt.old, tt.new, "10.0.0.1")
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.True(t, crypto.HashEqual(crypto.Hash(tt.new), repo.admins[1].PasswordHash))
				assert.Equal(t, now, *repo.admins[1].LastPasswordChange)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				assert.True(t, crypto.HashEqual(crypto.Hash(testPassword), repo.admins[1].PasswordHash))
			}
			// Every outcome leaves exactly one trace.
			assert.Len(t, auditRepo.byOperation(model.OpPasswordChange), 1)
		})
	}
}

func TestChangePasswordWeakBeforeOldCheck(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	svc, _ := newTestService(repo, nil, now)

	// Strength is checked first, even when the old password is wrong.
	err := svc.ChangePassword(context.Background(), 1, "wrong-old", "short", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeWeakPassword, errors.CodeOf(err))
}

func TestResetPassword(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	svc, auditRepo := newTestService(repo, nil, now)

	err := svc.ResetPassword(context.Background(), 1, testPassword2, 99, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, crypto.HashEqual(crypto.Hash(testPassword2), repo.admins[1].PasswordHash))

	entries := auditRepo.byOperation(model.OpPasswordReset)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ActorID)
	assert.Equal(t, int64(99), *entries[0].ActorID)
}

func TestSetEnabled(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeAdminRepo(testAdmin())
	svc, auditRepo := newTestService(repo, nil, now)

	require.NoError(t, svc.SetEnabled(context.Background(), 1, false, 99, "10.0.0.1"))
	assert.False(t, repo.admins[1].Enabled)

	require.NoError(t, svc.SetEnabled(context.Background(), 1, true, 99, "10.0.0.1"))
	assert.True(t, repo.admins[1].Enabled)

	assert.Len(t, auditRepo.byOperation(model.OpAccountStatus), 2)
}

func TestPasswordAgePolicy(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	aged := func(days int) *model.Admin {
		a := testAdmin()
		changed := now.AddDate(0, 0, -days)
		a.LastPasswordChange = &changed
		return a
	}
	never := testAdmin()
	never.LastPasswordChange = nil

	tests := []struct {
		name          string
		admin         *model.Admin
		expired       bool
		warning       bool
		remainingDays int64
	}{
		{"fresh", aged(1), false, false, 89},
		{"warning window", aged(85), false, true, 5},
		{"last day", aged(89), false, true, 1},
		{"expired exactly", aged(90), true, false, 0},
		{"long expired", aged(120), true, false, -30},
		{"never changed", never, true, false, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsPasswordExpired(tt.admin, now))
			assert.Equal(t, tt.warning, NeedsExpiryWarning(tt.admin, now))
			assert.Equal(t, tt.remainingDays, PasswordRemainingDays(tt.admin, now))
		})
	}
}

func TestCheckExpiryWarningNotifies(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	admin := testAdmin()
	changed := now.AddDate(0, 0, -85)
	admin.LastPasswordChange = &changed

	repo := newFakeAdminRepo(admin)
	notifier := &fakeNotifier{}
	svc, _ := newTestService(repo, notifier, now)

	svc.CheckExpiryWarning(context.Background(), admin)
	assert.Equal(t, 1, notifier.warnings)

	fresh := testAdmin()
	changedFresh := now.AddDate(0, 0, -1)
	fresh.LastPasswordChange = &changedFresh
	svc.CheckExpiryWarning(context.Background(), fresh)
	assert.Equal(t, 1, notifier.warnings)
}
