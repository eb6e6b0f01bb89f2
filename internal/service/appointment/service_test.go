package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusware/gatepass/internal/model"
	"github.com/campusware/gatepass/internal/service/audit"
	"github.com/campusware/gatepass/internal/service/permission"
	"github.com/campusware/gatepass/pkg/crypto"
	"github.com/campusware/gatepass/pkg/errors"
	"github.com/campusware/gatepass/pkg/logger"
)

type fakeAdminRepo struct {
	admins map[int64]*model.Admin
}

func (r *fakeAdminRepo) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	a, ok := r.admins[id]
	if !ok {
		return nil, errors.NotFound("admin")
	}
	return a, nil
}

func (r *fakeAdminRepo) GetByLoginName(_ context.Context, _ string) (*model.Admin, error) {
	return nil, errors.NotFound("admin")
}

func (r *fakeAdminRepo) List(_ context.Context) ([]*model.Admin, error)              { return nil, nil }
func (r *fakeAdminRepo) UpdateLoginAttempts(_ context.Context, _ int64, _ int) error { return nil }
func (r *fakeAdminRepo) Lock(_ context.Context, _ int64, _ time.Time) error          { return nil }
func (r *fakeAdminRepo) Unlock(_ context.Context, _ int64) error                     { return nil }
func (r *fakeAdminRepo) UpdateEnabled(_ context.Context, _ int64, _ bool) error      { return nil }
func (r *fakeAdminRepo) UpdatePassword(_ context.Context, _ int64, _ string, _ time.Time) error {
	return nil
}

type fakeGrantRepo struct {
	grants []*model.DelegatedPermission
}

func (r *fakeGrantRepo) HasActive(_ context.Context, adminID int64, permType model.PermissionType) (bool, error) {
	for _, g := range r.grants {
		if g.AdminID == adminID && g.Type == permType && g.Active {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGrantRepo) Insert(_ context.Context, grant *model.DelegatedPermission) error {
	r.grants = append(r.grants, grant)
	return nil
}

func (r *fakeGrantRepo) Deactivate(_ context.Context, _ int64, _ model.PermissionType) (int64, error) {
	return 0, nil
}

func (r *fakeGrantRepo) ListByAdmin(_ context.Context, _ int64) ([]*model.DelegatedPermission, error) {
	return nil, nil
}

type fakeAuditRepo struct {
	nextID  int64
	entries []*model.AuditEntry
}

func (r *fakeAuditRepo) NextID(_ context.Context) (int64, error) {
	r.nextID++
	return r.nextID, nil
}
func (r *fakeAuditRepo) Insert(_ context.Context, e *model.AuditEntry) error {
	r.entries = append(r.entries, e)
	return nil
}
func (r *fakeAuditRepo) GetByID(_ context.Context, _ int64) (*model.AuditEntry, error) {
	return nil, errors.NotFound("audit entry")
}
func (r *fakeAuditRepo) List(_ context.Context, _ model.AuditFilter) ([]*model.AuditEntry, error) {
	return r.entries, nil
}
func (r *fakeAuditRepo) Count(_ context.Context, _ model.TimeRange) (int64, error) {
	return int64(len(r.entries)), nil
}

type fakeApptRepo struct {
	appts map[uuid.UUID]*model.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeApptRepo) Create(_ context.Context, appt *model.Appointment) error {
	r.appts[appt.ID] = appt
	return nil
}

func (r *fakeApptRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appts[id]
	if !ok {
		return nil, errors.NotFound("appointment")
	}
	cp := *a
	return &cp, nil
}

func (r *fakeApptRepo) List(_ context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	out := make([]*model.Appointment, 0, len(r.appts))
	for _, a := range r.appts {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.DeptID != nil && (a.DeptID == nil || *a.DeptID != *filter.DeptID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeApptRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus, reviewedBy int64, comment string) error {
	a, ok := r.appts[id]
	if !ok {
		return errors.NotFound("appointment")
	}
	a.Status = status
	a.ReviewedBy = &reviewedBy
	a.ReviewComment = comment
	return nil
}

const (
	testKey = "0123456789abcdef"
	testIV  = "fedcba9876543210"
)

func deptID(id int64) *int64 { return &id }

type fixture struct {
	svc       *Service
	repo      *fakeApptRepo
	resolver  *permission.Service
	grants    *fakeGrantRepo
	auditRepo *fakeAuditRepo
	vault     *crypto.Vault
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel})

	admins := map[int64]*model.Admin{
		1: {ID: 1, Role: model.RoleSystemAdmin},
		2: {ID: 2, Role: model.RoleDepartmentAdmin, DeptID: deptID(10)},
		3: {ID: 3, Role: model.RoleReceptionAdmin},
		4: {ID: 4, Role: model.RoleAuditAdmin},
	}

	grantRepo := &fakeGrantRepo{}
	auditRepo := &fakeAuditRepo{}
	auditor := audit.NewService(auditRepo, []byte("test-key"), nil, log)
	resolver := permission.NewService(&fakeAdminRepo{admins: admins}, grantRepo, auditor, nil, log)

	vault, err := crypto.NewVault([]byte(testKey), []byte(testIV))
	require.NoError(t, err)

	repo := newFakeApptRepo()
	svc := NewService(repo, resolver, auditor, vault, crypto.DefaultMaskPolicy(), log)

	return &fixture{svc: svc, repo: repo, resolver: resolver, grants: grantRepo, auditRepo: auditRepo, vault: vault}
}

func createRequest(apptType model.AppointmentType, dept *int64) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		Type:    apptType,
		Campus:  "East",
		VisitAt: time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC),
		Purpose: "library visit",
		DeptID:  dept,
		Name:    "Zhang San",
		IDCard:  "110101199003078888",
		Phone:   "13812345678",
	}
}

func TestCreateEncryptsAndMasks(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.Create(context.Background(), createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)

	stored := f.repo.appts[appt.ID]
	require.NotNil(t, stored)
	assert.Equal(t, model.StatusPending, stored.Status)

	// Plaintext appears nowhere in the stored row.
	assert.NotContains(t, stored.NameEncrypted, "Zhang")
	assert.NotContains(t, stored.IDCardEncrypted, "1990")
	assert.Equal(t, "Z*******n", stored.NameMasked)
	assert.Equal(t, "110***********8888", stored.IDCardMasked)
	assert.Equal(t, "138****5678", stored.PhoneMasked)

	// The ciphertext round-trips with the same vault.
	name, err := f.vault.Decrypt(stored.NameEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "Zhang San", name)
}

func TestCreateOfficialRequiresDepartment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), createRequest(model.AppointmentOfficial, nil))
	require.Error(t, err)
	assert.Equal(t, errors.CodeBadRequest, errors.CodeOf(err))
}

func TestApproveTransitions(t *testing.T) {
	f := newFixture(t)
	appt, err := f.svc.Create(context.Background(), createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)

	// Reception admin approves a public appointment.
	require.NoError(t, f.svc.Approve(context.Background(), appt.ID, 3, "ok", "10.0.0.1"))

	stored := f.repo.appts[appt.ID]
	assert.Equal(t, model.StatusApproved, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, int64(3), *stored.ReviewedBy)
	assert.Equal(t, "ok", stored.ReviewComment)

	// Exactly one audit entry, carrying only masked PII.
	require.Len(t, f.auditRepo.entries, 1)
	entry := f.auditRepo.entries[0]
	assert.Equal(t, model.OpApproveAppointment, entry.Operation)
	assert.Contains(t, entry.Description, "Z*******n")
	assert.NotContains(t, entry.Description, "Zhang San")
}

func TestTransitionPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)

	// Complete requires an approved appointment.
	err = f.svc.Complete(ctx, appt.ID, 3, "", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBadRequest, errors.CodeOf(err))

	require.NoError(t, f.svc.Approve(ctx, appt.ID, 3, "", "10.0.0.1"))

	// A second approve is rejected.
	err = f.svc.Approve(ctx, appt.ID, 3, "", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeBadRequest, errors.CodeOf(err))

	require.NoError(t, f.svc.Complete(ctx, appt.ID, 3, "", "10.0.0.1"))
	assert.Equal(t, model.StatusCompleted, f.repo.appts[appt.ID].Status)
}

func TestRejectPublicByReception(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)

	require.NoError(t, f.svc.Reject(ctx, appt.ID, 3, "incomplete details", "10.0.0.1"))
	assert.Equal(t, model.StatusRejected, f.repo.appts[appt.ID].Status)
}

func TestOfficialTransitionAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, createRequest(model.AppointmentOfficial, deptID(10)))
	require.NoError(t, err)

	// Auditors are read-only.
	err = f.svc.Approve(ctx, appt.ID, 4, "", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotOwnDepartment, errors.CodeOf(err))

	// A department admin of another department is blocked; reception
	// has no official authority either.
	other, err := f.svc.Create(ctx, createRequest(model.AppointmentOfficial, deptID(11)))
	require.NoError(t, err)
	err = f.svc.Approve(ctx, other.ID, 2, "", "10.0.0.1")
	require.Error(t, err)

	// The owning department admin succeeds.
	require.NoError(t, f.svc.Approve(ctx, appt.ID, 2, "", "10.0.0.1"))
	assert.Equal(t, model.StatusApproved, f.repo.appts[appt.ID].Status)
}

func TestPublicTransitionRejectsDepartmentAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)

	err = f.svc.Approve(ctx, appt.ID, 2, "", "10.0.0.1")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInsufficientRole, errors.CodeOf(err))
}

func TestRevealAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)
	stored := f.repo.appts[appt.ID]

	// A department admin without a delegated grant cannot reveal
	// public-appointment PII.
	_, err = f.svc.Reveal(ctx, 2, stored)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoDelegatedGrant, errors.CodeOf(err))

	// System admin sees plaintext.
	pii, err := f.svc.Reveal(ctx, 1, stored)
	require.NoError(t, err)
	assert.Equal(t, "Zhang San", pii.Name)
	assert.Equal(t, "110101199003078888", pii.IDCard)
	assert.Equal(t, "13812345678", pii.Phone)
}

func TestRevealFallsBackOnBadCiphertext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	appt, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)
	stored := f.repo.appts[appt.ID]
	stored.PhoneEncrypted = "YWJj"

	pii, err := f.svc.Reveal(ctx, 1, stored)
	require.NoError(t, err)
	assert.Equal(t, "Zhang San", pii.Name)
	assert.Equal(t, "YWJj", pii.Phone, "undecryptable field degrades to its ciphertext")
}

func TestListNarrowedToActorScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)
	own, err := f.svc.Create(ctx, createRequest(model.AppointmentOfficial, deptID(10)))
	require.NoError(t, err)
	foreign, err := f.svc.Create(ctx, createRequest(model.AppointmentOfficial, deptID(99)))
	require.NoError(t, err)

	// A department admin without a grant sees only their own
	// department's official appointments, filter or no filter.
	appts, err := f.svc.List(ctx, 2, model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, own.ID, appts[0].ID)

	appts, err = f.svc.List(ctx, 2, model.AppointmentFilter{Type: model.AppointmentOfficial})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, own.ID, appts[0].ID)

	// Asking for another department explicitly is rejected outright.
	_, err = f.svc.List(ctx, 2, model.AppointmentFilter{DeptID: deptID(99)})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotOwnDepartment, errors.CodeOf(err))

	// With the delegated grant, the public slice joins the listing.
	require.NoError(t, f.resolver.Grant(ctx, 2, model.PermViewPublicAppointment, 1, "10.0.0.1"))
	appts, err = f.svc.List(ctx, 2, model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, appts, 2)
	ids := []uuid.UUID{appts[0].ID, appts[1].ID}
	assert.Contains(t, ids, own.ID)
	assert.Contains(t, ids, public.ID)
	assert.NotContains(t, ids, foreign.ID)

	// System admin sees everything.
	appts, err = f.svc.List(ctx, 1, model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, appts, 3)
}

func TestDetailAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)
	foreign, err := f.svc.Create(ctx, createRequest(model.AppointmentOfficial, deptID(99)))
	require.NoError(t, err)

	// A department admin cannot read another department's detail or,
	// without a grant, a public one.
	_, err = f.svc.Detail(ctx, 2, foreign.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotOwnDepartment, errors.CodeOf(err))

	_, err = f.svc.Detail(ctx, 2, public.ID)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoDelegatedGrant, errors.CodeOf(err))

	// Auditors read everything.
	got, err := f.svc.Detail(ctx, 4, foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, foreign.ID, got.ID)
}

func TestListPublicRequiresGrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, createRequest(model.AppointmentPublic, nil))
	require.NoError(t, err)

	_, err = f.svc.List(ctx, 2, model.AppointmentFilter{Type: model.AppointmentPublic})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoDelegatedGrant, errors.CodeOf(err))

	require.NoError(t, f.resolver.Grant(ctx, 2, model.PermViewPublicAppointment, 1, "10.0.0.1"))

	appts, err := f.svc.List(ctx, 2, model.AppointmentFilter{Type: model.AppointmentPublic})
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}
