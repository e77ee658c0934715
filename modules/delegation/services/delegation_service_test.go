package services

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/delegation/domain/delegation"
)

var testNow = time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC)

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingAudit struct {
	entries []*auditlog.AuditLog
}

func (r *recordingAudit) RecordChange(ctx context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error) {
	entry := &auditlog.AuditLog{ID: uuid.New(), Action: action, Resource: resource}
	r.entries = append(r.entries, entry)
	return entry, nil
}

type recordingBus struct {
	published []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.published = append(b.published, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}
func (b *recordingBus) Clear()                      { b.published = nil }
func (b *recordingBus) SubscribersCount() int       { return 0 }

type fakeDelegationRepo struct {
	items map[uuid.UUID]*delegation.Delegation
}

func newFakeDelegationRepo() *fakeDelegationRepo {
	return &fakeDelegationRepo{items: make(map[uuid.UUID]*delegation.Delegation)}
}

func (f *fakeDelegationRepo) GetByID(ctx context.Context, id uuid.UUID) (*delegation.Delegation, error) {
	d, ok := f.items[id]
	if !ok {
		return nil, delegation.ErrDelegationNotFound
	}
	return d, nil
}

func (f *fakeDelegationRepo) FindActiveByDelegatee(ctx context.Context, delegateeID uuid.UUID) (*delegation.Delegation, error) {
	for _, d := range f.items {
		if d.DelegateeID() == delegateeID && d.Status() == delegation.StatusActive {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDelegationRepo) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*delegation.Delegation, error) {
	var out []*delegation.Delegation
	for _, d := range f.items {
		if d.DelegatorID() == userID || d.DelegateeID() == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return out, nil
}

func (f *fakeDelegationRepo) Create(ctx context.Context, data *delegation.Delegation) (*delegation.Delegation, error) {
	for _, d := range f.items {
		if d.DelegateeID() == data.DelegateeID() && d.Status() == delegation.StatusActive {
			// Mirrors the partial unique index on active rows.
			return nil, delegation.ErrActiveDelegationExists
		}
	}
	f.items[data.ID()] = data
	return data, nil
}

func (f *fakeDelegationRepo) Update(ctx context.Context, data *delegation.Delegation) error {
	if _, ok := f.items[data.ID()]; !ok {
		return delegation.ErrDelegationNotFound
	}
	f.items[data.ID()] = data
	return nil
}

func (f *fakeDelegationRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, d := range f.items {
		if d.Status() == delegation.StatusActive && d.ExpiredAt(now) {
			d.MarkExpired()
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	items map[uuid.UUID]*user.User
}

var errFakeUserNotFound = errors.New("user not found")

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	f := &fakeUserRepo{items: make(map[uuid.UUID]*user.User)}
	for _, u := range users {
		f.items[u.ID()] = u
	}
	return f
}

func (f *fakeUserRepo) GetAll(ctx context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(f.items))
	for _, u := range f.items {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, errFakeUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.items {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, errFakeUserNotFound
}

func (f *fakeUserRepo) GetPaginated(ctx context.Context, params *user.FindParams) ([]*user.User, error) {
	return f.GetAll(ctx)
}

func (f *fakeUserRepo) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	return int64(len(f.items)), nil
}

func (f *fakeUserRepo) Create(ctx context.Context, data *user.User) (*user.User, error) {
	f.items[data.ID()] = data
	return data, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, data *user.User) error {
	f.items[data.ID()] = data
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeUserRepo) UpdateDelegatedAuthority(ctx context.Context, userID uuid.UUID, authority *user.DelegatedAuthority) error {
	u, ok := f.items[userID]
	if !ok {
		return errFakeUserNotFound
	}
	u.SetDelegatedAuthority(authority)
	return nil
}

func (f *fakeUserRepo) CountByOrganization(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepo) CountBySector(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepo) CountByDepartment(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeUserRepo) CountByTeam(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

type delegationFixture struct {
	svc         *DelegationService
	delegations *fakeDelegationRepo
	users       *fakeUserRepo
	audit       *recordingAudit
	bus         *recordingBus
	delegator   *user.User
	delegatee   *user.User
}

func newDelegationFixture(delegatorLevel user.AccessLevel) *delegationFixture {
	delegator := user.New("Delegator", "D", "delegator@example.gov.et", delegatorLevel)
	delegatee := user.New("Delegatee", "E", "delegatee@example.gov.et", user.AccessLevelExpert)

	f := &delegationFixture{
		delegations: newFakeDelegationRepo(),
		users:       newFakeUserRepo(delegator, delegatee),
		audit:       &recordingAudit{},
		bus:         &recordingBus{},
		delegator:   delegator,
		delegatee:   delegatee,
	}
	f.svc = NewDelegationService(f.delegations, f.users, f.audit, f.bus,
		WithClock(func() time.Time { return testNow }))
	f.svc.inTx = passthroughTx
	return f
}

func TestDelegate_RejectsSelf(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)

	_, err := f.svc.Delegate(context.Background(), f.delegator.ID(), f.delegator.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.ErrorIs(t, err, ErrSelfDelegation)
}

func TestDelegate_RejectsEmptyAuthority(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)

	_, err := f.svc.Delegate(context.Background(), f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{}, "", nil)
	require.ErrorIs(t, err, ErrEmptyAuthority)
}

func TestDelegate_RankThreshold(t *testing.T) {
	low := newDelegationFixture(user.AccessLevelSectorLead)
	_, err := low.svc.Delegate(context.Background(), low.delegator.ID(), low.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.ErrorIs(t, err, ErrInsufficientRank)

	// directorate is the lowest level allowed to delegate
	ok := newDelegationFixture(user.AccessLevelDirectorate)
	d, err := ok.svc.Delegate(context.Background(), ok.delegator.ID(), ok.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "annual leave coverage", nil)
	require.NoError(t, err)
	require.Equal(t, delegation.StatusActive, d.Status())
}

func TestDelegate_StampsProjection(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)

	end := testNow.Add(72 * time.Hour)
	d, err := f.svc.Delegate(context.Background(), f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageDepartments: true}, "", &end)
	require.NoError(t, err)

	projection := f.delegatee.DelegatedAuthority()
	require.NotNil(t, projection)
	require.Equal(t, d.ID(), projection.DelegationID)
	require.True(t, projection.CanManageDepartments)
	require.False(t, projection.CanManageTeams)
	require.Equal(t, &end, projection.ExpiresAt)

	require.Len(t, f.audit.entries, 1)
	require.Equal(t, "create", f.audit.entries[0].Action)
	require.Equal(t, "delegation", f.audit.entries[0].Resource)
}

func TestDelegate_ActiveDelegationExists(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	_, err := f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.NoError(t, err)

	_, err = f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanApproveReports: true}, "", nil)
	require.ErrorIs(t, err, delegation.ErrActiveDelegationExists)
}

func TestDelegate_LazilyExpiredGrantIsReplaced(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	// Seed a stored-active delegation whose end date already passed.
	end := testNow.Add(-time.Hour)
	stale := delegation.New(f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true},
		delegation.WithStartDate(testNow.Add(-48*time.Hour)),
		delegation.WithEndDate(&end))
	_, err := f.delegations.Create(ctx, stale)
	require.NoError(t, err)

	replacement, err := f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanApproveReports: true}, "", nil)
	require.NoError(t, err)
	require.Equal(t, delegation.StatusExpired, stale.Status(), "stale grant's stored status gets corrected")
	require.Equal(t, delegation.StatusActive, replacement.Status())
}

func TestDelegate_RejectsPastEndDate(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)

	end := testNow.Add(-time.Minute)
	_, err := f.svc.Delegate(context.Background(), f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", &end)
	require.ErrorIs(t, err, ErrInvalidEndDate)
}

func TestRevoke_ClearsProjectionAndIsIdempotent(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	d, err := f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, f.delegatee.ID()))
	require.Equal(t, delegation.StatusRevoked, d.Status())
	require.Nil(t, f.delegatee.DelegatedAuthority())

	// Nothing active anymore; a second revoke is a no-op.
	require.NoError(t, f.svc.Revoke(ctx, f.delegatee.ID()))
}

func TestDelegationLifecycle_PublishesEvents(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	d, err := f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, f.delegatee.ID()))
	// Revoking with nothing active publishes nothing.
	require.NoError(t, f.svc.Revoke(ctx, f.delegatee.ID()))

	require.Len(t, f.bus.published, 2)
	granted, ok := f.bus.published[0].(*delegation.GrantedEvent)
	require.True(t, ok)
	require.Equal(t, d.ID(), granted.Result.ID())
	revoked, ok := f.bus.published[1].(*delegation.RevokedEvent)
	require.True(t, ok)
	require.Equal(t, d.ID(), revoked.Result.ID())
	require.Equal(t, delegation.StatusRevoked, revoked.Result.Status())
}

func TestDelegate_NoEventOnFailure(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	_, err := f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.NoError(t, err)
	f.bus.Clear()

	_, err = f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanApproveReports: true}, "", nil)
	require.ErrorIs(t, err, delegation.ErrActiveDelegationExists)
	require.Empty(t, f.bus.published)
}

func TestRevokeThenRedelegate(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	_, err := f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.Revoke(ctx, f.delegatee.ID()))

	_, err = f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageDepartments: true}, "", nil)
	require.NoError(t, err)
}

func TestHistory_PartitionsByRole(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	third := user.New("Third", "Party", "third@example.gov.et", user.AccessLevelExpert)
	_, err := f.users.Create(ctx, third)
	require.NoError(t, err)

	// delegator -> delegatee, then delegator receives one from the third user
	// acting as a manager-level delegator.
	_, err = f.svc.Delegate(ctx, f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true}, "", nil)
	require.NoError(t, err)

	granted := delegation.New(third.ID(), f.delegator.ID(), delegation.Authority{CanApproveReports: true},
		delegation.WithStartDate(testNow))
	_, err = f.delegations.Create(ctx, granted)
	require.NoError(t, err)

	h, err := f.svc.History(ctx, f.delegator.ID())
	require.NoError(t, err)
	require.Len(t, h.DelegatedBy, 1)
	require.Len(t, h.DelegatedTo, 1)
	require.Equal(t, f.delegatee.ID(), h.DelegatedBy[0].DelegateeID())
	require.Equal(t, third.ID(), h.DelegatedTo[0].DelegatorID())
}

func TestSweep_ExpiresOverdueRows(t *testing.T) {
	f := newDelegationFixture(user.AccessLevelManager)
	ctx := context.Background()

	end := testNow.Add(-time.Hour)
	stale := delegation.New(f.delegator.ID(), f.delegatee.ID(),
		delegation.Authority{CanManageTeams: true},
		delegation.WithStartDate(testNow.Add(-48*time.Hour)),
		delegation.WithEndDate(&end))
	_, err := f.delegations.Create(ctx, stale)
	require.NoError(t, err)

	n, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.Equal(t, delegation.StatusExpired, stale.Status())
}
