package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
)

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordedChange struct {
	action   string
	resource string
	before   any
	after    any
}

type recordingAudit struct {
	changes []recordedChange
}

func (r *recordingAudit) RecordChange(_ context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error) {
	r.changes = append(r.changes, recordedChange{action: action, resource: resource, before: before, after: after})
	return &auditlog.AuditLog{}, nil
}

type recordingBus struct {
	published []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.published = append(b.published, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}
func (b *recordingBus) Clear()                      { b.published = nil }
func (b *recordingBus) SubscribersCount() int       { return 0 }

type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserRepo) GetAll(context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserRepo) GetPaginated(ctx context.Context, _ *user.FindParams) ([]*user.User, error) {
	return f.GetAll(ctx)
}

func (f *fakeUserRepo) Count(context.Context, *user.FindParams) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) Create(_ context.Context, data *user.User) (*user.User, error) {
	f.users[data.ID()] = data
	return data, nil
}

func (f *fakeUserRepo) Update(_ context.Context, data *user.User) error {
	if _, ok := f.users[data.ID()]; !ok {
		return ErrUserNotFound
	}
	f.users[data.ID()] = data
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) UpdateDelegatedAuthority(_ context.Context, userID uuid.UUID, authority *user.DelegatedAuthority) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.SetDelegatedAuthority(authority)
	return nil
}

func (f *fakeUserRepo) CountByOrganization(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (f *fakeUserRepo) CountBySector(context.Context, uuid.UUID) (int64, error)       { return 0, nil }
func (f *fakeUserRepo) CountByDepartment(context.Context, uuid.UUID) (int64, error)   { return 0, nil }
func (f *fakeUserRepo) CountByTeam(context.Context, uuid.UUID) (int64, error)         { return 0, nil }

func newUserServiceFixture() (*UserService, *fakeUserRepo, *recordingAudit, *recordingBus) {
	repo := newFakeUserRepo()
	audit := &recordingAudit{}
	bus := &recordingBus{}
	svc := NewUserService(repo, bus, audit)
	svc.inTx = passthroughTx
	return svc, repo, audit, bus
}

func TestUserService_CreateRejectsUnknownAccessLevel(t *testing.T) {
	svc, repo, audit, _ := newUserServiceFixture()

	_, err := svc.Create(context.Background(), user.New("Abebe", "Kebede", "abebe@example.com", user.AccessLevel("czar")))
	require.ErrorIs(t, err, user.ErrInvalidAccessLevel)
	require.Empty(t, repo.users)
	require.Empty(t, audit.changes)
}

func TestUserService_CreateAuditsAndPublishes(t *testing.T) {
	svc, repo, audit, bus := newUserServiceFixture()

	created, err := svc.Create(context.Background(), user.New("Abebe", "Kebede", "Abebe@Example.com", user.AccessLevelExpert))
	require.NoError(t, err)
	require.Contains(t, repo.users, created.ID())
	require.Equal(t, "abebe@example.com", created.Email())

	require.Len(t, audit.changes, 1)
	require.Equal(t, "create", audit.changes[0].action)
	require.Equal(t, "user", audit.changes[0].resource)
	require.Nil(t, audit.changes[0].before)

	after, ok := audit.changes[0].after.(map[string]any)
	require.True(t, ok)
	require.Equal(t, created.ID().String(), after["id"])
	require.NotContains(t, after, "organizationId")

	require.Len(t, bus.published, 1)
	event, ok := bus.published[0].(*user.CreatedEvent)
	require.True(t, ok)
	require.Equal(t, created.ID(), event.Result.ID())
}

func TestUserService_UpdateRecordsBeforeAndAfter(t *testing.T) {
	svc, _, audit, bus := newUserServiceFixture()

	created, err := svc.Create(context.Background(), user.New("Abebe", "Kebede", "abebe@example.com", user.AccessLevelExpert))
	require.NoError(t, err)

	created.SetStatus(user.StatusActive)
	require.NoError(t, svc.Update(context.Background(), created))

	require.Len(t, audit.changes, 2)
	update := audit.changes[1]
	require.Equal(t, "update", update.action)
	require.NotNil(t, update.before)
	after, ok := update.after.(map[string]any)
	require.True(t, ok)
	require.Equal(t, string(user.StatusActive), after["status"])

	require.IsType(t, &user.UpdatedEvent{}, bus.published[1])
}

func TestUserService_DeleteUnknownUser(t *testing.T) {
	svc, _, audit, bus := newUserServiceFixture()

	err := svc.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Empty(t, audit.changes)
	require.Empty(t, bus.published)
}
