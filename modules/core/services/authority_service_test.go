package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/core/domain/entities/permission"
	"github.com/addissystems/orgadmin/modules/core/permissions"
	"github.com/addissystems/orgadmin/modules/delegation/domain/delegation"
)

type stubDelegationFinder struct {
	delegation *delegation.Delegation
	calls      int
}

func (s *stubDelegationFinder) FindActiveByDelegatee(ctx context.Context, delegateeID uuid.UUID) (*delegation.Delegation, error) {
	s.calls++
	return s.delegation, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCanPerform_SuperAdminShortCircuits(t *testing.T) {
	finder := &stubDelegationFinder{}
	svc := NewAuthorityService(finder, AuthorityWithClock(fixedClock(testNow)))

	u := user.New("Abebe", "Kebede", "abebe@example.gov.et", user.AccessLevelSuperAdmin)
	ok, err := svc.CanPerform(context.Background(), u, "organization", "delete")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, finder.calls, "super admin must not touch delegation storage")
}

func TestCanPerform_SuperAdminRoleName(t *testing.T) {
	svc := NewAuthorityService(&stubDelegationFinder{}, AuthorityWithClock(fixedClock(testNow)))

	r := role.New("super admin")
	u := user.New("Sara", "Tesfaye", "sara@example.gov.et", user.AccessLevelExpert,
		user.WithRoles([]*role.Role{r}))

	ok, err := svc.CanPerform(context.Background(), u, "audit_log", "view")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanPerform_StaticPermissionMatch(t *testing.T) {
	finder := &stubDelegationFinder{}
	svc := NewAuthorityService(finder, AuthorityWithClock(fixedClock(testNow)))

	hr := role.New("HR Officer", role.WithPermissions([]*permission.Permission{
		permissions.UserView,
		permissions.UserUpdate,
	}))
	u := user.New("Hanna", "Girma", "hanna@example.gov.et", user.AccessLevelSectorLead,
		user.WithRoles([]*role.Role{hr}))

	ok, err := svc.CanPerform(context.Background(), u, "User", "UPDATE")
	require.NoError(t, err)
	require.True(t, ok, "resource and action matching is case-insensitive")
	require.Zero(t, finder.calls, "matched permission must not touch delegation storage")

	ok, err = svc.CanPerform(context.Background(), u, "user", "delete")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 1, finder.calls, "failed permission check falls through to delegations")
}

func TestCanPerform_DelegatedAuthority(t *testing.T) {
	delegator := uuid.New()
	u := user.New("Dawit", "Alemu", "dawit@example.gov.et", user.AccessLevelExpert)

	d := delegation.New(delegator, u.ID(), delegation.Authority{CanManageTeams: true},
		delegation.WithStartDate(testNow.Add(-time.Hour)))
	svc := NewAuthorityService(&stubDelegationFinder{delegation: d}, AuthorityWithClock(fixedClock(testNow)))

	ok, err := svc.CanPerform(context.Background(), u, "team", "update")
	require.NoError(t, err)
	require.True(t, ok)

	// The grant covers team mutations only.
	ok, err = svc.CanPerform(context.Background(), u, "team", "view")
	require.NoError(t, err)
	require.False(t, ok, "delegated authority never widens read access")

	ok, err = svc.CanPerform(context.Background(), u, "department", "update")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanPerform_ExpiredDelegationNeverSatisfies(t *testing.T) {
	delegator := uuid.New()
	u := user.New("Meron", "Haile", "meron@example.gov.et", user.AccessLevelExpert)

	// Stored status still reads active; only the end date has passed.
	end := testNow.Add(-time.Minute)
	d := delegation.New(delegator, u.ID(), delegation.Authority{CanApproveReports: true},
		delegation.WithStartDate(testNow.Add(-48*time.Hour)),
		delegation.WithEndDate(&end))
	require.Equal(t, delegation.StatusActive, d.Status())

	svc := NewAuthorityService(&stubDelegationFinder{delegation: d}, AuthorityWithClock(fixedClock(testNow)))

	ok, err := svc.CanPerform(context.Background(), u, "report", "approve")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCanPerform_NotYetStartedDelegation(t *testing.T) {
	delegator := uuid.New()
	u := user.New("Biruk", "Mengistu", "biruk@example.gov.et", user.AccessLevelExpert)

	d := delegation.New(delegator, u.ID(), delegation.Authority{CanManageDepartments: true},
		delegation.WithStartDate(testNow.Add(time.Hour)))
	svc := NewAuthorityService(&stubDelegationFinder{delegation: d}, AuthorityWithClock(fixedClock(testNow)))

	ok, err := svc.CanPerform(context.Background(), u, "department", "create")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequire_DeniedReturnsUnauthorized(t *testing.T) {
	svc := NewAuthorityService(&stubDelegationFinder{}, AuthorityWithClock(fixedClock(testNow)))

	u := user.New("Kidist", "Assefa", "kidist@example.gov.et", user.AccessLevelPublic)
	err := svc.Require(context.Background(), u, "organization", "delete")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestFieldVisibility(t *testing.T) {
	cases := []struct {
		level user.AccessLevel
		want  Visibility
	}{
		{user.AccessLevelSuperAdmin, Visibility{Organization: true}},
		{user.AccessLevelManager, Visibility{Organization: true}},
		{user.AccessLevelDeputy, Visibility{Organization: true}},
		{user.AccessLevelBranchAdmin, Visibility{Organization: true}},
		{user.AccessLevelSectorLead, Visibility{Organization: true, Sector: true, Department: true}},
		{user.AccessLevelDirectorate, Visibility{Organization: true, Sector: true, Department: true}},
		{user.AccessLevelTeamLeader, Visibility{Organization: true, Sector: true, Department: true, Team: true}},
		{user.AccessLevelExpert, Visibility{Organization: true, Sector: true, Department: true, Team: true}},
		{user.AccessLevelPublic, Visibility{Organization: true, Sector: true, Department: true, Team: true}},
	}
	for _, tc := range cases {
		t.Run(string(tc.level), func(t *testing.T) {
			require.Equal(t, tc.want, FieldVisibility(tc.level))
		})
	}
}
