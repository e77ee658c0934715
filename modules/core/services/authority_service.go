package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/core/domain/entities/permission"
	"github.com/addissystems/orgadmin/modules/core/permissions"
	"github.com/addissystems/orgadmin/modules/delegation/domain/delegation"
	"github.com/addissystems/orgadmin/pkg/metrics"
)

// activeDelegationFinder is the slice of the delegation repository the
// authority checks need. Re-reading storage on every check is deliberate:
// authority decisions are never cached across requests.
type activeDelegationFinder interface {
	FindActiveByDelegatee(ctx context.Context, delegateeID uuid.UUID) (*delegation.Delegation, error)
}

// Visibility tells forms which hierarchy selectors to show for a given
// access level.
type Visibility struct {
	Organization bool
	Sector       bool
	Department   bool
	Team         bool
}

type AuthorityService struct {
	delegations activeDelegationFinder
	clock       func() time.Time
}

type AuthorityOption func(*AuthorityService)

func AuthorityWithClock(clock func() time.Time) AuthorityOption {
	return func(s *AuthorityService) {
		s.clock = clock
	}
}

func NewAuthorityService(delegations activeDelegationFinder, opts ...AuthorityOption) *AuthorityService {
	s := &AuthorityService{
		delegations: delegations,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanPerform decides whether u may execute action on resource. Checks run
// in short-circuit order: super admin, then static role grants, then
// delegated authority re-read from storage.
func (s *AuthorityService) CanPerform(ctx context.Context, u *user.User, resource, action string) (bool, error) {
	if u.IsSuperAdmin() {
		return true, nil
	}
	if u.HasPermission(resource, action) {
		return true, nil
	}

	d, err := s.delegations.FindActiveByDelegatee(ctx, u.ID())
	if err != nil {
		return false, errors.Wrap(err, "failed to look up active delegation")
	}
	if d == nil || !d.ActiveAt(s.clock()) {
		return false, nil
	}
	return delegationCovers(d.Authority(), resource, action), nil
}

// Require is CanPerform with a denial outcome: it records the denial metric
// and returns ErrUnauthorized when the check fails.
func (s *AuthorityService) Require(ctx context.Context, u *user.User, resource, action string) error {
	ok, err := s.CanPerform(ctx, u, resource, action)
	if err != nil {
		return err
	}
	if !ok {
		metrics.RecordAuthzDenial(resource, action)
		return ErrUnauthorized.WithHint("%s %s", action, resource)
	}
	return nil
}

// delegationCovers maps the three delegation capabilities onto concrete
// resource/action pairs. Delegated authority only extends to mutations and
// report approval; it never widens read access.
func delegationCovers(a delegation.Authority, resource, action string) bool {
	res, act := permission.Resource(resource), permission.Action(action)
	switch {
	case a.CanManageTeams && permissions.ResourceTeam.EqualFold(res) && isMutation(act):
		return true
	case a.CanManageDepartments && permissions.ResourceDepartment.EqualFold(res) && isMutation(act):
		return true
	case a.CanApproveReports && permissions.ResourceReport.EqualFold(res) && permission.ActionApprove.EqualFold(act):
		return true
	}
	return false
}

func isMutation(action permission.Action) bool {
	switch {
	case permission.ActionCreate.EqualFold(action),
		permission.ActionUpdate.EqualFold(action),
		permission.ActionDelete.EqualFold(action):
		return true
	}
	return false
}

// FieldVisibility returns the hierarchy selectors shown for an access
// level. Organization-scoped levels pick only an organization; the lower
// the level, the deeper its placement in the tree and the more selectors
// its form needs.
func FieldVisibility(level user.AccessLevel) Visibility {
	switch level {
	case user.AccessLevelSuperAdmin, user.AccessLevelManager,
		user.AccessLevelDeputy, user.AccessLevelBranchAdmin:
		return Visibility{Organization: true}
	case user.AccessLevelSectorLead, user.AccessLevelDirectorate:
		return Visibility{Organization: true, Sector: true, Department: true}
	default:
		return Visibility{Organization: true, Sector: true, Department: true, Team: true}
	}
}
