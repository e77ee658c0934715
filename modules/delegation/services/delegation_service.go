package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/delegation/domain/delegation"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/eventbus"
)

type auditRecorder interface {
	RecordChange(ctx context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error)
}

// History partitions a user's delegations by the side they stood on,
// newest first within each partition.
type History struct {
	DelegatedBy []*delegation.Delegation
	DelegatedTo []*delegation.Delegation
}

// DelegationService manages time-bounded authority grants. The one-active-
// grant-per-delegatee rule is double-enforced: checked here and backed by a
// partial unique index, so two racing delegate calls cannot both commit.
type DelegationService struct {
	delegations delegation.Repository
	users       user.Repository
	audit       auditRecorder
	publisher   eventbus.EventBus
	clock       func() time.Time

	// inTx runs a function transactionally; swapped out in tests.
	inTx func(context.Context, func(context.Context) error) error
}

type Option func(*DelegationService)

func WithClock(clock func() time.Time) Option {
	return func(s *DelegationService) {
		s.clock = clock
	}
}

func NewDelegationService(delegations delegation.Repository, users user.Repository, audit auditRecorder, publisher eventbus.EventBus, opts ...Option) *DelegationService {
	s := &DelegationService{
		delegations: delegations,
		users:       users,
		audit:       audit,
		publisher:   publisher,
		clock:       time.Now,
		inTx:        composables.InTx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delegate creates an active grant from delegator to delegatee and stamps
// the delegatee's denormalized authority projection in the same
// transaction.
func (s *DelegationService) Delegate(
	ctx context.Context,
	delegatorID, delegateeID uuid.UUID,
	authority delegation.Authority,
	reason string,
	endDate *time.Time,
) (*delegation.Delegation, error) {
	if delegatorID == delegateeID {
		return nil, ErrSelfDelegation
	}
	if authority.IsZero() {
		return nil, ErrEmptyAuthority
	}
	now := s.clock()
	if endDate != nil && endDate.Before(now) {
		return nil, ErrInvalidEndDate.WithHint("end date %s", endDate.Format(time.RFC3339))
	}

	delegator, err := s.users.GetByID(ctx, delegatorID)
	if err != nil {
		return nil, err
	}
	if !delegator.AccessLevel().AtLeast(user.AccessLevelDirectorate) {
		return nil, ErrInsufficientRank.WithHint("delegator is %s", delegator.AccessLevel())
	}
	if _, err := s.users.GetByID(ctx, delegateeID); err != nil {
		return nil, err
	}

	data := delegation.New(delegatorID, delegateeID, authority,
		delegation.WithReason(reason),
		delegation.WithStartDate(now),
		delegation.WithEndDate(endDate),
	)

	var created *delegation.Delegation
	err = s.inTx(ctx, func(txCtx context.Context) error {
		existing, err := s.delegations.FindActiveByDelegatee(txCtx, delegateeID)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.ExpiredAt(now) {
				return delegation.ErrActiveDelegationExists
			}
			// Stored status lagged reality; correct it so the partial
			// unique index admits the new grant.
			existing.MarkExpired()
			if err := s.delegations.Update(txCtx, existing); err != nil {
				return errors.Wrap(err, "failed to expire stale delegation")
			}
		}

		created, err = s.delegations.Create(txCtx, data)
		if err != nil {
			return err
		}

		projection := &user.DelegatedAuthority{
			DelegationID:         created.ID(),
			CanManageTeams:       authority.CanManageTeams,
			CanManageDepartments: authority.CanManageDepartments,
			CanApproveReports:    authority.CanApproveReports,
			ExpiresAt:            endDate,
		}
		if err := s.users.UpdateDelegatedAuthority(txCtx, delegateeID, projection); err != nil {
			return errors.Wrap(err, "failed to stamp delegated authority")
		}

		_, err = s.audit.RecordChange(txCtx, "create", "delegation", nil, delegationSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&delegation.GrantedEvent{Result: created})
	return created, nil
}

// Revoke ends the delegatee's active grant and clears the projection.
// Revoking with nothing active is a no-op, not an error.
func (s *DelegationService) Revoke(ctx context.Context, delegateeID uuid.UUID) error {
	var revoked *delegation.Delegation
	err := s.inTx(ctx, func(txCtx context.Context) error {
		existing, err := s.delegations.FindActiveByDelegatee(txCtx, delegateeID)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		before := delegationSnapshot(existing)
		existing.Revoke()
		if err := s.delegations.Update(txCtx, existing); err != nil {
			return errors.Wrap(err, "failed to revoke delegation")
		}
		if err := s.users.UpdateDelegatedAuthority(txCtx, delegateeID, nil); err != nil {
			return errors.Wrap(err, "failed to clear delegated authority")
		}

		if _, err := s.audit.RecordChange(txCtx, "update", "delegation", before, delegationSnapshot(existing)); err != nil {
			return err
		}
		revoked = existing
		return nil
	})
	if err != nil {
		return err
	}
	if revoked != nil {
		s.publisher.Publish(&delegation.RevokedEvent{Result: revoked})
	}
	return nil
}

// History lists every delegation the user took part in, split by role.
func (s *DelegationService) History(ctx context.Context, userID uuid.UUID) (*History, error) {
	all, err := s.delegations.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	h := &History{}
	for _, d := range all {
		if d.DelegatorID() == userID {
			h.DelegatedBy = append(h.DelegatedBy, d)
		}
		if d.DelegateeID() == userID {
			h.DelegatedTo = append(h.DelegatedTo, d)
		}
	}
	return h, nil
}

func (s *DelegationService) GetByID(ctx context.Context, id uuid.UUID) (*delegation.Delegation, error) {
	return s.delegations.GetByID(ctx, id)
}

// Sweep flips overdue stored-active rows to expired. Optional maintenance;
// reads apply lazy expiry regardless.
func (s *DelegationService) Sweep(ctx context.Context) (int64, error) {
	return s.delegations.ExpireOverdue(ctx, s.clock())
}

func delegationSnapshot(d *delegation.Delegation) map[string]any {
	snapshot := map[string]any{
		"id":          d.ID().String(),
		"delegatorId": d.DelegatorID().String(),
		"delegateeId": d.DelegateeID().String(),
		"authority": map[string]any{
			"canManageTeams":       d.Authority().CanManageTeams,
			"canManageDepartments": d.Authority().CanManageDepartments,
			"canApproveReports":    d.Authority().CanApproveReports,
		},
		"status":    string(d.Status()),
		"startDate": d.StartDate().UTC().Format(time.RFC3339),
	}
	if d.Reason() != "" {
		snapshot["reason"] = d.Reason()
	}
	if d.EndDate() != nil {
		snapshot["endDate"] = d.EndDate().UTC().Format(time.RFC3339)
	}
	return snapshot
}
