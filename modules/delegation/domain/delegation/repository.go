package delegation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrDelegationNotFound = serrors.NewError("DELEGATION_NOT_FOUND", "delegation not found", "")

	// ErrActiveDelegationExists is produced both by the service-level check
	// and by the storage layer when the partial unique index on active
	// delegations rejects a concurrent insert.
	ErrActiveDelegationExists = serrors.NewError("DELEGATION_ACTIVE_EXISTS", "delegatee already holds an active delegation", "")
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Delegation, error)

	// FindActiveByDelegatee returns the delegatee's stored-active delegation
	// or nil when there is none. Lazy expiry is the caller's concern: the
	// returned grant may already be past its end date.
	FindActiveByDelegatee(ctx context.Context, delegateeID uuid.UUID) (*Delegation, error)

	// FindByParticipant returns every delegation the user appears in, as
	// delegator or delegatee, newest first.
	FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*Delegation, error)

	Create(ctx context.Context, data *Delegation) (*Delegation, error)
	Update(ctx context.Context, data *Delegation) error

	// ExpireOverdue flips stored-active delegations past their end date to
	// expired. Purely a maintenance optimization: reads never depend on it.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
