package delegation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Authority is the set of capabilities a delegation conveys. A delegation
// carrying none of them is meaningless and is rejected at creation.
type Authority struct {
	CanManageTeams       bool
	CanManageDepartments bool
	CanApproveReports    bool
}

func (a Authority) IsZero() bool {
	return !a.CanManageTeams && !a.CanManageDepartments && !a.CanApproveReports
}

type Delegation struct {
	id          uuid.UUID
	delegatorID uuid.UUID
	delegateeID uuid.UUID
	authority   Authority
	reason      string
	startDate   time.Time
	endDate     *time.Time
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Delegation)

func WithID(id uuid.UUID) Option {
	return func(d *Delegation) {
		d.id = id
	}
}

func WithReason(reason string) Option {
	return func(d *Delegation) {
		d.reason = strings.TrimSpace(reason)
	}
}

func WithStartDate(startDate time.Time) Option {
	return func(d *Delegation) {
		d.startDate = startDate
	}
}

func WithEndDate(endDate *time.Time) Option {
	return func(d *Delegation) {
		d.endDate = endDate
	}
}

func WithStatus(status Status) Option {
	return func(d *Delegation) {
		d.status = status
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(d *Delegation) {
		d.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(d *Delegation) {
		d.updatedAt = updatedAt
	}
}

func New(delegatorID, delegateeID uuid.UUID, authority Authority, opts ...Option) *Delegation {
	d := &Delegation{
		id:          uuid.New(),
		delegatorID: delegatorID,
		delegateeID: delegateeID,
		authority:   authority,
		startDate:   time.Now(),
		status:      StatusActive,
		createdAt:   time.Now(),
		updatedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Delegation) ID() uuid.UUID { return d.id }

func (d *Delegation) DelegatorID() uuid.UUID { return d.delegatorID }

func (d *Delegation) DelegateeID() uuid.UUID { return d.delegateeID }

func (d *Delegation) Authority() Authority { return d.authority }

func (d *Delegation) Reason() string { return d.reason }

func (d *Delegation) StartDate() time.Time { return d.startDate }

func (d *Delegation) EndDate() *time.Time { return d.endDate }

// Status is the stored state. It can lag reality for expiry; callers that
// care about "active right now" use EffectiveStatus.
func (d *Delegation) Status() Status { return d.status }

func (d *Delegation) CreatedAt() time.Time { return d.createdAt }

func (d *Delegation) UpdatedAt() time.Time { return d.updatedAt }

// ExpiredAt reports whether the grant's end date has passed. A nil end date
// means the grant is indefinite.
func (d *Delegation) ExpiredAt(now time.Time) bool {
	return d.endDate != nil && d.endDate.Before(now)
}

// EffectiveStatus applies lazy expiry: a stored-active delegation past its
// end date reads as expired without a state-transition write.
func (d *Delegation) EffectiveStatus(now time.Time) Status {
	if d.status == StatusActive && d.ExpiredAt(now) {
		return StatusExpired
	}
	return d.status
}

// ActiveAt reports whether the delegation conveys authority at the given
// instant.
func (d *Delegation) ActiveAt(now time.Time) bool {
	return d.EffectiveStatus(now) == StatusActive && !d.startDate.After(now)
}

func (d *Delegation) Revoke() {
	d.status = StatusRevoked
	d.updatedAt = time.Now()
}

func (d *Delegation) MarkExpired() {
	d.status = StatusExpired
	d.updatedAt = time.Now()
}
