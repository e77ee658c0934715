package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// DelegatedAuthority is the denormalized projection of the user's active
// delegation, kept for fast reads. It is only ever written in the same
// transaction as the delegation row it mirrors.
type DelegatedAuthority struct {
	DelegationID         uuid.UUID
	CanManageTeams       bool
	CanManageDepartments bool
	CanApproveReports    bool
	ExpiresAt            *time.Time
}

// Expired reports whether the projection's end time has passed. A nil
// ExpiresAt means the grant is indefinite.
func (d *DelegatedAuthority) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && d.ExpiresAt.Before(now)
}

type User struct {
	id                   uuid.UUID
	firstName            string
	lastName             string
	email                string
	accessLevel          AccessLevel
	organizationType     string
	organizationID       *uuid.UUID
	sectorID             *uuid.UUID
	departmentID         *uuid.UUID
	teamID               *uuid.UUID
	reportsToID          *uuid.UUID
	managedDepartmentIDs []uuid.UUID
	managedTeamIDs       []uuid.UUID
	roles                []*role.Role
	delegatedAuthority   *DelegatedAuthority
	status               Status
	createdAt            time.Time
	updatedAt            time.Time
}

type Option func(*User)

func WithID(id uuid.UUID) Option {
	return func(u *User) {
		u.id = id
	}
}

func WithOrganizationType(t string) Option {
	return func(u *User) {
		u.organizationType = t
	}
}

func WithOrganizationID(id *uuid.UUID) Option {
	return func(u *User) {
		u.organizationID = id
	}
}

func WithSectorID(id *uuid.UUID) Option {
	return func(u *User) {
		u.sectorID = id
	}
}

func WithDepartmentID(id *uuid.UUID) Option {
	return func(u *User) {
		u.departmentID = id
	}
}

func WithTeamID(id *uuid.UUID) Option {
	return func(u *User) {
		u.teamID = id
	}
}

func WithReportsToID(id *uuid.UUID) Option {
	return func(u *User) {
		u.reportsToID = id
	}
}

func WithManagedDepartmentIDs(ids []uuid.UUID) Option {
	return func(u *User) {
		u.managedDepartmentIDs = ids
	}
}

func WithManagedTeamIDs(ids []uuid.UUID) Option {
	return func(u *User) {
		u.managedTeamIDs = ids
	}
}

func WithRoles(roles []*role.Role) Option {
	return func(u *User) {
		u.roles = roles
	}
}

func WithDelegatedAuthority(d *DelegatedAuthority) Option {
	return func(u *User) {
		u.delegatedAuthority = d
	}
}

func WithStatus(status Status) Option {
	return func(u *User) {
		u.status = status
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(u *User) {
		u.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(u *User) {
		u.updatedAt = updatedAt
	}
}

func New(firstName, lastName, email string, accessLevel AccessLevel, opts ...Option) *User {
	u := &User{
		id:          uuid.New(),
		firstName:   strings.TrimSpace(firstName),
		lastName:    strings.TrimSpace(lastName),
		email:       strings.ToLower(strings.TrimSpace(email)),
		accessLevel: accessLevel,
		status:      StatusPending,
		createdAt:   time.Now(),
		updatedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *User) ID() uuid.UUID { return u.id }

func (u *User) FirstName() string { return u.firstName }

func (u *User) LastName() string { return u.lastName }

func (u *User) Email() string { return u.email }

func (u *User) AccessLevel() AccessLevel { return u.accessLevel }

func (u *User) OrganizationType() string { return u.organizationType }

func (u *User) OrganizationID() *uuid.UUID { return u.organizationID }

func (u *User) SectorID() *uuid.UUID { return u.sectorID }

func (u *User) DepartmentID() *uuid.UUID { return u.departmentID }

func (u *User) TeamID() *uuid.UUID { return u.teamID }

func (u *User) ReportsToID() *uuid.UUID { return u.reportsToID }

func (u *User) ManagedDepartmentIDs() []uuid.UUID { return u.managedDepartmentIDs }

func (u *User) ManagedTeamIDs() []uuid.UUID { return u.managedTeamIDs }

func (u *User) Roles() []*role.Role { return u.roles }

func (u *User) DelegatedAuthority() *DelegatedAuthority { return u.delegatedAuthority }

func (u *User) Status() Status { return u.status }

func (u *User) CreatedAt() time.Time { return u.createdAt }

func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// IsSuperAdmin is true for the super_admin level and for holders of a role
// literally named "Super Admin". Deliberately a short-circuit, not a role
// granted every permission row.
func (u *User) IsSuperAdmin() bool {
	if u.accessLevel == AccessLevelSuperAdmin {
		return true
	}
	for _, r := range u.roles {
		if r.IsSuperAdmin() {
			return true
		}
	}
	return false
}

// HasPermission reports whether any held role grants the resource/action
// pair.
func (u *User) HasPermission(resource, action string) bool {
	for _, r := range u.roles {
		if r.Grants(resource, action) {
			return true
		}
	}
	return false
}

func (u *User) SetAccessLevel(level AccessLevel) {
	u.accessLevel = level
	u.updatedAt = time.Now()
}

func (u *User) SetStatus(status Status) {
	u.status = status
	u.updatedAt = time.Now()
}

func (u *User) SetReportsToID(id *uuid.UUID) {
	u.reportsToID = id
	u.updatedAt = time.Now()
}

func (u *User) SetRoles(roles []*role.Role) {
	u.roles = roles
	u.updatedAt = time.Now()
}

func (u *User) SetDelegatedAuthority(d *DelegatedAuthority) {
	u.delegatedAuthority = d
	u.updatedAt = time.Now()
}

func (u *User) SetManagedDepartmentIDs(ids []uuid.UUID) {
	u.managedDepartmentIDs = ids
	u.updatedAt = time.Now()
}

func (u *User) SetManagedTeamIDs(ids []uuid.UUID) {
	u.managedTeamIDs = ids
	u.updatedAt = time.Now()
}
