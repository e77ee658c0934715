package organization

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeHeadOffice Type = "head_office"
	TypeBranch     Type = "branch"
	TypeSubcity    Type = "subcity"
	TypeWoreda     Type = "woreda"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeHeadOffice, TypeBranch, TypeSubcity, TypeWoreda:
		return true
	}
	return false
}

type Organization struct {
	id        uuid.UUID
	name      string
	orgType   Type
	parentID  *uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Organization)

func WithID(id uuid.UUID) Option {
	return func(o *Organization) {
		o.id = id
	}
}

func WithParentID(parentID *uuid.UUID) Option {
	return func(o *Organization) {
		o.parentID = parentID
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(o *Organization) {
		o.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(o *Organization) {
		o.updatedAt = updatedAt
	}
}

func New(name string, orgType Type, opts ...Option) *Organization {
	o := &Organization{
		id:        uuid.New(),
		name:      strings.TrimSpace(name),
		orgType:   orgType,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Organization) ID() uuid.UUID { return o.id }

func (o *Organization) Name() string { return o.name }

func (o *Organization) Type() Type { return o.orgType }

func (o *Organization) ParentID() *uuid.UUID { return o.parentID }

func (o *Organization) CreatedAt() time.Time { return o.createdAt }

func (o *Organization) UpdatedAt() time.Time { return o.updatedAt }

// CanOwnSectors is restricted to head offices; branches and the
// administrative subdivisions attach departments directly.
func (o *Organization) CanOwnSectors() bool {
	return o.orgType == TypeHeadOffice
}

func (o *Organization) SetName(name string) {
	o.name = strings.TrimSpace(name)
	o.updatedAt = time.Now()
}

func (o *Organization) SetParentID(parentID *uuid.UUID) {
	o.parentID = parentID
	o.updatedAt = time.Now()
}
