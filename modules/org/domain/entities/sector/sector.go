package sector

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sector is an optional grouping level under a head-office organization.
// Branch organizations skip it and attach departments directly.
type Sector struct {
	id             uuid.UUID
	name           string
	organizationID uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

type Option func(*Sector)

func WithID(id uuid.UUID) Option {
	return func(s *Sector) {
		s.id = id
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(s *Sector) {
		s.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(s *Sector) {
		s.updatedAt = updatedAt
	}
}

func New(name string, organizationID uuid.UUID, opts ...Option) *Sector {
	s := &Sector{
		id:             uuid.New(),
		name:           strings.TrimSpace(name),
		organizationID: organizationID,
		createdAt:      time.Now(),
		updatedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sector) ID() uuid.UUID { return s.id }

func (s *Sector) Name() string { return s.name }

func (s *Sector) OrganizationID() uuid.UUID { return s.organizationID }

func (s *Sector) CreatedAt() time.Time { return s.createdAt }

func (s *Sector) UpdatedAt() time.Time { return s.updatedAt }

func (s *Sector) SetName(name string) {
	s.name = strings.TrimSpace(name)
	s.updatedAt = time.Now()
}

type Repository interface {
	GetAll(ctx context.Context) ([]*Sector, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Sector, error)
	GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*Sector, error)
	Create(ctx context.Context, data *Sector) (*Sector, error)
	Update(ctx context.Context, data *Sector) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
}
