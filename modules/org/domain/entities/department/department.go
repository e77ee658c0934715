package department

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Department belongs to an organization either directly or through a sector.
// When sectorID is set the organization is implied by the sector and the two
// must agree; the department then renders under its sector, not under the
// organization's direct-department list.
type Department struct {
	id             uuid.UUID
	name           string
	organizationID uuid.UUID
	sectorID       *uuid.UUID
	createdAt      time.Time
	updatedAt      time.Time
}

type Option func(*Department)

func WithID(id uuid.UUID) Option {
	return func(d *Department) {
		d.id = id
	}
}

func WithSectorID(sectorID *uuid.UUID) Option {
	return func(d *Department) {
		d.sectorID = sectorID
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(d *Department) {
		d.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(d *Department) {
		d.updatedAt = updatedAt
	}
}

func New(name string, organizationID uuid.UUID, opts ...Option) *Department {
	d := &Department{
		id:             uuid.New(),
		name:           strings.TrimSpace(name),
		organizationID: organizationID,
		createdAt:      time.Now(),
		updatedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Department) ID() uuid.UUID { return d.id }

func (d *Department) Name() string { return d.name }

func (d *Department) OrganizationID() uuid.UUID { return d.organizationID }

func (d *Department) SectorID() *uuid.UUID { return d.sectorID }

func (d *Department) CreatedAt() time.Time { return d.createdAt }

func (d *Department) UpdatedAt() time.Time { return d.updatedAt }

func (d *Department) SetName(name string) {
	d.name = strings.TrimSpace(name)
	d.updatedAt = time.Now()
}

type Repository interface {
	GetAll(ctx context.Context) ([]*Department, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*Department, error)
	GetBySector(ctx context.Context, sectorID uuid.UUID) ([]*Department, error)
	Create(ctx context.Context, data *Department) (*Department, error)
	Update(ctx context.Context, data *Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
	CountBySector(ctx context.Context, sectorID uuid.UUID) (int64, error)
}
