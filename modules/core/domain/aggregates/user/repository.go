package user

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	OrganizationID *uuid.UUID
	SectorID       *uuid.UUID
	DepartmentID   *uuid.UUID
	TeamID         *uuid.UUID
	Status         Status
	Limit          int
	Offset         int
}

type Repository interface {
	GetAll(ctx context.Context) ([]*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*User, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, data *User) (*User, error)
	Update(ctx context.Context, data *User) error
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateDelegatedAuthority rewrites only the denormalized delegation
	// projection. Callers must run it in the transaction that writes the
	// delegation row itself.
	UpdateDelegatedAuthority(ctx context.Context, userID uuid.UUID, authority *DelegatedAuthority) error

	CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
	CountBySector(ctx context.Context, sectorID uuid.UUID) (int64, error)
	CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
}
