package organization

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetAll(ctx context.Context) ([]*Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetChildren(ctx context.Context, parentID uuid.UUID) ([]*Organization, error)
	GetRoots(ctx context.Context) ([]*Organization, error)
	Create(ctx context.Context, data *Organization) (*Organization, error)
	Update(ctx context.Context, data *Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
}
