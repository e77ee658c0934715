package role

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Limit  int
	Offset int
}

type Repository interface {
	GetAll(ctx context.Context) ([]*Role, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Role, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, data *Role) (*Role, error)
	Update(ctx context.Context, data *Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUsersWithRole(ctx context.Context, id uuid.UUID) (int64, error)
}
