package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/eventbus"
)

type RoleService struct {
	repo      role.Repository
	publisher eventbus.EventBus
	audit     auditRecorder

	// inTx runs a function transactionally; swapped out in tests.
	inTx func(context.Context, func(context.Context) error) error
}

func NewRoleService(repo role.Repository, publisher eventbus.EventBus, audit auditRecorder) *RoleService {
	return &RoleService{
		repo:      repo,
		publisher: publisher,
		audit:     audit,
		inTx:      composables.InTx,
	}
}

func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RoleService) GetAll(ctx context.Context) ([]*role.Role, error) {
	return s.repo.GetAll(ctx)
}

func (s *RoleService) GetPaginated(ctx context.Context, params *role.FindParams) ([]*role.Role, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *RoleService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *RoleService) Create(ctx context.Context, data *role.Role) (*role.Role, error) {
	var created *role.Role
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, data)
		if err != nil {
			return errors.Wrap(err, "failed to create role")
		}
		_, err = s.audit.RecordChange(txCtx, "create", "role", nil, roleSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&role.CreatedEvent{Result: created})
	return created, nil
}

func (s *RoleService) Update(ctx context.Context, data *role.Role) error {
	existing, err := s.repo.GetByID(ctx, data.ID())
	if err != nil {
		return err
	}
	before := roleSnapshot(existing)

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, data); err != nil {
			return errors.Wrap(err, "failed to update role")
		}
		_, err := s.audit.RecordChange(txCtx, "update", "role", before, roleSnapshot(data))
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&role.UpdatedEvent{Result: data})
	return nil
}

// Delete refuses to remove a role while users still hold it. The count and
// the delete run in one transaction so a concurrent assignment cannot slip
// between them.
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		holders, err := s.repo.CountUsersWithRole(txCtx, id)
		if err != nil {
			return err
		}
		if holders > 0 {
			return ErrRoleInUse.WithHint("%d users hold %s", holders, existing.Name())
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return errors.Wrap(err, "failed to delete role")
		}
		_, err = s.audit.RecordChange(txCtx, "delete", "role", roleSnapshot(existing), nil)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&role.DeletedEvent{Result: existing})
	return nil
}

func roleSnapshot(r *role.Role) map[string]any {
	perms := make([]string, 0, len(r.Permissions()))
	for _, p := range r.Permissions() {
		perms = append(perms, p.Name)
	}
	snapshot := map[string]any{
		"id":   r.ID().String(),
		"name": r.Name(),
	}
	if r.Description() != "" {
		snapshot["description"] = r.Description()
	}
	if len(perms) > 0 {
		snapshot["permissions"] = perms
	}
	return snapshot
}
