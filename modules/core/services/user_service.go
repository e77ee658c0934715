package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/eventbus"
)

type auditRecorder interface {
	RecordChange(ctx context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error)
}

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
	audit     auditRecorder

	// inTx runs a function transactionally; swapped out in tests.
	inTx func(context.Context, func(context.Context) error) error
}

func NewUserService(repo user.Repository, publisher eventbus.EventBus, audit auditRecorder) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
		audit:     audit,
		inTx:      composables.InTx,
	}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) GetAll(ctx context.Context) ([]*user.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) GetPaginated(ctx context.Context, params *user.FindParams) ([]*user.User, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *UserService) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

func (s *UserService) Create(ctx context.Context, data *user.User) (*user.User, error) {
	if !data.AccessLevel().IsValid() {
		return nil, user.ErrInvalidAccessLevel
	}

	var created *user.User
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, data)
		if err != nil {
			return errors.Wrap(err, "failed to create user")
		}
		_, err = s.audit.RecordChange(txCtx, "create", "user", nil, userSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&user.CreatedEvent{Result: created})
	return created, nil
}

func (s *UserService) Update(ctx context.Context, data *user.User) error {
	existing, err := s.repo.GetByID(ctx, data.ID())
	if err != nil {
		return err
	}
	before := userSnapshot(existing)

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, data); err != nil {
			return errors.Wrap(err, "failed to update user")
		}
		_, err := s.audit.RecordChange(txCtx, "update", "user", before, userSnapshot(data))
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&user.UpdatedEvent{Result: data})
	return nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return errors.Wrap(err, "failed to delete user")
		}
		_, err := s.audit.RecordChange(txCtx, "delete", "user", userSnapshot(existing), nil)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&user.DeletedEvent{Result: existing})
	return nil
}

func userSnapshot(u *user.User) map[string]any {
	snapshot := map[string]any{
		"id":          u.ID().String(),
		"firstName":   u.FirstName(),
		"lastName":    u.LastName(),
		"email":       u.Email(),
		"accessLevel": string(u.AccessLevel()),
		"status":      string(u.Status()),
	}
	if u.OrganizationID() != nil {
		snapshot["organizationId"] = u.OrganizationID().String()
	}
	if u.SectorID() != nil {
		snapshot["sectorId"] = u.SectorID().String()
	}
	if u.DepartmentID() != nil {
		snapshot["departmentId"] = u.DepartmentID().String()
	}
	if u.TeamID() != nil {
		snapshot["teamId"] = u.TeamID().String()
	}
	if u.ReportsToID() != nil {
		snapshot["reportsToId"] = u.ReportsToID().String()
	}
	roles := make([]string, 0, len(u.Roles()))
	for _, r := range u.Roles() {
		roles = append(roles, r.Name())
	}
	if len(roles) > 0 {
		snapshot["roles"] = roles
	}
	return snapshot
}
