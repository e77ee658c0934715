package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
	"github.com/addissystems/orgadmin/modules/core/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrRoleNotFound = serrors.NewError("ROLE_NOT_FOUND", "role not found", "")
)

const (
	roleFindQuery = `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM roles r`

	roleCountQuery = `SELECT COUNT(r.id) FROM roles r`

	roleDeleteQuery = `DELETE FROM roles WHERE id = $1`

	rolePermissionsQuery = `
		SELECT p.id, p.name, p.resource, p.action
		FROM role_permissions rp LEFT JOIN permissions p ON rp.permission_id = p.id
		WHERE rp.role_id = $1`

	rolePermissionDeleteQuery = `DELETE FROM role_permissions WHERE role_id = $1`
	rolePermissionInsertQuery = `INSERT INTO role_permissions (role_id, permission_id) VALUES`

	roleUsersCountQuery = `SELECT COUNT(*) FROM user_roles WHERE role_id = $1`

	permissionUpsertQuery = `
		INSERT INTO permissions (id, name, resource, action)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, resource = EXCLUDED.resource, action = EXCLUDED.action`
)

func rolePermissions(ctx context.Context, roleID string) ([]*models.Permission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, rolePermissionsQuery, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []*models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action); err != nil {
			return nil, err
		}
		permissions = append(permissions, &p)
	}
	return permissions, rows.Err()
}

type PgRoleRepository struct{}

func NewRoleRepository() role.Repository {
	return &PgRoleRepository{}
}

func (g *PgRoleRepository) queryRoles(ctx context.Context, query string, args ...interface{}) ([]*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dbRoles []*models.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		dbRoles = append(dbRoles, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*role.Role, 0, len(dbRoles))
	for _, dbRole := range dbRoles {
		permissions, err := rolePermissions(ctx, dbRole.ID)
		if err != nil {
			return nil, err
		}
		entity, err := ToDomainRole(dbRole, permissions)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (g *PgRoleRepository) GetAll(ctx context.Context) ([]*role.Role, error) {
	roles, err := g.queryRoles(ctx, roleFindQuery+" ORDER BY r.name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all roles")
	}
	return roles, nil
}

func (g *PgRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	roles, err := g.queryRoles(ctx, roleFindQuery+" WHERE r.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query role %s", id)
	}
	if len(roles) == 0 {
		return nil, ErrRoleNotFound.WithHint("id %s", id)
	}
	return roles[0], nil
}

func (g *PgRoleRepository) GetPaginated(ctx context.Context, params *role.FindParams) ([]*role.Role, error) {
	query := repo.Join(
		roleFindQuery,
		"ORDER BY r.name",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	roles, err := g.queryRoles(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paginated roles")
	}
	return roles, nil
}

func (g *PgRoleRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, roleCountQuery).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count roles")
	}
	return count, nil
}

func (g *PgRoleRepository) Create(ctx context.Context, data *role.Role) (*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbRole := ToDBRole(data)
	fields := []string{"id", "name", "description", "created_at", "updated_at"}
	if _, err := tx.Exec(ctx, repo.Insert("roles", fields),
		dbRole.ID,
		dbRole.Name,
		dbRole.Description,
		dbRole.CreatedAt,
		dbRole.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert role")
	}

	if err := g.syncPermissions(ctx, data); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgRoleRepository) Update(ctx context.Context, data *role.Role) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbRole := ToDBRole(data)
	query := repo.Update("roles", []string{"name", "description", "updated_at"}, "id = $4")
	if _, err := tx.Exec(ctx, query, dbRole.Name, dbRole.Description, dbRole.UpdatedAt, dbRole.ID); err != nil {
		return errors.Wrap(err, "failed to update role")
	}
	return g.syncPermissions(ctx, data)
}

func (g *PgRoleRepository) syncPermissions(ctx context.Context, data *role.Role) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	roleID := data.ID().String()

	if _, err := tx.Exec(ctx, rolePermissionDeleteQuery, roleID); err != nil {
		return errors.Wrap(err, "failed to clear role permissions")
	}
	permissions := data.Permissions()
	if len(permissions) == 0 {
		return nil
	}

	// Permissions come from the static catalog; upsert keeps the lookup
	// table aligned with it.
	rows := make([][]any, 0, len(permissions))
	for _, p := range permissions {
		if _, err := tx.Exec(ctx, permissionUpsertQuery,
			p.ID.String(), p.Name, string(p.Resource), string(p.Action),
		); err != nil {
			return errors.Wrap(err, "failed to upsert permission")
		}
		rows = append(rows, []any{roleID, p.ID.String()})
	}
	query, args := repo.BatchInsertQueryN(rolePermissionInsertQuery, rows)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to insert role permissions")
	}
	return nil
}

func (g *PgRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, rolePermissionDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to clear role permissions")
	}
	if _, err := tx.Exec(ctx, roleDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete role")
	}
	return nil
}

func (g *PgRoleRepository) CountUsersWithRole(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, roleUsersCountQuery, id.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count role holders")
	}
	return count, nil
}
