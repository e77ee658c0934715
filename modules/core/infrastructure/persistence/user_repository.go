package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/core/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrUserNotFound = serrors.NewError("USER_NOT_FOUND", "user not found", "")
)

const (
	userFindQuery = `
		SELECT
			u.id,
			u.first_name,
			u.last_name,
			u.email,
			u.access_level,
			u.organization_type,
			u.organization_id,
			u.sector_id,
			u.department_id,
			u.team_id,
			u.reports_to_id,
			u.delegated_authority,
			u.status,
			u.created_at,
			u.updated_at
		FROM users u`

	userCountQuery = `SELECT COUNT(u.id) FROM users u`

	userDeleteQuery = `DELETE FROM users WHERE id = $1`

	userRolesQuery = `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM user_roles ur LEFT JOIN roles r ON ur.role_id = r.id
		WHERE ur.user_id = $1`

	userRoleDeleteQuery = `DELETE FROM user_roles WHERE user_id = $1`
	userRoleInsertQuery = `INSERT INTO user_roles (user_id, role_id) VALUES`

	userManagedDepartmentsQuery       = `SELECT department_id FROM user_managed_departments WHERE user_id = $1`
	userManagedDepartmentsDeleteQuery = `DELETE FROM user_managed_departments WHERE user_id = $1`
	userManagedDepartmentsInsertQuery = `INSERT INTO user_managed_departments (user_id, department_id) VALUES`

	userManagedTeamsQuery       = `SELECT team_id FROM user_managed_teams WHERE user_id = $1`
	userManagedTeamsDeleteQuery = `DELETE FROM user_managed_teams WHERE user_id = $1`
	userManagedTeamsInsertQuery = `INSERT INTO user_managed_teams (user_id, team_id) VALUES`

	userUpdateDelegatedAuthorityQuery = `UPDATE users SET delegated_authority = $1, updated_at = NOW() WHERE id = $2`

	userCountByOrganizationQuery = `SELECT COUNT(*) FROM users WHERE organization_id = $1`
	userCountBySectorQuery       = `SELECT COUNT(*) FROM users WHERE sector_id = $1`
	userCountByDepartmentQuery   = `SELECT COUNT(*) FROM users WHERE department_id = $1`
	userCountByTeamQuery         = `SELECT COUNT(*) FROM users WHERE team_id = $1`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dbUsers []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Email,
			&u.AccessLevel,
			&u.OrganizationType,
			&u.OrganizationID,
			&u.SectorID,
			&u.DepartmentID,
			&u.TeamID,
			&u.ReportsToID,
			&u.DelegatedAuthority,
			&u.Status,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		dbUsers = append(dbUsers, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*user.User, 0, len(dbUsers))
	for _, dbUser := range dbUsers {
		roles, err := g.userRoles(ctx, dbUser.ID)
		if err != nil {
			return nil, err
		}
		managedDepartments, err := g.queryIDs(ctx, userManagedDepartmentsQuery, dbUser.ID)
		if err != nil {
			return nil, err
		}
		managedTeams, err := g.queryIDs(ctx, userManagedTeamsQuery, dbUser.ID)
		if err != nil {
			return nil, err
		}
		entity, err := ToDomainUser(dbUser, roles, managedDepartments, managedTeams)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (g *PgUserRepository) userRoles(ctx context.Context, userID string) ([]*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, userRolesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*role.Role
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		permissions, err := rolePermissions(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		entity, err := ToDomainRole(&r, permissions)
		if err != nil {
			return nil, err
		}
		roles = append(roles, entity)
	}
	return roles, rows.Err()
}

func (g *PgUserRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (g *PgUserRepository) GetAll(ctx context.Context) ([]*user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all users")
	}
	return users, nil
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery+" WHERE u.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query user %s", id)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound.WithHint("id %s", id)
	}
	return users[0], nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	users, err := g.queryUsers(ctx, userFindQuery+" WHERE u.email = $1", email)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query user %s", email)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound.WithHint("email %s", email)
	}
	return users[0], nil
}

func (g *PgUserRepository) buildFilters(params *user.FindParams) ([]string, []interface{}) {
	var where []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.OrganizationID != nil {
		add("u.organization_id", params.OrganizationID.String())
	}
	if params.SectorID != nil {
		add("u.sector_id", params.SectorID.String())
	}
	if params.DepartmentID != nil {
		add("u.department_id", params.DepartmentID.String())
	}
	if params.TeamID != nil {
		add("u.team_id", params.TeamID.String())
	}
	if params.Status != "" {
		add("u.status", string(params.Status))
	}
	return where, args
}

func (g *PgUserRepository) GetPaginated(ctx context.Context, params *user.FindParams) ([]*user.User, error) {
	where, args := g.buildFilters(params)
	query := repo.Join(
		userFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY u.last_name, u.first_name",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	users, err := g.queryUsers(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paginated users")
	}
	return users, nil
}

func (g *PgUserRepository) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	where, args := g.buildFilters(params)
	query := repo.Join(userCountQuery, repo.JoinWhere(where...))

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}

func (g *PgUserRepository) Create(ctx context.Context, data *user.User) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbUser, err := ToDBUser(data)
	if err != nil {
		return nil, err
	}

	fields := []string{
		"id",
		"first_name",
		"last_name",
		"email",
		"access_level",
		"organization_type",
		"organization_id",
		"sector_id",
		"department_id",
		"team_id",
		"reports_to_id",
		"delegated_authority",
		"status",
		"created_at",
		"updated_at",
	}
	if _, err := tx.Exec(ctx, repo.Insert("users", fields), dbUser.ID,
		dbUser.FirstName,
		dbUser.LastName,
		dbUser.Email,
		dbUser.AccessLevel,
		dbUser.OrganizationType,
		dbUser.OrganizationID,
		dbUser.SectorID,
		dbUser.DepartmentID,
		dbUser.TeamID,
		dbUser.ReportsToID,
		dbUser.DelegatedAuthority,
		dbUser.Status,
		dbUser.CreatedAt,
		dbUser.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert user")
	}

	if err := g.syncAssociations(ctx, data); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgUserRepository) Update(ctx context.Context, data *user.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbUser, err := ToDBUser(data)
	if err != nil {
		return err
	}

	fields := []string{
		"first_name",
		"last_name",
		"email",
		"access_level",
		"organization_type",
		"organization_id",
		"sector_id",
		"department_id",
		"team_id",
		"reports_to_id",
		"delegated_authority",
		"status",
		"updated_at",
	}
	query := repo.Update("users", fields, "id = $14")
	if _, err := tx.Exec(ctx, query,
		dbUser.FirstName,
		dbUser.LastName,
		dbUser.Email,
		dbUser.AccessLevel,
		dbUser.OrganizationType,
		dbUser.OrganizationID,
		dbUser.SectorID,
		dbUser.DepartmentID,
		dbUser.TeamID,
		dbUser.ReportsToID,
		dbUser.DelegatedAuthority,
		dbUser.Status,
		dbUser.UpdatedAt,
		dbUser.ID,
	); err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	return g.syncAssociations(ctx, data)
}

func (g *PgUserRepository) syncAssociations(ctx context.Context, data *user.User) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	userID := data.ID().String()

	if _, err := tx.Exec(ctx, userRoleDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to clear user roles")
	}
	if roles := data.Roles(); len(roles) > 0 {
		rows := make([][]any, 0, len(roles))
		for _, r := range roles {
			rows = append(rows, []any{userID, r.ID().String()})
		}
		query, args := repo.BatchInsertQueryN(userRoleInsertQuery, rows)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return errors.Wrap(err, "failed to insert user roles")
		}
	}

	if _, err := tx.Exec(ctx, userManagedDepartmentsDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to clear managed departments")
	}
	if ids := data.ManagedDepartmentIDs(); len(ids) > 0 {
		rows := make([][]any, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, []any{userID, id.String()})
		}
		query, args := repo.BatchInsertQueryN(userManagedDepartmentsInsertQuery, rows)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return errors.Wrap(err, "failed to insert managed departments")
		}
	}

	if _, err := tx.Exec(ctx, userManagedTeamsDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to clear managed teams")
	}
	if ids := data.ManagedTeamIDs(); len(ids) > 0 {
		rows := make([][]any, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, []any{userID, id.String()})
		}
		query, args := repo.BatchInsertQueryN(userManagedTeamsInsertQuery, rows)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return errors.Wrap(err, "failed to insert managed teams")
		}
	}
	return nil
}

func (g *PgUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	userID := id.String()
	if _, err := tx.Exec(ctx, userRoleDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to clear user roles")
	}
	if _, err := tx.Exec(ctx, userManagedDepartmentsDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to clear managed departments")
	}
	if _, err := tx.Exec(ctx, userManagedTeamsDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to clear managed teams")
	}
	if _, err := tx.Exec(ctx, userDeleteQuery, userID); err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	return nil
}

func (g *PgUserRepository) UpdateDelegatedAuthority(ctx context.Context, userID uuid.UUID, authority *user.DelegatedAuthority) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	var payload []byte
	if authority != nil {
		raw, err := encodeDelegatedAuthority(authority)
		if err != nil {
			return err
		}
		payload = raw
	}
	if _, err := tx.Exec(ctx, userUpdateDelegatedAuthorityQuery, payload, userID.String()); err != nil {
		return errors.Wrap(err, "failed to update delegated authority")
	}
	return nil
}

func (g *PgUserRepository) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	return g.scalarCount(ctx, userCountByOrganizationQuery, organizationID.String())
}

func (g *PgUserRepository) CountBySector(ctx context.Context, sectorID uuid.UUID) (int64, error) {
	return g.scalarCount(ctx, userCountBySectorQuery, sectorID.String())
}

func (g *PgUserRepository) CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	return g.scalarCount(ctx, userCountByDepartmentQuery, departmentID.String())
}

func (g *PgUserRepository) CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	return g.scalarCount(ctx, userCountByTeamQuery, teamID.String())
}

func (g *PgUserRepository) scalarCount(ctx context.Context, query string, args ...interface{}) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return count, nil
}
