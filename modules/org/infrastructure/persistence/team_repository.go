package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/org/domain/entities/team"
	"github.com/addissystems/orgadmin/modules/org/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrTeamNotFound = serrors.NewError("TEAM_NOT_FOUND", "team not found", "")
)

const (
	teamFindQuery = `
		SELECT t.id, t.name, t.department_id, t.team_leader_id, t.created_at, t.updated_at
		FROM teams t`

	teamDeleteQuery = `DELETE FROM teams WHERE id = $1`

	teamMembersQuery       = `SELECT user_id FROM team_members WHERE team_id = $1`
	teamMembersDeleteQuery = `DELETE FROM team_members WHERE team_id = $1`
	teamMembersInsertQuery = `INSERT INTO team_members (team_id, user_id) VALUES`

	teamCountByDepartmentQuery = `SELECT COUNT(*) FROM teams WHERE department_id = $1`
)

type PgTeamRepository struct{}

func NewTeamRepository() team.Repository {
	return &PgTeamRepository{}
}

func (g *PgTeamRepository) queryTeams(ctx context.Context, query string, args ...interface{}) ([]*team.Team, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dbTeams []*models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.DepartmentID, &t.TeamLeaderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		dbTeams = append(dbTeams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*team.Team, 0, len(dbTeams))
	for _, dbTeam := range dbTeams {
		memberIDs, err := g.teamMembers(ctx, dbTeam.ID)
		if err != nil {
			return nil, err
		}
		entity, err := ToDomainTeam(dbTeam, memberIDs)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (g *PgTeamRepository) teamMembers(ctx context.Context, teamID string) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, teamMembersQuery, teamID)
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

func (g *PgTeamRepository) GetAll(ctx context.Context) ([]*team.Team, error) {
	teams, err := g.queryTeams(ctx, teamFindQuery+" ORDER BY t.name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all teams")
	}
	return teams, nil
}

func (g *PgTeamRepository) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	teams, err := g.queryTeams(ctx, teamFindQuery+" WHERE t.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query team %s", id)
	}
	if len(teams) == 0 {
		return nil, ErrTeamNotFound.WithHint("id %s", id)
	}
	return teams[0], nil
}

func (g *PgTeamRepository) GetByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*team.Team, error) {
	teams, err := g.queryTeams(ctx, teamFindQuery+" WHERE t.department_id = $1 ORDER BY t.name", departmentID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get teams by department")
	}
	return teams, nil
}

func (g *PgTeamRepository) Create(ctx context.Context, data *team.Team) (*team.Team, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbTeam := ToDBTeam(data)
	fields := []string{"id", "name", "department_id", "team_leader_id", "created_at", "updated_at"}
	if _, err := tx.Exec(ctx, repo.Insert("teams", fields),
		dbTeam.ID,
		dbTeam.Name,
		dbTeam.DepartmentID,
		dbTeam.TeamLeaderID,
		dbTeam.CreatedAt,
		dbTeam.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert team")
	}
	if err := g.syncMembers(ctx, data); err != nil {
		return nil, err
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgTeamRepository) Update(ctx context.Context, data *team.Team) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbTeam := ToDBTeam(data)
	query := repo.Update("teams", []string{"name", "team_leader_id", "updated_at"}, "id = $4")
	if _, err := tx.Exec(ctx, query, dbTeam.Name, dbTeam.TeamLeaderID, dbTeam.UpdatedAt, dbTeam.ID); err != nil {
		return errors.Wrap(err, "failed to update team")
	}
	return g.syncMembers(ctx, data)
}

func (g *PgTeamRepository) syncMembers(ctx context.Context, data *team.Team) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	teamID := data.ID().String()

	if _, err := tx.Exec(ctx, teamMembersDeleteQuery, teamID); err != nil {
		return errors.Wrap(err, "failed to clear team members")
	}
	members := data.MemberIDs()
	if len(members) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(members))
	for _, id := range members {
		rows = append(rows, []any{teamID, id.String()})
	}
	query, args := repo.BatchInsertQueryN(teamMembersInsertQuery, rows)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to insert team members")
	}
	return nil
}

func (g *PgTeamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, teamMembersDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to clear team members")
	}
	if _, err := tx.Exec(ctx, teamDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete team")
	}
	return nil
}

func (g *PgTeamRepository) CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, teamCountByDepartmentQuery, departmentID.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count teams")
	}
	return count, nil
}
