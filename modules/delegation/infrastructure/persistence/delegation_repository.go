package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/addissystems/orgadmin/modules/delegation/domain/delegation"
	"github.com/addissystems/orgadmin/modules/delegation/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/metrics"
	"github.com/addissystems/orgadmin/pkg/repo"
)

const (
	delegationFindQuery = `
		SELECT d.id, d.delegator_id, d.delegatee_id,
		       d.can_manage_teams, d.can_manage_departments, d.can_approve_reports,
		       d.reason, d.start_date, d.end_date, d.status, d.created_at, d.updated_at
		FROM delegations d`

	delegationExpireOverdueQuery = `
		UPDATE delegations
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_date IS NOT NULL AND end_date < $1`
)

// uniqueViolation is the PostgreSQL error code raised when the partial
// unique index on delegations(delegatee_id) WHERE status = 'active' is hit.
const uniqueViolation = "23505"

type PgDelegationRepository struct{}

func NewDelegationRepository() delegation.Repository {
	return &PgDelegationRepository{}
}

func (g *PgDelegationRepository) queryDelegations(ctx context.Context, query string, args ...interface{}) ([]*delegation.Delegation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*delegation.Delegation
	for rows.Next() {
		var d models.Delegation
		if err := rows.Scan(
			&d.ID,
			&d.DelegatorID,
			&d.DelegateeID,
			&d.CanManageTeams,
			&d.CanManageDepartments,
			&d.CanApproveReports,
			&d.Reason,
			&d.StartDate,
			&d.EndDate,
			&d.Status,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entity, err := ToDomainDelegation(&d)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (g *PgDelegationRepository) GetByID(ctx context.Context, id uuid.UUID) (*delegation.Delegation, error) {
	delegations, err := g.queryDelegations(ctx, delegationFindQuery+" WHERE d.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query delegation %s", id)
	}
	if len(delegations) == 0 {
		return nil, delegation.ErrDelegationNotFound.WithHint("id %s", id)
	}
	return delegations[0], nil
}

func (g *PgDelegationRepository) FindActiveByDelegatee(ctx context.Context, delegateeID uuid.UUID) (*delegation.Delegation, error) {
	delegations, err := g.queryDelegations(ctx,
		delegationFindQuery+" WHERE d.delegatee_id = $1 AND d.status = 'active'",
		delegateeID.String(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active delegation")
	}
	if len(delegations) == 0 {
		return nil, nil
	}
	return delegations[0], nil
}

func (g *PgDelegationRepository) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*delegation.Delegation, error) {
	delegations, err := g.queryDelegations(ctx,
		delegationFindQuery+" WHERE d.delegator_id = $1 OR d.delegatee_id = $1 ORDER BY d.created_at DESC",
		userID.String(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find delegations by participant")
	}
	return delegations, nil
}

func (g *PgDelegationRepository) Create(ctx context.Context, data *delegation.Delegation) (*delegation.Delegation, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbDelegation := ToDBDelegation(data)
	fields := []string{
		"id", "delegator_id", "delegatee_id",
		"can_manage_teams", "can_manage_departments", "can_approve_reports",
		"reason", "start_date", "end_date", "status", "created_at", "updated_at",
	}
	if _, err := tx.Exec(ctx, repo.Insert("delegations", fields),
		dbDelegation.ID,
		dbDelegation.DelegatorID,
		dbDelegation.DelegateeID,
		dbDelegation.CanManageTeams,
		dbDelegation.CanManageDepartments,
		dbDelegation.CanApproveReports,
		dbDelegation.Reason,
		dbDelegation.StartDate,
		dbDelegation.EndDate,
		dbDelegation.Status,
		dbDelegation.CreatedAt,
		dbDelegation.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			metrics.RecordWriteConflict("delegation")
			return nil, delegation.ErrActiveDelegationExists
		}
		return nil, errors.Wrap(err, "failed to insert delegation")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgDelegationRepository) Update(ctx context.Context, data *delegation.Delegation) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbDelegation := ToDBDelegation(data)
	query := repo.Update("delegations", []string{"status", "end_date", "updated_at"}, "id = $4")
	if _, err := tx.Exec(ctx, query, dbDelegation.Status, dbDelegation.EndDate, dbDelegation.UpdatedAt, dbDelegation.ID); err != nil {
		return errors.Wrap(err, "failed to update delegation")
	}
	return nil
}

func (g *PgDelegationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	tag, err := tx.Exec(ctx, delegationExpireOverdueQuery, now)
	if err != nil {
		return 0, errors.Wrap(err, "failed to expire overdue delegations")
	}
	return tag.RowsAffected(), nil
}
