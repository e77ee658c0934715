package persistence

import (
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/delegation/domain/delegation"
	"github.com/addissystems/orgadmin/modules/delegation/infrastructure/persistence/models"
)

func ToDomainDelegation(dbDelegation *models.Delegation) (*delegation.Delegation, error) {
	id, err := uuid.Parse(dbDelegation.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse delegation id")
	}
	delegatorID, err := uuid.Parse(dbDelegation.DelegatorID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse delegator id")
	}
	delegateeID, err := uuid.Parse(dbDelegation.DelegateeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse delegatee id")
	}

	opts := []delegation.Option{
		delegation.WithID(id),
		delegation.WithStartDate(dbDelegation.StartDate),
		delegation.WithStatus(delegation.Status(dbDelegation.Status)),
		delegation.WithCreatedAt(dbDelegation.CreatedAt),
		delegation.WithUpdatedAt(dbDelegation.UpdatedAt),
	}
	if dbDelegation.Reason.Valid {
		opts = append(opts, delegation.WithReason(dbDelegation.Reason.String))
	}
	if dbDelegation.EndDate.Valid {
		endDate := dbDelegation.EndDate.Time
		opts = append(opts, delegation.WithEndDate(&endDate))
	}

	authority := delegation.Authority{
		CanManageTeams:       dbDelegation.CanManageTeams,
		CanManageDepartments: dbDelegation.CanManageDepartments,
		CanApproveReports:    dbDelegation.CanApproveReports,
	}
	return delegation.New(delegatorID, delegateeID, authority, opts...), nil
}

func ToDBDelegation(entity *delegation.Delegation) *models.Delegation {
	authority := entity.Authority()
	dbDelegation := &models.Delegation{
		ID:                   entity.ID().String(),
		DelegatorID:          entity.DelegatorID().String(),
		DelegateeID:          entity.DelegateeID().String(),
		CanManageTeams:       authority.CanManageTeams,
		CanManageDepartments: authority.CanManageDepartments,
		CanApproveReports:    authority.CanApproveReports,
		StartDate:            entity.StartDate(),
		Status:               string(entity.Status()),
		CreatedAt:            entity.CreatedAt(),
		UpdatedAt:            entity.UpdatedAt(),
	}
	if reason := entity.Reason(); reason != "" {
		dbDelegation.Reason = sql.NullString{String: reason, Valid: true}
	}
	if endDate := entity.EndDate(); endDate != nil {
		dbDelegation.EndDate = sql.NullTime{Time: *endDate, Valid: true}
	}
	return dbDelegation
}
