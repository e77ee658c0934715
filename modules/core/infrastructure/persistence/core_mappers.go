package persistence

import (
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/role"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/core/domain/entities/permission"
	"github.com/addissystems/orgadmin/modules/core/infrastructure/persistence/models"
)

func parseNullableUUID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nullableUUIDString(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func ToDomainUser(dbUser *models.User, roles []*role.Role, managedDepartmentIDs, managedTeamIDs []uuid.UUID) (*user.User, error) {
	id, err := uuid.Parse(dbUser.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse user id")
	}
	level, err := user.NewAccessLevel(dbUser.AccessLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "user %s", dbUser.ID)
	}

	organizationID, err := parseNullableUUID(dbUser.OrganizationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization id")
	}
	sectorID, err := parseNullableUUID(dbUser.SectorID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse sector id")
	}
	departmentID, err := parseNullableUUID(dbUser.DepartmentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse department id")
	}
	teamID, err := parseNullableUUID(dbUser.TeamID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse team id")
	}
	reportsToID, err := parseNullableUUID(dbUser.ReportsToID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse reports_to id")
	}

	var delegated *user.DelegatedAuthority
	if len(dbUser.DelegatedAuthority) > 0 {
		var raw models.DelegatedAuthority
		if err := json.Unmarshal(dbUser.DelegatedAuthority, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to decode delegated authority")
		}
		delegationID, err := uuid.Parse(raw.DelegationID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse delegation id")
		}
		delegated = &user.DelegatedAuthority{
			DelegationID:         delegationID,
			CanManageTeams:       raw.CanManageTeams,
			CanManageDepartments: raw.CanManageDepartments,
			CanApproveReports:    raw.CanApproveReports,
			ExpiresAt:            raw.ExpiresAt,
		}
	}

	return user.New(
		dbUser.FirstName,
		dbUser.LastName,
		dbUser.Email,
		level,
		user.WithID(id),
		user.WithOrganizationType(dbUser.OrganizationType.String),
		user.WithOrganizationID(organizationID),
		user.WithSectorID(sectorID),
		user.WithDepartmentID(departmentID),
		user.WithTeamID(teamID),
		user.WithReportsToID(reportsToID),
		user.WithManagedDepartmentIDs(managedDepartmentIDs),
		user.WithManagedTeamIDs(managedTeamIDs),
		user.WithRoles(roles),
		user.WithDelegatedAuthority(delegated),
		user.WithStatus(user.Status(dbUser.Status)),
		user.WithCreatedAt(dbUser.CreatedAt),
		user.WithUpdatedAt(dbUser.UpdatedAt),
	), nil
}

func ToDBUser(entity *user.User) (*models.User, error) {
	var delegated []byte
	if d := entity.DelegatedAuthority(); d != nil {
		raw, err := encodeDelegatedAuthority(d)
		if err != nil {
			return nil, err
		}
		delegated = raw
	}

	organizationType := sql.NullString{String: entity.OrganizationType(), Valid: entity.OrganizationType() != ""}

	return &models.User{
		ID:                 entity.ID().String(),
		FirstName:          entity.FirstName(),
		LastName:           entity.LastName(),
		Email:              entity.Email(),
		AccessLevel:        string(entity.AccessLevel()),
		OrganizationType:   organizationType,
		OrganizationID:     nullableUUIDString(entity.OrganizationID()),
		SectorID:           nullableUUIDString(entity.SectorID()),
		DepartmentID:       nullableUUIDString(entity.DepartmentID()),
		TeamID:             nullableUUIDString(entity.TeamID()),
		ReportsToID:        nullableUUIDString(entity.ReportsToID()),
		DelegatedAuthority: delegated,
		Status:             string(entity.Status()),
		CreatedAt:          entity.CreatedAt(),
		UpdatedAt:          entity.UpdatedAt(),
	}, nil
}

func encodeDelegatedAuthority(d *user.DelegatedAuthority) ([]byte, error) {
	raw, err := json.Marshal(&models.DelegatedAuthority{
		DelegationID:         d.DelegationID.String(),
		CanManageTeams:       d.CanManageTeams,
		CanManageDepartments: d.CanManageDepartments,
		CanApproveReports:    d.CanApproveReports,
		ExpiresAt:            d.ExpiresAt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode delegated authority")
	}
	return raw, nil
}

func ToDomainRole(dbRole *models.Role, dbPermissions []*models.Permission) (*role.Role, error) {
	id, err := uuid.Parse(dbRole.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse role id")
	}

	perms := make([]*permission.Permission, 0, len(dbPermissions))
	for _, p := range dbPermissions {
		mapped, err := ToDomainPermission(p)
		if err != nil {
			return nil, err
		}
		perms = append(perms, mapped)
	}

	return role.New(
		dbRole.Name,
		role.WithID(id),
		role.WithDescription(dbRole.Description.String),
		role.WithPermissions(perms),
		role.WithCreatedAt(dbRole.CreatedAt),
		role.WithUpdatedAt(dbRole.UpdatedAt),
	), nil
}

func ToDBRole(entity *role.Role) *models.Role {
	return &models.Role{
		ID:          entity.ID().String(),
		Name:        entity.Name(),
		Description: sql.NullString{String: entity.Description(), Valid: entity.Description() != ""},
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
}

func ToDomainPermission(dbPermission *models.Permission) (*permission.Permission, error) {
	id, err := uuid.Parse(dbPermission.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse permission id")
	}
	return &permission.Permission{
		ID:       id,
		Name:     dbPermission.Name,
		Resource: permission.Resource(dbPermission.Resource),
		Action:   permission.Action(dbPermission.Action),
	}, nil
}
