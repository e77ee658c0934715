package persistence

import (
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/org/domain/entities/department"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/organization"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/sector"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/team"
	"github.com/addissystems/orgadmin/modules/org/infrastructure/persistence/models"
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

func ToDomainOrganization(dbOrg *models.Organization) (*organization.Organization, error) {
	id, err := uuid.Parse(dbOrg.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization id")
	}
	parentID, err := parseNullableUUID(dbOrg.ParentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse parent id")
	}
	return organization.New(
		dbOrg.Name,
		organization.Type(dbOrg.Type),
		organization.WithID(id),
		organization.WithParentID(parentID),
		organization.WithCreatedAt(dbOrg.CreatedAt),
		organization.WithUpdatedAt(dbOrg.UpdatedAt),
	), nil
}

func ToDBOrganization(entity *organization.Organization) *models.Organization {
	return &models.Organization{
		ID:        entity.ID().String(),
		Name:      entity.Name(),
		Type:      string(entity.Type()),
		ParentID:  nullableUUIDString(entity.ParentID()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

func ToDomainSector(dbSector *models.Sector) (*sector.Sector, error) {
	id, err := uuid.Parse(dbSector.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse sector id")
	}
	organizationID, err := uuid.Parse(dbSector.OrganizationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization id")
	}
	return sector.New(
		dbSector.Name,
		organizationID,
		sector.WithID(id),
		sector.WithCreatedAt(dbSector.CreatedAt),
		sector.WithUpdatedAt(dbSector.UpdatedAt),
	), nil
}

func ToDBSector(entity *sector.Sector) *models.Sector {
	return &models.Sector{
		ID:             entity.ID().String(),
		Name:           entity.Name(),
		OrganizationID: entity.OrganizationID().String(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}
}

func ToDomainDepartment(dbDepartment *models.Department) (*department.Department, error) {
	id, err := uuid.Parse(dbDepartment.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse department id")
	}
	organizationID, err := uuid.Parse(dbDepartment.OrganizationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse organization id")
	}
	sectorID, err := parseNullableUUID(dbDepartment.SectorID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse sector id")
	}
	return department.New(
		dbDepartment.Name,
		organizationID,
		department.WithID(id),
		department.WithSectorID(sectorID),
		department.WithCreatedAt(dbDepartment.CreatedAt),
		department.WithUpdatedAt(dbDepartment.UpdatedAt),
	), nil
}

func ToDBDepartment(entity *department.Department) *models.Department {
	return &models.Department{
		ID:             entity.ID().String(),
		Name:           entity.Name(),
		OrganizationID: entity.OrganizationID().String(),
		SectorID:       nullableUUIDString(entity.SectorID()),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}
}

func ToDomainTeam(dbTeam *models.Team, memberIDs []uuid.UUID) (*team.Team, error) {
	id, err := uuid.Parse(dbTeam.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse team id")
	}
	departmentID, err := uuid.Parse(dbTeam.DepartmentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse department id")
	}
	teamLeaderID, err := parseNullableUUID(dbTeam.TeamLeaderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse team leader id")
	}
	return team.New(
		dbTeam.Name,
		departmentID,
		team.WithID(id),
		team.WithTeamLeaderID(teamLeaderID),
		team.WithMemberIDs(memberIDs),
		team.WithCreatedAt(dbTeam.CreatedAt),
		team.WithUpdatedAt(dbTeam.UpdatedAt),
	), nil
}

func ToDBTeam(entity *team.Team) *models.Team {
	return &models.Team{
		ID:           entity.ID().String(),
		Name:         entity.Name(),
		DepartmentID: entity.DepartmentID().String(),
		TeamLeaderID: nullableUUIDString(entity.TeamLeaderID()),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}
}
