package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/org/domain/entities/sector"
	"github.com/addissystems/orgadmin/modules/org/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrSectorNotFound = serrors.NewError("SECTOR_NOT_FOUND", "sector not found", "")
)

const (
	sectorFindQuery = `
		SELECT s.id, s.name, s.organization_id, s.created_at, s.updated_at
		FROM sectors s`

	sectorDeleteQuery = `DELETE FROM sectors WHERE id = $1`

	sectorCountByOrganizationQuery = `SELECT COUNT(*) FROM sectors WHERE organization_id = $1`
)

type PgSectorRepository struct{}

func NewSectorRepository() sector.Repository {
	return &PgSectorRepository{}
}

func (g *PgSectorRepository) querySectors(ctx context.Context, query string, args ...interface{}) ([]*sector.Sector, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*sector.Sector
	for rows.Next() {
		var s models.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.OrganizationID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		entity, err := ToDomainSector(&s)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (g *PgSectorRepository) GetAll(ctx context.Context) ([]*sector.Sector, error) {
	sectors, err := g.querySectors(ctx, sectorFindQuery+" ORDER BY s.name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all sectors")
	}
	return sectors, nil
}

func (g *PgSectorRepository) GetByID(ctx context.Context, id uuid.UUID) (*sector.Sector, error) {
	sectors, err := g.querySectors(ctx, sectorFindQuery+" WHERE s.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query sector %s", id)
	}
	if len(sectors) == 0 {
		return nil, ErrSectorNotFound.WithHint("id %s", id)
	}
	return sectors[0], nil
}

func (g *PgSectorRepository) GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*sector.Sector, error) {
	sectors, err := g.querySectors(ctx, sectorFindQuery+" WHERE s.organization_id = $1 ORDER BY s.name", organizationID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sectors by organization")
	}
	return sectors, nil
}

func (g *PgSectorRepository) Create(ctx context.Context, data *sector.Sector) (*sector.Sector, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbSector := ToDBSector(data)
	fields := []string{"id", "name", "organization_id", "created_at", "updated_at"}
	if _, err := tx.Exec(ctx, repo.Insert("sectors", fields),
		dbSector.ID, dbSector.Name, dbSector.OrganizationID, dbSector.CreatedAt, dbSector.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert sector")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgSectorRepository) Update(ctx context.Context, data *sector.Sector) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbSector := ToDBSector(data)
	query := repo.Update("sectors", []string{"name", "updated_at"}, "id = $3")
	if _, err := tx.Exec(ctx, query, dbSector.Name, dbSector.UpdatedAt, dbSector.ID); err != nil {
		return errors.Wrap(err, "failed to update sector")
	}
	return nil
}

func (g *PgSectorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, sectorDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete sector")
	}
	return nil
}

func (g *PgSectorRepository) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, sectorCountByOrganizationQuery, organizationID.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count sectors")
	}
	return count, nil
}
