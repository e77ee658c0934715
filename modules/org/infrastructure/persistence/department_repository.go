package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/org/domain/entities/department"
	"github.com/addissystems/orgadmin/modules/org/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrDepartmentNotFound = serrors.NewError("DEPARTMENT_NOT_FOUND", "department not found", "")
)

const (
	departmentFindQuery = `
		SELECT d.id, d.name, d.organization_id, d.sector_id, d.created_at, d.updated_at
		FROM departments d`

	departmentDeleteQuery = `DELETE FROM departments WHERE id = $1`

	departmentCountByOrganizationQuery = `SELECT COUNT(*) FROM departments WHERE organization_id = $1`
	departmentCountBySectorQuery       = `SELECT COUNT(*) FROM departments WHERE sector_id = $1`
)

type PgDepartmentRepository struct{}

func NewDepartmentRepository() department.Repository {
	return &PgDepartmentRepository{}
}

func (g *PgDepartmentRepository) queryDepartments(ctx context.Context, query string, args ...interface{}) ([]*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*department.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.OrganizationID, &d.SectorID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		entity, err := ToDomainDepartment(&d)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (g *PgDepartmentRepository) GetAll(ctx context.Context) ([]*department.Department, error) {
	departments, err := g.queryDepartments(ctx, departmentFindQuery+" ORDER BY d.name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all departments")
	}
	return departments, nil
}

func (g *PgDepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	departments, err := g.queryDepartments(ctx, departmentFindQuery+" WHERE d.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query department %s", id)
	}
	if len(departments) == 0 {
		return nil, ErrDepartmentNotFound.WithHint("id %s", id)
	}
	return departments[0], nil
}

func (g *PgDepartmentRepository) GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*department.Department, error) {
	departments, err := g.queryDepartments(ctx, departmentFindQuery+" WHERE d.organization_id = $1 ORDER BY d.name", organizationID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get departments by organization")
	}
	return departments, nil
}

func (g *PgDepartmentRepository) GetBySector(ctx context.Context, sectorID uuid.UUID) ([]*department.Department, error) {
	departments, err := g.queryDepartments(ctx, departmentFindQuery+" WHERE d.sector_id = $1 ORDER BY d.name", sectorID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get departments by sector")
	}
	return departments, nil
}

func (g *PgDepartmentRepository) Create(ctx context.Context, data *department.Department) (*department.Department, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbDepartment := ToDBDepartment(data)
	fields := []string{"id", "name", "organization_id", "sector_id", "created_at", "updated_at"}
	if _, err := tx.Exec(ctx, repo.Insert("departments", fields),
		dbDepartment.ID,
		dbDepartment.Name,
		dbDepartment.OrganizationID,
		dbDepartment.SectorID,
		dbDepartment.CreatedAt,
		dbDepartment.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert department")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgDepartmentRepository) Update(ctx context.Context, data *department.Department) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbDepartment := ToDBDepartment(data)
	query := repo.Update("departments", []string{"name", "sector_id", "updated_at"}, "id = $4")
	if _, err := tx.Exec(ctx, query, dbDepartment.Name, dbDepartment.SectorID, dbDepartment.UpdatedAt, dbDepartment.ID); err != nil {
		return errors.Wrap(err, "failed to update department")
	}
	return nil
}

func (g *PgDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, departmentDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete department")
	}
	return nil
}

func (g *PgDepartmentRepository) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	return g.scalarCount(ctx, departmentCountByOrganizationQuery, organizationID.String())
}

func (g *PgDepartmentRepository) CountBySector(ctx context.Context, sectorID uuid.UUID) (int64, error) {
	return g.scalarCount(ctx, departmentCountBySectorQuery, sectorID.String())
}

func (g *PgDepartmentRepository) scalarCount(ctx context.Context, query string, args ...interface{}) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count departments")
	}
	return count, nil
}
