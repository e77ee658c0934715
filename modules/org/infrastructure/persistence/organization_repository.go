package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/org/domain/entities/organization"
	"github.com/addissystems/orgadmin/modules/org/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
	"github.com/addissystems/orgadmin/pkg/serrors"
)

var (
	ErrOrganizationNotFound = serrors.NewError("ORG_NOT_FOUND", "organization not found", "")
)

const (
	organizationFindQuery = `
		SELECT o.id, o.name, o.type, o.parent_id, o.created_at, o.updated_at
		FROM organizations o`

	organizationDeleteQuery = `DELETE FROM organizations WHERE id = $1`

	organizationCountChildrenQuery = `SELECT COUNT(*) FROM organizations WHERE parent_id = $1`
)

type PgOrganizationRepository struct{}

func NewOrganizationRepository() organization.Repository {
	return &PgOrganizationRepository{}
}

func (g *PgOrganizationRepository) queryOrganizations(ctx context.Context, query string, args ...interface{}) ([]*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*organization.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Type, &o.ParentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		entity, err := ToDomainOrganization(&o)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (g *PgOrganizationRepository) GetAll(ctx context.Context) ([]*organization.Organization, error) {
	orgs, err := g.queryOrganizations(ctx, organizationFindQuery+" ORDER BY o.name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get all organizations")
	}
	return orgs, nil
}

func (g *PgOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	orgs, err := g.queryOrganizations(ctx, organizationFindQuery+" WHERE o.id = $1", id.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query organization %s", id)
	}
	if len(orgs) == 0 {
		return nil, ErrOrganizationNotFound.WithHint("id %s", id)
	}
	return orgs[0], nil
}

func (g *PgOrganizationRepository) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*organization.Organization, error) {
	orgs, err := g.queryOrganizations(ctx, organizationFindQuery+" WHERE o.parent_id = $1 ORDER BY o.name", parentID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get child organizations")
	}
	return orgs, nil
}

func (g *PgOrganizationRepository) GetRoots(ctx context.Context) ([]*organization.Organization, error) {
	orgs, err := g.queryOrganizations(ctx, organizationFindQuery+" WHERE o.parent_id IS NULL ORDER BY o.name")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get root organizations")
	}
	return orgs, nil
}

func (g *PgOrganizationRepository) Create(ctx context.Context, data *organization.Organization) (*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	dbOrg := ToDBOrganization(data)
	fields := []string{"id", "name", "type", "parent_id", "created_at", "updated_at"}
	if _, err := tx.Exec(ctx, repo.Insert("organizations", fields),
		dbOrg.ID, dbOrg.Name, dbOrg.Type, dbOrg.ParentID, dbOrg.CreatedAt, dbOrg.UpdatedAt,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert organization")
	}
	return g.GetByID(ctx, data.ID())
}

func (g *PgOrganizationRepository) Update(ctx context.Context, data *organization.Organization) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbOrg := ToDBOrganization(data)
	query := repo.Update("organizations", []string{"name", "type", "parent_id", "updated_at"}, "id = $5")
	if _, err := tx.Exec(ctx, query, dbOrg.Name, dbOrg.Type, dbOrg.ParentID, dbOrg.UpdatedAt, dbOrg.ID); err != nil {
		return errors.Wrap(err, "failed to update organization")
	}
	return nil
}

func (g *PgOrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}
	if _, err := tx.Exec(ctx, organizationDeleteQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete organization")
	}
	return nil
}

func (g *PgOrganizationRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	var count int64
	if err := tx.QueryRow(ctx, organizationCountChildrenQuery, id.String()).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count child organizations")
	}
	return count, nil
}
