package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/department"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/organization"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/sector"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/team"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/eventbus"
)

// auditRecorder is the slice of the audit service the structure mutations
// need. Every administrative write passes through it.
type auditRecorder interface {
	RecordChange(ctx context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error)
}

// userCounter is the slice of the user repository the dependency checks
// need.
type userCounter interface {
	CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error)
	CountBySector(ctx context.Context, sectorID uuid.UUID) (int64, error)
	CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
}

// StructureService owns the four-level tree and enforces its shape
// invariants on every write. Dependency checks and the writes they guard
// run in one transaction.
type StructureService struct {
	orgs        organization.Repository
	sectors     sector.Repository
	departments department.Repository
	teams       team.Repository
	users       userCounter
	audit       auditRecorder
	publisher   eventbus.EventBus
	maxDepth    int

	// inTx runs a function transactionally; swapped out in tests.
	inTx func(context.Context, func(context.Context) error) error
}

func NewStructureService(
	orgs organization.Repository,
	sectors sector.Repository,
	departments department.Repository,
	teams team.Repository,
	users userCounter,
	audit auditRecorder,
	publisher eventbus.EventBus,
	maxDepth int,
) *StructureService {
	return &StructureService{
		orgs:        orgs,
		sectors:     sectors,
		departments: departments,
		teams:       teams,
		users:       users,
		audit:       audit,
		publisher:   publisher,
		maxDepth:    maxDepth,
		inTx:        composables.InTx,
	}
}

func (s *StructureService) GetOrganization(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	return s.orgs.GetByID(ctx, id)
}

func (s *StructureService) GetOrganizations(ctx context.Context) ([]*organization.Organization, error) {
	return s.orgs.GetAll(ctx)
}

func (s *StructureService) GetChildOrganizations(ctx context.Context, parentID uuid.UUID) ([]*organization.Organization, error) {
	return s.orgs.GetChildren(ctx, parentID)
}

func (s *StructureService) CreateOrganization(ctx context.Context, name string, orgType organization.Type, parentID *uuid.UUID) (*organization.Organization, error) {
	if !orgType.IsValid() {
		return nil, errors.Errorf("invalid organization type %q", orgType)
	}
	if parentID != nil {
		if err := s.validateParentChain(ctx, *parentID, uuid.Nil); err != nil {
			return nil, err
		}
	}

	data := organization.New(name, orgType, organization.WithParentID(parentID))
	var created *organization.Organization
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.orgs.Create(txCtx, data)
		if err != nil {
			return errors.Wrap(err, "failed to create organization")
		}
		_, err = s.audit.RecordChange(txCtx, "create", "organization", nil, organizationSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&organization.CreatedEvent{Result: created})
	return created, nil
}

// UpdateOrganization renames and, when the parent changes, reparents. A
// reparent walks the candidate chain with the node itself on the visited
// set, so moving an organization under its own subtree fails as a cycle.
func (s *StructureService) UpdateOrganization(ctx context.Context, id uuid.UUID, name string, parentID *uuid.UUID) (*organization.Organization, error) {
	existing, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := organizationSnapshot(existing)
	existing.SetName(name)
	if !sameParent(existing.ParentID(), parentID) {
		if parentID != nil {
			if err := s.validateParentChain(ctx, *parentID, id); err != nil {
				return nil, err
			}
		}
		existing.SetParentID(parentID)
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.orgs.Update(txCtx, existing); err != nil {
			return errors.Wrap(err, "failed to update organization")
		}
		_, err := s.audit.RecordChange(txCtx, "update", "organization", before, organizationSnapshot(existing))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&organization.UpdatedEvent{Result: existing})
	return existing, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *StructureService) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	existing, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		children, err := s.orgs.CountChildren(txCtx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return ErrHasDependents.WithHint("%d child organizations", children)
		}
		sectors, err := s.sectors.CountByOrganization(txCtx, id)
		if err != nil {
			return err
		}
		if sectors > 0 {
			return ErrHasDependents.WithHint("%d sectors", sectors)
		}
		departments, err := s.departments.CountByOrganization(txCtx, id)
		if err != nil {
			return err
		}
		if departments > 0 {
			return ErrHasDependents.WithHint("%d departments", departments)
		}
		assigned, err := s.users.CountByOrganization(txCtx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return ErrHasDependents.WithHint("%d assigned users", assigned)
		}

		if err := s.orgs.Delete(txCtx, id); err != nil {
			return errors.Wrap(err, "failed to delete organization")
		}
		_, err = s.audit.RecordChange(txCtx, "delete", "organization", organizationSnapshot(existing), nil)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&organization.DeletedEvent{Result: existing})
	return nil
}

// validateParentChain rejects a nonexistent parent and walks the chain
// upward to bound depth. A repeated id on the walk means the stored chain is
// already cyclic; reaching selfID means the reparent would close a cycle.
func (s *StructureService) validateParentChain(ctx context.Context, parentID, selfID uuid.UUID) error {
	seen := map[uuid.UUID]struct{}{selfID: {}}
	current := parentID
	for depth := 1; ; depth++ {
		if depth > s.maxDepth {
			return ErrHierarchyTooDeep.WithHint("depth bound is %d", s.maxDepth)
		}
		if _, ok := seen[current]; ok {
			return ErrInvalidParent.WithHint("cycle through organization %s", current)
		}
		seen[current] = struct{}{}

		node, err := s.orgs.GetByID(ctx, current)
		if err != nil {
			if errors.Is(err, ErrOrganizationNotFound) {
				return ErrInvalidParent.WithHint("organization %s does not exist", current)
			}
			return err
		}
		if node.ParentID() == nil {
			return nil
		}
		current = *node.ParentID()
	}
}

func (s *StructureService) GetSector(ctx context.Context, id uuid.UUID) (*sector.Sector, error) {
	return s.sectors.GetByID(ctx, id)
}

func (s *StructureService) GetSectors(ctx context.Context, organizationID uuid.UUID) ([]*sector.Sector, error) {
	return s.sectors.GetByOrganization(ctx, organizationID)
}

func (s *StructureService) CreateSector(ctx context.Context, name string, organizationID uuid.UUID) (*sector.Sector, error) {
	owner, err := s.orgs.GetByID(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if !owner.CanOwnSectors() {
		return nil, ErrInvalidOwnerType.WithHint("organization %s is a %s", owner.Name(), owner.Type())
	}

	data := sector.New(name, organizationID)
	var created *sector.Sector
	err = s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.sectors.Create(txCtx, data)
		if err != nil {
			return errors.Wrap(err, "failed to create sector")
		}
		_, err = s.audit.RecordChange(txCtx, "create", "sector", nil, sectorSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&sector.CreatedEvent{Result: created})
	return created, nil
}

func (s *StructureService) UpdateSector(ctx context.Context, id uuid.UUID, name string) (*sector.Sector, error) {
	existing, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := sectorSnapshot(existing)
	existing.SetName(name)

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.sectors.Update(txCtx, existing); err != nil {
			return errors.Wrap(err, "failed to update sector")
		}
		_, err := s.audit.RecordChange(txCtx, "update", "sector", before, sectorSnapshot(existing))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&sector.UpdatedEvent{Result: existing})
	return existing, nil
}

func (s *StructureService) DeleteSector(ctx context.Context, id uuid.UUID) error {
	existing, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		departments, err := s.departments.CountBySector(txCtx, id)
		if err != nil {
			return err
		}
		if departments > 0 {
			return ErrHasDependents.WithHint("%d departments", departments)
		}
		assigned, err := s.users.CountBySector(txCtx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return ErrHasDependents.WithHint("%d assigned users", assigned)
		}

		if err := s.sectors.Delete(txCtx, id); err != nil {
			return errors.Wrap(err, "failed to delete sector")
		}
		_, err = s.audit.RecordChange(txCtx, "delete", "sector", sectorSnapshot(existing), nil)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&sector.DeletedEvent{Result: existing})
	return nil
}

func (s *StructureService) GetDepartment(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	return s.departments.GetByID(ctx, id)
}

func (s *StructureService) GetDepartments(ctx context.Context, organizationID uuid.UUID) ([]*department.Department, error) {
	return s.departments.GetByOrganization(ctx, organizationID)
}

func (s *StructureService) GetSectorDepartments(ctx context.Context, sectorID uuid.UUID) ([]*department.Department, error) {
	return s.departments.GetBySector(ctx, sectorID)
}

func (s *StructureService) CreateDepartment(ctx context.Context, name string, organizationID uuid.UUID, sectorID *uuid.UUID) (*department.Department, error) {
	if _, err := s.orgs.GetByID(ctx, organizationID); err != nil {
		return nil, err
	}
	if sectorID != nil {
		owner, err := s.sectors.GetByID(ctx, *sectorID)
		if err != nil {
			return nil, err
		}
		if owner.OrganizationID() != organizationID {
			return nil, ErrOwnerMismatch.WithHint("sector %s belongs to organization %s", owner.Name(), owner.OrganizationID())
		}
	}

	data := department.New(name, organizationID, department.WithSectorID(sectorID))
	var created *department.Department
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.departments.Create(txCtx, data)
		if err != nil {
			return errors.Wrap(err, "failed to create department")
		}
		_, err = s.audit.RecordChange(txCtx, "create", "department", nil, departmentSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&department.CreatedEvent{Result: created})
	return created, nil
}

func (s *StructureService) UpdateDepartment(ctx context.Context, id uuid.UUID, name string) (*department.Department, error) {
	existing, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := departmentSnapshot(existing)
	existing.SetName(name)

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.departments.Update(txCtx, existing); err != nil {
			return errors.Wrap(err, "failed to update department")
		}
		_, err := s.audit.RecordChange(txCtx, "update", "department", before, departmentSnapshot(existing))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&department.UpdatedEvent{Result: existing})
	return existing, nil
}

func (s *StructureService) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	existing, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		teams, err := s.teams.CountByDepartment(txCtx, id)
		if err != nil {
			return err
		}
		if teams > 0 {
			return ErrHasDependents.WithHint("%d teams", teams)
		}
		assigned, err := s.users.CountByDepartment(txCtx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return ErrHasDependents.WithHint("%d assigned users", assigned)
		}

		if err := s.departments.Delete(txCtx, id); err != nil {
			return errors.Wrap(err, "failed to delete department")
		}
		_, err = s.audit.RecordChange(txCtx, "delete", "department", departmentSnapshot(existing), nil)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&department.DeletedEvent{Result: existing})
	return nil
}

func (s *StructureService) GetTeam(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	return s.teams.GetByID(ctx, id)
}

func (s *StructureService) GetTeams(ctx context.Context, departmentID uuid.UUID) ([]*team.Team, error) {
	return s.teams.GetByDepartment(ctx, departmentID)
}

func (s *StructureService) CreateTeam(ctx context.Context, name string, departmentID uuid.UUID, teamLeaderID *uuid.UUID) (*team.Team, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	data := team.New(name, departmentID)
	// The setter folds the leader into the member set, so the leader
	// invariant holds from the first write.
	data.SetTeamLeaderID(teamLeaderID)

	var created *team.Team
	err := s.inTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.teams.Create(txCtx, data)
		if err != nil {
			return errors.Wrap(err, "failed to create team")
		}
		_, err = s.audit.RecordChange(txCtx, "create", "team", nil, teamSnapshot(created))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&team.CreatedEvent{Result: created})
	return created, nil
}

func (s *StructureService) UpdateTeam(ctx context.Context, id uuid.UUID, name string, teamLeaderID *uuid.UUID, memberIDs []uuid.UUID) (*team.Team, error) {
	existing, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := teamSnapshot(existing)
	existing.SetName(name)
	if memberIDs != nil {
		existing.SetMemberIDs(memberIDs)
	}
	existing.SetTeamLeaderID(teamLeaderID)

	err = s.inTx(ctx, func(txCtx context.Context) error {
		if err := s.teams.Update(txCtx, existing); err != nil {
			return errors.Wrap(err, "failed to update team")
		}
		_, err := s.audit.RecordChange(txCtx, "update", "team", before, teamSnapshot(existing))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(&team.UpdatedEvent{Result: existing})
	return existing, nil
}

func (s *StructureService) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	existing, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.inTx(ctx, func(txCtx context.Context) error {
		assigned, err := s.users.CountByTeam(txCtx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return ErrHasDependents.WithHint("%d assigned users", assigned)
		}

		if err := s.teams.Delete(txCtx, id); err != nil {
			return errors.Wrap(err, "failed to delete team")
		}
		_, err = s.audit.RecordChange(txCtx, "delete", "team", teamSnapshot(existing), nil)
		return err
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(&team.DeletedEvent{Result: existing})
	return nil
}

func organizationSnapshot(o *organization.Organization) map[string]any {
	snapshot := map[string]any{
		"id":   o.ID().String(),
		"name": o.Name(),
		"type": string(o.Type()),
	}
	if o.ParentID() != nil {
		snapshot["parentId"] = o.ParentID().String()
	}
	return snapshot
}

func sectorSnapshot(s *sector.Sector) map[string]any {
	return map[string]any{
		"id":             s.ID().String(),
		"name":           s.Name(),
		"organizationId": s.OrganizationID().String(),
	}
}

func departmentSnapshot(d *department.Department) map[string]any {
	snapshot := map[string]any{
		"id":             d.ID().String(),
		"name":           d.Name(),
		"organizationId": d.OrganizationID().String(),
	}
	if d.SectorID() != nil {
		snapshot["sectorId"] = d.SectorID().String()
	}
	return snapshot
}

func teamSnapshot(t *team.Team) map[string]any {
	members := make([]string, 0, len(t.MemberIDs()))
	for _, id := range t.MemberIDs() {
		members = append(members, id.String())
	}
	snapshot := map[string]any{
		"id":           t.ID().String(),
		"name":         t.Name(),
		"departmentId": t.DepartmentID().String(),
		"members":      members,
	}
	if t.TeamLeaderID() != nil {
		snapshot["teamLeaderId"] = t.TeamLeaderID().String()
	}
	return snapshot
}

// ensure the user repository satisfies the narrow counting dependency
var _ userCounter = (user.Repository)(nil)
