package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/department"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/organization"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/sector"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/team"
)

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type recordingAudit struct {
	entries []*auditlog.AuditLog
}

func (r *recordingAudit) RecordChange(ctx context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error) {
	entry := &auditlog.AuditLog{ID: uuid.New(), Action: action, Resource: resource}
	r.entries = append(r.entries, entry)
	return entry, nil
}

type recordingBus struct {
	published []interface{}
}

func (b *recordingBus) Publish(args ...interface{}) { b.published = append(b.published, args...) }
func (b *recordingBus) Subscribe(interface{})       {}
func (b *recordingBus) Unsubscribe(interface{})     {}
func (b *recordingBus) Clear()                      { b.published = nil }
func (b *recordingBus) SubscribersCount() int       { return 0 }

type fakeOrgRepo struct {
	items map[uuid.UUID]*organization.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{items: make(map[uuid.UUID]*organization.Organization)}
}

func (f *fakeOrgRepo) GetAll(ctx context.Context) ([]*organization.Organization, error) {
	out := make([]*organization.Organization, 0, len(f.items))
	for _, o := range f.items {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrgRepo) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	o, ok := f.items[id]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	return o, nil
}

func (f *fakeOrgRepo) GetChildren(ctx context.Context, parentID uuid.UUID) ([]*organization.Organization, error) {
	var out []*organization.Organization
	for _, o := range f.items {
		if o.ParentID() != nil && *o.ParentID() == parentID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) GetRoots(ctx context.Context) ([]*organization.Organization, error) {
	var out []*organization.Organization
	for _, o := range f.items {
		if o.ParentID() == nil {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) Create(ctx context.Context, data *organization.Organization) (*organization.Organization, error) {
	f.items[data.ID()] = data
	return data, nil
}

func (f *fakeOrgRepo) Update(ctx context.Context, data *organization.Organization) error {
	f.items[data.ID()] = data
	return nil
}

func (f *fakeOrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeOrgRepo) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	children, _ := f.GetChildren(ctx, id)
	return int64(len(children)), nil
}

type fakeSectorRepo struct {
	items map[uuid.UUID]*sector.Sector
}

func newFakeSectorRepo() *fakeSectorRepo {
	return &fakeSectorRepo{items: make(map[uuid.UUID]*sector.Sector)}
}

func (f *fakeSectorRepo) GetAll(ctx context.Context) ([]*sector.Sector, error) {
	out := make([]*sector.Sector, 0, len(f.items))
	for _, s := range f.items {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSectorRepo) GetByID(ctx context.Context, id uuid.UUID) (*sector.Sector, error) {
	s, ok := f.items[id]
	if !ok {
		return nil, ErrSectorNotFound
	}
	return s, nil
}

func (f *fakeSectorRepo) GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*sector.Sector, error) {
	var out []*sector.Sector
	for _, s := range f.items {
		if s.OrganizationID() == organizationID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSectorRepo) Create(ctx context.Context, data *sector.Sector) (*sector.Sector, error) {
	f.items[data.ID()] = data
	return data, nil
}

func (f *fakeSectorRepo) Update(ctx context.Context, data *sector.Sector) error {
	f.items[data.ID()] = data
	return nil
}

func (f *fakeSectorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeSectorRepo) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	sectors, _ := f.GetByOrganization(ctx, organizationID)
	return int64(len(sectors)), nil
}

type fakeDepartmentRepo struct {
	items map[uuid.UUID]*department.Department
}

func newFakeDepartmentRepo() *fakeDepartmentRepo {
	return &fakeDepartmentRepo{items: make(map[uuid.UUID]*department.Department)}
}

func (f *fakeDepartmentRepo) GetAll(ctx context.Context) ([]*department.Department, error) {
	out := make([]*department.Department, 0, len(f.items))
	for _, d := range f.items {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDepartmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*department.Department, error) {
	d, ok := f.items[id]
	if !ok {
		return nil, ErrDepartmentNotFound
	}
	return d, nil
}

func (f *fakeDepartmentRepo) GetByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*department.Department, error) {
	var out []*department.Department
	for _, d := range f.items {
		if d.OrganizationID() == organizationID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDepartmentRepo) GetBySector(ctx context.Context, sectorID uuid.UUID) ([]*department.Department, error) {
	var out []*department.Department
	for _, d := range f.items {
		if d.SectorID() != nil && *d.SectorID() == sectorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDepartmentRepo) Create(ctx context.Context, data *department.Department) (*department.Department, error) {
	f.items[data.ID()] = data
	return data, nil
}

func (f *fakeDepartmentRepo) Update(ctx context.Context, data *department.Department) error {
	f.items[data.ID()] = data
	return nil
}

func (f *fakeDepartmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeDepartmentRepo) CountByOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	departments, _ := f.GetByOrganization(ctx, organizationID)
	return int64(len(departments)), nil
}

func (f *fakeDepartmentRepo) CountBySector(ctx context.Context, sectorID uuid.UUID) (int64, error) {
	departments, _ := f.GetBySector(ctx, sectorID)
	return int64(len(departments)), nil
}

type fakeTeamRepo struct {
	items map[uuid.UUID]*team.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{items: make(map[uuid.UUID]*team.Team)}
}

func (f *fakeTeamRepo) GetAll(ctx context.Context) ([]*team.Team, error) {
	out := make([]*team.Team, 0, len(f.items))
	for _, t := range f.items {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return t, nil
}

func (f *fakeTeamRepo) GetByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*team.Team, error) {
	var out []*team.Team
	for _, t := range f.items {
		if t.DepartmentID() == departmentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTeamRepo) Create(ctx context.Context, data *team.Team) (*team.Team, error) {
	f.items[data.ID()] = data
	return data, nil
}

func (f *fakeTeamRepo) Update(ctx context.Context, data *team.Team) error {
	f.items[data.ID()] = data
	return nil
}

func (f *fakeTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeTeamRepo) CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error) {
	teams, _ := f.GetByDepartment(ctx, departmentID)
	return int64(len(teams)), nil
}

type fakeUserCounter struct {
	byOrganization map[uuid.UUID]int64
	bySector       map[uuid.UUID]int64
	byDepartment   map[uuid.UUID]int64
	byTeam         map[uuid.UUID]int64
}

func newFakeUserCounter() *fakeUserCounter {
	return &fakeUserCounter{
		byOrganization: make(map[uuid.UUID]int64),
		bySector:       make(map[uuid.UUID]int64),
		byDepartment:   make(map[uuid.UUID]int64),
		byTeam:         make(map[uuid.UUID]int64),
	}
}

func (f *fakeUserCounter) CountByOrganization(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.byOrganization[id], nil
}

func (f *fakeUserCounter) CountBySector(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.bySector[id], nil
}

func (f *fakeUserCounter) CountByDepartment(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.byDepartment[id], nil
}

func (f *fakeUserCounter) CountByTeam(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.byTeam[id], nil
}

type structureFixture struct {
	svc         *StructureService
	orgs        *fakeOrgRepo
	sectors     *fakeSectorRepo
	departments *fakeDepartmentRepo
	teams       *fakeTeamRepo
	users       *fakeUserCounter
	audit       *recordingAudit
	bus         *recordingBus
}

func newStructureFixture(maxDepth int) *structureFixture {
	f := &structureFixture{
		orgs:        newFakeOrgRepo(),
		sectors:     newFakeSectorRepo(),
		departments: newFakeDepartmentRepo(),
		teams:       newFakeTeamRepo(),
		users:       newFakeUserCounter(),
		audit:       &recordingAudit{},
		bus:         &recordingBus{},
	}
	f.svc = NewStructureService(f.orgs, f.sectors, f.departments, f.teams, f.users, f.audit, f.bus, maxDepth)
	f.svc.inTx = passthroughTx
	return f
}

func TestCreateOrganization_InvalidParent(t *testing.T) {
	f := newStructureFixture(16)

	missing := uuid.New()
	_, err := f.svc.CreateOrganization(context.Background(), "Bole Branch", organization.TypeBranch, &missing)
	require.ErrorIs(t, err, ErrInvalidParent)
	require.Empty(t, f.audit.entries)
}

func TestCreateOrganization_HierarchyTooDeep(t *testing.T) {
	f := newStructureFixture(3)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	parent := head.ID()
	for i := 0; i < 3; i++ {
		pid := parent
		child, err := f.svc.CreateOrganization(ctx, "Branch", organization.TypeBranch, &pid)
		require.NoError(t, err)
		parent = child.ID()
	}

	_, err = f.svc.CreateOrganization(ctx, "Too Deep", organization.TypeWoreda, &parent)
	require.ErrorIs(t, err, ErrHierarchyTooDeep)
}

func TestCreateSector_RejectsNonHeadOffice(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	branch, err := f.svc.CreateOrganization(ctx, "Adama Branch", organization.TypeBranch, nil)
	require.NoError(t, err)

	_, err = f.svc.CreateSector(ctx, "Finance", branch.ID())
	require.ErrorIs(t, err, ErrInvalidOwnerType)
}

func TestCreateDepartment_OwnerMismatch(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	other, err := f.svc.CreateOrganization(ctx, "Second Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)

	sec, err := f.svc.CreateSector(ctx, "Revenue", head.ID())
	require.NoError(t, err)

	secID := sec.ID()
	_, err = f.svc.CreateDepartment(ctx, "Collections", other.ID(), &secID)
	require.ErrorIs(t, err, ErrOwnerMismatch)

	dept, err := f.svc.CreateDepartment(ctx, "Collections", head.ID(), &secID)
	require.NoError(t, err)
	require.Equal(t, &secID, dept.SectorID())
}

func TestDeleteOrganization_HasDependents(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	sec, err := f.svc.CreateSector(ctx, "Audit", head.ID())
	require.NoError(t, err)

	err = f.svc.DeleteOrganization(ctx, head.ID())
	require.ErrorIs(t, err, ErrHasDependents)

	// Top-down deletion succeeds once the sector is gone.
	require.NoError(t, f.svc.DeleteSector(ctx, sec.ID()))
	require.NoError(t, f.svc.DeleteOrganization(ctx, head.ID()))
}

func TestDeleteTeam_BlockedByAssignedUsers(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	dept, err := f.svc.CreateDepartment(ctx, "ICT", head.ID(), nil)
	require.NoError(t, err)
	tm, err := f.svc.CreateTeam(ctx, "Infrastructure", dept.ID(), nil)
	require.NoError(t, err)

	f.users.byTeam[tm.ID()] = 2
	err = f.svc.DeleteTeam(ctx, tm.ID())
	require.ErrorIs(t, err, ErrHasDependents)

	f.users.byTeam[tm.ID()] = 0
	require.NoError(t, f.svc.DeleteTeam(ctx, tm.ID()))
}

func TestCreateTeam_LeaderJoinsMembers(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	dept, err := f.svc.CreateDepartment(ctx, "ICT", head.ID(), nil)
	require.NoError(t, err)

	leader := uuid.New()
	tm, err := f.svc.CreateTeam(ctx, "Networks", dept.ID(), &leader)
	require.NoError(t, err)
	require.True(t, tm.HasMember(leader))
}

func TestStructureWrites_AreAudited(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrganization(ctx, head.ID(), "Central Head Office", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteOrganization(ctx, head.ID()))

	require.Len(t, f.audit.entries, 3)
	require.Equal(t, "create", f.audit.entries[0].Action)
	require.Equal(t, "update", f.audit.entries[1].Action)
	require.Equal(t, "delete", f.audit.entries[2].Action)
}

func TestStructureWrites_PublishEvents(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrganization(ctx, head.ID(), "Central Head Office", nil)
	require.NoError(t, err)

	sec, err := f.svc.CreateSector(ctx, "Revenue", head.ID())
	require.NoError(t, err)
	dept, err := f.svc.CreateDepartment(ctx, "Collections", head.ID(), nil)
	require.NoError(t, err)
	tm, err := f.svc.CreateTeam(ctx, "Field", dept.ID(), nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTeam(ctx, tm.ID()))
	require.NoError(t, f.svc.DeleteDepartment(ctx, dept.ID()))
	require.NoError(t, f.svc.DeleteSector(ctx, sec.ID()))
	require.NoError(t, f.svc.DeleteOrganization(ctx, head.ID()))

	require.Len(t, f.bus.published, 9)
	require.IsType(t, &organization.CreatedEvent{}, f.bus.published[0])
	require.IsType(t, &organization.UpdatedEvent{}, f.bus.published[1])
	require.IsType(t, &sector.CreatedEvent{}, f.bus.published[2])
	require.IsType(t, &department.CreatedEvent{}, f.bus.published[3])
	require.IsType(t, &team.CreatedEvent{}, f.bus.published[4])
	require.IsType(t, &team.DeletedEvent{}, f.bus.published[5])
	require.IsType(t, &department.DeletedEvent{}, f.bus.published[6])
	require.IsType(t, &sector.DeletedEvent{}, f.bus.published[7])
	require.IsType(t, &organization.DeletedEvent{}, f.bus.published[8])

	created, ok := f.bus.published[0].(*organization.CreatedEvent)
	require.True(t, ok)
	require.Equal(t, head.ID(), created.Result.ID())
}

func TestStructureWrites_NoEventOnFailure(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	_, err = f.svc.CreateSector(ctx, "Audit", head.ID())
	require.NoError(t, err)
	f.bus.Clear()

	err = f.svc.DeleteOrganization(ctx, head.ID())
	require.ErrorIs(t, err, ErrHasDependents)
	require.Empty(t, f.bus.published)
}

func TestUpdateOrganization_Reparent(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	branch, err := f.svc.CreateOrganization(ctx, "Adama Branch", organization.TypeBranch, nil)
	require.NoError(t, err)

	headID := head.ID()
	moved, err := f.svc.UpdateOrganization(ctx, branch.ID(), branch.Name(), &headID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID())
	require.Equal(t, headID, *moved.ParentID())

	children, err := f.svc.GetChildOrganizations(ctx, headID)
	require.NoError(t, err)
	require.Len(t, children, 1)
}

func TestUpdateOrganization_ReparentIntoOwnSubtree(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	headID := head.ID()
	branch, err := f.svc.CreateOrganization(ctx, "Adama Branch", organization.TypeBranch, &headID)
	require.NoError(t, err)
	branchID := branch.ID()
	woreda, err := f.svc.CreateOrganization(ctx, "Adama Woreda 1", organization.TypeWoreda, &branchID)
	require.NoError(t, err)

	// Direct child and deeper descendant are both rejected.
	_, err = f.svc.UpdateOrganization(ctx, headID, head.Name(), &branchID)
	require.ErrorIs(t, err, ErrInvalidParent)
	woredaID := woreda.ID()
	_, err = f.svc.UpdateOrganization(ctx, headID, head.Name(), &woredaID)
	require.ErrorIs(t, err, ErrInvalidParent)

	// Self-parenting is the degenerate cycle.
	_, err = f.svc.UpdateOrganization(ctx, branchID, branch.Name(), &branchID)
	require.ErrorIs(t, err, ErrInvalidParent)

	stored, err := f.svc.GetOrganization(ctx, headID)
	require.NoError(t, err)
	require.Nil(t, stored.ParentID())
}

func TestUpdateOrganization_ReparentValidatesNewParent(t *testing.T) {
	f := newStructureFixture(1)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	headID := head.ID()
	branch, err := f.svc.CreateOrganization(ctx, "Adama Branch", organization.TypeBranch, &headID)
	require.NoError(t, err)
	orphan, err := f.svc.CreateOrganization(ctx, "Bishoftu Branch", organization.TypeBranch, nil)
	require.NoError(t, err)

	missing := uuid.New()
	_, err = f.svc.UpdateOrganization(ctx, orphan.ID(), orphan.Name(), &missing)
	require.ErrorIs(t, err, ErrInvalidParent)

	branchID := branch.ID()
	_, err = f.svc.UpdateOrganization(ctx, orphan.ID(), orphan.Name(), &branchID)
	require.ErrorIs(t, err, ErrHierarchyTooDeep)
}

func TestStructureListings(t *testing.T) {
	f := newStructureFixture(16)
	ctx := context.Background()

	head, err := f.svc.CreateOrganization(ctx, "Head Office", organization.TypeHeadOffice, nil)
	require.NoError(t, err)
	sec, err := f.svc.CreateSector(ctx, "Revenue", head.ID())
	require.NoError(t, err)
	secID := sec.ID()
	sectored, err := f.svc.CreateDepartment(ctx, "Collections", head.ID(), &secID)
	require.NoError(t, err)
	direct, err := f.svc.CreateDepartment(ctx, "ICT", head.ID(), nil)
	require.NoError(t, err)
	_, err = f.svc.CreateTeam(ctx, "Networks", direct.ID(), nil)
	require.NoError(t, err)

	sectors, err := f.svc.GetSectors(ctx, head.ID())
	require.NoError(t, err)
	require.Len(t, sectors, 1)

	departments, err := f.svc.GetDepartments(ctx, head.ID())
	require.NoError(t, err)
	require.Len(t, departments, 2)

	sectorDepartments, err := f.svc.GetSectorDepartments(ctx, secID)
	require.NoError(t, err)
	require.Len(t, sectorDepartments, 1)
	require.Equal(t, sectored.ID(), sectorDepartments[0].ID())

	teams, err := f.svc.GetTeams(ctx, direct.ID())
	require.NoError(t, err)
	require.Len(t, teams, 1)
}
