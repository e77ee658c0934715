package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/aggregates/user"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/department"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/organization"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/sector"
	"github.com/addissystems/orgadmin/modules/org/domain/entities/team"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/metrics"
)

type NodeKind string

const (
	NodeKindRoot         NodeKind = "root"
	NodeKindOrganization NodeKind = "organization"
	NodeKindSector       NodeKind = "sector"
	NodeKindDepartment   NodeKind = "department"
	NodeKindTeam         NodeKind = "team"
)

// TreeNode is the materialized chart view handed to presentation layers.
type TreeNode struct {
	ID       uuid.UUID
	Name     string
	Kind     NodeKind
	Children []*TreeNode
}

// HierarchyService answers visibility and reporting-line queries over the
// structure. Reads load full collections and resolve in memory, so a call
// costs O(organization size).
type HierarchyService struct {
	users       user.Repository
	orgs        organization.Repository
	sectors     sector.Repository
	departments department.Repository
	teams       team.Repository
}

func NewHierarchyService(
	users user.Repository,
	orgs organization.Repository,
	sectors sector.Repository,
	departments department.Repository,
	teams team.Repository,
) *HierarchyService {
	return &HierarchyService{
		users:       users,
		orgs:        orgs,
		sectors:     sectors,
		departments: departments,
		teams:       teams,
	}
}

// scopeSet is the set of structure ids a user administers, combining
// explicit management assignments with the slice of the tree their access
// level places them over.
type scopeSet struct {
	orgs        map[uuid.UUID]struct{}
	sectors     map[uuid.UUID]struct{}
	departments map[uuid.UUID]struct{}
	teams       map[uuid.UUID]struct{}
}

func buildScopeSet(u *user.User) scopeSet {
	set := scopeSet{
		orgs:        make(map[uuid.UUID]struct{}),
		sectors:     make(map[uuid.UUID]struct{}),
		departments: make(map[uuid.UUID]struct{}),
		teams:       make(map[uuid.UUID]struct{}),
	}
	for _, id := range u.ManagedDepartmentIDs() {
		set.departments[id] = struct{}{}
	}
	for _, id := range u.ManagedTeamIDs() {
		set.teams[id] = struct{}{}
	}

	switch u.AccessLevel().Scope() {
	case user.ScopeOrganization:
		if u.OrganizationID() != nil {
			set.orgs[*u.OrganizationID()] = struct{}{}
		}
	case user.ScopeSector:
		if u.SectorID() != nil {
			set.sectors[*u.SectorID()] = struct{}{}
		}
	case user.ScopeDepartment:
		if u.DepartmentID() != nil {
			set.departments[*u.DepartmentID()] = struct{}{}
		}
	case user.ScopeTeam:
		if u.TeamID() != nil {
			set.teams[*u.TeamID()] = struct{}{}
		}
	}
	return set
}

func (s scopeSet) contains(candidate *user.User) bool {
	if candidate.OrganizationID() != nil {
		if _, ok := s.orgs[*candidate.OrganizationID()]; ok {
			return true
		}
	}
	if candidate.SectorID() != nil {
		if _, ok := s.sectors[*candidate.SectorID()]; ok {
			return true
		}
	}
	if candidate.DepartmentID() != nil {
		if _, ok := s.departments[*candidate.DepartmentID()]; ok {
			return true
		}
	}
	if candidate.TeamID() != nil {
		if _, ok := s.teams[*candidate.TeamID()]; ok {
			return true
		}
	}
	return false
}

// GetSubordinates returns every user falling inside u's scope set,
// excluding u. Super admins see everyone. Order is not part of the
// contract.
func (s *HierarchyService) GetSubordinates(ctx context.Context, u *user.User) ([]*user.User, error) {
	all, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}

	if u.IsSuperAdmin() {
		subordinates := make([]*user.User, 0, len(all))
		for _, candidate := range all {
			if candidate.ID() != u.ID() {
				subordinates = append(subordinates, candidate)
			}
		}
		return subordinates, nil
	}

	scope := buildScopeSet(u)
	var subordinates []*user.User
	for _, candidate := range all {
		if candidate.ID() == u.ID() {
			continue
		}
		if scope.contains(candidate) {
			subordinates = append(subordinates, candidate)
		}
	}
	return subordinates, nil
}

// GetManagerChain walks reportsTo links upward, nearest manager first. A
// cycle or a dangling manager reference is a corrupt chain and is reported,
// not truncated.
func (s *HierarchyService) GetManagerChain(ctx context.Context, u *user.User) ([]*user.User, error) {
	all, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load users")
	}
	arena := make(map[uuid.UUID]*user.User, len(all))
	for _, candidate := range all {
		arena[candidate.ID()] = candidate
	}

	visited := map[uuid.UUID]struct{}{u.ID(): {}}
	var chain []*user.User
	next := u.ReportsToID()
	for next != nil {
		if _, ok := visited[*next]; ok {
			metrics.RecordCorruptHierarchy()
			composables.UseLogger(ctx).
				WithField("user_id", u.ID()).
				WithField("cycle_at", *next).
				Error("reporting chain contains a cycle")
			return nil, ErrCorruptHierarchy.WithHint("cycle through user %s", *next)
		}
		visited[*next] = struct{}{}

		manager, ok := arena[*next]
		if !ok {
			metrics.RecordCorruptHierarchy()
			return nil, ErrCorruptHierarchy.WithHint("manager %s does not exist", *next)
		}
		chain = append(chain, manager)
		next = manager.ReportsToID()
	}
	return chain, nil
}

// GetOrganizationalChart materializes the structure tree. With a root user
// given, the chart is rooted at that user's organization; otherwise all
// root organizations are rendered, under a synthetic root when there is
// more than one.
func (s *HierarchyService) GetOrganizationalChart(ctx context.Context, rootUserID *uuid.UUID) (*TreeNode, error) {
	orgs, err := s.orgs.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load organizations")
	}
	sectors, err := s.sectors.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sectors")
	}
	departments, err := s.departments.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load departments")
	}
	teams, err := s.teams.GetAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load teams")
	}

	idx := newChartIndex(orgs, sectors, departments, teams)

	if rootUserID != nil {
		root, err := s.users.GetByID(ctx, *rootUserID)
		if err != nil {
			return nil, err
		}
		if root.OrganizationID() == nil {
			return &TreeNode{Kind: NodeKindRoot, Name: "Organizations"}, nil
		}
		org, ok := idx.orgsByID[*root.OrganizationID()]
		if !ok {
			return nil, ErrOrganizationNotFound.WithHint("organization %s", *root.OrganizationID())
		}
		return idx.organizationNode(org, make(map[uuid.UUID]struct{})), nil
	}

	rootOrgs, err := s.orgs.GetRoots(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load root organizations")
	}
	roots := make([]*TreeNode, 0, len(rootOrgs))
	for _, org := range rootOrgs {
		roots = append(roots, idx.organizationNode(org, make(map[uuid.UUID]struct{})))
	}
	if len(roots) == 1 {
		return roots[0], nil
	}
	return &TreeNode{Kind: NodeKindRoot, Name: "Organizations", Children: roots}, nil
}

type chartIndex struct {
	orgsByID      map[uuid.UUID]*organization.Organization
	orgChildren   map[uuid.UUID][]*organization.Organization
	sectorsByOrg  map[uuid.UUID][]*sector.Sector
	deptsBySector map[uuid.UUID][]*department.Department
	directDepts   map[uuid.UUID][]*department.Department
	teamsByDept   map[uuid.UUID][]*team.Team
}

func newChartIndex(
	orgs []*organization.Organization,
	sectors []*sector.Sector,
	departments []*department.Department,
	teams []*team.Team,
) *chartIndex {
	idx := &chartIndex{
		orgsByID:      make(map[uuid.UUID]*organization.Organization, len(orgs)),
		orgChildren:   make(map[uuid.UUID][]*organization.Organization),
		sectorsByOrg:  make(map[uuid.UUID][]*sector.Sector),
		deptsBySector: make(map[uuid.UUID][]*department.Department),
		directDepts:   make(map[uuid.UUID][]*department.Department),
		teamsByDept:   make(map[uuid.UUID][]*team.Team),
	}
	for _, o := range orgs {
		idx.orgsByID[o.ID()] = o
		if o.ParentID() != nil {
			idx.orgChildren[*o.ParentID()] = append(idx.orgChildren[*o.ParentID()], o)
		}
	}
	for _, s := range sectors {
		idx.sectorsByOrg[s.OrganizationID()] = append(idx.sectorsByOrg[s.OrganizationID()], s)
	}
	for _, d := range departments {
		// A sector-owned department nests only under its sector and never
		// appears in the organization's direct list.
		if d.SectorID() != nil {
			idx.deptsBySector[*d.SectorID()] = append(idx.deptsBySector[*d.SectorID()], d)
		} else {
			idx.directDepts[d.OrganizationID()] = append(idx.directDepts[d.OrganizationID()], d)
		}
	}
	for _, t := range teams {
		idx.teamsByDept[t.DepartmentID()] = append(idx.teamsByDept[t.DepartmentID()], t)
	}
	return idx
}

func (idx *chartIndex) organizationNode(org *organization.Organization, visited map[uuid.UUID]struct{}) *TreeNode {
	node := &TreeNode{ID: org.ID(), Name: org.Name(), Kind: NodeKindOrganization}
	visited[org.ID()] = struct{}{}

	for _, s := range idx.sectorsByOrg[org.ID()] {
		node.Children = append(node.Children, idx.sectorNode(s))
	}
	for _, d := range idx.directDepts[org.ID()] {
		node.Children = append(node.Children, idx.departmentNode(d))
	}
	for _, child := range idx.orgChildren[org.ID()] {
		// The visited guard keeps a corrupt parent chain from recursing
		// forever; the walk just stops at the repeat.
		if _, ok := visited[child.ID()]; ok {
			continue
		}
		node.Children = append(node.Children, idx.organizationNode(child, visited))
	}
	return node
}

func (idx *chartIndex) sectorNode(s *sector.Sector) *TreeNode {
	node := &TreeNode{ID: s.ID(), Name: s.Name(), Kind: NodeKindSector}
	for _, d := range idx.deptsBySector[s.ID()] {
		node.Children = append(node.Children, idx.departmentNode(d))
	}
	return node
}

func (idx *chartIndex) departmentNode(d *department.Department) *TreeNode {
	node := &TreeNode{ID: d.ID(), Name: d.Name(), Kind: NodeKindDepartment}
	for _, t := range idx.teamsByDept[d.ID()] {
		node.Children = append(node.Children, &TreeNode{ID: t.ID(), Name: t.Name(), Kind: NodeKindTeam})
	}
	return node
}
