package user

import "errors"

// ScopeKind tags an access level with the slice of the hierarchy it
// administers by default.
type ScopeKind string

const (
	ScopeGlobal       ScopeKind = "global"
	ScopeOrganization ScopeKind = "organization"
	ScopeSector       ScopeKind = "sector"
	ScopeDepartment   ScopeKind = "department"
	ScopeTeam         ScopeKind = "team"
	ScopeNone         ScopeKind = "none"
)

// AccessLevel is a ranked role category. Rank and scope kind are separate
// axes: branch_admin and directorate hold the same rank but administer
// different slices of the tree, so rank comparisons between them never
// produce a winner.
type AccessLevel string

const (
	AccessLevelSuperAdmin  AccessLevel = "super_admin"
	AccessLevelManager     AccessLevel = "manager"
	AccessLevelDeputy      AccessLevel = "deputy"
	AccessLevelBranchAdmin AccessLevel = "branch_admin"
	AccessLevelDirectorate AccessLevel = "directorate"
	AccessLevelSectorLead  AccessLevel = "sector_lead"
	AccessLevelTeamLeader  AccessLevel = "team_leader"
	AccessLevelExpert      AccessLevel = "expert"
	AccessLevelPublic      AccessLevel = "public"
)

var ErrInvalidAccessLevel = errors.New("invalid access level")

func NewAccessLevel(l string) (AccessLevel, error) {
	level := AccessLevel(l)
	if !level.IsValid() {
		return "", ErrInvalidAccessLevel
	}
	return level, nil
}

func (l AccessLevel) IsValid() bool {
	switch l {
	case AccessLevelSuperAdmin, AccessLevelManager, AccessLevelDeputy,
		AccessLevelBranchAdmin, AccessLevelDirectorate, AccessLevelSectorLead,
		AccessLevelTeamLeader, AccessLevelExpert, AccessLevelPublic:
		return true
	}
	return false
}

func (l AccessLevel) Rank() int {
	switch l {
	case AccessLevelSuperAdmin:
		return 70
	case AccessLevelManager:
		return 60
	case AccessLevelDeputy:
		return 50
	case AccessLevelBranchAdmin, AccessLevelDirectorate:
		return 40
	case AccessLevelSectorLead:
		return 30
	case AccessLevelTeamLeader:
		return 20
	case AccessLevelExpert, AccessLevelPublic:
		return 10
	default:
		return 0
	}
}

func (l AccessLevel) Scope() ScopeKind {
	switch l {
	case AccessLevelSuperAdmin:
		return ScopeGlobal
	case AccessLevelManager, AccessLevelDeputy, AccessLevelBranchAdmin:
		return ScopeOrganization
	case AccessLevelDirectorate:
		return ScopeDepartment
	case AccessLevelSectorLead:
		return ScopeSector
	case AccessLevelTeamLeader:
		return ScopeTeam
	default:
		return ScopeNone
	}
}

// AtLeast reports whether l ranks at or above other. Levels sharing a rank
// satisfy AtLeast in both directions.
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return l.Rank() >= other.Rank()
}
