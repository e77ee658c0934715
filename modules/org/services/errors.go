package services

import "github.com/addissystems/orgadmin/pkg/serrors"

var (
	ErrOrganizationNotFound = serrors.NewError("ORG_NOT_FOUND", "organization not found", "")
	ErrSectorNotFound       = serrors.NewError("SECTOR_NOT_FOUND", "sector not found", "")
	ErrDepartmentNotFound   = serrors.NewError("DEPARTMENT_NOT_FOUND", "department not found", "")
	ErrTeamNotFound         = serrors.NewError("TEAM_NOT_FOUND", "team not found", "")

	// ErrInvalidParent covers both a nonexistent parent reference and a
	// parent assignment that would close a cycle.
	ErrInvalidParent = serrors.NewError("ORG_INVALID_PARENT", "invalid parent organization", "")

	ErrHierarchyTooDeep = serrors.NewError("ORG_HIERARCHY_TOO_DEEP", "organization chain exceeds the depth bound", "")
	ErrInvalidOwnerType = serrors.NewError("ORG_INVALID_OWNER_TYPE", "only head offices may own sectors", "")
	ErrOwnerMismatch    = serrors.NewError("ORG_OWNER_MISMATCH", "sector belongs to a different organization", "")

	// ErrHasDependents blocks deletes while child entities or assigned
	// users still reference the target. Deletion is explicit top-down,
	// never cascading.
	ErrHasDependents = serrors.NewError("ORG_HAS_DEPENDENTS", "entity still has dependents", "")

	// ErrCorruptHierarchy marks a reportsTo walk that hit a cycle or a
	// dangling manager reference. Reported, never silently truncated.
	ErrCorruptHierarchy = serrors.NewError("ORG_CORRUPT_HIERARCHY", "corrupt reporting chain", "")
)
