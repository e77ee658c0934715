package services

import "github.com/addissystems/orgadmin/pkg/serrors"

var (
	ErrUserNotFound = serrors.NewError("USER_NOT_FOUND", "user not found", "")
	ErrRoleNotFound = serrors.NewError("ROLE_NOT_FOUND", "role not found", "")

	ErrUnauthorized = serrors.NewError("UNAUTHORIZED", "actor lacks authority for this action", "")

	// ErrRoleInUse blocks deleting a role while users still hold it.
	ErrRoleInUse = serrors.NewError("ROLE_IN_USE", "role is still assigned to users", "")
)
