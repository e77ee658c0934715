package services

import "github.com/addissystems/orgadmin/pkg/serrors"

var (
	ErrSelfDelegation   = serrors.NewError("DELEGATION_SELF", "cannot delegate authority to oneself", "")
	ErrInsufficientRank = serrors.NewError("DELEGATION_INSUFFICIENT_RANK", "delegator's access level is too low to delegate", "")
	ErrEmptyAuthority   = serrors.NewError("DELEGATION_EMPTY_AUTHORITY", "delegation must convey at least one capability", "")
	ErrInvalidEndDate   = serrors.NewError("DELEGATION_INVALID_END_DATE", "delegation end date is in the past", "")
)
