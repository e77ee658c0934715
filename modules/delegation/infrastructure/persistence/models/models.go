package models

import (
	"database/sql"
	"time"
)

type Delegation struct {
	ID                   string
	DelegatorID          string
	DelegateeID          string
	CanManageTeams       bool
	CanManageDepartments bool
	CanApproveReports    bool
	Reason               sql.NullString
	StartDate            time.Time
	EndDate              sql.NullTime
	Status               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
