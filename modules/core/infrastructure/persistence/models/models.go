package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	AccessLevel        string
	OrganizationType   sql.NullString
	OrganizationID     sql.NullString
	SectorID           sql.NullString
	DepartmentID       sql.NullString
	TeamID             sql.NullString
	ReportsToID        sql.NullString
	DelegatedAuthority []byte
	Status             string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DelegatedAuthority is the jsonb shape stored in users.delegated_authority.
type DelegatedAuthority struct {
	DelegationID         string     `json:"delegationId"`
	CanManageTeams       bool       `json:"canManageTeams"`
	CanManageDepartments bool       `json:"canManageDepartments"`
	CanApproveReports    bool       `json:"canApproveReports"`
	ExpiresAt            *time.Time `json:"expiresAt,omitempty"`
}

type Role struct {
	ID          string
	Name        string
	Description sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Permission struct {
	ID       string
	Name     string
	Resource string
	Action   string
}

type UserRole struct {
	UserID string
	RoleID string
}

type RolePermission struct {
	RoleID       string
	PermissionID string
}
