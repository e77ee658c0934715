package models

import (
	"database/sql"
	"time"
)

type Organization struct {
	ID        string
	Name      string
	Type      string
	ParentID  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Sector struct {
	ID             string
	Name           string
	OrganizationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Department struct {
	ID             string
	Name           string
	OrganizationID string
	SectorID       sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Team struct {
	ID           string
	Name         string
	DepartmentID string
	TeamLeaderID sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TeamMember struct {
	TeamID string
	UserID string
}
