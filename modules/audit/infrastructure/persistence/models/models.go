package models

import (
	"database/sql"
	"time"
)

type AuditLog struct {
	ID            string
	ActorID       sql.NullString
	Action        string
	Resource      string
	Before        []byte
	After         []byte
	ChangedFields []string
	SourceAddress string
	CreatedAt     time.Time
}
