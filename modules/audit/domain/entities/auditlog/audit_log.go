package auditlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of a single mutation. ActorID is nil for
// system-initiated changes. Before/After hold the full entity snapshots;
// ChangedFields is derived from them and can always be recomputed.
type AuditLog struct {
	ID            uuid.UUID
	ActorID       *uuid.UUID
	Action        string
	Resource      string
	Before        json.RawMessage
	After         json.RawMessage
	ChangedFields []string
	SourceAddress string
	CreatedAt     time.Time
}

type FindParams struct {
	ActorID  *uuid.UUID
	Resource string
	Action   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Repository is append-only. There is deliberately no update or delete.
type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*AuditLog, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, log *AuditLog) error
}
