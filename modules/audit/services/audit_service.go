package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/pkg/composables"
)

type AuditService struct {
	repo  auditlog.Repository
	clock func() time.Time
}

type Option func(*AuditService)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *AuditService) {
		s.clock = clock
	}
}

func NewAuditService(repo auditlog.Repository, opts ...Option) *AuditService {
	s := &AuditService{
		repo:  repo,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordChange appends an immutable audit record for one mutation. A nil
// before marks a create, a nil after marks a delete; both are recorded with
// empty ChangedFields. The actor and source address come from the context;
// a context without an actor produces a system-initiated record.
func (s *AuditService) RecordChange(ctx context.Context, action, resource string, before, after any) (*auditlog.AuditLog, error) {
	beforeJSON, err := marshalSnapshot(before)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal before snapshot")
	}
	afterJSON, err := marshalSnapshot(after)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal after snapshot")
	}

	changed, err := ChangedFields(beforeJSON, afterJSON)
	if err != nil {
		return nil, errors.Wrap(err, "failed to diff snapshots")
	}

	var actorID *uuid.UUID
	if id, err := composables.UseActorID(ctx); err == nil {
		actorID = &id
	}
	ip, _ := composables.UseIP(ctx)

	entry := &auditlog.AuditLog{
		ID:            uuid.New(),
		ActorID:       actorID,
		Action:        action,
		Resource:      resource,
		Before:        beforeJSON,
		After:         afterJSON,
		ChangedFields: changed,
		SourceAddress: ip,
		CreatedAt:     s.clock(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, errors.Wrap(err, "failed to store audit log")
	}
	return entry, nil
}

func (s *AuditService) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	return s.repo.List(ctx, params)
}

func (s *AuditService) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// ChangedFields returns the sorted set of top-level keys whose serialized
// values differ between the two snapshots. Create and delete events, where
// one side is nil, have no changed-fields concept and yield nil.
func ChangedFields(before, after json.RawMessage) ([]string, error) {
	if before == nil || after == nil {
		return nil, nil
	}

	patch, err := jsondiff.CompareJSON(before, after)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, op := range patch {
		field := topLevelField(op.Path)
		if field == "" {
			continue
		}
		seen[field] = struct{}{}
	}

	fields := make([]string, 0, len(seen))
	for f := range seen {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields, nil
}

func topLevelField(pointer string) string {
	if pointer == "" || pointer == "/" {
		return ""
	}
	segment := strings.TrimPrefix(pointer, "/")
	if i := strings.IndexByte(segment, '/'); i >= 0 {
		segment = segment[:i]
	}
	// JSON pointer escapes, RFC 6901.
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

// FieldChange is one rendered line of an audit diff.
type FieldChange struct {
	Field  string
	Before json.RawMessage
	After  json.RawMessage
}

// Render produces the field-by-field view of a record. It is a pure function
// of the stored snapshots and changed-field set; the inputs are never
// mutated.
func Render(before, after json.RawMessage, changedFields []string) ([]FieldChange, error) {
	beforeMap, err := unmarshalObject(before)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode before snapshot")
	}
	afterMap, err := unmarshalObject(after)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode after snapshot")
	}

	changes := make([]FieldChange, 0, len(changedFields))
	for _, field := range changedFields {
		changes = append(changes, FieldChange{
			Field:  field,
			Before: beforeMap[field],
			After:  afterMap[field],
		})
	}
	return changes, nil
}

func unmarshalObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	if raw == nil {
		return nil, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
