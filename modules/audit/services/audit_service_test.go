package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/pkg/composables"
)

type mockAuditRepo struct {
	created []*auditlog.AuditLog
}

func (m *mockAuditRepo) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	return m.created, nil
}

func (m *mockAuditRepo) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	return int64(len(m.created)), nil
}

func (m *mockAuditRepo) Create(ctx context.Context, log *auditlog.AuditLog) error {
	m.created = append(m.created, log)
	return nil
}

func TestChangedFields_SingleField(t *testing.T) {
	changed, err := ChangedFields(
		json.RawMessage(`{"status":"pending"}`),
		json.RawMessage(`{"status":"active"}`),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"status"}, changed)
}

func TestChangedFields_AddedField(t *testing.T) {
	changed, err := ChangedFields(
		json.RawMessage(`{"status":"pending"}`),
		json.RawMessage(`{"status":"active","accessLevel":"expert"}`),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"accessLevel", "status"}, changed)
}

func TestChangedFields_DeepComparison(t *testing.T) {
	// Nested changes attribute to the top-level key; identical nested
	// values do not.
	changed, err := ChangedFields(
		json.RawMessage(`{"authority":{"canManageTeams":true},"reason":"coverage"}`),
		json.RawMessage(`{"authority":{"canManageTeams":false},"reason":"coverage"}`),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"authority"}, changed)
}

func TestChangedFields_NilSnapshot(t *testing.T) {
	changed, err := ChangedFields(nil, json.RawMessage(`{"name":"Audit Bureau"}`))
	require.NoError(t, err)
	require.Nil(t, changed)

	changed, err = ChangedFields(json.RawMessage(`{"name":"Audit Bureau"}`), nil)
	require.NoError(t, err)
	require.Nil(t, changed)
}

func TestRecordChange_CreateEvent(t *testing.T) {
	repo := &mockAuditRepo{}
	now := time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC)
	svc := NewAuditService(repo, WithClock(func() time.Time { return now }))

	actorID := uuid.New()
	ctx := composables.WithActorID(context.Background(), actorID)
	ctx = composables.WithParams(ctx, &composables.Params{IP: "10.1.4.7"})

	entry, err := svc.RecordChange(ctx, "create", "Organization", nil, map[string]any{"name": "Head Office"})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	require.Equal(t, &actorID, entry.ActorID)
	require.Equal(t, "10.1.4.7", entry.SourceAddress)
	require.Nil(t, entry.Before)
	require.JSONEq(t, `{"name":"Head Office"}`, string(entry.After))
	require.Empty(t, entry.ChangedFields)
	require.Equal(t, now, entry.CreatedAt)
}

func TestRecordChange_SystemInitiated(t *testing.T) {
	repo := &mockAuditRepo{}
	svc := NewAuditService(repo)

	entry, err := svc.RecordChange(context.Background(), "update", "Delegation",
		map[string]any{"status": "active"},
		map[string]any{"status": "expired"},
	)
	require.NoError(t, err)
	require.Nil(t, entry.ActorID)
	require.Equal(t, []string{"status"}, entry.ChangedFields)
}

func TestRender_PureAndComplete(t *testing.T) {
	before := json.RawMessage(`{"status":"pending","name":"Finance"}`)
	after := json.RawMessage(`{"status":"active","name":"Finance"}`)

	changes, err := Render(before, after, []string{"status"})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, "status", changes[0].Field)
	require.JSONEq(t, `"pending"`, string(changes[0].Before))
	require.JSONEq(t, `"active"`, string(changes[0].After))

	// Inputs stay byte-identical after rendering.
	require.Equal(t, json.RawMessage(`{"status":"pending","name":"Finance"}`), before)
	require.Equal(t, json.RawMessage(`{"status":"active","name":"Finance"}`), after)
}
