package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/audit/domain/entities/auditlog"
	"github.com/addissystems/orgadmin/modules/audit/infrastructure/persistence/models"
	"github.com/addissystems/orgadmin/pkg/composables"
	"github.com/addissystems/orgadmin/pkg/repo"
)

const (
	auditLogFindQuery = `
		SELECT al.id, al.actor_id, al.action, al.resource,
		       al.before, al.after, al.changed_fields, al.source_address, al.created_at
		FROM audit_logs al`

	auditLogCountQuery = `SELECT COUNT(*) FROM audit_logs al`
)

type PgAuditLogRepository struct{}

func NewAuditLogRepository() auditlog.Repository {
	return &PgAuditLogRepository{}
}

func buildAuditFilters(params *auditlog.FindParams) (string, []interface{}) {
	var where []string
	var args []interface{}
	if params.ActorID != nil {
		args = append(args, params.ActorID.String())
		where = append(where, fmt.Sprintf("al.actor_id = $%d", len(args)))
	}
	if params.Resource != "" {
		args = append(args, params.Resource)
		where = append(where, fmt.Sprintf("al.resource = $%d", len(args)))
	}
	if params.Action != "" {
		args = append(args, params.Action)
		where = append(where, fmt.Sprintf("al.action = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		where = append(where, fmt.Sprintf("al.created_at >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		where = append(where, fmt.Sprintf("al.created_at <= $%d", len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

func (g *PgAuditLogRepository) List(ctx context.Context, params *auditlog.FindParams) ([]*auditlog.AuditLog, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	filters, args := buildAuditFilters(params)
	query := repo.Join(
		auditLogFindQuery,
		filters,
		"ORDER BY al.created_at DESC",
		repo.FormatLimitOffset(params.Limit, params.Offset),
	)
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit logs")
	}
	defer rows.Close()

	var out []*auditlog.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(
			&l.ID,
			&l.ActorID,
			&l.Action,
			&l.Resource,
			&l.Before,
			&l.After,
			&l.ChangedFields,
			&l.SourceAddress,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		entity, err := toDomainAuditLog(&l)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (g *PgAuditLogRepository) Count(ctx context.Context, params *auditlog.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}
	filters, args := buildAuditFilters(params)
	var count int64
	if err := tx.QueryRow(ctx, repo.Join(auditLogCountQuery, filters), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count audit logs")
	}
	return count, nil
}

func (g *PgAuditLogRepository) Create(ctx context.Context, log *auditlog.AuditLog) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	dbLog := toDBAuditLog(log)
	fields := []string{
		"id", "actor_id", "action", "resource",
		"before", "after", "changed_fields", "source_address", "created_at",
	}
	if _, err := tx.Exec(ctx, repo.Insert("audit_logs", fields),
		dbLog.ID,
		dbLog.ActorID,
		dbLog.Action,
		dbLog.Resource,
		dbLog.Before,
		dbLog.After,
		dbLog.ChangedFields,
		dbLog.SourceAddress,
		dbLog.CreatedAt,
	); err != nil {
		return errors.Wrap(err, "failed to insert audit log")
	}
	return nil
}

func toDomainAuditLog(dbLog *models.AuditLog) (*auditlog.AuditLog, error) {
	id, err := uuid.Parse(dbLog.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse audit log id")
	}
	var actorID *uuid.UUID
	if dbLog.ActorID.Valid {
		parsed, err := uuid.Parse(dbLog.ActorID.String)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse actor id")
		}
		actorID = &parsed
	}
	return &auditlog.AuditLog{
		ID:            id,
		ActorID:       actorID,
		Action:        dbLog.Action,
		Resource:      dbLog.Resource,
		Before:        dbLog.Before,
		After:         dbLog.After,
		ChangedFields: dbLog.ChangedFields,
		SourceAddress: dbLog.SourceAddress,
		CreatedAt:     dbLog.CreatedAt,
	}, nil
}

func toDBAuditLog(entity *auditlog.AuditLog) *models.AuditLog {
	dbLog := &models.AuditLog{
		ID:            entity.ID.String(),
		Action:        entity.Action,
		Resource:      entity.Resource,
		Before:        entity.Before,
		After:         entity.After,
		ChangedFields: entity.ChangedFields,
		SourceAddress: entity.SourceAddress,
		CreatedAt:     entity.CreatedAt,
	}
	if entity.ActorID != nil {
		dbLog.ActorID = sql.NullString{String: entity.ActorID.String(), Valid: true}
	}
	return dbLog
}
