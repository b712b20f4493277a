package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
)

const auditLogColumns = `id, actor_id, event_type, entity_id, occurred_at, metadata`

type AuditLogRepository struct {
	db *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Insert appends an event. audit_logs rejects UPDATE and DELETE at the
// database level, so this is the only write path.
func (r *AuditLogRepository) Insert(ctx context.Context, tx *sql.Tx, event *domain.AuditEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("Insert: marshal metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, event_type, entity_id, occurred_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.ActorID, event.EventType, event.EntityID, event.OccurredAt, string(metadata),
	)
	if err != nil {
		return storageErr("Insert", err)
	}
	return nil
}

func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityID int64) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditLogColumns+` FROM audit_logs
		WHERE entity_id = $1 ORDER BY occurred_at, seq`, entityID,
	)
	if err != nil {
		return nil, storageErr("ListByEntity", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows)
		if err != nil {
			return nil, storageErr("ListByEntity: scan", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListByEntity: rows", err)
	}
	return events, nil
}

func scanAuditEvent(s scanner) (*domain.AuditEvent, error) {
	var e domain.AuditEvent
	var metadata []byte

	err := s.Scan(&e.ID, &e.ActorID, &e.EventType, &e.EntityID, &e.OccurredAt, &metadata)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
	}
	return &e, nil
}
