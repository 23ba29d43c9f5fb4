package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEvent is an append-only record of a conflict check or other
// state-changing operation. The target table is immutable apart from the
// retention sweep.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	EventKind string         `json:"event_kind"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// RecordAuditEvent appends an audit event. Implements screening.Auditor.
func (db *DB) RecordAuditEvent(ctx context.Context, ownerID uuid.UUID, eventKind string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("storage: marshal audit metadata: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO audit_log (owner_id, event_kind, metadata)
		 VALUES ($1, $2, $3::jsonb)`,
		ownerID, eventKind, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("storage: insert audit event: %w", err)
	}
	return nil
}

// ListAuditEvents returns the owner's most recent audit events, newest first.
func (db *DB) ListAuditEvents(ctx context.Context, ownerID uuid.UUID, limit int) ([]AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, owner_id, event_kind, metadata, created_at
		 FROM audit_log
		 WHERE owner_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		ownerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list audit events: %w", err)
	}
	defer rows.Close()

	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		var metaJSON []byte
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.EventKind, &metaJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan audit event: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
			return nil, fmt.Errorf("storage: unmarshal audit metadata: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// PurgeAuditEvents deletes audit events older than the cutoff and returns
// the number of rows removed. Driven by the background retention loop.
func (db *DB) PurgeAuditEvents(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM audit_log WHERE created_at < $1`, before,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: purge audit events: %w", err)
	}
	return tag.RowsAffected(), nil
}
