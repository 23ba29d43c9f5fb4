package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/tairitsu/internal/model"
)

const checkColumns = `id, owner_id, params, result, status, resolution_notes, resolved_by, resolved_at, created_at`

// SaveCheck persists a computed conflict check result as a pending row.
// Implements screening.CheckStore.
func (db *DB) SaveCheck(ctx context.Context, result model.ConflictCheckResult, params model.ConflictCheckParams) (uuid.UUID, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storage: marshal check params: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storage: marshal check result: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO conflict_checks (owner_id, params, result, status)
		 VALUES ($1, $2::jsonb, $3::jsonb, $4)
		 RETURNING id`,
		params.OwnerID, paramsJSON, resultJSON, model.StatusPending,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("storage: save check: %w", err)
	}
	return id, nil
}

// GetCheck retrieves one persisted check by ID, scoped to the owner.
func (db *DB) GetCheck(ctx context.Context, id, ownerID uuid.UUID) (model.ConflictCheck, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+checkColumns+` FROM conflict_checks WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	c, err := scanCheck(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ConflictCheck{}, ErrNotFound
	}
	if err != nil {
		return model.ConflictCheck{}, fmt.Errorf("storage: get check: %w", err)
	}
	return c, nil
}

// ListChecks returns one page of the owner's persisted checks, newest first,
// optionally filtered by resolution status.
func (db *DB) ListChecks(ctx context.Context, ownerID uuid.UUID, status *model.ConflictStatus, limit, offset int) ([]model.ConflictCheck, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + checkColumns + ` FROM conflict_checks WHERE owner_id = $1`
	args := []any{ownerID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list checks: %w", err)
	}
	defer rows.Close()

	var checks []model.ConflictCheck
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// ListRecentChecks returns the newest persisted checks across all owners.
// Serves the MCP recent-checks resource.
func (db *DB) ListRecentChecks(ctx context.Context, limit int) ([]model.ConflictCheck, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+checkColumns+` FROM conflict_checks ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list recent checks: %w", err)
	}
	defer rows.Close()

	var checks []model.ConflictCheck
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

// CountChecks returns the owner's persisted check count, optionally by status.
func (db *DB) CountChecks(ctx context.Context, ownerID uuid.UUID, status *model.ConflictStatus) (int, error) {
	query := `SELECT COUNT(*) FROM conflict_checks WHERE owner_id = $1`
	args := []any{ownerID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	var count int
	if err := db.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count checks: %w", err)
	}
	return count, nil
}

// ResolveCheck transitions a pending check to a terminal resolution status.
// A check resolves at most once; resolving an already-resolved check returns
// ErrInvalidTransition.
func (db *DB) ResolveCheck(ctx context.Context, id, ownerID uuid.UUID, status model.ConflictStatus, resolvedBy uuid.UUID, notes *string) error {
	if !model.ValidResolution(status) {
		return fmt.Errorf("%w: %q is not a terminal status", ErrInvalidTransition, status)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE conflict_checks
		 SET status = $1, resolved_by = $2, resolved_at = now(), resolution_notes = $3
		 WHERE id = $4 AND owner_id = $5 AND status = $6`,
		status, resolvedBy, notes, id, ownerID, model.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("storage: resolve check: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing check from one already resolved.
	var current model.ConflictStatus
	err = db.pool.QueryRow(ctx,
		`SELECT status FROM conflict_checks WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: resolve check status lookup: %w", err)
	}
	return fmt.Errorf("%w: check is %s, not pending", ErrInvalidTransition, current)
}

func scanCheck(row pgx.Row) (model.ConflictCheck, error) {
	var c model.ConflictCheck
	var paramsJSON, resultJSON []byte
	if err := row.Scan(
		&c.ID, &c.OwnerID, &paramsJSON, &resultJSON, &c.Status,
		&c.ResolutionNotes, &c.ResolvedBy, &c.ResolvedAt, &c.CreatedAt,
	); err != nil {
		return model.ConflictCheck{}, err
	}
	if err := json.Unmarshal(paramsJSON, &c.Params); err != nil {
		return model.ConflictCheck{}, fmt.Errorf("unmarshal check params: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &c.Result); err != nil {
		return model.ConflictCheck{}, fmt.Errorf("unmarshal check result: %w", err)
	}
	return c, nil
}
