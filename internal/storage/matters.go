package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/tairitsu/internal/model"
)

const matterColumns = `id, owner_id, title, client_name, adverse_party, description, status, created_at, updated_at`

// CreateMatter inserts a new matter for the owner. New matters start active.
func (db *DB) CreateMatter(ctx context.Context, ownerID uuid.UUID, req model.CreateMatterRequest) (model.Matter, error) {
	m := model.Matter{
		OwnerID:      ownerID,
		Title:        req.Title,
		ClientName:   req.ClientName,
		AdverseParty: req.AdverseParty,
		Description:  req.Description,
		Status:       model.MatterActive,
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO matters (owner_id, title, client_name, adverse_party, description, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		ownerID, req.Title, req.ClientName, req.AdverseParty, req.Description, m.Status,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return model.Matter{}, fmt.Errorf("storage: create matter: %w", err)
	}
	return m, nil
}

// GetMatter retrieves one matter by ID, scoped to the owner.
func (db *DB) GetMatter(ctx context.Context, id, ownerID uuid.UUID) (model.Matter, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+matterColumns+` FROM matters WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	m, err := scanMatter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Matter{}, ErrNotFound
	}
	if err != nil {
		return model.Matter{}, fmt.Errorf("storage: get matter: %w", err)
	}
	return m, nil
}

// ListMatters returns the owner's entire book of matters, optionally
// excluding one matter (a re-check of an existing matter must not match
// itself). Every conflict check scans this full set; the field length limits
// on matters keep the scan bounded.
func (db *DB) ListMatters(ctx context.Context, ownerID uuid.UUID, excludeID *uuid.UUID) ([]model.Matter, error) {
	query := `SELECT ` + matterColumns + ` FROM matters WHERE owner_id = $1`
	args := []any{ownerID}
	if excludeID != nil {
		query += ` AND id != $2`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list matters: %w", err)
	}
	defer rows.Close()

	return scanMatterRows(rows)
}

// ListMattersPage returns one page of the owner's matters, newest first,
// optionally filtered by status.
func (db *DB) ListMattersPage(ctx context.Context, ownerID uuid.UUID, status *model.MatterStatus, limit, offset int) ([]model.Matter, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + matterColumns + ` FROM matters WHERE owner_id = $1`
	args := []any{ownerID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list matters page: %w", err)
	}
	defer rows.Close()

	return scanMatterRows(rows)
}

// CountMatters returns the owner's matter count, optionally by status.
func (db *DB) CountMatters(ctx context.Context, ownerID uuid.UUID, status *model.MatterStatus) (int, error) {
	query := `SELECT COUNT(*) FROM matters WHERE owner_id = $1`
	args := []any{ownerID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	var count int
	if err := db.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("storage: count matters: %w", err)
	}
	return count, nil
}

// UpdateMatterStatus transitions a matter to a new lifecycle state.
func (db *DB) UpdateMatterStatus(ctx context.Context, id, ownerID uuid.UUID, status model.MatterStatus) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE matters SET status = $1, updated_at = now() WHERE id = $2 AND owner_id = $3`,
		status, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("storage: update matter status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMatter(row pgx.Row) (model.Matter, error) {
	var m model.Matter
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Title, &m.ClientName, &m.AdverseParty,
		&m.Description, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func scanMatterRows(rows pgx.Rows) ([]model.Matter, error) {
	var matters []model.Matter
	for rows.Next() {
		m, err := scanMatter(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan matter: %w", err)
		}
		matters = append(matters, m)
	}
	return matters, rows.Err()
}
