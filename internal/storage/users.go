package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ashita-ai/tairitsu/internal/model"
)

const userColumns = `id, email, name, role, api_key_hash, created_at`

// CreateUser inserts a new user. Email is unique; a duplicate returns
// ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, role, api_key_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Email, u.Name, u.Role, u.APIKeyHash,
	).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return model.User{}, ErrDuplicate
	}
	if err != nil {
		return model.User{}, fmt.Errorf("storage: create user: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves one user by ID.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail retrieves one user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return db.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// EnsureAdmin upserts the bootstrap admin user for the configured email,
// refreshing the API key hash on every boot so a rotated TAIRITSU_ADMIN_API_KEY
// takes effect without manual intervention.
func (db *DB) EnsureAdmin(ctx context.Context, email, name, apiKeyHash string) (model.User, error) {
	var u model.User
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, role, api_key_hash)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET api_key_hash = EXCLUDED.api_key_hash
		 RETURNING `+userColumns,
		email, name, model.RoleAdmin, apiKeyHash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.APIKeyHash, &u.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("storage: ensure admin: %w", err)
	}
	return u, nil
}

func (db *DB) getUser(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := db.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.APIKeyHash, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("storage: get user: %w", err)
	}
	return u, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
