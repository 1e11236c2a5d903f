package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/data/pgxutil"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

const userColumns = `id, email, password_hash, first_name, last_name, created_at`

var _ core.UserRepository = (*UserRepo)(nil)

// UserRepo provides database operations for site accounts.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// Create inserts a user together with an empty profile row.
func (r *UserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, errors.New("user is required")
	}
	out, err := pgxutil.CollectOne[model.User](ctx, r.DB, `
		WITH u AS (
			INSERT INTO users (email, password_hash, first_name, last_name)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns+`
		), p AS (
			INSERT INTO profiles (user_id) SELECT id FROM u
		)
		SELECT `+userColumns+` FROM u`,
		model.NormalizeEmail(user.Email), user.PasswordHash, user.FirstName, user.LastName)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	out, err := pgxutil.CollectOne[model.User](ctx, r.DB,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByEmail retrieves a user by normalised email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	out, err := pgxutil.CollectOne[model.User](ctx, r.DB,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, model.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// EnsureExternal upserts a passwordless account keyed by email. Names are
// refreshed from the provider; an existing password hash is left untouched.
func (r *UserRepo) EnsureExternal(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, errors.New("user is required")
	}
	out, err := pgxutil.CollectOne[model.User](ctx, r.DB, `
		WITH u AS (
			INSERT INTO users (email, first_name, last_name)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO UPDATE
				SET first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
				    last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name)
			RETURNING `+userColumns+`
		), p AS (
			INSERT INTO profiles (user_id) SELECT id FROM u ON CONFLICT (user_id) DO NOTHING
		)
		SELECT `+userColumns+` FROM u`,
		model.NormalizeEmail(user.Email), user.FirstName, user.LastName)
	if err != nil {
		return nil, fmt.Errorf("ensure external user: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// ListRecent returns the newest accounts first.
func (r *UserRepo) ListRecent(ctx context.Context, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 20
	}
	out, err := pgxutil.CollectAll[model.User](ctx, r.DB,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, email LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return out, nil
}
