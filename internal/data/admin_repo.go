package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/data/pgxutil"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

var _ core.AdminRepository = (*AdminRepo)(nil)

// AdminRepo manages rows of the admin-membership table.
type AdminRepo struct {
	DB *sql.DB
}

// NewAdminRepo creates a new AdminRepo.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{DB: db}
}

// Grant adds userID to the admin set. Granting twice is a no-op.
func (r *AdminRepo) Grant(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO admins (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Revoke removes userID from the admin set and reports whether a row was removed.
func (r *AdminRepo) Revoke(ctx context.Context, userID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns the accounts currently in the admin set.
func (r *AdminRepo) List(ctx context.Context) ([]*model.User, error) {
	out, err := pgxutil.CollectAll[model.User](ctx, r.DB, `
		SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.created_at
		FROM admins a JOIN users u ON u.id = a.user_id
		ORDER BY u.email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return out, nil
}
