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

const childColumns = `id, owner_id, first_name, last_name, birth_date, notes`

var _ core.ChildRepository = (*ChildRepo)(nil)

// ChildRepo provides database operations for children. Updates and deletes go
// through RowStore after the service has checked ownership.
type ChildRepo struct {
	DB *sql.DB
}

// NewChildRepo creates a new ChildRepo.
func NewChildRepo(db *sql.DB) *ChildRepo {
	return &ChildRepo{DB: db}
}

// Create inserts a child owned by ownerID.
func (r *ChildRepo) Create(ctx context.Context, ownerID string, req *model.ChildRequest) (*model.Child, error) {
	if req == nil {
		return nil, errors.New("create child request is required")
	}
	out, err := pgxutil.CollectOne[model.Child](ctx, r.DB, `
		INSERT INTO children (owner_id, first_name, last_name, birth_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+childColumns,
		ownerID, req.FirstName, req.LastName, req.BirthDate, req.Notes)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID retrieves a child by ID regardless of owner.
func (r *ChildRepo) GetByID(ctx context.Context, id string) (*model.Child, error) {
	out, err := pgxutil.CollectOne[model.Child](ctx, r.DB,
		`SELECT `+childColumns+` FROM children WHERE id = $1`, id)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// ListByOwner returns the children of one parent.
func (r *ChildRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Child, error) {
	out, err := pgxutil.CollectAll[model.Child](ctx, r.DB,
		`SELECT `+childColumns+` FROM children WHERE owner_id = $1 ORDER BY birth_date, first_name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return out, nil
}
