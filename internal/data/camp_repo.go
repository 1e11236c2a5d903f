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

// campSelect returns camps with their live (non-cancelled) enrollment count.
const campSelect = `
	SELECT c.id, c.name, c.location, c.starts_on, c.ends_on, c.capacity, c.price_cents, c.open, c.created_at,
	       (SELECT count(*) FROM enrollments e WHERE e.camp_id = c.id AND e.status <> 'cancelled')::int AS enrolled
	FROM camps c`

var _ core.CampRepository = (*CampRepo)(nil)

// CampRepo provides database operations for camps.
type CampRepo struct {
	DB *sql.DB
}

// NewCampRepo creates a new CampRepo.
func NewCampRepo(db *sql.DB) *CampRepo {
	return &CampRepo{DB: db}
}

// Create inserts a new camp.
func (r *CampRepo) Create(ctx context.Context, req *model.CampRequest) (*model.Camp, error) {
	if req == nil {
		return nil, errors.New("create camp request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	out, err := pgxutil.CollectOne[model.Camp](ctx, r.DB, `
		INSERT INTO camps (name, location, starts_on, ends_on, capacity, price_cents, open)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, location, starts_on, ends_on, capacity, price_cents, open, created_at, 0 AS enrolled`,
		req.Name, req.Location, req.StartsOn, req.EndsOn, req.Capacity, req.PriceCents, req.Open)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// GetByID retrieves a camp by ID.
func (r *CampRepo) GetByID(ctx context.Context, id string) (*model.Camp, error) {
	out, err := pgxutil.CollectOne[model.Camp](ctx, r.DB, campSelect+` WHERE c.id = $1`, id)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

// List returns camps ordered by start date.
func (r *CampRepo) List(ctx context.Context, opts core.CampListOptions) ([]*model.Camp, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query := campSelect + ` WHERE ($1 = FALSE OR c.open) ORDER BY c.starts_on, c.name LIMIT $2`
	out, err := pgxutil.CollectAll[model.Camp](ctx, r.DB, query, opts.OnlyOpen, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list camps: %w", err)
	}
	return out, nil
}

// Update replaces the editable fields of a camp.
func (r *CampRepo) Update(ctx context.Context, id string, req *model.CampRequest) (*model.Camp, error) {
	if req == nil {
		return nil, errors.New("update camp request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE camps SET name = $2, location = $3, starts_on = $4, ends_on = $5,
		       capacity = $6, price_cents = $7, open = $8
		WHERE id = $1`,
		id, req.Name, req.Location, req.StartsOn, req.EndsOn, req.Capacity, req.PriceCents, req.Open)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperrors.NotFound("Campo non trovato.")
	}
	return r.GetByID(ctx, id)
}

// Delete removes a camp. Camps with enrollments are protected by a foreign key.
func (r *CampRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM camps WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
