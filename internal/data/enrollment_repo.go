package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/data/pgxutil"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

const enrollmentViewSelect = `
	SELECT e.id, e.child_id, e.camp_id, e.owner_id, e.status, e.health_notes, e.created_at,
	       ch.first_name || ' ' || ch.last_name AS child_name,
	       c.name AS camp_name, c.starts_on AS camp_starts, u.email AS owner_email
	FROM enrollments e
	JOIN children ch ON ch.id = e.child_id
	JOIN camps c ON c.id = e.camp_id
	JOIN users u ON u.id = e.owner_id`

var _ core.EnrollmentRepository = (*EnrollmentRepo)(nil)

// EnrollmentRepo provides database operations for enrollments.
type EnrollmentRepo struct {
	DB *sql.DB
}

// NewEnrollmentRepo creates a new EnrollmentRepo.
func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo {
	return &EnrollmentRepo{DB: db}
}

// Create inserts an enrollment while the camp still has room. A full or
// closed camp yields a Conflict; a duplicate (child, camp) pair yields a
// Conflict from the unique constraint.
//
// The camp row is locked first so concurrent submits for the same camp count
// free places one at a time.
func (r *EnrollmentRepo) Create(ctx context.Context, e *model.Enrollment) (*model.Enrollment, error) {
	if e == nil {
		return nil, errors.New("enrollment is required")
	}
	status := e.Status
	if status == "" {
		status = model.EnrollmentPending
	}
	var out model.Enrollment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			var capacity int
			if err := tx.QueryRow(ctx,
				`SELECT capacity FROM camps WHERE id = $1 AND open FOR UPDATE`, e.CampID).Scan(&capacity); err != nil {
				return err
			}
			rows, err := tx.Query(ctx, `
				INSERT INTO enrollments (child_id, camp_id, owner_id, status, health_notes)
				SELECT $1::uuid, $2::uuid, $3::uuid, $4, $5
				WHERE (SELECT count(*) FROM enrollments x
				       WHERE x.camp_id = $2 AND x.status <> 'cancelled') < $6
				RETURNING id, child_id, camp_id, owner_id, status, health_notes, created_at`,
				e.ChildID, e.CampID, e.OwnerID, string(status), e.HealthNotes, capacity)
			if err != nil {
				return err
			}
			out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Enrollment])
			return err
		})
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		switch {
		case apperrors.IsNotFound(mapped):
			return nil, apperrors.ConflictField("camp_id", "Il campo è chiuso o al completo.")
		case apperrors.IsConflict(mapped):
			return nil, apperrors.ConflictField("child_id", "Questo figlio è già iscritto a questo campo.")
		}
		return nil, mapped
	}
	return &out, nil
}

// ListByOwner returns a parent's enrollment history, newest first.
func (r *EnrollmentRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.EnrollmentView, error) {
	out, err := pgxutil.CollectAll[model.EnrollmentView](ctx, r.DB,
		enrollmentViewSelect+` WHERE e.owner_id = $1 ORDER BY e.created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return out, nil
}

// ListRecent returns the newest enrollments across all parents.
func (r *EnrollmentRepo) ListRecent(ctx context.Context, limit int) ([]*model.EnrollmentView, error) {
	if limit <= 0 {
		limit = 20
	}
	out, err := pgxutil.CollectAll[model.EnrollmentView](ctx, r.DB,
		enrollmentViewSelect+` ORDER BY e.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent enrollments: %w", err)
	}
	return out, nil
}

// SetStatus moves an enrollment to status.
func (r *EnrollmentRepo) SetStatus(ctx context.Context, id string, status model.EnrollmentStatus) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE enrollments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
