package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/ports"
)

const childrenTable = "children"

// ChildServiceOptions groups dependencies for ChildService.
type ChildServiceOptions struct {
	Repo   core.ChildRepository // Required: typed reads and inserts
	Rows   ports.RowStore       // Required: ownership checks, updates and deletes
	Logger *slog.Logger
}

// ChildService manages a parent's children. Every write re-checks that the
// child belongs to the caller, whatever the HTTP layer already decided.
type ChildService struct {
	repo   core.ChildRepository
	rows   ports.RowStore
	logger *slog.Logger
	now    func() time.Time
}

// NewChildService constructs a new ChildService.
func NewChildService(opts ChildServiceOptions) *ChildService {
	if opts.Repo == nil {
		panic("ChildRepository is required")
	}
	if opts.Rows == nil {
		panic("RowStore is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChildService{repo: opts.Repo, rows: opts.Rows, logger: logger.With("component", "child_service"), now: time.Now}
}

// List returns the caller's children.
func (s *ChildService) List(ctx context.Context, ownerID string) ([]*model.Child, error) {
	children, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}

// Get returns one of the caller's children.
func (s *ChildService) Get(ctx context.Context, ownerID, childID string) (*model.Child, error) {
	child, err := s.repo.GetByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	if child.OwnerID != ownerID {
		return nil, apperrors.Forbidden("Questo profilo non appartiene al tuo account.")
	}
	return child, nil
}

// Create adds a child to the caller's account.
func (s *ChildService) Create(ctx context.Context, ownerID string, req model.ChildRequest) (*model.Child, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("Accesso richiesto.")
	}
	if err := req.Validate(s.now()); err != nil {
		return nil, err
	}
	child, err := s.repo.Create(ctx, ownerID, &req)
	if err != nil {
		return nil, fmt.Errorf("create child: %w", err)
	}
	s.logger.InfoContext(ctx, "child added", "child_id", child.ID, "owner_id", ownerID)
	return child, nil
}

// Update replaces a child's fields after the ownership check.
func (s *ChildService) Update(ctx context.Context, ownerID, childID string, req model.ChildRequest) error {
	if err := req.Validate(s.now()); err != nil {
		return err
	}
	if err := s.ensureOwner(ctx, ownerID, childID); err != nil {
		return err
	}
	n, err := s.rows.Update(ctx, childrenTable, ports.Filter{"id": childID, "owner_id": ownerID}, ports.Row{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"birth_date": req.BirthDate,
		"notes":      req.Notes,
	})
	if err != nil {
		return fmt.Errorf("update child: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("Figlio non trovato.")
	}
	return nil
}

// Delete removes a child and, by cascade, their enrollments.
func (s *ChildService) Delete(ctx context.Context, ownerID, childID string) error {
	if err := s.ensureOwner(ctx, ownerID, childID); err != nil {
		return err
	}
	n, err := s.rows.Delete(ctx, childrenTable, ports.Filter{"id": childID, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("Figlio non trovato.")
	}
	s.logger.InfoContext(ctx, "child removed", "child_id", childID, "owner_id", ownerID)
	return nil
}

// ensureOwner loads the child row and compares its owner with the caller.
func (s *ChildService) ensureOwner(ctx context.Context, ownerID, childID string) error {
	if ownerID == "" {
		return apperrors.Unauthorized("Accesso richiesto.")
	}
	if childID == "" {
		return apperrors.NotFound("Figlio non trovato.")
	}
	row, err := s.rows.FindOne(ctx, childrenTable, ports.Filter{"id": childID})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFound("Figlio non trovato.")
		}
		return fmt.Errorf("load child: %w", err)
	}
	if row.String("owner_id") != ownerID {
		s.logger.WarnContext(ctx, "child ownership mismatch", "child_id", childID, "caller", ownerID)
		return apperrors.Forbidden("Questo profilo non appartiene al tuo account.")
	}
	return nil
}
