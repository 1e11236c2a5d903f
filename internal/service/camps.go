package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

// CampServiceOptions groups dependencies for CampService.
type CampServiceOptions struct {
	Repo   core.CampRepository // Required
	Logger *slog.Logger
}

// CampService manages the camp catalogue.
type CampService struct {
	repo   core.CampRepository
	logger *slog.Logger
}

// NewCampService constructs a new CampService.
func NewCampService(opts CampServiceOptions) *CampService {
	if opts.Repo == nil {
		panic("CampRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CampService{repo: opts.Repo, logger: logger.With("component", "camp_service")}
}

// List returns camps ordered by start date.
func (s *CampService) List(ctx context.Context, onlyOpen bool) ([]*model.Camp, error) {
	camps, err := s.repo.List(ctx, core.CampListOptions{OnlyOpen: onlyOpen})
	if err != nil {
		return nil, fmt.Errorf("list camps: %w", err)
	}
	return camps, nil
}

// Get returns one camp.
func (s *CampService) Get(ctx context.Context, id string) (*model.Camp, error) {
	camp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get camp: %w", err)
	}
	return camp, nil
}

// Create validates and stores a new camp.
func (s *CampService) Create(ctx context.Context, req model.CampRequest) (*model.Camp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	camp, err := s.repo.Create(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("create camp: %w", err)
	}
	s.logger.InfoContext(ctx, "camp created", "camp_id", camp.ID, "name", camp.Name)
	return camp, nil
}

// Update validates and replaces a camp's fields.
func (s *CampService) Update(ctx context.Context, id string, req model.CampRequest) (*model.Camp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	camp, err := s.repo.Update(ctx, id, &req)
	if err != nil {
		return nil, fmt.Errorf("update camp: %w", err)
	}
	s.logger.InfoContext(ctx, "camp updated", "camp_id", id)
	return camp, nil
}

// Delete removes a camp that has no enrollments.
func (s *CampService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	switch {
	case apperrors.GetCode(err) == apperrors.ErrCodeForeignKey:
		return apperrors.Conflict("Il campo ha delle iscrizioni e non può essere eliminato. Chiudilo invece.")
	case err != nil:
		return fmt.Errorf("delete camp: %w", err)
	case !ok:
		return apperrors.NotFound("Campo non trovato.")
	}
	s.logger.InfoContext(ctx, "camp deleted", "camp_id", id)
	return nil
}
