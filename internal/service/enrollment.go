package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

// EnrollmentRepos groups the repositories the enrollment flow reads from.
type EnrollmentRepos struct {
	Enrollments core.EnrollmentRepository
	Children    core.ChildRepository
	Camps       core.CampRepository
}

// EnrollmentServiceOptions groups dependencies for EnrollmentService.
type EnrollmentServiceOptions struct {
	Repos  EnrollmentRepos // All required
	Logger *slog.Logger
}

// EnrollmentService drives the multi-step enrollment form and the admin
// enrollment list.
type EnrollmentService struct {
	enrollments core.EnrollmentRepository
	children    core.ChildRepository
	camps       core.CampRepository
	logger      *slog.Logger
}

// NewEnrollmentService constructs a new EnrollmentService.
func NewEnrollmentService(opts EnrollmentServiceOptions) *EnrollmentService {
	if opts.Repos.Enrollments == nil || opts.Repos.Children == nil || opts.Repos.Camps == nil {
		panic("enrollment, child and camp repositories are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentService{
		enrollments: opts.Repos.Enrollments,
		children:    opts.Repos.Children,
		camps:       opts.Repos.Camps,
		logger:      logger.With("component", "enrollment_service"),
	}
}

// FormOptions is what the form offers to pick from.
type FormOptions struct {
	Children []*model.Child
	Camps    []*model.Camp
}

// Options lists the caller's children and the camps still accepting enrollments.
func (s *EnrollmentService) Options(ctx context.Context, ownerID string) (*FormOptions, error) {
	children, err := s.children.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	camps, err := s.camps.List(ctx, core.CampListOptions{OnlyOpen: true})
	if err != nil {
		return nil, fmt.Errorf("list camps: %w", err)
	}
	open := camps[:0]
	for _, c := range camps {
		if c.AcceptsEnrollments() {
			open = append(open, c)
		}
	}
	return &FormOptions{Children: children, Camps: open}, nil
}

// Review is the resolved draft shown on the last step.
type Review struct {
	Child *model.Child
	Camp  *model.Camp
	Draft model.EnrollmentDraft
}

// Validate checks every step up to and including step. The child must belong
// to the caller and the camp must still accept enrollments.
func (s *EnrollmentService) Validate(ctx context.Context, ownerID string, draft *model.EnrollmentDraft, step model.EnrollmentStep) (*Review, error) {
	if ownerID == "" {
		return nil, apperrors.Unauthorized("Accesso richiesto.")
	}
	if err := draft.ValidateThrough(step); err != nil {
		return nil, err
	}
	review := &Review{Draft: *draft}

	if step >= model.StepChild {
		child, err := s.children.GetByID(ctx, draft.ChildID)
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ValidationField("child_id", "Seleziona un figlio valido.")
		}
		if err != nil {
			return nil, fmt.Errorf("load child: %w", err)
		}
		if child.OwnerID != ownerID {
			return nil, apperrors.ValidationField("child_id", "Seleziona un figlio valido.")
		}
		review.Child = child
	}

	if step >= model.StepCamp {
		camp, err := s.camps.GetByID(ctx, draft.CampID)
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ValidationField("camp_id", "Seleziona un campo valido.")
		}
		if err != nil {
			return nil, fmt.Errorf("load camp: %w", err)
		}
		if !camp.AcceptsEnrollments() {
			return nil, apperrors.ValidationField("camp_id", "Il campo è chiuso o al completo.")
		}
		review.Camp = camp
	}
	return review, nil
}

// Submit validates the whole draft and stores a pending enrollment.
func (s *EnrollmentService) Submit(ctx context.Context, ownerID string, draft model.EnrollmentDraft) (*model.Enrollment, error) {
	if _, err := s.Validate(ctx, ownerID, &draft, model.StepReview); err != nil {
		return nil, err
	}
	e, err := s.enrollments.Create(ctx, &model.Enrollment{
		ChildID:     draft.ChildID,
		CampID:      draft.CampID,
		OwnerID:     ownerID,
		Status:      model.EnrollmentPending,
		HealthNotes: draft.HealthNotes,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	s.logger.InfoContext(ctx, "enrollment submitted",
		"enrollment_id", e.ID, "camp_id", e.CampID, "owner_id", ownerID)
	return e, nil
}

// History returns the caller's enrollments, newest first.
func (s *EnrollmentService) History(ctx context.Context, ownerID string) ([]*model.EnrollmentView, error) {
	out, err := s.enrollments.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("enrollment history: %w", err)
	}
	return out, nil
}

// SetStatus confirms or cancels an enrollment from the back office.
func (s *EnrollmentService) SetStatus(ctx context.Context, id string, status model.EnrollmentStatus) error {
	switch status {
	case model.EnrollmentPending, model.EnrollmentConfirmed, model.EnrollmentCancelled:
	default:
		return apperrors.ValidationField("status", "Stato non valido.")
	}
	ok, err := s.enrollments.SetStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("set enrollment status: %w", err)
	}
	if !ok {
		return apperrors.NotFound("Iscrizione non trovata.")
	}
	s.logger.InfoContext(ctx, "enrollment status changed", "enrollment_id", id, "status", string(status))
	return nil
}
