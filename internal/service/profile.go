package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/ports"
)

const profilesTable = "profiles"

// ProfileService reads and updates the contact details of an account.
type ProfileService struct {
	rows ports.RowStore
	now  func() time.Time
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(rows ports.RowStore) *ProfileService {
	if rows == nil {
		panic("RowStore is required")
	}
	return &ProfileService{rows: rows, now: time.Now}
}

// Get returns the profile of userID. A missing row reads as an empty profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	row, err := s.rows.FindOne(ctx, profilesTable, ports.Filter{"user_id": userID})
	if apperrors.IsNotFound(err) {
		return &model.Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p := &model.Profile{
		UserID:  userID,
		Phone:   row.String("phone"),
		Address: row.String("address"),
		City:    row.String("city"),
	}
	if t, ok := row["updated_at"].(time.Time); ok {
		p.UpdatedAt = t
	}
	return p, nil
}

// Update writes the editable profile fields.
func (s *ProfileService) Update(ctx context.Context, userID string, req model.UpdateProfileRequest) error {
	if userID == "" {
		return apperrors.Unauthorized("Accesso richiesto.")
	}
	if err := req.Validate(); err != nil {
		return err
	}
	n, err := s.rows.Update(ctx, profilesTable, ports.Filter{"user_id": userID}, ports.Row{
		"phone":      req.Phone,
		"address":    req.Address,
		"city":       req.City,
		"updated_at": s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("Profilo non trovato.")
	}
	return nil
}
