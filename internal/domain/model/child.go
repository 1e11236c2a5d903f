package model

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/campiestivi/campi/internal/errors"
)

// Child belongs to exactly one parent account (OwnerID).
type Child struct {
	ID        string    `json:"id"         db:"id"`
	OwnerID   string    `json:"owner_id"   db:"owner_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name"  db:"last_name"`
	BirthDate time.Time `json:"birth_date" db:"birth_date"`
	Notes     string    `json:"notes"      db:"notes"`
}

// FullName returns "First Last".
func (c Child) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// AgeOn returns the child's age in whole years on day.
func (c Child) AgeOn(day time.Time) int {
	years := day.Year() - c.BirthDate.Year()
	if day.YearDay() < c.BirthDate.YearDay() {
		years--
	}
	return years
}

// ChildRequest is the create/update form for a child.
type ChildRequest struct {
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate time.Time `json:"birth_date"`
	Notes     string    `json:"notes"`
}

// Validate trims the fields and checks the birth date is in the past.
func (r *ChildRequest) Validate(now time.Time) error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Notes = strings.TrimSpace(r.Notes)

	if err := requiredName("first_name", "Nome", r.FirstName); err != nil {
		return err
	}
	if err := requiredName("last_name", "Cognome", r.LastName); err != nil {
		return err
	}
	if r.BirthDate.IsZero() || !r.BirthDate.Before(now) {
		return apperrors.ValidationField("birth_date", "Data di nascita non valida.")
	}
	if utf8.RuneCountInString(r.Notes) > 1000 {
		return apperrors.ValidationField("notes", "Le note sono troppo lunghe.")
	}
	return nil
}
