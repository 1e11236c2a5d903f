package model

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/campiestivi/campi/internal/errors"
)

// DateLayout is the form and display layout for calendar dates.
const DateLayout = "2006-01-02"

// Camp is one summer camp session.
type Camp struct {
	ID         string    `json:"id"          db:"id"`
	Name       string    `json:"name"        db:"name"`
	Location   string    `json:"location"    db:"location"`
	StartsOn   time.Time `json:"starts_on"   db:"starts_on"`
	EndsOn     time.Time `json:"ends_on"     db:"ends_on"`
	Capacity   int       `json:"capacity"    db:"capacity"`
	PriceCents int       `json:"price_cents" db:"price_cents"`
	Open       bool      `json:"open"        db:"open"`
	Enrolled   int       `json:"enrolled"    db:"enrolled"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// FreePlaces returns the remaining capacity, never negative.
func (c Camp) FreePlaces() int {
	if n := c.Capacity - c.Enrolled; n > 0 {
		return n
	}
	return 0
}

// AcceptsEnrollments reports whether a new enrollment may be created.
func (c Camp) AcceptsEnrollments() bool {
	return c.Open && c.FreePlaces() > 0
}

// CampRequest is the admin create/update form for a camp.
type CampRequest struct {
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	StartsOn   time.Time `json:"starts_on"`
	EndsOn     time.Time `json:"ends_on"`
	Capacity   int       `json:"capacity"`
	PriceCents int       `json:"price_cents"`
	Open       bool      `json:"open"`
}

// Validate trims strings and checks dates and numbers.
func (r *CampRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)

	if r.Name == "" {
		return apperrors.ValidationField("name", "Il nome del campo è obbligatorio.")
	}
	if utf8.RuneCountInString(r.Name) > 150 {
		return apperrors.ValidationField("name", "Il nome del campo è troppo lungo.")
	}
	if r.Location == "" {
		return apperrors.ValidationField("location", "Il luogo è obbligatorio.")
	}
	if r.StartsOn.IsZero() {
		return apperrors.ValidationField("starts_on", "La data di inizio è obbligatoria.")
	}
	if r.EndsOn.IsZero() || r.EndsOn.Before(r.StartsOn) {
		return apperrors.ValidationField("ends_on", "La data di fine deve seguire quella di inizio.")
	}
	if r.Capacity <= 0 {
		return apperrors.ValidationField("capacity", "I posti devono essere più di zero.")
	}
	if r.PriceCents < 0 {
		return apperrors.ValidationField("price_cents", "Il prezzo non può essere negativo.")
	}
	return nil
}
