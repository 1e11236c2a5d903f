package model

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/campiestivi/campi/internal/errors"
)

// EnrollmentStatus tracks an enrollment through review.
type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentConfirmed EnrollmentStatus = "confirmed"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Label returns the Italian label shown in the UI.
func (s EnrollmentStatus) Label() string {
	switch s {
	case EnrollmentConfirmed:
		return "Confermata"
	case EnrollmentCancelled:
		return "Annullata"
	default:
		return "In attesa"
	}
}

// Enrollment links a child to a camp.
type Enrollment struct {
	ID          string           `json:"id"           db:"id"`
	ChildID     string           `json:"child_id"     db:"child_id"`
	CampID      string           `json:"camp_id"      db:"camp_id"`
	OwnerID     string           `json:"owner_id"     db:"owner_id"`
	Status      EnrollmentStatus `json:"status"       db:"status"`
	HealthNotes string           `json:"health_notes" db:"health_notes"`
	CreatedAt   time.Time        `json:"created_at"   db:"created_at"`
}

// EnrollmentView is an enrollment joined with child, camp and parent names for listings.
type EnrollmentView struct {
	Enrollment
	ChildName  string    `json:"child_name"  db:"child_name"`
	CampName   string    `json:"camp_name"   db:"camp_name"`
	CampStarts time.Time `json:"camp_starts" db:"camp_starts"`
	OwnerEmail string    `json:"owner_email" db:"owner_email"`
}

// EnrollmentStep numbers the pages of the enrollment form.
type EnrollmentStep int

const (
	StepChild EnrollmentStep = iota + 1
	StepCamp
	StepHealth
	StepReview
)

// EnrollmentDraft is the state carried across the enrollment form steps.
type EnrollmentDraft struct {
	ChildID      string
	CampID       string
	HealthNotes  string
	Allergies    bool
	AcceptTerms  bool
	ConsentPhoto bool
}

// ValidateThrough checks every field belonging to steps up to and including step.
func (d *EnrollmentDraft) ValidateThrough(step EnrollmentStep) error {
	d.ChildID = strings.TrimSpace(d.ChildID)
	d.CampID = strings.TrimSpace(d.CampID)
	d.HealthNotes = strings.TrimSpace(d.HealthNotes)

	if step >= StepChild && d.ChildID == "" {
		return apperrors.ValidationField("child_id", "Seleziona un figlio.")
	}
	if step >= StepCamp && d.CampID == "" {
		return apperrors.ValidationField("camp_id", "Seleziona un campo.")
	}
	if step >= StepHealth {
		if d.Allergies && d.HealthNotes == "" {
			return apperrors.ValidationField("health_notes", "Descrivi allergie o esigenze mediche.")
		}
		if utf8.RuneCountInString(d.HealthNotes) > 2000 {
			return apperrors.ValidationField("health_notes", "Le note sanitarie sono troppo lunghe.")
		}
	}
	if step >= StepReview && !d.AcceptTerms {
		return apperrors.ValidationField("accept_terms", "Devi accettare il regolamento.")
	}
	return nil
}

// DashboardStats summarises the back office.
type DashboardStats struct {
	Users       int `json:"users"`
	Children    int `json:"children"`
	Camps       int `json:"camps"`
	OpenCamps   int `json:"open_camps"`
	Enrollments int `json:"enrollments"`
	Pending     int `json:"pending"`
}
