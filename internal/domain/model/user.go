package model

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/campiestivi/campi/internal/errors"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores anything past 72 bytes
	maxNameLen     = 100
)

// User is a site account. PasswordHash is empty for accounts created via OIDC.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name"  db:"last_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SignUpRequest carries the registration form.
type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Normalize trims whitespace and lowercases the email.
func (r *SignUpRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

// Validate checks the registration form. Call Normalize first.
func (r *SignUpRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := requiredName("first_name", "Nome", r.FirstName); err != nil {
		return err
	}
	if err := requiredName("last_name", "Cognome", r.LastName); err != nil {
		return err
	}
	if n := len(r.Password); n < minPasswordLen || n > maxPasswordLen {
		return apperrors.ValidationField("password", "La password deve avere tra 8 e 72 caratteri.")
	}
	if r.Password != r.ConfirmPassword {
		return apperrors.ValidationField("confirm_password", "Le password non coincidono.")
	}
	return nil
}

// SignInRequest carries the sign-in form.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return apperrors.ValidationField("email", "L'email è obbligatoria.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.ValidationField("email", "Indirizzo email non valido.")
	}
	return nil
}

func requiredName(field, label, v string) error {
	if v == "" {
		return apperrors.ValidationField(field, label+" è obbligatorio.")
	}
	if utf8.RuneCountInString(v) > maxNameLen {
		return apperrors.ValidationField(field, label+" è troppo lungo.")
	}
	return nil
}

// Profile holds a parent's contact details.
type Profile struct {
	UserID    string    `json:"user_id"    db:"user_id"`
	Phone     string    `json:"phone"      db:"phone"`
	Address   string    `json:"address"    db:"address"`
	City      string    `json:"city"       db:"city"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateProfileRequest carries the profile form.
type UpdateProfileRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// Validate trims the fields and checks their shape.
func (r *UpdateProfileRequest) Validate() error {
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.City = strings.TrimSpace(r.City)

	if r.Phone != "" && !validPhone(r.Phone) {
		return apperrors.ValidationField("phone", "Numero di telefono non valido.")
	}
	if utf8.RuneCountInString(r.Address) > 200 {
		return apperrors.ValidationField("address", "Indirizzo troppo lungo.")
	}
	if utf8.RuneCountInString(r.City) > maxNameLen {
		return apperrors.ValidationField("city", "Città troppo lunga.")
	}
	return nil
}

func validPhone(v string) bool {
	digits := 0
	for i, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0, r == ' ', r == '-', r == '.':
		default:
			return false
		}
	}
	return digits >= 6 && digits <= 15
}
