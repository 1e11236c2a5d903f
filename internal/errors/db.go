package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column from "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// tableLabels gives user-facing names for tables referenced in FK errors.
var tableLabels = map[string]string{
	"users":       "un account",
	"children":    "un figlio",
	"camps":       "un campo",
	"enrollments": "un'iscrizione",
	"admins":      "un amministratore",
	"profiles":    "un profilo",
}

// MapDBError maps database errors to AppError instances:
//   - sql.ErrNoRows / pgx.ErrNoRows -> NotFound
//   - unique violations -> Conflict (with Field when known)
//   - foreign key violations -> ForeignKey
//   - check and NOT NULL violations -> Validation
//   - context deadline/cancel -> Timeout/Canceled
//
// Unrecognised errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "La richiesta ha impiegato troppo tempo. Riprova.")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "Richiesta annullata.")
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "Elemento non trovato.")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "Questo valore esiste già.",
			Field:   uniqueField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		msg := "Operazione non possibile: l'elemento è collegato ad altri dati."
		if label, ok := tableLabels[pgErr.TableName]; ok {
			msg = "Operazione non possibile: l'elemento è collegato a " + label + "."
		}
		return &AppError{Code: ErrCodeForeignKey, Message: msg, Cause: pgErr}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "Dati non validi. Controlla i campi inseriti.",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "Errore del database. Riprova.",
			Cause:   pgErr,
		}
	}
}

// uniqueField prefers ColumnName, then the Detail message, then the
// constraint name convention "<table>_<col>_key".
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	name := strings.TrimSuffix(pgErr.ConstraintName, "_key")
	if name == pgErr.ConstraintName {
		return ""
	}
	if table := pgErr.TableName; table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	return name
}
