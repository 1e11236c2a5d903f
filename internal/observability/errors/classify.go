package errors

import (
	"context"
	goerrors "errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/campiestivi/campi/internal/errors"
)

// Error classes used as metric labels. The set is closed so label cardinality stays bounded.
const (
	ClassNone       = ""
	ClassCanceled   = "canceled"
	ClassTimeout    = "timeout"
	ClassNotFound   = "not_found"
	ClassValidation = "validation"
	ClassConflict   = "conflict"
	ClassForbidden  = "forbidden"
	ClassDatabase   = "database"
	ClassRedis      = "redis"
	ClassNetwork    = "network"
	ClassOther      = "other"
)

// Classify maps err to one of the Class constants.
func Classify(err error) string {
	if err == nil {
		return ClassNone
	}

	switch {
	case goerrors.Is(err, context.Canceled):
		return ClassCanceled
	case goerrors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeCanceled:
		return ClassCanceled
	case apperrors.ErrCodeTimeout:
		return ClassTimeout
	case apperrors.ErrCodeNotFound:
		return ClassNotFound
	case apperrors.ErrCodeValidation:
		return ClassValidation
	case apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return ClassConflict
	case apperrors.ErrCodeForbidden, apperrors.ErrCodeUnauthorized:
		return ClassForbidden
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return ClassDatabase
	}
	var redisErr redis.Error
	if goerrors.As(err, &redisErr) || goerrors.Is(err, redis.ErrClosed) {
		return ClassRedis
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return ClassTimeout
		}
		return ClassNetwork
	}
	return ClassOther
}
