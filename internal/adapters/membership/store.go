// Package membership answers whether a user belongs to the admin set.
package membership

import (
	"context"
	"strings"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/ports"
)

const adminsTable = "admins"

// Store implements ports.MembershipStore on top of a generic RowStore.
// A missing row is the only way to get NotMember; every other error is a failure.
type Store struct {
	rows ports.RowStore
}

var _ ports.MembershipStore = (*Store)(nil)

// NewStore returns a Store reading the admins table through rows.
func NewStore(rows ports.RowStore) *Store {
	return &Store{rows: rows}
}

// LookupAdmin checks the admins table for userID.
func (s *Store) LookupAdmin(ctx context.Context, userID string) domainauth.MembershipLookup {
	if strings.TrimSpace(userID) == "" {
		return domainauth.NotMember()
	}
	if s == nil || s.rows == nil {
		return domainauth.MembershipFailed(apperrors.Internal("membership store not configured"))
	}

	row, err := s.rows.FindOne(ctx, adminsTable, ports.Filter{"user_id": userID})
	switch {
	case apperrors.IsNotFound(err):
		return domainauth.NotMember()
	case err != nil:
		return domainauth.MembershipFailed(err)
	case !row.Has("user_id"):
		return domainauth.MembershipFailed(apperrors.Internal("malformed membership row"))
	}
	return domainauth.Member()
}
