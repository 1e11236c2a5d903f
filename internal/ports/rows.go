package ports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Row is a single table row keyed by column name.
type Row map[string]any

// Filter is a conjunction of column = value equality predicates.
type Filter map[string]any

// RowStore is the generic table access used for single-row lookups and
// writes. Implementations must restrict table and column names to a known set.
type RowStore interface {
	// FindOne returns the first matching row, or an error satisfying
	// apperrors.IsNotFound when nothing matches.
	FindOne(ctx context.Context, table string, filter Filter) (Row, error)
	// Update sets values on matching rows and returns the count affected.
	Update(ctx context.Context, table string, filter Filter, values Row) (int64, error)
	// Delete removes matching rows and returns the count affected.
	Delete(ctx context.Context, table string, filter Filter) (int64, error)
}

// String returns the column as a string, or "" when absent or of another type.
// UUID columns come back as strings or 16-byte arrays depending on the driver.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case [16]byte:
		return uuid.UUID(v).String()
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Has reports whether the column is present.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}
