package data

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/ports"
)

// tableColumns is the allow-list of tables and columns reachable through RowStore.
// users.password_hash is intentionally absent so it can never be read or written here.
var tableColumns = map[string][]string{
	"admins":      {"granted_at", "user_id"},
	"camps":       {"capacity", "created_at", "ends_on", "id", "location", "name", "open", "price_cents", "starts_on"},
	"children":    {"birth_date", "first_name", "id", "last_name", "notes", "owner_id"},
	"enrollments": {"camp_id", "child_id", "created_at", "health_notes", "id", "owner_id", "status"},
	"profiles":    {"address", "city", "phone", "updated_at", "user_id"},
	"users":       {"created_at", "email", "first_name", "id", "last_name"},
}

var _ ports.RowStore = (*RowStore)(nil)

// RowStore implements ports.RowStore over database/sql with quoted identifiers.
type RowStore struct {
	DB *sql.DB
}

// NewRowStore creates a new RowStore.
func NewRowStore(db *sql.DB) *RowStore {
	return &RowStore{DB: db}
}

// FindOne returns the first row of table matching filter.
func (s *RowStore) FindOne(ctx context.Context, table string, filter ports.Filter) (ports.Row, error) {
	cols, err := columnsFor(table)
	if err != nil {
		return nil, err
	}
	where, args, err := whereClause(table, filter, 1)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s LIMIT 1",
		strings.Join(quoted, ", "), pgx.Identifier{table}.Sanitize(), where)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperrors.MapDBError(err)
		}
		return nil, apperrors.NotFound("Elemento non trovato.")
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan %s row: %w", table, err)
	}

	row := make(ports.Row, len(cols))
	for i, c := range cols {
		if b, ok := values[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = values[i]
	}
	return row, nil
}

// Update sets values on rows of table matching filter.
func (s *RowStore) Update(ctx context.Context, table string, filter ports.Filter, values ports.Row) (int64, error) {
	if _, err := columnsFor(table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	if len(values) == 0 {
		return 0, nil
	}

	keys := sortedKeys(values)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(filter))
	for i, k := range keys {
		if !hasColumn(table, k) {
			return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, k)
		}
		sets[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), i+1)
		args = append(args, values[k])
	}
	where, whereArgs, err := whereClause(table, filter, len(keys)+1)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", pgx.Identifier{table}.Sanitize(), strings.Join(sets, ", "), where)
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return res.RowsAffected()
}

// Delete removes rows of table matching filter.
func (s *RowStore) Delete(ctx context.Context, table string, filter ports.Filter) (int64, error) {
	if _, err := columnsFor(table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	where, args, err := whereClause(table, filter, 1)
	if err != nil {
		return 0, err
	}
	res, err := s.DB.ExecContext(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()+where, args...)
	if err != nil {
		return 0, apperrors.MapDBError(err)
	}
	return res.RowsAffected()
}

func columnsFor(table string) ([]string, error) {
	cols, ok := tableColumns[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return cols, nil
}

func hasColumn(table, col string) bool {
	for _, c := range tableColumns[table] {
		if c == col {
			return true
		}
	}
	return false
}

// whereClause renders filter as " WHERE a = $n AND b = $n+1" with keys in
// sorted order so the SQL text is stable.
func whereClause(table string, filter ports.Filter, start int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	keys := sortedKeys(filter)
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		if !hasColumn(table, k) {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, k)
		}
		conds[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{k}.Sanitize(), start+i)
		args[i] = filter[k]
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func sortedKeys[M ~map[string]any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
