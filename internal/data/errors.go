package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrUnknownTable is returned by RowStore for tables outside the allow-list.
	ErrUnknownTable = errors.New("unknown table")
	// ErrUnknownColumn is returned by RowStore for columns outside a table's allow-list.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrEmptyFilter is returned for writes without a filter, which would touch every row.
	ErrEmptyFilter = errors.New("filter is required")
)
