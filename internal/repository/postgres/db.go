package postgres

import (
	"context"
	"database/sql"
)

// Querier is the slice of database/sql the repositories need. Both *sql.DB
// and *sql.Tx satisfy it, so a repository can run inside a transaction
// without changing its queries.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
