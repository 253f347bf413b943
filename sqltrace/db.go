package sqltrace

import (
	"context"
	"database/sql"

	"github.com/unkn0wn-root/cachegate/trace"
)

// DB wraps a *sql.DB. Each call takes the statement id that names its span.
type DB struct {
	db *sql.DB
	in *trace.Interceptor
}

func Wrap(db *sql.DB, in *trace.Interceptor) *DB {
	return &DB{db: db, in: in}
}

// Unwrap returns the underlying pool for untraced use.
func (d *DB) Unwrap() *sql.DB { return d.db }

func (d *DB) ExecContext(ctx context.Context, id, query string, args ...any) (sql.Result, error) {
	return trace.Call(ctx, d.in, Operation(id, KindOf(query)), func(ctx context.Context) (sql.Result, error) {
		return d.db.ExecContext(ctx, query, args...)
	})
}

func (d *DB) QueryContext(ctx context.Context, id, query string, args ...any) (*sql.Rows, error) {
	return trace.Call(ctx, d.in, Operation(id, KindOf(query)), func(ctx context.Context) (*sql.Rows, error) {
		return d.db.QueryContext(ctx, query, args...)
	})
}

// QueryRowContext traces the query itself; sql.ErrNoRows surfaces later
// from Scan and is not a failed statement.
func (d *DB) QueryRowContext(ctx context.Context, id, query string, args ...any) *sql.Row {
	row, _ := trace.Call(ctx, d.in, Operation(id, KindOf(query)), func(ctx context.Context) (*sql.Row, error) {
		row := d.db.QueryRowContext(ctx, query, args...)
		return row, row.Err()
	})
	return row
}
