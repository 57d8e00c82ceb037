// Package database is the execution surface the provider queries run
// against. It narrows the driver to the operations the query layer
// needs, so tests can stand in a fake.
package database

import "context"

type Database interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (Result, error)
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close() error
}

// Tx is a single transaction. Statements issued through it share one
// connection, so SET LOCAL and friends stay scoped to it.
type Tx interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (Result, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Values() ([]any, error)
	Columns() ([]string, error)
	Err() error
	Close()
}

type Result interface {
	RowsAffected() int64
}
