package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDatabase implements Database for pgxpool.Pool.
type PgxDatabase struct {
	pool *pgxpool.Pool
}

// NewPgxDatabase wraps an existing pool.
func NewPgxDatabase(pool *pgxpool.Pool) *PgxDatabase {
	return &PgxDatabase{pool: pool}
}

// Connect opens a pool for the given DSN.
func Connect(ctx context.Context, dsn string) (*PgxDatabase, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &PgxDatabase{pool: pool}, nil
}

// Query executes a query that returns rows.
func (p *PgxDatabase) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

// Exec executes a query without returning rows.
func (p *PgxDatabase) Exec(ctx context.Context, sql string, args ...any) (Result, error) {
	cmdTag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return PgxResult{cmdTag: cmdTag}, nil
}

// Begin starts a transaction on a single pooled connection.
func (p *PgxDatabase) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PgxTx{tx: tx}, nil
}

// Ping verifies the connection to the database is alive.
func (p *PgxDatabase) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *PgxDatabase) Close() error {
	p.pool.Close()
	return nil
}

// PgxTx implements Tx for pgx.Tx.
type PgxTx struct {
	tx pgx.Tx
}

// Query executes a query that returns rows inside the transaction.
func (t *PgxTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

// Exec executes a query without returning rows inside the transaction.
func (t *PgxTx) Exec(ctx context.Context, sql string, args ...any) (Result, error) {
	cmdTag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return PgxResult{cmdTag: cmdTag}, nil
}

// Commit commits the transaction.
func (t *PgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback aborts the transaction. Rolling back an already-finished
// transaction is a no-op error in pgx; callers may ignore it.
func (t *PgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

var _ Tx = (*PgxTx)(nil)

// PgxRows implements Rows for pgx.Rows.
type PgxRows struct {
	rows              pgx.Rows
	fieldDescriptions []pgconn.FieldDescription
}

// Next prepares the next result row for reading.
func (p *PgxRows) Next() bool { return p.rows.Next() }

// Scan copies the columns from the current row into the provided destinations.
func (p *PgxRows) Scan(dest ...any) error { return p.rows.Scan(dest...) }

// Values returns the values for the current row.
func (p *PgxRows) Values() ([]any, error) { return p.rows.Values() }

// Err returns any error seen while iterating.
func (p *PgxRows) Err() error { return p.rows.Err() }

// Close closes the rows iterator.
func (p *PgxRows) Close() { p.rows.Close() }

// Columns returns the column names.
func (p *PgxRows) Columns() ([]string, error) {
	if p.fieldDescriptions == nil {
		p.fieldDescriptions = p.rows.FieldDescriptions()
	}
	columns := make([]string, len(p.fieldDescriptions))
	for i, fd := range p.fieldDescriptions {
		columns[i] = fd.Name
	}
	return columns, nil
}

// PgxResult implements Result for pgx command tags.
type PgxResult struct {
	cmdTag pgconn.CommandTag
}

// RowsAffected returns the number of rows affected by the command.
func (r PgxResult) RowsAffected() int64 {
	return r.cmdTag.RowsAffected()
}

// Assert that PgxDatabase implements the Database interface.
var _ Database = (*PgxDatabase)(nil)
