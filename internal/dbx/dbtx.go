// Package dbx provides small DB abstractions shared by repositories and
// services: a minimal interface (DBTX) implemented by both *sql.DB and
// *sql.Tx, a transaction runner, and Postgres error classification.
package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work run inside a transaction.
type TxFunc func(ctx context.Context, tx DBTX) error

// Transactor runs a unit of work atomically. Services depend on it instead
// of *sql.DB so that tests can substitute an in-memory runner.
type Transactor interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

// SQLTransactor is a Transactor over a *sql.DB.
type SQLTransactor struct {
	DB   *sql.DB
	Opts *sql.TxOptions
}

// NewSQLTransactor returns a Transactor using the default isolation level.
func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{DB: db}
}

// WithTx implements Transactor.
func (t *SQLTransactor) WithTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, t.DB, t.Opts, fn)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// IsUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505) raised through the pgx driver.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	return false
}
