package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type txKey struct{}

// TxRunner opens transactions and hands them to repositories through ctx.
type TxRunner struct{ db *sqlx.DB }

func NewTxRunner(db *sqlx.DB) *TxRunner { return &TxRunner{db: db} }

// WithTx runs fn in a transaction. If ctx already carries one, fn joins it
// and commit/rollback is left to the outermost caller.
func (r *TxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := withTx(ctx, r.db, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func withTx[T any](ctx context.Context, db *sqlx.DB, fn func(ctx context.Context) (T, error)) (_ T, txErr error) {
	var zero T

	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rbErr))
			}
		}
	}()

	result, err := fn(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

// ext returns the transaction carried by ctx, or db outside of one.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// IsTransient reports whether err is SQLite refusing work because another
// writer holds the database. Retrying later can succeed.
func IsTransient(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// IsUniqueViolation reports a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// timeLayout is the layout the sqlite driver parses back into time.Time for
// DATETIME columns.
const timeLayout = "2006-01-02 15:04:05.999999999-07:00"

func dbTime(t time.Time) string { return t.UTC().Format(timeLayout) }
