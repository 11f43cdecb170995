// Package dbx holds the small database/sql helpers shared by the vault
// storage code: a query interface satisfied by both *sql.DB and
// *sql.Tx, and a transaction wrapper with commit/rollback handling.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of database/sql the storage layer uses. Both
// *sql.DB and *sql.Tx implement it, so the same statement helpers run
// inside and outside transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. It commits when fn returns nil,
// rolls back when fn returns an error, and rolls back and rethrows when
// fn panics.
func WithTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx Querier) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
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
