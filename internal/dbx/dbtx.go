// Package dbx holds the database/sql plumbing shared by repositories.
package dbx

import (
	"context"
	"database/sql"

	"github.com/samber/oops"
)

// DBTX is implemented by both *sql.DB and *sql.Tx, so repositories can be
// bound to either.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction. It commits when fn returns nil and
// rolls back otherwise; a panic in fn rolls back and is re-raised. Errors
// returned by fn pass through unchanged.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return repos.Videos(tx).DeleteByOwner(ctx, ownerID)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrapf(err, "begin transaction")
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
		if cerr := tx.Commit(); cerr != nil {
			err = oops.Code("TX_COMMIT_FAILED").Wrapf(cerr, "commit transaction")
		}
	}()

	return fn(ctx, tx)
}
