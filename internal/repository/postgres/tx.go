package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type txKeyType struct{}

var txKey txKeyType

// TxRunner starts a transaction, binds it to the context, and commits or
// rolls back around fn. Repositories in this package route their queries
// through the bound transaction when one is present.
type TxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*sqlx.Tx); ok {
		// Nested call joins the open transaction.
		return fn(ctx)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// querier returns the transaction bound to ctx when present, otherwise the
// connection pool.
func querier(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey).(*sqlx.Tx); ok {
		return tx
	}
	return db
}
