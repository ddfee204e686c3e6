package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// WithTx runs fn inside a transaction. The transaction is stashed in the
// context so that repositories called from fn join it transparently via
// ConnFromContext. fn returning an error rolls the transaction back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ConnFromContext returns the transaction bound to ctx, if any.
// Repositories fall back to their pool when it is nil.
func ConnFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// TxRunner adapts a pool to the function-scoped transaction interfaces
// the domain services declare.
type TxRunner struct {
	Pool *pgxpool.Pool
}

func (r TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.Pool, fn)
}
