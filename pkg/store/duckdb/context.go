package duckdb

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTransaction attaches a transaction to the context so store writes
// issued during a batch ingest run inside it.
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func GetTransaction(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}
