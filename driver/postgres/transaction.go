// Package postgres implements the core Executor contract on top of a pgx
// connection pool. This file adapts pgx.Tx to the core.Tx interface.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
