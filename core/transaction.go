// Package core provides the building blocks of the strata data-access layer.
// This file defines transaction helpers: carrying a transaction in a
// context and running callbacks with automatic commit/rollback.
package core

import "context"

// txKey is an unexported context key type. A private type prevents
// collisions with other context values.
type txKey struct{}

// WithTx injects a transaction into the given context. Executors consult
// the context so that every query issued under it, including the engine's
// batched follow-up queries, joins the same transaction.
//
// Example:
//
//	tx, _ := exec.Begin(ctx)
//	txCtx := core.WithTx(ctx, tx)
//	rows, err := db.Table("users").FindMany(txCtx)
func WithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom extracts the transaction carried by ctx, or nil.
func TxFrom(ctx context.Context) Tx {
	if v, ok := ctx.Value(txKey{}).(Tx); ok {
		return v
	}
	return nil
}

// TxFunc is the callback signature used by RunTx.
type TxFunc func(txCtx context.Context) error

// RunTx executes fn inside a transaction, handling commit and rollback
// automatically: any error from fn (or from a query it runs) rolls the
// transaction back and is returned unmodified.
func RunTx(ctx context.Context, exec Executor, fn TxFunc) error {
	tx, err := exec.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
