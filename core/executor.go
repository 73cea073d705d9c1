// Package core provides the building blocks of the strata data-access layer.
// This file defines the executor contract: the narrow interface through
// which compiled SQL reaches a database backend.
package core

import "context"

// Row is one result row, mapping database column names to scalar values.
// The eager-loading engine later extends rows in place with relation names
// mapped to a related Row, a []Row, or nil.
type Row = map[string]any

// Tx is an in-flight database transaction.
type Tx interface {
	// Commit finalizes the transaction and makes all changes permanent.
	Commit(ctx context.Context) error
	// Rollback reverts the transaction, discarding all changes.
	Rollback(ctx context.Context) error
}

// Executor runs compiled SQL against a database backend. Implementations
// live under driver/ (postgres via pgx, sqlite via database/sql).
//
// Executor errors are propagated to callers verbatim: the engine neither
// retries nor reinterprets them.
type Executor interface {
	// Query runs a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
	// Exec runs a statement that returns an affected-row count.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	// Begin starts a transaction. Implementations also honor a transaction
	// already carried by ctx (see WithTx) for Query and Exec.
	Begin(ctx context.Context) (Tx, error)
	// Ping checks whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend's resources.
	Close(ctx context.Context) error
}
