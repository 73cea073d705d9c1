// Package sqlite implements the core Executor contract on top of
// database/sql with the mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stratadb/strata/core"
)

// Driver runs compiled SQL against SQLite.
type Driver struct {
	db *sql.DB
}

var _ core.Executor = (*Driver)(nil)

// Open opens (or creates) the database at the given DSN. Use ":memory:"
// for an in-memory database.
func Open(dsn string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return &Driver{db: db}, nil
}

// Query runs a row-returning statement. If ctx carries a transaction
// started by this driver, the statement joins it.
func (d *Driver) Query(ctx context.Context, query string, args ...any) ([]core.Row, error) {
	var rows *sql.Rows
	var err error
	if tx := d.txFrom(ctx); tx != nil {
		rows, err = tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = d.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []core.Row
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(core.Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Exec runs a non-row statement and returns the affected-row count.
func (d *Driver) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	var result sql.Result
	var err error
	if tx := d.txFrom(ctx); tx != nil {
		result, err = tx.ExecContext(ctx, query, args...)
	} else {
		result, err = d.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Begin starts a transaction.
func (d *Driver) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// Ping checks that the database file is reachable.
func (d *Driver) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

// Close closes the database.
func (d *Driver) Close(ctx context.Context) error { return d.db.Close() }

func (d *Driver) txFrom(ctx context.Context) *sql.Tx {
	if tx, ok := core.TxFrom(ctx).(*sqliteTx); ok {
		return tx.tx
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t *sqliteTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }
