// Package postgres implements the core Executor contract on top of a pgx
// connection pool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stratadb/strata/core"
)

// Driver runs compiled SQL against PostgreSQL through pgxpool.
type Driver struct {
	pool *pgxpool.Pool
}

var _ core.Executor = (*Driver)(nil)

// New connects a Driver to the given connection string.
func New(ctx context.Context, connString string) (*Driver, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &Driver{pool: pool}, nil
}

// Query runs a row-returning statement. If ctx carries a transaction
// started by this driver, the statement joins it.
func (d *Driver) Query(ctx context.Context, sql string, args ...any) ([]core.Row, error) {
	var rows pgx.Rows
	var err error
	if tx := d.txFrom(ctx); tx != nil {
		rows, err = tx.Query(ctx, sql, args...)
	} else {
		rows, err = d.pool.Query(ctx, sql, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	descriptions := rows.FieldDescriptions()
	var results []core.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(core.Row, len(descriptions))
		for i, description := range descriptions {
			row[string(description.Name)] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Exec runs a non-row statement and returns the affected-row count.
func (d *Driver) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if tx := d.txFrom(ctx); tx != nil {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	}
	tag, err := d.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Begin starts a transaction.
func (d *Driver) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

// Ping checks connectivity.
func (d *Driver) Ping(ctx context.Context) error { return d.pool.Ping(ctx) }

// Close releases the pool.
func (d *Driver) Close(ctx context.Context) error {
	d.pool.Close()
	return nil
}

// txFrom returns the pgx transaction carried by ctx, if it is one of ours.
func (d *Driver) txFrom(ctx context.Context) pgx.Tx {
	if tx, ok := core.TxFrom(ctx).(*pgTx); ok {
		return tx.tx
	}
	return nil
}
