package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectFor(t *testing.T) {
	assert.Same(t, Postgres, DialectFor("postgres"))
	assert.Same(t, Postgres, DialectFor("pgx"))
	assert.Same(t, Postgres, DialectFor("pq"))
	assert.Same(t, Postgres, DialectFor("PostgreSQL"))
	assert.Same(t, SQLite, DialectFor("sqlite3"))
	assert.Same(t, SQLite, DialectFor("sqlite"))
	assert.Same(t, MySQL, DialectFor("mysql"))
	assert.Same(t, MSSQL, DialectFor("sqlserver"))
	assert.Same(t, MSSQL, DialectFor(" mssql "))

	// Unknown driver names degrade to the portable dialect.
	assert.Same(t, ANSI, DialectFor("oracle"))
	assert.Same(t, ANSI, DialectFor(""))
}

func TestDialectPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", Postgres.Placeholder(1))
	assert.Equal(t, "$42", Postgres.Placeholder(42))
	assert.Equal(t, "?", MySQL.Placeholder(1))
	assert.Equal(t, "?", MySQL.Placeholder(42))
}

func TestDialectQuote(t *testing.T) {
	assert.Equal(t, `"users"`, Postgres.Quote("users"))
	assert.Equal(t, `"users"."id"`, Postgres.Quote("users.id"))
	assert.Equal(t, "`users`.`id`", MySQL.Quote("users.id"))
	assert.Equal(t, "[users].[id]", MSSQL.Quote("users.id"))
}

func TestDialectCapabilities(t *testing.T) {
	assert.True(t, Postgres.SupportsILike())
	assert.False(t, MySQL.SupportsILike())

	assert.True(t, Postgres.SupportsUpsert())
	assert.True(t, SQLite.SupportsUpsert())
	assert.True(t, MySQL.SupportsUpsert())
	assert.False(t, MSSQL.SupportsUpsert())
	assert.False(t, ANSI.SupportsUpsert())
}
