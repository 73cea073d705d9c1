package core

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countPlaceholders returns how many placeholders the SQL text contains for
// the given dialect. Literal values are always bound, so every '?' (or $N)
// in compiled output is a placeholder.
func countPlaceholders(t *testing.T, d *Dialect, sql string) int {
	t.Helper()
	if !d.numbered {
		return strings.Count(sql, "?")
	}
	return len(regexp.MustCompile(`\$\d+`).FindAllString(sql, -1))
}

func TestCompileSelectPostgres(t *testing.T) {
	stmt := &SelectStmt{
		Table: "users",
		Where: And(
			Col("age").Gte(18),
			Col("email").ILike("%@example.com"),
			Col("deleted_at").IsNull(),
		),
		OrderBy: []Sort{Desc("created_at")},
		Limit:   10,
		Offset:  20,
	}
	c := stmt.Compile(Postgres)

	assert.Equal(t,
		`SELECT * FROM "users" WHERE ("age" >= $1 AND "email" ILIKE $2 AND "deleted_at" IS NULL)`+
			` ORDER BY "created_at" DESC LIMIT 10 OFFSET 20`,
		c.SQL)
	assert.Equal(t, []any{18, "%@example.com"}, c.Args)
}

func TestCompileSelectMySQLFoldsCaseInsensitiveMatch(t *testing.T) {
	stmt := &SelectStmt{
		Table: "users",
		Where: Col("email").ILike("%@example.com"),
	}
	c := stmt.Compile(MySQL)

	assert.Equal(t, "SELECT * FROM `users` WHERE LOWER(`email`) LIKE LOWER(?)", c.SQL)
	assert.Equal(t, []any{"%@example.com"}, c.Args)
}

func TestCompileNegatedPatterns(t *testing.T) {
	c := (&SelectStmt{Table: "t", Where: Col("name").NotLike("a%")}).Compile(Postgres)
	assert.Contains(t, c.SQL, `"name" NOT LIKE $1`)

	c = (&SelectStmt{Table: "t", Where: Col("name").NotILike("a%")}).Compile(Postgres)
	assert.Contains(t, c.SQL, `"name" NOT ILIKE $1`)
}

func TestPlaceholderParameterCorrespondence(t *testing.T) {
	exprs := []Expr{
		nil,
		Col("a").Eq(1),
		And(Col("a").Eq(1), Col("b").In(2, 3, 4), Col("c").Between(5, 6)),
		Or(Col("a").IsNull(), Not(Col("b").Ne("x"))),
		And(),
		Or(),
		Col("a").In(),
		Col("a").NotIn(),
		Col("id").Eq(&SelectStmt{Table: "other", Where: Col("k").Eq("v")}),
	}
	// Raw fragments are excluded: their placeholder style is the caller's
	// responsibility, not the compiler's.
	for _, d := range []*Dialect{Postgres, MySQL, SQLite, MSSQL, ANSI} {
		for i, expr := range exprs {
			c := (&SelectStmt{Table: "t", Where: expr}).Compile(d)
			assert.Equal(t, len(c.Args), countPlaceholders(t, d, c.SQL),
				"dialect %s expr #%d: %s", d.Name(), i, c.SQL)
		}
	}
}

func TestNumberedPlaceholdersEncodePosition(t *testing.T) {
	stmt := &SelectStmt{
		Table: "t",
		Where: And(
			Col("a").Eq("v1"),
			Col("id").Eq(&SelectStmt{Table: "u", Where: Col("b").Eq("v2")}),
			Col("c").In("v3", "v4"),
		),
	}
	c := stmt.Compile(Postgres)

	matches := regexp.MustCompile(`\$(\d+)`).FindAllStringSubmatch(c.SQL, -1)
	require.Len(t, matches, len(c.Args))
	for i, m := range matches {
		// The i-th placeholder in traversal order binds value i+1, even
		// across a clause boundary into a subquery.
		assert.Equal(t, fmt.Sprint(i+1), m[1])
	}
	assert.Equal(t, []any{"v1", "v2", "v3", "v4"}, c.Args)
}

func TestEmptyMembershipNeverEmitsEmptyIn(t *testing.T) {
	c := (&SelectStmt{Table: "t", Where: Col("id").In()}).Compile(Postgres)
	assert.NotContains(t, c.SQL, "IN ()")
	assert.Contains(t, c.SQL, "1=0")
	assert.Empty(t, c.Args)

	c = (&SelectStmt{Table: "t", Where: Col("id").NotIn()}).Compile(Postgres)
	assert.NotContains(t, c.SQL, "IN ()")
	assert.Contains(t, c.SQL, "1=1")
	assert.Empty(t, c.Args)
}

func TestZeroChildLogicalNodes(t *testing.T) {
	c := (&SelectStmt{Table: "t", Where: And()}).Compile(Postgres)
	assert.Equal(t, `SELECT * FROM "t" WHERE 1=1`, c.SQL)

	c = (&SelectStmt{Table: "t", Where: Or()}).Compile(Postgres)
	assert.Equal(t, `SELECT * FROM "t" WHERE 1=0`, c.SQL)
}

func TestNullCheckBindsNoParameter(t *testing.T) {
	c := (&SelectStmt{Table: "t", Where: Col("deleted_at").NotNull()}).Compile(Postgres)
	assert.Equal(t, `SELECT * FROM "t" WHERE "deleted_at" IS NOT NULL`, c.SQL)
	assert.Empty(t, c.Args)
}

func TestCompilationIsDeterministic(t *testing.T) {
	stmt := &SelectStmt{
		Table: "orders",
		Where: And(
			Col("status").In("open", "paid"),
			Col("total").Gt(100),
			Or(Col("note").IsNull(), Col("note").Like("%x%")),
		),
	}
	first := stmt.Compile(Postgres)
	second := stmt.Compile(Postgres)
	assert.Equal(t, first.SQL, second.SQL)
	assert.Equal(t, first.Args, second.Args)

	update := &UpdateStmt{
		Table:   "orders",
		Changes: Changes{"b": 2, "a": 1, "c": 3},
		Where:   Col("id").Eq(9),
	}
	assert.Equal(t, update.Compile(Postgres), update.Compile(Postgres))
	assert.Equal(t,
		`UPDATE "orders" SET "a" = $1, "b" = $2, "c" = $3 WHERE "id" = $4`,
		update.Compile(Postgres).SQL)
}

func TestQuoteCharacterInsideIdentifierIsDoubled(t *testing.T) {
	c := (&SelectStmt{Table: "t", Where: Col(`weird"name`).Eq(1)}).Compile(Postgres)
	assert.Contains(t, c.SQL, `"weird""name" = $1`)

	c = (&SelectStmt{Table: "t", Where: Col("odd]name").Eq(1)}).Compile(MSSQL)
	assert.Contains(t, c.SQL, "[odd]]name] = ?")

	c = (&SelectStmt{Table: "t", Where: Col("back`tick").Eq(1)}).Compile(MySQL)
	assert.Contains(t, c.SQL, "`back``tick` = ?")
}

func TestQualifiedColumnsQuotePerPart(t *testing.T) {
	c := (&SelectStmt{Table: "users", Where: Col("users.id").Eq(Col("orders.user_id"))}).Compile(Postgres)
	assert.Equal(t, `SELECT * FROM "users" WHERE "users"."id" = "orders"."user_id"`, c.SQL)
	assert.Empty(t, c.Args)
}

func TestAggregateProjections(t *testing.T) {
	stmt := &SelectStmt{
		Table:   "orders",
		Columns: []Expr{CountAll().As("n"), Sum("amount").AsDistinct().As("total"), Col("region")},
	}
	c := stmt.Compile(Postgres)
	assert.Equal(t,
		`SELECT COUNT(*) AS "n", SUM(DISTINCT "amount") AS "total", "region" FROM "orders" WHERE 1=1`,
		c.SQL)
}

func TestRangeCompilesToBetween(t *testing.T) {
	c := (&SelectStmt{Table: "t", Where: Col("age").Between(18, 65)}).Compile(Postgres)
	assert.Contains(t, c.SQL, `"age" BETWEEN $1 AND $2`)
	assert.Equal(t, []any{18, 65}, c.Args)

	c = (&SelectStmt{Table: "t", Where: Col("age").NotBetween(18, 65)}).Compile(Postgres)
	assert.Contains(t, c.SQL, `"age" NOT BETWEEN $1 AND $2`)
}

func TestInsertMultiRow(t *testing.T) {
	stmt := &InsertStmt{
		Table:   "users",
		Columns: []string{"id", "name"},
		Rows:    [][]any{{1, "ana"}, {2, "bob"}},
	}
	c := stmt.Compile(Postgres)
	assert.Equal(t, `INSERT INTO "users" ("id", "name") VALUES ($1, $2), ($3, $4)`, c.SQL)
	assert.Equal(t, []any{1, "ana", 2, "bob"}, c.Args)
}

func TestInsertZeroRowsCompilesEmpty(t *testing.T) {
	c := (&InsertStmt{Table: "users", Columns: []string{"id"}}).Compile(Postgres)
	assert.Empty(t, c.SQL)
	assert.Empty(t, c.Args)
}

func TestUpsertClausePerDialect(t *testing.T) {
	stmt := &InsertStmt{
		Table:   "users",
		Columns: []string{"id", "name"},
		Rows:    [][]any{{1, "ana"}},
		Conflict: &OnConflict{
			Keys:   []string{"id"},
			Update: Changes{"name": "ana"},
		},
	}

	c := stmt.Compile(Postgres)
	assert.Contains(t, c.SQL, `ON CONFLICT ("id") DO UPDATE SET "name" = $3`)
	assert.Equal(t, []any{1, "ana", "ana"}, c.Args)

	c = stmt.Compile(SQLite)
	assert.Contains(t, c.SQL, "ON CONFLICT (`id`) DO UPDATE SET `name` = ?")

	c = stmt.Compile(MySQL)
	assert.Contains(t, c.SQL, "ON DUPLICATE KEY UPDATE `name` = ?")

	// No upsert support: the clause is dropped, the insert itself stays.
	c = stmt.Compile(MSSQL)
	assert.NotContains(t, c.SQL, "CONFLICT")
	assert.NotContains(t, c.SQL, "DUPLICATE")
	assert.Equal(t, []any{1, "ana"}, c.Args)
}

func TestUpdateEmptyChangesCompilesEmpty(t *testing.T) {
	c := (&UpdateStmt{Table: "users", Where: Col("id").Eq(1)}).Compile(Postgres)
	assert.Empty(t, c.SQL)
}

func TestDeleteAlwaysCarriesWhere(t *testing.T) {
	c := (&DeleteStmt{Table: "users"}).Compile(Postgres)
	assert.Equal(t, `DELETE FROM "users" WHERE 1=1`, c.SQL)

	c = (&DeleteStmt{Table: "users", Where: Col("id").Eq(1)}).Compile(Postgres)
	assert.Equal(t, `DELETE FROM "users" WHERE "id" = $1`, c.SQL)
	assert.Equal(t, []any{1}, c.Args)
}

func TestRawThreadsArgsThroughSharedAccumulator(t *testing.T) {
	stmt := &SelectStmt{
		Table: "t",
		Where: And(
			Col("a").Eq("first"),
			RawSQL("jsonb_path_exists(payload, $2)", "second"),
			Col("c").Eq("third"),
		),
	}
	c := stmt.Compile(Postgres)
	assert.Equal(t, []any{"first", "second", "third"}, c.Args)
	assert.Contains(t, c.SQL, "jsonb_path_exists(payload, $2)")
	assert.Contains(t, c.SQL, `"c" = $3`)
}
