// Package core provides the building blocks of the strata data-access layer.
// This file handles differences between SQL dialects: identifier quoting,
// placeholder style, case-insensitive matching and upsert syntax.
package core

import (
	"fmt"
	"strings"
)

// conflictStyle selects the upsert clause a dialect understands.
type conflictStyle int

const (
	conflictUnsupported conflictStyle = iota
	conflictOnConflict                // ON CONFLICT (...) DO UPDATE SET (postgres, sqlite)
	conflictOnDuplicate               // ON DUPLICATE KEY UPDATE (mysql)
)

// Dialect describes a target database's SQL syntax variant. The compiler is
// parameterized on a Dialect value; it never hard-codes syntax differences.
//
// Dialect values are immutable and safe for concurrent use.
type Dialect struct {
	name        string
	altnames    []string
	quoteBegin  string
	quoteEnd    string
	numbered    bool // $N placeholders numbered across the whole statement
	nativeILike bool
	conflict    conflictStyle
}

// SQL dialects for the supported database servers.
var (
	Postgres = &Dialect{
		name:        "postgres",
		altnames:    []string{"pq", "postgresql", "pgx"},
		quoteBegin:  `"`,
		quoteEnd:    `"`,
		numbered:    true,
		nativeILike: true,
		conflict:    conflictOnConflict,
	}
	MySQL = &Dialect{
		name:       "mysql",
		quoteBegin: "`",
		quoteEnd:   "`",
		conflict:   conflictOnDuplicate,
	}
	SQLite = &Dialect{
		name:       "sqlite",
		altnames:   []string{"sqlite3"},
		quoteBegin: "`",
		quoteEnd:   "`",
		conflict:   conflictOnConflict,
	}
	MSSQL = &Dialect{
		name:       "mssql",
		altnames:   []string{"sqlserver"},
		quoteBegin: "[",
		quoteEnd:   "]",
	}
	ANSI = &Dialect{
		name:       "ansi",
		quoteBegin: `"`,
		quoteEnd:   `"`,
	}
)

var dialects map[string]*Dialect

func init() {
	dialects = make(map[string]*Dialect)
	for _, d := range []*Dialect{Postgres, MySQL, SQLite, MSSQL, ANSI} {
		dialects[d.name] = d
		for _, alt := range d.altnames {
			dialects[alt] = d
		}
	}
}

// DialectFor returns the dialect for the given database driver name
// ("postgres", "pgx", "mysql", "sqlite3", "mssql", ...). Unknown names
// fall back to the ANSI dialect.
func DialectFor(driverName string) *Dialect {
	name := strings.TrimSpace(strings.ToLower(driverName))
	if d, ok := dialects[name]; ok {
		return d
	}
	return ANSI
}

// Name returns the canonical dialect name.
func (d *Dialect) Name() string { return d.name }

// Quote quotes a table or column name so that it cannot clash with reserved
// words. Dotted names are quoted per part ("users"."id"). A quote character
// appearing inside the identifier is escaped by doubling it, never rejected.
//
// Every dot is treated as a qualifier separator, so a column whose name
// contains a literal dot is quoted as two identifiers. This is a documented
// limitation, not a dot-escaping mechanism.
func (d *Dialect) Quote(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = d.quoteBegin + strings.ReplaceAll(part, d.quoteEnd, d.quoteEnd+d.quoteEnd) + d.quoteEnd
	}
	return strings.Join(parts, ".")
}

// Placeholder returns the placeholder for the n-th bound parameter of a
// statement (1-based). Most dialects use a bare question mark; postgres
// numbers its placeholders, where n counts every parameter bound so far in
// the statement, not just the current clause.
func (d *Dialect) Placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SupportsILike reports whether the dialect has a native case-insensitive
// match operator. Without one, the compiler folds both operands with LOWER().
func (d *Dialect) SupportsILike() bool { return d.nativeILike }

// SupportsUpsert reports whether the dialect has a conflict-update clause.
func (d *Dialect) SupportsUpsert() bool { return d.conflict != conflictUnsupported }
