// Package core provides the building blocks of the strata data-access layer.
// This file defines the schema model: tables and columns with identity
// metadata, consumed read-only by the compiler and the query engine.
package core

import (
	"reflect"
	"strings"
)

// Column is a table-qualified column identifier. It carries identity
// metadata only; all behavior lives in the compiler and the engine.
type Column struct {
	Table  string // owning table name
	Name   string // in-code name
	DBName string // database column name
}

// Table describes a database table: its name, columns, and primary key.
// Tables are built during setup and read-only once added to a Catalog.
type Table struct {
	Name       string
	Columns    []*Column
	PrimaryKey []string // database column names, in key order
}

// Column returns the column with the given in-code or database name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name || c.DBName == name {
			return c
		}
	}
	return nil
}

// TableOption customizes a Table under construction.
type TableOption func(*Table)

// Columns declares columns whose in-code and database names coincide.
func Columns(names ...string) TableOption {
	return func(t *Table) {
		for _, name := range names {
			t.Columns = append(t.Columns, &Column{Table: t.Name, Name: name, DBName: name})
		}
	}
}

// ColumnNamed declares a column whose database name differs from its
// in-code name.
func ColumnNamed(name, dbName string) TableOption {
	return func(t *Table) {
		t.Columns = append(t.Columns, &Column{Table: t.Name, Name: name, DBName: dbName})
	}
}

// PrimaryKey declares the table's primary key columns, in key order.
func PrimaryKey(columns ...string) TableOption {
	return func(t *Table) { t.PrimaryKey = columns }
}

// NewTable builds a Table from the given options.
//
// Example:
//
//	users := core.NewTable("users",
//		core.Columns("id", "name", "email"),
//		core.PrimaryKey("id"),
//	)
func NewTable(name string, options ...TableOption) *Table {
	t := &Table{Name: name}
	for _, option := range options {
		option(t)
	}
	return t
}

// TableOf builds a Table by reflecting over the fields of struct type T.
//
// The database column name comes from the `db` struct tag, falling back to
// the field name. A `db:"-"` tag skips the field. A ",pk" tag option marks
// the column as (part of) the primary key:
//
//	type User struct {
//		ID    int64  `db:"id,pk"`
//		Name  string `db:"name"`
//		Email string
//	}
//
//	users := core.TableOf[User]("users")
func TableOf[T any](name string, options ...TableOption) *Table {
	t := &Table{Name: name}

	var zero T
	structType := reflect.TypeOf(zero)
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	for _, sf := range reflect.VisibleFields(structType) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		dbName, opts, _ := strings.Cut(sf.Tag.Get("db"), ",")
		if dbName == "-" {
			continue
		}
		if dbName == "" {
			dbName = sf.Name
		}
		t.Columns = append(t.Columns, &Column{Table: name, Name: sf.Name, DBName: dbName})
		for _, opt := range strings.Split(opts, ",") {
			if opt == "pk" {
				t.PrimaryKey = append(t.PrimaryKey, dbName)
			}
		}
	}

	for _, option := range options {
		option(t)
	}
	return t
}
