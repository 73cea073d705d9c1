// Package core provides the building blocks of the strata data-access layer.
// This file defines the DB handle and the fluent table query builder.
package core

// DB ties an Executor, a Dialect and a frozen Catalog together. It is the
// entry point of the query engine:
//
//	db := core.NewDB(exec, core.Postgres, catalog)
//	rows, err := db.Table("users").
//		Where(core.Col("active").Eq(true)).
//		With(core.With{"posts": {With: core.With{"comments": {}}}}).
//		FindMany(ctx)
type DB struct {
	executor       Executor
	dialect        *Dialect
	catalog        *Catalog
	middlewareList []Middleware
	events         *eventDispatcher
}

// NewDB builds a DB. The catalog is frozen here if the caller has not done
// so already: once queries can run, setup is over. A nil catalog behaves
// like an empty one (no relations, "id" primary keys).
func NewDB(exec Executor, dialect *Dialect, catalog *Catalog) *DB {
	if dialect == nil {
		dialect = ANSI
	}
	if catalog == nil {
		catalog = NewCatalog()
	}
	catalog.Freeze()
	return &DB{
		executor: exec,
		dialect:  dialect,
		catalog:  catalog,
		events:   newEventDispatcher(),
	}
}

// Use appends a middleware to the DB's statement pipeline. Like catalog
// registration, this belongs to application setup, before queries run.
func (db *DB) Use(mw Middleware) {
	db.middlewareList = append(db.middlewareList, mw)
}

// On registers a handler for statement events emitted by this DB.
func (db *DB) On(event Event, handler EventHandler) {
	db.events.on(event, handler)
}

// Dialect returns the dialect statements are compiled for.
func (db *DB) Dialect() *Dialect { return db.dialect }

// Catalog returns the frozen catalog backing this DB.
func (db *DB) Catalog() *Catalog { return db.catalog }

// With maps a relation name — or an "alias:relation" pair — to the
// configuration of its eager load. The zero Rel loads the relation plainly:
//
//	core.With{
//		"posts":           {OrderBy: []core.Sort{core.Desc("created_at")}},
//		"recent:comments": {Limit: 10},
//	}
type With map[string]Rel

// Rel configures one eagerly loaded relation edge.
type Rel struct {
	// Where is AND-ed onto the batched follow-up query.
	Where Expr
	// OrderBy is appended to the batched follow-up query. Many-shaped
	// attachments preserve the order the follow-up query returned.
	OrderBy []Sort
	// Limit bounds the COMBINED batched result across all parent rows, not
	// the rows attached per parent. This is a documented approximation of
	// per-parent windowing.
	Limit int
	// Columns narrows the projection of the follow-up query. It must keep
	// the relation's reference columns, which the engine needs to stitch
	// results back onto parents.
	Columns []Expr
	// With recursively eager-loads relations of the related rows.
	With With
	// WithPivot attaches the named junction columns to each related row
	// under the "pivot" key. ManyToMany only.
	WithPivot []string
}

// TableQuery is a fluent, single-use query description for one table.
// Building it performs no I/O until one of the terminal methods (FindMany,
// FindFirst, Find, Count, Insert, Upsert, Update, Delete) runs.
type TableQuery struct {
	db      *DB
	table   string
	columns []Expr
	where   []Expr
	orderBy []Sort
	limit   int
	offset  int
	with    With
}

// Table starts a query against the named table.
func (db *DB) Table(name string) *TableQuery {
	return &TableQuery{db: db, table: name}
}

// Select narrows the projected columns. Plain columns and aggregates mix
// freely; an empty projection selects *.
func (q *TableQuery) Select(columns ...Expr) *TableQuery {
	q.columns = append(q.columns, columns...)
	return q
}

// Where adds filter expressions, AND-ed with any already present.
func (q *TableQuery) Where(exprs ...Expr) *TableQuery {
	q.where = append(q.where, exprs...)
	return q
}

// OrderBy adds ordering rules.
func (q *TableQuery) OrderBy(sorts ...Sort) *TableQuery {
	q.orderBy = append(q.orderBy, sorts...)
	return q
}

// Limit caps the number of returned rows.
func (q *TableQuery) Limit(limit int) *TableQuery {
	q.limit = limit
	return q
}

// Offset skips rows before returning results.
func (q *TableQuery) Offset(offset int) *TableQuery {
	q.offset = offset
	return q
}

// With requests eager loading of the named relations onto every returned
// row. Unknown relation names are skipped silently so that dynamically
// assembled specs stay robust.
func (q *TableQuery) With(spec With) *TableQuery {
	if q.with == nil {
		q.with = make(With, len(spec))
	}
	for name, cfg := range spec {
		q.with[name] = cfg
	}
	return q
}

// selectStmt materializes the accumulated builder state.
func (q *TableQuery) selectStmt() *SelectStmt {
	return &SelectStmt{
		Table:   q.table,
		Columns: q.columns,
		Where:   foldAnd(q.where...),
		OrderBy: q.orderBy,
		Limit:   q.limit,
		Offset:  q.offset,
	}
}
