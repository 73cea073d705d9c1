// Package core provides the building blocks of the strata data-access layer.
// This file defines the Catalog: the explicit, freezable registry of tables
// and relations that the query engine reads from.
package core

// Catalog maps table names to their schema and their named relations. It is
// an explicit value, not process-wide state: build one during application
// setup, register everything, then Freeze it and hand it to NewDB.
//
// The setup→query transition is a checked state change. After Freeze every
// mutation returns a ConfigurationError, which makes the catalog safe for
// concurrent readers during the query phase without locking.
type Catalog struct {
	frozen    bool
	tables    map[string]*Table
	relations map[string]map[string]Relation
	preInsert map[string][]RowHook
	postLoad  map[string][]RowHook
}

// NewCatalog returns an empty, unfrozen catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables:    make(map[string]*Table),
		relations: make(map[string]map[string]Relation),
		preInsert: make(map[string][]RowHook),
		postLoad:  make(map[string][]RowHook),
	}
}

// AddTable registers a table's schema. Registering a second table under the
// same name is a configuration error, as is any registration after Freeze.
func (c *Catalog) AddTable(t *Table) error {
	if c.frozen {
		return configErrorf("catalog is frozen; table %q registered after setup", t.Name)
	}
	if t.Name == "" {
		return configErrorf("table requires a name")
	}
	if _, ok := c.tables[t.Name]; ok {
		return configErrorf("table %q is already registered", t.Name)
	}
	c.tables[t.Name] = t
	return nil
}

// Table returns the schema registered under name, or nil.
func (c *Catalog) Table(name string) *Table { return c.tables[name] }

// AddRelation registers a named relation on a source table. The relation is
// validated for its variant (required columns, positional key-pair arity).
//
// Re-registering the same (table, name) key is a configuration error rather
// than a silent overwrite: the catalog is built exactly once, so a duplicate
// key is a typo, not an update.
func (c *Catalog) AddRelation(table, name string, r Relation) error {
	if c.frozen {
		return configErrorf("catalog is frozen; relation %q.%q registered after setup", table, name)
	}
	if table == "" || name == "" {
		return configErrorf("relation registration requires a table and a name")
	}
	if err := r.validate(); err != nil {
		return err
	}
	if _, ok := c.relations[table][name]; ok {
		return configErrorf("relation %q.%q is already registered", table, name)
	}
	if c.relations[table] == nil {
		c.relations[table] = make(map[string]Relation)
	}
	c.relations[table][name] = r
	return nil
}

// Relation looks up a relation by source table and name.
func (c *Catalog) Relation(table, name string) (Relation, bool) {
	r, ok := c.relations[table][name]
	return r, ok
}

// Freeze ends the setup phase. A frozen catalog rejects every further
// registration and may be read concurrently.
func (c *Catalog) Freeze() { c.frozen = true }

// Frozen reports whether the catalog has left the setup phase.
func (c *Catalog) Frozen() bool { return c.frozen }

// primaryKey returns the declared primary key of a table, defaulting to
// ["id"] for tables the catalog does not know.
func (c *Catalog) primaryKey(table string) []string {
	if t := c.tables[table]; t != nil && len(t.PrimaryKey) > 0 {
		return t.PrimaryKey
	}
	return []string{"id"}
}
