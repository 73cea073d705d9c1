// Package core provides the building blocks of the strata data-access layer.
// This file defines lifecycle hooks that run custom logic per table around
// persistence operations.
package core

// RowHook is custom logic applied to a single row. Returning an error
// aborts the surrounding operation and propagates to the caller.
type RowHook func(Row) error

// OnPreInsert registers a hook run on every row of a table just before it
// is inserted (or upserted). Hooks are part of setup: registering one on a
// frozen catalog is a configuration error.
func (c *Catalog) OnPreInsert(table string, h RowHook) error {
	if c.frozen {
		return configErrorf("catalog is frozen; hook on %q registered after setup", table)
	}
	c.preInsert[table] = append(c.preInsert[table], h)
	return nil
}

// OnPostLoad registers a hook run on every row loaded from a table,
// including rows loaded by batched relation queries.
func (c *Catalog) OnPostLoad(table string, h RowHook) error {
	if c.frozen {
		return configErrorf("catalog is frozen; hook on %q registered after setup", table)
	}
	c.postLoad[table] = append(c.postLoad[table], h)
	return nil
}

func (c *Catalog) runHooks(hooks map[string][]RowHook, table string, rows []Row) error {
	for _, h := range hooks[table] {
		for _, row := range rows {
			if err := h(row); err != nil {
				return err
			}
		}
	}
	return nil
}
