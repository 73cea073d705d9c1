// Package core provides the building blocks of the strata data-access layer.
// This file implements the relational query engine: terminal query methods
// and batched, breadth-first eager loading of declared relations.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// FindMany executes the query and returns all matching rows, each extended
// in place with the requested relations.
func (q *TableQuery) FindMany(ctx context.Context) ([]Row, error) {
	rows, err := q.db.query(ctx, q.table, q.selectStmt())
	if err != nil {
		return nil, err
	}
	if err := q.db.loadRelations(ctx, q.table, rows, q.with); err != nil {
		return nil, err
	}
	return rows, nil
}

// FindFirst executes the query with LIMIT 1 and returns the first matching
// row, or nil when nothing matches.
func (q *TableQuery) FindFirst(ctx context.Context) (Row, error) {
	stmt := q.selectStmt()
	stmt.Limit = 1
	rows, err := q.db.query(ctx, q.table, stmt)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	if err := q.db.loadRelations(ctx, q.table, rows[:1], q.with); err != nil {
		return nil, err
	}
	return rows[0], nil
}

// Find returns the row identified by the table's primary key. Composite
// keys take one value per key column, in declaration order. Querying a
// table with no declared primary key is fatal: a MissingKeyError.
func (q *TableQuery) Find(ctx context.Context, key ...any) (Row, error) {
	table := q.db.catalog.Table(q.table)
	if table == nil || len(table.PrimaryKey) == 0 {
		return nil, &MissingKeyError{Table: q.table}
	}
	if len(key) != len(table.PrimaryKey) {
		return nil, configErrorf("table %q has a %d-column primary key, got %d value(s)",
			q.table, len(table.PrimaryKey), len(key))
	}
	for i, column := range table.PrimaryKey {
		q.where = append(q.where, Col(column).Eq(key[i]))
	}
	return q.FindFirst(ctx)
}

// Count returns the number of rows matching the query's filter.
func (q *TableQuery) Count(ctx context.Context) (int64, error) {
	stmt := &SelectStmt{
		Table:   q.table,
		Columns: []Expr{CountAll().As("count")},
		Where:   foldAnd(q.where...),
	}
	rows, err := q.db.query(ctx, q.table, stmt)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["count"]), nil
}

// Insert writes the given rows in a single multi-row statement. Column
// order comes from the first row's sorted keys; every row must carry the
// same columns. Pre-insert hooks run on each row first.
func (q *TableQuery) Insert(ctx context.Context, rows ...Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := q.db.catalog.runHooks(q.db.catalog.preInsert, q.table, rows); err != nil {
		return 0, err
	}
	stmt := &InsertStmt{Table: q.table}
	stmt.Columns = sortedColumns(rows[0])
	for _, row := range rows {
		values := make([]any, len(stmt.Columns))
		for i, column := range stmt.Columns {
			values[i] = row[column]
		}
		stmt.Rows = append(stmt.Rows, values)
	}
	return q.db.exec(ctx, q.table, stmt.Compile(q.db.dialect))
}

// Upsert inserts the row or, on a primary-key conflict, updates its
// non-key columns. It fails on dialects without upsert support and on
// tables with no declared primary key.
func (q *TableQuery) Upsert(ctx context.Context, row Row) (int64, error) {
	if !q.db.dialect.SupportsUpsert() {
		return 0, fmt.Errorf("strata: dialect %q does not support upsert", q.db.dialect.Name())
	}
	table := q.db.catalog.Table(q.table)
	if table == nil || len(table.PrimaryKey) == 0 {
		return 0, &MissingKeyError{Table: q.table}
	}
	if err := q.db.catalog.runHooks(q.db.catalog.preInsert, q.table, []Row{row}); err != nil {
		return 0, err
	}

	columns := sortedColumns(row)
	values := make([]any, len(columns))
	update := Changes{}
	for i, column := range columns {
		values[i] = row[column]
		if !contains(table.PrimaryKey, column) {
			update[column] = row[column]
		}
	}
	stmt := &InsertStmt{
		Table:    q.table,
		Columns:  columns,
		Rows:     [][]any{values},
		Conflict: &OnConflict{Keys: table.PrimaryKey, Update: update},
	}
	return q.db.exec(ctx, q.table, stmt.Compile(q.db.dialect))
}

// Update applies the changes to every row matching the query's filter.
func (q *TableQuery) Update(ctx context.Context, changes Changes) (int64, error) {
	stmt := &UpdateStmt{Table: q.table, Changes: changes, Where: foldAnd(q.where...)}
	return q.db.exec(ctx, q.table, stmt.Compile(q.db.dialect))
}

// Delete removes every row matching the query's filter.
func (q *TableQuery) Delete(ctx context.Context) (int64, error) {
	stmt := &DeleteStmt{Table: q.table, Where: foldAnd(q.where...)}
	return q.db.exec(ctx, q.table, stmt.Compile(q.db.dialect))
}

// query compiles and runs a row-returning statement through the middleware
// chain, then runs post-load hooks and emits the query event.
func (db *DB) query(ctx context.Context, table string, stmt *SelectStmt) ([]Row, error) {
	compiled := stmt.Compile(db.dialect)
	payload := &QueryPayload{Table: table, SQL: compiled.SQL, Args: compiled.Args}

	handler := chainMiddlewares(db.middlewareList, func(ctx context.Context, _ Operation, p any) error {
		qp := p.(*QueryPayload)
		rows, err := db.executor.Query(ctx, qp.SQL, qp.Args...)
		if err != nil {
			return err
		}
		qp.Rows = rows
		return nil
	})
	if err := handler(ctx, OperationQuery, payload); err != nil {
		return nil, err
	}
	if err := db.catalog.runHooks(db.catalog.postLoad, table, payload.Rows); err != nil {
		return nil, err
	}
	db.events.emit(EventQuery, payload)
	return payload.Rows, nil
}

// exec runs a non-row statement through the middleware chain. Degenerate
// statements (zero-row insert, empty update) compile to an empty SQL string
// and are skipped rather than executed.
func (db *DB) exec(ctx context.Context, table string, compiled Compiled) (int64, error) {
	if compiled.SQL == "" {
		return 0, nil
	}
	payload := &ExecPayload{Table: table, SQL: compiled.SQL, Args: compiled.Args}

	handler := chainMiddlewares(db.middlewareList, func(ctx context.Context, _ Operation, p any) error {
		ep := p.(*ExecPayload)
		affected, err := db.executor.Exec(ctx, ep.SQL, ep.Args...)
		if err != nil {
			return err
		}
		ep.Affected = affected
		return nil
	})
	if err := handler(ctx, OperationExec, payload); err != nil {
		return 0, err
	}
	db.events.emit(EventExec, payload)
	return payload.Affected, nil
}

// loadRelations resolves one level of the "with" spec for the given parent
// rows, then recurses into nested specs with the just-loaded related rows
// as the new parents. Recursion depth equals spec nesting depth, never row
// count: every edge costs a bounded number of batched queries.
//
// Relation names are resolved deterministically (sorted) so sibling edges
// always issue their queries in the same order.
func (db *DB) loadRelations(ctx context.Context, table string, parents []Row, spec With) error {
	if len(parents) == 0 || len(spec) == 0 {
		return nil
	}
	for _, key := range sortedColumns(map[string]Rel(spec)) {
		cfg := spec[key]
		alias, relName := splitAlias(key)
		relation, ok := db.catalog.Relation(table, relName)
		if !ok {
			// Unknown relation names are skipped, not errors.
			continue
		}

		var children []Row
		var childTable string
		var err error
		switch r := relation.(type) {
		case One:
			children, err = db.loadToOne(ctx, table, parents, alias, r, cfg)
			childTable = r.Target
		case Many:
			children, err = db.loadToMany(ctx, table, parents, alias, r, cfg)
			childTable = r.Target
		case ManyToMany:
			children, err = db.loadManyToMany(ctx, table, parents, alias, r, cfg)
			childTable = r.Target
		case PolymorphicOne:
			// Targets vary per row; nested specs recurse per target inside.
			err = db.loadPolymorphicOne(ctx, parents, alias, r, cfg)
		case PolymorphicMany:
			children, err = db.loadPolymorphicMany(ctx, table, parents, alias, r, cfg)
			childTable = r.Target
		}
		if err != nil {
			return err
		}
		if len(cfg.With) > 0 && childTable != "" {
			if err := db.loadRelations(ctx, childTable, children, cfg.With); err != nil {
				return err
			}
		}
	}
	return nil
}

// relationQuery issues one batched follow-up query: the key filter AND-ed
// with the caller's extra filter, plus the caller's order, projection and
// (combined) limit.
func (db *DB) relationQuery(ctx context.Context, target string, filter Expr, cfg Rel) ([]Row, error) {
	stmt := &SelectStmt{
		Table:   target,
		Columns: cfg.Columns,
		Where:   foldAnd(filter, cfg.Where),
		OrderBy: cfg.OrderBy,
		Limit:   cfg.Limit,
	}
	return db.query(ctx, target, stmt)
}

// loadToOne resolves a One edge with a single batched query over the
// distinct parent keys, attaching one related row or nil per parent.
func (db *DB) loadToOne(ctx context.Context, source string, parents []Row, alias string, r One, cfg Rel) ([]Row, error) {
	fields := r.Fields
	if len(fields) == 0 {
		fields = db.catalog.primaryKey(source)
	}
	references := r.References
	if len(references) == 0 {
		references = db.catalog.primaryKey(r.Target)
	}
	return db.stitch(ctx, parents, alias, r.Target, fields, references, cfg, true)
}

// loadToMany resolves a Many edge with a single batched query, attaching an
// ordered row list (possibly empty) per parent. Missing References fall
// back to the inferred foreign-key column name.
func (db *DB) loadToMany(ctx context.Context, source string, parents []Row, alias string, r Many, cfg Rel) ([]Row, error) {
	fields := r.Fields
	if len(fields) == 0 {
		fields = db.catalog.primaryKey(source)
	}
	references := r.References
	if len(references) == 0 {
		references = []string{inferForeignKey(source)}
	}
	return db.stitch(ctx, parents, alias, r.Target, fields, references, cfg, false)
}

// stitch is the shared One/Many resolution: collect distinct non-null
// parent keys, batch one IN query (or none, when no keys exist), index the
// children by reference key, and attach them back onto the parents.
func (db *DB) stitch(ctx context.Context, parents []Row, alias, target string, fields, references []string, cfg Rel, single bool) ([]Row, error) {
	tuples := distinctTuples(parents, fields)
	if len(tuples) == 0 {
		// Never issue a query with zero usable keys.
		attachEmpty(parents, alias, single)
		return nil, nil
	}

	children, err := db.relationQuery(ctx, target, keyFilter(references, tuples), cfg)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]Row, len(children))
	for _, child := range children {
		if values, ok := tupleOf(child, references); ok {
			k := tupleKey(values)
			index[k] = append(index[k], child)
		}
	}

	for _, parent := range parents {
		values, ok := tupleOf(parent, fields)
		if !ok {
			attachEmpty([]Row{parent}, alias, single)
			continue
		}
		matches := index[tupleKey(values)]
		if single {
			if len(matches) > 0 {
				parent[alias] = matches[0]
			} else {
				parent[alias] = nil
			}
		} else {
			if matches == nil {
				matches = []Row{}
			}
			parent[alias] = matches
		}
	}
	return children, nil
}

// loadManyToMany resolves a ManyToMany edge with exactly two batched
// queries: junction rows keyed on the source side, then target rows keyed
// on the distinct target-side junction values, followed by the three-way
// stitch. Requested pivot columns are attached to per-parent copies of the
// target rows.
func (db *DB) loadManyToMany(ctx context.Context, source string, parents []Row, alias string, r ManyToMany, cfg Rel) ([]Row, error) {
	fields := r.Fields
	if len(fields) == 0 {
		fields = db.catalog.primaryKey(source)
	}
	targetReferences := r.TargetReferences
	if len(targetReferences) == 0 {
		targetReferences = db.catalog.primaryKey(r.Target)
	}

	tuples := distinctTuples(parents, fields)
	if len(tuples) == 0 {
		attachEmpty(parents, alias, false)
		return nil, nil
	}

	junction, err := db.query(ctx, r.Through, &SelectStmt{
		Table: r.Through,
		Where: keyFilter(r.ThroughFields, tuples),
	})
	if err != nil {
		return nil, err
	}

	targetTuples := distinctTuples(junction, r.TargetFields)
	if len(targetTuples) == 0 {
		attachEmpty(parents, alias, false)
		return nil, nil
	}
	targets, err := db.relationQuery(ctx, r.Target, keyFilter(targetReferences, targetTuples), cfg)
	if err != nil {
		return nil, err
	}

	targetIndex := make(map[string]Row, len(targets))
	for _, target := range targets {
		if values, ok := tupleOf(target, targetReferences); ok {
			targetIndex[tupleKey(values)] = target
		}
	}
	junctionIndex := make(map[string][]Row, len(junction))
	for _, j := range junction {
		if values, ok := tupleOf(j, r.ThroughFields); ok {
			k := tupleKey(values)
			junctionIndex[k] = append(junctionIndex[k], j)
		}
	}

	attached := make([]Row, 0, len(targets))
	for _, parent := range parents {
		matches := []Row{}
		if values, ok := tupleOf(parent, fields); ok {
			for _, j := range junctionIndex[tupleKey(values)] {
				targetValues, ok := tupleOf(j, r.TargetFields)
				if !ok {
					continue
				}
				target, found := targetIndex[tupleKey(targetValues)]
				if !found {
					continue
				}
				if len(cfg.WithPivot) > 0 {
					// The same target can hang off several parents with
					// different junction rows, so pivots go on a copy.
					dup := make(Row, len(target)+1)
					for k, v := range target {
						dup[k] = v
					}
					pivot := make(Row, len(cfg.WithPivot))
					for _, column := range cfg.WithPivot {
						pivot[column] = j[column]
					}
					dup["pivot"] = pivot
					target = dup
					attached = append(attached, dup)
				}
				matches = append(matches, target)
			}
		}
		parent[alias] = matches
	}
	if len(cfg.WithPivot) > 0 {
		return attached, nil
	}
	return targets, nil
}

// loadPolymorphicOne partitions parents by their type-discriminator value
// and issues one batched query per distinct type present, since each type
// maps to a structurally different target table. Nested specs recurse per
// target table.
func (db *DB) loadPolymorphicOne(ctx context.Context, parents []Row, alias string, r PolymorphicOne, cfg Rel) error {
	groups := make(map[string][]Row)
	var order []string
	for _, parent := range parents {
		typeValue, idValue := parent[r.TypeColumn], parent[r.IDColumn]
		if typeValue == nil || idValue == nil {
			parent[alias] = nil
			continue
		}
		k := fmt.Sprint(typeValue)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], parent)
	}

	for _, typeValue := range order {
		members := groups[typeValue]
		target, ok := r.Targets[typeValue]
		if !ok {
			// A type value with no declared target loads nothing.
			for _, parent := range members {
				parent[alias] = nil
			}
			continue
		}
		reference := db.catalog.primaryKey(target)[0]

		seen := make(map[string]bool)
		var ids []any
		for _, parent := range members {
			id := parent[r.IDColumn]
			if k := fmt.Sprint(id); !seen[k] {
				seen[k] = true
				ids = append(ids, id)
			}
		}

		children, err := db.relationQuery(ctx, target, Membership{Column: reference, Values: ids}, cfg)
		if err != nil {
			return err
		}
		index := make(map[string]Row, len(children))
		for _, child := range children {
			index[fmt.Sprint(child[reference])] = child
		}
		for _, parent := range members {
			if child, found := index[fmt.Sprint(parent[r.IDColumn])]; found {
				parent[alias] = child
			} else {
				parent[alias] = nil
			}
		}
		if len(cfg.With) > 0 {
			if err := db.loadRelations(ctx, target, children, cfg.With); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadPolymorphicMany issues one batched query filtered by both the
// relation's fixed type value and the polymorphic id against the distinct
// source keys.
func (db *DB) loadPolymorphicMany(ctx context.Context, source string, parents []Row, alias string, r PolymorphicMany, cfg Rel) ([]Row, error) {
	references := r.References
	if len(references) == 0 {
		references = db.catalog.primaryKey(source)[:1]
	}

	tuples := distinctTuples(parents, references)
	if len(tuples) == 0 {
		attachEmpty(parents, alias, false)
		return nil, nil
	}
	ids := make([]any, len(tuples))
	for i, tuple := range tuples {
		ids[i] = tuple[0]
	}

	filter := foldAnd(
		Col(r.TypeColumn).Eq(r.TypeValue),
		Membership{Column: r.IDColumn, Values: ids},
	)
	children, err := db.relationQuery(ctx, r.Target, filter, cfg)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]Row, len(children))
	for _, child := range children {
		if child[r.IDColumn] == nil {
			continue
		}
		k := fmt.Sprint(child[r.IDColumn])
		index[k] = append(index[k], child)
	}
	for _, parent := range parents {
		values, ok := tupleOf(parent, references)
		if !ok {
			parent[alias] = []Row{}
			continue
		}
		matches := index[fmt.Sprint(values[0])]
		if matches == nil {
			matches = []Row{}
		}
		parent[alias] = matches
	}
	return children, nil
}

// splitAlias splits an "alias:relation" key; a bare name is its own alias.
func splitAlias(key string) (alias, relation string) {
	if alias, relation, found := strings.Cut(key, ":"); found {
		return alias, relation
	}
	return key, key
}

// tupleOf extracts the values of cols from a row. It reports false when any
// value is missing or NULL: such rows contribute no join key.
func tupleOf(row Row, cols []string) ([]any, bool) {
	values := make([]any, len(cols))
	for i, col := range cols {
		v, ok := row[col]
		if !ok || v == nil {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// tupleKey renders a key tuple as a map key. Values are formatted rather
// than compared directly so that e.g. int64(7) scanned by one driver still
// matches int(7) supplied by a caller.
func tupleKey(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x1f")
}

// distinctTuples collects the distinct, fully non-null key tuples across
// rows, preserving first-seen order for deterministic IN lists.
func distinctTuples(rows []Row, cols []string) [][]any {
	seen := make(map[string]bool)
	var tuples [][]any
	for _, row := range rows {
		values, ok := tupleOf(row, cols)
		if !ok {
			continue
		}
		k := tupleKey(values)
		if seen[k] {
			continue
		}
		seen[k] = true
		tuples = append(tuples, values)
	}
	return tuples
}

// keyFilter builds the batched key predicate: a single-column key compiles
// to one IN list; composite keys compile to an OR of AND-ed equality pairs,
// which stays valid in every supported dialect.
func keyFilter(cols []string, tuples [][]any) Expr {
	if len(cols) == 1 {
		values := make([]any, len(tuples))
		for i, tuple := range tuples {
			values[i] = tuple[0]
		}
		return Membership{Column: cols[0], Values: values}
	}
	groups := make([]Expr, 0, len(tuples))
	for _, tuple := range tuples {
		pairs := make([]Expr, len(cols))
		for i, col := range cols {
			pairs[i] = Comparison{Column: col, Op: OpEq, Value: tuple[i]}
		}
		groups = append(groups, Logical{Kind: KindAnd, Children: pairs})
	}
	return Logical{Kind: KindOr, Children: groups}
}

func attachEmpty(parents []Row, alias string, single bool) {
	for _, parent := range parents {
		if single {
			parent[alias] = nil
		} else {
			parent[alias] = []Row{}
		}
	}
}

func sortedColumns[V any](m map[string]V) []string {
	columns := make([]string, 0, len(m))
	for column := range m {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
