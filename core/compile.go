// Package core provides the building blocks of the strata data-access layer.
// This file compiles expression trees and statement shapes into dialect-correct,
// parameterized SQL. Values are always bound, never interpolated.
package core

import (
	"fmt"
	"sort"
	"strings"
)

// Compiled is a dialect-correct SQL statement plus the ordered parameter
// list bound to its placeholders. It is the boundary artifact handed to an
// Executor. Compiling the same statement under the same dialect is
// deterministic: the output is byte-identical every time.
type Compiled struct {
	SQL  string
	Args []any
}

// Sort is an ordering rule applied to query results.
type Sort struct {
	Column string
	Order  int // 1 = ASC, -1 = DESC
}

// Changes is a set of column updates, mapping column names to new values.
// The compiler emits them in sorted column order so output stays
// deterministic.
type Changes map[string]any

// Asc builds an ascending Sort for the given column.
func Asc(column string) Sort { return Sort{Column: column, Order: 1} }

// Desc builds a descending Sort for the given column.
func Desc(column string) Sort { return Sort{Column: column, Order: -1} }

// bind appends v to the shared parameter accumulator and returns the
// placeholder for its position. The accumulator is threaded by pointer
// through the entire compilation of one statement; copying it would
// desynchronize placeholder indices from parameter positions.
func bind(d *Dialect, args *[]any, v any) string {
	*args = append(*args, v)
	return d.Placeholder(len(*args))
}

// compileExpr compiles one expression node into a SQL fragment, appending
// any bound values to args. It never fails: degenerate nodes compile to
// logically safe fragments (1=1 or 1=0) so dynamically assembled filters
// stay robust under partial or empty input.
func compileExpr(e Expr, d *Dialect, args *[]any) string {
	switch node := e.(type) {
	case nil:
		return "1=1"

	case Col:
		return d.Quote(string(node))

	case Comparison:
		var rhs string
		switch v := node.Value.(type) {
		case Col:
			rhs = d.Quote(string(v))
		case *SelectStmt:
			rhs = "(" + compileSelect(v, d, args) + ")"
		default:
			rhs = bind(d, args, v)
		}
		return d.Quote(node.Column) + " " + string(node.Op) + " " + rhs

	case Logical:
		if len(node.Children) == 0 {
			// Empty AND is vacuously true, empty OR vacuously false.
			if node.Kind == KindOr {
				return "1=0"
			}
			return "1=1"
		}
		parts := make([]string, 0, len(node.Children))
		for _, child := range node.Children {
			parts = append(parts, compileExpr(child, d, args))
		}
		switch node.Kind {
		case KindOr:
			return "(" + strings.Join(parts, " OR ") + ")"
		case KindNot:
			return "NOT (" + strings.Join(parts, " AND ") + ")"
		default:
			return "(" + strings.Join(parts, " AND ") + ")"
		}

	case Membership:
		if len(node.Values) == 0 {
			// Never emit a syntactically empty IN ().
			if node.Negate {
				return "1=1"
			}
			return "1=0"
		}
		placeholders := make([]string, 0, len(node.Values))
		for _, v := range node.Values {
			placeholders = append(placeholders, bind(d, args, v))
		}
		op := "IN"
		if node.Negate {
			op = "NOT IN"
		}
		return d.Quote(node.Column) + " " + op + " (" + strings.Join(placeholders, ", ") + ")"

	case Range:
		lo := bind(d, args, node.Lo)
		hi := bind(d, args, node.Hi)
		op := "BETWEEN"
		if node.Negate {
			op = "NOT BETWEEN"
		}
		return d.Quote(node.Column) + " " + op + " " + lo + " AND " + hi

	case Pattern:
		lhs := d.Quote(node.Column)
		op := "LIKE"
		if node.CaseInsensitive && d.SupportsILike() {
			op = "ILIKE"
		}
		if node.Negate {
			op = "NOT " + op
		}
		rhs := bind(d, args, node.Pattern)
		if node.CaseInsensitive && !d.SupportsILike() {
			// No native operator: fold both operands.
			lhs = "LOWER(" + lhs + ")"
			rhs = "LOWER(" + rhs + ")"
		}
		return lhs + " " + op + " " + rhs

	case NullCheck:
		if node.Negate {
			return d.Quote(node.Column) + " IS NOT NULL"
		}
		return d.Quote(node.Column) + " IS NULL"

	case Aggregate:
		arg := "*"
		if node.Column != "" {
			arg = d.Quote(node.Column)
			if node.Distinct {
				arg = "DISTINCT " + arg
			}
		}
		s := string(node.Fn) + "(" + arg + ")"
		if node.Alias != "" {
			s += " AS " + d.Quote(node.Alias)
		}
		return s

	case Raw:
		// The designated unsafe boundary: the fragment is trusted verbatim,
		// but its values still flow through the shared accumulator in order.
		*args = append(*args, node.Args...)
		return node.SQL
	}
	return "1=1"
}

// SelectStmt describes a SELECT query shape.
type SelectStmt struct {
	Table   string
	Columns []Expr // empty means *
	Where   Expr
	OrderBy []Sort
	Limit   int
	Offset  int
}

// Compile turns the statement into SQL text and an ordered parameter list
// for the given dialect.
func (s *SelectStmt) Compile(d *Dialect) Compiled {
	args := []any{}
	sql := compileSelect(s, d, &args)
	return Compiled{SQL: sql, Args: args}
}

// compileSelect shares the caller's accumulator so subqueries keep
// placeholder numbering consistent across the whole statement.
func compileSelect(s *SelectStmt, d *Dialect, args *[]any) string {
	projection := "*"
	if len(s.Columns) > 0 {
		parts := make([]string, 0, len(s.Columns))
		for _, c := range s.Columns {
			parts = append(parts, compileExpr(c, d, args))
		}
		projection = strings.Join(parts, ", ")
	}

	sql := "SELECT " + projection + " FROM " + d.Quote(s.Table) +
		" WHERE " + compileExpr(s.Where, d, args)

	if len(s.OrderBy) > 0 {
		parts := make([]string, 0, len(s.OrderBy))
		for _, o := range s.OrderBy {
			direction := "ASC"
			if o.Order < 0 {
				direction = "DESC"
			}
			parts = append(parts, d.Quote(o.Column)+" "+direction)
		}
		sql += " ORDER BY " + strings.Join(parts, ", ")
	}
	if s.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", s.Limit)
	}
	if s.Offset > 0 {
		sql += fmt.Sprintf(" OFFSET %d", s.Offset)
	}
	return sql
}

// OnConflict describes the conflict-update half of an upsert.
type OnConflict struct {
	Keys   []string // conflict target columns (ignored by mysql syntax)
	Update Changes
}

// InsertStmt describes a (possibly multi-row) INSERT, optionally with a
// dialect-specific conflict-update clause.
type InsertStmt struct {
	Table    string
	Columns  []string
	Rows     [][]any // each row's values in Columns order
	Conflict *OnConflict
}

// Compile turns the statement into SQL text and an ordered parameter list.
// With zero rows the result is an empty statement that callers skip rather
// than execute. The conflict clause is dropped on dialects without upsert
// support; callers that need a hard guarantee check Dialect.SupportsUpsert.
func (s *InsertStmt) Compile(d *Dialect) Compiled {
	if len(s.Rows) == 0 || len(s.Columns) == 0 {
		return Compiled{}
	}

	args := []any{}
	quoted := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		quoted = append(quoted, d.Quote(c))
	}

	groups := make([]string, 0, len(s.Rows))
	for _, row := range s.Rows {
		placeholders := make([]string, 0, len(row))
		for _, v := range row {
			placeholders = append(placeholders, bind(d, &args, v))
		}
		groups = append(groups, "("+strings.Join(placeholders, ", ")+")")
	}

	sql := "INSERT INTO " + d.Quote(s.Table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(groups, ", ")

	if s.Conflict != nil && d.SupportsUpsert() {
		set := compileChanges(s.Conflict.Update, d, &args)
		switch d.conflict {
		case conflictOnDuplicate:
			sql += " ON DUPLICATE KEY UPDATE " + set
		default:
			keys := make([]string, 0, len(s.Conflict.Keys))
			for _, k := range s.Conflict.Keys {
				keys = append(keys, d.Quote(k))
			}
			sql += " ON CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE SET " + set
		}
	}
	return Compiled{SQL: sql, Args: args}
}

// UpdateStmt describes an UPDATE statement shape.
type UpdateStmt struct {
	Table   string
	Changes Changes
	Where   Expr
}

// Compile turns the statement into SQL text and an ordered parameter list.
// With no changes the result is an empty statement that callers skip.
func (s *UpdateStmt) Compile(d *Dialect) Compiled {
	if len(s.Changes) == 0 {
		return Compiled{}
	}
	args := []any{}
	set := compileChanges(s.Changes, d, &args)
	sql := "UPDATE " + d.Quote(s.Table) + " SET " + set +
		" WHERE " + compileExpr(s.Where, d, &args)
	return Compiled{SQL: sql, Args: args}
}

// DeleteStmt describes a DELETE statement shape.
type DeleteStmt struct {
	Table string
	Where Expr
}

// Compile turns the statement into SQL text and an ordered parameter list.
func (s *DeleteStmt) Compile(d *Dialect) Compiled {
	args := []any{}
	sql := "DELETE FROM " + d.Quote(s.Table) +
		" WHERE " + compileExpr(s.Where, d, &args)
	return Compiled{SQL: sql, Args: args}
}

// compileChanges emits "col = <placeholder>" pairs in sorted column order.
func compileChanges(changes Changes, d *Dialect, args *[]any) string {
	columns := make([]string, 0, len(changes))
	for column := range changes {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, d.Quote(column)+" = "+bind(d, args, changes[column]))
	}
	return strings.Join(parts, ", ")
}
