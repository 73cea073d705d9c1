// Package core provides the building blocks of the strata data-access layer.
// This file defines the expression tree: the closed set of predicate and
// aggregate nodes that the dialect compiler turns into parameterized SQL.
package core

// Expr is a node in a filter or projection expression tree.
//
// The set of implementations is closed: Col, Comparison, Logical,
// Membership, Range, Pattern, NullCheck, Aggregate and Raw. The compiler
// matches them exhaustively, so queries can never reach an unknown node.
//
// Expressions are built fluently and are immutable once handed to a
// statement:
//
//	expr := And(
//		Col("age").Gte(18),
//		Col("email").ILike("%@example.com"),
//		Col("deleted_at").IsNull(),
//	)
type Expr interface {
	isExpr()
}

// Col is a column reference, optionally table-qualified ("users.id").
//
// On its own it compiles to a quoted identifier and binds no parameter,
// which makes it usable both as a projection entry and as the right-hand
// side of a comparison:
//
//	Col("orders.user_id").Eq(Col("users.id"))
type Col string

// Comparison compares a column against a value, another column, or the
// result of a subquery.
type Comparison struct {
	Column string
	Op     CompareOp
	// Value is a scalar bound as a parameter, a Col compiled as an
	// identifier, or a *SelectStmt compiled inline as a subquery.
	Value any
}

// Logical combines child expressions with AND, OR or NOT.
type Logical struct {
	Kind     LogicalKind
	Children []Expr
}

// Membership tests whether a column's value is in a literal set.
type Membership struct {
	Column string
	Values []any
	Negate bool
}

// Range tests whether a column's value lies between two bounds (inclusive).
type Range struct {
	Column string
	Lo, Hi any
	Negate bool
}

// Pattern matches a column against a LIKE pattern. When CaseInsensitive is
// set, the compiler uses the dialect's native operator where one exists and
// otherwise folds both operands with LOWER().
type Pattern struct {
	Column          string
	Pattern         string
	CaseInsensitive bool
	Negate          bool
}

// NullCheck tests a column for NULL. It never binds a parameter.
type NullCheck struct {
	Column string
	Negate bool
}

// Aggregate applies an aggregate function in a projection. An empty Column
// compiles to the count-everything form (COUNT(*)).
type Aggregate struct {
	Fn       AggregateFn
	Column   string
	Distinct bool
	Alias    string
}

// Raw is a verbatim SQL fragment with its bound values. It is the one
// deliberately unsafe boundary of the expression tree: the fragment is
// trusted as-is, but Args still flow through the shared parameter
// accumulator in order.
type Raw struct {
	SQL  string
	Args []any
}

func (Col) isExpr()        {}
func (Comparison) isExpr() {}
func (Logical) isExpr()    {}
func (Membership) isExpr() {}
func (Range) isExpr()      {}
func (Pattern) isExpr()    {}
func (NullCheck) isExpr()  {}
func (Aggregate) isExpr()  {}
func (Raw) isExpr()        {}

// And joins the given expressions with AND. With no children the result
// compiles to an always-true fragment.
func And(children ...Expr) Expr {
	return Logical{Kind: KindAnd, Children: children}
}

// Or joins the given expressions with OR. With no children the result
// compiles to an always-false fragment.
func Or(children ...Expr) Expr {
	return Logical{Kind: KindOr, Children: children}
}

// Not negates the conjunction of the given expressions.
func Not(children ...Expr) Expr {
	return Logical{Kind: KindNot, Children: children}
}

// RawSQL builds a Raw node from a trusted fragment and its bound values.
func RawSQL(sql string, args ...any) Expr {
	return Raw{SQL: sql, Args: args}
}

// Eq compares the column for equality (=).
func (c Col) Eq(v any) Expr { return Comparison{Column: string(c), Op: OpEq, Value: v} }

// Ne compares the column for inequality (<>).
func (c Col) Ne(v any) Expr { return Comparison{Column: string(c), Op: OpNe, Value: v} }

// Gt compares the column for "greater than" (>).
func (c Col) Gt(v any) Expr { return Comparison{Column: string(c), Op: OpGt, Value: v} }

// Gte compares the column for "greater than or equal" (>=).
func (c Col) Gte(v any) Expr { return Comparison{Column: string(c), Op: OpGte, Value: v} }

// Lt compares the column for "less than" (<).
func (c Col) Lt(v any) Expr { return Comparison{Column: string(c), Op: OpLt, Value: v} }

// Lte compares the column for "less than or equal" (<=).
func (c Col) Lte(v any) Expr { return Comparison{Column: string(c), Op: OpLte, Value: v} }

// In tests membership in the given value set. An empty set compiles to an
// always-false fragment rather than invalid SQL.
func (c Col) In(values ...any) Expr { return Membership{Column: string(c), Values: values} }

// NotIn tests non-membership in the given value set. An empty set compiles
// to an always-true fragment.
func (c Col) NotIn(values ...any) Expr {
	return Membership{Column: string(c), Values: values, Negate: true}
}

// Between tests whether the column lies in [lo, hi].
func (c Col) Between(lo, hi any) Expr { return Range{Column: string(c), Lo: lo, Hi: hi} }

// NotBetween tests whether the column lies outside [lo, hi].
func (c Col) NotBetween(lo, hi any) Expr {
	return Range{Column: string(c), Lo: lo, Hi: hi, Negate: true}
}

// Like matches the column against a pattern, case sensitively.
func (c Col) Like(pattern string) Expr {
	return Pattern{Column: string(c), Pattern: pattern}
}

// NotLike is the negation of Like.
func (c Col) NotLike(pattern string) Expr {
	return Pattern{Column: string(c), Pattern: pattern, Negate: true}
}

// ILike matches the column against a pattern, case insensitively.
func (c Col) ILike(pattern string) Expr {
	return Pattern{Column: string(c), Pattern: pattern, CaseInsensitive: true}
}

// NotILike is the negation of ILike.
func (c Col) NotILike(pattern string) Expr {
	return Pattern{Column: string(c), Pattern: pattern, CaseInsensitive: true, Negate: true}
}

// IsNull tests the column for NULL.
func (c Col) IsNull() Expr { return NullCheck{Column: string(c)} }

// NotNull tests the column for NOT NULL.
func (c Col) NotNull() Expr { return NullCheck{Column: string(c), Negate: true} }

// CountAll builds a COUNT(*) aggregate.
func CountAll() Aggregate { return Aggregate{Fn: FnCount} }

// Count builds a COUNT(column) aggregate.
func Count(column string) Aggregate { return Aggregate{Fn: FnCount, Column: column} }

// Sum builds a SUM(column) aggregate.
func Sum(column string) Aggregate { return Aggregate{Fn: FnSum, Column: column} }

// Avg builds an AVG(column) aggregate.
func Avg(column string) Aggregate { return Aggregate{Fn: FnAvg, Column: column} }

// Min builds a MIN(column) aggregate.
func Min(column string) Aggregate { return Aggregate{Fn: FnMin, Column: column} }

// Max builds a MAX(column) aggregate.
func Max(column string) Aggregate { return Aggregate{Fn: FnMax, Column: column} }

// AsDistinct marks the aggregate argument as DISTINCT.
func (a Aggregate) AsDistinct() Aggregate {
	a.Distinct = true
	return a
}

// As sets the result alias of the aggregate.
func (a Aggregate) As(alias string) Aggregate {
	a.Alias = alias
	return a
}

// foldAnd combines expressions into a single AND expression. Zero
// expressions fold to nil (no filter), one folds to itself.
func foldAnd(exprs ...Expr) Expr {
	filtered := exprs[:0:0]
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return Logical{Kind: KindAnd, Children: filtered}
	}
}
