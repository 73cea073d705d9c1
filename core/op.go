// Package core provides the building blocks of the strata data-access layer.
// This file defines the operator and function sets used by expression nodes.
package core

// CompareOp is a binary comparison operator used by Comparison nodes.
type CompareOp string

const (
	// OpEq compares for equality (=).
	OpEq CompareOp = "="
	// OpNe compares for inequality (<>).
	OpNe CompareOp = "<>"
	// OpGt compares for "greater than" (>).
	OpGt CompareOp = ">"
	// OpGte compares for "greater than or equal" (>=).
	OpGte CompareOp = ">="
	// OpLt compares for "less than" (<).
	OpLt CompareOp = "<"
	// OpLte compares for "less than or equal" (<=).
	OpLte CompareOp = "<="
)

// LogicalKind distinguishes the three logical connectives of a Logical node.
type LogicalKind int

const (
	// KindAnd joins child expressions with AND. With zero children it
	// compiles to an always-true fragment.
	KindAnd LogicalKind = iota
	// KindOr joins child expressions with OR. With zero children it
	// compiles to an always-false fragment.
	KindOr
	// KindNot negates the conjunction of its child expressions.
	KindNot
)

// AggregateFn is an aggregate function usable in a projection.
type AggregateFn string

const (
	FnCount AggregateFn = "COUNT"
	FnSum   AggregateFn = "SUM"
	FnAvg   AggregateFn = "AVG"
	FnMin   AggregateFn = "MIN"
	FnMax   AggregateFn = "MAX"
)
