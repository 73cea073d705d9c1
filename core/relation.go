// Package core provides the building blocks of the strata data-access layer.
// This file defines the closed set of relation variants resolved by the
// eager-loading engine.
package core

import "strings"

// Relation declares how rows of a source table relate to rows of a target.
//
// The set of implementations is closed: One, Many, ManyToMany,
// PolymorphicOne and PolymorphicMany. The engine matches them exhaustively.
// Key pairs are positional: Fields[i] on the source matches References[i]
// on the target, so composite keys are supported throughout.
type Relation interface {
	isRelation()

	// validate checks the variant's required columns at registration time.
	validate() error
}

// One is a to-one relation: each source row has at most one target row
// where target.References = source.Fields.
type One struct {
	Target     string
	Fields     []string // source columns holding the join key
	References []string // target columns matched against Fields
}

// Many is a to-many relation: each source row owns the target rows where
// target.References = source.Fields.
//
// When References is empty the engine falls back to a naive inference: the
// singular of the source table name plus "_id" (source "posts" → target
// column "post_id"). This heuristic only strips a trailing "s"; it is a
// documented limitation, not a pluralization solver.
type Many struct {
	Target     string
	Fields     []string
	References []string
}

// ManyToMany joins source and target rows through a junction table.
// ThroughFields[i] on the junction matches Fields[i] on the source;
// TargetFields[i] on the junction matches TargetReferences[i] on the target.
type ManyToMany struct {
	Target           string
	Through          string   // junction table
	Fields           []string // source columns
	ThroughFields    []string // junction columns referencing the source
	TargetFields     []string // junction columns referencing the target
	TargetReferences []string // target columns
}

// PolymorphicOne is a to-one relation whose target table varies per row: a
// type-discriminator column selects the target from Targets, and IDColumn
// holds the target's primary key value.
type PolymorphicOne struct {
	TypeColumn string
	IDColumn   string
	Targets    map[string]string // type value → target table
}

// PolymorphicMany selects target rows carrying both a fixed type value and
// a back-reference to the source key: target.TypeColumn = TypeValue AND
// target.IDColumn IN source.References. References defaults to the source
// table's primary key.
type PolymorphicMany struct {
	Target     string
	TypeColumn string
	IDColumn   string
	TypeValue  string
	References []string
}

func (One) isRelation()             {}
func (Many) isRelation()            {}
func (ManyToMany) isRelation()      {}
func (PolymorphicOne) isRelation()  {}
func (PolymorphicMany) isRelation() {}

func (r One) validate() error {
	if r.Target == "" {
		return configErrorf("One relation requires a target table")
	}
	// Key pairs are positional, so when both sides are supplied they must
	// pair up exactly. An empty side takes its default instead.
	if len(r.Fields) != 0 && len(r.References) != 0 && len(r.Fields) != len(r.References) {
		return configErrorf("One relation on %q: %d fields but %d references",
			r.Target, len(r.Fields), len(r.References))
	}
	return nil
}

func (r Many) validate() error {
	if r.Target == "" {
		return configErrorf("Many relation requires a target table")
	}
	if len(r.Fields) != 0 && len(r.References) != 0 && len(r.Fields) != len(r.References) {
		return configErrorf("Many relation on %q: %d fields but %d references",
			r.Target, len(r.Fields), len(r.References))
	}
	return nil
}

func (r ManyToMany) validate() error {
	if r.Target == "" || r.Through == "" {
		return configErrorf("ManyToMany relation requires target and junction tables")
	}
	if len(r.ThroughFields) == 0 || len(r.TargetFields) == 0 {
		return configErrorf("ManyToMany relation through %q requires junction key columns", r.Through)
	}
	if len(r.Fields) != 0 && len(r.Fields) != len(r.ThroughFields) {
		return configErrorf("ManyToMany relation through %q: %d fields but %d through fields",
			r.Through, len(r.Fields), len(r.ThroughFields))
	}
	if len(r.TargetReferences) != 0 && len(r.TargetReferences) != len(r.TargetFields) {
		return configErrorf("ManyToMany relation through %q: %d target fields but %d target references",
			r.Through, len(r.TargetFields), len(r.TargetReferences))
	}
	return nil
}

func (r PolymorphicOne) validate() error {
	if r.TypeColumn == "" || r.IDColumn == "" {
		return configErrorf("PolymorphicOne relation requires type and id columns")
	}
	if len(r.Targets) == 0 {
		return configErrorf("PolymorphicOne relation requires at least one target table")
	}
	return nil
}

func (r PolymorphicMany) validate() error {
	if r.Target == "" {
		return configErrorf("PolymorphicMany relation requires a target table")
	}
	if r.TypeColumn == "" || r.IDColumn == "" || r.TypeValue == "" {
		return configErrorf("PolymorphicMany relation on %q requires type column, id column and type value", r.Target)
	}
	if len(r.References) > 1 {
		return configErrorf("PolymorphicMany relation on %q: id column can reference at most one source column", r.Target)
	}
	return nil
}

// inferForeignKey derives a target foreign-key column from a source table
// name: naive singularization plus the "_id" suffix.
func inferForeignKey(sourceTable string) string {
	return strings.TrimSuffix(sourceTable, "s") + "_id"
}
