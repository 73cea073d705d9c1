// Package core provides the building blocks of the strata data-access layer.
// This file defines the error taxonomy. Executor errors are propagated
// verbatim; degenerate-but-valid inputs are not errors at all.
package core

import "fmt"

// ConfigurationError reports a malformed registration during the setup
// phase: a relation missing required columns for its variant, a duplicate
// (table, relation) key, or a mutation attempted after the catalog froze.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "strata: " + e.Msg }

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// MissingKeyError reports a Find-by-key request against a table with no
// declared primary key.
type MissingKeyError struct {
	Table string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("strata: table %q has no declared primary key", e.Table)
}
