// Package sampler implements the referential-integrity-preserving sampling
// pipeline: per-table planning in dependency order, row export to
// artifacts, and the scheduling that runs independent subtrees in
// parallel.
package sampler

import (
	"github.com/dbsmedya/dbsample/internal/config"
)

// ResolvedModifier is the effective filter for one table after merging the
// `_default` entry with the table-specific one.
type ResolvedModifier struct {
	Conditions []string // ANDed in order, default conditions first
	Limit      int      // 0 means unlimited
}

// Unlimited reports whether the modifier carries no row limit.
func (m ResolvedModifier) Unlimited() bool {
	return m.Limit <= 0
}

// ResolveModifier merges the default and table-specific query modifiers.
// Conditions concatenate (defaults first); the limit is the table-specific
// one when set, otherwise the default, otherwise unlimited. A table can
// set limit to 0 explicitly to lift a default cap. Pure function of its
// inputs.
func ResolveModifier(table string, cfg *config.Config) ResolvedModifier {
	def := cfg.DefaultModifier()

	resolved := ResolvedModifier{
		Conditions: append([]string{}, def.Conditions...),
	}
	if def.Limit != nil {
		resolved.Limit = *def.Limit
	}

	if mod, ok := cfg.Modifier(table); ok {
		resolved.Conditions = append(resolved.Conditions, mod.Conditions...)
		if mod.Limit != nil {
			resolved.Limit = *mod.Limit
		}
	}

	return resolved
}
