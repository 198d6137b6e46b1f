// Package engine implements the classification engine: the keyword
// matching algorithm with its three-level fallback chain, and the
// facade that ties a rule source to it.
package engine

import (
	"context"

	"github.com/sievemoney/sieve/internal/schema"
)

// RuleSource supplies the current raw rule collection. Implementations
// may cache and must be safe for concurrent reads; the engine never
// mutates what it receives.
type RuleSource interface {
	// LoadCollection returns a complete, internally consistent rule
	// collection, or an error wrapping common.ErrRuleSourceUnavailable.
	LoadCollection(ctx context.Context) (*schema.Collection, error)
}
