// Package store provides rule sources: JSON files, SQLite, and an
// in-memory source for tests. Stores own caching, locking, and
// persistence; the engine only ever sees the collections they return.
package store

import (
	"context"

	"github.com/sievemoney/sieve/internal/engine"
	"github.com/sievemoney/sieve/internal/model"
)

// Store is a rule source that also supports rule management.
type Store interface {
	engine.RuleSource

	// AddRule persists a new rule. Fails with common.ErrDuplicateEntry
	// if the id is already taken.
	AddRule(ctx context.Context, rule model.Rule) error

	// RemoveRule deletes a rule by id. Fails with common.ErrNotFound.
	RemoveRule(ctx context.Context, id string) error

	// GetRule returns one rule by id, or common.ErrNotFound.
	GetRule(ctx context.Context, id string) (*model.Rule, error)

	// ListRules returns all rules, highest priority first.
	ListRules(ctx context.Context) ([]model.Rule, error)
}
