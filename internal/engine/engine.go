package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/schema"
)

// Classifier is the facade client code calls. It holds no state beyond
// its rule source: every Classify call fetches the current collection,
// normalizes it, and matches. Caching, locking, and file watching are
// the source's concern, which keeps the classifier safe for concurrent
// callers for free.
type Classifier struct {
	source RuleSource
}

// New creates a classifier over the given rule source.
func New(source RuleSource) *Classifier {
	return &Classifier{source: source}
}

// Classify resolves one transaction to a classification. The only
// error condition is the rule source failing to supply a collection;
// matching itself is total.
func (c *Classifier) Classify(ctx context.Context, description, categoryCode string) (model.Classification, error) {
	set, err := c.ruleSet(ctx)
	if err != nil {
		return model.Classification{}, err
	}

	return Match(description, categoryCode, set), nil
}

// RuleSet returns the normalized rule set the classifier currently
// matches against. The analyze and validate commands share it.
func (c *Classifier) RuleSet(ctx context.Context) (model.RuleSet, error) {
	return c.ruleSet(ctx)
}

func (c *Classifier) ruleSet(ctx context.Context) (model.RuleSet, error) {
	collection, err := c.source.LoadCollection(ctx)
	if err != nil {
		if errors.Is(err, common.ErrRuleSourceUnavailable) {
			return model.RuleSet{}, err
		}
		return model.RuleSet{}, fmt.Errorf("%w: %v", common.ErrRuleSourceUnavailable, err)
	}

	set, err := schema.Normalize(collection)
	if err != nil {
		return model.RuleSet{}, err
	}

	return set, nil
}
