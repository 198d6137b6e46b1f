package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/schema"
)

const v4Fixture = `{
  "version": "4.0",
  "categories": {
    "General Merchandise": [
      {
        "id": "amazon",
        "patterns": ["AMAZON.COM*"],
        "type": "Business",
        "subcategory": "Online Purchases",
        "online": true,
        "priority": 998
      }
    ],
    "Groceries": [
      {
        "id": "shoprite",
        "patterns": ["SHOPRITE"],
        "type": "Personal",
        "priority": 500
      }
    ]
  },
  "fallback_categories": {
    "GROCERY": "Groceries"
  }
}
`

const v3Fixture = `{
  "version": "3.0",
  "business_keywords": ["FEDEX"],
  "transaction_rules": {
    "groceries": ["Groceries", "Supermarket", ["SHOPRITE"]]
  },
  "fallback_categories": {
    "GROCERY": "Groceries"
  }
}
`

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileStore_LoadCollection(t *testing.T) {
	s := NewFileStore(writeRulesFile(t, v4Fixture))

	collection, err := s.LoadCollection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schema.VersionStructured, collection.Version)
	require.NotNil(t, collection.Structured)
	assert.Len(t, collection.Structured.Categories, 2)
}

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))

	_, err := s.LoadCollection(context.Background())
	assert.ErrorIs(t, err, common.ErrRuleSourceUnavailable)
}

func TestFileStore_CacheAndInvalidate(t *testing.T) {
	path := writeRulesFile(t, v4Fixture)
	s := NewFileStore(path)
	ctx := context.Background()

	first, err := s.LoadCollection(ctx)
	require.NoError(t, err)

	// Rewrite the file behind the cache: stale load expected.
	require.NoError(t, os.WriteFile(path, []byte(v3Fixture), 0o600))

	cached, err := s.LoadCollection(ctx)
	require.NoError(t, err)
	assert.Same(t, first, cached)

	s.Invalidate()

	fresh, err := s.LoadCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.VersionLegacy, fresh.Version)
}

func TestFileStore_AddRule(t *testing.T) {
	path := writeRulesFile(t, v4Fixture)
	s := NewFileStore(path)
	ctx := context.Background()

	rule := model.Rule{
		ID:           "coffee",
		Keywords:     []string{"STARBUCKS"},
		PurchaseType: model.PurchasePersonal,
		Category:     "Dining",
		Subcategory:  "Coffee",
		Priority:     400,
	}
	require.NoError(t, s.AddRule(ctx, rule))

	// Duplicate id is rejected.
	assert.ErrorIs(t, s.AddRule(ctx, rule), common.ErrDuplicateEntry)

	// The write survives a fresh store reading the same file.
	fresh := NewFileStore(path)
	got, err := fresh.GetRule(ctx, "coffee")
	require.NoError(t, err)
	assert.Equal(t, "Dining", got.Category)
	assert.Equal(t, []string{"STARBUCKS"}, got.Keywords)
}

func TestFileStore_MutationsLeaveSnapshotsIntact(t *testing.T) {
	path := writeRulesFile(t, v4Fixture)
	s := NewFileStore(path)
	ctx := context.Background()

	before, err := s.LoadCollection(ctx)
	require.NoError(t, err)
	require.Len(t, before.Structured.Categories["Groceries"], 1)

	require.NoError(t, s.AddRule(ctx, model.Rule{
		ID:           "kroger",
		Keywords:     []string{"KROGER"},
		PurchaseType: model.PurchasePersonal,
		Category:     "Groceries",
		Priority:     450,
	}))

	// The snapshot handed out before the write is untouched; only a
	// fresh load sees the new rule.
	assert.Len(t, before.Structured.Categories["Groceries"], 1)

	after, err := s.LoadCollection(ctx)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Len(t, after.Structured.Categories["Groceries"], 2)
}

func TestFileStore_ConcurrentReadsAndWrites(t *testing.T) {
	path := writeRulesFile(t, v4Fixture)
	s := NewFileStore(path)
	ctx := context.Background()

	collection, err := s.LoadCollection(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, normErr := schema.Normalize(collection)
			assert.NoError(t, normErr)
		}
	}()

	for i := 0; i < 10; i++ {
		rule := model.Rule{
			ID:           fmt.Sprintf("merchant-%d", i),
			Keywords:     []string{fmt.Sprintf("MERCHANT %d", i)},
			PurchaseType: model.PurchasePersonal,
			Category:     "Groceries",
			Priority:     100 + i,
		}
		require.NoError(t, s.AddRule(ctx, rule))
	}
	<-done

	rules, err := s.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 12)
}

func TestFileStore_RemoveRule(t *testing.T) {
	path := writeRulesFile(t, v4Fixture)
	s := NewFileStore(path)
	ctx := context.Background()

	require.NoError(t, s.RemoveRule(ctx, "shoprite"))
	assert.ErrorIs(t, s.RemoveRule(ctx, "shoprite"), common.ErrNotFound)

	_, err := s.GetRule(ctx, "shoprite")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFileStore_ListRules(t *testing.T) {
	s := NewFileStore(writeRulesFile(t, v4Fixture))

	rules, err := s.ListRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)

	// Highest priority first.
	assert.Equal(t, "amazon", rules[0].ID)
	assert.Equal(t, "shoprite", rules[1].ID)
}

func TestFileStore_LegacyIsReadOnly(t *testing.T) {
	s := NewFileStore(writeRulesFile(t, v3Fixture))
	ctx := context.Background()

	// Reads work.
	rules, err := s.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	// Mutations are refused.
	err = s.AddRule(ctx, model.Rule{ID: "x", Keywords: []string{"X"}, PurchaseType: model.PurchasePersonal, Category: "X"})
	assert.ErrorIs(t, err, common.ErrUnsupportedSchemaVersion)

	err = s.RemoveRule(ctx, "v3-groceries")
	assert.ErrorIs(t, err, common.ErrUnsupportedSchemaVersion)
}
