package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/schema"
)

// FileStore loads a rule collection from a JSON file in either schema
// version and caches the decoded result until invalidated. Reads are
// lock-cheap; mutations rewrite the file and swap in a fresh cache
// entry. Loaded collections are immutable snapshots: callers holding
// one never see a concurrent CRUD write.
//
// Rule management is only supported for v4 files. Legacy collections
// are read-only; migrate them first.
type FileStore struct {
	cache *schema.Collection
	path  string
	mu    sync.RWMutex
}

// NewFileStore creates a file store for the given rules path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadCollection returns the cached collection, reading and decoding
// the file on first use or after Invalidate.
func (s *FileStore) LoadCollection(_ context.Context) (*schema.Collection, error) {
	s.mu.RLock()
	if s.cache != nil {
		defer s.mu.RUnlock()
		return s.cache, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have filled the cache while we waited.
	if s.cache != nil {
		return s.cache, nil
	}

	collection, err := s.read()
	if err != nil {
		return nil, err
	}

	s.cache = collection
	return collection, nil
}

// Invalidate drops the cache so the next load rereads the file.
func (s *FileStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// AddRule appends a rule to the v4 document under its category group
// and rewrites the file.
func (s *FileStore) AddRule(_ context.Context, rule model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.structuredDoc()
	if err != nil {
		return err
	}

	if _, _, found := findRule(doc, rule.ID); found {
		return fmt.Errorf("%w: rule %q", common.ErrDuplicateEntry, rule.ID)
	}

	group := rule.Category
	if group == "" {
		group = "Uncategorized"
	}
	if doc.Categories == nil {
		doc.Categories = make(map[string][]schema.StructuredRule)
	}
	doc.Categories[group] = append(doc.Categories[group], toStructured(rule))

	return s.write(doc)
}

// RemoveRule deletes a rule by id and rewrites the file.
func (s *FileStore) RemoveRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.structuredDoc()
	if err != nil {
		return err
	}

	group, idx, found := findRule(doc, id)
	if !found {
		return fmt.Errorf("%w: rule %q", common.ErrNotFound, id)
	}

	rules := doc.Categories[group]
	doc.Categories[group] = append(rules[:idx], rules[idx+1:]...)
	if len(doc.Categories[group]) == 0 {
		delete(doc.Categories, group)
	}

	return s.write(doc)
}

// GetRule returns one rule by id.
func (s *FileStore) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	rules, err := s.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID == id {
			return &rules[i], nil
		}
	}
	return nil, fmt.Errorf("%w: rule %q", common.ErrNotFound, id)
}

// ListRules returns the normalized rules, highest priority first.
func (s *FileStore) ListRules(ctx context.Context) ([]model.Rule, error) {
	collection, err := s.LoadCollection(ctx)
	if err != nil {
		return nil, err
	}
	set, err := schema.Normalize(collection)
	if err != nil {
		return nil, err
	}
	sortRulesByPriority(set.Rules)
	return set.Rules, nil
}

func (s *FileStore) read() (*schema.Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrRuleSourceUnavailable, s.path, err)
	}

	collection, err := schema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}

	return collection, nil
}

// structuredDoc returns a copy of the v4 document for mutation, loading
// the file if needed. Caller must hold the write lock. The cached
// collection itself is never mutated: concurrent readers may still be
// normalizing it.
func (s *FileStore) structuredDoc() (*schema.StructuredDocument, error) {
	if s.cache == nil {
		collection, err := s.read()
		if err != nil {
			return nil, err
		}
		s.cache = collection
	}

	if s.cache.Structured == nil {
		return nil, fmt.Errorf("%w: legacy rule files are read-only, migrate to v4 first", common.ErrUnsupportedSchemaVersion)
	}

	return cloneStructured(s.cache.Structured), nil
}

func (s *FileStore) write(doc *schema.StructuredDocument) error {
	payload := struct {
		Version string `json:"version"`
		*schema.StructuredDocument
	}{
		Version:            schema.VersionStructured,
		StructuredDocument: doc,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding rules: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}

	s.cache = &schema.Collection{Version: schema.VersionStructured, Structured: doc}
	return nil
}

// cloneStructured copies the document's maps and rule slices. Rule
// entries themselves are never mutated in place, so sharing their
// keyword slices with the source is safe.
func cloneStructured(doc *schema.StructuredDocument) *schema.StructuredDocument {
	clone := &schema.StructuredDocument{
		Categories: make(map[string][]schema.StructuredRule, len(doc.Categories)),
	}
	for name, rules := range doc.Categories {
		clone.Categories[name] = append([]schema.StructuredRule(nil), rules...)
	}
	if doc.Fallbacks != nil {
		clone.Fallbacks = make(map[string]schema.FallbackEntry, len(doc.Fallbacks))
		for code, entry := range doc.Fallbacks {
			clone.Fallbacks[code] = entry
		}
	}
	return clone
}

func findRule(doc *schema.StructuredDocument, id string) (group string, idx int, found bool) {
	if id == "" {
		return "", 0, false
	}
	for name, rules := range doc.Categories {
		for i, rule := range rules {
			if rule.ID == id {
				return name, i, true
			}
		}
	}
	return "", 0, false
}

func toStructured(rule model.Rule) schema.StructuredRule {
	return schema.StructuredRule{
		ID:            rule.ID,
		Patterns:      rule.Keywords,
		Type:          string(rule.PurchaseType),
		Subcategory:   rule.Subcategory,
		Online:        rule.Online,
		Priority:      rule.Priority,
		CategoryCodes: rule.CategoryCodes,
		Notes:         rule.Notes,
	}
}

func sortRulesByPriority(rules []model.Rule) {
	// Stable so equal priorities keep their tie-break order.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}
