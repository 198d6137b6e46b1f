package store

import (
	"context"
	"sync"

	"github.com/sievemoney/sieve/internal/schema"
)

// MemoryStore serves a fixed collection from memory. Used in tests and
// dry runs.
type MemoryStore struct {
	collection *schema.Collection
	mu         sync.RWMutex
}

// NewMemoryStore creates a memory store around a decoded collection.
func NewMemoryStore(collection *schema.Collection) *MemoryStore {
	return &MemoryStore{collection: collection}
}

// LoadCollection returns the held collection.
func (s *MemoryStore) LoadCollection(_ context.Context) (*schema.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection, nil
}

// Replace swaps in a new collection snapshot.
func (s *MemoryStore) Replace(collection *schema.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection = collection
}
