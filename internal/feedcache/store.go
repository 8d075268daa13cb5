// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feedcache

import (
	"sync"

	"github.com/tomtom215/deckhand/internal/metrics"
	"github.com/tomtom215/deckhand/internal/models"
)

// Store is the feed cache contract. All state is partitioned by feed
// context; there is no cross-context leakage.
type Store interface {
	// Items returns the cached item list for a context.
	Items(feedContext string) ([]models.ContentItem, bool)

	// PutItems replaces the cached item list for a context.
	PutItems(feedContext string, items []models.ContentItem) error

	// Hero returns the cached hero selection for a context.
	Hero(feedContext string) (models.ContentItem, bool)

	// PutHero replaces the cached hero selection for a context.
	PutHero(feedContext string, hero models.ContentItem) error

	// ClearContext removes all cached state for one context.
	ClearContext(feedContext string) error

	// Clear removes all cached state for all contexts.
	Clear() error

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-memory Store. Contents do not survive restarts;
// intended for tests and cache-disabled deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]models.ContentItem
	heros map[string]models.ContentItem
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string][]models.ContentItem),
		heros: make(map[string]models.ContentItem),
	}
}

// Items returns the cached item list for a context.
func (s *MemoryStore) Items(feedContext string) ([]models.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.items[feedContext]
	if !ok {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()

	out := make([]models.ContentItem, len(items))
	copy(out, items)
	return out, true
}

// PutItems replaces the cached item list for a context.
func (s *MemoryStore) PutItems(feedContext string, items []models.ContentItem) error {
	stored := make([]models.ContentItem, len(items))
	copy(stored, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[feedContext] = stored
	return nil
}

// Hero returns the cached hero selection for a context.
func (s *MemoryStore) Hero(feedContext string) (models.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hero, ok := s.heros[feedContext]
	return hero, ok
}

// PutHero replaces the cached hero selection for a context.
func (s *MemoryStore) PutHero(feedContext string, hero models.ContentItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heros[feedContext] = hero
	return nil
}

// ClearContext removes all cached state for one context.
func (s *MemoryStore) ClearContext(feedContext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, feedContext)
	delete(s.heros, feedContext)
	return nil
}

// Clear removes all cached state for all contexts.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string][]models.ContentItem)
	s.heros = make(map[string]models.ContentItem)
	return nil
}

// Close releases store resources. No-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
