// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feedcache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/deckhand/internal/metrics"
	"github.com/tomtom215/deckhand/internal/models"
)

// Key prefixes for BadgerDB storage. The context key is embedded after the
// prefix, so ClearContext can address both entries directly.
const (
	itemsKeyPrefix = "items:"
	heroKeyPrefix  = "hero:"
)

// BadgerStore implements Store using BadgerDB for durable storage.
// Cached feeds and hero selections survive application restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a BadgerDB-backed store at dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open feed cache at %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreWithDB wraps an existing BadgerDB handle. Close will close
// the handle, so share deliberately.
func NewBadgerStoreWithDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Items returns the cached item list for a context.
func (s *BadgerStore) Items(feedContext string) ([]models.ContentItem, bool) {
	var items []models.ContentItem
	err := s.get(itemsKeyPrefix+feedContext, &items)
	if err != nil {
		metrics.CacheMisses.Inc()
		return nil, false
	}
	metrics.CacheHits.Inc()
	return items, true
}

// PutItems replaces the cached item list for a context.
func (s *BadgerStore) PutItems(feedContext string, items []models.ContentItem) error {
	return s.put(itemsKeyPrefix+feedContext, items)
}

// Hero returns the cached hero selection for a context.
func (s *BadgerStore) Hero(feedContext string) (models.ContentItem, bool) {
	var hero models.ContentItem
	if err := s.get(heroKeyPrefix+feedContext, &hero); err != nil {
		return models.ContentItem{}, false
	}
	return hero, true
}

// PutHero replaces the cached hero selection for a context.
func (s *BadgerStore) PutHero(feedContext string, hero models.ContentItem) error {
	return s.put(heroKeyPrefix+feedContext, hero)
}

// ClearContext removes all cached state for one context.
func (s *BadgerStore) ClearContext(feedContext string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{itemsKeyPrefix + feedContext, heroKeyPrefix + feedContext} {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// Clear removes all cached state for all contexts.
func (s *BadgerStore) Clear() error {
	return s.db.DropAll()
}

// Close closes the underlying BadgerDB handle.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// get reads and unmarshals one key. Returns badger.ErrKeyNotFound wrapped
// when the key is absent.
func (s *BadgerStore) get(key string, out interface{}) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// put marshals and writes one key.
func (s *BadgerStore) put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}
