// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/deckhand/internal/feedcache"
	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/models"
)

// heroFallbackPool is how many of the most recently added flat items are
// eligible when no recently-added hub exists.
const heroFallbackPool = 10

// HeroSelector picks one highlight item per feed context and keeps the
// pick stable for the session. Selection is write-once per context: once
// a hero is cached, re-evaluation returns it unchanged until the cache is
// cleared.
type HeroSelector struct {
	mu    sync.Mutex
	store feedcache.Store
	rng   *rand.Rand
}

// NewHeroSelector creates a selector backed by the given cache store.
func NewHeroSelector(store feedcache.Store) *HeroSelector {
	return NewHeroSelectorWithRand(store, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewHeroSelectorWithRand creates a selector with a caller-supplied
// random source, for deterministic tests.
func NewHeroSelectorWithRand(store feedcache.Store, rng *rand.Rand) *HeroSelector {
	return &HeroSelector{store: store, rng: rng}
}

// Select returns the hero for a context, choosing and persisting one if
// none is cached yet. Preference order: a pick from a recently-added hub,
// then one of the most recently added flat items. Returns nil when the
// context has nothing to pick from.
func (h *HeroSelector) Select(feedContext string, hubs []models.Hub, items []models.ContentItem) *models.ContentItem {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cached, ok := h.store.Hero(feedContext); ok {
		return &cached
	}

	pick, ok := h.pick(hubs, items)
	if !ok {
		return nil
	}

	if err := h.store.PutHero(feedContext, pick); err != nil {
		logging.Error().Err(err).Str("context", feedContext).Msg("persist hero")
	}
	return &pick
}

func (h *HeroSelector) pick(hubs []models.Hub, items []models.ContentItem) (models.ContentItem, bool) {
	for _, hub := range hubs {
		if Categorize(hub) != CategoryRecentlyAdded || len(hub.Items) == 0 {
			continue
		}
		return hub.Items[h.rng.Intn(len(hub.Items))], true
	}

	if len(items) == 0 {
		return models.ContentItem{}, false
	}

	pool := make([]models.ContentItem, len(items))
	copy(pool, items)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].AddedAt > pool[j].AddedAt
	})
	if len(pool) > heroFallbackPool {
		pool = pool[:heroFallbackPool]
	}
	return pool[h.rng.Intn(len(pool))], true
}
