// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/metrics"
	"github.com/tomtom215/deckhand/internal/models"
)

// seedSampleSize bounds the number of leading items hashed when deciding
// whether a refreshed hub changed. Reorders and watch-state flips inside
// the visible head are what matter to a lean-back UI; churn past the
// sample is picked up by the next page fetch anyway.
const seedSampleSize = 20

// Paginator grows one hub's item list on demand as focus approaches the
// loaded edge. It is safe for concurrent use; the onChange callback is
// always invoked with no paginator lock held.
type Paginator struct {
	mu sync.Mutex

	hubID    string
	pageKey  string
	items    []models.ContentItem
	seen     map[string]struct{}
	total    int
	fetching bool
	ended    bool

	// resetSeq invalidates in-flight fetches: a fetch started before a
	// reset must not splice stale items into the fresh list.
	resetSeq uint64
	seed     uint64

	source    Source
	pageSize  int
	lookahead int
	onChange  func(hubID string)
}

// NewPaginator seeds a paginator from a hub's first page. totalSize of 0
// means the server did not declare one; the end is then detected from
// empty or fully duplicate pages.
func NewPaginator(source Source, hub models.Hub, pageSize, lookahead int, onChange func(hubID string)) *Paginator {
	p := &Paginator{
		hubID:     hub.Identifier,
		pageKey:   hub.PageKey,
		source:    source,
		pageSize:  pageSize,
		lookahead: lookahead,
		onChange:  onChange,
	}
	p.replaceLocked(hub)
	return p
}

// OnProximity records that focus reached focusedIndex within the hub and
// starts a background page fetch when the remaining runway is at or below
// the lookahead. Calls while a fetch is in flight, after the end was
// reached, or for hubs without a page key are no-ops.
func (p *Paginator) OnProximity(ctx context.Context, focusedIndex int) {
	p.mu.Lock()

	if p.ended || p.fetching || p.pageKey == "" {
		p.mu.Unlock()
		return
	}
	if focusedIndex < len(p.items)-p.lookahead {
		p.mu.Unlock()
		return
	}
	if p.total > 0 && len(p.items) >= p.total {
		p.ended = true
		p.mu.Unlock()
		return
	}

	p.fetching = true
	pageKey := p.pageKey
	offset := len(p.items)
	seq := p.resetSeq
	p.mu.Unlock()

	// Page fetches outlive the triggering request. The page key is
	// captured under the lock: a reset may swap it mid-fetch.
	go p.fetchPage(context.WithoutCancel(ctx), pageKey, offset, seq)
}

func (p *Paginator) fetchPage(ctx context.Context, pageKey string, offset int, seq uint64) {
	page, total, err := p.source.FetchHubPage(ctx, pageKey, offset, p.pageSize)

	p.mu.Lock()

	if p.resetSeq != seq {
		// A reset landed while the fetch was in flight; the offsets no
		// longer line up with the current list.
		p.mu.Unlock()
		metrics.PaginationFetches.WithLabelValues("discarded").Inc()
		return
	}

	p.fetching = false

	if err != nil {
		// Retryable: the next proximity event tries again.
		p.mu.Unlock()
		metrics.PaginationFetches.WithLabelValues("error").Inc()
		logging.Error().Err(err).Str("hub", p.hubID).Int("offset", offset).Msg("hub page fetch failed")
		return
	}

	appended := 0
	for _, item := range page {
		if item.ID == "" {
			continue
		}
		if _, dup := p.seen[item.ID]; dup {
			continue
		}
		p.seen[item.ID] = struct{}{}
		p.items = append(p.items, item)
		appended++
	}

	if total > p.total {
		p.total = total
	}
	if p.total < len(p.items) {
		p.total = len(p.items)
	}

	// An empty page, a page of nothing but duplicates, or reaching the
	// declared total all terminate pagination for this hub.
	if len(page) == 0 || appended == 0 || (total > 0 && len(p.items) >= p.total) {
		p.ended = true
	}

	changed := appended > 0
	p.mu.Unlock()

	metrics.PaginationFetches.WithLabelValues("ok").Inc()

	if changed && p.onChange != nil {
		p.onChange(p.hubID)
	}
}

// ResetIfChanged compares a freshly fetched hub against the loaded head
// and, when the content differs, discards accumulated pages in favor of
// the fresh first page. It reports whether a reset happened.
func (p *Paginator) ResetIfChanged(hub models.Hub) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seedHash(hub.Items) == p.seed {
		// Same head; keep the accumulated pages but adopt a grown total.
		if hub.TotalSize > p.total {
			p.total = hub.TotalSize
		}
		return false
	}

	p.replaceLocked(hub)
	p.resetSeq++
	metrics.PaginationResets.Inc()
	return true
}

func (p *Paginator) replaceLocked(hub models.Hub) {
	p.pageKey = hub.PageKey
	p.items = make([]models.ContentItem, 0, len(hub.Items))
	p.seen = make(map[string]struct{}, len(hub.Items))
	for _, item := range hub.Items {
		if item.ID == "" {
			continue
		}
		if _, dup := p.seen[item.ID]; dup {
			continue
		}
		p.seen[item.ID] = struct{}{}
		p.items = append(p.items, item)
	}

	p.total = hub.TotalSize
	if p.total < len(p.items) {
		p.total = len(p.items)
	}
	p.ended = hub.PageKey == "" || (hub.TotalSize > 0 && len(p.items) >= hub.TotalSize)
	p.fetching = false
	p.seed = seedHash(hub.Items)
}

// Snapshot returns the hub as currently loaded. The item slice is a copy.
func (p *Paginator) Snapshot() models.Hub {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]models.ContentItem, len(p.items))
	copy(items, p.items)

	return models.Hub{
		Identifier: p.hubID,
		PageKey:    p.pageKey,
		TotalSize:  p.total,
		Items:      items,
	}
}

// HasReachedEnd reports whether pagination is exhausted for this hub.
func (p *Paginator) HasReachedEnd() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ended
}

// LoadedCount returns the number of items currently accumulated.
func (p *Paginator) LoadedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// seedHash fingerprints a hub's visible head: the ID and view count of up
// to seedSampleSize leading items.
func seedHash(items []models.ContentItem) uint64 {
	h := fnv.New64a()
	n := len(items)
	if n > seedSampleSize {
		n = seedSampleSize
	}
	for i := 0; i < n; i++ {
		h.Write([]byte(items[i].ID))
		h.Write([]byte{0})
		h.Write([]byte(strconv.Itoa(items[i].ViewCount)))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
