// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/deckhand/internal/feedcache"
	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/metrics"
	"github.com/tomtom215/deckhand/internal/models"
)

// Options tunes loader and paginator behavior. Zero values are replaced
// with the defaults below.
type Options struct {
	PageSize  int
	Lookahead int
	Merge     MergeOptions
}

const (
	defaultPageSize  = 24
	defaultLookahead = 5
)

// Loader orchestrates cache-first feed assembly per context: serve the
// last-known items immediately, refresh in the background, and discard
// any fetch superseded by a newer activation of the same context.
//
// All mutation of one context's state happens under that context's
// mutex; the generation counter makes late results from older cycles
// inert regardless of transport-level cancellation.
type Loader struct {
	source Source
	store  feedcache.Store
	hero   *HeroSelector
	pub    message.Publisher
	opts   Options

	mu       sync.Mutex
	contexts map[string]*contextState
}

type contextState struct {
	mu sync.Mutex

	generation uint64
	pending    int
	settled    chan struct{}

	items      []models.ContentItem
	hubs       []models.Hub // merged display metadata; live items sit in paginators
	paginators map[string]*Paginator
	hero       *models.ContentItem

	// fetchErrs tracks the last failure per fetch kind ("items", "hubs").
	// A successful items fetch must not clear a hubs failure: the home
	// context's items fetch succeeds trivially empty, and wiping the hubs
	// error there would present a broken upstream as a clean empty feed.
	fetchErrs map[string]string
}

// NewLoader wires a loader to its transport, cache, hero selector and
// state publisher. pub may be nil when no push channel is attached.
func NewLoader(source Source, store feedcache.Store, hero *HeroSelector, pub message.Publisher, opts Options) *Loader {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = defaultLookahead
	}
	return &Loader{
		source:   source,
		store:    store,
		hero:     hero,
		pub:      pub,
		opts:     opts,
		contexts: make(map[string]*contextState),
	}
}

func (l *Loader) contextState(feedContext string) *contextState {
	l.mu.Lock()
	defer l.mu.Unlock()

	cs, ok := l.contexts[feedContext]
	if !ok {
		cs = &contextState{
			paginators: make(map[string]*Paginator),
			fetchErrs:  make(map[string]string),
		}
		l.contexts[feedContext] = cs
	}
	return cs
}

// Activate enters a feed context: read the cache, publish what it holds,
// and start a background refresh. The returned snapshot is the cache-hit
// state when the cache had data, otherwise a loading state.
func (l *Loader) Activate(ctx context.Context, feedContext string) State {
	cs := l.contextState(feedContext)

	cs.mu.Lock()
	if len(cs.items) == 0 && len(cs.hubs) == 0 {
		if cached, ok := l.store.Items(feedContext); ok {
			cs.items = cached
		}
		if hero, ok := l.store.Hero(feedContext); ok {
			cs.hero = &hero
		}
	}
	gen := l.beginCycleLocked(cs)
	snap := l.snapshotLocked(feedContext, cs)
	cs.mu.Unlock()

	publishState(l.pub, snap)
	l.startFetches(ctx, feedContext, cs, gen)
	return snap
}

// Load activates a context and, when there is nothing to show yet,
// blocks until the refresh cycle settles or ctx is done. Callers with a
// push channel should prefer Activate.
func (l *Loader) Load(ctx context.Context, feedContext string) (State, error) {
	snap := l.Activate(ctx, feedContext)
	if snap.HasData() {
		return snap, nil
	}

	cs := l.contextState(feedContext)
	cs.mu.Lock()
	settled := cs.settled
	cs.mu.Unlock()

	select {
	case <-ctx.Done():
		return snap, ctx.Err()
	case <-settled:
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	final := l.snapshotLocked(feedContext, cs)
	if !final.HasData() && final.Error != "" {
		return final, ErrNoData
	}
	return final, nil
}

// Refresh forces a live fetch for a context regardless of cache state.
// trigger labels the refresh origin for metrics ("manual", "scheduled").
func (l *Loader) Refresh(ctx context.Context, feedContext, trigger string) State {
	metrics.FeedRefreshes.WithLabelValues(trigger).Inc()

	cs := l.contextState(feedContext)

	cs.mu.Lock()
	gen := l.beginCycleLocked(cs)
	snap := l.snapshotLocked(feedContext, cs)
	cs.mu.Unlock()

	l.startFetches(ctx, feedContext, cs, gen)
	return snap
}

// beginCycleLocked supersedes any in-flight cycle and opens a new one.
// Waiters on the superseded cycle are released; its late results will
// fail the generation check.
func (l *Loader) beginCycleLocked(cs *contextState) uint64 {
	if cs.settled != nil && cs.pending > 0 {
		close(cs.settled)
	}
	cs.generation++
	cs.pending = 2
	cs.settled = make(chan struct{})
	return cs.generation
}

func (l *Loader) startFetches(ctx context.Context, feedContext string, cs *contextState, gen uint64) {
	// Detach from the caller's deadline: an HTTP handler returning must
	// not cancel the refresh it started. Supersession is handled by the
	// generation check, not by context cancellation.
	ctx = context.WithoutCancel(ctx)
	go l.fetchItems(ctx, feedContext, cs, gen)
	go l.fetchHubs(ctx, feedContext, cs, gen)
}

// settleLocked marks one of the cycle's two fetches complete.
func (l *Loader) settleLocked(cs *contextState) {
	cs.pending--
	if cs.pending == 0 {
		close(cs.settled)
	}
}

func (l *Loader) fetchItems(ctx context.Context, feedContext string, cs *contextState, gen uint64) {
	start := time.Now()
	items, _, err := l.source.FetchItems(ctx, feedContext, 0, 0)

	cs.mu.Lock()
	if gen != cs.generation {
		cs.mu.Unlock()
		metrics.FeedGenerationDiscards.Inc()
		logging.Debug().Str("context", feedContext).Uint64("generation", gen).Msg("items fetch superseded")
		return
	}

	if err != nil {
		l.recordFailureLocked(cs, feedContext, "items", err)
		l.settleLocked(cs)
		snap := l.snapshotLocked(feedContext, cs)
		cs.mu.Unlock()
		publishState(l.pub, snap)
		return
	}

	metrics.FeedLoadDuration.WithLabelValues(feedContext, "items").Observe(time.Since(start).Seconds())

	delete(cs.fetchErrs, "items")
	changed := !models.SameItemOrder(cs.items, items)
	if changed {
		cs.items = items
		if l.hero != nil && cs.hero == nil {
			cs.hero = l.hero.Select(feedContext, cs.hubs, cs.items)
		}
	}
	l.settleLocked(cs)
	snap := l.snapshotLocked(feedContext, cs)
	cs.mu.Unlock()

	if changed {
		if err := l.store.PutItems(feedContext, items); err != nil {
			logging.Error().Err(err).Str("context", feedContext).Msg("cache items write-through")
		}
		publishState(l.pub, snap)
	}
}

func (l *Loader) fetchHubs(ctx context.Context, feedContext string, cs *contextState, gen uint64) {
	start := time.Now()
	raw, err := l.source.FetchHubs(ctx, feedContext)

	cs.mu.Lock()
	if gen != cs.generation {
		cs.mu.Unlock()
		metrics.FeedGenerationDiscards.Inc()
		logging.Debug().Str("context", feedContext).Uint64("generation", gen).Msg("hubs fetch superseded")
		return
	}

	if err != nil {
		l.recordFailureLocked(cs, feedContext, "hubs", err)
		l.settleLocked(cs)
		snap := l.snapshotLocked(feedContext, cs)
		cs.mu.Unlock()
		publishState(l.pub, snap)
		return
	}

	metrics.FeedLoadDuration.WithLabelValues(feedContext, "hubs").Observe(time.Since(start).Seconds())

	merged := Merge(raw, l.opts.Merge)
	l.reconcilePaginatorsLocked(feedContext, cs, merged)
	cs.hubs = merged
	delete(cs.fetchErrs, "hubs")
	if l.hero != nil {
		cs.hero = l.hero.Select(feedContext, merged, cs.items)
	}
	l.settleLocked(cs)
	snap := l.snapshotLocked(feedContext, cs)
	cs.mu.Unlock()

	publishState(l.pub, snap)
}

// reconcilePaginatorsLocked carries paginators across a hub refresh:
// hubs whose visible head is unchanged keep their accumulated pages,
// changed or new hubs start fresh, vanished hubs are dropped.
func (l *Loader) reconcilePaginatorsLocked(feedContext string, cs *contextState, merged []models.Hub) {
	next := make(map[string]*Paginator, len(merged))
	for _, hub := range merged {
		if p, ok := cs.paginators[hub.Identifier]; ok {
			p.ResetIfChanged(hub)
			next[hub.Identifier] = p
			continue
		}
		next[hub.Identifier] = NewPaginator(l.source, hub, l.opts.PageSize, l.opts.Lookahead, func(string) {
			l.publishContext(feedContext)
		})
	}
	cs.paginators = next
}

// publishContext re-snapshots a context and pushes the result. Invoked
// by paginators after a page lands.
func (l *Loader) publishContext(feedContext string) {
	cs := l.contextState(feedContext)
	cs.mu.Lock()
	snap := l.snapshotLocked(feedContext, cs)
	cs.mu.Unlock()
	publishState(l.pub, snap)
}

// recordFailureLocked applies the stale-while-revalidate error rule:
// failures are invisible while any data is on screen, surfaced only
// when the context has nothing to show.
func (l *Loader) recordFailureLocked(cs *contextState, feedContext, kind string, err error) {
	metrics.FeedLoadErrors.WithLabelValues(feedContext, kind).Inc()
	if len(cs.items) > 0 || len(cs.hubs) > 0 {
		logging.Debug().Err(err).Str("context", feedContext).Str("kind", kind).Msg("refresh failed, keeping stale data")
		return
	}
	cs.fetchErrs[kind] = err.Error()
	logging.Error().Err(err).Str("context", feedContext).Str("kind", kind).Msg("feed load failed")
}

// OnProximity forwards a focus-proximity event to one hub's paginator.
func (l *Loader) OnProximity(ctx context.Context, feedContext, hubID string, visibleIndex int) error {
	l.mu.Lock()
	cs, ok := l.contexts[feedContext]
	l.mu.Unlock()
	if !ok {
		return ErrUnknownContext
	}

	cs.mu.Lock()
	p, ok := cs.paginators[hubID]
	cs.mu.Unlock()
	if !ok {
		return ErrUnknownHub
	}

	p.OnProximity(ctx, visibleIndex)
	return nil
}

// Snapshot returns the current state of an already-activated context.
func (l *Loader) Snapshot(feedContext string) (State, error) {
	l.mu.Lock()
	cs, ok := l.contexts[feedContext]
	l.mu.Unlock()
	if !ok {
		return State{}, ErrUnknownContext
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	return l.snapshotLocked(feedContext, cs), nil
}

// ActiveContexts lists every context activated this session, for the
// refresh scheduler.
func (l *Loader) ActiveContexts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.contexts))
	for feedContext := range l.contexts {
		out = append(out, feedContext)
	}
	return out
}

func (l *Loader) snapshotLocked(feedContext string, cs *contextState) State {
	errMsg := cs.fetchErrs["items"]
	if errMsg == "" {
		errMsg = cs.fetchErrs["hubs"]
	}

	st := State{
		Context:   feedContext,
		Items:     cs.items,
		IsLoading: cs.pending > 0 && len(cs.items) == 0 && len(cs.hubs) == 0,
		Error:     errMsg,
		Hero:      cs.hero,
	}

	st.Hubs = make([]models.Hub, 0, len(cs.hubs))
	for _, meta := range cs.hubs {
		hub := meta
		if p, ok := cs.paginators[meta.Identifier]; ok {
			live := p.Snapshot()
			hub.Items = live.Items
			hub.TotalSize = live.TotalSize
			hub.PageKey = live.PageKey
		}
		st.Hubs = append(st.Hubs, hub)
	}

	return st.clone()
}
