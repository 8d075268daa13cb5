// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/deckhand/internal/feedcache"
	"github.com/tomtom215/deckhand/internal/models"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

// scriptSource scripts item and hub fetches by call number (1-based).
type scriptSource struct {
	mu        sync.Mutex
	itemCalls int
	hubCalls  int
	items     func(call int, feedContext string) ([]models.ContentItem, int, error)
	hubs      func(call int, feedContext string) ([]models.Hub, error)
	page      func(pageKey string, offset, limit int) ([]models.ContentItem, int, error)
}

func (s *scriptSource) FetchItems(_ context.Context, feedContext string, _, _ int) ([]models.ContentItem, int, error) {
	s.mu.Lock()
	s.itemCalls++
	call := s.itemCalls
	s.mu.Unlock()
	if s.items == nil {
		return nil, 0, nil
	}
	return s.items(call, feedContext)
}

func (s *scriptSource) FetchHubs(_ context.Context, feedContext string) ([]models.Hub, error) {
	s.mu.Lock()
	s.hubCalls++
	call := s.hubCalls
	s.mu.Unlock()
	if s.hubs == nil {
		return nil, nil
	}
	return s.hubs(call, feedContext)
}

func (s *scriptSource) FetchHubPage(_ context.Context, pageKey string, offset, limit int) ([]models.ContentItem, int, error) {
	if s.page == nil {
		return nil, 0, nil
	}
	return s.page(pageKey, offset, limit)
}

// countingStore counts item write-throughs.
type countingStore struct {
	*feedcache.MemoryStore
	itemPuts atomic.Int64
}

func (s *countingStore) PutItems(feedContext string, items []models.ContentItem) error {
	s.itemPuts.Add(1)
	return s.MemoryStore.PutItems(feedContext, items)
}

func newTestLoader(src Source, store feedcache.Store) *Loader {
	hero := NewHeroSelectorWithRand(store, testRand())
	return NewLoader(src, store, hero, nil, Options{Merge: MergeOptions{ShowRecommendations: true}})
}

func itemIDsOf(st State) []string {
	return models.ItemIDs(st.Items)
}

func sameIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLoaderCacheFirstThenBackgroundRefresh(t *testing.T) {
	store := feedcache.NewMemoryStore()
	if err := store.PutItems("library:42", []models.ContentItem{{ID: "x"}, {ID: "y"}}); err != nil {
		t.Fatal(err)
	}

	release := make(chan struct{})
	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			<-release
			return []models.ContentItem{{ID: "y"}, {ID: "x"}, {ID: "z"}}, 3, nil
		},
	}
	l := newTestLoader(src, store)

	snap := l.Activate(context.Background(), "library:42")
	if !sameIDs(itemIDsOf(snap), "x", "y") {
		t.Fatalf("activation snapshot = %v, want cached [x y]", itemIDsOf(snap))
	}
	if snap.IsLoading {
		t.Error("cache hit must not show a loading state")
	}

	close(release)
	waitFor(t, func() bool {
		st, err := l.Snapshot("library:42")
		return err == nil && sameIDs(itemIDsOf(st), "y", "x", "z")
	})

	cached, ok := store.Items("library:42")
	if !ok || !sameIDs(models.ItemIDs(cached), "y", "x", "z") {
		t.Errorf("cache not written through: %v", models.ItemIDs(cached))
	}
}

func TestLoaderGenerationDiscard(t *testing.T) {
	store := feedcache.NewMemoryStore()
	if err := store.PutItems("library:42", []models.ContentItem{{ID: "x"}, {ID: "y"}}); err != nil {
		t.Fatal(err)
	}

	stale := make(chan struct{})
	src := &scriptSource{
		items: func(call int, _ string) ([]models.ContentItem, int, error) {
			if call == 1 {
				<-stale
				return []models.ContentItem{{ID: "y"}, {ID: "x"}}, 2, nil
			}
			return []models.ContentItem{{ID: "y"}, {ID: "x"}, {ID: "z"}}, 3, nil
		},
	}
	l := newTestLoader(src, store)

	l.Activate(context.Background(), "library:42")
	l.Refresh(context.Background(), "library:42", "manual")

	waitFor(t, func() bool {
		st, err := l.Snapshot("library:42")
		return err == nil && sameIDs(itemIDsOf(st), "y", "x", "z")
	})

	// The superseded fetch resolves late; its result must be inert.
	close(stale)
	time.Sleep(20 * time.Millisecond)

	st, err := l.Snapshot("library:42")
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(itemIDsOf(st), "y", "x", "z") {
		t.Errorf("stale generation applied: %v", itemIDsOf(st))
	}
}

func TestLoaderStaleWhileRevalidate(t *testing.T) {
	store := feedcache.NewMemoryStore()
	if err := store.PutItems("home", []models.ContentItem{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatal(err)
	}

	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			return nil, 0, errors.New("server unreachable")
		},
		hubs: func(int, string) ([]models.Hub, error) {
			return nil, errors.New("server unreachable")
		},
	}
	l := newTestLoader(src, store)

	if _, err := l.Load(context.Background(), "home"); err != nil {
		t.Fatalf("Load with cached data returned error: %v", err)
	}

	st, err := l.Snapshot("home")
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(itemIDsOf(st), "a", "b") {
		t.Errorf("refresh failure disturbed items: %v", itemIDsOf(st))
	}
	if st.Error != "" {
		t.Errorf("refresh failure surfaced with data on screen: %q", st.Error)
	}
}

func TestLoaderErrorSurfacedWithoutData(t *testing.T) {
	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			return nil, 0, errors.New("server unreachable")
		},
		hubs: func(int, string) ([]models.Hub, error) {
			return nil, errors.New("server unreachable")
		},
	}
	l := newTestLoader(src, feedcache.NewMemoryStore())

	st, err := l.Load(context.Background(), "home")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Load error = %v, want ErrNoData", err)
	}
	if st.Error == "" {
		t.Error("empty-context failure must surface an error")
	}
	if st.HasData() {
		t.Errorf("state has data: %+v", st)
	}
}

func TestLoaderEmptyItemsSuccessKeepsHubError(t *testing.T) {
	// The home context's flat listing resolves trivially empty. If the
	// hubs fetch fails first and that empty success lands second, the
	// hub failure must still be surfaced.
	release := make(chan struct{})
	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			<-release
			return nil, 0, nil
		},
		hubs: func(int, string) ([]models.Hub, error) {
			return nil, errors.New("hubs unreachable")
		},
	}
	l := newTestLoader(src, feedcache.NewMemoryStore())

	l.Activate(context.Background(), "home")

	// Hub failure recorded while the items fetch is still held open.
	waitFor(t, func() bool {
		st, err := l.Snapshot("home")
		return err == nil && st.Error != ""
	})

	close(release)
	waitFor(t, func() bool {
		st, err := l.Snapshot("home")
		return err == nil && !st.IsLoading
	})

	st, err := l.Snapshot("home")
	if err != nil {
		t.Fatal(err)
	}
	if st.Error == "" {
		t.Error("empty items success wiped the hubs failure")
	}
	if st.HasData() {
		t.Errorf("state has data: %+v", st)
	}
}

func TestLoaderLoadBlocksUntilSettled(t *testing.T) {
	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			time.Sleep(10 * time.Millisecond)
			return []models.ContentItem{{ID: "a"}}, 1, nil
		},
	}
	l := newTestLoader(src, feedcache.NewMemoryStore())

	st, err := l.Load(context.Background(), "home")
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(itemIDsOf(st), "a") {
		t.Errorf("Load returned before settle: %v", itemIDsOf(st))
	}
	if st.IsLoading {
		t.Error("settled state still loading")
	}
}

func TestLoaderSkipsWriteWhenItemsUnchanged(t *testing.T) {
	store := &countingStore{MemoryStore: feedcache.NewMemoryStore()}
	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			return []models.ContentItem{{ID: "a"}, {ID: "b"}}, 2, nil
		},
	}
	l := newTestLoader(src, store)

	if _, err := l.Load(context.Background(), "home"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return store.itemPuts.Load() == 1 })

	if _, err := l.Load(context.Background(), "home"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := store.itemPuts.Load(); got != 1 {
		t.Errorf("unchanged item list rewritten: %d puts", got)
	}
}

func TestLoaderMergesHubsAndWiresPaginators(t *testing.T) {
	a := models.ContentItem{ID: "a", LastViewedAt: 100}
	b := models.ContentItem{ID: "b", LastViewedAt: 200}
	src := &scriptSource{
		hubs: func(int, string) ([]models.Hub, error) {
			return []models.Hub{
				{Identifier: "ondeck", Title: "On Deck", Items: []models.ContentItem{a}},
				{Identifier: "continuewatching", Items: []models.ContentItem{b, a}},
				{Identifier: "recentlyAdded", Title: "Recently Added", PageKey: "/hubs/ra", TotalSize: 40, Items: genItems(0, 24)},
			}, nil
		},
		page: func(_ string, offset, limit int) ([]models.ContentItem, int, error) {
			return genItems(offset, 16), 40, nil
		},
	}
	l := newTestLoader(src, feedcache.NewMemoryStore())

	st, err := l.Load(context.Background(), "home")
	if err != nil {
		t.Fatal(err)
	}

	if len(st.Hubs) != 2 {
		t.Fatalf("hubs = %d, want 2", len(st.Hubs))
	}
	if st.Hubs[0].Identifier != ContinueWatchingIdentifier {
		t.Errorf("hubs[0] = %q", st.Hubs[0].Identifier)
	}
	if !sameIDs(models.ItemIDs(st.Hubs[0].Items), "b", "a") {
		t.Errorf("continue watching = %v, want [b a]", models.ItemIDs(st.Hubs[0].Items))
	}
	if st.Hero == nil {
		t.Error("hero not selected after hub fetch")
	}

	if err := l.OnProximity(context.Background(), "home", "recentlyAdded", 22); err != nil {
		t.Fatalf("OnProximity: %v", err)
	}
	waitFor(t, func() bool {
		st, err := l.Snapshot("home")
		if err != nil {
			return false
		}
		return len(st.Hubs) == 2 && len(st.Hubs[1].Items) == 40
	})

	if err := l.OnProximity(context.Background(), "home", "nope", 0); !errors.Is(err, ErrUnknownHub) {
		t.Errorf("unknown hub error = %v", err)
	}
	if err := l.OnProximity(context.Background(), "nope", "recentlyAdded", 0); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("unknown context error = %v", err)
	}
}

func TestLoaderErrorsDoNotCrossContexts(t *testing.T) {
	src := &scriptSource{
		items: func(_ int, feedContext string) ([]models.ContentItem, int, error) {
			if feedContext == "library:broken" {
				return nil, 0, errors.New("section offline")
			}
			return []models.ContentItem{{ID: "ok"}}, 1, nil
		},
	}
	l := newTestLoader(src, feedcache.NewMemoryStore())

	good, err := l.Load(context.Background(), "home")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), "library:broken"); !errors.Is(err, ErrNoData) {
		t.Fatalf("broken context error = %v, want ErrNoData", err)
	}

	again, err := l.Snapshot("home")
	if err != nil {
		t.Fatal(err)
	}
	if !sameIDs(itemIDsOf(again), "ok") || again.Error != "" {
		t.Errorf("healthy context disturbed: items=%v error=%q", itemIDsOf(again), again.Error)
	}
	if good.Error != "" {
		t.Errorf("healthy context reported error: %q", good.Error)
	}
}

func TestLoaderSnapshotUnknownContext(t *testing.T) {
	l := newTestLoader(&scriptSource{}, feedcache.NewMemoryStore())
	if _, err := l.Snapshot("never-activated"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("error = %v, want ErrUnknownContext", err)
	}
}

func TestLoaderActiveContexts(t *testing.T) {
	l := newTestLoader(&scriptSource{}, feedcache.NewMemoryStore())
	l.Activate(context.Background(), "home")
	l.Activate(context.Background(), "library:1")

	got := l.ActiveContexts()
	if len(got) != 2 {
		t.Errorf("active contexts = %v, want 2 entries", got)
	}
}
