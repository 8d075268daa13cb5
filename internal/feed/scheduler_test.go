// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/deckhand/internal/feedcache"
	"github.com/tomtom215/deckhand/internal/models"
)

func TestSchedulerDefaultsInterval(t *testing.T) {
	s := NewRefreshScheduler(nil, 0)
	if s.interval != 5*time.Minute {
		t.Errorf("expected 5m default, got %v", s.interval)
	}
}

func TestSchedulerRefreshesActiveContexts(t *testing.T) {
	var fetches atomic.Int64
	src := &scriptSource{
		items: func(int, string) ([]models.ContentItem, int, error) {
			fetches.Add(1)
			return []models.ContentItem{{ID: "a"}}, 1, nil
		},
	}
	l := newTestLoader(src, feedcache.NewMemoryStore())

	l.Activate(context.Background(), "home")
	l.Activate(context.Background(), "library:1")

	s := NewRefreshScheduler(l, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	// Two activation fetches, then two more per scheduled tick.
	waitFor(t, func() bool {
		return fetches.Load() >= 6
	})

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerStringName(t *testing.T) {
	s := NewRefreshScheduler(nil, time.Minute)
	if s.String() != "feed-refresh-scheduler" {
		t.Errorf("unexpected service name %q", s.String())
	}
}
