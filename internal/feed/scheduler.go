// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"context"
	"time"

	"github.com/tomtom215/deckhand/internal/logging"
)

// RefreshScheduler periodically refreshes every activated context so the
// feed keeps moving even when no client action forces it. Runs under the
// supervision tree.
type RefreshScheduler struct {
	loader   *Loader
	interval time.Duration
}

// NewRefreshScheduler creates a scheduler ticking at the given interval.
func NewRefreshScheduler(loader *Loader, interval time.Duration) *RefreshScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshScheduler{loader: loader, interval: interval}
}

// Serve implements suture.Service.
func (s *RefreshScheduler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", s.interval).Msg("feed refresh scheduler started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			contexts := s.loader.ActiveContexts()
			for _, feedContext := range contexts {
				s.loader.Refresh(ctx, feedContext, "scheduled")
			}
			if len(contexts) > 0 {
				logging.Debug().Int("contexts", len(contexts)).Msg("scheduled feed refresh")
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *RefreshScheduler) String() string {
	return "feed-refresh-scheduler"
}
