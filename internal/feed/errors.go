// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import "errors"

var (
	// ErrNoData is surfaced when a context has nothing to show and its
	// blocking fetch failed.
	ErrNoData = errors.New("feed: no data available")

	// ErrUnknownContext is returned for operations on a context that was
	// never activated.
	ErrUnknownContext = errors.New("feed: unknown context")

	// ErrUnknownHub is returned for pagination requests against a hub not
	// present in the context's merged hub list.
	ErrUnknownHub = errors.New("feed: unknown hub")
)
