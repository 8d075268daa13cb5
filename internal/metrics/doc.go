// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package metrics defines the Prometheus collectors for Deckhand. All
// collectors are registered via promauto at package load and exposed at
// /metrics by the API router.
package metrics
