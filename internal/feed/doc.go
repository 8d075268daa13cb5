// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package feed implements the feed assembly and incremental-loading engine:
// hub merging, cache-first loading with background refresh, per-row
// pagination, and hero selection.
//
// # Generation tokens
//
// Every context activation (including re-entering the same context)
// increments a per-context generation counter. In-flight fetch results
// carry the generation they were issued under; a result whose generation no
// longer matches on completion is discarded silently. This makes stale
// results inert without requiring transport-level cancellation: the
// canonical race (user flips library A -> B -> A quickly) resolves to the
// newest request's data regardless of network ordering.
//
// # Stale-while-revalidate
//
// A context with cached data publishes it immediately and refreshes in the
// background; refresh failures with data on screen are swallowed. A context
// with no data blocks on the first fetch and surfaces the failure.
//
// All local computation (merge, dedup, hash comparison) is synchronous; the
// only suspension points are the Source fetches.
package feed
