// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package feedcache provides the context-scoped feed cache: the last-known
// item list and hero selection per feed context ("home", a library key).
//
// The cache is read-through and write-on-success. Two implementations are
// provided: a BadgerDB-backed store that survives restarts (the production
// default) and an in-memory store for tests and cache-disabled deployments.
//
// Writers are already serialized per context by the feed loader's
// generation-token discipline, so mutation is last-writer-wins per key with
// no conflict detection.
package feedcache
