// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package models defines the shared value types for Deckhand: content items,
// hubs, focus records, and the Plex REST API wire structures they are
// decoded from.
//
// ContentItem and Hub are immutable value types. Identity is carried by
// ContentItem.ID (the Plex rating key): two items with the same ID are the
// same entity for deduplication purposes regardless of other field
// differences.
package models
