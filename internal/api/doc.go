// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package api exposes the feed engine to thin 10-foot front-ends over
// HTTP: feed snapshots, forced refresh, pagination proximity triggers,
// focus scope management, and a websocket upgrade endpoint for pushed
// state. Built on chi with middleware from the go-chi ecosystem.
package api
