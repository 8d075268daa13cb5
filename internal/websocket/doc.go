// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package websocket pushes feed state and focus restore events to
// connected 10-foot UI clients. A Hub fans broadcasts out to per-client
// send channels; the StateForwarder bridges the in-process feed state bus
// onto the hub.
package websocket
