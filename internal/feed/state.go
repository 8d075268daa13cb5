// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/models"
)

// StateTopic is the watermill topic feed state snapshots are published to.
// The feed context is carried in the message metadata under "context".
const StateTopic = "feed.state"

// Source is the transport collaborator: anything that can fetch flat item
// listings, hub lists, and hub continuation pages for a feed context.
//
// FetchItems and FetchHubPage return the page of items plus the
// server-declared total size (0 when unknown). A limit of 0 requests the
// server default (the full listing for flat fetches).
type Source interface {
	FetchItems(ctx context.Context, feedContext string, offset, limit int) ([]models.ContentItem, int, error)
	FetchHubs(ctx context.Context, feedContext string) ([]models.Hub, error)
	FetchHubPage(ctx context.Context, pageKey string, offset, limit int) ([]models.ContentItem, int, error)
}

// State is the consumer-facing snapshot of one feed context. Snapshots are
// value copies: mutating a returned State does not affect loader state.
type State struct {
	Context   string               `json:"context"`
	Items     []models.ContentItem `json:"items"`
	Hubs      []models.Hub         `json:"hubs"`
	Hero      *models.ContentItem  `json:"hero,omitempty"`
	IsLoading bool                 `json:"isLoading"`
	Error     string               `json:"error,omitempty"`
}

// HasData reports whether the state has anything to show. Refresh failures
// are swallowed while this is true.
func (s State) HasData() bool {
	return len(s.Items) > 0 || len(s.Hubs) > 0
}

// clone returns a value copy with fresh slice headers, so paginator
// appends never alias a published snapshot.
func (s State) clone() State {
	out := s
	if s.Items != nil {
		out.Items = make([]models.ContentItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	if s.Hubs != nil {
		out.Hubs = make([]models.Hub, len(s.Hubs))
		copy(out.Hubs, s.Hubs)
		for i := range out.Hubs {
			items := make([]models.ContentItem, len(out.Hubs[i].Items))
			copy(items, out.Hubs[i].Items)
			out.Hubs[i].Items = items
		}
	}
	if s.Hero != nil {
		hero := *s.Hero
		out.Hero = &hero
	}
	return out
}

// publishState pushes a state snapshot to the watermill topic. Publish
// failures are logged and swallowed; the observable store is best-effort
// and the HTTP snapshot endpoint remains authoritative.
func publishState(pub message.Publisher, st State) {
	if pub == nil {
		return
	}

	payload, err := json.Marshal(st)
	if err != nil {
		logging.Error().Err(err).Str("context", st.Context).Msg("marshal feed state")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("context", st.Context)

	if err := pub.Publish(StateTopic, msg); err != nil {
		logging.Error().Err(err).Str("context", st.Context).Msg("publish feed state")
	}
}
