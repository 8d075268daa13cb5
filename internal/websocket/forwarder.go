// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package websocket

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/deckhand/internal/feed"
	"github.com/tomtom215/deckhand/internal/logging"
)

// StateForwarder bridges the in-process feed state bus to websocket
// broadcasts: every published snapshot is pushed to all connected
// clients. Runs under the supervision tree.
type StateForwarder struct {
	hub        *Hub
	subscriber message.Subscriber
}

// NewStateForwarder creates a forwarder reading from the given watermill
// subscriber.
func NewStateForwarder(hub *Hub, subscriber message.Subscriber) *StateForwarder {
	return &StateForwarder{hub: hub, subscriber: subscriber}
}

// Serve implements suture.Service: subscribe to the feed state topic and
// forward until the context is canceled.
func (f *StateForwarder) Serve(ctx context.Context) error {
	messages, err := f.subscriber.Subscribe(ctx, feed.StateTopic)
	if err != nil {
		return err
	}

	logging.Info().Str("topic", feed.StateTopic).Msg("feed state forwarder started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			f.forward(msg)
		}
	}
}

// String names the service in supervisor logs.
func (f *StateForwarder) String() string {
	return "feed-state-forwarder"
}

func (f *StateForwarder) forward(msg *message.Message) {
	defer msg.Ack()

	// Payloads are marshaled feed.State snapshots; sanity-check before
	// fanning out to clients.
	if !json.Valid(msg.Payload) {
		logging.Warn().Str("message_id", msg.UUID).Msg("invalid feed state payload dropped")
		return
	}

	f.hub.BroadcastFeedState(json.RawMessage(msg.Payload))
}
