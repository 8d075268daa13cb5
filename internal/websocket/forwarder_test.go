// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/deckhand/internal/feed"
)

func TestStateForwarderBridgesBusToHub(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	client := createTestClient(hub)
	registerClient(hub, client)

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	forwarder := NewStateForwarder(hub, bus)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = forwarder.Serve(ctx) }()
	time.Sleep(10 * time.Millisecond)

	payload, err := json.Marshal(feed.State{Context: "home"})
	if err != nil {
		t.Fatal(err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("context", "home")
	if err := bus.Publish(feed.StateTopic, msg); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-client.send:
		if got.Type != MessageTypeFeedState {
			t.Errorf("message type = %q", got.Type)
		}
		raw, ok := got.Data.(json.RawMessage)
		if !ok {
			t.Fatalf("data type = %T", got.Data)
		}
		var st feed.State
		if err := json.Unmarshal(raw, &st); err != nil {
			t.Fatal(err)
		}
		if st.Context != "home" {
			t.Errorf("state context = %q", st.Context)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed state not forwarded to client")
	}
}

func TestStateForwarderDropsInvalidPayload(t *testing.T) {
	hub, cancel := setupHub(t)
	defer cancel()

	client := createTestClient(hub)
	registerClient(hub, client)

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	forwarder := NewStateForwarder(hub, bus)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() { _ = forwarder.Serve(ctx) }()
	time.Sleep(10 * time.Millisecond)

	if err := bus.Publish(feed.StateTopic, message.NewMessage(watermill.NewUUID(), []byte("{not json"))); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-client.send:
		t.Errorf("invalid payload forwarded: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
