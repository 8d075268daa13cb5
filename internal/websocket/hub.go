// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/metrics"
	"github.com/tomtom215/deckhand/internal/models"
)

// Message types pushed to clients.
const (
	MessageTypeFeedState    = "feed_state"
	MessageTypeFocusRestore = "focus_restore"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is the wire envelope for all client pushes.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FocusRestoreData is the payload of a focus_restore message.
type FocusRestoreData struct {
	Scope  models.FocusScope  `json:"scope"`
	Record models.FocusRecord `json:"record"`
	Found  bool               `json:"found"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until the context is canceled, then closes
// all clients and returns ctx.Err(). Designed for suture supervision.
//
// Selection is priority based: shutdown first, then client lifecycle,
// then broadcasts. Go's select picks randomly among ready channels, so a
// plain select would let a broadcast race ahead of an unregister for the
// same client.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String names the hub in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// broadcastToClients sends a message to all connected clients in client-ID
// order. Clients with a full send buffer are dropped; a 10-foot client
// that stops reading is better disconnected than backing up the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WebSocketClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebSocketClients.Set(0)
}

// BroadcastFeedState pushes an already-marshaled feed state snapshot.
func (h *Hub) BroadcastFeedState(payload json.RawMessage) {
	message := Message{
		Type: MessageTypeFeedState,
		Data: payload,
	}

	select {
	case h.broadcast <- message:
		metrics.WebSocketMessages.WithLabelValues(MessageTypeFeedState).Inc()
	default:
		logging.Warn().Msg("broadcast channel full, dropping feed state message")
	}
}

// BroadcastFocusRestore pushes a focus restore target to clients after a
// scope activation.
func (h *Hub) BroadcastFocusRestore(scope models.FocusScope, record models.FocusRecord, found bool) {
	message := Message{
		Type: MessageTypeFocusRestore,
		Data: FocusRestoreData{Scope: scope, Record: record, Found: found},
	}

	select {
	case h.broadcast <- message:
		metrics.WebSocketMessages.WithLabelValues(MessageTypeFocusRestore).Inc()
	default:
		logging.Warn().Msg("broadcast channel full, dropping focus restore message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
