// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/deckhand/internal/feed"
	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/focus"
	"github.com/tomtom215/deckhand/internal/models"
	ws "github.com/tomtom215/deckhand/internal/websocket"
)

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	loader   *feed.Loader
	focus    *focus.Manager
	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewHandler creates an API handler.
func NewHandler(loader *feed.Loader, focusMgr *focus.Manager, wsHub *ws.Hub) *Handler {
	return &Handler{
		loader: loader,
		focus:  focusMgr,
		wsHub:  wsHub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

type proximityRequest struct {
	VisibleIndex int `json:"visibleIndex" validate:"min=0"`
}

type focusRequest struct {
	ItemID  string `json:"itemId" validate:"required,max=256"`
	Context string `json:"context" validate:"required,feedcontext"`
	Scope   string `json:"scope" validate:"required,focusscope"`
}

// handleGetFeed returns the assembled feed for a context, blocking until
// first data when nothing is cached yet.
func (h *Handler) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	feedContext := chi.URLParam(r, "context")
	if !validFeedContext(feedContext) {
		respondError(w, r, http.StatusBadRequest, "INVALID_CONTEXT", "Unknown feed context")
		return
	}

	state, err := h.loader.Load(r.Context(), feedContext)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrNoData):
			respondError(w, r, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", state.Error)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respondError(w, r, http.StatusRequestTimeout, "TIMEOUT", "Feed load cancelled")
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Failed to load feed")
		}
		return
	}

	respondJSON(w, r, http.StatusOK, state)
}

// handleRefreshFeed forces a refresh cycle and returns the current
// snapshot immediately.
func (h *Handler) handleRefreshFeed(w http.ResponseWriter, r *http.Request) {
	feedContext := chi.URLParam(r, "context")
	if !validFeedContext(feedContext) {
		respondError(w, r, http.StatusBadRequest, "INVALID_CONTEXT", "Unknown feed context")
		return
	}

	state := h.loader.Refresh(r.Context(), feedContext, "manual")
	respondJSON(w, r, http.StatusAccepted, state)
}

// handleProximity reports a focus position inside a hub so pagination
// can prefetch ahead of the viewport.
func (h *Handler) handleProximity(w http.ResponseWriter, r *http.Request) {
	feedContext := chi.URLParam(r, "context")
	hubID := chi.URLParam(r, "hubID")

	var req proximityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.loader.OnProximity(r.Context(), feedContext, hubID, req.VisibleIndex)
	if err != nil {
		switch {
		case errors.Is(err, feed.ErrUnknownContext):
			respondError(w, r, http.StatusNotFound, "UNKNOWN_CONTEXT", "Feed context is not active")
		case errors.Is(err, feed.ErrUnknownHub):
			respondError(w, r, http.StatusNotFound, "UNKNOWN_HUB", "Hub not found in context")
		default:
			respondError(w, r, http.StatusInternalServerError, "INTERNAL", "Failed to record proximity")
		}
		return
	}

	respondJSON(w, r, http.StatusAccepted, map[string]string{
		"hubId": hubID,
	})
}

// handleGetFocus returns the restore target for a scope.
func (h *Handler) handleGetFocus(w http.ResponseWriter, r *http.Request) {
	scope, ok := parseScope(chi.URLParam(r, "scope"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "INVALID_SCOPE", "Unknown focus scope")
		return
	}

	record, found := h.focus.RestoreTarget(scope)
	respondJSON(w, r, http.StatusOK, map[string]any{
		"scope":  scope,
		"record": record,
		"found":  found,
		"active": h.focus.IsScopeActive(scope),
	})
}

// handleSetFocus records the focused item for a scope. Reports against
// an inactive scope are dropped, not errors.
func (h *Handler) handleSetFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	scope, _ := parseScope(req.Scope)
	accepted := h.focus.SetFocus(req.ItemID, req.Context, scope)

	respondJSON(w, r, http.StatusOK, map[string]any{
		"accepted": accepted,
		"scope":    scope,
	})
}

// handleActivateScope switches the active focus scope and pushes the
// restore target to connected clients.
func (h *Handler) handleActivateScope(w http.ResponseWriter, r *http.Request) {
	scope, ok := parseScope(chi.URLParam(r, "scope"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, "INVALID_SCOPE", "Unknown focus scope")
		return
	}

	h.focus.ActivateScope(scope)

	record, found := h.focus.RestoreTarget(scope)
	h.wsHub.BroadcastFocusRestore(scope, record, found)

	respondJSON(w, r, http.StatusOK, map[string]any{
		"scope":  scope,
		"record": record,
		"found":  found,
	})
}

// handleWebSocket upgrades the connection and registers the client with
// the hub for pushed feed state.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).
			Str("remote_addr", sanitizeLogValue(r.RemoteAddr)).
			Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}

// handleHealthLive reports process liveness.
func (h *Handler) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// handleHealthReady reports readiness. The engine is ready as soon as it
// can serve snapshots, even empty ones.
func (h *Handler) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{
		"status":            "ready",
		"active_contexts":   h.loader.ActiveContexts(),
		"websocket_clients": h.wsHub.ClientCount(),
	})
}

func validFeedContext(feedContext string) bool {
	if feedContext == "home" {
		return true
	}
	key, ok := strings.CutPrefix(feedContext, "library:")
	return ok && key != ""
}

func parseScope(raw string) (models.FocusScope, bool) {
	switch models.FocusScope(raw) {
	case models.FocusScopeContent:
		return models.FocusScopeContent, true
	case models.FocusScopeSidebar:
		return models.FocusScopeSidebar, true
	default:
		return models.FocusScopeContent, false
	}
}
