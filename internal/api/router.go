// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the HTTP surface: versioned feed and focus
// endpoints, the websocket upgrade, health probes, and Prometheus
// metrics.
func NewRouter(h *Handler, mw *Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SecurityHeaders())

		// Health probes skip rate limiting; orchestrators poll them.
		r.Get("/health/live", h.handleHealthLive)
		r.Get("/health/ready", h.handleHealthReady)

		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit())
			r.Use(Compression())

			r.Route("/feed/{context}", func(r chi.Router) {
				r.With(metricsMiddleware("feed_get")).
					Get("/", h.handleGetFeed)
				r.With(metricsMiddleware("feed_refresh")).
					Post("/refresh", h.handleRefreshFeed)
				r.With(metricsMiddleware("feed_proximity")).
					Post("/hubs/{hubID}/proximity", h.handleProximity)
			})

			r.Route("/focus", func(r chi.Router) {
				r.With(metricsMiddleware("focus_get")).
					Get("/{scope}", h.handleGetFocus)
				r.With(metricsMiddleware("focus_set")).
					Post("/", h.handleSetFocus)
				r.With(metricsMiddleware("focus_activate")).
					Post("/{scope}/activate", h.handleActivateScope)
			})
		})

		// Outside the compression group, the upgraded connection needs
		// the raw ResponseWriter for hijacking.
		r.Get("/ws", h.handleWebSocket)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
