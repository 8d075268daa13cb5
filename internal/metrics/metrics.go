// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Feed load and refresh cycles
// - Cache efficiency
// - Row pagination
// - Plex API client health (circuit breaker, rate limiting)
// - WebSocket connections

var (
	// Feed Loader Metrics
	FeedLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_load_duration_seconds",
			Help:    "Duration of feed load cycles in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"context", "source"}, // source: "cache", "live"
	)

	FeedLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_load_errors_total",
			Help: "Total number of feed load failures",
		},
		[]string{"context", "kind"}, // kind: "items", "hubs"
	)

	FeedGenerationDiscards = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_generation_discards_total",
			Help: "Total number of stale fetch results discarded by the generation token check",
		},
	)

	FeedRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_refreshes_total",
			Help: "Total number of feed refresh cycles",
		},
		[]string{"trigger"}, // "activate", "manual", "scheduled"
	)

	// Feed Cache Metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total number of feed cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total number of feed cache misses",
		},
	)

	// Row Paginator Metrics
	PaginationFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pagination_fetches_total",
			Help: "Total number of hub page fetches",
		},
		[]string{"result"}, // "ok", "error", "end"
	)

	PaginationResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_pagination_resets_total",
			Help: "Total number of paginator resets due to upstream seed changes",
		},
	)

	// Plex Client Metrics
	PlexRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plex_request_duration_seconds",
			Help:    "Duration of Plex API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	PlexRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plex_request_errors_total",
			Help: "Total number of Plex API request errors",
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total circuit breaker requests by outcome",
		},
		[]string{"name", "outcome"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// WebSocket Metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_total",
			Help: "Total WebSocket messages broadcast to clients",
		},
		[]string{"type"},
	)

	// API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)
)
