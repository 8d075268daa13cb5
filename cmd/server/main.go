// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package main is the entry point for the Deckhand server.
//
// Deckhand assembles home feeds from a Plex Media Server and serves them
// to thin 10-foot front-ends over HTTP and WebSocket. Startup order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, config.yaml,
//     DECKHAND_* environment variables)
//  2. Cache: BadgerDB-backed feed cache (or in-memory, per config)
//  3. Plex client: rate-limited HTTP client behind a circuit breaker
//  4. Feed engine: loader, hero selector, refresh scheduler
//  5. WebSocket hub and the watermill bridge that pushes feed state
//  6. HTTP server: chi router with the versioned API
//
// All long-running components run under a Suture supervision tree and
// are restarted on crash. The server shuts down gracefully on SIGINT
// and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/deckhand/internal/api"
	"github.com/tomtom215/deckhand/internal/config"
	"github.com/tomtom215/deckhand/internal/feed"
	"github.com/tomtom215/deckhand/internal/feedcache"
	"github.com/tomtom215/deckhand/internal/focus"
	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/plex"
	"github.com/tomtom215/deckhand/internal/supervisor"
	"github.com/tomtom215/deckhand/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("plex_url", cfg.Plex.URL).
		Str("cache_store", cfg.Cache.Store).
		Msg("Starting Deckhand")

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open feed cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close feed cache")
		}
	}()

	source := plex.NewBreakerClient(plex.NewClient(&cfg.Plex))

	bus := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NopLogger{})
	defer bus.Close()

	loader := feed.NewLoader(source, store, feed.NewHeroSelector(store), bus, feed.Options{
		PageSize:  cfg.Feed.PageSize,
		Lookahead: cfg.Feed.Lookahead,
		Merge: feed.MergeOptions{
			ShowRecommendations: cfg.Feed.ShowRecommendations,
			MusicVisible:        cfg.Feed.MusicVisible,
		},
	})

	focusMgr := focus.NewManager()
	wsHub := websocket.NewHub()
	forwarder := websocket.NewStateForwarder(wsHub, bus)

	handler := api.NewHandler(loader, focusMgr, wsHub)
	mw := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, mw),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(supervisor.NewRunnerService("websocket-hub", wsHub))
	tree.AddEngineService(forwarder)
	if cfg.Feed.RefreshInterval > 0 {
		tree.AddEngineService(feed.NewRefreshScheduler(loader, cfg.Feed.RefreshInterval))
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(httpServer, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("Serving")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if unstopped, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}

func openStore(cfg *config.Config) (feedcache.Store, error) {
	if cfg.Cache.Store == "memory" {
		return feedcache.NewMemoryStore(), nil
	}
	return feedcache.NewBadgerStore(cfg.Cache.Path)
}
