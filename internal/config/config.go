// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package config

import "time"

// Config holds all application configuration loaded from environment
// variables and config files.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Plex    PlexConfig    `koanf:"plex"`
	Feed    FeedConfig    `koanf:"feed"`
	Cache   CacheConfig   `koanf:"cache"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// PlexConfig holds the connection settings for the upstream Plex Media Server.
type PlexConfig struct {
	// URL is the Plex Media Server base URL (e.g. http://localhost:32400).
	URL string `koanf:"url"`

	// Token is the X-Plex-Token used to authenticate all requests.
	Token string `koanf:"token"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the sustained request rate toward the server (req/s).
	// 0 disables client-side rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the rate limiter burst size.
	RateBurst int `koanf:"rate_burst"`
}

// FeedConfig controls feed assembly and incremental loading behavior.
type FeedConfig struct {
	// PageSize is the number of items requested per pagination fetch.
	PageSize int `koanf:"page_size"`

	// Lookahead is how many items before the end of a loaded row a
	// proximity trigger fires the next page fetch.
	Lookahead int `koanf:"lookahead"`

	// RefreshInterval is the period between background refreshes of
	// active feed contexts. 0 disables the refresh scheduler.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// ShowRecommendations keeps discovery hubs (non-essential categories)
	// in merged output.
	ShowRecommendations bool `koanf:"show_recommendations"`

	// MusicVisible keeps music-category hubs in merged output.
	MusicVisible bool `koanf:"music_visible"`
}

// CacheConfig controls the durable feed cache.
type CacheConfig struct {
	// Store selects the cache backend: "badger" (durable) or "memory".
	Store string `koanf:"store"`

	// Path is the BadgerDB directory (badger store only).
	Path string `koanf:"path"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed CORS origins for front-end clients.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs is the allowed requests per RateLimitWindow per client IP.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limiting window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
