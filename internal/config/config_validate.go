// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validatePlex(); err != nil {
		return err
	}

	if err := c.validateFeed(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validatePlex validates Plex connection configuration.
func (c *Config) validatePlex() error {
	if c.Plex.URL == "" {
		return fmt.Errorf("DECKHAND_PLEX_URL is required")
	}
	if err := validateHTTPURL(c.Plex.URL, "DECKHAND_PLEX_URL"); err != nil {
		return err
	}
	if c.Plex.Token == "" {
		return fmt.Errorf("DECKHAND_PLEX_TOKEN is required")
	}
	if c.Plex.Timeout <= 0 {
		return fmt.Errorf("DECKHAND_PLEX_TIMEOUT must be positive")
	}
	if c.Plex.RateLimit < 0 {
		return fmt.Errorf("DECKHAND_PLEX_RATE_LIMIT must not be negative")
	}
	return nil
}

// validateFeed validates feed assembly configuration.
func (c *Config) validateFeed() error {
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("DECKHAND_FEED_PAGE_SIZE must be positive")
	}
	if c.Feed.Lookahead <= 0 {
		return fmt.Errorf("DECKHAND_FEED_LOOKAHEAD must be positive")
	}
	if c.Feed.Lookahead >= c.Feed.PageSize {
		return fmt.Errorf("DECKHAND_FEED_LOOKAHEAD must be smaller than the page size")
	}
	if c.Feed.RefreshInterval < 0 {
		return fmt.Errorf("DECKHAND_FEED_REFRESH_INTERVAL must not be negative")
	}
	return nil
}

// validateCache validates cache store configuration.
func (c *Config) validateCache() error {
	switch c.Cache.Store {
	case "badger":
		if c.Cache.Path == "" {
			return fmt.Errorf("DECKHAND_CACHE_PATH is required when cache store is badger")
		}
	case "memory":
	default:
		return fmt.Errorf("DECKHAND_CACHE_STORE must be badger or memory, got %q", c.Cache.Store)
	}
	return nil
}

// validateServer validates HTTP server configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("DECKHAND_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("DECKHAND_SERVER_TIMEOUT must be positive")
	}
	if c.Server.RateLimitReqs <= 0 {
		return fmt.Errorf("DECKHAND_SERVER_RATE_LIMIT_REQS must be positive")
	}
	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("DECKHAND_LOGGING_LEVEL is invalid: %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("DECKHAND_LOGGING_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that a value is an absolute http(s) URL.
func validateHTTPURL(raw, name string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", name)
	}
	return nil
}
