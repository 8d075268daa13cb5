// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

/*
client.go - Plex Media Server API Client

Core Client struct for communicating with Plex Media Server's REST API.

Client Features:
  - X-Plex-Token authentication on every request
  - Client-side rate limiting (token bucket, golang.org/x/time/rate)
  - Automatic HTTP 429 retry with exponential backoff and Retry-After
  - JSON response parsing

Related Files:
  - request.go: HTTP request helpers
  - library.go: Hub and library content methods (the feed transport)
  - breaker.go: Circuit breaker wrapper
*/

//nolint:staticcheck // File documentation, not package doc
package plex

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/deckhand/internal/config"
	"github.com/tomtom215/deckhand/internal/logging"
)

// Client handles communication with the Plex Media Server API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an authenticated Plex API client from configuration.
func NewClient(cfg *config.PlexConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    cfg.URL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// doRequestWithRateLimit executes a request honoring the client-side token
// bucket, then retries on HTTP 429 with exponential backoff. Retry-After
// from the server overrides the computed delay.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := baseDelay * (1 << attempt) // 1s, 2s, 4s, 8s, 16s

		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_retries", maxRetries).Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}
