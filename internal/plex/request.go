// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/deckhand/internal/metrics"
)

// requestConfig holds configuration for building HTTP requests.
type requestConfig struct {
	method   string
	path     string
	query    url.Values
	endpoint string // low-cardinality metric label ("hubs", "library", "hub_page")
}

// doRequest executes a standard Plex API request and decodes the response.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, cfg.path)

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		metrics.PlexRequestErrors.WithLabelValues(cfg.endpoint).Inc()
		return err
	}
	defer resp.Body.Close()

	metrics.PlexRequestDuration.WithLabelValues(cfg.endpoint).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.PlexRequestErrors.WithLabelValues(cfg.endpoint).Inc()
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			metrics.PlexRequestErrors.WithLabelValues(cfg.endpoint).Inc()
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// doJSONRequest is a convenience wrapper for GET requests with query
// parameters.
func (c *Client) doJSONRequest(ctx context.Context, endpoint, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     path,
		query:    query,
		endpoint: endpoint,
	}, result)
}
