// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package plex

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/metrics"
	"github.com/tomtom215/deckhand/internal/models"
)

const (
	breakerInterval = time.Minute
	breakerTimeout  = 2 * time.Minute
)

// BreakerClient wraps Client with a circuit breaker so a down or slow
// Plex server is not hammered by every refresh cycle. Satisfies the same
// transport contract as Client.
//
// The breaker uses real time for its interval and timeout calculations;
// unit tests should exercise the wrapped client directly.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewBreakerClient creates a circuit-broken Plex client.
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(client *Client) *BreakerClient {
	cbName := "plex-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{client: client, cb: cb, name: cbName}
}

// execute wraps a Plex API call with circuit breaker protection.
func (b *BreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

type pageResult struct {
	items []models.ContentItem
	total int
}

// FetchItems fetches a flat listing page through the breaker.
func (b *BreakerClient) FetchItems(ctx context.Context, feedContext string, offset, limit int) ([]models.ContentItem, int, error) {
	result, err := b.execute(func() (any, error) {
		items, total, err := b.client.FetchItems(ctx, feedContext, offset, limit)
		if err != nil {
			return nil, err
		}
		return pageResult{items: items, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	page := result.(pageResult)
	return page.items, page.total, nil
}

// FetchHubs fetches the hub list through the breaker.
func (b *BreakerClient) FetchHubs(ctx context.Context, feedContext string) ([]models.Hub, error) {
	result, err := b.execute(func() (any, error) {
		return b.client.FetchHubs(ctx, feedContext)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.Hub), nil
}

// FetchHubPage fetches a hub continuation page through the breaker.
func (b *BreakerClient) FetchHubPage(ctx context.Context, pageKey string, offset, limit int) ([]models.ContentItem, int, error) {
	result, err := b.execute(func() (any, error) {
		items, total, err := b.client.FetchHubPage(ctx, pageKey, offset, limit)
		if err != nil {
			return nil, err
		}
		return pageResult{items: items, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	page := result.(pageResult)
	return page.items, page.total, nil
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
