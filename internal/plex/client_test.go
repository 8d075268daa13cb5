// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package plex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/deckhand/internal/config"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(&config.PlexConfig{
		URL:     srv.URL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
}

func TestFetchHubsHome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hubs" {
			t.Errorf("path = %q, want /hubs", r.URL.Path)
		}
		if got := r.Header.Get("X-Plex-Token"); got != "test-token" {
			t.Errorf("token header = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("accept header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"MediaContainer":{"size":2,"Hub":[
			{"hubIdentifier":"home.continue","title":"Continue Watching","key":"/hubs/home/continueWatching","more":true,
			 "Metadata":[{"ratingKey":"101","type":"episode","title":"Pilot","lastViewedAt":1700000000}]},
			{"hubIdentifier":"home.movies.recent","title":"Recently Added Movies",
			 "Metadata":[{"ratingKey":"200","type":"movie","title":"Film"},{"type":"movie","title":"keyless"}]}
		]}}`))
	}))
	defer srv.Close()

	hubs, err := newTestClient(srv).FetchHubs(context.Background(), HomeContext)
	if err != nil {
		t.Fatal(err)
	}
	if len(hubs) != 2 {
		t.Fatalf("hubs = %d, want 2", len(hubs))
	}
	if hubs[0].Identifier != "home.continue" || hubs[0].PageKey != "/hubs/home/continueWatching" {
		t.Errorf("hub[0] = %+v", hubs[0])
	}
	if hubs[0].TotalSize != 0 {
		t.Errorf("hub with more=true should not declare total, got %d", hubs[0].TotalSize)
	}
	if len(hubs[1].Items) != 1 {
		t.Errorf("keyless metadata not dropped: %d items", len(hubs[1].Items))
	}
	if hubs[1].TotalSize != 1 {
		t.Errorf("complete hub total = %d, want 1", hubs[1].TotalSize)
	}
}

func TestFetchHubsLibrarySection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hubs/sections/3" {
			t.Errorf("path = %q, want /hubs/sections/3", r.URL.Path)
		}
		w.Write([]byte(`{"MediaContainer":{"size":0}}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).FetchHubs(context.Background(), LibraryContext("3")); err != nil {
		t.Fatal(err)
	}
}

func TestFetchItemsLibrary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/sections/3/all" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("X-Plex-Container-Start") != "24" || q.Get("X-Plex-Container-Size") != "24" {
			t.Errorf("container params = %v", q)
		}
		w.Write([]byte(`{"MediaContainer":{"size":2,"totalSize":120,"offset":24,
			"Metadata":[{"ratingKey":"1","type":"movie"},{"ratingKey":"2","type":"movie"}]}}`))
	}))
	defer srv.Close()

	items, total, err := newTestClient(srv).FetchItems(context.Background(), "library:3", 24, 24)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || total != 120 {
		t.Errorf("items=%d total=%d, want 2/120", len(items), total)
	}
}

func TestFetchItemsHomeContextIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("home context must not hit the library endpoint")
	}))
	defer srv.Close()

	items, total, err := newTestClient(srv).FetchItems(context.Background(), HomeContext, 0, 0)
	if err != nil || len(items) != 0 || total != 0 {
		t.Errorf("items=%v total=%d err=%v", items, total, err)
	}
}

func TestFetchHubPageShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"metadata container", `{"MediaContainer":{"size":2,"totalSize":50,
			"Metadata":[{"ratingKey":"10"},{"ratingKey":"11"}]}}`},
		{"hub container", `{"MediaContainer":{"size":1,"totalSize":50,
			"Hub":[{"title":"Continue Watching","Metadata":[{"ratingKey":"10"},{"ratingKey":"11"}]}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/hubs/home/continueWatching" {
					t.Errorf("path = %q", r.URL.Path)
				}
				if r.URL.Query().Get("X-Plex-Container-Start") != "24" {
					t.Errorf("offset param missing: %v", r.URL.Query())
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			items, total, err := newTestClient(srv).FetchHubPage(context.Background(), "/hubs/home/continueWatching", 24, 24)
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != 2 || total != 50 {
				t.Errorf("items=%d total=%d, want 2/50", len(items), total)
			}
		})
	}
}

func TestRateLimitRetry(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"MediaContainer":{"size":0}}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).FetchHubs(context.Background(), HomeContext); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2 (429 then 200)", got)
	}
}

func TestFetchHubsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).FetchHubs(context.Background(), HomeContext); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewBreakerClient(newTestClient(srv))

	for i := 0; i < 10; i++ {
		if _, err := b.FetchHubs(context.Background(), HomeContext); err == nil {
			t.Fatalf("call %d unexpectedly succeeded", i)
		}
	}

	_, err := b.FetchHubs(context.Background(), HomeContext)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error after trip = %v, want ErrOpenState", err)
	}
}
