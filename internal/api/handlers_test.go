// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/tomtom215/deckhand/internal/feed"
	"github.com/tomtom215/deckhand/internal/feedcache"
	"github.com/tomtom215/deckhand/internal/focus"
	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/models"
	ws "github.com/tomtom215/deckhand/internal/websocket"
)

func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// fakeSource serves a fixed set of items and hubs for every context.
type fakeSource struct {
	items []models.ContentItem
	hubs  []models.Hub
	err   error
}

func (s *fakeSource) FetchItems(_ context.Context, _ string, _, _ int) ([]models.ContentItem, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.items, len(s.items), nil
}

func (s *fakeSource) FetchHubs(_ context.Context, _ string) ([]models.Hub, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hubs, nil
}

func (s *fakeSource) FetchHubPage(_ context.Context, _ string, _, _ int) ([]models.ContentItem, int, error) {
	return nil, 0, nil
}

func testItems(ids ...string) []models.ContentItem {
	items := make([]models.ContentItem, len(ids))
	for i, id := range ids {
		items[i] = models.ContentItem{ID: id, Type: models.MediaTypeMovie, Title: id}
	}
	return items
}

type testServer struct {
	srv    *httptest.Server
	hub    *ws.Hub
	cancel context.CancelFunc
}

func newTestServer(t *testing.T, source feed.Source) *testServer {
	t.Helper()

	store := feedcache.NewMemoryStore()
	loader := feed.NewLoader(source, store, feed.NewHeroSelector(store), nil, feed.Options{})
	focusMgr := focus.NewManager()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.RunWithContext(ctx)

	handler := NewHandler(loader, focusMgr, hub)
	mw := NewMiddleware(&MiddlewareConfig{RateLimitDisabled: true})
	srv := httptest.NewServer(NewRouter(handler, mw))

	ts := &testServer{srv: srv, hub: hub, cancel: cancel}
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) models.APIResponse {
	t.Helper()
	defer resp.Body.Close()

	var env models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestGetFeedReturnsData(t *testing.T) {
	source := &fakeSource{items: testItems("a", "b", "c")}
	ts := newTestServer(t, source)

	resp := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/feed/home", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("ETag"); got == "" {
		t.Error("expected ETag header")
	}

	env := decodeEnvelope(t, resp)
	if env.Status != "success" {
		t.Errorf("expected success status, got %q", env.Status)
	}
	if env.Metadata.Timestamp.IsZero() {
		t.Error("expected a populated metadata timestamp")
	}
	if env.Metadata.RequestID == "" {
		t.Error("expected a request ID in metadata")
	}

	raw, _ := json.Marshal(env.Data)
	var state feed.State
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Context != "home" {
		t.Errorf("expected context home, got %q", state.Context)
	}
	if len(state.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(state.Items))
	}
}

func TestGetFeedInvalidContext(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	for _, ctx := range []string{"garbage", "library:"} {
		resp := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/feed/"+ctx, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("context %q: expected 400, got %d", ctx, resp.StatusCode)
		}
		env := decodeEnvelope(t, resp)
		if env.Error == nil || env.Error.Code != "INVALID_CONTEXT" {
			t.Errorf("context %q: expected INVALID_CONTEXT error, got %+v", ctx, env.Error)
		}
	}
}

func TestGetFeedETagNotModified(t *testing.T) {
	source := &fakeSource{items: testItems("a", "b")}
	ts := newTestServer(t, source)

	first := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/feed/home", nil)
	io.Copy(io.Discard, first.Body)
	first.Body.Close()

	etag := first.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag on first response")
	}

	// The ETag covers the data payload only, so an unchanged feed
	// answers a conditional request with 304.
	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/feed/home", nil)
	req.Header.Set("If-None-Match", etag)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("conditional request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}
}

func TestRefreshFeed(t *testing.T) {
	source := &fakeSource{items: testItems("a")}
	ts := newTestServer(t, source)

	resp := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/feed/home/refresh", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Status != "success" {
		t.Errorf("expected success status, got %q", env.Status)
	}
}

func TestProximityUnknownContext(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	resp := doJSON(t, http.MethodPost,
		ts.srv.URL+"/api/v1/feed/home/hubs/hub-1/proximity",
		map[string]int{"visibleIndex": 3})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "UNKNOWN_CONTEXT" {
		t.Errorf("expected UNKNOWN_CONTEXT, got %+v", env.Error)
	}
}

func TestProximityUnknownHub(t *testing.T) {
	source := &fakeSource{
		hubs: []models.Hub{{
			Identifier: "home.movies.recent",
			Title:      "Recently Added",
			Items:      testItems("a"),
		}},
	}
	ts := newTestServer(t, source)

	// Activate the context first.
	resp := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/feed/home", nil)
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost,
		ts.srv.URL+"/api/v1/feed/home/hubs/no-such-hub/proximity",
		map[string]int{"visibleIndex": 0})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "UNKNOWN_HUB" {
		t.Errorf("expected UNKNOWN_HUB, got %+v", env.Error)
	}
}

func TestProximityRejectsNegativeIndex(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	resp := doJSON(t, http.MethodPost,
		ts.srv.URL+"/api/v1/feed/home/hubs/hub-1/proximity",
		map[string]int{"visibleIndex": -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
	}
}

func TestProximityRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	req, _ := http.NewRequest(http.MethodPost,
		ts.srv.URL+"/api/v1/feed/home/hubs/hub-1/proximity",
		strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Error == nil || env.Error.Code != "INVALID_BODY" {
		t.Errorf("expected INVALID_BODY, got %+v", env.Error)
	}
}

func TestFocusRoundTrip(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	resp := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/focus", focusRequest{
		ItemID:  "movie-42",
		Context: "home",
		Scope:   "content",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set focus: expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	data, _ := env.Data.(map[string]any)
	if accepted, _ := data["accepted"].(bool); !accepted {
		t.Error("expected focus report to be accepted")
	}

	resp = doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/focus/content", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get focus: expected 200, got %d", resp.StatusCode)
	}
	env = decodeEnvelope(t, resp)
	data, _ = env.Data.(map[string]any)
	if found, _ := data["found"].(bool); !found {
		t.Error("expected a restore target")
	}
	record, _ := data["record"].(map[string]any)
	if got, _ := record["itemId"].(string); got != "movie-42" {
		t.Errorf("expected itemId movie-42, got %q", got)
	}
}

func TestFocusInactiveScopeDropped(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	// Content is the default active scope; sidebar reports are dropped.
	resp := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/focus", focusRequest{
		ItemID:  "nav-settings",
		Context: "home",
		Scope:   "sidebar",
	})
	env := decodeEnvelope(t, resp)
	data, _ := env.Data.(map[string]any)
	if accepted, _ := data["accepted"].(bool); accepted {
		t.Error("expected inactive-scope report to be dropped")
	}
}

func TestFocusValidation(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	tests := []struct {
		name string
		req  focusRequest
	}{
		{"missing item", focusRequest{Context: "home", Scope: "content"}},
		{"bad context", focusRequest{ItemID: "x", Context: "nope", Scope: "content"}},
		{"bad scope", focusRequest{ItemID: "x", Context: "home", Scope: "toolbar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/focus", tt.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			resp.Body.Close()
		})
	}
}

func TestActivateScope(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	resp := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/focus/sidebar/activate", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	// Sidebar reports are accepted now.
	resp = doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/focus", focusRequest{
		ItemID:  "nav-settings",
		Context: "home",
		Scope:   "sidebar",
	})
	env := decodeEnvelope(t, resp)
	data, _ := env.Data.(map[string]any)
	if accepted, _ := data["accepted"].(bool); !accepted {
		t.Error("expected sidebar report to be accepted after activation")
	}
}

func TestActivateScopeInvalid(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	resp := doJSON(t, http.MethodPost, ts.srv.URL+"/api/v1/focus/toolbar/activate", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		resp := doJSON(t, http.MethodGet, ts.srv.URL+path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	resp := doJSON(t, http.MethodGet, ts.srv.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !bytes.Contains(body, []byte("go_goroutines")) {
		t.Error("expected Prometheus exposition output")
	}
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, &fakeSource{items: testItems("a")})

	resp := doJSON(t, http.MethodGet, ts.srv.URL+"/api/v1/feed/home", nil)
	defer resp.Body.Close()

	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected DENY, got %q", got)
	}
}

func TestCompression(t *testing.T) {
	ts := newTestServer(t, &fakeSource{items: testItems("a", "b")})

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/feed/home", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	// Bypass the transport's transparent decompression so the header
	// set by the server is observable.
	tr := &http.Transport{DisableCompression: true}
	resp, err := (&http.Client{Transport: tr}).Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
		t.Errorf("expected gzip encoding, got %q", got)
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})

	wsURL := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/api/v1/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	ts.hub.BroadcastFocusRestore(models.FocusScopeContent, models.FocusRecord{}, false)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pushed message: %v", err)
	}
	if msg.Type != ws.MessageTypeFocusRestore {
		t.Errorf("expected %s message, got %s", ws.MessageTypeFocusRestore, msg.Type)
	}
}
