// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package plex

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/deckhand/internal/models"
)

// Feed context naming. "home" is the personalized home screen; library
// screens use "library:<sectionKey>".
const (
	HomeContext          = "home"
	libraryContextPrefix = "library:"
)

// LibraryContext builds the feed context key for a library section.
func LibraryContext(sectionKey string) string {
	return libraryContextPrefix + sectionKey
}

// sectionKey extracts the library section key from a feed context. ok is
// false for the home context.
func sectionKey(feedContext string) (string, bool) {
	if strings.HasPrefix(feedContext, libraryContextPrefix) {
		return strings.TrimPrefix(feedContext, libraryContextPrefix), true
	}
	return "", false
}

// containerQuery builds the X-Plex paging parameters. A limit of 0 omits
// the size, requesting the server default.
func containerQuery(offset, limit int) url.Values {
	query := url.Values{}
	query.Set("X-Plex-Container-Start", fmt.Sprintf("%d", offset))
	if limit > 0 {
		query.Set("X-Plex-Container-Size", fmt.Sprintf("%d", limit))
	}
	return query
}

// FetchHubs fetches the hub list for a feed context: GET /hubs for home,
// GET /hubs/sections/{key} for a library.
func (c *Client) FetchHubs(ctx context.Context, feedContext string) ([]models.Hub, error) {
	path := "/hubs"
	if key, ok := sectionKey(feedContext); ok {
		path = "/hubs/sections/" + key
	}

	var resp models.PlexHubsResponse
	if err := c.doJSONRequest(ctx, "hubs", path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch hubs for %s: %w", feedContext, err)
	}

	hubs := make([]models.Hub, 0, len(resp.MediaContainer.Hub))
	for _, hub := range resp.MediaContainer.Hub {
		hubs = append(hubs, hub.ToHub())
	}
	return hubs, nil
}

// FetchItems fetches a page of the flat library listing:
// GET /library/sections/{key}/all. The home context has no flat listing
// and returns empty.
func (c *Client) FetchItems(ctx context.Context, feedContext string, offset, limit int) ([]models.ContentItem, int, error) {
	key, ok := sectionKey(feedContext)
	if !ok {
		return nil, 0, nil
	}

	var resp models.PlexLibraryContentResponse
	path := "/library/sections/" + key + "/all"
	if err := c.doJSONRequest(ctx, "library", path, containerQuery(offset, limit), &resp); err != nil {
		return nil, 0, fmt.Errorf("fetch items for %s: %w", feedContext, err)
	}

	container := resp.MediaContainer
	return models.ToContentItems(container.Metadata), container.TotalSize, nil
}

// plexHubPageResponse covers both shapes a hub continuation fetch can
// return: a plain Metadata container (library hub keys) or a single-hub
// container (home hub keys).
type plexHubPageResponse struct {
	MediaContainer struct {
		Size      int                   `json:"size"`
		TotalSize int                   `json:"totalSize,omitempty"`
		Offset    int                   `json:"offset,omitempty"`
		Metadata  []models.PlexMetadata `json:"Metadata,omitempty"`
		Hub       []models.PlexHub      `json:"Hub,omitempty"`
	} `json:"MediaContainer"`
}

// FetchHubPage fetches a continuation page of one hub using its page key.
func (c *Client) FetchHubPage(ctx context.Context, pageKey string, offset, limit int) ([]models.ContentItem, int, error) {
	var resp plexHubPageResponse
	if err := c.doJSONRequest(ctx, "hub_page", pageKey, containerQuery(offset, limit), &resp); err != nil {
		return nil, 0, fmt.Errorf("fetch hub page %s: %w", pageKey, err)
	}

	container := resp.MediaContainer
	metadata := container.Metadata
	totalSize := container.TotalSize
	if len(metadata) == 0 && len(container.Hub) > 0 {
		metadata = container.Hub[0].Metadata
	}

	return models.ToContentItems(metadata), totalSize, nil
}
