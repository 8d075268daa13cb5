// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package models

// Plex REST API Models
// These structures represent responses from Plex Media Server REST API endpoints
// Documentation: https://plexapi.dev and https://www.plexopedia.com/plex-media-server/api/

// ============================================================================
// Hub Models - GET /hubs, GET /hubs/sections/{id}
// ============================================================================

// PlexHubsResponse represents the response from GET /hubs
// This endpoint returns the personalized home-screen hub list
type PlexHubsResponse struct {
	MediaContainer PlexHubsContainer `json:"MediaContainer"`
}

// PlexHubsContainer wraps the list of hubs
type PlexHubsContainer struct {
	Size      int       `json:"size"`                // Number of hubs returned
	AllowSync bool      `json:"allowSync,omitempty"` // Whether sync is allowed
	Hub       []PlexHub `json:"Hub,omitempty"`       // Hubs in server-declared order
}

// PlexHub represents a single hub (e.g. "Continue Watching", "Recently Added")
type PlexHub struct {
	Key           string         `json:"key,omitempty"`           // API path for fetching more of this hub (e.g. "/hubs/home/continueWatching")
	HubKey        string         `json:"hubKey,omitempty"`        // Metadata key list for the current page
	HubIdentifier string         `json:"hubIdentifier,omitempty"` // Stable machine key (e.g. "home.continue", "movie.recentlyadded")
	Title         string         `json:"title"`                   // Display title
	Type          string         `json:"type,omitempty"`          // Predominant item type ("movie", "show", "mixed")
	Size          int            `json:"size,omitempty"`          // Items in the current page
	More          bool           `json:"more,omitempty"`          // Whether more items are available upstream
	Style         string         `json:"style,omitempty"`         // Suggested presentation style ("shelf", "hero")
	Context       string         `json:"context,omitempty"`       // Hub context string (e.g. "hub.home.continue")
	Metadata      []PlexMetadata `json:"Metadata,omitempty"`      // Items in this hub
}

// ============================================================================
// Library Content Models - GET /library/sections/{id}/all
// ============================================================================

// PlexLibraryContentResponse represents the response from GET /library/sections/{id}/all
// and from hub continuation fetches (both return a Metadata container)
type PlexLibraryContentResponse struct {
	MediaContainer PlexLibraryContentContainer `json:"MediaContainer"`
}

// PlexLibraryContentContainer wraps paginated library content
type PlexLibraryContentContainer struct {
	Size                int            `json:"size"`                          // Number of items returned in this page
	TotalSize           int            `json:"totalSize,omitempty"`           // Total items in the section, when known
	Offset              int            `json:"offset,omitempty"`              // Pagination offset
	LibrarySectionID    int            `json:"librarySectionID,omitempty"`    // Section ID
	LibrarySectionTitle string         `json:"librarySectionTitle,omitempty"` // Section title
	Metadata            []PlexMetadata `json:"Metadata,omitempty"`            // Page of items
}

// PlexMetadata represents a single media item as returned by Plex
type PlexMetadata struct {
	// Primary identifiers
	RatingKey            string `json:"ratingKey"`                      // Plex unique content identifier
	Key                  string `json:"key,omitempty"`                  // Plex metadata key path
	ParentRatingKey      string `json:"parentRatingKey,omitempty"`      // Season/Album rating key
	GrandparentRatingKey string `json:"grandparentRatingKey,omitempty"` // Show/Artist rating key

	// Media type and titles
	Type             string `json:"type"`                       // "movie", "show", "season", "episode", "artist", "album", "track"
	Title            string `json:"title"`                      // Episode/Movie/Song title
	GrandparentTitle string `json:"grandparentTitle,omitempty"` // TV show or artist name
	ParentTitle      string `json:"parentTitle,omitempty"`      // Season or album name

	// Watch state
	AddedAt         int64 `json:"addedAt,omitempty"`         // Unix timestamp when added to library
	LastViewedAt    int64 `json:"lastViewedAt,omitempty"`    // Unix timestamp of last playback
	ViewCount       int   `json:"viewCount,omitempty"`       // Number of completed views
	ViewOffset      int64 `json:"viewOffset,omitempty"`      // Resume position in milliseconds
	Duration        int64 `json:"duration,omitempty"`        // Total duration in milliseconds
	LeafCount       int   `json:"leafCount,omitempty"`       // Child item count (episodes in a show)
	ViewedLeafCount int   `json:"viewedLeafCount,omitempty"` // Watched child item count

	// Episode numbering (for TV shows)
	Index       int `json:"index,omitempty"`       // Episode number
	ParentIndex int `json:"parentIndex,omitempty"` // Season number

	// Display metadata
	Year             int    `json:"year,omitempty"`
	Thumb            string `json:"thumb,omitempty"`            // Thumbnail path
	Art              string `json:"art,omitempty"`              // Background art path
	GrandparentThumb string `json:"grandparentThumb,omitempty"` // Show/Artist thumbnail
	GrandparentArt   string `json:"grandparentArt,omitempty"`   // Show/Artist art
}

// ToContentItem converts a Plex metadata record into the internal
// ContentItem representation. Items without a rating key produce a
// ContentItem with an empty ID; callers that require identity must skip
// those.
func (m PlexMetadata) ToContentItem() ContentItem {
	return ContentItem{
		ID:               m.RatingKey,
		Type:             MediaType(m.Type),
		AddedAt:          m.AddedAt,
		LastViewedAt:     m.LastViewedAt,
		ViewCount:        m.ViewCount,
		ViewOffsetMs:     m.ViewOffset,
		DurationMs:       m.Duration,
		LeafCount:        m.LeafCount,
		ViewedLeafCount:  m.ViewedLeafCount,
		Title:            m.Title,
		GrandparentTitle: m.GrandparentTitle,
		ParentTitle:      m.ParentTitle,
		Year:             m.Year,
		Thumb:            m.Thumb,
		Art:              m.Art,
		GrandparentThumb: m.GrandparentThumb,
		GrandparentArt:   m.GrandparentArt,
		Index:            m.Index,
		ParentIndex:      m.ParentIndex,
	}
}

// ToContentItems converts a page of Plex metadata records, dropping records
// without a rating key (they cannot be deduplicated or paginated safely).
func ToContentItems(metadata []PlexMetadata) []ContentItem {
	items := make([]ContentItem, 0, len(metadata))
	for _, m := range metadata {
		if m.RatingKey == "" {
			continue
		}
		items = append(items, m.ToContentItem())
	}
	return items
}

// ToHub converts a Plex hub into the internal Hub representation. The hub
// Key is carried as PageKey for continuation fetches.
func (h PlexHub) ToHub() Hub {
	items := ToContentItems(h.Metadata)
	totalSize := 0
	if !h.More {
		// Server returned the complete hub in one page.
		totalSize = len(items)
	}
	return Hub{
		Identifier: h.HubIdentifier,
		Title:      h.Title,
		PageKey:    h.Key,
		TotalSize:  totalSize,
		Items:      items,
	}
}
