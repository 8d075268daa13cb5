// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package models

// MediaType identifies the kind of media entity a ContentItem describes.
type MediaType string

// Media types as reported by Plex Media Server.
const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeShow    MediaType = "show"
	MediaTypeSeason  MediaType = "season"
	MediaTypeEpisode MediaType = "episode"
	MediaTypeArtist  MediaType = "artist"
	MediaTypeAlbum   MediaType = "album"
	MediaTypeTrack   MediaType = "track"
	MediaTypeClip    MediaType = "clip"
)

// ContentItem describes a single media entity in a feed.
//
// ID is the Plex rating key and is globally unique within one server
// session. Timestamps are epoch seconds; durations and offsets are
// milliseconds. Display metadata (titles, artwork paths) is opaque payload
// carried through for the rendering front-end.
type ContentItem struct {
	ID   string    `json:"id"`
	Type MediaType `json:"type"`

	// Watch state
	AddedAt      int64 `json:"addedAt,omitempty"`
	LastViewedAt int64 `json:"lastViewedAt,omitempty"`
	ViewCount    int   `json:"viewCount,omitempty"`
	ViewOffsetMs int64 `json:"viewOffsetMs,omitempty"`
	DurationMs   int64 `json:"durationMs,omitempty"`

	// Aggregate unwatched counts (shows, seasons, albums)
	LeafCount       int `json:"leafCount,omitempty"`
	ViewedLeafCount int `json:"viewedLeafCount,omitempty"`

	// Display metadata (opaque payload)
	Title            string `json:"title,omitempty"`
	GrandparentTitle string `json:"grandparentTitle,omitempty"`
	ParentTitle      string `json:"parentTitle,omitempty"`
	Year             int    `json:"year,omitempty"`
	Thumb            string `json:"thumb,omitempty"`
	Art              string `json:"art,omitempty"`
	GrandparentThumb string `json:"grandparentThumb,omitempty"`
	GrandparentArt   string `json:"grandparentArt,omitempty"`
	Index            int    `json:"index,omitempty"`
	ParentIndex      int    `json:"parentIndex,omitempty"`
}

// UnwatchedLeafCount returns the number of unwatched child items for
// aggregate types (shows, seasons). Returns 0 when leaf counts are unknown.
func (c ContentItem) UnwatchedLeafCount() int {
	if c.LeafCount <= 0 {
		return 0
	}
	n := c.LeafCount - c.ViewedLeafCount
	if n < 0 {
		return 0
	}
	return n
}

// ItemIDs returns the ordered sequence of item IDs. Two item lists are
// considered equal for refresh purposes when their ID sequences match.
func ItemIDs(items []ContentItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// SameItemOrder reports whether two item lists contain the same IDs in the
// same order. Other field differences are ignored.
func SameItemOrder(a, b []ContentItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
