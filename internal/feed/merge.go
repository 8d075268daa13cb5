// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package feed

import (
	"sort"
	"strings"

	"github.com/tomtom215/deckhand/internal/models"
)

// Category classifies a hub for merge and filter decisions.
type Category int

// Hub categories. Continue-watching, recently-added and recently-released
// are "essential": they are never filtered by the recommendations flag.
const (
	CategoryOther Category = iota
	CategoryContinueWatching
	CategoryRecentlyAdded
	CategoryRecentlyReleased
	CategoryPlaylists
	CategoryMusic
)

// ContinueWatchingIdentifier is the fixed identifier of the synthetic
// merged continue-watching hub.
const ContinueWatchingIdentifier = "continueWatching"

// ContinueWatchingTitle is the display title of the synthetic hub.
const ContinueWatchingTitle = "Continue Watching"

// categoryMarkers maps each category to the substrings that identify it.
// Matching is case-insensitive against both the machine identifier and the
// display title: the upstream source is inconsistent about which field
// carries the signal.
var categoryMarkers = []struct {
	category Category
	markers  []string
}{
	// Order matters: the first matching category wins, and essential
	// categories are tried before music so that "Recently Added Music"
	// classifies as recently-added.
	{CategoryContinueWatching, []string{"continue", "ondeck", "on deck", "inprogress", "in progress"}},
	{CategoryPlaylists, []string{"playlist"}},
	{CategoryRecentlyAdded, []string{"recentlyadded", "recently added", "newest"}},
	{CategoryRecentlyReleased, []string{"recentlyreleased", "recently released", "new release", "newreleases"}},
	{CategoryMusic, []string{"music", "album", "artist", "track"}},
}

// Categorize classifies a hub by case-insensitive substring matching
// against its identifier and title.
func Categorize(hub models.Hub) Category {
	identifier := strings.ToLower(hub.Identifier)
	title := strings.ToLower(hub.Title)

	for _, entry := range categoryMarkers {
		for _, marker := range entry.markers {
			if strings.Contains(identifier, marker) || strings.Contains(title, marker) {
				return entry.category
			}
		}
	}
	return CategoryOther
}

// IsEssential reports whether a hub belongs to a category that is always
// shown: the merged continue-watching hub, recently-added, and
// recently-released.
func IsEssential(hub models.Hub) bool {
	switch Categorize(hub) {
	case CategoryContinueWatching, CategoryRecentlyAdded, CategoryRecentlyReleased:
		return true
	default:
		return false
	}
}

// MergeOptions controls hub filtering during merge.
type MergeOptions struct {
	// ShowRecommendations keeps non-essential discovery hubs.
	ShowRecommendations bool

	// MusicVisible keeps music-category hubs.
	MusicVisible bool
}

// Merge transforms a raw, server-ordered hub list into the deduplicated,
// display-ready hub list. Pure and synchronous; no I/O.
//
// All continue-watching/on-deck hubs are flattened into one synthetic hub
// at position 0, deduplicated by item ID (first occurrence wins across
// hubs) and sorted descending by LastViewedAt (missing treated as 0).
// Playlists are always dropped; music hubs are dropped unless MusicVisible;
// non-essential hubs are dropped unless ShowRecommendations. Remaining hubs
// keep their original relative order, each with duplicate and keyless items
// removed.
//
// Merge is idempotent: merging already-merged output yields the same list.
func Merge(raw []models.Hub, opts MergeOptions) []models.Hub {
	var continueItems []models.ContentItem
	seen := make(map[string]struct{})
	rest := make([]models.Hub, 0, len(raw))

	for _, hub := range raw {
		switch Categorize(hub) {
		case CategoryContinueWatching:
			for _, item := range hub.Items {
				// Items without an ID cannot be deduplicated or paginated
				// safely; they are excluded entirely.
				if item.ID == "" {
					continue
				}
				if _, dup := seen[item.ID]; dup {
					continue
				}
				seen[item.ID] = struct{}{}
				continueItems = append(continueItems, item)
			}

		case CategoryPlaylists:
			// Playlists never render in the feed.

		case CategoryMusic:
			if opts.MusicVisible {
				rest = append(rest, dedupHub(hub))
			}

		case CategoryRecentlyAdded, CategoryRecentlyReleased:
			rest = append(rest, dedupHub(hub))

		default:
			if opts.ShowRecommendations {
				rest = append(rest, dedupHub(hub))
			}
		}
	}

	// Sort descending by last viewed; stable so equal timestamps keep
	// their encounter order.
	sort.SliceStable(continueItems, func(i, j int) bool {
		return continueItems[i].LastViewedAt > continueItems[j].LastViewedAt
	})

	out := make([]models.Hub, 0, len(rest)+1)
	if len(continueItems) > 0 {
		out = append(out, models.Hub{
			Identifier: ContinueWatchingIdentifier,
			Title:      ContinueWatchingTitle,
			TotalSize:  len(continueItems),
			Items:      continueItems,
		})
	}
	return append(out, rest...)
}

// dedupHub returns a copy of the hub with keyless and duplicate items
// removed, first occurrence winning.
func dedupHub(hub models.Hub) models.Hub {
	seen := make(map[string]struct{}, len(hub.Items))
	items := make([]models.ContentItem, 0, len(hub.Items))
	for _, item := range hub.Items {
		if item.ID == "" {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		items = append(items, item)
	}
	hub.Items = items
	return hub
}

// EssentialHubs filters merged output down to the always-shown hubs. The
// grouping of essential vs discovery rows is a presentation decision layered
// over the same merged list.
func EssentialHubs(hubs []models.Hub) []models.Hub {
	out := make([]models.Hub, 0, len(hubs))
	for _, hub := range hubs {
		if IsEssential(hub) {
			out = append(out, hub)
		}
	}
	return out
}

// DiscoveryHubs filters merged output down to the non-essential hubs.
func DiscoveryHubs(hubs []models.Hub) []models.Hub {
	out := make([]models.Hub, 0, len(hubs))
	for _, hub := range hubs {
		if !IsEssential(hub) {
			out = append(out, hub)
		}
	}
	return out
}
