// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

package models

// Hub is a named, independently-paginated collection of content items, e.g.
// "Continue Watching" or "Recently Added Movies".
//
// Identifier is the stable machine key (hubIdentifier in the Plex API) and
// may be absent for some server-generated hubs. PageKey is the opaque key
// used to fetch subsequent pages of this hub; it is distinct from
// Identifier. TotalSize is the server-declared upper bound on item count,
// 0 when unknown.
//
// Hubs arrive in server-declared order. That order is significant and is
// preserved through merging except where merge rules explicitly reorder.
type Hub struct {
	Identifier string        `json:"identifier,omitempty"`
	Title      string        `json:"title"`
	PageKey    string        `json:"pageKey,omitempty"`
	TotalSize  int           `json:"totalSize,omitempty"`
	Items      []ContentItem `json:"items"`
}

// HasPageKey reports whether the hub can be paginated further upstream.
func (h Hub) HasPageKey() bool {
	return h.PageKey != ""
}

// FocusScope identifies an input-focus scope in the 10-foot UI.
type FocusScope string

// Focus scopes. Content covers the feed rows and grids; Sidebar covers the
// navigation chrome.
const (
	FocusScopeContent FocusScope = "content"
	FocusScopeSidebar FocusScope = "sidebar"
)

// FocusRecord is the last focused leaf within a navigational scope: the
// item that held input focus, qualified by the feed context it was focused
// under (empty for chrome elements that are not context-bound).
type FocusRecord struct {
	ItemID  string `json:"itemId"`
	Context string `json:"context,omitempty"`
}
