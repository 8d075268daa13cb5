// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package focus tracks the last focused element per navigational scope so
// a remote-control UI can restore position when the user returns to a
// screen. Focus reports from an inactive scope are dropped: offscreen
// views re-gaining framework focus during transitions must not clobber
// the record the user actually left behind.
package focus

import (
	"sync"

	"github.com/tomtom215/deckhand/internal/logging"
	"github.com/tomtom215/deckhand/internal/models"
)

// Listener receives the restore target when a scope becomes active. ok is
// false when the scope has no stored record; the consumer then falls back
// to its scope default.
type Listener func(scope models.FocusScope, record models.FocusRecord, ok bool)

// Manager is the process-wide focus registry. Safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	active    models.FocusScope
	records   map[models.FocusScope]models.FocusRecord
	listeners []Listener
}

// NewManager creates a manager with the content scope active.
func NewManager() *Manager {
	return &Manager{
		active:  models.FocusScopeContent,
		records: make(map[models.FocusScope]models.FocusRecord),
	}
}

// Subscribe registers a listener fired on every scope activation.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// SetFocus records a focus change within a scope. Reports for an inactive
// scope are ignored; the return value says whether the record was stored.
func (m *Manager) SetFocus(itemID, feedContext string, scope models.FocusScope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if scope != m.active {
		logging.Trace().Str("scope", string(scope)).Str("item", itemID).Msg("focus report from inactive scope dropped")
		return false
	}
	m.records[scope] = models.FocusRecord{ItemID: itemID, Context: feedContext}
	return true
}

// RestoreTarget returns the stored record for a scope, if any.
func (m *Manager) RestoreTarget(scope models.FocusScope) (models.FocusRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[scope]
	return rec, ok
}

// IsScopeActive reports whether scope currently owns input focus.
func (m *Manager) IsScopeActive(scope models.FocusScope) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return scope == m.active
}

// ActiveScope returns the scope that currently owns input focus.
func (m *Manager) ActiveScope() models.FocusScope {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// ActivateScope makes scope the active one and fires the restore event
// with its stored record. Re-activating the already-active scope still
// fires, matching a screen re-entry. Listeners run without the manager
// lock held.
func (m *Manager) ActivateScope(scope models.FocusScope) {
	m.mu.Lock()
	m.active = scope
	rec, ok := m.records[scope]
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l(scope, rec, ok)
	}
}
