// Deckhand - Plex Home Feed Engine for 10-foot Clients
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/deckhand

// Package config provides layered configuration loading for Deckhand using
// Koanf v2.
//
// Sources, in order of increasing priority: built-in defaults, an optional
// YAML config file (config.yaml, or CONFIG_PATH), and DECKHAND_* environment
// variables. All settings validate at load time; Load returns an error
// rather than starting with a broken configuration.
package config
