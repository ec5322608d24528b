// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow over the local vault:
//  1. [PlaylistListView] : Browse the caller's playlists
//  2. [SongListView] : Browse the songs in a selected playlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Data loads through tea.Cmd functions hitting the repositories, so the
// event loop never blocks on SQLite.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
