// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing listening data:
//  1. [MenuView] : Choose a dataset to explore
//  2. [TrackListView] : Browse top tracks for the configured time range
//  3. [ArtistListView] : Browse top artists with their genres
//  4. [StatsView] : View the computed listening statistics report
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Data loads lazily when a menu entry is selected, so the provider is only hit for views the user opens.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
