// Package ui implements an interactive listening-statistics dashboard using bubbletea's Elm architecture.
//
// The TUI is a row of tabs over a single loaded [tasks.Dashboard]:
//  1. [ArtistsTab] : Top artists for the selected time range
//  2. [TracksTab] : Top tracks
//  3. [GenresTab] : Genres aggregated from the top artists
//  4. [RecentTab] : Recently played tracks
//  5. [PlaylistsTab] : The user's playlists
//  6. [SearchTab] : Debounced catalog search
//  7. [MineTab] : The curated "my playlist" scratch list
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Load progress flows through a channel from the StatsEngine; search results arrive from a [tasks.Searcher] and are
// dropped unless their generation is still current.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, tab, a/d, s, r, q) with contextual help displayed via
// charmbracelet/bubbles/help. Every list supports bubbles' built-in "/" filtering.
package ui
