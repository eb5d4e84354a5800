// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for copying a playlist out of a library export:
//  1. [PlaylistListView] : Browse and select flattened playlists
//  2. [TrackListView] : Preview resolved tracks before copying
//  3. [ConfirmView] : Confirm the copy and its output folder
//  4. [CopyView] : Monitor real-time progress updates
//  5. [ResultView] : Display copy counts and tracks that could not be copied
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the CopyEngine, providing non-blocking status reporting during copies.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
