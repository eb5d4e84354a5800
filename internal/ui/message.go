package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsLoaded MsgKind = iota
	MsgTracksLoaded
	MsgProgressUpdate
	MsgCopyComplete
)

type playlistsLoaded struct {
	playlists []models.Playlist
}

type tracksLoaded struct {
	playlist *models.Playlist
	err      error
}

type copyComplete struct {
	result *tasks.CopyResult
	err    error
}

// playlistsLoadedMsg is the constructor for [MsgPlaylistsLoaded]
func playlistsLoadedMsg(playlists []models.Playlist) Msg {
	return Msg{kind: MsgPlaylistsLoaded, data: playlistsLoaded{playlists}}
}

// tracksLoadedMsg is the constructor for [MsgTracksLoaded]
func tracksLoadedMsg(playlist *models.Playlist, err error) Msg {
	return Msg{kind: MsgTracksLoaded, data: tracksLoaded{playlist, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// copyCompleteMsg is the constructor for [MsgCopyComplete]
func copyCompleteMsg(result *tasks.CopyResult, err error) Msg {
	return Msg{kind: MsgCopyComplete, data: copyComplete{result, err}}
}
