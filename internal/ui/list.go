package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
}

// trackItem wraps [models.Track] and its playlist position to implement [list.Item].
type trackItem struct {
	position int
	track    models.Track
}

func (i trackItem) FilterValue() string { return i.track.DisplayName() }
func (i trackItem) Title() string {
	return fmt.Sprintf("%03d. %s", i.position, i.track.DisplayName())
}
func (i trackItem) Description() string {
	desc := i.track.Location
	if i.track.TotalTime > 0 {
		desc = fmt.Sprintf("%s • %s", shared.FormatDuration(i.track.TotalTime), desc)
	}
	return desc
}
