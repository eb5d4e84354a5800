package models

import "fmt"

// UnknownField is the value used for a missing Name or Artist attribute.
const UnknownField = "Unknown"

// Track is a single collection entry from a library export.
//
// Location holds the decoded filesystem path, not the raw file URL.
type Track struct {
	ID        string `json:"id"`
	Location  string `json:"location"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	Kind      string `json:"kind,omitempty"`
	TotalTime int    `json:"total_time,omitempty"` // seconds
}

// DisplayName returns "{artist} - {name}".
func (t Track) DisplayName() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Name)
}

// Playlist is a flattened playlist (folder segments joined with "/") and its resolved tracks in playlist order.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}
