package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Library errors
	ErrLibraryNotFound  = fmt.Errorf("library file not found")
	ErrMalformedLibrary = fmt.Errorf("malformed library XML")
	ErrNoPlaylists      = fmt.Errorf("no playlists found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrEmptyPlaylist    = fmt.Errorf("no tracks found in playlist")

	// Copy errors
	ErrSourceMissing = fmt.Errorf("source file not found")
	ErrCopyFailed    = fmt.Errorf("copy failed")

	// Persistence errors
	ErrRunNotFound = fmt.Errorf("copy run not found")

	// Input validation errors
	ErrInvalidSelection = fmt.Errorf("invalid selection")
	ErrMissingArgument  = fmt.Errorf("missing required argument")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrNotTerminal      = fmt.Errorf("not a terminal")
)
