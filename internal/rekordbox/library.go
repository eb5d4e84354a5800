package rekordbox

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/shared"
)

// Node types used in the PLAYLISTS tree.
const (
	NodeFolder   = "0"
	NodePlaylist = "1"
)

// Playlist key types. Rekordbox writes "0" when TRACK Key holds a TrackID and "1" when it holds a Location.
const (
	KeyTrackID  = "0"
	KeyLocation = "1"
)

// Product describes the software that wrote the export.
type Product struct {
	Name    string `xml:"Name,attr"`
	Version string `xml:"Version,attr"`
	Company string `xml:"Company,attr"`
}

// Node is a folder or playlist in the PLAYLISTS tree.
type Node struct {
	Type    string     `xml:"Type,attr"`
	Name    string     `xml:"Name,attr"`
	KeyType string     `xml:"KeyType,attr"`
	Nodes   []*Node    `xml:"NODE"`
	Tracks  []TrackRef `xml:"TRACK"`
}

// IsFolder reports whether n only groups other nodes.
func (n *Node) IsFolder() bool { return n.Type == NodeFolder }

// IsPlaylist reports whether n holds track references.
func (n *Node) IsPlaylist() bool { return n.Type == NodePlaylist }

// TrackRef is a playlist's reference to a collection entry.
type TrackRef struct {
	Key string `xml:"Key,attr"`
}

type collectionTrack struct {
	TrackID   string  `xml:"TrackID,attr"`
	Location  *string `xml:"Location,attr"`
	Name      *string `xml:"Name,attr"`
	Artist    *string `xml:"Artist,attr"`
	Album     string  `xml:"Album,attr"`
	Kind      string  `xml:"Kind,attr"`
	TotalTime string  `xml:"TotalTime,attr"`
}

type collection struct {
	Entries string            `xml:"Entries,attr"`
	Tracks  []collectionTrack `xml:"TRACK"`
}

// document mirrors the export. The root element name is not enforced.
type document struct {
	Version    string      `xml:"Version,attr"`
	Product    Product     `xml:"PRODUCT"`
	Collection *collection `xml:"COLLECTION"`
	Playlists  *Node       `xml:"PLAYLISTS"`
}

// Library is a decoded export with its lookup tables built.
type Library struct {
	Path    string
	Version string
	Product Product
	Entries int // declared by COLLECTION, may differ from len(Tracks())

	tracks        map[string]models.Track
	byLocation    map[string]models.Track
	playlists     map[string]*Node
	hasPlaylists  bool
	skippedTracks int
	logger        *log.Logger
}

// Option configures [Load] and [Parse].
type Option func(*Library)

// WithLogger sets the logger used to report parse findings.
func WithLogger(l *log.Logger) Option {
	return func(lib *Library) { lib.logger = l }
}

// PlaylistNotFoundError is returned when a playlist name is not in the library.
// Available lists every playlist name, sorted.
type PlaylistNotFoundError struct {
	Name      string
	Available []string
}

func (e *PlaylistNotFoundError) Error() string {
	return fmt.Sprintf("%v: %q", shared.ErrPlaylistNotFound, e.Name)
}

func (e *PlaylistNotFoundError) Unwrap() error { return shared.ErrPlaylistNotFound }

// Load reads and decodes the export at path.
func Load(path string, opts ...Option) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrLibraryNotFound, path)
		}
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	defer f.Close()

	lib, err := Parse(f, opts...)
	if err != nil {
		return nil, err
	}
	lib.Path = path
	return lib, nil
}

// Parse decodes an export from r and builds the track table and playlist map.
func Parse(r io.Reader, opts ...Option) (*Library, error) {
	var doc document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedLibrary, err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedLibrary, err)
	}

	lib := &Library{
		Version:    doc.Version,
		Product:    doc.Product,
		tracks:     make(map[string]models.Track),
		byLocation: make(map[string]models.Track),
		playlists:  make(map[string]*Node),
	}
	for _, opt := range opts {
		opt(lib)
	}
	if lib.logger == nil {
		lib.logger = log.Default()
	}

	if doc.Collection != nil {
		lib.Entries, _ = strconv.Atoi(doc.Collection.Entries)
		lib.indexTracks(doc.Collection.Tracks)
	}

	if doc.Playlists == nil {
		lib.logger.Warn("no playlists found in library")
	} else {
		lib.hasPlaylists = true
		lib.flatten(doc.Playlists, "")
	}

	lib.logger.Debug("library parsed",
		"tracks", len(lib.tracks),
		"skipped", lib.skippedTracks,
		"playlists", len(lib.playlists),
	)
	return lib, nil
}

// indexTracks builds the id -> record table. Entries without a Location are skipped.
func (l *Library) indexTracks(entries []collectionTrack) {
	for _, entry := range entries {
		if entry.Location == nil || *entry.Location == "" {
			l.skippedTracks++
			continue
		}

		track := models.Track{
			ID:       entry.TrackID,
			Location: DecodeLocation(*entry.Location),
			Name:     valueOr(entry.Name, models.UnknownField),
			Artist:   valueOr(entry.Artist, models.UnknownField),
			Album:    entry.Album,
			Kind:     entry.Kind,
		}
		track.TotalTime, _ = strconv.Atoi(entry.TotalTime)

		l.tracks[track.ID] = track
		l.byLocation[*entry.Location] = track
	}
}

// flatten walks node's children depth first, registering playlists under their slash-joined path.
func (l *Library) flatten(node *Node, prefix string) {
	for _, child := range node.Nodes {
		switch {
		case child.IsFolder():
			l.flatten(child, prefix+child.Name+"/")
		case child.IsPlaylist():
			l.playlists[prefix+child.Name] = child
		}
	}
}

// HasPlaylistRoot reports whether the export contained a PLAYLISTS element.
func (l *Library) HasPlaylistRoot() bool { return l.hasPlaylists }

// SkippedTracks is the number of collection entries dropped for lacking a Location.
func (l *Library) SkippedTracks() int { return l.skippedTracks }

// Tracks returns the track table keyed by TrackID.
func (l *Library) Tracks() map[string]models.Track { return l.tracks }

// Playlists returns the flattened playlist map keyed by full name.
func (l *Library) Playlists() map[string]*Node { return l.playlists }

// PlaylistNames returns all playlist names sorted alphabetically.
func (l *Library) PlaylistNames() []string {
	names := make([]string, 0, len(l.playlists))
	for name := range l.playlists {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TracksFromPlaylist resolves the named playlist into its ordered track records.
//
// An unknown name yields an empty list and a [*PlaylistNotFoundError].
func (l *Library) TracksFromPlaylist(name string) ([]models.Track, error) {
	node, ok := l.playlists[name]
	if !ok {
		return []models.Track{}, &PlaylistNotFoundError{Name: name, Available: l.PlaylistNames()}
	}
	return l.Resolve(node), nil
}

// Playlist resolves the named playlist into a [models.Playlist].
func (l *Library) Playlist(name string) (*models.Playlist, error) {
	tracks, err := l.TracksFromPlaylist(name)
	if err != nil {
		return nil, err
	}
	return &models.Playlist{Name: name, Tracks: tracks}, nil
}

// Resolve joins node's track references with the track table, keeping playlist order.
// References with no matching record are dropped.
func (l *Library) Resolve(node *Node) []models.Track {
	table := l.tracks
	if node.KeyType == KeyLocation {
		table = l.byLocation
	}

	resolved := make([]models.Track, 0, len(node.Tracks))
	dropped := 0
	for _, ref := range node.Tracks {
		track, ok := table[ref.Key]
		if !ok {
			dropped++
			continue
		}
		resolved = append(resolved, track)
	}

	if dropped > 0 {
		l.logger.Debug("dropped unresolvable track references", "playlist", node.Name, "count", dropped)
	}
	return resolved
}

// SelectPlaylist maps user input onto a playlist name.
//
// A number is treated as a 1-based index into [Library.PlaylistNames]; anything else is
// returned unchanged as a literal name. An index out of range yields [shared.ErrInvalidSelection].
func (l *Library) SelectPlaylist(selection string) (string, error) {
	selection = strings.TrimSpace(selection)
	idx, err := strconv.Atoi(selection)
	if err != nil {
		return selection, nil
	}

	names := l.PlaylistNames()
	if idx < 1 || idx > len(names) {
		return "", fmt.Errorf("%w: %d (expected 1-%d)", shared.ErrInvalidSelection, idx, len(names))
	}
	return names[idx-1], nil
}

// expectEOF consumes what follows the root element. Only whitespace, comments and
// processing instructions may appear there.
func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return errors.New("junk after document element")
			}
		default:
			return errors.New("junk after document element")
		}
	}
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
