package rekordbox

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rbcopy/internal/shared"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func loadFixture(t *testing.T) *Library {
	t.Helper()
	lib, err := Load(filepath.Join("testdata", "library.xml"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return lib
}

func trackIDs(lib *Library, name string) ([]string, error) {
	tracks, err := lib.TracksFromPlaylist(name)
	ids := make([]string, 0, len(tracks))
	for _, tr := range tracks {
		ids = append(ids, tr.ID)
	}
	return ids, err
}

func TestLoad(t *testing.T) {
	t.Run("metadata", func(t *testing.T) {
		lib := loadFixture(t)

		if lib.Product.Name != "rekordbox" || lib.Product.Version != "6.8.2" {
			t.Errorf("unexpected product %+v", lib.Product)
		}
		if lib.Entries != 5 {
			t.Errorf("Entries = %d, want 5", lib.Entries)
		}
		if !lib.HasPlaylistRoot() {
			t.Error("expected playlist root")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.xml"))
		if !errors.Is(err, shared.ErrLibraryNotFound) {
			t.Errorf("expected ErrLibraryNotFound, got %v", err)
		}
	})

	t.Run("trailing comments and whitespace accepted", func(t *testing.T) {
		doc := "<?xml version=\"1.0\"?>\n<DJ_PLAYLISTS></DJ_PLAYLISTS>\n<!-- exported -->\n<?app done?>\n"
		if _, err := Parse(strings.NewReader(doc), WithLogger(quietLogger())); err != nil {
			t.Errorf("Parse() error = %v", err)
		}
	})

	t.Run("malformed xml", func(t *testing.T) {
		docs := []string{
			"",
			"<DJ_PLAYLISTS><COLLECTION>",
			"not xml at all <",
			"<DJ_PLAYLISTS><PLAYLISTS><NODE Type=\"0\" Name=\"ROOT\"/></PLAYLISTS></DJ_PLAYLISTS><oops",
			"<DJ_PLAYLISTS></DJ_PLAYLISTS><DJ_PLAYLISTS/>",
			"<DJ_PLAYLISTS></DJ_PLAYLISTS>trailing text",
		}
		for _, doc := range docs {
			_, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
			if !errors.Is(err, shared.ErrMalformedLibrary) {
				t.Errorf("Parse(%q) expected ErrMalformedLibrary, got %v", doc, err)
			}
		}
	})
}

func TestTracks(t *testing.T) {
	lib := loadFixture(t)
	tracks := lib.Tracks()

	if len(tracks) != 4 {
		t.Fatalf("expected 4 tracks with locations, got %d", len(tracks))
	}
	if lib.SkippedTracks() != 1 {
		t.Errorf("SkippedTracks() = %d, want 1", lib.SkippedTracks())
	}
	if _, ok := tracks["4"]; ok {
		t.Error("track without Location should be skipped")
	}

	first := tracks["1"]
	if first.Location != "/Users/dj/Music/One More Time.mp3" {
		t.Errorf("unexpected decoded location %q", first.Location)
	}
	if first.Album != "Discovery" || first.TotalTime != 320 {
		t.Errorf("unexpected optional fields %+v", first)
	}

	untitled := tracks["3"]
	if untitled.Artist != "Unknown" {
		t.Errorf("missing Artist should default to Unknown, got %q", untitled.Artist)
	}
	if untitled.Location != "/Users/dj/Music/untitled.wav" {
		t.Errorf("plain location should be kept, got %q", untitled.Location)
	}

	t.Run("empty attribute is not defaulted", func(t *testing.T) {
		doc := `<DJ_PLAYLISTS><COLLECTION><TRACK TrackID="7" Name="" Artist="X" Location="/a.mp3"/></COLLECTION></DJ_PLAYLISTS>`
		lib, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := lib.Tracks()["7"].Name; got != "" {
			t.Errorf("expected empty name, got %q", got)
		}
	})
}

func TestPlaylists(t *testing.T) {
	t.Run("flattened names", func(t *testing.T) {
		lib := loadFixture(t)

		want := []string{"ROOT/Empty", "ROOT/Sets/Archive/2019", "ROOT/Sets/Friday", "ROOT/Warmup"}
		if got := lib.PlaylistNames(); !slices.Equal(got, want) {
			t.Errorf("PlaylistNames() = %v, want %v", got, want)
		}
		if len(lib.Playlists()) != len(want) {
			t.Errorf("expected %d playlists, got %d", len(want), len(lib.Playlists()))
		}
	})

	t.Run("no playlist root", func(t *testing.T) {
		doc := `<DJ_PLAYLISTS><COLLECTION><TRACK TrackID="1" Location="/a.mp3"/></COLLECTION></DJ_PLAYLISTS>`
		lib, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if lib.HasPlaylistRoot() {
			t.Error("expected no playlist root")
		}
		if len(lib.Playlists()) != 0 {
			t.Errorf("expected empty map, got %v", lib.Playlists())
		}
	})

	t.Run("playlist root must be a child of the document", func(t *testing.T) {
		doc := `<DJ_PLAYLISTS><WRAPPER><PLAYLISTS><NODE Type="1" Name="Hidden"/></PLAYLISTS></WRAPPER></DJ_PLAYLISTS>`
		lib, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if lib.HasPlaylistRoot() || len(lib.PlaylistNames()) != 0 {
			t.Errorf("nested PLAYLISTS should be ignored, got %v", lib.PlaylistNames())
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		doc := `<DJ_PLAYLISTS><PLAYLISTS>
			<NODE Type="0" Name="A"><NODE Type="1" Name="B"><TRACK Key="1"/></NODE></NODE>
			<NODE Type="1" Name="A/B"><TRACK Key="2"/></NODE>
		</PLAYLISTS></DJ_PLAYLISTS>`
		lib, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		node := lib.Playlists()["A/B"]
		if node == nil || len(node.Tracks) != 1 || node.Tracks[0].Key != "2" {
			t.Errorf("expected the later node to win, got %+v", node)
		}
	})

	t.Run("unknown node types ignored", func(t *testing.T) {
		doc := `<DJ_PLAYLISTS><PLAYLISTS>
			<NODE Type="1" Name="Keep"/>
			<NODE Type="4" Name="Smart"/>
		</PLAYLISTS></DJ_PLAYLISTS>`
		lib, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if got := lib.PlaylistNames(); !slices.Equal(got, []string{"Keep"}) {
			t.Errorf("PlaylistNames() = %v", got)
		}
	})

	t.Run("every playlist at any depth is registered", func(t *testing.T) {
		for depth := 1; depth <= 5; depth++ {
			var b strings.Builder
			var want []string
			b.WriteString("<DJ_PLAYLISTS><PLAYLISTS>")
			prefix := ""
			for d := 0; d < depth; d++ {
				folder := fmt.Sprintf("F%d", d)
				fmt.Fprintf(&b, `<NODE Type="0" Name="%s">`, folder)
				prefix += folder + "/"
				for p := 0; p < 2; p++ {
					name := fmt.Sprintf("P%d-%d", d, p)
					fmt.Fprintf(&b, `<NODE Type="1" Name="%s"/>`, name)
					want = append(want, prefix+name)
				}
			}
			b.WriteString(strings.Repeat("</NODE>", depth))
			b.WriteString("</PLAYLISTS></DJ_PLAYLISTS>")

			lib, err := Parse(strings.NewReader(b.String()), WithLogger(quietLogger()))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			slices.Sort(want)
			if got := lib.PlaylistNames(); !slices.Equal(got, want) {
				t.Errorf("depth %d: PlaylistNames() = %v, want %v", depth, got, want)
			}
		}
	})
}

func TestTracksFromPlaylist(t *testing.T) {
	lib := loadFixture(t)

	tc := []struct {
		name     string
		playlist string
		want     []string
	}{
		{name: "drops unresolvable keys and keeps order", playlist: "ROOT/Warmup", want: []string{"2", "1"}},
		{name: "nested folder", playlist: "ROOT/Sets/Friday", want: []string{"5", "3"}},
		{name: "location keys", playlist: "ROOT/Sets/Archive/2019", want: []string{"1"}},
		{name: "empty playlist", playlist: "ROOT/Empty", want: []string{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := trackIDs(lib, tt.playlist)
			if err != nil {
				t.Fatalf("TracksFromPlaylist() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TracksFromPlaylist(%q) = %v, want %v", tt.playlist, got, tt.want)
			}
		})
	}

	t.Run("key type selects the lookup table", func(t *testing.T) {
		loc := "file://localhost/Music/a.mp3"
		doc := `<DJ_PLAYLISTS>
			<COLLECTION><TRACK TrackID="1" Name="A" Artist="X" Location="` + loc + `"/></COLLECTION>
			<PLAYLISTS><NODE Type="0" Name="ROOT">
				<NODE Type="1" Name="ByLocation" KeyType="1"><TRACK Key="` + loc + `"/><TRACK Key="1"/></NODE>
				<NODE Type="1" Name="ByID" KeyType="0"><TRACK Key="` + loc + `"/><TRACK Key="1"/></NODE>
				<NODE Type="1" Name="NoKeyType"><TRACK Key="1"/></NODE>
			</NODE></PLAYLISTS>
		</DJ_PLAYLISTS>`
		lib, err := Parse(strings.NewReader(doc), WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		for _, name := range []string{"ROOT/ByLocation", "ROOT/ByID", "ROOT/NoKeyType"} {
			got, err := trackIDs(lib, name)
			if err != nil {
				t.Fatalf("TracksFromPlaylist(%q) error = %v", name, err)
			}
			if !slices.Equal(got, []string{"1"}) {
				t.Errorf("TracksFromPlaylist(%q) = %v, want [1]", name, got)
			}
		}
	})

	t.Run("unknown playlist lists alternatives", func(t *testing.T) {
		tracks, err := lib.TracksFromPlaylist("Warmup")
		if len(tracks) != 0 {
			t.Errorf("expected empty list, got %v", tracks)
		}

		var notFound *PlaylistNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected PlaylistNotFoundError, got %v", err)
		}
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Error("expected error to wrap ErrPlaylistNotFound")
		}
		if !slices.IsSorted(notFound.Available) || len(notFound.Available) != 4 {
			t.Errorf("expected sorted alternatives, got %v", notFound.Available)
		}
	})

	t.Run("Playlist wraps resolved tracks", func(t *testing.T) {
		pl, err := lib.Playlist("ROOT/Sets/Friday")
		if err != nil {
			t.Fatalf("Playlist() error = %v", err)
		}
		if pl.Name != "ROOT/Sets/Friday" || len(pl.Tracks) != 2 {
			t.Errorf("unexpected playlist %+v", pl)
		}
	})
}

func TestSelectPlaylist(t *testing.T) {
	lib := loadFixture(t)

	tc := []struct {
		name      string
		selection string
		want      string
		wantErr   error
	}{
		{name: "first index", selection: "1", want: "ROOT/Empty"},
		{name: "last index", selection: " 4 ", want: "ROOT/Warmup"},
		{name: "literal name", selection: "ROOT/Sets/Friday", want: "ROOT/Sets/Friday"},
		{name: "unknown literal passes through", selection: "Nope", want: "Nope"},
		{name: "zero", selection: "0", wantErr: shared.ErrInvalidSelection},
		{name: "too large", selection: "5", wantErr: shared.ErrInvalidSelection},
		{name: "negative", selection: "-1", wantErr: shared.ErrInvalidSelection},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.SelectPlaylist(tt.selection)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SelectPlaylist(%q) error = %v, want %v", tt.selection, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectPlaylist(%q) error = %v", tt.selection, err)
			}
			if got != tt.want {
				t.Errorf("SelectPlaylist(%q) = %q, want %q", tt.selection, got, tt.want)
			}
		})
	}
}
