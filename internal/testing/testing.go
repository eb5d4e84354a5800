// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// LibraryTrack describes a COLLECTION entry for [LibraryXML].
// An empty Location omits the attribute.
type LibraryTrack struct {
	ID       string
	Name     string
	Artist   string
	Location string
}

// LibraryPlaylist describes a playlist for [LibraryXML]. Folders are taken from the
// slash-separated Path, so "Sets/Friday" nests Friday inside a Sets folder.
type LibraryPlaylist struct {
	Path string
	Keys []string
}

// LibraryXML renders a minimal Rekordbox export with the given tracks and playlists.
//
// Playlists sharing a folder prefix are grouped under the same folder node, in order of first appearance.
func LibraryXML(tracks []LibraryTrack, playlists []LibraryPlaylist) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<DJ_PLAYLISTS Version="1.0.0">` + "\n")
	b.WriteString(`  <PRODUCT Name="rekordbox" Version="6.8.2" Company="AlphaTheta"/>` + "\n")
	fmt.Fprintf(&b, "  <COLLECTION Entries=\"%d\">\n", len(tracks))
	for _, tr := range tracks {
		fmt.Fprintf(&b, `    <TRACK TrackID="%s" Name="%s" Artist="%s"`, attr(tr.ID), attr(tr.Name), attr(tr.Artist))
		if tr.Location != "" {
			fmt.Fprintf(&b, ` Location="%s"`, attr(tr.Location))
		}
		b.WriteString("/>\n")
	}
	b.WriteString("  </COLLECTION>\n")

	if playlists != nil {
		root := &folder{name: "ROOT"}
		for _, pl := range playlists {
			root.add(strings.Split(pl.Path, "/"), pl.Keys)
		}
		b.WriteString("  <PLAYLISTS>\n")
		root.write(&b, "    ")
		b.WriteString("  </PLAYLISTS>\n")
	}

	b.WriteString("</DJ_PLAYLISTS>\n")
	return b.String()
}

type folder struct {
	name     string
	keys     []string
	playlist bool
	children []*folder
}

func (f *folder) add(segments []string, keys []string) {
	if len(segments) == 1 {
		f.children = append(f.children, &folder{name: segments[0], keys: keys, playlist: true})
		return
	}
	for _, c := range f.children {
		if !c.playlist && c.name == segments[0] {
			c.add(segments[1:], keys)
			return
		}
	}
	child := &folder{name: segments[0]}
	f.children = append(f.children, child)
	child.add(segments[1:], keys)
}

func (f *folder) write(b *strings.Builder, indent string) {
	if f.playlist {
		fmt.Fprintf(b, "%s<NODE Type=\"1\" Name=\"%s\" KeyType=\"0\" Entries=\"%d\">\n", indent, attr(f.name), len(f.keys))
		for _, k := range f.keys {
			fmt.Fprintf(b, "%s  <TRACK Key=\"%s\"/>\n", indent, attr(k))
		}
		fmt.Fprintf(b, "%s</NODE>\n", indent)
		return
	}
	fmt.Fprintf(b, "%s<NODE Type=\"0\" Name=\"%s\" Count=\"%d\">\n", indent, attr(f.name), len(f.children))
	for _, c := range f.children {
		c.write(b, indent+"  ")
	}
	fmt.Fprintf(b, "%s</NODE>\n", indent)
}

func attr(s string) string { return html.EscapeString(s) }

// FileURL encodes path the way Rekordbox stores Location attributes.
func FileURL(path string) string {
	return "file://localhost" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
}

// WriteLibrary writes a library export into dir and returns its path.
func WriteLibrary(t *testing.T, dir string, tracks []LibraryTrack, playlists []LibraryPlaylist) string {
	t.Helper()
	path := filepath.Join(dir, "rekordbox.xml")
	WriteFile(t, path, LibraryXML(tracks, playlists))
	return path
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
