// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, JSON, M3U)
// and to write the copy manifest and playlist file next to copied tracks.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/desertthunder/rbcopy/internal/tasks"
)

const (
	ManifestFilename = "rbcopy_manifest.json"
	M3UFilename      = "playlist.m3u8"
)

// Format names an export format accepted by [Export].
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatM3U      Format = "m3u"
)

// Formats lists every supported export format.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON, FormatM3U}

// ParseFormat maps s onto a [Format], case-insensitively. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "md" {
		f = FormatMarkdown
	}
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
	return f, nil
}

// Export renders pl in the given format.
func Export(pl *models.Playlist, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(pl)
	case FormatMarkdown:
		return ExportToMarkdown(pl)
	case FormatCSV:
		return ExportToCSV(pl)
	case FormatJSON:
		return ExportToJSON(pl)
	case FormatM3U:
		return ExportToM3U(pl)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts a Playlist to CSV format with columns: Position, ID, Name, Artist, Album, Duration, Location
func ExportToCSV(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Name", "Artist", "Album", "Duration", "Location"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range pl.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.Artist,
			track.Album,
			strconv.Itoa(track.TotalTime),
			track.Location,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Playlist to Markdown format
func ExportToMarkdown(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", pl.Name)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(pl.Tracks))
	fmt.Fprintf(&buf, "**Duration**: %s\n\n", shared.FormatDuration(totalTime(pl)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range pl.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist, track.Name, albumPart, shared.FormatDuration(track.TotalTime))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Playlist to plain text format
func ExportToText(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", pl.Name)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(pl.Tracks))

	for i, track := range pl.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, track.DisplayName())
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Playlist to indented JSON
func ExportToJSON(pl *models.Playlist) ([]byte, error) {
	data, err := shared.MarshalJSON(pl, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToM3U converts a Playlist to an extended M3U list pointing at the source files.
func ExportToM3U(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(&buf, "#PLAYLIST:%s\n", pl.Name)
	for _, track := range pl.Tracks {
		writeEntry(&buf, track, track.Location)
	}
	return buf.Bytes(), nil
}

// writeEntry writes one #EXTINF line and its path. Unknown durations are written as -1.
func writeEntry(buf *bytes.Buffer, track models.Track, path string) {
	duration := track.TotalTime
	if duration <= 0 {
		duration = -1
	}
	fmt.Fprintf(buf, "#EXTINF:%d,%s\n%s\n", duration, track.DisplayName(), path)
}

func totalTime(pl *models.Playlist) int {
	total := 0
	for _, track := range pl.Tracks {
		total += track.TotalTime
	}
	return total
}

// WriteExport renders pl in format and writes it to path.
func WriteExport(pl *models.Playlist, format Format, path string) (string, error) {
	data, err := Export(pl, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return path, nil
}

// Manifest describes a finished copy run. It is written into the output folder.
type Manifest struct {
	Library     string            `json:"library"`
	Playlist    string            `json:"playlist"`
	OutputDir   string            `json:"output_dir"`
	RunID       string            `json:"run_id,omitempty"`
	Total       int               `json:"total"`
	Successful  int               `json:"successful"`
	Failed      int               `json:"failed"`
	GeneratedAt time.Time         `json:"generated_at"`
	Items       []models.CopyItem `json:"items"`
}

// NewManifest builds a [Manifest] from a copy result.
func NewManifest(libraryPath, playlist string, result *tasks.CopyResult) *Manifest {
	return &Manifest{
		Library:     libraryPath,
		Playlist:    playlist,
		OutputDir:   result.OutputDir,
		Total:       result.Total,
		Successful:  result.Successful,
		Failed:      result.Failed,
		GeneratedAt: time.Now().UTC(),
		Items:       result.Records(),
	}
}

// WriteManifest writes m as rbcopy_manifest.json inside dir and returns the file path.
func WriteManifest(m *Manifest, dir string) (string, error) {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(dir, ManifestFilename)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// WriteM3U writes playlist.m3u8 inside the result's output folder, listing the copied files in playlist order.
//
// Paths are relative to the folder so the list keeps working when the folder is moved.
func WriteM3U(playlist string, result *tasks.CopyResult) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(&buf, "#PLAYLIST:%s\n", playlist)
	for _, item := range result.Items {
		if item.Err != nil {
			continue
		}
		writeEntry(&buf, item.Track, filepath.Base(item.Destination))
	}

	path := filepath.Join(result.OutputDir, M3UFilename)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write playlist file: %w", err)
	}
	return path, nil
}
