package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/rbcopy/internal/formatter"
	"github.com/desertthunder/rbcopy/internal/rekordbox"
	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/urfave/cli/v3"
)

type playlistSummary struct {
	Name   string `json:"name"`
	Tracks int    `json:"tracks"`
}

// requireLibrary loads the export named by the xmlFile argument.
func (r *Runner) requireLibrary(cmd *cli.Command) (*rekordbox.Library, error) {
	path := cmd.StringArg("xmlFile")
	if path == "" {
		return nil, fmt.Errorf("%w: xmlFile", shared.ErrMissingArgument)
	}
	if expanded, err := shared.ExpandHome(path); err == nil {
		path = expanded
	}
	return r.loadLibrary(path)
}

// Playlists lists every flattened playlist with its resolved track count.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.requireLibrary(cmd)
	if err != nil {
		return err
	}

	names := lib.PlaylistNames()
	summaries := make([]playlistSummary, len(names))
	for i, name := range names {
		tracks, _ := lib.TracksFromPlaylist(name)
		summaries[i] = playlistSummary{Name: name, Tracks: len(tracks)}
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No playlists found in XML file\n")
	}

	r.writePlain("Found %d playlist(s):\n\n", len(summaries))
	for i, s := range summaries {
		r.writePlain("  %d. %s (%d tracks)\n", i+1, s.Name, s.Tracks)
	}
	return nil
}

// Tracks prints a playlist's resolved tracks in the requested format.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	name := cmd.StringArg("playlist")
	if name == "" {
		return fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}

	lib, err := r.requireLibrary(cmd)
	if err != nil {
		return err
	}

	if selected, err := lib.SelectPlaylist(name); err == nil {
		if _, found := lib.Playlists()[name]; !found {
			name = selected
		}
	}

	playlist, err := lib.Playlist(name)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(playlist, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("export written", "path", written, "format", format, "tracks", len(playlist.Tracks))
		return r.writePlain("Wrote %d tracks to %s\n", len(playlist.Tracks), written)
	}

	data, err := formatter.Export(playlist, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Info shows the export's product metadata and collection size.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.requireLibrary(cmd)
	if err != nil {
		return err
	}

	r.writePlainHeader("Library")
	r.writePlain("File: %s\n", lib.Path)
	if lib.Version != "" {
		r.writePlain("Format version: %s\n", lib.Version)
	}
	if lib.Product.Name != "" {
		r.writePlain("Product: %s %s (%s)\n", lib.Product.Name, lib.Product.Version, lib.Product.Company)
	}
	r.writePlain("Declared entries: %d\n", lib.Entries)
	r.writePlain("Tracks with a location: %d\n", len(lib.Tracks()))
	r.writePlain("Tracks skipped: %d\n", lib.SkippedTracks())
	r.writePlain("Playlists: %d\n", len(lib.Playlists()))
	return nil
}
