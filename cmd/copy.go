package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rbcopy/internal/formatter"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/rekordbox"
	"github.com/desertthunder/rbcopy/internal/repositories"
	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/desertthunder/rbcopy/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Copy is the interactive copy shell. Positional arguments are used when given and
// prompted for otherwise.
//
// Conditions the user can act on (missing file, unknown playlist, bad selection, empty
// playlist) are printed and return nil. Malformed XML and an uncreatable output folder
// are returned as errors.
func (r *Runner) Copy(ctx context.Context, cmd *cli.Command) error {
	rate := r.config.Copy.RateLimit
	if cmd.IsSet("rate") {
		rate = cmd.Float64("rate")
	}
	if rate < 0 {
		return fmt.Errorf("%w: --rate must not be negative", shared.ErrInvalidArgument)
	}

	r.writePlainHeader("Rekordbox Playlist Copier")

	xmlFile := cmd.StringArg("xmlFile")
	if xmlFile == "" {
		answer, err := r.prompt("Enter path to Rekordbox XML file: ")
		if err != nil {
			return err
		}
		xmlFile = answer
	}
	if expanded, err := shared.ExpandHome(xmlFile); err == nil {
		xmlFile = expanded
	}

	if _, err := os.Stat(xmlFile); err != nil || xmlFile == "" {
		r.writePlain("Error: File not found - %s\n", xmlFile)
		return r.stop(fmt.Errorf("%w: %s", shared.ErrLibraryNotFound, xmlFile))
	}

	r.writePlainln("Scanning XML file...")
	lib, err := r.loadLibrary(xmlFile)
	if errors.Is(err, shared.ErrLibraryNotFound) {
		r.writePlain("Error: File not found - %s\n", xmlFile)
		return r.stop(err)
	}
	if err != nil {
		return err
	}

	names := lib.PlaylistNames()
	if len(names) == 0 {
		r.writePlain("No playlists found in XML file\n")
		return r.stop(shared.ErrNoPlaylists)
	}

	r.writePlain("\nFound %d playlist(s):\n\n", len(names))
	for i, name := range names {
		r.writePlain("  %d. %s\n", i+1, name)
	}
	r.writePlain("\n%s\n", rule("-"))

	playlist, ok, err := r.choosePlaylist(lib, cmd.StringArg("playlist"))
	if err != nil || !ok {
		return err
	}

	outputDir := cmd.StringArg("outputFolder")
	if outputDir == "" {
		answer, err := r.prompt("\nEnter output folder (press Enter for Desktop): ")
		if err != nil {
			return err
		}
		outputDir = answer
	}
	if outputDir == "" {
		if outputDir, err = r.config.Output.DefaultFolder(playlist); err != nil {
			return err
		}
	} else if expanded, err := shared.ExpandHome(outputDir); err == nil {
		outputDir = expanded
	}

	return r.copyPlaylist(ctx, lib, playlist, outputDir, copyOptions{
		rate:     rate,
		manifest: cmd.Bool("manifest"),
		m3u:      cmd.Bool("m3u"),
		history:  r.config.Database.History && !cmd.Bool("no-history"),
	})
}

// stop ends the copy shell after a condition that was already reported to the user.
func (r *Runner) stop(reason error) error {
	r.logger.Debug("nothing copied", "reason", reason)
	return nil
}

// choosePlaylist resolves the playlist argument, or prompts for a number or name.
// ok is false when the selection was rejected and reported.
func (r *Runner) choosePlaylist(lib *rekordbox.Library, arg string) (string, bool, error) {
	if arg != "" {
		if _, found := lib.Playlists()[arg]; !found {
			if name, err := lib.SelectPlaylist(arg); err == nil && name != arg {
				r.logger.Debug("playlist argument used as index", "arg", arg, "playlist", name)
				return name, true, nil
			}
		}
		return arg, true, nil
	}

	selection, err := r.prompt("\nEnter playlist number or name: ")
	if err != nil {
		return "", false, err
	}

	name, err := lib.SelectPlaylist(selection)
	if errors.Is(err, shared.ErrInvalidSelection) {
		r.writePlain("Invalid selection\n")
		return "", false, r.stop(err)
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

type copyOptions struct {
	rate     float64
	manifest bool
	m3u      bool
	history  bool
}

// copyPlaylist resolves the playlist, copies its tracks while printing one line per
// track and prints the summary block.
func (r *Runner) copyPlaylist(ctx context.Context, lib *rekordbox.Library, playlist, outputDir string, opts copyOptions) error {
	r.writePlainln("Searching for playlist: %s", playlist)

	tracks, err := lib.TracksFromPlaylist(playlist)
	var notFound *rekordbox.PlaylistNotFoundError
	if errors.As(err, &notFound) {
		r.writePlainln("Playlist '%s' not found!", playlist)
		r.writePlainln("Available playlists:")
		for _, name := range notFound.Available {
			r.writePlain("  - %s\n", name)
		}
	}
	if len(tracks) == 0 {
		r.writePlain("No tracks found in playlist\n")
		if err == nil {
			err = fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, playlist)
		}
		return r.stop(err)
	}

	r.writePlainln("Found %d tracks in playlist", len(tracks))

	recorder := r.beginRun(opts.history, lib.Path, playlist, outputDir)
	defer recorder.close()

	progress := make(chan tasks.ProgressUpdate, len(tracks)+4)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progress {
			if update.Phase == tasks.CopyTracks {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := r.newEngine(opts.rate).Copy(ctx, progress, tracks, outputDir)
	close(progress)
	<-printed

	if result == nil {
		recorder.abandon()
		return err
	}
	if err != nil {
		r.logger.Warn("copy interrupted", "copied", result.Successful, "remaining", result.Total-len(result.Items))
	}

	recorder.finish(result)
	r.writeArtifacts(lib.Path, playlist, result, recorder.id(), opts)

	r.writePlain("\n%s\n", rule("="))
	r.writePlain("Summary:\n")
	r.writePlain("  Successfully copied: %d tracks\n", result.Successful)
	r.writePlain("  Failed: %d tracks\n", result.Failed)
	r.writePlain("  Output folder: %s\n", result.OutputDir)
	r.writePlain("%s\n\n", rule("="))
	return nil
}

// writeArtifacts writes the optional manifest and m3u files. Failures are logged.
func (r *Runner) writeArtifacts(library, playlist string, result *tasks.CopyResult, runID string, opts copyOptions) {
	if opts.manifest {
		manifest := formatter.NewManifest(library, playlist, result)
		manifest.RunID = runID
		if path, err := formatter.WriteManifest(manifest, result.OutputDir); err != nil {
			r.logger.Warn("failed to write manifest", "error", err)
		} else {
			r.logger.Info("manifest written", "path", path)
		}
	}

	if opts.m3u {
		if path, err := formatter.WriteM3U(playlist, result); err != nil {
			r.logger.Warn("failed to write playlist file", "error", err)
		} else {
			r.logger.Info("playlist file written", "path", path)
		}
	}
}

// runRecorder persists one copy run. A nil recorder is valid and records nothing, so
// history failures never stop a copy.
type runRecorder struct {
	db     *sql.DB
	repo   *repositories.RunRepository
	run    *models.CopyRun
	logger *log.Logger
}

func (r *Runner) beginRun(enabled bool, library, playlist, outputDir string) *runRecorder {
	if !enabled {
		return nil
	}

	db, err := r.openDB(r.config.Database)
	if err != nil {
		r.logger.Warn("history disabled for this run", "error", err)
		return nil
	}

	if abs, err := filepath.Abs(outputDir); err == nil {
		outputDir = abs
	}
	if abs, err := filepath.Abs(library); err == nil {
		library = abs
	}

	repo := repositories.NewRunRepository(db)
	run := models.NewCopyRun(0, library, playlist, outputDir)
	if err := repo.Create(run); err != nil {
		r.logger.Warn("failed to record copy run", "error", err)
		db.Close()
		return nil
	}

	return &runRecorder{db: db, repo: repo, run: run, logger: shared.WithLogger(r.logger, "run", run.ID())}
}

func (rec *runRecorder) id() string {
	if rec == nil {
		return ""
	}
	return rec.run.ID()
}

func (rec *runRecorder) finish(result *tasks.CopyResult) {
	if rec == nil {
		return
	}

	rec.run.Complete(result.Records())
	if err := rec.repo.Update(rec.run); err != nil {
		rec.logger.Warn("failed to record copy results", "error", err)
		return
	}
	rec.logger.Debug("copy run recorded", "sequence", rec.run.Sequence())
}

// abandon removes a run that never copied anything.
func (rec *runRecorder) abandon() {
	if rec == nil {
		return
	}
	if err := rec.repo.Delete(rec.run.ID()); err != nil {
		rec.logger.Warn("failed to discard copy run", "error", err)
	}
}

func (rec *runRecorder) close() {
	if rec == nil {
		return
	}
	rec.db.Close()
}
