package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/repositories"
	"github.com/desertthunder/rbcopy/internal/shared"
	"github.com/urfave/cli/v3"
)

type runView struct {
	ID          string            `json:"id"`
	Sequence    int               `json:"sequence"`
	Library     string            `json:"library"`
	Playlist    string            `json:"playlist"`
	OutputDir   string            `json:"output_dir"`
	Total       int               `json:"total"`
	Successful  int               `json:"successful"`
	Failed      int               `json:"failed"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Items       []models.CopyItem `json:"items,omitempty"`
}

func newRunView(run *models.CopyRun) runView {
	return runView{
		ID:          run.ID(),
		Sequence:    run.Sequence(),
		Library:     run.LibraryPath(),
		Playlist:    run.PlaylistName(),
		OutputDir:   run.OutputDir(),
		Total:       run.Total(),
		Successful:  run.Successful(),
		Failed:      run.Failed(),
		StartedAt:   run.StartedAt(),
		CompletedAt: run.CompletedAt(),
		Items:       run.Items(),
	}
}

func (r *Runner) runRepository() (*repositories.RunRepository, func(), error) {
	db, err := r.openDB(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return repositories.NewRunRepository(db), func() { db.Close() }, nil
}

// HistoryList lists recorded copy runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.runRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := repo.List(map[string]any{
		"playlist": cmd.String("playlist"),
		"limit":    cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No copy runs recorded\n")
	}

	r.writePlainHeader("Copy History")
	for _, run := range runs {
		r.writePlain("#%d  %s  %s\n", run.Sequence(), run.StartedAt().Local().Format("2006-01-02 15:04"), run.PlaylistName())
		r.writePlain("    %d/%d copied, %d failed -> %s\n", run.Successful(), run.Total(), run.Failed(), run.OutputDir())
		r.writePlain("    id: %s\n", run.ID())
	}
	return nil
}

// HistoryShow shows one run, looked up by ID or sequence number, with its items.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("id")
	if ref == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.runRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	var run *models.CopyRun
	if seq, convErr := strconv.Atoi(ref); convErr == nil {
		run, err = repo.GetBySequence(seq)
	} else {
		run, err = repo.Get(ref)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newRunView(run), true)
	}

	r.writePlainHeader(fmt.Sprintf("Copy Run #%d", run.Sequence()))
	r.writePlain("ID: %s\n", run.ID())
	r.writePlain("Library: %s\n", run.LibraryPath())
	r.writePlain("Playlist: %s\n", run.PlaylistName())
	r.writePlain("Output folder: %s\n", run.OutputDir())
	r.writePlain("Started: %s\n", run.StartedAt().Local().Format(time.RFC1123))
	if completed := run.CompletedAt(); completed != nil {
		r.writePlain("Completed: %s\n", completed.Local().Format(time.RFC1123))
	} else {
		r.writePlain("Completed: (interrupted)\n")
	}
	r.writePlain("Successfully copied: %d tracks\n", run.Successful())
	r.writePlain("Failed: %d tracks\n\n", run.Failed())

	for _, item := range run.Items() {
		switch item.Status {
		case models.ItemCopied:
			r.writePlain("  ✓ Track %d: %s - %s\n", item.Position, item.Artist, item.Name)
		case models.ItemMissing:
			r.writePlain("  ✗ Track %d: File not found - %s\n", item.Position, item.Source)
		default:
			r.writePlain("  ✗ Track %d: Failed to copy - %s\n", item.Position, item.Error)
		}
	}
	return nil
}
