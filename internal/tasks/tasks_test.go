package tasks

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/shared"
	th "github.com/desertthunder/rbcopy/internal/testing"
)

func newTestEngine(opts CopyEngineOpts) *CopyEngine {
	opts.Logger = log.New(io.Discard)
	return NewCopyEngine(opts)
}

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-progress:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestCopyEngine_Copy(t *testing.T) {
	t.Run("second source missing", func(t *testing.T) {
		src := t.TempDir()
		out := filepath.Join(t.TempDir(), "nested", "out")

		present := filepath.Join(src, "one more time.mp3")
		th.WriteFile(t, present, "audio-1")

		tracks := []models.Track{
			{ID: "1", Artist: "Daft Punk", Name: "One More Time", Location: present},
			{ID: "2", Artist: "Ghost", Name: "Gone", Location: filepath.Join(src, "gone.mp3")},
		}

		progress := make(chan ProgressUpdate, len(tracks)+2)
		result, err := newTestEngine(CopyEngineOpts{PreserveTimes: true}).Copy(context.Background(), progress, tracks, out)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}

		if result.Successful != 1 || result.Failed != 1 || result.Total != 2 {
			t.Errorf("unexpected counters ok=%d failed=%d total=%d", result.Successful, result.Failed, result.Total)
		}

		dest := filepath.Join(out, "001 - Daft Punk - One More Time.mp3")
		th.AssertFileExists(t, dest)
		if got := th.MustReadFile(t, dest); got != "audio-1" {
			t.Errorf("unexpected copied content %q", got)
		}
		th.AssertFileNotExists(t, filepath.Join(out, "002 - Ghost - Gone.mp3"))

		if !result.Items[1].Missing() {
			t.Errorf("expected second item to be missing, got %v", result.Items[1].Err)
		}
		if result.Items[1].Status() != models.ItemMissing {
			t.Errorf("expected missing status, got %s", result.Items[1].Status())
		}
		if !filepath.IsAbs(result.OutputDir) {
			t.Errorf("expected absolute output dir, got %s", result.OutputDir)
		}

		updates := drain(progress)
		if len(updates) != 4 {
			t.Fatalf("expected 4 progress updates, got %d", len(updates))
		}
		if updates[0].Phase != PrepareOutput || updates[3].Phase != Complete {
			t.Errorf("unexpected phases %v ... %v", updates[0].Phase, updates[3].Phase)
		}
		if !strings.HasPrefix(updates[1].Message, "✓ Track 1: Daft Punk - One More Time") {
			t.Errorf("unexpected success message %q", updates[1].Message)
		}
		if !strings.HasPrefix(updates[2].Message, "✗ Track 2: File not found - ") {
			t.Errorf("unexpected missing message %q", updates[2].Message)
		}
	})

	t.Run("preserves modification time and mode", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "a.flac")
		th.WriteFile(t, src, "flac")
		if err := os.Chmod(src, 0600); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		mtime := time.Date(2020, 5, 17, 21, 0, 0, 0, time.UTC)
		if err := os.Chtimes(src, mtime, mtime); err != nil {
			t.Fatalf("chtimes: %v", err)
		}

		out := t.TempDir()
		result, err := newTestEngine(CopyEngineOpts{PreserveTimes: true}).Copy(context.Background(), nil,
			[]models.Track{{ID: "1", Artist: "A", Name: "B", Location: src}}, out)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}

		info, err := os.Stat(result.Items[0].Destination)
		if err != nil {
			t.Fatalf("stat destination: %v", err)
		}
		if !info.ModTime().Equal(mtime) {
			t.Errorf("ModTime = %v, want %v", info.ModTime(), mtime)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("Mode = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("copy error recorded and batch continues", func(t *testing.T) {
		src := t.TempDir()
		dirSource := filepath.Join(src, "folder.mp3")
		if err := os.Mkdir(dirSource, 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		ok := filepath.Join(src, "ok.mp3")
		th.WriteFile(t, ok, "ok")

		tracks := []models.Track{
			{ID: "1", Artist: "A", Name: "Dir", Location: dirSource},
			{ID: "2", Artist: "B", Name: "Ok", Location: ok},
		}

		out := t.TempDir()
		result, err := newTestEngine(CopyEngineOpts{}).Copy(context.Background(), nil, tracks, out)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}

		if result.Successful != 1 || result.Failed != 1 {
			t.Errorf("unexpected counters ok=%d failed=%d", result.Successful, result.Failed)
		}
		first := result.Items[0]
		if !errors.Is(first.Err, shared.ErrCopyFailed) || first.Status() != models.ItemFailed {
			t.Errorf("expected copy failure, got %v", first.Err)
		}
		if strings.HasPrefix(first.Reason(), shared.ErrCopyFailed.Error()) {
			t.Errorf("reason should not repeat the sentinel: %q", first.Reason())
		}
		th.AssertFileExists(t, filepath.Join(out, "002 - B - Ok.mp3"))
	})

	t.Run("output folder already exists", func(t *testing.T) {
		out := t.TempDir()
		result, err := newTestEngine(CopyEngineOpts{}).Copy(context.Background(), nil, nil, out)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if result.Total != 0 || len(result.Items) != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
	})

	t.Run("output folder cannot be created", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		th.WriteFile(t, blocker, "x")

		_, err := newTestEngine(CopyEngineOpts{}).Copy(context.Background(), nil, nil, filepath.Join(blocker, "out"))
		if err == nil {
			t.Error("expected error when output folder is under a file")
		}
	})

	t.Run("cancelled context stops the run", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "a.mp3")
		th.WriteFile(t, src, "a")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := newTestEngine(CopyEngineOpts{}).Copy(ctx, nil,
			[]models.Track{{ID: "1", Artist: "A", Name: "B", Location: src}}, t.TempDir())
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(result.Items) != 0 {
			t.Errorf("expected no items attempted, got %d", len(result.Items))
		}
	})

	t.Run("rate limited copies still complete", func(t *testing.T) {
		src := t.TempDir()
		var tracks []models.Track
		for _, name := range []string{"a", "b", "c"} {
			path := filepath.Join(src, name+".mp3")
			th.WriteFile(t, path, name)
			tracks = append(tracks, models.Track{ID: name, Artist: "X", Name: name, Location: path})
		}

		result, err := newTestEngine(CopyEngineOpts{RateLimit: 100}).Copy(context.Background(), nil, tracks, t.TempDir())
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if result.Successful != 3 {
			t.Errorf("expected 3 copies, got %d", result.Successful)
		}
	})

	t.Run("source already at destination is left intact", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "001 - A - B.mp3")
		th.WriteFile(t, src, "original audio")

		result, err := newTestEngine(CopyEngineOpts{PreserveTimes: true}).Copy(context.Background(), nil,
			[]models.Track{{ID: "1", Artist: "A", Name: "B", Location: src}}, dir)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}

		if result.Successful != 0 || result.Failed != 1 {
			t.Errorf("unexpected counters ok=%d failed=%d", result.Successful, result.Failed)
		}
		item := result.Items[0]
		if !errors.Is(item.Err, shared.ErrCopyFailed) || item.Status() != models.ItemFailed {
			t.Errorf("expected copy failure, got %v", item.Err)
		}
		if !strings.Contains(item.Reason(), "same file") {
			t.Errorf("unexpected reason %q", item.Reason())
		}
		if got := th.MustReadFile(t, src); got != "original audio" {
			t.Errorf("source changed to %q", got)
		}
	})

	t.Run("existing destination is replaced", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "a.mp3")
		th.WriteFile(t, src, "new")

		out := t.TempDir()
		dest := filepath.Join(out, "001 - A - B.mp3")
		th.WriteFile(t, dest, "stale content from an earlier run")

		result, err := newTestEngine(CopyEngineOpts{}).Copy(context.Background(), nil,
			[]models.Track{{ID: "1", Artist: "A", Name: "B", Location: src}}, out)
		if err != nil || result.Successful != 1 {
			t.Fatalf("Copy() = %+v, %v", result, err)
		}
		if got := th.MustReadFile(t, dest); got != "new" {
			t.Errorf("destination = %q, want %q", got, "new")
		}

		entries, err := os.ReadDir(out)
		if err != nil {
			t.Fatalf("read output dir: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the copied file, got %d entries", len(entries))
		}
	})

	t.Run("destination occupied by a folder", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "a.mp3")
		th.WriteFile(t, src, "a")

		out := t.TempDir()
		th.WriteFile(t, filepath.Join(out, "001 - A - B.mp3", "keep.txt"), "keep")

		result, err := newTestEngine(CopyEngineOpts{}).Copy(context.Background(), nil,
			[]models.Track{{ID: "1", Artist: "A", Name: "B", Location: src}}, out)
		if err != nil {
			t.Fatalf("Copy() error = %v", err)
		}
		if result.Failed != 1 || !errors.Is(result.Items[0].Err, shared.ErrCopyFailed) {
			t.Errorf("expected copy failure, got %+v", result.Items[0])
		}

		matches, _ := filepath.Glob(filepath.Join(out, ".rbcopy-*"))
		if len(matches) != 0 {
			t.Errorf("temporary files left behind: %v", matches)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "a.mp3")
		th.WriteFile(t, src, "a")

		progress := make(chan ProgressUpdate)
		result, err := newTestEngine(CopyEngineOpts{}).Copy(context.Background(), progress,
			[]models.Track{{ID: "1", Artist: "A", Name: "B", Location: src}}, t.TempDir())
		if err != nil || result.Successful != 1 {
			t.Fatalf("Copy() = %+v, %v", result, err)
		}
	})
}

func TestCopyResult_Records(t *testing.T) {
	result := &CopyResult{
		Items: []CopyItemResult{
			{Position: 1, Track: models.Track{ID: "1", Artist: "A", Name: "B", Location: "/a"}, Destination: "/out/001"},
			{Position: 2, Track: models.Track{ID: "2"}, Err: errors.Join(shared.ErrSourceMissing)},
		},
	}

	records := result.Records()
	if records[0].Status != models.ItemCopied || records[0].Error != "" {
		t.Errorf("unexpected first record %+v", records[0])
	}
	if records[1].Status != models.ItemMissing {
		t.Errorf("unexpected second record %+v", records[1])
	}
}
