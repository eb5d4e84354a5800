// package tasks implements the copy executor that materialises a resolved playlist on disk.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/shared"
	"golang.org/x/time/rate"
)

// CopyItemResult is the outcome for one playlist position.
type CopyItemResult struct {
	Position    int          // 1-based playlist position
	Track       models.Track // Source track
	Destination string       // Destination path (set even when the copy failed)
	Err         error        // nil on success; wraps shared.ErrSourceMissing or shared.ErrCopyFailed
}

// Missing reports whether the item failed because its source file does not exist.
func (r CopyItemResult) Missing() bool { return errors.Is(r.Err, shared.ErrSourceMissing) }

// Reason returns the underlying error message without the sentinel prefix.
func (r CopyItemResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	msg := r.Err.Error()
	for _, sentinel := range []error{shared.ErrCopyFailed, shared.ErrSourceMissing} {
		if errors.Is(r.Err, sentinel) {
			return strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}

// Status maps the result onto the persisted [models.ItemStatus].
func (r CopyItemResult) Status() models.ItemStatus {
	switch {
	case r.Err == nil:
		return models.ItemCopied
	case r.Missing():
		return models.ItemMissing
	default:
		return models.ItemFailed
	}
}

// Record converts the result into a [models.CopyItem].
func (r CopyItemResult) Record() models.CopyItem {
	item := models.CopyItem{
		Position:    r.Position,
		TrackID:     r.Track.ID,
		Artist:      r.Track.Artist,
		Name:        r.Track.Name,
		Source:      r.Track.Location,
		Destination: r.Destination,
		Status:      r.Status(),
	}
	if r.Err != nil {
		item.Error = r.Reason()
	}
	return item
}

// CopyResult summarises a copy run.
type CopyResult struct {
	OutputDir  string           // Absolute output folder
	Items      []CopyItemResult // One entry per attempted track, in playlist order
	Successful int              // Number of copied tracks
	Failed     int              // Number of missing or failed tracks
	Total      int              // Number of tracks in the resolved playlist
}

// Records converts every item into a [models.CopyItem].
func (r *CopyResult) Records() []models.CopyItem {
	records := make([]models.CopyItem, len(r.Items))
	for i, item := range r.Items {
		records[i] = item.Record()
	}
	return records
}

// CopyEngineOpts configures a [CopyEngine].
type CopyEngineOpts struct {
	RateLimit     float64     // Files per second; 0 disables throttling
	PreserveTimes bool        // Apply source mode and modification time to each copy
	Logger        *log.Logger // Defaults to a logger on stderr
}

// CopyEngine copies resolved playlists into output folders.
type CopyEngine struct {
	limiter       *rate.Limiter
	preserveTimes bool
	logger        *log.Logger
}

// NewCopyEngine creates a new CopyEngine with the provided options.
func NewCopyEngine(opts CopyEngineOpts) *CopyEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &CopyEngine{
		limiter:       limiter,
		preserveTimes: opts.PreserveTimes,
		logger:        opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CopyEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Copy copies tracks into outputDir, one at a time, in order.
//
// The returned error is non-nil only when the output folder cannot be created or ctx is
// cancelled; per-item failures are recorded in the result.
func (e *CopyEngine) Copy(ctx context.Context, progress chan<- ProgressUpdate, tracks []models.Track, outputDir string) (*CopyResult, error) {
	total := len(tracks)
	e.sendProgress(progress, prepareOutputUpdate(outputDir, total))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	abs, err := filepath.Abs(outputDir)
	if err != nil {
		abs = outputDir
	}

	result := &CopyResult{
		OutputDir: abs,
		Items:     make([]CopyItemResult, 0, total),
		Total:     total,
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		item := e.copyOne(i+1, track, abs)
		result.Items = append(result.Items, item)
		if item.Err == nil {
			result.Successful++
		} else {
			result.Failed++
			e.logger.Debug("track not copied", "position", item.Position, "source", track.Location, "error", item.Err)
		}

		e.sendProgress(progress, itemUpdate(i+1, total, &result.Items[len(result.Items)-1]))
	}

	e.sendProgress(progress, completeUpdate(result))
	return result, nil
}

func (e *CopyEngine) copyOne(position int, track models.Track, outputDir string) CopyItemResult {
	item := CopyItemResult{
		Position:    position,
		Track:       track,
		Destination: filepath.Join(outputDir, DestinationName(position, track)),
	}

	info, err := os.Stat(track.Location)
	if err != nil {
		item.Err = fmt.Errorf("%w: %s", shared.ErrSourceMissing, track.Location)
		return item
	}

	if existing, err := os.Stat(item.Destination); err == nil && os.SameFile(info, existing) {
		item.Err = fmt.Errorf("%w: source and destination are the same file", shared.ErrCopyFailed)
		return item
	}

	if err := copyFile(track.Location, item.Destination, info, e.preserveTimes); err != nil {
		item.Err = fmt.Errorf("%w: %w", shared.ErrCopyFailed, err)
	}
	return item
}

// copyFile copies src into a temporary file next to dst and renames it into place, so an
// interrupted copy never leaves a partial dst. Permission bits and modification time are
// taken from src when preserve is set.
func copyFile(src, dst string, info os.FileInfo, preserve bool) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.CreateTemp(filepath.Dir(dst), ".rbcopy-*.part")
	if err != nil {
		return err
	}
	tmp := out.Name()
	defer os.Remove(tmp)

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	mode := os.FileMode(0644)
	if preserve {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp, mode); err != nil {
		return err
	}
	if preserve {
		if err := os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
			return err
		}
	}
	return os.Rename(tmp, dst)
}
