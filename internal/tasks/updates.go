package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a copy run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase           // Operation phase
	Step    int             // Current step number within phase
	Total   int             // Total steps in this phase
	Message string          // Human-readable message for display
	Item    *CopyItemResult // Outcome of the item just processed (CopyTracks only)
}

// Operation phase enumeration
type Phase int

const (
	PrepareOutput Phase = iota
	CopyTracks
	Complete
)

func (p Phase) String() string {
	switch p {
	case PrepareOutput:
		return "prepare_output"
	case CopyTracks:
		return "copy_tracks"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func prepareOutputUpdate(dir string, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PrepareOutput,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Preparing output folder %s...", dir),
	}
}

func itemUpdate(step, total int, item *CopyItemResult) ProgressUpdate {
	var msg string
	switch {
	case item.Missing():
		msg = fmt.Sprintf("✗ Track %d: File not found - %s", item.Position, item.Track.Location)
	case item.Err != nil:
		msg = fmt.Sprintf("✗ Track %d: Failed to copy - %s", item.Position, item.Reason())
	default:
		msg = fmt.Sprintf("✓ Track %d: %s", item.Position, item.Track.DisplayName())
	}

	return ProgressUpdate{
		Phase:   CopyTracks,
		Step:    step,
		Total:   total,
		Message: msg,
		Item:    item,
	}
}

func completeUpdate(result *CopyResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Copied %d of %d tracks", result.Successful, result.Total),
	}
}
