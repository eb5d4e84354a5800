// Package tasks runs the copy executor with real-time progress reporting.
//
// # Core Operation
//
// [CopyEngine.Copy] takes a resolved playlist and an output folder:
//
//  1. Creates the output folder (idempotent)
//  2. For each track, in playlist order:
//     - Builds the destination name "{i:03d} - {artist} - {name}{ext}" via [DestinationName]
//     - Records a missing item when the source does not exist
//     - Copies the file, applying the source's mode and modification time
//     - Records a failed item on any copy error and moves on
//  3. Returns a [CopyResult] with per-item outcomes and counters
//
// Copies happen one at a time. A per-item failure never aborts the batch.
//
// # Progress Reporting
//
// # Progress updates are sent on a channel without blocking
//
// The [ProgressUpdate] struct carries the phase, step counters, a message and the
// [CopyItemResult] for the item just processed. Updates use select with default so a slow
// reader never stalls the copy; callers that need every update size the channel to the
// playlist length.
//
// # Throttling
//
// An optional [rate.Limiter] spaces out copies (files per second) for slow targets such as
// USB sticks. The context is checked between items and cancellation stops the run with the
// partial result.
package tasks
