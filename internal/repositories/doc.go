// Package repositories implements SQLite persistence for copy history.
//
// [RunRepository] implements models.Repository[*models.CopyRun] and stores each run's
// per-track outcomes alongside it. Deleted runs are soft deleted via deleted_at timestamps and
// excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (run #1, run #2) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
