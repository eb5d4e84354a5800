// Package models defines domain entities and persistence interfaces for rbcopy.
//
// The package contains two categories of types:
//
// 1. Library records: plain values decoded from a Rekordbox XML export
//   - [Track] : a collection entry with its decoded filesystem location
//   - [Playlist] : a flattened playlist name with its resolved, ordered tracks
//
// 2. Persistent entities: run history stored in SQLite
//   - [CopyRun] : one invocation of the copy executor with its counters
//   - [CopyItem] : the outcome for a single playlist position
//
// Persistent entities implement the [Model] interface; [Repository] defines the CRUD surface.
package models
