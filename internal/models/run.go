package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ItemStatus is the outcome of copying one playlist position.
type ItemStatus string

const (
	ItemCopied  ItemStatus = "copied"
	ItemMissing ItemStatus = "missing"
	ItemFailed  ItemStatus = "failed"
)

// CopyItem records what happened to the track at Position (1-based).
type CopyItem struct {
	Position    int        `json:"position"`
	TrackID     string     `json:"track_id"`
	Artist      string     `json:"artist"`
	Name        string     `json:"name"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Status      ItemStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
}

// CopyRun is a persisted record of one copy invocation.
type CopyRun struct {
	id           string
	sequence     int
	libraryPath  string
	playlistName string
	outputDir    string
	total        int
	successful   int
	failed       int
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
	items        []CopyItem
}

var _ Model = (*CopyRun)(nil)

// NewCopyRun creates a run that starts now. The ID is assigned by the repository.
func NewCopyRun(sequence int, libraryPath, playlistName, outputDir string) *CopyRun {
	now := time.Now()
	return &CopyRun{
		sequence:     sequence,
		libraryPath:  libraryPath,
		playlistName: playlistName,
		outputDir:    outputDir,
		startedAt:    now,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *CopyRun) ID() string              { return r.id }
func (r *CopyRun) Sequence() int           { return r.sequence }
func (r *CopyRun) LibraryPath() string     { return r.libraryPath }
func (r *CopyRun) PlaylistName() string    { return r.playlistName }
func (r *CopyRun) OutputDir() string       { return r.outputDir }
func (r *CopyRun) Total() int              { return r.total }
func (r *CopyRun) Successful() int         { return r.successful }
func (r *CopyRun) Failed() int             { return r.failed }
func (r *CopyRun) StartedAt() time.Time    { return r.startedAt }
func (r *CopyRun) CompletedAt() *time.Time { return r.completedAt }
func (r *CopyRun) CreatedAt() time.Time    { return r.createdAt }
func (r *CopyRun) UpdatedAt() time.Time    { return r.updatedAt }
func (r *CopyRun) DeletedAt() *time.Time   { return r.deletedAt }
func (r *CopyRun) Items() []CopyItem       { return r.items }

func (r *CopyRun) SetID(id string)              { r.id = id }
func (r *CopyRun) SetSequence(seq int)          { r.sequence = seq }
func (r *CopyRun) SetStartedAt(t time.Time)     { r.startedAt = t }
func (r *CopyRun) SetCreatedAt(t time.Time)     { r.createdAt = t }
func (r *CopyRun) SetUpdatedAt(t time.Time)     { r.updatedAt = t }
func (r *CopyRun) SetCompletedAt(t *time.Time)  { r.completedAt = t }
func (r *CopyRun) SetDeletedAt(t *time.Time)    { r.deletedAt = t }
func (r *CopyRun) SetItems(items []CopyItem)    { r.items = items }
func (r *CopyRun) SetCounts(total, ok, bad int) { r.total, r.successful, r.failed = total, ok, bad }

// Complete stores the item outcomes, recomputes the counters and stamps the completion time.
func (r *CopyRun) Complete(items []CopyItem) {
	r.items = items
	r.total = len(items)
	r.successful, r.failed = 0, 0
	for _, item := range items {
		if item.Status == ItemCopied {
			r.successful++
		} else {
			r.failed++
		}
	}

	now := time.Now()
	r.completedAt = &now
	r.updatedAt = now
}

// Validate checks the run's required fields and counter consistency.
func (r *CopyRun) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.id, validation.Required),
		validation.Field(&r.libraryPath, validation.Required),
		validation.Field(&r.playlistName, validation.Required),
		validation.Field(&r.outputDir, validation.Required),
		validation.Field(&r.total, validation.Min(r.successful+r.failed)),
	)
}
