package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/rbcopy/internal/models"
	"github.com/desertthunder/rbcopy/internal/shared"
)

const runColumns = `id, sequence, library_path, playlist_name, output_dir, total, successful, failed,
	started_at, completed_at, created_at, updated_at, deleted_at`

// rowScanner is satisfied by both [sql.Row] and [sql.Rows].
type rowScanner interface {
	Scan(dest ...any) error
}

// RunRepository implements models.Repository[*models.CopyRun] for copy history.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CopyRun] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence, along with any items it already holds.
func (r *RunRepository) Create(run *models.CopyRun) error {
	sequence, err := NextSequence(r.db, "copy_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO copy_runs (id, sequence, library_path, playlist_name, output_dir, total, successful, failed,
			started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		run.ID(),
		run.Sequence(),
		run.LibraryPath(),
		run.PlaylistName(),
		run.OutputDir(),
		run.Total(),
		run.Successful(),
		run.Failed(),
		run.StartedAt(),
		nullTime(run.CompletedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert copy run: %w", err)
	}

	if err := saveItems(tx, run.ID(), run.Items()); err != nil {
		return err
	}
	return tx.Commit()
}

// Get retrieves a run and its items by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.CopyRun, error) {
	query := `SELECT ` + runColumns + ` FROM copy_runs WHERE id = ? AND deleted_at IS NULL`
	return r.getWithItems(r.db.QueryRow(query, id), id)
}

// GetBySequence retrieves a run and its items by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.CopyRun, error) {
	query := `SELECT ` + runColumns + ` FROM copy_runs WHERE sequence = ? AND deleted_at IS NULL`
	return r.getWithItems(r.db.QueryRow(query, sequence), fmt.Sprintf("#%d", sequence))
}

func (r *RunRepository) getWithItems(row *sql.Row, ref string) (*models.CopyRun, error) {
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, ref)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.Items(run.ID())
	if err != nil {
		return nil, err
	}
	run.SetItems(items)
	return run, nil
}

// Update stores the run's counters and completion time and replaces its items.
func (r *RunRepository) Update(run *models.CopyRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE copy_runs
		SET output_dir = ?, total = ?, successful = ?, failed = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := tx.Exec(query,
		run.OutputDir(),
		run.Total(),
		run.Successful(),
		run.Failed(),
		nullTime(run.CompletedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update copy run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	if _, err := tx.Exec(`DELETE FROM copy_run_items WHERE run_id = ?`, run.ID()); err != nil {
		return fmt.Errorf("failed to clear copy run items: %w", err)
	}
	if err := saveItems(tx, run.ID(), run.Items()); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE copy_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete copy run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

// List retrieves runs newest first, excluding soft-deleted runs. Items are not loaded.
//
// Supported criteria: "playlist" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.CopyRun, error) {
	query := `SELECT ` + runColumns + ` FROM copy_runs WHERE deleted_at IS NULL`
	args := []any{}

	if playlist, ok := criteria["playlist"].(string); ok && playlist != "" {
		query += " AND playlist_name = ?"
		args = append(args, playlist)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query copy runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.CopyRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Items returns a run's items in playlist order.
func (r *RunRepository) Items(runID string) ([]models.CopyItem, error) {
	query := `
		SELECT position, track_id, artist, name, source, destination, status, error_message
		FROM copy_run_items
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query copy run items: %w", err)
	}
	defer rows.Close()

	items := []models.CopyItem{}
	for rows.Next() {
		var (
			item   models.CopyItem
			status string
			errMsg sql.NullString
		)
		if err := rows.Scan(&item.Position, &item.TrackID, &item.Artist, &item.Name, &item.Source, &item.Destination, &status, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan copy run item: %w", err)
		}
		item.Status = models.ItemStatus(status)
		item.Error = errMsg.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func saveItems(tx *sql.Tx, runID string, items []models.CopyItem) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO copy_run_items (run_id, position, track_id, artist, name, source, destination, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		var errMsg sql.NullString
		if item.Error != "" {
			errMsg = sql.NullString{String: item.Error, Valid: true}
		}
		if _, err := stmt.Exec(runID, item.Position, item.TrackID, item.Artist, item.Name, item.Source, item.Destination, string(item.Status), errMsg); err != nil {
			return fmt.Errorf("failed to insert copy run item %d: %w", item.Position, err)
		}
	}
	return nil
}

// scanRun scans a single row into a [models.CopyRun]
func scanRun(row rowScanner) (*models.CopyRun, error) {
	var (
		id           string
		sequence     int
		libraryPath  string
		playlistName string
		outputDir    string
		total        int
		successful   int
		failed       int
		startedAt    time.Time
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &libraryPath, &playlistName, &outputDir, &total, &successful, &failed,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan copy run: %w", err)
	}

	run := models.NewCopyRun(sequence, libraryPath, playlistName, outputDir)
	run.SetID(id)
	run.SetCounts(total, successful, failed)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
