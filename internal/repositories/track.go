package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/shared"
)

const trackColumns = `id, sequence, title, foreign_title, audio_ref, image_ref, duration,
		style, mood, batch_id, job_id, deployed, deployed_at, catalog_track_id,
		created_at, updated_at, deleted_at`

// GeneratedTrackRepository implements models.Repository[*models.GeneratedTrack].
//
// Tracks are created by the generation engine and the sync importer, and
// promoted by the deployment tracker via MarkDeployed.
type GeneratedTrackRepository struct {
	db *sql.DB
}

// NewGeneratedTrackRepository creates a new GeneratedTrackRepository with the given database connection
func NewGeneratedTrackRepository(db *sql.DB) *GeneratedTrackRepository {
	return &GeneratedTrackRepository{db: db}
}

// Create inserts a new [models.GeneratedTrack] into the database with generated ID and sequence
func (r *GeneratedTrackRepository) Create(track *models.GeneratedTrack) error {
	sequence, err := NextSequence(r.db, "generated_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	track.SetID(id)
	track.SetSequence(sequence)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO generated_tracks (` + trackColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.Title(),
		nullable(track.ForeignTitle()),
		track.AudioRef(),
		nullable(track.ImageRef()),
		track.Duration(),
		track.Style(),
		track.Mood(),
		track.BatchID(),
		nullable(track.JobID()),
		track.Deployed(),
		track.DeployedAt(),
		nullable(track.CatalogTrackID()),
		track.CreatedAt(),
		track.UpdatedAt(),
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert generated track: %w", err)
	}

	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *GeneratedTrackRepository) Get(id string) (*models.GeneratedTrack, error) {
	query := `
		SELECT ` + trackColumns + `
		FROM generated_tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing track in the database
func (r *GeneratedTrackRepository) Update(track *models.GeneratedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE generated_tracks
		SET title = ?, foreign_title = ?, audio_ref = ?, image_ref = ?, duration = ?,
			deployed = ?, deployed_at = ?, catalog_track_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		nullable(track.ForeignTitle()),
		track.AudioRef(),
		nullable(track.ImageRef()),
		track.Duration(),
		track.Deployed(),
		track.DeployedAt(),
		nullable(track.CatalogTrackID()),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update generated track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// MarkDeployed atomically records a successful catalog promotion.
//
// The WHERE clause excludes already-deployed rows, so a second promotion of
// the same track is a no-op at the database level too.
func (r *GeneratedTrackRepository) MarkDeployed(id, catalogTrackID string, at time.Time) error {
	query := `
		UPDATE generated_tracks
		SET deployed = 1, deployed_at = ?, catalog_track_id = ?, updated_at = ?
		WHERE id = ? AND deployed = 0 AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, at, catalogTrackID, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark track deployed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s (missing or already deployed)", shared.ErrTrackNotFound, id)
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *GeneratedTrackRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE generated_tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete generated track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks
//
// Supported criteria: "batch_id" (string), "deployed" (bool), "job_id" (string).
func (r *GeneratedTrackRepository) List(criteria map[string]any) ([]*models.GeneratedTrack, error) {
	query := `
		SELECT ` + trackColumns + `
		FROM generated_tracks
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if batchID, ok := criteria["batch_id"].(string); ok && batchID != "" {
		query += " AND batch_id = ?"
		args = append(args, batchID)
	}

	if deployed, ok := criteria["deployed"].(bool); ok {
		query += " AND deployed = ?"
		args = append(args, deployed)
	}

	if jobID, ok := criteria["job_id"].(string); ok && jobID != "" {
		query += " AND job_id = ?"
		args = append(args, jobID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generated tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.GeneratedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// ListUndeployed returns every track still awaiting catalog promotion.
func (r *GeneratedTrackRepository) ListUndeployed() ([]*models.GeneratedTrack, error) {
	return r.List(map[string]any{"deployed": false})
}

// ListByBatch returns every track produced by one bulk run batch.
func (r *GeneratedTrackRepository) ListByBatch(batchID string) ([]*models.GeneratedTrack, error) {
	return r.List(map[string]any{"batch_id": batchID})
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanOne scans a single [sql.Row] into a [models.GeneratedTrack]
func (r *GeneratedTrackRepository) scanOne(row *sql.Row) (*models.GeneratedTrack, error) {
	track, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrTrackNotFound
	}
	return track, err
}

func scanTrack(s rowScanner) (*models.GeneratedTrack, error) {
	var (
		id             string
		sequence       int
		title          string
		foreignTitle   sql.NullString
		audioRef       string
		imageRef       sql.NullString
		duration       int
		style          string
		mood           string
		batchID        string
		jobID          sql.NullString
		deployed       bool
		deployedAt     sql.NullTime
		catalogTrackID sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	err := s.Scan(&id, &sequence, &title, &foreignTitle, &audioRef, &imageRef, &duration,
		&style, &mood, &batchID, &jobID, &deployed, &deployedAt, &catalogTrackID,
		&createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan generated track: %w", err)
	}

	return models.HydrateGeneratedTrack(
		id, sequence,
		title, foreignTitle.String, audioRef, imageRef.String,
		duration, style, mood, batchID, jobID.String,
		deployed, nullTimePtr(deployedAt), catalogTrackID.String,
		createdAt, updatedAt, nullTimePtr(deletedAt),
	), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
