package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/shared"
)

const scheduleColumns = `id, sequence, frequency, interval_days, run_time, track_count,
		style, mood, auto_deploy, next_run_at, last_run_at, active,
		created_at, updated_at, deleted_at`

// ScheduleRepository implements models.Repository[*models.Schedule].
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository with the given database connection
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a new [models.Schedule] into the database with generated ID and sequence
func (r *ScheduleRepository) Create(schedule *models.Schedule) error {
	sequence, err := NextSequence(r.db, "schedules")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	schedule.SetID(id)
	schedule.SetSequence(sequence)

	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		schedule.Frequency(),
		schedule.IntervalDays(),
		schedule.RunTime(),
		schedule.TrackCount(),
		schedule.Style(),
		schedule.Mood(),
		schedule.AutoDeploy(),
		schedule.NextRunAt(),
		schedule.LastRunAt(),
		schedule.Active(),
		schedule.CreatedAt(),
		schedule.UpdatedAt(),
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to insert schedule: %w", err)
	}

	return nil
}

// Get retrieves a schedule by ID, excluding soft-deleted schedules
func (r *ScheduleRepository) Get(id string) (*models.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE id = ? AND deleted_at IS NULL
	`

	schedule, err := scanSchedule(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, shared.ErrScheduleNotFound
	}
	return schedule, err
}

// Update modifies an existing schedule in the database
func (r *ScheduleRepository) Update(schedule *models.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	schedule.SetUpdatedAt(now)

	query := `
		UPDATE schedules
		SET frequency = ?, interval_days = ?, run_time = ?, track_count = ?,
			style = ?, mood = ?, auto_deploy = ?, next_run_at = ?, last_run_at = ?,
			active = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		schedule.Frequency(),
		schedule.IntervalDays(),
		schedule.RunTime(),
		schedule.TrackCount(),
		schedule.Style(),
		schedule.Mood(),
		schedule.AutoDeploy(),
		schedule.NextRunAt(),
		schedule.LastRunAt(),
		schedule.Active(),
		now,
		schedule.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrScheduleNotFound, schedule.ID())
	}

	return nil
}

// Delete soft-deletes a schedule by ID
func (r *ScheduleRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE schedules
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrScheduleNotFound, id)
	}

	return nil
}

// List retrieves all schedules matching the given criteria, excluding soft-deleted schedules
//
// Supported criteria: "active" (bool).
func (r *ScheduleRepository) List(criteria map[string]any) ([]*models.Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if active, ok := criteria["active"].(bool); ok {
		query += " AND active = ?"
		args = append(args, active)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []*models.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return schedules, nil
}

// ListActive returns every active schedule.
func (r *ScheduleRepository) ListActive() ([]*models.Schedule, error) {
	return r.List(map[string]any{"active": true})
}

// ListDue returns every active schedule whose next run time is at or before now.
func (r *ScheduleRepository) ListDue(now time.Time) ([]*models.Schedule, error) {
	schedules, err := r.ListActive()
	if err != nil {
		return nil, err
	}

	var due []*models.Schedule
	for _, schedule := range schedules {
		next := schedule.NextRunAt()
		if next != nil && !next.After(now) {
			due = append(due, schedule)
		}
	}
	return due, nil
}

func scanSchedule(s rowScanner) (*models.Schedule, error) {
	var (
		id           string
		sequence     int
		frequency    string
		intervalDays int
		runTime      string
		trackCount   int
		style        string
		mood         string
		autoDeploy   bool
		nextRunAt    sql.NullTime
		lastRunAt    sql.NullTime
		active       bool
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &frequency, &intervalDays, &runTime, &trackCount,
		&style, &mood, &autoDeploy, &nextRunAt, &lastRunAt, &active,
		&createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	return models.HydrateSchedule(
		id, sequence,
		frequency, intervalDays, runTime,
		trackCount, style, mood, autoDeploy,
		nullTimePtr(nextRunAt), nullTimePtr(lastRunAt), active,
		createdAt, updatedAt, nullTimePtr(deletedAt),
	), nil
}
