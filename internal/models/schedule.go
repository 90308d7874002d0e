package models

import (
	"fmt"
	"time"
)

// Schedule frequency labels. IntervalDays drives next-run computation; the
// frequency label is display metadata kept in sync by the CLI layer.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyCustom = "custom"
)

// Schedule represents a recurring bulk-generation definition.
//
// NextRunAt is recomputed by the scheduler after every run, manual or timed.
type Schedule struct {
	id           string
	sequence     int
	frequency    string
	intervalDays int
	runTime      string // "HH:MM", local time
	trackCount   int
	style        string
	mood         string
	autoDeploy   bool
	nextRunAt    *time.Time
	lastRunAt    *time.Time
	active       bool
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewSchedule creates an active Schedule with fresh timestamps.
// The ID is assigned by the repository on Create.
func NewSchedule(frequency string, intervalDays int, runTime string, trackCount int, style, mood string, autoDeploy bool) *Schedule {
	now := time.Now()
	return &Schedule{
		frequency:    frequency,
		intervalDays: intervalDays,
		runTime:      runTime,
		trackCount:   trackCount,
		style:        style,
		mood:         mood,
		autoDeploy:   autoDeploy,
		active:       true,
		createdAt:    now,
		updatedAt:    now,
	}
}

// HydrateSchedule reconstructs a Schedule from persisted columns.
func HydrateSchedule(
	id string, sequence int,
	frequency string, intervalDays int, runTime string,
	trackCount int, style, mood string, autoDeploy bool,
	nextRunAt, lastRunAt *time.Time, active bool,
	createdAt, updatedAt time.Time, deletedAt *time.Time,
) *Schedule {
	return &Schedule{
		id:           id,
		sequence:     sequence,
		frequency:    frequency,
		intervalDays: intervalDays,
		runTime:      runTime,
		trackCount:   trackCount,
		style:        style,
		mood:         mood,
		autoDeploy:   autoDeploy,
		nextRunAt:    nextRunAt,
		lastRunAt:    lastRunAt,
		active:       active,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		deletedAt:    deletedAt,
	}
}

func (s *Schedule) ID() string            { return s.id }
func (s *Schedule) Sequence() int         { return s.sequence }
func (s *Schedule) Frequency() string     { return s.frequency }
func (s *Schedule) IntervalDays() int     { return s.intervalDays }
func (s *Schedule) RunTime() string       { return s.runTime }
func (s *Schedule) TrackCount() int       { return s.trackCount }
func (s *Schedule) Style() string         { return s.style }
func (s *Schedule) Mood() string          { return s.mood }
func (s *Schedule) AutoDeploy() bool      { return s.autoDeploy }
func (s *Schedule) NextRunAt() *time.Time { return s.nextRunAt }
func (s *Schedule) LastRunAt() *time.Time { return s.lastRunAt }
func (s *Schedule) Active() bool          { return s.active }
func (s *Schedule) CreatedAt() time.Time  { return s.createdAt }
func (s *Schedule) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Schedule) DeletedAt() *time.Time { return s.deletedAt }

func (s *Schedule) SetID(id string)           { s.id = id }
func (s *Schedule) SetSequence(seq int)       { s.sequence = seq }
func (s *Schedule) SetActive(active bool)     { s.active = active }
func (s *Schedule) SetUpdatedAt(ts time.Time) { s.updatedAt = ts }

// TouchRun records a completed run and its recomputed next due time.
func (s *Schedule) TouchRun(ranAt, nextRunAt time.Time) {
	s.lastRunAt = &ranAt
	s.nextRunAt = &nextRunAt
	s.updatedAt = ranAt
}

// SetNextRunAt updates only the next due time.
func (s *Schedule) SetNextRunAt(at time.Time) {
	s.nextRunAt = &at
	s.updatedAt = time.Now()
}

// RunTimeOfDay parses the schedule's run time into hour and minute.
func (s *Schedule) RunTimeOfDay() (hour, minute int, err error) {
	parsed, err := time.Parse("15:04", s.runTime)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid run time %q: %w", s.runTime, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// Validate checks that required fields are present and well-formed.
func (s *Schedule) Validate() error {
	if s.trackCount <= 0 || s.trackCount%2 != 0 {
		return fmt.Errorf("schedule track count must be a positive even number, got %d", s.trackCount)
	}
	if s.intervalDays <= 0 {
		return fmt.Errorf("schedule interval must be at least one day, got %d", s.intervalDays)
	}
	if _, _, err := s.RunTimeOfDay(); err != nil {
		return err
	}
	if s.style == "" || s.mood == "" {
		return fmt.Errorf("schedule requires style and mood")
	}
	return nil
}
