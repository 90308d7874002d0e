package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/repositories"
	"github.com/soundry/soundry/internal/shared"
)

// ScheduleRunResult is the outcome of one scheduled run.
type ScheduleRunResult struct {
	ScheduleID string
	Generation *GenerateRunResult
	Deployment *DeployResult
	Err        error
}

// Scheduler executes recurring bulk generation runs.
//
// Runs are strictly serial; overlapping generation flows would race on
// external credit budgets and progress accounting.
type Scheduler struct {
	schedules *repositories.ScheduleRepository
	engine    *GenerationEngine
	deployer  *Deployer
	logger    *log.Logger

	now func() time.Time
}

// NewScheduler creates a Scheduler. The deployer may be nil when no schedule
// uses auto-deploy.
func NewScheduler(schedules *repositories.ScheduleRepository, engine *GenerationEngine, deployer *Deployer, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Scheduler{
		schedules: schedules,
		engine:    engine,
		deployer:  deployer,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the scheduler's clock for tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ComputeNextRun returns the next due time for a schedule relative to now:
// today at the schedule's run time when that is still ahead, otherwise
// interval days later at the run time.
func ComputeNextRun(schedule *models.Schedule, now time.Time) (time.Time, error) {
	hour, minute, err := schedule.RunTimeOfDay()
	if err != nil {
		return time.Time{}, err
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if candidate.After(now) {
		return candidate, nil
	}
	return candidate.AddDate(0, 0, schedule.IntervalDays()), nil
}

// RunNow executes one schedule immediately, regardless of its due time.
//
// The schedule's run bookkeeping is updated even when generation fails, so a
// broken schedule does not re-fire on every worker tick.
func (s *Scheduler) RunNow(ctx context.Context, scheduleID string, progress chan<- ProgressUpdate) (*ScheduleRunResult, error) {
	schedule, err := s.schedules.Get(scheduleID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, schedule, progress), nil
}

// RunDue executes every schedule whose next run time has passed, serially in
// sequence order.
func (s *Scheduler) RunDue(ctx context.Context) ([]*ScheduleRunResult, error) {
	due, err := s.schedules.ListDue(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}

	var results []*ScheduleRunResult
	for _, schedule := range due {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%w during scheduled runs", shared.ErrRunCancelled)
		}
		results = append(results, s.run(ctx, schedule, nil))
	}
	return results, nil
}

// Worker runs due schedules on every tick until the context is cancelled.
func (s *Scheduler) Worker(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	s.logger.Info("schedule worker started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("schedule worker stopped")
			return ctx.Err()
		case <-ticker.C:
			results, err := s.RunDue(ctx)
			if err != nil {
				s.logger.Warn("scheduled run pass failed", "err", err)
			}
			for _, res := range results {
				if res.Err != nil {
					s.logger.Warn("scheduled run failed", "schedule", res.ScheduleID, "err", res.Err)
				}
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context, schedule *models.Schedule, progress chan<- ProgressUpdate) *ScheduleRunResult {
	result := &ScheduleRunResult{ScheduleID: schedule.ID()}

	s.logger.Info("running schedule",
		"schedule", schedule.ID(), "tracks", schedule.TrackCount(),
		"style", schedule.Style(), "auto_deploy", schedule.AutoDeploy())

	generation, genErr := s.engine.Run(ctx, GenerateRequest{
		TrackCount: schedule.TrackCount(),
		Style:      schedule.Style(),
		Mood:       schedule.Mood(),
	}, progress)
	result.Generation = generation
	result.Err = genErr

	ranAt := s.now()
	next, err := ComputeNextRun(schedule, ranAt)
	if err != nil {
		// Invalid run time should have been caught by Validate; fall back to
		// a plain interval so the schedule keeps moving.
		next = ranAt.AddDate(0, 0, schedule.IntervalDays())
	}
	schedule.TouchRun(ranAt, next)
	if err := s.schedules.Update(schedule); err != nil {
		s.logger.Warn("failed to record schedule run", "schedule", schedule.ID(), "err", err)
	}

	if genErr != nil || generation == nil {
		return result
	}

	if schedule.AutoDeploy() && s.deployer != nil {
		deployment, err := s.deployer.DeployBatch(ctx, generation.BatchID)
		result.Deployment = deployment
		if err != nil {
			s.logger.Warn("auto-deploy failed", "schedule", schedule.ID(), "err", err)
			result.Err = err
		}
	}

	return result
}
