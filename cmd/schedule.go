package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soundry/soundry/internal/models"
	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ScheduleList prints every schedule with its next due time.
func (r *Runner) ScheduleList(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	schedules, err := r.schedules.List(map[string]any{})
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		r.writePlain("No schedules configured. Add one with 'soundry schedule add'.\n")
		return nil
	}

	r.writePlainHeader("Schedules")
	for _, s := range schedules {
		state := "active"
		if !s.Active() {
			state = "inactive"
		}
		r.writePlain("%s  %s @ %s  %d tracks (%s / %s)  [%s]\n",
			s.ID(), s.Frequency(), s.RunTime(), s.TrackCount(), s.Style(), s.Mood(), state)
		if next := s.NextRunAt(); next != nil {
			r.writePlain("    next run: %s", next.Format(time.RFC1123))
			if s.AutoDeploy() {
				r.writePlain("  (auto-deploy)")
			}
			r.writePlain("\n")
		}
	}
	return nil
}

// ScheduleAdd creates a new recurring generation schedule.
func (r *Runner) ScheduleAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	schedule := models.NewSchedule(
		cmd.String("frequency"),
		int(cmd.Int("every")),
		cmd.String("time"),
		int(cmd.Int("count")),
		cmd.String("style"),
		cmd.String("mood"),
		cmd.Bool("auto-deploy"),
	)
	if next, err := tasks.ComputeNextRun(schedule, time.Now()); err == nil {
		schedule.SetNextRunAt(next)
	}

	if err := r.schedules.Create(schedule); err != nil {
		return err
	}

	r.writePlain("✓ Schedule created: %s\n", schedule.ID())
	if next := schedule.NextRunAt(); next != nil {
		r.writePlain("Next run: %s\n", next.Format(time.RFC1123))
	}
	return nil
}

// ScheduleRemove deletes a schedule by id.
func (r *Runner) ScheduleRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: schedule id", shared.ErrMissingArgument)
	}
	if err := r.bootstrap(); err != nil {
		return err
	}

	if err := r.schedules.Delete(id); err != nil {
		return err
	}
	r.writePlain("✓ Schedule removed: %s\n", id)
	return nil
}

// ScheduleRun executes one schedule immediately.
func (r *Runner) ScheduleRun(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: schedule id", shared.ErrMissingArgument)
	}
	if err := r.bootstrap(); err != nil {
		return err
	}
	if r.audio == nil {
		return fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	progressCh := r.progressPrinter()
	result, err := r.scheduler.RunNow(ctx, id, progressCh)
	close(progressCh)
	if err != nil {
		return err
	}
	if result.Err != nil {
		return result.Err
	}

	r.writePlain("\n✓ Schedule run complete: %d tracks (batch %s)\n",
		len(result.Generation.Completed), result.Generation.BatchID)
	if result.Deployment != nil {
		r.writePlain("Deployed %d tracks to catalog\n", result.Deployment.Deployed)
	}
	return nil
}

// ScheduleWorker runs due schedules on an interval until interrupted.
func (r *Runner) ScheduleWorker(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}
	if r.audio == nil {
		return fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	err := r.scheduler.Worker(ctx, cmd.Duration("interval"))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// scheduleCommand handles recurring generation schedules.
func scheduleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "schedule",
		Aliases: []string{"sched"},
		Usage:   "Manage recurring generation schedules",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List schedules and their next run times",
				Action: r.ScheduleList,
			},
			{
				Name:  "add",
				Usage: "Create a recurring generation schedule",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "frequency",
						Usage: "Schedule frequency (daily, weekly, custom)",
						Value: models.FrequencyDaily,
					},
					&cli.IntFlag{
						Name:  "every",
						Usage: "Interval between runs in days",
						Value: 1,
					},
					&cli.StringFlag{
						Name:     "time",
						Usage:    "Run time of day (HH:MM, local)",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of tracks per run (must be even)",
						Value:   4,
					},
					&cli.StringFlag{
						Name:     "style",
						Usage:    "Musical style for generated tracks",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mood",
						Usage: "Mood for generated tracks",
						Value: "calm",
					},
					&cli.BoolFlag{
						Name:  "auto-deploy",
						Usage: "Deploy each run's batch to the catalog automatically",
					},
				},
				Action: r.ScheduleAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a schedule",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ScheduleRemove,
			},
			{
				Name:  "run",
				Usage: "Run one schedule immediately",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ScheduleRun,
			},
			{
				Name:  "worker",
				Usage: "Run due schedules continuously",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "How often to check for due schedules",
						Value: time.Minute,
					},
				},
				Action: r.ScheduleWorker,
			},
		},
	}
}
