package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// Import reconstructs local records for synthesis jobs submitted outside this
// tool, for example directly through the vendor console.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	jobIDs := cmd.Args().Slice()
	if len(jobIDs) == 0 {
		return fmt.Errorf("%w: at least one job id", shared.ErrMissingArgument)
	}

	if err := r.bootstrap(); err != nil {
		return err
	}
	if r.audio == nil {
		return fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	result, err := r.importer.ImportByJobIDs(ctx, jobIDs)
	if err != nil {
		return err
	}

	r.writePlainHeader("Import Results")
	r.writePlain("Imported: %d tracks\n", len(result.Imported))
	for _, track := range result.Imported {
		r.writePlain("  ✓ %s [%s]\n", track.Title(), shared.FormatDuration(track.Duration()))
	}
	if len(result.Skipped) > 0 {
		r.writePlain("Skipped: %d jobs (already imported or not finished)\n", len(result.Skipped))
	}
	for jobID, jobErr := range result.Failed {
		r.writePlain("  ✗ %s: %v\n", jobID, jobErr)
	}

	return nil
}

// importCommand handles syncing externally submitted synthesis jobs.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import externally submitted synthesis jobs by id",
		ArgsUsage: "JOB_ID [JOB_ID...]",
		Action:    r.Import,
	}
}
