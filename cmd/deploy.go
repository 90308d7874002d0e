package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Deploy promotes generated tracks into the production catalog.
//
// With no flags, every undeployed track is deployed. Already deployed tracks
// are always skipped, so repeating a deploy is safe.
func (r *Runner) Deploy(ctx context.Context, cmd *cli.Command) error {
	batchID := cmd.String("batch")
	trackIDs := cmd.StringSlice("id")

	if err := r.bootstrap(); err != nil {
		return err
	}
	if r.deployer == nil {
		return fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}

	var result *tasks.DeployResult
	var err error
	switch {
	case len(trackIDs) > 0:
		result, err = r.deployer.DeployByIDs(ctx, trackIDs)
	case batchID != "":
		result, err = r.deployer.DeployBatch(ctx, batchID)
	default:
		result, err = r.deployer.DeployUndeployed(ctx)
	}
	if err != nil {
		return err
	}

	r.writePlainHeader("Deploy Results")
	r.writePlain("Deployed: %d\n", result.Deployed)
	r.writePlain("Skipped: %d\n", result.Skipped)
	r.writePlain("Failed: %d\n", result.Failed)

	for _, track := range result.Tracks {
		switch {
		case track.Err != nil:
			r.writePlain("  ✗ %s: %v\n", track.Title, track.Err)
		case track.Skipped:
			r.writePlain("  - %s (already deployed)\n", track.Title)
		default:
			r.writePlain("  ✓ %s → %s\n", track.Title, track.CatalogTrackID)
		}
	}

	return nil
}

// deployCommand handles catalog promotion.
func deployCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Deploy generated tracks to the production catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "batch",
				Usage: "Deploy only tracks from this batch",
			},
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Deploy specific track ids (repeatable)",
			},
		},
		Action: r.Deploy,
	}
}
