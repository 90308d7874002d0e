package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate runs one bulk generation pass and prints a summary.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	count := int(cmd.Int("count"))
	style := cmd.String("style")
	mood := cmd.String("mood")
	keywords := cmd.String("keywords")
	deployAfter := cmd.Bool("deploy")

	if err := r.bootstrap(); err != nil {
		return err
	}
	if r.audio == nil {
		return fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("starting bulk generation", "count", count, "style", style, "mood", mood)
	r.writePlain("Generating %d tracks (%s / %s)...\n\n", count, style, mood)

	progressCh := r.progressPrinter()
	result, err := r.engine.Run(ctx, tasks.GenerateRequest{
		TrackCount: count,
		Style:      style,
		Mood:       mood,
		Keywords:   keywords,
	}, progressCh)
	close(progressCh)

	if err != nil {
		if result != nil && len(result.Completed) > 0 {
			r.writePlain("\nRun stopped after %d/%d tracks (batch %s)\n", len(result.Completed), count, result.BatchID)
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Generation Complete!")
	r.writePlain("Batch: %s\n", result.BatchID)
	r.writePlain("Tracks: %d/%d\n", len(result.Completed), count)
	for i, track := range result.Completed {
		r.writePlain("  %d. %s [%s]\n", i+1, track.Title(), shared.FormatDuration(track.Duration()))
	}

	if deployAfter {
		if r.deployer == nil {
			return fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
		}
		deployment, err := r.deployer.DeployBatch(ctx, result.BatchID)
		if err != nil {
			return err
		}
		r.writePlain("\nDeployed %d tracks to catalog\n", deployment.Deployed)
	}

	return nil
}

// generateCommand handles bulk track generation.
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a batch of tracks end to end",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of tracks to generate (must be even)",
				Value:   4,
			},
			&cli.StringFlag{
				Name:     "style",
				Usage:    "Musical style passed to synthesis",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mood",
				Usage: "Mood passed to synthesis",
				Value: "calm",
			},
			&cli.StringFlag{
				Name:  "keywords",
				Usage: "Comma-separated keyword seeds for titles",
			},
			&cli.BoolFlag{
				Name:  "deploy",
				Usage: "Deploy the batch to the catalog after generation",
			},
		},
		Action: r.Generate,
	}
}
