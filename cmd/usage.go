package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/formatter"
	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// UsageShow prints the external API usage ledger.
func (r *Runner) UsageShow(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	useCSV := cmd.Bool("csv")

	if err := r.bootstrap(); err != nil {
		return err
	}

	summary, err := r.store.Usage()
	if err != nil {
		return err
	}

	switch {
	case useJSON:
		return r.writeJSON(summary, cmd.Bool("pretty"))
	case useCSV:
		data, err := formatter.UsageToCSV(summary)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.UsageToText(summary))
	}
}

// UsageCredits reports the remaining paid balance on the audio synthesis account.
func (r *Runner) UsageCredits(ctx context.Context, cmd *cli.Command) error {
	if r.audio == nil {
		return fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	credits, err := r.audio.Credits(ctx)
	if err != nil {
		return err
	}

	r.writePlain("Remaining credits: %.1f\n", credits.Remaining)
	r.writePlain("Estimated tracks available: %d\n", credits.EstimatedTracksAvail)
	return nil
}

// usageCommand handles external API usage reporting.
func usageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Inspect external API usage and credits",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the usage ledger (today, totals, history)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV rows",
					},
				},
				Action: r.UsageShow,
			},
			{
				Name:   "credits",
				Usage:  "Show the remaining audio synthesis balance",
				Action: r.UsageCredits,
			},
		},
	}
}
