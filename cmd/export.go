package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/formatter"
	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export writes a batch's track listing to disk in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	batchID := cmd.String("batch")
	format := cmd.String("format")
	output := cmd.String("output")

	if err := r.bootstrap(); err != nil {
		return err
	}

	tracks, err := r.tracks.ListByBatch(batchID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%w: no tracks in batch %s", shared.ErrInvalidArgument, batchID)
	}

	heading := fmt.Sprintf("Batch %s", batchID)

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(heading, tracks, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks\n", len(tracks))
		r.writePlain("Tracks: %s\n", result.TracksFile)
		r.writePlain("Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(heading, tracks, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(heading, tracks, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), path)
	default:
		return fmt.Errorf("%w: unknown format %q (must be csv, markdown, or text)", shared.ErrInvalidArgument, format)
	}

	return nil
}

// exportCommand handles batch exports.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a batch's track listing to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "batch",
				Usage:    "Batch id to export",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (csv, markdown, text)",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default derived from the batch id)",
			},
		},
		Action: r.Export,
	}
}
