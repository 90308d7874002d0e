package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// TitlesStatus prints the title pool's availability for a category.
func (r *Runner) TitlesStatus(ctx context.Context, cmd *cli.Command) error {
	category := cmd.String("category")
	if category == "" {
		category = r.config.Generation.Category()
	}

	if err := r.bootstrap(); err != nil {
		return err
	}

	availability, err := r.pool.CheckAvailability(category)
	if err != nil {
		return err
	}

	r.writePlain("Title pool %q: %d available / %d total\n", category, availability.Available, availability.Total)
	if availability.Available < r.config.Generation.TitlePoolLowWater {
		r.writePlain("Pool is low. Run 'soundry titles replenish' to top it up.\n")
	}
	return nil
}

// TitlesReplenish mints fresh titles into the pool via the text service.
func (r *Runner) TitlesReplenish(ctx context.Context, cmd *cli.Command) error {
	category := cmd.String("category")
	if category == "" {
		category = r.config.Generation.Category()
	}
	count := int(cmd.Int("count"))
	keywords := cmd.String("keywords")

	if err := r.bootstrap(); err != nil {
		return err
	}
	if r.text == nil {
		return fmt.Errorf("%w: text service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("replenishing title pool", "category", category, "count", count)

	added, err := r.pool.Replenish(ctx, category, count, keywords)
	if err != nil {
		return err
	}

	r.writePlain("✓ Added %d titles to pool %q\n", added, category)
	return nil
}

// titlesCommand handles the pre-generated title pool.
func titlesCommand(r *Runner) *cli.Command {
	categoryFlag := &cli.StringFlag{
		Name:  "category",
		Usage: "Title pool category (defaults to the configured category)",
	}

	return &cli.Command{
		Name:  "titles",
		Usage: "Manage the pre-generated title pool",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show title pool availability",
				Flags:  []cli.Flag{categoryFlag},
				Action: r.TitlesStatus,
			},
			{
				Name:  "replenish",
				Usage: "Mint fresh titles into the pool",
				Flags: []cli.Flag{
					categoryFlag,
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of titles to mint",
						Value:   20,
					},
					&cli.StringFlag{
						Name:  "keywords",
						Usage: "Comma-separated keyword hints for title generation",
					},
				},
				Action: r.TitlesReplenish,
			},
		},
	}
}
