package main

import (
	"context"
	"fmt"

	"github.com/soundry/soundry/internal/cache"
	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheList prints the entries cached for one service namespace.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	service, err := resolveCacheService(cmd.StringArg("service"))
	if err != nil {
		return err
	}

	if err := r.bootstrap(); err != nil {
		return err
	}

	entries, err := r.store.List(service)
	if err != nil {
		return err
	}

	r.writePlain("%d entries in %q cache\n", len(entries), service)
	for _, env := range entries {
		line := fmt.Sprintf("  %s  created %s", env.Key, env.CreatedAt.Format("2006-01-02 15:04"))
		if env.CompletedAt != nil {
			line += "  (completed)"
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// CacheClear empties one service namespace, or every namespace with --all.
//
// Title pool and usage ledger are never touched.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	if cmd.Bool("all") {
		if err := r.store.ClearAll(); err != nil {
			return err
		}
		r.writePlain("✓ Cleared all service caches\n")
		return nil
	}

	service, err := resolveCacheService(cmd.String("service"))
	if err != nil {
		return err
	}
	if err := r.store.Clear(service); err != nil {
		return err
	}
	r.writePlain("✓ Cleared %q cache\n", service)
	return nil
}

// resolveCacheService maps a name to its cache namespace.
func resolveCacheService(name string) (cache.Service, error) {
	for _, service := range cache.Services {
		if string(service) == name {
			return service, nil
		}
	}
	return "", fmt.Errorf("%w: unknown cache service %q (must be audio, text, or image)", shared.ErrInvalidArgument, name)
}

// cacheCommand handles the generation response cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the generation response cache",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List cached entries for a service",
				ArgsUsage: "SERVICE",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "service"},
				},
				Action: r.CacheList,
			},
			{
				Name:  "clear",
				Usage: "Clear a service cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "service",
						Usage: "Service cache to clear (audio, text, image)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Clear every service cache",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}
