package main

import (
	"context"
	"fmt"
	"time"

	"github.com/soundry/soundry/internal/server"
	"github.com/soundry/soundry/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the admin HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := cmd.String("host")
	port := int(cmd.Int("port"))
	if host == "" {
		host = r.config.Server.Host
	}
	if port == 0 {
		port = r.config.Server.Port
	}

	if err := r.bootstrap(); err != nil {
		return err
	}

	api := server.NewAdminAPI(r.store, r.tracks, r.schedules, r.deployer, r.logger)

	if cmd.Bool("open") {
		url := fmt.Sprintf("http://%s:%d/api/usage", host, port)
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := shared.OpenBrowser(url); err != nil {
				r.logger.Warn("failed to open browser", "url", url, "err", err)
			}
		}()
	}

	return server.Serve(ctx, host, port, api, r.logger)
}

// serveCommand handles the admin HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the admin HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Bind host (defaults to the configured host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Bind port (defaults to the configured port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the usage endpoint in the system browser",
			},
		},
		Action: r.Serve,
	}
}
