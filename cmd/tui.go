package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/soundry/soundry/internal/shared"
	"github.com/soundry/soundry/internal/tasks"
	"github.com/soundry/soundry/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for bulk generation.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.audio == nil {
		return fmt.Errorf("%w: audio service not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering. The
	// logger must be swapped before bootstrap so the engine inherits it.
	logPath := filepath.Join("tmp", "soundry-tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()
	r.logger = shared.NewLogger(logFile)

	if err := r.bootstrap(); err != nil {
		return err
	}

	request := tasks.GenerateRequest{
		Style:    cmd.String("style"),
		Mood:     cmd.String("mood"),
		Keywords: cmd.String("keywords"),
	}

	model := ui.NewModel(ctx, r.engine, request)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// tuiCommand returns the top-level TUI command for interactive generation.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for bulk generation",
		Flags: []cli.Flag{
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
		},
		Action: r.TUI,
	}
}
