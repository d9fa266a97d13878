package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mibands/internal/repositories"
	"github.com/desertthunder/mibands/internal/shared"
	"github.com/desertthunder/mibands/internal/tasks"
	"github.com/desertthunder/mibands/internal/ui"
)

// TUI launches the interactive band browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	db, closeDB, err := r.openDB(true)
	if err != nil {
		return err
	}
	defer closeDB()

	model := ui.NewModel(ctx, ui.Options{
		Bands:    repositories.NewBandRepository(db),
		Previews: r.previewSource(db),
		Engine:   r.engine(db),
		Warm:     tasks.WarmOpts{Workers: r.config.Tasks.Workers, RateLimit: r.config.Tasks.RateLimit},
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
