package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lectures/internal/search"
	"github.com/desertthunder/lectures/internal/shared"
	"github.com/desertthunder/lectures/internal/tasks"
	"github.com/desertthunder/lectures/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI over the catalog.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	model := ui.NewModel(ctx, search.NewEngine(db), tasks.NewTaxonomyManager(db, r.logger), r.open)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
