package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/statify/internal/shared"
	"github.com/desertthunder/statify/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/statify-tui.log"

// TUI launches the interactive dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	timeRange, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if err := r.requireLogin(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, ui.Options{
		Engine:    r.engine,
		Search:    r.stats,
		Mine:      r.mine,
		Session:   r.session,
		TimeRange: timeRange,
		Limit:     cmd.Int("limit"),
		Debounce:  r.config.Client.Debounce(),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
