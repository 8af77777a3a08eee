package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/slmtnm/s3nav/internal/config"
	"github.com/slmtnm/s3nav/internal/model"
	"github.com/slmtnm/s3nav/internal/navigator"
	"github.com/slmtnm/s3nav/internal/storage"
	"github.com/slmtnm/s3nav/internal/ui"
)

// runBrowser runs the interactive browser until the user quits.
func runBrowser(ctx context.Context, cfg config.Config, client *storage.Client, start model.Path, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var program *tea.Program
	bridge := ui.NewBridge(func(msg tea.Msg) { program.Send(msg) })
	loop := navigator.NewLoop(bridge.OnBusy)
	nav := navigator.New(client, bridge, loop, logger)
	actions := navigator.NewDispatcher(ctx, loop, nav, start)

	header := ui.Header{
		Profile:     cfg.Profile,
		Region:      cfg.Region,
		AccessKeyID: client.AccessKeyID(ctx),
	}
	program = tea.NewProgram(ui.NewModel(actions, header), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Navigator loop stopped", zap.Error(err))
		}
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", err)
	}
	logger.Info("Exiting")
	return nil
}
