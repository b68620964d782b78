package tui

import (
	"context"
	"fmt"

	"chatterm/internal/chat"
	"chatterm/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Options configures an interactive session.
type Options struct {
	Version    string
	Config     *config.Config
	Controller *chat.Controller
	Logger     *zap.Logger
}

// Run launches the full-screen chat. Quitting cancels any reveal still running.
func Run(opts Options) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	// Resolve the markdown theme before Bubble Tea takes over the terminal.
	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := initialModel(ctx, cancel, opts.Controller, opts.Config, opts.Version, style)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	opts.Logger.Info("session started", zap.String("endpoint", endpointStr(opts.Config)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	opts.Logger.Info("session ended", zap.Int("records", m.store.Len()))

	return nil
}
