package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/config"
	"github.com/theirongolddev/ngodash/internal/logging"
	"github.com/theirongolddev/ngodash/internal/session"
	"github.com/theirongolddev/ngodash/internal/tui"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	needSetup := !config.Exists()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := logging.OpenFile(config.LogPath(cfg))
	if err != nil {
		return err
	}
	defer logFile.Close()

	// The session fires from API goroutines; the dashboard drains it.
	expired := make(chan struct{}, 1)
	a, err := newApp(logFile, session.OnExpired(func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	}))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	changed, err := a.creds.Watch(ctx)
	if err != nil {
		// Cross-process sync is optional.
		a.logger.Warn("watching credential store", "err", err)
		changed = nil
	}

	theme.SetActive(a.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.New(tui.Deps{
		Session:      a.session,
		Backend:      a.client,
		Allocator:    a.allocator(),
		Config:       a.cfg,
		SaveConfig:   config.Save,
		Logger:       a.logger,
		Expired:      expired,
		StoreChanged: changed,
		NeedSetup:    needSetup,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	a.logger.Info("starting dashboard", "api", a.cfg.API.BaseURL)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
