package tui

import (
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// setupValues holds the first-run form's answers.
type setupValues struct {
	theme       string
	autoRefresh bool
	interval    string
}

func newSetupForm(baseURL string, vals *setupValues) *huh.Form {
	opts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		opts = append(opts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to ngodash!").
				Description("Connected to "+baseURL+"\nRun `ngodash setup` later to change the server."),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(opts...).
				Value(&vals.theme),
			huh.NewConfirm().
				Title("Refresh data automatically?").
				Value(&vals.autoRefresh),
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Value(&vals.interval).
				Validate(func(s string) error {
					_, err := strconv.Atoi(strings.TrimSpace(s))
					return err
				}),
		),
	).WithShowHelp(false)
}

func (a *App) startSetup() tea.Cmd {
	a.phase = phaseSetup
	a.setupVals = &setupValues{
		theme:       a.cfg.Appearance.Theme,
		autoRefresh: a.cfg.TUI.AutoRefresh,
		interval:    strconv.Itoa(a.cfg.TUI.RefreshIntervalSec),
	}
	a.setupForm = newSetupForm(a.cfg.API.BaseURL, a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.formWidth())
	}
	return a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.setupForm == nil {
		return a, nil
	}
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.applySetup()
		fallthrough
	case huh.StateAborted:
		// Skipping setup keeps the defaults for this run.
		a.setupForm = nil
		a.deps.NeedSetup = false
		cmd = a.enterSession(a.pendingState)
		return a, cmd
	}
	return a, cmd
}

func (a *App) applySetup() {
	v := a.setupVals
	a.cfg.Appearance.Theme = v.theme
	a.cfg.TUI.AutoRefresh = v.autoRefresh
	if n, err := strconv.Atoi(strings.TrimSpace(v.interval)); err == nil {
		a.cfg.TUI.RefreshIntervalSec = n
	}
	a.applyConfig()
	a.saveConfig()
}

// applyConfig pushes a.cfg into the running dashboard.
func (a *App) applyConfig() {
	a.cfg.Sanitize()
	theme.SetActive(a.cfg.Appearance.Theme)
	a.autoRefresh = a.cfg.TUI.AutoRefresh
	a.refreshInterval = time.Duration(a.cfg.TUI.RefreshIntervalSec) * time.Second
}
