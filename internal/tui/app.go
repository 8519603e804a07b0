// Package tui provides the interactive Bubble Tea dashboard for ngodash.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/config"
	"github.com/theirongolddev/ngodash/internal/dashboard"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/session"
	"github.com/theirongolddev/ngodash/internal/tui/components"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// Backend is the API surface the dashboard reads.
type Backend interface {
	dashboard.Source
	ListBudgetLines(ctx context.Context, projectID string) ([]model.BudgetLine, error)
}

// Deps are the collaborators the dashboard is built from. Session,
// Backend and Allocator are required.
type Deps struct {
	Session   *session.Manager
	Backend   Backend
	Allocator *budget.Allocator
	Config    config.Config
	// SaveConfig persists settings edits. Nil disables saving.
	SaveConfig func(config.Config) error
	Logger     *slog.Logger

	// Expired receives a value each time the session expires or the
	// server rejects the token.
	Expired <-chan struct{}
	// StoreChanged receives a value when another process changes the
	// stored credentials.
	StoreChanged <-chan struct{}

	// NeedSetup shows the first-run form before anything else.
	NeedSetup bool
}

type phase int

const (
	phaseLoading phase = iota
	phaseSetup
	phaseLogin
	phaseMain
)

// App is the root Bubble Tea model.
type App struct {
	deps  Deps
	cfg   config.Config
	phase phase

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	// Status line message
	notice    string
	noticeErr bool

	// First-run setup (huh form)
	setupForm    *huh.Form
	setupVals    *setupValues
	pendingState session.State

	// Login (huh form)
	loginForm *huh.Form
	loginVals *loginValues
	loggingIn bool

	// Data
	summary     *dashboard.Summary
	loadErr     error
	lastRefresh time.Time
	refreshing  bool

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration

	// Per-tab state
	projState projectsState
	budState  budgetsState
	settings  settingsState
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	tickInterval = time.Second
	cmdTimeout   = 30 * time.Second
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabProjects
	tabBudgets
	tabDirectory
	tabSettings
)

// New creates the dashboard model.
func New(deps Deps) App {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := deps.Config
	cfg.Sanitize()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		deps:            deps,
		cfg:             cfg,
		phase:           phaseLoading,
		spinner:         sp,
		autoRefresh:     cfg.TUI.AutoRefresh,
		refreshInterval: time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second,
		projState:       newProjectsState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		initSessionCmd(a.deps.Session),
		tickCmd(),
		waitSignal(a.deps.Expired, expiredMsg{}),
		waitSignal(a.deps.StoreChanged, storeChangedMsg{}),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeForms()
		a.projState.resize(a.contentWidth(), a.height)
		return a, nil

	case tea.MouseMsg:
		if a.phase != phaseMain || a.showHelp || a.budState.form != nil {
			return a, nil
		}
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.phase {
		case phaseSetup:
			return a.updateSetupForm(msg)
		case phaseLogin:
			return a.updateLoginForm(msg)
		case phaseMain:
			return a.updateMainKeys(msg)
		}
		return a, nil

	case spinner.TickMsg:
		if a.phase == phaseLoading || a.loggingIn || a.refreshing || a.budState.busy {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case sessionReadyMsg:
		if a.deps.NeedSetup {
			a.pendingState = msg.state
			cmd := a.startSetup()
			return a, cmd
		}
		cmd := a.enterSession(msg.state)
		return a, cmd

	case loginDoneMsg:
		a.loggingIn = false
		if msg.err != nil {
			a.setNotice(loginFailure(msg.err), true)
			cmd := a.startLogin()
			return a, cmd
		}
		a.setNotice("Welcome, "+displayName(msg.user), false)
		cmd := a.enterMain()
		return a, cmd

	case expiredMsg:
		wait := waitSignal(a.deps.Expired, expiredMsg{})
		if a.phase != phaseMain {
			return a, wait
		}
		a.deps.Logger.Info("session ended, returning to login")
		a.setNotice("Session expired. Please login again.", true)
		cmd := tea.Batch(wait, a.leaveMain())
		return a, cmd

	case storeChangedMsg:
		wait := waitSignal(a.deps.StoreChanged, storeChangedMsg{})
		// An emptied store fires expiredMsg through the session callback.
		state := a.deps.Session.Sync()
		if a.phase == phaseLogin && !a.loggingIn && state == session.Authenticated {
			a.setNotice("Signed in from another terminal", false)
			cmd := tea.Batch(wait, a.enterMain())
			return a, cmd
		}
		return a, wait

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.phase != phaseMain {
			return a, tea.Batch(cmds...)
		}
		// Expiry fires the session callback, which arrives as expiredMsg.
		a.deps.Session.CheckExpiry()
		if a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			cmds = append(cmds, a.refresh())
		}
		return a, tea.Batch(cmds...)

	case dataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		if msg.err != nil {
			a.loadErr = msg.err
			a.setNotice(loadFailure(msg.err), true)
			return a, nil
		}
		a.loadErr = nil
		a.summary = msg.summary
		a.projState.setProjects(msg.summary.ProjectList)
		cmd := a.syncBudgetProject()
		return a, cmd

	case linesMsg:
		return a.handleLines(msg)

	case budgetCreatedMsg:
		return a.handleBudgetCreated(msg)
	}

	// Forward unhandled messages (cursor blinks, etc.) to an active form.
	switch {
	case a.phase == phaseSetup:
		return a.updateSetupForm(msg)
	case a.phase == phaseLogin && !a.loggingIn:
		return a.updateLoginForm(msg)
	case a.phase == phaseMain && a.budState.form != nil:
		return a.updateBudgetForm(msg)
	}

	return a, nil
}

func (a App) updateMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Open forms and inputs own the keyboard.
	if a.budState.form != nil {
		if key == "esc" {
			a.budState.form = nil
			a.setNotice("Cancelled", false)
			return a, nil
		}
		return a.updateBudgetForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	// Help toggle
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	// Tab-specific bindings take precedence.
	switch a.activeTab {
	case tabProjects:
		if m, cmd, ok := a.updateProjectsKeys(msg); ok {
			return m, cmd
		}
	case tabBudgets:
		if m, cmd, ok := a.updateBudgetsKeys(msg); ok {
			return m, cmd
		}
	case tabSettings:
		if m, cmd, ok := a.updateSettingsKeys(msg); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		cmd := a.refresh()
		return a, cmd
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		a.saveConfig()
		return a, nil
	case "l":
		a.deps.Session.Logout()
		a.setNotice("Logged out", false)
		cmd := a.leaveMain()
		return a, cmd
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// enterSession routes a settled session to the dashboard or the login
// form.
func (a *App) enterSession(state session.State) tea.Cmd {
	if state == session.Authenticated {
		return a.enterMain()
	}
	return a.startLogin()
}

func (a *App) enterMain() tea.Cmd {
	a.phase = phaseMain
	a.loginForm = nil
	return a.refresh()
}

// leaveMain drops everything fetched under the old session and shows the
// login form.
func (a *App) leaveMain() tea.Cmd {
	a.summary = nil
	a.loadErr = nil
	a.refreshing = false
	a.projState.setProjects(nil)
	a.budState = budgetsState{}
	a.showHelp = false
	a.activeTab = tabOverview
	return a.startLogin()
}

func (a *App) refresh() tea.Cmd {
	if a.refreshing {
		return nil
	}
	a.refreshing = true
	return tea.Batch(loadDataCmd(a.deps.Backend), a.spinner.Tick)
}

func (a *App) setNotice(msg string, isErr bool) {
	a.notice = msg
	a.noticeErr = isErr
}

func (a *App) saveConfig() {
	if a.deps.SaveConfig == nil {
		return
	}
	if err := a.deps.SaveConfig(a.cfg); err != nil {
		a.deps.Logger.Warn("saving config", "err", err)
		a.setNotice("Could not save settings: "+err.Error(), true)
	}
}

func (a App) formWidth() int {
	return max(min(a.width-8, 72), 30)
}

func (a *App) resizeForms() {
	if a.width == 0 {
		return
	}
	if a.setupForm != nil {
		a.setupForm = a.setupForm.WithWidth(a.formWidth())
	}
	if a.loginForm != nil {
		a.loginForm = a.loginForm.WithWidth(a.formWidth())
	}
	if a.budState.form != nil {
		a.budState.form = a.budState.form.WithWidth(a.formWidth())
	}
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	switch a.phase {
	case phaseLoading:
		return a.viewLoading()
	case phaseSetup:
		return a.viewCentered(a.setupForm.View())
	case phaseLogin:
		return a.viewLogin()
	}

	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  ngodash needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

// viewCentered places body in an accent-bordered card in the middle of
// the screen.
func (a App) viewCentered(body string) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ ngodash"))
	b.WriteString(subtitleStyle.Render(" · NGO Projects & Budgets"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Restoring session..."))

	return a.viewCentered(b.String())
}

type binding struct{ key, desc string }

var helpSections = []struct {
	title    string
	bindings []binding
}{
	{"Navigation", []binding{
		{"o p b d x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move in lists"},
		{"Enter", "Open project budget"},
	}},
	{"Budgets", []binding{
		{"a", "Add budget line"},
		{"[ ]", "Previous / Next project"},
	}},
	{"Session", []binding{
		{"r", "Refresh data"},
		{"R", "Toggle auto-refresh"},
		{"l", "Log out"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}},
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for i, sec := range helpSections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.viewCentered(b.String())
}

func (a App) statusInfo() components.Status {
	st := components.Status{
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Notice:      a.notice,
		NoticeErr:   a.noticeErr,
	}
	if u, ok := a.deps.Session.User(); ok {
		st.User = displayName(&u)
		st.Role = string(u.Role)
	}
	if exp, ok := a.deps.Session.Expiry(); ok {
		st.Expires = "expires " + cli.FormatRelative(exp)
	}
	return st
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header and status bar
	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	// 2. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 3. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabProjects:
		content = a.renderProjectsTab(cw)
	case tabBudgets:
		content = a.renderBudgetsTab(cw)
	case tabDirectory:
		content = a.renderDirectoryTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 4. Truncate + pad to exactly contentH lines, filled with background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
