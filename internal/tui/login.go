package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

type loginValues struct {
	email    string
	password string
}

func newLoginForm(vals *loginValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&vals.email).
				Validate(func(s string) error {
					if !model.IsValidEmail(strings.TrimSpace(s)) {
						return errors.New("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
		),
	).WithShowHelp(false)
}

// startLogin shows a fresh login form, keeping the last email typed.
func (a *App) startLogin() tea.Cmd {
	a.phase = phaseLogin
	a.loggingIn = false

	vals := &loginValues{}
	if a.loginVals != nil {
		vals.email = a.loginVals.email
	}
	a.loginVals = vals
	a.loginForm = newLoginForm(vals)
	if a.width > 0 {
		a.loginForm = a.loginForm.WithWidth(a.formWidth())
	}
	return a.loginForm.Init()
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Keys are ignored while a login request is in flight.
	if a.loggingIn || a.loginForm == nil {
		return a, nil
	}

	form, cmd := a.loginForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.loginForm = f
	}

	switch a.loginForm.State {
	case huh.StateCompleted:
		a.loggingIn = true
		a.notice = ""
		email := strings.TrimSpace(a.loginVals.email)
		return a, tea.Batch(loginCmd(a.deps.Session, email, a.loginVals.password), a.spinner.Tick)
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

func (a App) viewLogin() string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ ngodash"))
	b.WriteString(subtitleStyle.Render(" · Sign in"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(a.cfg.API.BaseURL))
	b.WriteString("\n\n")

	if a.notice != "" {
		style := okStyle
		if a.noticeErr {
			style = errStyle
		}
		b.WriteString(style.Render(a.notice))
		b.WriteString("\n\n")
	}

	if a.loggingIn {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Signing in..."))
	} else if a.loginForm != nil {
		b.WriteString(a.loginForm.View())
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Enter to submit · Esc to quit"))
	}

	return a.viewCentered(b.String())
}
