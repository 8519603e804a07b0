package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/dashboard"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/session"
)

// sessionReadyMsg is sent when the stored session has been validated.
type sessionReadyMsg struct {
	state session.State
}

// loginDoneMsg carries the result of a login attempt.
type loginDoneMsg struct {
	user *model.User
	err  error
}

// dataMsg carries a dashboard load.
type dataMsg struct {
	summary *dashboard.Summary
	err     error
}

// linesMsg carries the budget lines of one project.
type linesMsg struct {
	projectID string
	lines     []model.BudgetLine
	err       error
}

// budgetCreatedMsg carries the result of adding a budget line.
type budgetCreatedMsg struct {
	projectID string
	line      *model.BudgetLine
	alloc     budget.Allocation
	err       error
}

type (
	expiredMsg      struct{}
	storeChangedMsg struct{}
	tickMsg         struct{}
)

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// waitSignal turns the next value on ch into msg. A nil channel yields no
// command, so optional signals cost nothing.
func waitSignal(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

// initSessionCmd restores the stored session. Initialize applies its own
// timeout.
func initSessionCmd(m *session.Manager) tea.Cmd {
	return func() tea.Msg {
		return sessionReadyMsg{state: m.Initialize(context.Background())}
	}
}

func loginCmd(m *session.Manager, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()
		user, err := m.Login(ctx, email, password)
		return loginDoneMsg{user: user, err: err}
	}
}

func loadDataCmd(b Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()
		s, err := dashboard.Load(ctx, b)
		return dataMsg{summary: s, err: err}
	}
}

func loadLinesCmd(b Backend, projectID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()
		lines, err := b.ListBudgetLines(ctx, projectID)
		return linesMsg{projectID: projectID, lines: lines, err: err}
	}
}

func createBudgetCmd(alloc *budget.Allocator, project model.Project, in model.BudgetLineInput) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()
		line, a, err := alloc.Create(ctx, project, in)
		return budgetCreatedMsg{projectID: project.ID.String(), line: line, alloc: a, err: err}
	}
}

// loginFailure is the text shown under the login form.
func loginFailure(err error) string {
	var authErr *session.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return "Login failed: " + err.Error()
}

// loadFailure is the text shown when the dashboard cannot load.
func loadFailure(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return "Session expired. Please login again."
	}
	return "Failed to load dashboard data: " + api.Message(err)
}

func displayName(u *model.User) string {
	switch {
	case u == nil:
		return ""
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return u.ID.String()
}
