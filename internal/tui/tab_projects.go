package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/tui/components"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// projectsState tracks the projects tab.
type projectsState struct {
	projects []model.Project
	table    table.Model
}

// tableOverhead is the header, status bar, card border and table header.
const tableOverhead = 8

func projectColumns(width int) []table.Column {
	fixed := 10 + 12 + 16 + 11 + 11
	nameW := max(width-fixed-12, 16)
	return []table.Column{
		{Title: "Name", Width: nameW},
		{Title: "Code", Width: 10},
		{Title: "Status", Width: 12},
		{Title: "Budget", Width: 16},
		{Title: "Start", Width: 11},
		{Title: "End", Width: 11},
	}
}

func newProjectsState() projectsState {
	t := theme.Active

	tbl := table.New(
		table.WithColumns(projectColumns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(t.Accent).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceBright).
		Bold(true)
	styles.Cell = styles.Cell.Foreground(t.TextPrimary)
	tbl.SetStyles(styles)

	return projectsState{table: tbl}
}

func (s *projectsState) resize(width, height int) {
	inner := components.CardInnerWidth(width)
	s.table.SetColumns(projectColumns(inner))
	s.table.SetWidth(inner)
	s.table.SetHeight(max(height-tableOverhead, 3))
}

func (s *projectsState) setProjects(projects []model.Project) {
	s.projects = projects
	rows := make([]table.Row, len(projects))
	for i, p := range projects {
		rows[i] = table.Row{
			p.Name,
			cli.OrDash(p.ProjectCode),
			cli.Capitalize(cli.OrDash(p.Status)),
			cli.FormatMoney(p.TotalBudget, p.Currency()),
			cli.FormatShortDate(p.StartDate),
			cli.FormatShortDate(p.EndDate),
		}
	}
	s.table.SetRows(rows)
	if c := s.table.Cursor(); c >= len(rows) {
		s.table.SetCursor(max(len(rows)-1, 0))
	}
}

// selected returns the project under the cursor.
func (s projectsState) selected() (model.Project, bool) {
	c := s.table.Cursor()
	if c < 0 || c >= len(s.projects) {
		return model.Project{}, false
	}
	return s.projects[c], true
}

func (a App) updateProjectsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		p, ok := a.projState.selected()
		if !ok {
			return a, nil, true
		}
		a.activeTab = tabBudgets
		cmd := a.selectBudgetProject(p)
		return a, cmd, true
	case "j", "k", "up", "down", "g", "G", "pgup", "pgdown", "ctrl+d", "ctrl+u":
		var cmd tea.Cmd
		a.projState.table, cmd = a.projState.table.Update(msg)
		return a, cmd, true
	}
	return a, nil, false
}

func (a App) renderProjectsTab(cw int) string {
	if a.summary == nil {
		return a.renderPlaceholder(cw)
	}
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var body strings.Builder
	if len(a.projState.projects) == 0 {
		body.WriteString(muted.Render("No projects yet. Create one with `ngodash projects create`."))
	} else {
		body.WriteString(a.projState.table.View())
		body.WriteString("\n")
		body.WriteString(muted.Render("[j/k] move  [Enter] open budget"))
	}

	title := "Projects (" + cli.FormatNumber(int64(len(a.projState.projects))) + ")"
	return components.ContentCard(title, body.String(), cw)
}
