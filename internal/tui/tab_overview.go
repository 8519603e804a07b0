package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/dashboard"
	"github.com/theirongolddev/ngodash/internal/tui/components"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// compactWidth is the content width below which cards stack vertically.
const compactWidth = 110

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary
	if s == nil {
		return a.renderPlaceholder(cw)
	}
	var b strings.Builder

	// Row 1: Metric cards
	metrics := []components.Metric{
		{Label: "Projects", Value: cli.FormatNumber(int64(s.Projects)), Note: budgetNote(s), Color: t.AccentBright},
		{Label: "NGOs", Value: cli.FormatNumber(int64(s.NGOs))},
		{Label: "Donors", Value: cli.FormatNumber(int64(s.Donors))},
		{Label: "Expenses", Value: cli.FormatNumber(int64(s.Expenses))},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: budget by project, projects by status
	halves := components.LayoutRow(cw, 2)
	if cw < compactWidth {
		halves = []int{cw, cw}
	}

	budgetCard := components.ContentCard("Budget by Project",
		budgetChart(s, components.CardInnerWidth(halves[0])), halves[0])
	statusCard := components.ContentCard("Projects by Status",
		statusChart(s, components.CardInnerWidth(halves[1])), halves[1])
	if cw < compactWidth {
		b.WriteString(budgetCard)
		b.WriteString("\n")
		b.WriteString(statusCard)
	} else {
		b.WriteString(components.CardRow([]string{budgetCard, statusCard}))
	}
	b.WriteString("\n")

	// Row 3: recent projects
	b.WriteString(components.ContentCard("Recent Projects", recentProjects(s, components.CardInnerWidth(cw)), cw))
	return b.String()
}

// renderPlaceholder fills a tab before the first load completes.
func (a App) renderPlaceholder(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := a.spinner.View() + muted.Render(" Loading dashboard data...")
	if a.loadErr != nil && !a.refreshing {
		body = lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).
			Render(loadFailure(a.loadErr)) + "\n" + muted.Render("Press r to retry.")
	}
	return components.ContentCard("", body, cw)
}

func budgetNote(s *dashboard.Summary) string {
	currencies := make([]string, 0, len(s.TotalBudget))
	for c := range s.TotalBudget {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, cli.FormatMoney(s.TotalBudget[c], c))
	}
	if len(parts) == 0 {
		return "no budget yet"
	}
	return strings.Join(parts, " · ")
}

func budgetChart(s *dashboard.Summary, width int) string {
	if len(s.ProjectList) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Background(theme.Active.Surface).Render("No projects")
	}
	projects := append(s.ProjectList[:0:0], s.ProjectList...)
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].TotalBudget > projects[j].TotalBudget })
	if len(projects) > 8 {
		projects = projects[:8]
	}

	bars := make([]components.Bar, len(projects))
	for i, p := range projects {
		bars[i] = components.Bar{Label: p.Name, Value: p.TotalBudget}
	}
	return components.HBarChart(bars, min(20, width/3), width)
}

func statusChart(s *dashboard.Summary, width int) string {
	t := theme.Active
	if len(s.ByStatus) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No projects")
	}

	statuses := make([]string, 0, len(s.ByStatus))
	for st := range s.ByStatus {
		statuses = append(statuses, st)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if s.ByStatus[statuses[i]] != s.ByStatus[statuses[j]] {
			return s.ByStatus[statuses[i]] > s.ByStatus[statuses[j]]
		}
		return statuses[i] < statuses[j]
	})

	bars := make([]components.Bar, len(statuses))
	for i, st := range statuses {
		bars[i] = components.Bar{Label: cli.Capitalize(st), Value: float64(s.ByStatus[st]), Color: t.Status(st)}
	}
	return components.HBarChart(bars, min(14, width/3), width)
}

func recentProjects(s *dashboard.Summary, width int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(s.Recent) == 0 {
		return muted.Render("No projects yet")
	}

	nameW := max(width-46, 12)
	lines := make([]string, 0, len(s.Recent)+1)
	lines = append(lines, muted.Render(fmt.Sprintf("%-*s %-12s %-14s %16s", nameW, "Name", "Status", "Start", "Budget")))
	for _, p := range s.Recent {
		status := lipgloss.NewStyle().Foreground(t.Status(p.Status)).Background(t.Surface).
			Render(fmt.Sprintf("%-12s", cli.Truncate(cli.Capitalize(cli.OrDash(p.Status)), 12)))
		lines = append(lines,
			value.Render(fmt.Sprintf("%-*s ", nameW, cli.Truncate(p.Name, nameW)))+
				status+
				muted.Render(fmt.Sprintf(" %-14s", cli.FormatShortDate(p.StartDate)))+
				value.Render(fmt.Sprintf(" %16s", cli.FormatMoney(p.TotalBudget, p.Currency()))))
	}
	return strings.Join(lines, "\n")
}
