package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/tui/components"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

// budgetsState tracks the budgets tab: one project's lines and the
// add-line form.
type budgetsState struct {
	project *model.Project
	lines   []model.BudgetLine
	util    budget.Utilization
	utilErr error
	loading bool
	loadErr error

	form *huh.Form
	vals *lineValues
	// busy is set while a create request is in flight; submission is
	// disabled until it settles.
	busy bool
}

type lineValues struct {
	code        string
	name        string
	amount      string
	description string
}

func (a *App) selectBudgetProject(p model.Project) tea.Cmd {
	a.budState.project = &p
	a.budState.lines = nil
	a.budState.util = budget.Utilization{}
	a.budState.utilErr = nil
	a.budState.loadErr = nil
	a.budState.loading = true
	return loadLinesCmd(a.deps.Backend, p.ID.String())
}

// syncBudgetProject refreshes the selected project after a dashboard load,
// picking the first project when none is selected.
func (a *App) syncBudgetProject() tea.Cmd {
	projects := a.projState.projects
	if a.budState.project == nil {
		if len(projects) == 0 {
			return nil
		}
		return a.selectBudgetProject(projects[0])
	}
	for _, p := range projects {
		if p.ID == a.budState.project.ID {
			a.budState.project = &p
			a.budState.loading = true
			return loadLinesCmd(a.deps.Backend, p.ID.String())
		}
	}
	// The project is gone.
	a.budState.project = nil
	a.budState.lines = nil
	if len(projects) > 0 {
		return a.selectBudgetProject(projects[0])
	}
	return nil
}

func (a App) handleLines(msg linesMsg) (tea.Model, tea.Cmd) {
	p := a.budState.project
	if p == nil || p.ID.String() != msg.projectID {
		return a, nil // stale
	}
	a.budState.loading = false
	if msg.err != nil {
		a.budState.loadErr = msg.err
		return a, nil
	}
	a.budState.loadErr = nil
	a.budState.lines = msg.lines
	a.budState.util, a.budState.utilErr = budget.Utilize(*p, msg.lines)
	return a, nil
}

func (a App) updateBudgetsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "a":
		switch {
		case a.budState.busy:
			a.setNotice("A budget line is still being saved", true)
			return a, nil, true
		case a.budState.project == nil:
			a.setNotice("Select a project first", true)
			return a, nil, true
		}
		cmd := a.openBudgetForm()
		return a, cmd, true
	case "[", "]":
		projects := a.projState.projects
		if len(projects) == 0 {
			return a, nil, true
		}
		idx := 0
		if cur := a.budState.project; cur != nil {
			for i, p := range projects {
				if p.ID == cur.ID {
					idx = i
					break
				}
			}
			if msg.String() == "]" {
				idx = (idx + 1) % len(projects)
			} else {
				idx = (idx - 1 + len(projects)) % len(projects)
			}
		}
		a.projState.table.SetCursor(idx)
		cmd := a.selectBudgetProject(projects[idx])
		return a, cmd, true
	}
	return a, nil, false
}

func parseLineAmount(s string) (decimal.Decimal, error) {
	v, err := model.ParseDecimal(strings.TrimSpace(s))
	if err != nil || !v.IsPositive() {
		return decimal.Zero, errors.New("amount must be a positive number")
	}
	return v, nil
}

func validLineAmount(s string) error {
	_, err := parseLineAmount(s)
	return err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (a *App) openBudgetForm() tea.Cmd {
	p := a.budState.project
	remaining := "unknown"
	if a.budState.utilErr == nil && !a.budState.loading && a.budState.loadErr == nil {
		remaining = cli.FormatMoneyDecimal(a.budState.util.Remaining, p.Currency())
	}

	vals := &lineValues{}
	a.budState.vals = vals
	a.budState.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("New budget line · "+p.Name).
				Description("Remaining: "+remaining),
			huh.NewInput().Title("Code").Value(&vals.code).Validate(required("code")),
			huh.NewInput().Title("Name").Value(&vals.name).Validate(required("name")),
			huh.NewInput().Title("Amount ("+p.Currency()+")").Value(&vals.amount).Validate(validLineAmount),
			huh.NewText().Title("Description").Lines(3).Value(&vals.description).Validate(required("description")),
		),
	).WithShowHelp(false)
	if a.width > 0 {
		a.budState.form = a.budState.form.WithWidth(a.formWidth())
	}
	return a.budState.form.Init()
}

func (a App) updateBudgetForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.budState.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.budState.form = f
	}

	switch a.budState.form.State {
	case huh.StateCompleted:
		a.budState.form = nil
		cmd = a.submitBudget()
		return a, cmd
	case huh.StateAborted:
		a.budState.form = nil
		a.setNotice("Cancelled", false)
		return a, nil
	}
	return a, cmd
}

// submitBudget sends the form's line. It does nothing while another
// create is in flight.
func (a *App) submitBudget() tea.Cmd {
	if a.budState.busy || a.budState.project == nil || a.budState.vals == nil {
		return nil
	}
	v := a.budState.vals
	amount, err := parseLineAmount(v.amount)
	if err != nil {
		a.setNotice("Amount must be a positive number", true)
		return nil
	}

	a.budState.busy = true
	a.setNotice("Saving budget line...", false)
	in := model.BudgetLineInput{
		Code:        v.code,
		Name:        v.name,
		Amount:      amount,
		Description: v.description,
	}
	return tea.Batch(createBudgetCmd(a.deps.Allocator, *a.budState.project, in), a.spinner.Tick)
}

func (a App) handleBudgetCreated(msg budgetCreatedMsg) (tea.Model, tea.Cmd) {
	a.budState.busy = false
	currency := "USD"
	if p := a.budState.project; p != nil {
		currency = p.Currency()
	}

	if msg.err != nil {
		a.deps.Logger.Info("budget line rejected", "project", msg.projectID, "err", msg.err)
		a.setNotice(budgetNotice(msg.err, currency), true)
		return a, nil
	}

	name := ""
	if msg.line != nil {
		name = msg.line.Name
	}
	a.setNotice(fmt.Sprintf("Added budget line %s · %s remaining", name, cli.FormatMoneyDecimal(msg.alloc.Remaining, currency)), false)

	if p := a.budState.project; p != nil && p.ID.String() == msg.projectID {
		a.budState.loading = true
		return a, loadLinesCmd(a.deps.Backend, msg.projectID)
	}
	return a, nil
}

// budgetNotice turns guard and server errors into the text shown to the
// user.
func budgetNotice(err error, currency string) string {
	var (
		exceeded *budget.BudgetExceededError
		missing  *budget.MissingFieldsError
		badLine  *budget.InvalidLineError
		apiErr   *api.Error
	)
	switch {
	case errors.As(err, &exceeded):
		return fmt.Sprintf("Total allocated amount cannot exceed project budget (%s remaining)",
			cli.FormatMoneyDecimal(exceeded.Remaining, currency))
	case errors.Is(err, budget.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.As(err, &missing):
		return "Missing: " + strings.Join(missing.Fields, ", ")
	case errors.As(err, &badLine):
		return "Cannot check allocation: an existing line has an invalid amount"
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return api.Message(err)
}

func (a App) renderBudgetsTab(cw int) string {
	if a.summary == nil {
		return a.renderPlaceholder(cw)
	}
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	p := a.budState.project
	if p == nil {
		return components.ContentCard("Budgets", muted.Render("No projects yet."), cw)
	}
	inner := components.CardInnerWidth(cw)

	if a.budState.form != nil {
		return components.ContentCard("Budgets · "+p.Name, a.budState.form.View(), cw)
	}

	var b strings.Builder
	switch {
	case a.budState.loading && a.budState.lines == nil:
		b.WriteString(a.spinner.View() + muted.Render(" Loading budget lines..."))
	case a.budState.loadErr != nil:
		b.WriteString(warn.Render("Could not load budget lines: " + api.Message(a.budState.loadErr)))
	case a.budState.utilErr != nil:
		b.WriteString(warn.Render(a.budState.utilErr.Error()))
	default:
		b.WriteString(a.renderUtilization(*p, inner))
		b.WriteString("\n\n")
		b.WriteString(a.renderLines(*p, inner))
	}

	b.WriteString("\n\n")
	hint := "[a] add line  [ / ] previous / next project"
	if a.budState.busy {
		hint = a.spinner.View() + " saving..."
	}
	b.WriteString(muted.Render(hint))

	return components.ContentCard("Budgets · "+p.Name, b.String(), cw)
}

func (a App) renderUtilization(p model.Project, width int) string {
	t := theme.Active
	u := a.budState.util
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	cur := p.Currency()

	frac := u.Percent / 100
	detail := fmt.Sprintf("%s of %s", cli.FormatCompact(u.Allocated.InexactFloat64()), cli.FormatCompact(u.Total.InexactFloat64()))
	barW := max(width-12-30, 10)

	remainingStyle := value
	if u.OverAllocated() {
		remainingStyle = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	}

	rows := []string{
		components.UtilizationBar("Allocated", frac, detail, 10, barW),
		label.Render(fmt.Sprintf("%-12s", "Total")) + value.Render(cli.FormatMoneyDecimal(u.Total, cur)),
		label.Render(fmt.Sprintf("%-12s", "Allocated")) + value.Render(cli.FormatMoneyDecimal(u.Allocated, cur)),
		label.Render(fmt.Sprintf("%-12s", "Remaining")) + remainingStyle.Render(cli.FormatMoneyDecimal(u.Remaining, cur)),
		label.Render(fmt.Sprintf("%-12s", "Lines")) + value.Render(strconv.Itoa(u.Lines)),
	}
	return strings.Join(rows, "\n")
}

func (a App) renderLines(p model.Project, width int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(a.budState.lines) == 0 {
		return muted.Render("No budget lines yet. Press a to add one.")
	}

	nameW := max(width-12-18-8-3, 12)
	out := []string{muted.Render(fmt.Sprintf("%-12s%-*s %18s %8s", "Code", nameW, "Name", "Amount", "Share"))}
	total := p.Total()
	for _, l := range a.budState.lines {
		amount, share := "invalid", "-"
		if v, err := l.AmountValue(); err == nil {
			amount = cli.FormatMoneyDecimal(v, p.Currency())
			if total.IsPositive() {
				share = cli.FormatPercent(v.Div(total).InexactFloat64())
			}
		}
		out = append(out, value.Render(fmt.Sprintf("%-12s%-*s %18s %8s",
			cli.Truncate(l.Code, 11),
			nameW, cli.Truncate(l.Name, nameW),
			amount,
			share)))
	}
	return strings.Join(out, "\n")
}
