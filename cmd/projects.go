package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

var (
	flagMine    bool
	flagProject model.Project
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "List, inspect and create projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  authed("", runProjectsList),
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its budget utilisation",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runProjectsShow),
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE:  authed("", runProjectsCreate),
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Edit a project; only the fields given as flags change",
	Args:  cobra.ExactArgs(1),
}

func init() {
	projectsUpdateCmd.RunE = authed("", runProjectsUpdate)
	projectsListCmd.Flags().BoolVar(&flagMine, "mine", false, "Only projects owned by the logged-in user")

	f := projectsCreateCmd.Flags()
	f.StringVar(&flagProject.Name, "name", "", "Project name")
	f.StringVar(&flagProject.ProjectCode, "code", "", "Project code")
	f.StringVar(&flagProject.Theme, "theme", "", "Thematic area")
	f.StringVar(&flagProject.TypeOfFund, "fund-type", "", "Type of fund")
	f.StringVar(&flagProject.FinancialYear, "financial-year", "", "Financial year")
	f.StringVar(&flagProject.Description, "description", "", "Description")
	f.StringVar(&flagProject.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&flagProject.EndDate, "end", "", "End date (YYYY-MM-DD)")
	f.Float64Var(&flagProject.TotalBudget, "budget", 0, "Total budget")
	f.StringVar(&flagProject.DonorCurrency, "currency", "USD", "Donor currency")

	u := projectsUpdateCmd.Flags()
	u.String("name", "", "Project name")
	u.String("code", "", "Project code")
	u.String("theme", "", "Thematic area")
	u.String("fund-type", "", "Type of fund")
	u.String("financial-year", "", "Financial year")
	u.String("description", "", "Description")
	u.String("start", "", "Start date (YYYY-MM-DD)")
	u.String("end", "", "End date (YYYY-MM-DD)")
	u.String("status", "", "Project status")
	u.String("currency", "", "Donor currency")
	u.String("budget", "", "Total budget")

	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsCreateCmd, projectsUpdateCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjectsList(ctx context.Context, a *app, _ []string) error {
	var (
		projects []model.Project
		err      error
	)
	if flagMine {
		user, _ := a.session.User()
		projects, err = a.client.ListProjectsByUser(ctx, user.ID.String())
	} else {
		projects, err = a.client.ListProjects(ctx)
	}
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		fmt.Println("\n  No projects found.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID.String(),
			cli.Truncate(p.Name, 32),
			cli.OrDash(p.ProjectCode),
			cli.Capitalize(cli.OrDash(p.Status)),
			cli.FormatShortDate(p.StartDate),
			cli.FormatShortDate(p.EndDate),
			cli.FormatMoney(p.TotalBudget, p.Currency()),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Projects (%d)", len(projects)),
		Headers: []string{"ID", "Name", "Code", "Status", "Start", "End", "Budget"},
		Rows:    rows,
		Numeric: []bool{false, false, false, false, false, false, true},
	}))
	return nil
}

func runProjectsShow(ctx context.Context, a *app, args []string) error {
	p, err := a.client.GetProject(ctx, args[0])
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %s not found", args[0])
	}

	lines, err := a.client.ListBudgetLines(ctx, p.ID.String())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(p.Name))
	fmt.Println()
	fmt.Println(cli.RenderKV("ID", p.ID.String()))
	fmt.Println(cli.RenderKV("Code", cli.OrDash(p.ProjectCode)))
	fmt.Println(cli.RenderKV("Number", cli.OrDash(p.ProjectNumber)))
	fmt.Println(cli.RenderKV("Status", cli.Capitalize(cli.OrDash(p.Status))))
	fmt.Println(cli.RenderKV("Theme", cli.OrDash(p.Theme)))
	fmt.Println(cli.RenderKV("Fund type", cli.OrDash(p.TypeOfFund)))
	fmt.Println(cli.RenderKV("Financial year", cli.OrDash(p.FinancialYear)))
	fmt.Println(cli.RenderKV("Period", fmt.Sprintf("%s to %s", cli.FormatDate(p.StartDate), cli.FormatDate(p.EndDate))))
	if p.Donor != nil {
		fmt.Println(cli.RenderKV("Donor", p.Donor.Label()))
	}
	if p.NGO != nil {
		fmt.Println(cli.RenderKV("NGO", p.NGO.Label()))
	}
	if p.Description != "" {
		fmt.Println(cli.RenderKV("Description", p.Description))
	}
	fmt.Println()

	printUtilization(*p, lines)
	printBudgetLines(*p, lines)
	return nil
}

func printUtilization(p model.Project, lines []model.BudgetLine) {
	u, err := budget.Utilize(p, lines)
	if err != nil {
		fmt.Println(cli.RenderWarn(err.Error()))
		fmt.Println()
		return
	}
	cur := p.Currency()
	fmt.Println(cli.RenderSection("Budget"))
	fmt.Println(cli.RenderKV("Total", cli.FormatMoneyDecimal(u.Total, cur)))
	fmt.Println(cli.RenderKV("Allocated", fmt.Sprintf("%s in %d lines", cli.FormatMoneyDecimal(u.Allocated, cur), u.Lines)))
	fmt.Println(cli.RenderKV("Remaining", cli.FormatMoneyDecimal(u.Remaining, cur)))
	fmt.Println(cli.RenderKV("Utilisation", cli.RenderUtilizationBar(u.Percent/100, 30)))
	if u.OverAllocated() {
		fmt.Println(cli.RenderWarn("allocations exceed the project budget"))
	}
	fmt.Println()
}

func printBudgetLines(p model.Project, lines []model.BudgetLine) {
	if len(lines) == 0 {
		fmt.Println("  No budget lines yet.")
		return
	}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		amount := "invalid"
		if v, err := l.AmountValue(); err == nil {
			amount = cli.FormatMoneyDecimal(v, p.Currency())
		}
		rows = append(rows, []string{
			cli.OrDash(l.Code),
			cli.Truncate(l.Name, 30),
			cli.Truncate(cli.OrDash(l.Description), 40),
			amount,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Budget Lines",
		Headers: []string{"Code", "Name", "Description", "Amount"},
		Rows:    rows,
		Numeric: []bool{false, false, false, true},
	}))
}

func runProjectsCreate(ctx context.Context, a *app, _ []string) error {
	p := flagProject
	if p.Name == "" || p.TotalBudget <= 0 {
		budgetStr := ""
		if p.TotalBudget > 0 {
			budgetStr = fmt.Sprintf("%g", p.TotalBudget)
		}
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Project name").Value(&p.Name).Validate(notEmpty("name")),
				huh.NewInput().Title("Project code").Value(&p.ProjectCode),
				huh.NewInput().Title("Theme").Value(&p.Theme),
				huh.NewInput().Title("Type of fund").Value(&p.TypeOfFund),
				huh.NewInput().Title("Financial year").Placeholder("2025-2026").Value(&p.FinancialYear),
			),
			huh.NewGroup(
				huh.NewInput().Title("Start date").Placeholder("YYYY-MM-DD").Value(&p.StartDate).Validate(validDate),
				huh.NewInput().Title("End date").Placeholder("YYYY-MM-DD").Value(&p.EndDate).Validate(validDate),
				huh.NewInput().Title("Total budget").Value(&budgetStr).Validate(validPositive),
				huh.NewInput().Title("Donor currency").Value(&p.DonorCurrency),
				huh.NewText().Title("Description").Value(&p.Description),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		v, err := parsePositive(budgetStr)
		if err != nil {
			return fmt.Errorf("total budget: %w", err)
		}
		p.TotalBudget = v
	}
	p.DonorCurrency = strings.ToUpper(strings.TrimSpace(p.DonorCurrency))

	created, err := a.client.CreateProject(ctx, p)
	if err != nil {
		return err
	}
	if created == nil {
		created = &p
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Created project %s %s", created.Name, created.ID)))
	return nil
}

func runProjectsUpdate(ctx context.Context, a *app, args []string) error {
	p, err := fetchProject(ctx, a, args[0])
	if err != nil {
		return err
	}

	n, err := changedStrings(projectsUpdateCmd, map[string]*string{
		"name":           &p.Name,
		"code":           &p.ProjectCode,
		"theme":          &p.Theme,
		"fund-type":      &p.TypeOfFund,
		"financial-year": &p.FinancialYear,
		"description":    &p.Description,
		"start":          &p.StartDate,
		"end":            &p.EndDate,
		"status":         &p.Status,
		"currency":       &p.DonorCurrency,
	})
	if err != nil {
		return err
	}
	m, err := changedNumbers(projectsUpdateCmd, map[string]*float64{"budget": &p.TotalBudget}, "budget")
	if err != nil {
		return err
	}
	if n+m == 0 {
		return errNoChanges
	}
	if p.Name == "" {
		return errors.New("project name cannot be empty")
	}
	if err := checkDates(p.StartDate, p.EndDate); err != nil {
		return err
	}
	p.DonorCurrency = strings.ToUpper(p.DonorCurrency)

	updated, err := a.client.UpdateProject(ctx, p.ID.String(), *p)
	if err != nil {
		return err
	}
	if updated == nil || updated.Name == "" {
		updated = p
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Updated project %s", updated.Name)))
	return nil
}
