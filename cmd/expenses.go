package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense"},
	Short:   "Record and inspect expenses",
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all expenses",
	RunE:  authed("", runExpensesList),
}

var expensesCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "List expenses for the current period",
	RunE:  authed("", runExpensesCurrent),
}

var expensesShowCmd = &cobra.Command{
	Use:   "show <expense-id>",
	Short: "Show one expense",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runExpensesShow),
}

var expensesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record an expense against a project activity and budget line",
}

var expensesUpdateCmd = &cobra.Command{
	Use:   "update <expense-id>",
	Short: "Edit an expense; only the fields given as flags change",
	Args:  cobra.ExactArgs(1),
}

func expenseFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("project", "", "Project ID")
	f.String("activity", "", "Activity ID")
	f.String("budget", "", "Budget line ID")
	f.String("date", "", "Expense date (YYYY-MM-DD)")
	f.String("amount", "", "Amount spent")
	f.String("remaining", "", "Remaining balance to spend")
	f.String("reforecast", "", "Re-forecast")
	f.String("over-under", "", "Over/underspend")
	f.String("actual-ytd", "", "Actual financial year to date")
	f.String("recent-ytd", "", "Recent financial year to date")
}

func init() {
	expensesCreateCmd.RunE = authed("", runExpensesCreate)
	expensesUpdateCmd.RunE = authed("", runExpensesUpdate)
	expenseFlags(expensesCreateCmd)
	expenseFlags(expensesUpdateCmd)

	expensesCmd.AddCommand(expensesListCmd, expensesCurrentCmd, expensesShowCmd, expensesCreateCmd, expensesUpdateCmd)
	rootCmd.AddCommand(expensesCmd)
}

func runExpensesList(ctx context.Context, a *app, _ []string) error {
	expenses, err := a.client.ListExpenses(ctx)
	if err != nil {
		return err
	}
	printExpenses("Expenses", expenses)
	return nil
}

func runExpensesCurrent(ctx context.Context, a *app, _ []string) error {
	expenses, err := a.client.CurrentExpenses(ctx)
	if err != nil {
		return err
	}
	printExpenses("Current Expenses", expenses)
	return nil
}

func refLabel(r *model.Ref) string {
	if r == nil {
		return "-"
	}
	return r.Label()
}

func printExpenses(title string, expenses []model.Expense) {
	if len(expenses) == 0 {
		fmt.Println("\n  No expenses found.")
		return
	}

	var total float64
	rows := make([][]string, 0, len(expenses)+2)
	for _, e := range expenses {
		total += e.Amount
		rows = append(rows, []string{
			e.ID.String(),
			cli.FormatShortDate(e.ExpenseDate),
			cli.Truncate(refLabel(e.Project), 24),
			cli.Truncate(refLabel(e.Activity), 20),
			cli.FormatNumber(int64(e.Amount)),
			cli.FormatCompact(e.RemainingBalanceToSpend),
		})
	}
	rows = append(rows, []string{"---"}, []string{"Total", "", "", "", cli.FormatNumber(int64(total)), ""})

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("%s (%d)", title, len(expenses)),
		Headers: []string{"ID", "Date", "Project", "Activity", "Amount", "Remaining"},
		Rows:    rows,
		Numeric: []bool{false, false, false, false, true, true},
	}))
}

func runExpensesShow(ctx context.Context, a *app, args []string) error {
	e, err := a.client.GetExpense(ctx, args[0])
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("expense %s not found", args[0])
	}

	fmt.Println()
	fmt.Println(cli.RenderKV("ID", e.ID.String()))
	fmt.Println(cli.RenderKV("Date", cli.FormatDate(e.ExpenseDate)))
	fmt.Println(cli.RenderKV("Project", refLabel(e.Project)))
	fmt.Println(cli.RenderKV("Activity", refLabel(e.Activity)))
	fmt.Println(cli.RenderKV("Budget line", refLabel(e.Budget)))
	fmt.Println(cli.RenderKV("Amount", cli.FormatNumber(int64(e.Amount))))
	if e.Description != "" {
		fmt.Println(cli.RenderKV("Description", e.Description))
	}
	fmt.Println()
	fmt.Println(cli.RenderSection("Financials"))
	fmt.Println(cli.RenderKV("Actual YTD", humanAmount(e.ActualFinancialYTD)))
	fmt.Println(cli.RenderKV("Recent YTD", humanAmount(e.RecentFinancialYTD)))
	fmt.Println(cli.RenderKV("Re-forecast", humanAmount(e.Reforecast)))
	fmt.Println(cli.RenderKV("Over/underspend", humanAmount(e.OverUnderspend)))
	fmt.Println(cli.RenderKV("Left to spend", humanAmount(e.RemainingBalanceToSpend)))
	fmt.Println()
	return nil
}

// applyExpenseFlags copies the changed expense flags onto in and reports
// how many there were.
func applyExpenseFlags(c *cobra.Command, in *model.ExpenseInput) (int, error) {
	n, err := changedStrings(c, map[string]*string{
		"project":  &in.ProjectID,
		"activity": &in.ActivityID,
		"budget":   &in.BudgetID,
		"date":     &in.ExpenseDate,
	})
	if err != nil {
		return n, err
	}
	m, err := changedNumbers(c, map[string]*float64{
		"amount":     &in.Amount,
		"remaining":  &in.RemainingBalanceToSpend,
		"reforecast": &in.Reforecast,
		"over-under": &in.OverUnderspend,
		"actual-ytd": &in.ActualFinancialYTD,
		"recent-ytd": &in.RecentFinancialYTD,
	}, "amount")
	return n + m, err
}

func checkExpense(in model.ExpenseInput) error {
	if missing := in.Missing(); len(missing) > 0 {
		return fmt.Errorf("required fields missing: %s", strings.Join(missing, ", "))
	}
	return checkDates(in.ExpenseDate)
}

func runExpensesCreate(ctx context.Context, a *app, _ []string) error {
	var in model.ExpenseInput
	if _, err := applyExpenseFlags(expensesCreateCmd, &in); err != nil {
		return err
	}
	if err := checkExpense(in); err != nil {
		return err
	}
	if u, ok := a.session.User(); ok {
		in.CreatedBy = u.ID.String()
	}

	created, err := a.client.CreateExpense(ctx, in)
	if err != nil {
		return err
	}
	id := ""
	if created != nil {
		id = created.ID.String()
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Recorded expense %s of %s", id, cli.FormatNumber(int64(in.Amount)))))
	return nil
}

func runExpensesUpdate(ctx context.Context, a *app, args []string) error {
	e, err := a.client.GetExpense(ctx, args[0])
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("expense %s not found", args[0])
	}

	in := e.Input()
	n, err := applyExpenseFlags(expensesUpdateCmd, &in)
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoChanges
	}
	if err := checkExpense(in); err != nil {
		return err
	}

	if _, err := a.client.UpdateExpense(ctx, args[0], in); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Updated expense %s", args[0])))
	return nil
}

func humanAmount(v float64) string {
	if v == 0 {
		return "-"
	}
	return cli.FormatCompact(v)
}
