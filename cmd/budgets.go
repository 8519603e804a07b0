package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

var (
	flagLine       model.BudgetLineInput
	flagLineAmount string
)

var budgetsCmd = &cobra.Command{
	Use:     "budgets",
	Aliases: []string{"budget"},
	Short:   "Manage a project's budget lines",
}

var budgetsListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's budget lines",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runBudgetsList),
}

var budgetsAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Add a budget line, refusing amounts that exceed the project budget",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runBudgetsAdd),
}

var budgetsCheckCmd = &cobra.Command{
	Use:   "check <project-id> <amount>",
	Short: "Check whether an amount still fits the project budget",
	Args:  cobra.ExactArgs(2),
	RunE:  authed("", runBudgetsCheck),
}

func init() {
	f := budgetsAddCmd.Flags()
	f.StringVar(&flagLine.Code, "code", "", "Budget line code")
	f.StringVar(&flagLine.Name, "name", "", "Budget line name")
	f.StringVar(&flagLineAmount, "amount", "", "Amount")
	f.StringVar(&flagLine.Description, "description", "", "Description")

	budgetsCmd.AddCommand(budgetsListCmd, budgetsAddCmd, budgetsCheckCmd)
	rootCmd.AddCommand(budgetsCmd)
}

func fetchProject(ctx context.Context, a *app, id string) (*model.Project, error) {
	p, err := a.client.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("project %s not found", id)
		}
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s not found", id)
	}
	if p.ID == "" {
		p.ID = model.ID(id)
	}
	return p, nil
}

func runBudgetsList(ctx context.Context, a *app, args []string) error {
	p, err := fetchProject(ctx, a, args[0])
	if err != nil {
		return err
	}
	lines, err := a.client.ListBudgetLines(ctx, p.ID.String())
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(p.Name))
	fmt.Println()
	printUtilization(*p, lines)
	printBudgetLines(*p, lines)
	return nil
}

func runBudgetsAdd(ctx context.Context, a *app, args []string) error {
	p, err := fetchProject(ctx, a, args[0])
	if err != nil {
		return err
	}

	in := flagLine
	amountStr := flagLineAmount
	if in.Code == "" || in.Name == "" || in.Description == "" || amountStr == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewNote().Title("New budget line").
				Description(fmt.Sprintf("%s, total budget %s", p.Name, cli.FormatMoney(p.TotalBudget, p.Currency()))),
			huh.NewInput().Title("Code").Value(&in.Code).Validate(notEmpty("code")),
			huh.NewInput().Title("Name").Value(&in.Name).Validate(notEmpty("name")),
			huh.NewInput().Title("Amount").Value(&amountStr).Validate(validPositive),
			huh.NewText().Title("Description").Value(&in.Description).Validate(notEmpty("description")),
		))
		if err := form.Run(); err != nil {
			return err
		}
	}
	in.Amount, err = parseAmount(amountStr)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	line, alloc, err := a.allocator().Create(ctx, *p, in)
	if err != nil {
		return budgetFailure(err, p.Currency())
	}

	fmt.Println(cli.RenderOK(fmt.Sprintf("Added %s (%s) for %s",
		line.Name, line.Code, cli.FormatMoneyDecimal(in.Amount, p.Currency()))))
	fmt.Println(cli.RenderKV("Remaining", cli.FormatMoneyDecimal(alloc.Remaining, p.Currency())))
	return nil
}

func runBudgetsCheck(ctx context.Context, a *app, args []string) error {
	amount, err := model.ParseDecimal(strings.TrimSpace(args[1]))
	if err != nil {
		return fmt.Errorf("amount %q is not a number", args[1])
	}
	p, err := fetchProject(ctx, a, args[0])
	if err != nil {
		return err
	}

	alloc, err := a.allocator().Guard().ValidateAllocation(ctx, p.ID.String(), amount, p.Total())
	if err != nil {
		return budgetFailure(err, p.Currency())
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("%s fits: %s allocated of %s, %s left afterwards",
		cli.FormatMoneyDecimal(amount, p.Currency()),
		cli.FormatMoneyDecimal(alloc.Existing, p.Currency()),
		cli.FormatMoneyDecimal(alloc.Total, p.Currency()),
		cli.FormatMoneyDecimal(alloc.Remaining, p.Currency()))))
	return nil
}

// budgetFailure turns guard and server errors into the messages shown to
// the user.
func budgetFailure(err error, currency string) error {
	var (
		exceeded *budget.BudgetExceededError
		invalid  *budget.InvalidAmountError
		badLine  *budget.InvalidLineError
		missing  *budget.MissingFieldsError
		apiErr   *api.Error
	)
	switch {
	case errors.As(err, &exceeded):
		return fmt.Errorf("total allocated amount cannot exceed project budget: %s remaining, %s requested",
			cli.FormatMoneyDecimal(exceeded.Remaining, currency), cli.FormatMoneyDecimal(exceeded.Candidate, currency))
	case errors.As(err, &invalid):
		return errors.New("amount must be a positive number")
	case errors.As(err, &badLine):
		return fmt.Errorf("cannot check allocation: %w", badLine)
	case errors.As(err, &missing):
		return missing
	case errors.As(err, &apiErr):
		return fmt.Errorf("server rejected the budget line: %s", apiErr.Message)
	}
	return err
}
