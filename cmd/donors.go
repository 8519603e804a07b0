package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

var (
	flagDonor model.Donor
	flagYes   bool
)

var donorsCmd = &cobra.Command{
	Use:     "donors",
	Aliases: []string{"donor"},
	Short:   "Manage donors",
}

var donorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List donors",
	RunE:  authed("", runDonorsList),
}

var donorsShowCmd = &cobra.Command{
	Use:   "show <donor-id>",
	Short: "Show one donor",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runDonorsShow),
}

var donorsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a donor",
	RunE:  authed("", runDonorsCreate),
}

var donorsUpdateCmd = &cobra.Command{
	Use:   "update <donor-id>",
	Short: "Edit a donor; only the fields given as flags change",
	Args:  cobra.ExactArgs(1),
}

var donorsDeleteCmd = &cobra.Command{
	Use:   "delete <donor-id>",
	Short: "Delete a donor",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runDonorsDelete),
}

func init() {
	donorsUpdateCmd.RunE = authed("", runDonorsUpdate)
	f := donorsCreateCmd.Flags()
	f.StringVar(&flagDonor.Name, "name", "", "Donor name")
	f.StringVar(&flagDonor.Email, "email", "", "Contact email")
	f.StringVar(&flagDonor.Contact, "contact", "", "Phone or contact person")
	f.StringVar(&flagDonor.Address, "address", "", "Postal address")
	f.StringVar(&flagDonor.DonorType, "type", "", "Donor type")
	f.StringVar(&flagDonor.Level, "level", "", "Donor level")
	f.StringVar(&flagDonor.DonorReportingCategory, "reporting-category", "", "Reporting category")
	f.StringVar(&flagDonor.BudgetHeading, "budget-heading", "", "Budget heading")
	f.Float64Var(&flagDonor.Amount, "amount", 0, "Committed amount")

	u := donorsUpdateCmd.Flags()
	u.String("name", "", "Donor name")
	u.String("email", "", "Contact email")
	u.String("contact", "", "Phone or contact person")
	u.String("address", "", "Postal address")
	u.String("type", "", "Donor type")
	u.String("level", "", "Donor level")
	u.String("reporting-category", "", "Reporting category")
	u.String("budget-heading", "", "Budget heading")
	u.String("amount", "", "Committed amount")

	donorsDeleteCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the confirmation prompt")

	donorsCmd.AddCommand(donorsListCmd, donorsShowCmd, donorsCreateCmd, donorsUpdateCmd, donorsDeleteCmd)
	rootCmd.AddCommand(donorsCmd)
}

func runDonorsList(ctx context.Context, a *app, _ []string) error {
	donors, err := a.client.ListDonors(ctx)
	if err != nil {
		return err
	}
	if len(donors) == 0 {
		fmt.Println("\n  No donors found.")
		return nil
	}

	rows := make([][]string, 0, len(donors))
	for _, d := range donors {
		rows = append(rows, []string{
			d.ID.String(),
			cli.Truncate(d.Name, 28),
			cli.OrDash(d.DonorType),
			cli.OrDash(d.Email),
			cli.FormatCompact(d.Amount),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Donors (%d)", len(donors)),
		Headers: []string{"ID", "Name", "Type", "Email", "Amount"},
		Rows:    rows,
		Numeric: []bool{false, false, false, false, true},
	}))
	return nil
}

func runDonorsShow(ctx context.Context, a *app, args []string) error {
	d, err := a.client.GetDonor(ctx, args[0])
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("donor %s not found", args[0])
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(d.Name))
	fmt.Println()
	fmt.Println(cli.RenderKV("ID", d.ID.String()))
	fmt.Println(cli.RenderKV("Email", cli.OrDash(d.Email)))
	fmt.Println(cli.RenderKV("Contact", cli.OrDash(d.Contact)))
	fmt.Println(cli.RenderKV("Address", cli.OrDash(d.Address)))
	fmt.Println(cli.RenderKV("Type", cli.OrDash(d.DonorType)))
	fmt.Println(cli.RenderKV("Level", cli.OrDash(d.Level)))
	fmt.Println(cli.RenderKV("Reporting", cli.OrDash(d.DonorReportingCategory)))
	fmt.Println(cli.RenderKV("Budget heading", cli.OrDash(d.BudgetHeading)))
	fmt.Println(cli.RenderKV("Amount", cli.FormatNumber(int64(d.Amount))))
	fmt.Println(cli.RenderKV("Added", cli.FormatDate(d.CreatedAt)))
	fmt.Println()
	return nil
}

func runDonorsCreate(ctx context.Context, a *app, _ []string) error {
	d := flagDonor
	if d.Name == "" {
		amount := ""
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Name").Value(&d.Name).Validate(notEmpty("name")),
				huh.NewInput().Title("Email").Value(&d.Email).Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validateEmail(s)
				}),
				huh.NewInput().Title("Contact").Value(&d.Contact),
				huh.NewInput().Title("Address").Value(&d.Address),
			),
			huh.NewGroup(
				huh.NewInput().Title("Donor type").Value(&d.DonorType),
				huh.NewInput().Title("Level").Value(&d.Level),
				huh.NewInput().Title("Amount").Value(&amount).Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validPositive(s)
				}),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if amount != "" {
			v, err := parsePositive(amount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			d.Amount = v
		}
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return errors.New("donor name is required")
	}

	created, err := a.client.CreateDonor(ctx, d)
	if err != nil {
		return err
	}
	id := ""
	if created != nil {
		id = created.ID.String()
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Created donor %s %s", d.Name, id)))
	return nil
}

func runDonorsUpdate(ctx context.Context, a *app, args []string) error {
	d, err := a.client.GetDonor(ctx, args[0])
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("donor %s not found", args[0])
	}

	n, err := changedStrings(donorsUpdateCmd, map[string]*string{
		"name":               &d.Name,
		"email":              &d.Email,
		"contact":            &d.Contact,
		"address":            &d.Address,
		"type":               &d.DonorType,
		"level":              &d.Level,
		"reporting-category": &d.DonorReportingCategory,
		"budget-heading":     &d.BudgetHeading,
	})
	if err != nil {
		return err
	}
	m, err := changedNumbers(donorsUpdateCmd, map[string]*float64{"amount": &d.Amount}, "amount")
	if err != nil {
		return err
	}
	if n+m == 0 {
		return errNoChanges
	}
	if d.Name == "" {
		return errors.New("donor name is required")
	}
	if d.Email != "" {
		if err := validateEmail(d.Email); err != nil {
			return err
		}
	}

	if _, err := a.client.UpdateDonor(ctx, args[0], *d); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Updated donor %s", d.Name)))
	return nil
}

func runDonorsDelete(ctx context.Context, a *app, args []string) error {
	d, err := a.client.GetDonor(ctx, args[0])
	if err != nil {
		return err
	}
	name := args[0]
	if d != nil && d.Name != "" {
		name = d.Name
	}

	ok, err := confirm(fmt.Sprintf("Delete donor %s?", name), flagYes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("  Cancelled.")
		return nil
	}
	if err := a.client.DeleteDonor(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Deleted donor %s", name)))
	return nil
}
