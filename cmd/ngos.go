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

var flagNGO model.NGO

var ngosCmd = &cobra.Command{
	Use:     "ngos",
	Aliases: []string{"ngo"},
	Short:   "Manage implementing organisations",
}

var ngosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List NGOs",
	RunE:  authed("", runNGOsList),
}

var ngosShowCmd = &cobra.Command{
	Use:   "show <ngo-id>",
	Short: "Show one NGO",
	Args:  cobra.ExactArgs(1),
	RunE:  authed("", runNGOsShow),
}

var ngosCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an NGO",
	RunE:  authed("", runNGOsCreate),
}

var ngosUpdateCmd = &cobra.Command{
	Use:   "update <ngo-id>",
	Short: "Edit an NGO; only the fields given as flags change",
	Args:  cobra.ExactArgs(1),
}

func init() {
	ngosUpdateCmd.RunE = authed("", runNGOsUpdate)
	f := ngosCreateCmd.Flags()
	f.StringVar(&flagNGO.Name, "name", "", "Organisation name")
	f.StringVar(&flagNGO.Email, "email", "", "Contact email")
	f.StringVar(&flagNGO.Contact, "contact", "", "Phone or contact person")
	f.StringVar(&flagNGO.Address, "address", "", "Postal address")

	u := ngosUpdateCmd.Flags()
	u.String("name", "", "Organisation name")
	u.String("email", "", "Contact email")
	u.String("contact", "", "Phone or contact person")
	u.String("address", "", "Postal address")

	ngosCmd.AddCommand(ngosListCmd, ngosShowCmd, ngosCreateCmd, ngosUpdateCmd)
	rootCmd.AddCommand(ngosCmd)
}

func runNGOsList(ctx context.Context, a *app, _ []string) error {
	ngos, err := a.client.ListNGOs(ctx)
	if err != nil {
		return err
	}
	if len(ngos) == 0 {
		fmt.Println("\n  No NGOs found.")
		return nil
	}

	rows := make([][]string, 0, len(ngos))
	for _, n := range ngos {
		rows = append(rows, []string{
			n.ID.String(),
			cli.Truncate(n.Name, 30),
			cli.OrDash(n.Email),
			cli.OrDash(n.Contact),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("NGOs (%d)", len(ngos)),
		Headers: []string{"ID", "Name", "Email", "Contact"},
		Rows:    rows,
		Numeric: []bool{},
	}))
	return nil
}

func runNGOsShow(ctx context.Context, a *app, args []string) error {
	n, err := a.client.GetNGO(ctx, args[0])
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("NGO %s not found", args[0])
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(n.Name))
	fmt.Println()
	fmt.Println(cli.RenderKV("ID", n.ID.String()))
	fmt.Println(cli.RenderKV("Email", cli.OrDash(n.Email)))
	fmt.Println(cli.RenderKV("Contact", cli.OrDash(n.Contact)))
	fmt.Println(cli.RenderKV("Address", cli.OrDash(n.Address)))
	fmt.Println(cli.RenderKV("Added", cli.FormatDate(n.CreatedAt)))
	fmt.Println()
	return nil
}

func runNGOsCreate(ctx context.Context, a *app, _ []string) error {
	n := flagNGO
	if n.Name == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Name").Value(&n.Name).Validate(notEmpty("name")),
			huh.NewInput().Title("Email").Value(&n.Email),
			huh.NewInput().Title("Contact").Value(&n.Contact),
			huh.NewInput().Title("Address").Value(&n.Address),
		))
		if err := form.Run(); err != nil {
			return err
		}
	}
	n.Name = strings.TrimSpace(n.Name)
	if n.Name == "" {
		return errors.New("NGO name is required")
	}

	if _, err := a.client.CreateNGO(ctx, n); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Created NGO %s", n.Name)))
	return nil
}

func runNGOsUpdate(ctx context.Context, a *app, args []string) error {
	n, err := a.client.GetNGO(ctx, args[0])
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("NGO %s not found", args[0])
	}

	changed, err := changedStrings(ngosUpdateCmd, map[string]*string{
		"name":    &n.Name,
		"email":   &n.Email,
		"contact": &n.Contact,
		"address": &n.Address,
	})
	if err != nil {
		return err
	}
	if changed == 0 {
		return errNoChanges
	}
	if n.Name == "" {
		return errors.New("NGO name is required")
	}
	if n.Email != "" {
		if err := validateEmail(n.Email); err != nil {
			return err
		}
	}

	if _, err := a.client.UpdateNGO(ctx, args[0], *n); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Updated NGO %s", n.Name)))
	return nil
}
