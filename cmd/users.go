package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Administer platform accounts (admin only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE:  authed(model.RoleAdmin, runUsersList),
}

var usersShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show one account",
	Args:  cobra.ExactArgs(1),
	RunE:  authed(model.RoleAdmin, runUsersShow),
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <user-id>",
	Short: "Edit an account's name, email or role",
	Args:  cobra.ExactArgs(1),
}

var usersActivateCmd = &cobra.Command{
	Use:   "activate <user-id>",
	Short: "Activate an account",
	Args:  cobra.ExactArgs(1),
	RunE: authed(model.RoleAdmin, func(ctx context.Context, a *app, args []string) error {
		return setUserActive(ctx, a, args[0], true)
	}),
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: authed(model.RoleAdmin, func(ctx context.Context, a *app, args []string) error {
		return setUserActive(ctx, a, args[0], false)
	}),
}

func init() {
	usersUpdateCmd.RunE = authed(model.RoleAdmin, runUsersUpdate)
	u := usersUpdateCmd.Flags()
	u.String("name", "", "Display name")
	u.String("email", "", "Email address")
	u.String("role", "", "Role (admin or user)")

	usersCmd.AddCommand(usersListCmd, usersShowCmd, usersUpdateCmd, usersActivateCmd, usersDeactivateCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersList(ctx context.Context, a *app, _ []string) error {
	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("\n  No users found.")
		return nil
	}

	var active int
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		if u.Active() {
			active++
		}
		rows = append(rows, []string{
			u.ID.String(),
			cli.Truncate(u.Name, 24),
			cli.OrDash(u.Email),
			cli.OrDash(cli.Capitalize(string(u.Role))),
			u.Status(),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Users (%d, %d active)", len(users), active),
		Headers: []string{"ID", "Name", "Email", "Role", "Status"},
		Rows:    rows,
		Numeric: []bool{},
	}))
	return nil
}

func runUsersShow(ctx context.Context, a *app, args []string) error {
	u, err := a.client.GetUser(ctx, args[0])
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s not found", args[0])
	}

	fmt.Println()
	fmt.Println(cli.RenderKV("ID", u.ID.String()))
	fmt.Println(cli.RenderKV("Name", cli.OrDash(u.Name)))
	fmt.Println(cli.RenderKV("Email", cli.OrDash(u.Email)))
	fmt.Println(cli.RenderKV("Role", cli.OrDash(cli.Capitalize(string(u.Role)))))
	fmt.Println(cli.RenderKV("Status", u.Status()))
	fmt.Println(cli.RenderKV("Joined", cli.FormatDate(u.CreatedAt)))
	fmt.Println()
	return nil
}

func runUsersUpdate(ctx context.Context, a *app, args []string) error {
	u, err := a.client.GetUser(ctx, args[0])
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s not found", args[0])
	}

	role := string(u.Role)
	n, err := changedStrings(usersUpdateCmd, map[string]*string{
		"name":  &u.Name,
		"email": &u.Email,
		"role":  &role,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoChanges
	}
	u.Role = model.Role(strings.ToLower(role))
	if u.Name == "" {
		return errors.New("name is required")
	}
	if err := validateEmail(u.Email); err != nil {
		return err
	}
	if u.Role != model.RoleAdmin && u.Role != model.RoleUser {
		return fmt.Errorf("role must be %s or %s", model.RoleAdmin, model.RoleUser)
	}
	if self, ok := a.session.User(); ok && self.ID == u.ID && self.Role == model.RoleAdmin && u.Role != model.RoleAdmin {
		return errors.New("refusing to remove your own admin role")
	}

	if _, err := a.client.UpdateUser(ctx, args[0], *u); err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("Updated user %s", u.Name)))
	return nil
}

func setUserActive(ctx context.Context, a *app, id string, active bool) error {
	if self, ok := a.session.User(); ok && self.ID.String() == id && !active {
		return fmt.Errorf("refusing to deactivate your own account")
	}

	var err error
	verb := "Activated"
	if active {
		err = a.client.ActivateUser(ctx, id)
	} else {
		verb = "Deactivated"
		err = a.client.DeactivateUser(ctx, id)
	}
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderOK(fmt.Sprintf("%s user %s", verb, id)))
	return nil
}
