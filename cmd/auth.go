package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/session"
)

var (
	flagEmail    string
	flagPassword string
	flagName     string
	flagRole     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Account email (prompted if empty)")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Account password (prompted if empty)")

	registerCmd.Flags().StringVar(&flagName, "name", "", "Full name")
	registerCmd.Flags().StringVar(&flagEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&flagPassword, "password", "", "Account password")
	registerCmd.Flags().StringVar(&flagRole, "role", "", "Requested role, if the server allows it")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func validateEmail(s string) error {
	if !model.IsValidEmail(strings.TrimSpace(s)) {
		return errors.New("enter a valid email address")
	}
	return nil
}

func validateStrongPassword(s string) error {
	if !model.IsStrongPassword(s) {
		return errors.New("use 8+ characters with upper and lower case, a digit and one of !@#$%^&*()_+")
	}
	return nil
}

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	email, password := flagEmail, flagPassword
	if email == "" || password == "" {
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email).Validate(validateEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password).
				Validate(notEmpty("password")),
		))
		if err := form.Run(); err != nil {
			return err
		}
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.session.Login(cmd.Context(), email, password)
	if err != nil {
		return loginFailure(err)
	}

	fmt.Println(cli.RenderOK(fmt.Sprintf("Logged in as %s", userLabel(*user))))
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	reg := api.Registration{
		Name:     flagName,
		Email:    flagEmail,
		Password: flagPassword,
		Role:     model.Role(flagRole),
	}

	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		var confirm string
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&reg.Name).Validate(notEmpty("name")),
			huh.NewInput().Title("Email").Value(&reg.Email).Validate(validateEmail),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&reg.Password).
				Validate(validateStrongPassword),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
				Validate(func(s string) error {
					if s != reg.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		))
		if err := form.Run(); err != nil {
			return err
		}
	} else if err := validateStrongPassword(reg.Password); err != nil {
		return err
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.session.Register(cmd.Context(), reg)
	if err != nil {
		return loginFailure(err)
	}

	fmt.Println(cli.RenderOK(fmt.Sprintf("Registered and logged in as %s", userLabel(*user))))
	return nil
}

func loginFailure(err error) error {
	var authErr *session.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return errors.New(authErr.Message)
	}
	return err
}

func runLogout(_ *cobra.Command, _ []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	a.session.Logout()
	fmt.Println(cli.RenderOK("Logged out"))
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := restoreSession(cmd.Context(), a); err != nil {
		return err
	}
	user, ok := a.session.User()
	if !ok || !a.session.IsAuthenticated() {
		fmt.Println("  Not logged in. Run `ngodash login`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderKV("Name", cli.OrDash(user.Name)))
	fmt.Println(cli.RenderKV("Email", cli.OrDash(user.Email)))
	fmt.Println(cli.RenderKV("Role", cli.OrDash(string(user.Role))))
	fmt.Println(cli.RenderKV("User ID", user.ID.String()))
	fmt.Println(cli.RenderKV("API", a.client.BaseURL()))
	if exp, ok := a.session.Expiry(); ok {
		fmt.Println(cli.RenderKV("Token expires", fmt.Sprintf("%s (%s)",
			exp.Local().Format(time.RFC1123), cli.FormatRelative(exp))))
	}
	fmt.Println()
	return nil
}

func userLabel(u model.User) string {
	switch {
	case u.Name != "" && u.Email != "":
		return fmt.Sprintf("%s <%s>", u.Name, u.Email)
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	}
	return u.ID.String()
}
