package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/config"
	"github.com/theirongolddev/ngodash/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure the API endpoint and appearance",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func validBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("enter an http(s) URL such as http://localhost:5000/api")
	}
	return nil
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}
	interval := strconv.Itoa(cfg.TUI.RefreshIntervalSec)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to ngodash!").
				Description("Point ngodash at your platform's API and pick a look."),
			huh.NewInput().
				Title("API base URL").
				Value(&cfg.API.BaseURL).
				Validate(validBaseURL),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&cfg.Appearance.Theme),
			huh.NewConfirm().
				Title("Refresh the dashboard automatically?").
				Value(&cfg.TUI.AutoRefresh),
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Value(&interval).
				Validate(validPositive),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	if n, err := strconv.Atoi(strings.TrimSpace(interval)); err == nil {
		cfg.TUI.RefreshIntervalSec = n
	}
	cfg.Sanitize()

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `ngodash setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
