package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/cli"
	"github.com/theirongolddev/ngodash/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and stored session",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
		cfg.Sanitize()
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL:       %s\n", cfg.API.BaseURL)
	fmt.Printf("    Timeout:        %ds\n", cfg.API.TimeoutSec)
	fmt.Printf("    Init timeout:   %ds\n", cfg.API.InitTimeoutSec)
	if cfg.API.RatePerSec > 0 {
		fmt.Printf("    Rate limit:     %.0f req/s\n", cfg.API.RatePerSec)
	} else {
		fmt.Println("    Rate limit:     off")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Printf("    TUI log file: %s\n", config.LogPath(cfg))
	fmt.Println()

	fmt.Println("  [Session]")
	fmt.Printf("    Credentials: %s\n", config.CredentialsPath())
	a, err := newApp(io.Discard)
	if err != nil {
		fmt.Println(cli.RenderError(err.Error()))
	} else {
		defer a.Close()
		// Sync reads the stored session without contacting the server.
		state := a.session.Sync()
		fmt.Printf("    State:       %s\n", state)
		if token := a.session.Token(); token != "" {
			fmt.Printf("    Token:       %s\n", cli.MaskToken(token))
		}
		if exp, ok := a.session.Expiry(); ok {
			fmt.Printf("    Expires:     %s (%s)\n", exp.Local().Format("2006-01-02 15:04"), cli.FormatRelative(exp))
		}
		if u, ok := a.session.User(); ok {
			fmt.Printf("    User:        %s\n", userLabel(u))
		}
	}
	fmt.Println()

	fmt.Println("  Run `ngodash setup` to reconfigure.")
	return nil
}
