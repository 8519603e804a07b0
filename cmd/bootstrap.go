package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/config"
	"github.com/theirongolddev/ngodash/internal/logging"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/session"
	"github.com/theirongolddev/ngodash/internal/store"
)

// app bundles the per-process dependencies. One is built per command run.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *api.Client
	creds   *store.Credentials
	session *session.Manager
	closers []io.Closer
}

// newApp loads config, opens the credential store, and wires the API
// client to a session manager. logTo overrides where logs go; nil means
// stderr.
func newApp(logTo io.Writer, opts ...session.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.API.BaseURL = flagAPIURL
		cfg.Sanitize()
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if flagVerbose {
		level = slog.LevelDebug
	}
	a := &app{cfg: cfg}

	switch {
	case logTo != nil:
		a.logger = logging.New(logTo, level)
	case flagVerbose || level <= slog.LevelDebug:
		a.logger = logging.New(os.Stderr, level)
	default:
		// Without -v only warnings reach the terminal.
		a.logger = logging.New(os.Stderr, max(level, slog.LevelWarn))
	}

	a.client, err = api.New(cfg.API.BaseURL,
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
		api.WithRateLimit(cfg.API.RatePerSec),
		api.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	a.creds, err = store.Open(config.CredentialsPath())
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}
	a.closers = append(a.closers, a.creds)

	opts = append([]session.Option{
		session.WithLogger(a.logger),
		session.WithInitTimeout(time.Duration(cfg.API.InitTimeoutSec) * time.Second),
	}, opts...)
	a.session = session.New(a.creds, a.client, opts...)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

func (a *app) allocator() *budget.Allocator {
	return budget.NewAllocator(a.client, budget.NewGuard(a.client, a.logger))
}

// cliExpired is the CLI's redirect-to-login: a message on stderr.
func cliExpired() {
	fmt.Fprintln(os.Stderr, "  Session expired. Please login again.")
}

// authed wraps a command body that needs a live session, optionally with
// a role. The session is restored first; a missing or insufficient
// session is reported without making the request.
func authed(role model.Role, fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil, session.OnExpired(cliExpired))
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := restoreSession(ctx, a); err != nil {
			return err
		}
		if err := a.session.Require(role); err != nil {
			switch {
			case errors.Is(err, session.ErrForbidden):
				return fmt.Errorf("this command requires the %s role", role)
			default:
				return errors.New("not logged in: run `ngodash login` first")
			}
		}
		return fn(ctx, a, args)
	}
}

func restoreSession(ctx context.Context, a *app) error {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Restoring session...\r")
	}
	state := a.session.Initialize(ctx)
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "                      \r")
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	a.logger.Debug("session restored", "state", state)
	return nil
}

func progress(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
	}
}
