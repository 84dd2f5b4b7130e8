// Command loanctl drives the loan service from a terminal: apply, track an
// application, accept an approved loan and run the admin review panel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"loanease/internal/client/apiclient"
	"loanease/internal/config"
	"loanease/internal/infrastructure/logger"
)

const usage = `usage: loanctl <command> [flags]

commands:
  apply field=value ...          submit a loan application
  track -email E [file ...]      show status; upload files when documents are requested
  accept -token T [flags]        accept an approved loan
  quote -amount A -rate R -term N
  admin <list|show|status|link|banking|feed|read|download> [flags]

environment: LOANCTL_API_URL, LOANCTL_PUBLIC_BASE_URL, LOANCTL_ADMIN_PASSWORD,
LOANCTL_TIMEOUT, LOANCTL_LOG_LEVEL
`

var errUsage = errors.New("usage")

func main() {
	cfg := config.LoadClient()
	log := logger.New(cfg.AppEnv, cfg.LogLevel).Named("loanctl")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var r reported
		switch {
		case errors.Is(err, errUsage):
			if err != errUsage {
				fmt.Fprintln(os.Stderr, err)
			}
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		case errors.As(err, &r):
		default:
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, log *zap.Logger, args []string, out, errOut io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(args) == 0 {
		return errUsage
	}
	c := &cli{
		cfg:    cfg,
		log:    log,
		api:    apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.Timeout)),
		out:    out,
		errOut: errOut,
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "apply":
		return c.apply(ctx, rest)
	case "track":
		return c.track(ctx, rest)
	case "accept":
		return c.accept(ctx, rest)
	case "quote":
		return c.quote(ctx, rest)
	case "admin":
		return c.admin(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}
