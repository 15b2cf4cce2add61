package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/followbot/internal/channels"
	"github.com/nextlevelbuilder/followbot/internal/channels/telegram"
	"github.com/nextlevelbuilder/followbot/internal/config"
	"github.com/nextlevelbuilder/followbot/internal/dispatch"
	"github.com/nextlevelbuilder/followbot/internal/followup"
	"github.com/nextlevelbuilder/followbot/internal/operator"
	"github.com/nextlevelbuilder/followbot/internal/tracing"
)

type runOptions struct {
	operatorMode string // overrides config when set
}

func runCmd() *cobra.Command {
	var noOperator, plainOperator bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts runOptions
			switch {
			case noOperator:
				opts.operatorMode = config.OperatorNone
			case plainOperator:
				opts.operatorMode = config.OperatorPlain
			}
			return runBot(opts)
		},
	}
	cmd.Flags().BoolVar(&noOperator, "no-operator", false, "never prompt for manual replies")
	cmd.Flags().BoolVar(&plainOperator, "plain-operator", false, "prompt for manual replies with plain line input")
	cmd.MarkFlagsMutuallyExclusive("no-operator", "plain-operator")
	return cmd
}

// setupLogging installs the default slog text handler.
func setupLogging() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

// loadConfig reads .env (if present) and the config file.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	return config.Load(resolveConfigPath())
}

func runBot(opts runOptions) error {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return err
	}
	if opts.operatorMode != "" {
		cfg.Operator.Mode = opts.operatorMode
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	chain, err := cfg.FollowUpChain()
	if err != nil {
		return err
	}

	gw, err := telegram.New(cfg.Telegram)
	if err != nil {
		slog.Error("failed to create telegram gateway", "error", err)
		return err
	}

	sender := channels.NewRateLimitedSender(gw, channels.RateLimit{
		PerSecond:     cfg.Outbound.RatePerSec,
		Burst:         cfg.Outbound.Burst,
		PerChatPerSec: cfg.Outbound.PerChatPerSec,
	})

	sched := followup.New(chain, sender)
	defer sched.Stop()

	pollInterval, errorBackoff := cfg.Dispatch.Intervals()
	loop := dispatch.New(gw, sched, newReplier(cfg.Operator.Mode, stop), dispatch.Options{
		Sender:       sender,
		PollTimeout:  cfg.Telegram.PollTimeout(),
		PollInterval: pollInterval,
		ErrorBackoff: errorBackoff,
	})

	slog.Info("bot is running, waiting for updates",
		"version", Version,
		"operator", cfg.Operator.Mode,
		"followups", chain.Len(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return loop.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "active_chains", sched.Active())
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// newReplier picks the operator input. The interactive form needs a
// terminal; without one it falls back to plain line input. Aborting the form
// calls stop, shutting the bot down as SIGINT would.
func newReplier(mode string, stop func()) operator.Replier {
	switch mode {
	case config.OperatorNone:
		return operator.Silent{}
	case config.OperatorPlain:
		return operator.NewLines(os.Stdin, os.Stdout)
	default:
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			slog.Warn("stdin is not a terminal, using plain operator input")
			return operator.NewLines(os.Stdin, os.Stdout)
		}
		return operator.NewTerminal(stop)
	}
}
