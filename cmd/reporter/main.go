package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/daily-report/internal/app"
	"github.com/web3-frozen/daily-report/internal/config"
	"github.com/web3-frozen/daily-report/internal/pipeline"
	"github.com/web3-frozen/daily-report/internal/report"
	"github.com/web3-frozen/daily-report/internal/tracing"

	_ "time/tzdata"
)

var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "reporter",
		Short:         "Web3 daily market-intelligence report",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath+")")
	root.AddCommand(runCmd, serveCmd, validateCmd, versionCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, render and deliver one report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, logger *slog.Logger) error {
			run, err := a.RunOnce(ctx)
			if run != nil {
				logger.Info("run finished", "summary", pipeline.Describe(run))
			}
			return err
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the report on schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *slog.Logger) error {
			return a.Serve(ctx)
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reporter %s\n", version)
	},
}

// withApp loads the configuration, sets up logging and tracing, builds the
// app and runs fn until it returns or a signal arrives.
func withApp(parent context.Context, fn func(context.Context, *app.App, *slog.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	shutdown, err := tracing.Init(cfg.Tracing, os.Stderr, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		var cfgErr *report.ConfigError
		if errors.As(err, &cfgErr) {
			logger.Error("invalid configuration", "error", err)
		}
		return err
	}
	defer a.Close()

	return fn(ctx, a, logger)
}
