package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thesyncim/playground-e2e/pkg/playground"
	"github.com/thesyncim/playground-e2e/pkg/playground/scenario"
	"github.com/thesyncim/playground-e2e/pkg/playground/testutil"
)

// newDriver is replaced in tests.
var newDriver = func(cfg testutil.BrowserConfig) (playground.Driver, error) {
	return testutil.NewDriver(cfg)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [files or directories...]",
		Short: "Run scenarios and write a JSON report",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScenarios,
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "playground base URL (overrides config and PLAYGROUND_URL)")
	cmd.Flags().StringVar(&backend, "backend", testutil.BackendRod, "browser backend: rod or chromedp")
	cmd.Flags().BoolVar(&headless, "headless", true, "run Chrome headless")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-wait timeout (e.g. 30s)")
	cmd.Flags().StringVar(&resultsDir, "results", "", "directory for report.json and failure screenshots")
	return cmd
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return badInput(err)
	}
	scenarios, err := scenario.Load(args...)
	if err != nil {
		return badInput(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browserCfg := cfg.BrowserConfig()
	factory := func(context.Context) (playground.Driver, error) {
		return newDriver(browserCfg)
	}
	runner, err := scenario.NewRunner(factory, cfg.BaseURL,
		scenario.WithResultsDir(cfg.ResultsDir),
		scenario.WithPageOptions(cfg.PageOptions()...),
		scenario.WithRunnerLogger(logger),
	)
	if err != nil {
		return badInput(err)
	}

	logger.Info("running scenarios",
		zap.String("base_url", cfg.BaseURL),
		zap.String("backend", cfg.Browser.Backend),
		zap.Int("count", len(scenarios)))

	report, runErr := runner.Run(ctx, scenarios)
	report.WriteSummary(cmd.OutOrStdout())

	if cfg.ResultsDir != "" {
		path := filepath.Join(cfg.ResultsDir, "report.json")
		if err := report.WriteJSON(path); err != nil {
			logger.Error("report not written", zap.Error(err))
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", path)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return &exitError{code: ExitFailed, err: runErr}
	}
	if !report.Passed() || runErr != nil {
		return &exitError{code: ExitFailed, err: fmt.Errorf("%d of %d scenario(s) failed", report.Failed(), len(scenarios))}
	}
	return nil
}
