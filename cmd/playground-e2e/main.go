// Command playground-e2e runs declarative browser scenarios against a
// playground page.
//
// Usage:
//
//	playground-e2e run scenarios/
//	playground-e2e run --base-url http://localhost:3000 --backend chromedp smoke.yaml
//	playground-e2e list scenarios/
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thesyncim/playground-e2e/internal/config"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailed   = 1 // at least one scenario failed
	ExitBadInput = 2 // configuration or scenario files invalid
)

var (
	logger *zap.Logger

	configPath string
	baseURL    string
	backend    string
	headless   bool
	timeout    time.Duration
	resultsDir string
	verbose    bool
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func badInput(err error) error {
	return &exitError{code: ExitBadInput, err: err}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "playground-e2e",
		Short:         "Browser-driven end-to-end checks for the playground",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewProductionConfig()
			if verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultFile+" if present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCmd(), newListCmd())
	return root
}

// loadConfig reads the config file and environment, applies flags that were
// set, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("backend") {
		cfg.Browser.Backend = backend
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if flags.Changed("timeout") {
		cfg.Browser.Timeout = config.Duration(timeout)
	}
	if flags.Changed("results") {
		cfg.ResultsDir = resultsDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		os.Exit(ExitOK)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	os.Exit(ExitBadInput)
}
