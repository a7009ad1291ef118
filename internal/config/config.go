// Package config loads the playground-e2e configuration from TOML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/thesyncim/playground-e2e/pkg/playground"
	"github.com/thesyncim/playground-e2e/pkg/playground/testutil"
)

// DefaultFile is the config file read when none is named.
const DefaultFile = "playground-e2e.toml"

// Environment overrides.
const (
	EnvURL      = "PLAYGROUND_URL"
	EnvBackend  = "PLAYGROUND_BACKEND"
	EnvHeadless = "PLAYGROUND_HEADLESS"
)

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration time.Duration

// UnmarshalText parses values such as "30s" or "100ms".
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config holds everything needed to point the suite at a playground.
type Config struct {
	BaseURL    string `toml:"base_url"`
	Path       string `toml:"path"`
	ResultsDir string `toml:"results_dir"`

	Browser struct {
		Backend      string   `toml:"backend"`
		Headless     bool     `toml:"headless"`
		Bin          string   `toml:"bin"`
		Timeout      Duration `toml:"timeout"`
		PollInterval Duration `toml:"poll_interval"`
	} `toml:"browser"`

	Selectors playground.Selectors `toml:"selectors"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		BaseURL:    "http://localhost:3000",
		Path:       playground.DefaultPath,
		ResultsDir: "results",
		Selectors:  playground.DefaultSelectors(),
	}
	cfg.Browser.Backend = testutil.BackendRod
	cfg.Browser.Headless = true
	cfg.Browser.Timeout = Duration(30 * time.Second)
	cfg.Browser.PollInterval = Duration(100 * time.Millisecond)
	return cfg
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply further
// overrides such as command-line flags and validate afterwards.
func Read(path string) (*Config, error) {
	cfg := Default()

	name := path
	if name == "" {
		name = DefaultFile
	}
	data, err := os.ReadFile(name)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", name, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == "":
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", name, err)
	}

	cfg.Selectors = cfg.Selectors.Merge(playground.DefaultSelectors())
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies PLAYGROUND_* overrides read through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Browser.Backend = v
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Browser.Headless = b
	}
	return nil
}

// Validate rejects configurations the suite cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base_url must not be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url %q must start with http:// or https://", c.BaseURL)
	}
	switch c.Browser.Backend {
	case testutil.BackendRod, testutil.BackendChromedp:
	default:
		return fmt.Errorf("unknown browser backend %q", c.Browser.Backend)
	}
	if c.Browser.Timeout <= 0 {
		return errors.New("browser.timeout must be positive")
	}
	if c.Browser.PollInterval <= 0 {
		return errors.New("browser.poll_interval must be positive")
	}
	return c.Selectors.Validate()
}

// BrowserConfig converts the browser section for testutil.NewDriver.
func (c *Config) BrowserConfig() testutil.BrowserConfig {
	return testutil.BrowserConfig{
		Backend:  c.Browser.Backend,
		Headless: c.Browser.Headless,
		Timeout:  time.Duration(c.Browser.Timeout),
		Bin:      c.Browser.Bin,
	}
}

// PageOptions converts the config into playground options.
func (c *Config) PageOptions() []playground.Option {
	return []playground.Option{
		playground.WithPath(c.Path),
		playground.WithSelectors(c.Selectors),
		playground.WithTimeout(time.Duration(c.Browser.Timeout)),
		playground.WithPollInterval(time.Duration(c.Browser.PollInterval)),
	}
}
