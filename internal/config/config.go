// Package config loads run settings from an optional TOML file, applies
// FETCHTUBE_* environment overrides on top, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/fetchtube/fetchtube/internal/model"
	"github.com/fetchtube/fetchtube/internal/output"
	"github.com/fetchtube/fetchtube/internal/platform"
)

// Defaults and bounds
const (
	DefaultMaxParallel  = 2
	MaxParallelLimit    = 4
	DefaultRetries      = 1
	DefaultRetryBackoff = 2 * time.Second
	DefaultQuality      = "best"
)

// Environment override variables. Each one, when set and non-empty, wins over
// the file value.
const (
	EnvOutputDir   = "FETCHTUBE_OUTPUT_DIR"
	EnvMaxParallel = "FETCHTUBE_MAX_PARALLEL"
	EnvQuality     = "FETCHTUBE_QUALITY"
	EnvCookies     = "FETCHTUBE_COOKIES"
	EnvEphemeral   = "FETCHTUBE_EPHEMERAL"
)

// Config holds every tunable of a run.
type Config struct {
	OutputDir           string `toml:"output_dir"`
	MaxParallel         int    `toml:"max_parallel"`
	Quality             string `toml:"quality"`
	CookieFile          string `toml:"cookie_file"`
	Retries             int    `toml:"retries"`
	RetryBackoffSeconds int    `toml:"retry_backoff_seconds"`
	Ephemeral           bool   `toml:"ephemeral"`
}

// Default returns the built-in configuration. The output directory lands
// under the user's Downloads folder.
func Default() *Config {
	outputDir := filepath.Join(os.TempDir(), "fetchtube")
	if downloads, err := platform.HomeDownloadsDir(); err == nil {
		outputDir = filepath.Join(downloads, "fetchtube")
	}
	return &Config{
		OutputDir:           outputDir,
		MaxParallel:         DefaultMaxParallel,
		Quality:             DefaultQuality,
		Retries:             DefaultRetries,
		RetryBackoffSeconds: int(DefaultRetryBackoff / time.Second),
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "fetchtube", "config.toml")
}

// Load builds the effective configuration: defaults, then the TOML file, then
// environment overrides. An explicitly given path must exist; the default
// path is allowed to be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// no config file is fine, defaults apply
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvMaxParallel); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxParallel = n
		}
	}
	if v := os.Getenv(EnvQuality); v != "" {
		c.Quality = v
	}
	if v := os.Getenv(EnvCookies); v != "" {
		c.CookieFile = v
	}
	if v := os.Getenv(EnvEphemeral); v != "" {
		c.Ephemeral = parseBool(v)
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// validate clamps bounded values and rejects ones with no sane fallback.
func (c *Config) validate() error {
	if c.MaxParallel < 1 {
		c.MaxParallel = 1
	}
	if c.MaxParallel > MaxParallelLimit {
		c.MaxParallel = MaxParallelLimit
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBackoffSeconds <= 0 {
		c.RetryBackoffSeconds = int(DefaultRetryBackoff / time.Second)
	}
	if c.OutputDir == "" && !c.Ephemeral {
		return &model.ValidationError{Input: "output_dir", Reason: "must not be empty"}
	}
	if _, err := model.ParseQuality(c.Quality); err != nil {
		return err
	}
	return nil
}

// QualityRequest parses the configured preset. validate has already checked
// it, so this cannot fail after a successful Load.
func (c *Config) QualityRequest() (model.QualityRequest, error) {
	return model.ParseQuality(c.Quality)
}

// Environment maps the ephemeral flag onto the destination policy signal.
func (c *Config) Environment() output.EnvironmentSignal {
	if c.Ephemeral {
		return output.EnvironmentEphemeral
	}
	return output.EnvironmentPersistent
}

// RetryBackoff returns the backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSeconds) * time.Second
}
