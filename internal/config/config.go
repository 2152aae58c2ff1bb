// Package config loads AnimalBase configuration.
//
// Precedence, lowest to highest: built-in defaults, the TOML config file,
// ANIMALBASE_* environment variables, then command-line flags (applied by
// the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/abelbrown/animalbase/internal/fetch"
	"github.com/abelbrown/animalbase/internal/projection"
	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

// Config is the application configuration.
type Config struct {
	// DataDir holds logs. Defaults to ~/.animalbase.
	DataDir  string `toml:"data_dir"`
	LogLevel string `toml:"log_level"`

	Sources []SourceConfig `toml:"sources"`
	Fetch   FetchConfig    `toml:"fetch"`
	View    ViewConfig     `toml:"view"`
}

// SourceConfig is one data source.
type SourceConfig struct {
	Kind     string `toml:"kind"` // "auto", "file", "http" or "sqlite"
	Location string `toml:"location"`
}

// FetchConfig tunes network sources.
type FetchConfig struct {
	Timeout       time.Duration `toml:"timeout"`
	Attempts      int           `toml:"attempts"`
	RetryInterval time.Duration `toml:"retry_interval"`
}

// ViewConfig holds the initial view settings.
type ViewConfig struct {
	FilterBy  string `toml:"filter_by"`
	SortBy    string `toml:"sort_by"`
	Direction string `toml:"direction"`
}

// envOverrides are read from the environment and applied when set.
type envOverrides struct {
	DataDir       string        `env:"ANIMALBASE_DATA_DIR"`
	LogLevel      string        `env:"ANIMALBASE_LOG_LEVEL"`
	Sources       []string      `env:"ANIMALBASE_SOURCES" envSeparator:","`
	Timeout       time.Duration `env:"ANIMALBASE_FETCH_TIMEOUT"`
	Attempts      int           `env:"ANIMALBASE_FETCH_ATTEMPTS"`
	RetryInterval time.Duration `env:"ANIMALBASE_FETCH_RETRY_INTERVAL"`
	FilterBy      string        `env:"ANIMALBASE_FILTER_BY"`
	SortBy        string        `env:"ANIMALBASE_SORT_BY"`
	Direction     string        `env:"ANIMALBASE_SORT_DIRECTION"`
}

// Default returns sensible defaults.
func Default() *Config {
	home, _ := os.UserHomeDir()
	opts := fetch.DefaultOptions()
	return &Config{
		DataDir:  filepath.Join(home, ".animalbase"),
		LogLevel: "info",
		Sources: []SourceConfig{
			{Kind: fetch.KindAuto, Location: "animals.json"},
		},
		Fetch: FetchConfig{
			Timeout:       opts.Timeout,
			Attempts:      opts.Attempts,
			RetryInterval: opts.RetryInterval,
		},
		View: ViewConfig{
			FilterBy:  projection.FilterAll,
			SortBy:    string(projection.FieldName),
			Direction: projection.Ascending.String(),
		},
	}
}

// Path returns the default config file path.
func Path() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".animalbase", "config.toml")
}

// Load reads the TOML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ANIMALBASE_* environment variables.
// ANIMALBASE_SOURCES replaces the source list with auto-detected locations.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if len(o.Sources) > 0 {
		c.SetLocations(o.Sources)
	}
	if o.Timeout != 0 {
		c.Fetch.Timeout = o.Timeout
	}
	if o.Attempts != 0 {
		c.Fetch.Attempts = o.Attempts
	}
	if o.RetryInterval != 0 {
		c.Fetch.RetryInterval = o.RetryInterval
	}
	if o.FilterBy != "" {
		c.View.FilterBy = o.FilterBy
	}
	if o.SortBy != "" {
		c.View.SortBy = o.SortBy
	}
	if o.Direction != "" {
		c.View.Direction = o.Direction
	}
	return nil
}

// SetLocations replaces the sources with auto-detected locations.
func (c *Config) SetLocations(locations []string) {
	c.Sources = c.Sources[:0]
	for _, loc := range locations {
		c.Sources = append(c.Sources, SourceConfig{Kind: fetch.KindAuto, Location: loc})
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no data sources configured")
	}
	for i, s := range c.Sources {
		if s.Location == "" {
			return fmt.Errorf("source %d: location is empty", i)
		}
		switch s.Kind {
		case "", fetch.KindAuto, fetch.KindFile, fetch.KindHTTP, fetch.KindSQLite:
		default:
			return fmt.Errorf("source %d: unknown kind %q", i, s.Kind)
		}
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.Attempts < 1 {
		return fmt.Errorf("fetch attempts must be at least 1, got %d", c.Fetch.Attempts)
	}
	if c.Fetch.RetryInterval < 0 {
		return fmt.Errorf("fetch retry interval must not be negative, got %s", c.Fetch.RetryInterval)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if _, err := c.ViewSettings(); err != nil {
		return err
	}
	return nil
}

// ViewSettings converts the view config into projection settings.
func (c *Config) ViewSettings() (projection.Settings, error) {
	field, err := projection.ParseField(c.View.SortBy)
	if err != nil {
		return projection.Settings{}, fmt.Errorf("view: %w", err)
	}
	dir, err := projection.ParseDirection(c.View.Direction)
	if err != nil {
		return projection.Settings{}, fmt.Errorf("view: %w", err)
	}
	filterBy := c.View.FilterBy
	if filterBy == "" {
		filterBy = projection.FilterAll
	}
	return projection.Settings{FilterBy: filterBy, SortBy: field, Direction: dir}, nil
}

// FetchOptions converts the fetch config into fetch options.
func (c *Config) FetchOptions() fetch.Options {
	return fetch.Options{
		Timeout:       c.Fetch.Timeout,
		Attempts:      c.Fetch.Attempts,
		RetryInterval: c.Fetch.RetryInterval,
	}
}

// BuildSources creates the configured data sources.
func (c *Config) BuildSources() ([]fetch.Source, error) {
	sources := make([]fetch.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		src, err := fetch.NewSource(s.Kind, s.Location, c.FetchOptions())
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
