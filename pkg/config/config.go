// Package config loads the escabot daemon configuration from YAML or TOML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents escabot.yaml / escabot.toml.
type Config struct {
	OutdatedThreshold     Duration    `yaml:"outdated_threshold" toml:"outdated_threshold"`
	OutdatedCheckInterval Duration    `yaml:"outdated_check_interval" toml:"outdated_check_interval"`
	BusCapacity           int         `yaml:"bus_capacity" toml:"bus_capacity"`
	AutosaveInterval      Duration    `yaml:"autosave_interval" toml:"autosave_interval"`
	ReportTimeout         Duration    `yaml:"report_timeout" toml:"report_timeout"`
	LogLevel              string      `yaml:"log_level" toml:"log_level"`
	Announce              Announce    `yaml:"announce" toml:"announce"`
	Persistence           Persistence `yaml:"persistence" toml:"persistence"`
	Chat                  Chat        `yaml:"chat" toml:"chat"`
}

// Announce tunes announcement batching.
type Announce struct {
	MinInterval Duration `yaml:"min_interval" toml:"min_interval"`
	MaxInterval Duration `yaml:"max_interval" toml:"max_interval"`
	MaxReports  int      `yaml:"max_reports" toml:"max_reports"`
}

// Persistence selects where escalator statuses are saved.
type Persistence struct {
	Backend      string `yaml:"backend" toml:"backend"`             // "sqlite" or "file"
	SnapshotPath string `yaml:"snapshot_path" toml:"snapshot_path"` // file backend only
}

// Chat configures outgoing message delivery.
type Chat struct {
	// Webhooks maps channel IDs to webhook URLs. Channels without a webhook
	// are written to the outbox.
	Webhooks map[string]string `yaml:"webhooks" toml:"webhooks"`
}

// Persistence backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	var c Config
	return c.WithDefaults()
}

// WithDefaults returns a copy with every unset field filled in.
func (c Config) WithDefaults() Config {
	out := c
	if out.OutdatedThreshold == 0 {
		out.OutdatedThreshold = Duration(2 * time.Hour)
	}
	if out.OutdatedCheckInterval == 0 {
		out.OutdatedCheckInterval = Duration(10 * time.Minute)
	}
	if out.BusCapacity <= 0 {
		out.BusCapacity = 16
	}
	if out.AutosaveInterval == 0 {
		out.AutosaveInterval = Duration(time.Minute)
	}
	if out.ReportTimeout == 0 {
		out.ReportTimeout = Duration(90 * time.Second)
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.Announce.MinInterval == 0 {
		out.Announce.MinInterval = Duration(time.Minute)
	}
	if out.Announce.MaxInterval == 0 {
		out.Announce.MaxInterval = Duration(5 * time.Minute)
	}
	if out.Announce.MaxReports <= 0 {
		out.Announce.MaxReports = 8
	}
	if out.Persistence.Backend == "" {
		out.Persistence.Backend = BackendSQLite
	}
	return out
}

// Validate checks values that have no sensible fallback.
func (c Config) Validate() error {
	var errs []error
	switch c.Persistence.Backend {
	case BackendSQLite:
	case BackendFile:
		if c.Persistence.SnapshotPath == "" {
			errs = append(errs, errors.New("persistence.snapshot_path is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown persistence backend %q", c.Persistence.Backend))
	}
	if c.Announce.MinInterval > c.Announce.MaxInterval {
		errs = append(errs, errors.New("announce.min_interval exceeds announce.max_interval"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

// Load reads the file at path. A missing file yields the defaults. The
// format follows the extension: .toml is TOML, anything else YAML.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from ESCABOT_CONFIG or the home directory
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return YAML
}

// Parse decodes data, applies defaults, and validates.
func Parse(data []byte, format Format) (Config, error) {
	var cfg Config
	var err error
	switch format {
	case TOML:
		err = toml.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode renders cfg in the given format.
func Encode(cfg Config, format Format) ([]byte, error) {
	switch format {
	case TOML:
		return toml.Marshal(cfg)
	default:
		return yaml.Marshal(cfg)
	}
}

// Write saves cfg to path in the format its extension implies.
func Write(path string, cfg Config) error {
	data, err := Encode(cfg, formatOf(path))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
