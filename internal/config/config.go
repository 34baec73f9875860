// Package config loads curator settings from TOML and the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/neomorfeo/curator/internal/domain"
)

//go:embed config.example.toml
var exampleConf []byte

// ErrInvalidConfig is returned when loaded settings fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Queue    QueueConfig    `toml:"queue"`
	Audit    AuditConfig    `toml:"audit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port              int      `toml:"port"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// CatalogConfig points at the track catalog. An empty URL accepts all tracks.
type CatalogConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// QueueConfig sizes the background job queue.
type QueueConfig struct {
	MaxWorkers int `toml:"max_workers"`
}

// AuditConfig schedules the consistency auditor.
type AuditConfig struct {
	Interval   Duration `toml:"interval"`
	Mode       string   `toml:"mode"`
	RunOnStart bool     `toml:"run_on_start"`
	LockPath   string   `toml:"lock_path"`
}

// RepairMode returns the configured mode as a domain value.
func (a AuditConfig) RepairMode() domain.RepairMode {
	return domain.RepairMode(a.Mode)
}

// Duration is a time.Duration written as a string such as "5m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings of the embedded example config.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT: %v", ErrInvalidConfig, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v, ok := os.LookupEnv("CATALOG_URL"); ok {
		c.Catalog.URL = v
	}
	if v := os.Getenv("AUDIT_INTERVAL"); v != "" {
		if err := c.Audit.Interval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: AUDIT_INTERVAL: %v", ErrInvalidConfig, err)
		}
	}
	if v := os.Getenv("AUDIT_MODE"); v != "" {
		c.Audit.Mode = v
	}
	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		problems = append(problems, "database.path is empty")
	}
	if c.Database.BusyTimeoutMS < 0 {
		problems = append(problems, "database.busy_timeout_ms is negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not text or json", c.Log.Format))
	}
	if c.Queue.MaxWorkers < 1 {
		problems = append(problems, "queue.max_workers must be at least 1")
	}
	if c.Audit.Interval.Duration < 0 {
		problems = append(problems, "audit.interval is negative")
	}
	if !c.Audit.RepairMode().Valid() {
		problems = append(problems, fmt.Sprintf("audit.mode %q is not dry_run or apply", c.Audit.Mode))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// CreateConfigFile writes the example config to path. It refuses to
// overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
