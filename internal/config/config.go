// Package config loads service configuration from embedded defaults, an
// optional YAML file and environment variables, in increasing precedence.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/config"
)

//go:embed defaults.yaml
var defaults []byte

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Catalog   CatalogConfig   `yaml:"catalog"`
}

type HTTPConfig struct {
	Addr        string `yaml:"addr"`
	WebDir      string `yaml:"web_dir"`
	DisableAuth bool   `yaml:"disable_auth"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type SchedulerConfig struct {
	Enabled       bool   `yaml:"enabled"`
	WeeklySummary string `yaml:"weekly_summary"`
	Workers       int    `yaml:"workers"`
}

type CatalogConfig struct {
	// Path overrides the embedded milestone catalog when set.
	Path string `yaml:"path"`
}

// Load builds the configuration. An empty path reads CONFIG_PATH; when that
// is also empty only the embedded defaults and the environment apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	opts := []config.YAMLOption{
		config.Source(bytes.NewReader(defaults)),
	}
	if path != "" {
		opts = append(opts, config.File(path))
	}
	opts = append(opts, config.Expand(os.LookupEnv))

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() error {
	if val := os.Getenv("ADDR"); val != "" {
		c.HTTP.Addr = val
	}
	if val := os.Getenv("WEB_DIR"); val != "" {
		c.HTTP.WebDir = val
	}
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("STORE"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("WEEKLY_SUMMARY_SCHEDULE"); val != "" {
		c.Scheduler.WeeklySummary = val
	}
	if val := os.Getenv("SUMMARY_WORKERS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("SUMMARY_WORKERS: %w", err)
		}
		c.Scheduler.Workers = n
	}
	if val := os.Getenv("CATALOG_PATH"); val != "" {
		c.Catalog.Path = val
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url (DATABASE_URL) is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Scheduler.Workers <= 0 {
		c.Scheduler.Workers = 1
	}
	return nil
}
