// Package config loads the upsgraph configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/kylerisse/upsgraph/pkg/panel"
	"github.com/kylerisse/upsgraph/pkg/perfdata"
)

// Storage layouts of the RRD files written by the graphing system.
const (
	StorageSingle   = "single"
	StorageMultiple = "multiple"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	ListenPort string `yaml:"listen_port"`
	// RateLimit is the sustained number of requests per second.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// TablesConfig selects classification tables.
type TablesConfig struct {
	// Dir holds additional *.yaml table files. Optional.
	Dir     string `yaml:"dir"`
	Default string `yaml:"default"`
}

// RRDConfig describes where sample sources live when only perfdata is given.
type RRDConfig struct {
	Storage string `yaml:"storage"`
	// Path is the RRD file for single storage, or the directory for multiple.
	Path   string `yaml:"path"`
	Prefix string `yaml:"prefix"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Tables TablesConfig `yaml:"tables"`
	RRD    RRDConfig    `yaml:"rrd"`
	Log    LogConfig    `yaml:"log"`
}

// DefaultConfig returns a new Config populated with default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenPort: "1983",
			RateLimit:  20,
			RateBurst:  40,
		},
		Tables: TablesConfig{
			Default: panel.DefaultTable,
		},
		RRD: RRDConfig{
			Storage: StorageSingle,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - UPSGRAPH_LISTEN_PORT overrides cfg.Server.ListenPort
//   - UPSGRAPH_RATE_LIMIT overrides cfg.Server.RateLimit
//   - UPSGRAPH_TABLES_DIR overrides cfg.Tables.Dir
//   - UPSGRAPH_DEFAULT_TABLE overrides cfg.Tables.Default
//   - UPSGRAPH_LOG_LEVEL overrides cfg.Log.Level
func ApplyEnvOverrides(cfg *Config) error {
	if port := os.Getenv("UPSGRAPH_LISTEN_PORT"); port != "" {
		cfg.Server.ListenPort = port
	}
	if limit := os.Getenv("UPSGRAPH_RATE_LIMIT"); limit != "" {
		v, err := strconv.ParseFloat(limit, 64)
		if err != nil {
			return fmt.Errorf("invalid UPSGRAPH_RATE_LIMIT %q: %w", limit, err)
		}
		cfg.Server.RateLimit = v
	}
	if dir := os.Getenv("UPSGRAPH_TABLES_DIR"); dir != "" {
		cfg.Tables.Dir = dir
	}
	if name := os.Getenv("UPSGRAPH_DEFAULT_TABLE"); name != "" {
		cfg.Tables.Default = name
	}
	if level := os.Getenv("UPSGRAPH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.ListenPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid listen port %q", c.Server.ListenPort)
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %v", c.Server.RateLimit)
	}
	if c.Server.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1, got %d", c.Server.RateBurst)
	}
	if c.Tables.Default == "" {
		return fmt.Errorf("default table must not be empty")
	}
	switch c.RRD.Storage {
	case StorageSingle, StorageMultiple:
	default:
		return fmt.Errorf("unknown rrd storage %q", c.RRD.Storage)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Resolver returns the perfdata source resolver for the configured storage
// layout. path overrides the configured RRD path when set.
func (c *Config) Resolver(path string) perfdata.Resolver {
	if path == "" {
		path = c.RRD.Path
	}
	if c.RRD.Storage == StorageMultiple {
		return perfdata.PerMetric{Dir: path, Prefix: c.RRD.Prefix}
	}
	return perfdata.SingleFile(path)
}

// NewLogger builds a logger from the log settings.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
