package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/upsgraph/pkg/perfdata"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Tables.Default != "classic" {
		t.Errorf("expected default table classic, got %q", cfg.Tables.Default)
	}
}

func TestDefaultConfig_DistinctInstances(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()
	a.Server.ListenPort = "9999"
	if b.Server.ListenPort == "9999" {
		t.Error("DefaultConfig should return distinct instances")
	}
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_port: "8081"
tables:
  default: full
rrd:
  storage: multiple
  path: /var/lib/pnp4nagios/perfdata/ups1
  prefix: UPS
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.ListenPort != "8081" {
		t.Errorf("expected port 8081, got %q", cfg.Server.ListenPort)
	}
	if cfg.Server.RateLimit != 20 {
		t.Errorf("expected default rate limit to survive, got %v", cfg.Server.RateLimit)
	}
	if cfg.Tables.Default != "full" {
		t.Errorf("expected default table full, got %q", cfg.Tables.Default)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [broken")
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("UPSGRAPH_LISTEN_PORT", "7000")
	t.Setenv("UPSGRAPH_RATE_LIMIT", "2.5")
	t.Setenv("UPSGRAPH_TABLES_DIR", "/etc/upsgraph/tables")
	t.Setenv("UPSGRAPH_DEFAULT_TABLE", "temperature")
	t.Setenv("UPSGRAPH_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenPort != "7000" {
		t.Errorf("expected port 7000, got %q", cfg.Server.ListenPort)
	}
	if cfg.Server.RateLimit != 2.5 {
		t.Errorf("expected rate limit 2.5, got %v", cfg.Server.RateLimit)
	}
	if cfg.Tables.Dir != "/etc/upsgraph/tables" {
		t.Errorf("unexpected tables dir %q", cfg.Tables.Dir)
	}
	if cfg.Tables.Default != "temperature" {
		t.Errorf("unexpected default table %q", cfg.Tables.Default)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestApplyEnvOverrides_InvalidRateLimit(t *testing.T) {
	t.Setenv("UPSGRAPH_RATE_LIMIT", "fast")
	if err := ApplyEnvOverrides(DefaultConfig()); err == nil {
		t.Error("expected error for non-numeric rate limit")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.ListenPort = "http" }, "invalid listen port"},
		{"port out of range", func(c *Config) { c.Server.ListenPort = "70000" }, "invalid listen port"},
		{"zero rate", func(c *Config) { c.Server.RateLimit = 0 }, "rate limit must be positive"},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, "rate burst"},
		{"no default table", func(c *Config) { c.Tables.Default = "" }, "default table"},
		{"bad storage", func(c *Config) { c.RRD.Storage = "tsdb" }, "unknown rrd storage"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestResolver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RRD.Path = "/rrd/ups1/UPS.rrd"

	if _, ok := cfg.Resolver("").(perfdata.SingleFile); !ok {
		t.Error("expected single file resolver by default")
	}
	if src := cfg.Resolver("/other.rrd").Resolve(0, "input_voltage"); src.File != "/other.rrd" {
		t.Errorf("expected override path, got %q", src.File)
	}

	cfg.RRD.Storage = StorageMultiple
	cfg.RRD.Path = "/rrd/ups1"
	cfg.RRD.Prefix = "UPS"
	src := cfg.Resolver("").Resolve(0, "input_voltage")
	if src.File != "/rrd/ups1/UPS_input_voltage.rrd" {
		t.Errorf("unexpected per metric file %q", src.File)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger, err := cfg.NewLogger()
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("expected JSON formatter, got %T", logger.Formatter)
	}
}
