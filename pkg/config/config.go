package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all gateway configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	PathPrefix string           `yaml:"path_prefix"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Quota      QuotaConfig      `yaml:"quota"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Providers  []ProviderConfig `yaml:"providers"`
	Log        LogConfig        `yaml:"log"`
}

// LedgerConfig selects the quota ledger backend.
// DSN examples: "memory", "sqlite:aigateway.db", "bolt:aigateway.bolt",
// "postgres://...", "mongodb://...", "redis://...".
type LedgerConfig struct {
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
	Prefix   string `yaml:"prefix"`
}

// QuotaConfig controls admission control and the debit worker pool.
type QuotaConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AdminToken string `yaml:"admin_token"`
	Workers    int    `yaml:"workers"`
	QueueSize  int    `yaml:"queue_size"`
}

// CatalogConfig points at an optional YAML provider catalog. An empty path
// serves the built-in catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ProviderConfig defines a generation back-end.
// Type is "azure_openai" (default).
type ProviderConfig struct {
	Name               string            `yaml:"name"`
	Type               string            `yaml:"type"`
	Endpoint           string            `yaml:"endpoint"`
	APIKey             string            `yaml:"api_key"`
	APIVersion         string            `yaml:"api_version"`
	Deployments        map[string]string `yaml:"deployments"`
	Timeout            time.Duration     `yaml:"timeout"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
}

// LogConfig controls structured logging. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:     ":8080",
		PathPrefix: "/ai-gateway",
		Ledger: LedgerConfig{
			DSN:      "sqlite:aigateway.db",
			Database: "aigateway",
		},
		Quota: QuotaConfig{
			Enabled:   false,
			Workers:   4,
			QueueSize: 1024,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Load reads a YAML config file and expands environment variables. A .env
// file in the working directory is loaded first when present. An empty path
// or a missing file yields the defaults. Environment overrides are applied
// last.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("AIGATEWAY_API_PATH"); ok {
		c.PathPrefix = strings.TrimSuffix(v, "/")
	}
	host, hasHost := os.LookupEnv("AIGATEWAY_SERVER_HOST")
	port, hasPort := os.LookupEnv("AIGATEWAY_SERVER_PORT")
	if hasHost || hasPort {
		h, p, err := net.SplitHostPort(c.Listen)
		if err != nil {
			return fmt.Errorf("parse listen address %q: %w", c.Listen, err)
		}
		if hasHost {
			h = host
		}
		if hasPort {
			p = port
		}
		c.Listen = net.JoinHostPort(h, p)
	}
	if v, ok := os.LookupEnv("TOGGLE_QUOTA_MIDDLEWARE"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse TOGGLE_QUOTA_MIDDLEWARE: %w", err)
		}
		c.Quota.Enabled = enabled
	}
	if v, ok := os.LookupEnv("GENAI_QUOTA_AUTHENTICATION"); ok {
		c.Quota.AdminToken = v
	}
	if v, ok := os.LookupEnv("LEDGER_DSN"); ok {
		c.Ledger.DSN = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
	return nil
}
