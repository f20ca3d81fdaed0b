package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.PathPrefix != "/ai-gateway" {
		t.Errorf("expected /ai-gateway, got %s", cfg.PathPrefix)
	}
	if cfg.Quota.Enabled {
		t.Error("expected quota middleware disabled by default")
	}
	if cfg.Quota.Workers != 4 || cfg.Quota.QueueSize != 1024 {
		t.Errorf("unexpected pool defaults: %+v", cfg.Quota)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_AZURE_KEY", "az-test-123")

	content := `
listen: ":9090"
path_prefix: "/gw"
ledger:
  dsn: "memory"
quota:
  enabled: true
  workers: 2
providers:
  - name: azure_openai
    endpoint: https://example.openai.azure.com
    api_key: ${TEST_AZURE_KEY}
    timeout: 30s
    deployments:
      gpt-4o: gpt-4o-pg
log:
  level: debug
  format: text
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.PathPrefix != "/gw" {
		t.Errorf("expected /gw, got %s", cfg.PathPrefix)
	}
	if cfg.Ledger.DSN != "memory" {
		t.Errorf("expected memory DSN, got %s", cfg.Ledger.DSN)
	}
	if !cfg.Quota.Enabled || cfg.Quota.Workers != 2 {
		t.Errorf("unexpected quota config: %+v", cfg.Quota)
	}
	if cfg.Quota.QueueSize != 1024 {
		t.Errorf("expected default queue size to survive, got %d", cfg.Quota.QueueSize)
	}
	if len(cfg.Providers) != 1 {
		t.Fatalf("expected 1 provider, got %d", len(cfg.Providers))
	}
	p := cfg.Providers[0]
	if p.APIKey != "az-test-123" {
		t.Errorf("env var not expanded: got %s", p.APIKey)
	}
	if p.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", p.Timeout)
	}
	if p.Deployments["gpt-4o"] != "gpt-4o-pg" {
		t.Errorf("unexpected deployments: %v", p.Deployments)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadMissingUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("expected defaults, got listen %s", cfg.Listen)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AIGATEWAY_API_PATH", "/api/")
	t.Setenv("AIGATEWAY_SERVER_HOST", "127.0.0.1")
	t.Setenv("AIGATEWAY_SERVER_PORT", "9000")
	t.Setenv("TOGGLE_QUOTA_MIDDLEWARE", "true")
	t.Setenv("GENAI_QUOTA_AUTHENTICATION", "secret")
	t.Setenv("LEDGER_DSN", "redis://localhost:6379/0")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PathPrefix != "/api" {
		t.Errorf("expected /api, got %s", cfg.PathPrefix)
	}
	if cfg.Listen != "127.0.0.1:9000" {
		t.Errorf("expected 127.0.0.1:9000, got %s", cfg.Listen)
	}
	if !cfg.Quota.Enabled {
		t.Error("expected quota enabled")
	}
	if cfg.Quota.AdminToken != "secret" {
		t.Errorf("expected admin token, got %q", cfg.Quota.AdminToken)
	}
	if cfg.Ledger.DSN != "redis://localhost:6379/0" {
		t.Errorf("unexpected DSN %s", cfg.Ledger.DSN)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Log.Level)
	}
}

func TestEnvOverrideInvalidToggle(t *testing.T) {
	t.Setenv("TOGGLE_QUOTA_MIDDLEWARE", "maybe")
	if _, err := Load(""); err == nil {
		t.Error("expected error for invalid toggle")
	}
}
