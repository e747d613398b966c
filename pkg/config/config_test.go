package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
providers:
  finnhub:
    api_key: test-key
history:
  path: data/history.jsonl
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers.Finnhub.BaseURL != "https://finnhub.io/api/v1" {
		t.Fatalf("finnhub base url = %q", cfg.Providers.Finnhub.BaseURL)
	}
	if cfg.Providers.Yahoo.Range != "5y" || cfg.Providers.Yahoo.Interval != "1wk" {
		t.Fatalf("yahoo defaults = %q/%q", cfg.Providers.Yahoo.Range, cfg.Providers.Yahoo.Interval)
	}
	if cfg.History.Limit != 10 {
		t.Fatalf("history limit = %d; want 10", cfg.History.Limit)
	}
	if cfg.Valuation.DefaultWeight != 0.7 || cfg.Valuation.Tolerance != 0.10 {
		t.Fatalf("valuation defaults = %+v", cfg.Valuation)
	}
	if cfg.Valuation.ReferencePEG != 1.0 {
		t.Fatalf("reference peg = %v; want 1.0", cfg.Valuation.ReferencePEG)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
history:
  path: data/history.jsonl
`))
	if err == nil {
		t.Fatalf("expected validation error for missing api key")
	}
}

func TestLoadRejectsBadWeight(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
valuation:
  default_weight: 1.5
`))
	if err == nil {
		t.Fatalf("expected validation error for weight > 1")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "env-key")
	t.Setenv("HISTORY_PATH", "/tmp/other.jsonl")
	t.Setenv("REDIS_ADDR", "cache-host:6390")

	// The YAML leaves the key empty; the env var alone must satisfy
	// validation.
	cfg, err := LoadWithEnv(writeConfig(t, `
environment: test
providers:
  finnhub:
    api_key: ""
history:
  path: data/history.jsonl
`))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Providers.Finnhub.APIKey != "env-key" {
		t.Fatalf("api key = %q", cfg.Providers.Finnhub.APIKey)
	}
	if cfg.History.Path != "/tmp/other.jsonl" {
		t.Fatalf("history path = %q", cfg.History.Path)
	}
	if cfg.Cache.Redis.Host != "cache-host" || cfg.Cache.Redis.Port != 6390 {
		t.Fatalf("redis = %s:%d", cfg.Cache.Redis.Host, cfg.Cache.Redis.Port)
	}
}

func TestLoadWithEnvStillValidates(t *testing.T) {
	t.Setenv("FINNHUB_API_KEY", "")

	_, err := LoadWithEnv(writeConfig(t, `
environment: test
providers:
  finnhub:
    api_key: ""
history:
  path: data/history.jsonl
`))
	if err == nil {
		t.Fatalf("expected validation error when key is absent everywhere")
	}
}
