package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"TickerBoard/internal/logging"
	"TickerBoard/internal/model"
)

var envKeys = []string{
	"ALPHAVANTAGE_API_KEY", "FINNHUB_API_KEY", "HTTPS_PROXY", "SQLITE_PATH",
	"REDIS_ADDR", "LISTEN_ADDR", "LOG_LEVEL", "RATE_LIMIT_SPACING",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" || cfg.HTTP.Timeout != 15*time.Second ||
		cfg.Cache.TTL != 5*time.Minute || cfg.RateLimit.Spacing != 12*time.Second ||
		cfg.Persist.Driver != "sqlite" || cfg.Log.Level != "info" {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `
server:
  listen_addr: ":9090"
cache:
  ttl: 2m
  sweep_interval: 30s
rate_limit:
  spacing: 1s
  max_queue: 50
persist:
  driver: file
providers:
  - id: finnhub
    enabled: false
  - id: polygon
    name: Polygon
    base_url: https://api.polygon.io
    endpoints:
      quote: /v2/last/trade/{symbol}?apiKey={apiKey}
`)
	t.Setenv("ALPHAVANTAGE_API_KEY", "av-key")
	t.Setenv("RATE_LIMIT_SPACING", "500")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" || cfg.Cache.TTL != 2*time.Minute || cfg.Cache.SweepInterval != 30*time.Second {
		t.Errorf("yaml values = %+v", cfg)
	}
	if cfg.RateLimit.Spacing != 500*time.Millisecond || cfg.RateLimit.MaxQueue != 50 {
		t.Errorf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	want := []model.ProviderConfig{
		{ID: "finnhub", Enabled: false},
		{ID: "polygon", Name: "Polygon", BaseURL: "https://api.polygon.io", Enabled: true,
			Endpoints: map[string]string{"quote": "/v2/last/trade/{symbol}?apiKey={apiKey}"}},
		{ID: "alphavantage", APIKey: "av-key", Enabled: true},
	}
	if diff := cmp.Diff(want, cfg.ProviderOverrides()); diff != "" {
		t.Errorf("provider overrides (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "server: [")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}

	t.Setenv("RATE_LIMIT_SPACING", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected spacing error")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative spacing", func(c *Config) { c.RateLimit.Spacing = -time.Second }},
		{"negative queue", func(c *Config) { c.RateLimit.MaxQueue = -1 }},
		{"bad driver", func(c *Config) { c.Persist.Driver = "mongo" }},
		{"missing id", func(c *Config) { c.Providers = []ProviderSettings{{Name: "x"}} }},
		{"duplicate", func(c *Config) { c.Providers = []ProviderSettings{{ID: "finnhub"}, {ID: "finnhub"}} }},
		{"custom without url", func(c *Config) { c.Providers = []ProviderSettings{{ID: "x", Name: "X"}} }},
		{"bad scheme", func(c *Config) { c.Providers = []ProviderSettings{{ID: "finnhub", BaseURL: "ftp://x"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWatcherReloads(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "providers:\n  - id: finnhub\n    api_key: one\n")

	got := make(chan *Config, 4)
	w := NewWatcher(path, 20*time.Millisecond, func(c *Config) { got <- c }, logging.Nop())
	stop, err := w.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer stop()

	// invalid content is ignored
	writeConfig(t, dir, "persist:\n  driver: mongo\n")
	time.Sleep(100 * time.Millisecond)
	select {
	case c := <-got:
		t.Fatalf("invalid config applied: %+v", c)
	default:
	}

	writeConfig(t, dir, "providers:\n  - id: finnhub\n    api_key: two\n")
	select {
	case c := <-got:
		if c.Providers[0].APIKey != "two" {
			t.Errorf("reloaded key = %q", c.Providers[0].APIKey)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after change")
	}
}
