package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"TickerBoard/internal/model"
	"TickerBoard/internal/provider"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	HTTP struct {
		Timeout time.Duration `yaml:"timeout"`
		Proxy   string        `yaml:"proxy"`
	} `yaml:"http"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl"`
		SweepInterval time.Duration `yaml:"sweep_interval"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPrefix   string        `yaml:"redis_prefix"`
	} `yaml:"cache"`
	RateLimit struct {
		Spacing  time.Duration `yaml:"spacing"`
		MaxQueue int           `yaml:"max_queue"`
	} `yaml:"rate_limit"`
	Persist struct {
		Driver     string `yaml:"driver"` // sqlite, file or none
		SQLitePath string `yaml:"sqlite_path"`
		FilePath   string `yaml:"file_path"`
	} `yaml:"persist"`
	Providers []ProviderSettings `yaml:"providers"`
}

// ProviderSettings overlays a built-in provider or declares a custom one.
// Enabled defaults to true when omitted.
type ProviderSettings struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	BaseURL   string            `yaml:"base_url"`
	APIKey    string            `yaml:"api_key"`
	Enabled   *bool             `yaml:"enabled"`
	Endpoints map[string]string `yaml:"endpoints"`
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.provider(provider.AlphaVantage).APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.provider(provider.Finnhub).APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.HTTP.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Persist.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RATE_LIMIT_SPACING"); v != "" {
		d, err := parseSpacing(v)
		if err != nil {
			return nil, fmt.Errorf("RATE_LIMIT_SPACING: %w", err)
		}
		cfg.RateLimit.Spacing = d
	}

	// Defaults
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 15 * time.Second
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 5 * time.Minute
	}
	if cfg.Cache.RedisPrefix == "" {
		cfg.Cache.RedisPrefix = "tickerboard:cache:"
	}
	if cfg.RateLimit.Spacing == 0 {
		cfg.RateLimit.Spacing = 12 * time.Second
	}
	if cfg.Persist.Driver == "" {
		cfg.Persist.Driver = "sqlite"
	}
	if cfg.Persist.SQLitePath == "" {
		cfg.Persist.SQLitePath = "data/tickerboard.db"
	}
	if cfg.Persist.FilePath == "" {
		cfg.Persist.FilePath = "data/dashboard.json"
	}

	return cfg, nil
}

// parseSpacing accepts a Go duration or a plain number of milliseconds.
func parseSpacing(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func (c *Config) provider(id string) *ProviderSettings {
	for i := range c.Providers {
		if c.Providers[i].ID == id {
			return &c.Providers[i]
		}
	}
	c.Providers = append(c.Providers, ProviderSettings{ID: id})
	return &c.Providers[len(c.Providers)-1]
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.RateLimit.Spacing < 0 {
		return fmt.Errorf("rate_limit.spacing must not be negative")
	}
	if c.RateLimit.MaxQueue < 0 {
		return fmt.Errorf("rate_limit.max_queue must not be negative")
	}
	switch c.Persist.Driver {
	case "sqlite", "file", "none":
	default:
		return fmt.Errorf("persist.driver must be sqlite, file or none, got %q", c.Persist.Driver)
	}
	builtin := map[string]bool{provider.AlphaVantage: true, provider.Finnhub: true}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("providers[%d].id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("provider %q is configured twice", p.ID)
		}
		seen[p.ID] = true
		if !builtin[p.ID] && (p.Name == "" || p.BaseURL == "") {
			return fmt.Errorf("custom provider %q needs name and base_url", p.ID)
		}
		if p.BaseURL != "" && !strings.HasPrefix(p.BaseURL, "http://") && !strings.HasPrefix(p.BaseURL, "https://") {
			return fmt.Errorf("provider %q base_url must be http(s)", p.ID)
		}
	}
	return nil
}

// ProviderOverrides converts the provider section for the registry.
func (c *Config) ProviderOverrides() []model.ProviderConfig {
	out := make([]model.ProviderConfig, 0, len(c.Providers))
	for _, p := range c.Providers {
		enabled := true
		if p.Enabled != nil {
			enabled = *p.Enabled
		}
		out = append(out, model.ProviderConfig{
			ID: p.ID, Name: p.Name, BaseURL: p.BaseURL, APIKey: p.APIKey,
			Enabled: enabled, Endpoints: p.Endpoints,
		})
	}
	return out
}
