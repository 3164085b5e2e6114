package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"TickerBoard/internal/collector"
	"TickerBoard/internal/config"
	"TickerBoard/internal/gateway"
	"TickerBoard/internal/logging"
	"TickerBoard/internal/model"
	"TickerBoard/internal/persist"
	"TickerBoard/internal/provider"
	"TickerBoard/internal/scheduler"
	"TickerBoard/internal/store"
)

// app is the wired set of components shared by the commands.
type app struct {
	cfg       *config.Config
	log       *zap.SugaredLogger
	persist   persist.Store
	registry  *provider.Registry
	store     *store.Store
	gateway   *gateway.Gateway
	scheduler *scheduler.Scheduler
	redis     *redis.Client
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config validation: %w", err)
	}
	return cfg, path, nil
}

func openPersist(cfg *config.Config, log *zap.SugaredLogger) (persist.Store, error) {
	switch cfg.Persist.Driver {
	case "none":
		return persist.NewNoopStore(), nil
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.Persist.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return persist.NewFileStore(cfg.Persist.FilePath), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Persist.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return persist.NewSQLiteStore(cfg.Persist.SQLitePath, log)
	}
}

// newApp wires every component. Persisted providers are layered over the
// config file so edits made at runtime survive restarts.
func newApp(cfg *config.Config, log *zap.SugaredLogger) (*app, error) {
	ps, err := openPersist(cfg, log)
	if err != nil {
		log.Warnf("init persistence failed, using noop: %v", err)
		ps = persist.NewNoopStore()
	}
	snap, err := ps.Load()
	if err != nil {
		ps.Close()
		return nil, fmt.Errorf("load saved state: %w", err)
	}

	a := &app{cfg: cfg, log: log, persist: ps}
	a.registry = provider.NewRegistry(append(cfg.ProviderOverrides(), snap.Providers...))
	a.registry.OnChange(func(providers []model.ProviderConfig) {
		if err := ps.SaveProviders(providers); err != nil {
			log.Errorf("failed to save providers: %v", err)
		}
	})

	a.store = store.New(ps, log)
	if err := a.store.Load(); err != nil {
		ps.Close()
		return nil, err
	}

	var cache gateway.Cache
	if cfg.Cache.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		rc := gateway.NewRedisCache(a.redis, cfg.Cache.RedisPrefix)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			log.Warnf("redis at %s unreachable, using in-memory cache: %v", cfg.Cache.RedisAddr, err)
			a.redis.Close()
			a.redis = nil
		} else {
			cache = rc
			log.Infof("using redis cache at %s", cfg.Cache.RedisAddr)
		}
	}
	a.gateway = gateway.New(gateway.Config{
		TTL:           cfg.Cache.TTL,
		Spacing:       cfg.RateLimit.Spacing,
		MaxQueue:      cfg.RateLimit.MaxQueue,
		SweepInterval: cfg.Cache.SweepInterval,
	}, cache, log)

	fetcher := collector.NewHTTPFetcher(cfg.HTTP.Timeout, cfg.HTTP.Proxy, log)
	log.Infof("data source: %s", fetcher.Name())
	a.scheduler = scheduler.New(a.store, a.registry, a.gateway, fetcher, log)
	return a, nil
}

func (a *app) start() {
	a.gateway.Start()
	a.scheduler.Start()
}

func (a *app) close() {
	a.scheduler.Shutdown()
	a.gateway.Close()
	if a.redis != nil {
		a.redis.Close()
	}
	if err := a.persist.Close(); err != nil {
		a.log.Warnf("close persistence: %v", err)
	}
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Format)
}
