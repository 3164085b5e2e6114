package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"TickerBoard/internal/config"
	"TickerBoard/internal/metrics"
	"TickerBoard/internal/server"
)

func newServeCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh engine and the HTTP control surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()
			log.Info("TickerBoard starting...")

			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			metrics.Register(prometheus.DefaultRegisterer)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.start()
			go a.scheduler.Run(ctx)

			if watch {
				applied := cfg.ProviderOverrides()
				w := config.NewWatcher(path, 0, func(c *config.Config) {
					next := c.ProviderOverrides()
					a.registry.Reload(applied, next)
					applied = next
				}, log)
				stopWatch, err := w.Start(ctx)
				if err != nil {
					log.Warnf("config watcher disabled: %v", err)
				} else {
					defer stopWatch()
				}
			}

			srv := &http.Server{
				Addr: cfg.Server.ListenAddr,
				Handler: server.NewRouter(server.Deps{
					Store:     a.store,
					Registry:  a.registry,
					Refresher: a.scheduler,
					Log:       log,
					Metrics:   promhttp.Handler(),
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Infof("listening on %s", cfg.Server.ListenAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				log.Info("shutdown signal received, stopping...")
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warnf("http shutdown: %v", err)
			}
			log.Info("TickerBoard stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "reload provider settings when the config file changes")
	return cmd
}
