package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes on disk and hands every
// valid result to apply. Bursts of events are collapsed into one reload.
type Watcher struct {
	path     string
	apply    func(*Config)
	debounce time.Duration
	log      *zap.SugaredLogger

	stopOnce sync.Once
}

func NewWatcher(path string, debounce time.Duration, apply func(*Config), log *zap.SugaredLogger) *Watcher {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	return &Watcher{path: path, apply: apply, debounce: debounce, log: log}
}

// Start begins watching. The directory is watched rather than the file so
// editors that replace the file by rename are seen. Returns a stop function.
func (w *Watcher) Start(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		cancel()
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.path, err)
	}
	target := filepath.Clean(w.path)

	go func() {
		defer fw.Close()
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		defer timer.Stop()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op == fsnotify.Chmod {
					continue
				}
				timer.Reset(w.debounce)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.log.Warnf("config watcher error: %v", err)
			case <-timer.C:
				w.reload()
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Infof("watching %s for changes", w.path)
	return func() { w.stopOnce.Do(cancel) }, nil
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warnf("config reload failed, keeping previous settings: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.log.Warnf("reloaded config is invalid, keeping previous settings: %v", err)
		return
	}
	w.log.Infof("config reloaded from %s", w.path)
	w.apply(cfg)
}
