package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. format is "json" or "console".
func New(level, format string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(orDefault(level, "info"))))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// CronLogger adapts a zap logger to cron.Logger.
type CronLogger struct {
	Log *zap.SugaredLogger
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Log.Debugw("cron: "+msg, keysAndValues...)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.Log.Errorw("cron: "+msg, append(keysAndValues, "err", err)...)
}
