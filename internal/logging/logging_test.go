package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := New("", "console"); err != nil {
		t.Fatalf("default level: %v", err)
	}
}

func TestCronLoggerRoutesErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := CronLogger{Log: zap.New(core).Sugar()}

	cl.Info("schedule", "entry", 1)
	cl.Error(errors.New("boom"), "panic", "entry", 2)

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	errEntry := logs.All()[1]
	if errEntry.Message != "cron: panic" {
		t.Errorf("unexpected message %q", errEntry.Message)
	}
	if errEntry.ContextMap()["err"] == nil {
		t.Error("expected err field on error entry")
	}
}
