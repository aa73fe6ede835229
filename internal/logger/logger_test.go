package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))

	Named("unitofwork").Infow("committed", "records", 2)
	Get().Debugw("dropped below level")

	restore()

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "unitofwork" {
		t.Errorf("expected logger name unitofwork, got %q", entries[0].LoggerName)
	}
	if got := entries[0].ContextMap()["records"]; got != int64(2) {
		t.Errorf("expected records=2, got %v", got)
	}
}

func TestInitTestDiscards(t *testing.T) {
	Init("test", "")
	if Get().Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected the test logger to discard everything")
	}
}
