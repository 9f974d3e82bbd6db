package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud", "local"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	l, err := New("debug", "prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}
}

func TestWarnAddsCorrelationID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	ctx := WithCorrelationID(context.Background(), "cid-1")
	Warn(ctx, l, "order placed with missing products", zap.Strings("missing", []string{"ghost"}))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["correlation_id"] != "cid-1" {
		t.Fatalf("expected correlation id field, got %+v", fields)
	}
	if _, ok := fields["trace_id"]; ok {
		t.Fatalf("did not expect trace id without a span")
	}
}
