package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"scribe/internal/services"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	NewComponentLogger(logger, "fetch").Info("download complete", Int64("bytes", 2048), String("url", "https://example.com/a b"))

	line := buf.String()
	if !strings.Contains(line, "INFO fetch: download complete") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "bytes=2048") {
		t.Fatalf("missing bytes attr: %q", line)
	}
	if !strings.Contains(line, `url="https://example.com/a b"`) {
		t.Fatalf("expected quoted url attr: %q", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Info("hidden")
	logger.Warn("visible")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Fatalf("warn line missing: %q", buf.String())
	}
}

func TestWithContextAddsRequestFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	ctx := services.WithRequestID(context.Background(), "req-123")
	ctx = services.WithStage(ctx, "normalize")
	WithContext(ctx, logger).Info("working")

	line := buf.String()
	if !strings.Contains(line, "request_id=req-123") || !strings.Contains(line, "stage=normalize") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
