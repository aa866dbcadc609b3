package main

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	got := redactURL("postgres://apihub:s3cret@db:5432/apihub?sslmode=disable")
	if strings.Contains(got, "s3cret") {
		t.Fatalf("password leaked: %s", got)
	}
	if !strings.Contains(got, "apihub@db:5432") {
		t.Errorf("unexpected redaction: %s", got)
	}
	if redactURL("") != "" {
		t.Error("expected empty input to stay empty")
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	dsn := "postgres://apihub:s3cret@db:5432/apihub"
	err := errors.New("dial " + dsn + ": refused; password=hunter2")

	got := sanitizeError(err, dsn)
	if strings.Contains(got, "s3cret") || strings.Contains(got, "hunter2") {
		t.Fatalf("secret leaked: %s", got)
	}
	if sanitizeError(nil) != "" {
		t.Error("expected empty string for nil error")
	}
}
