package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"
)

func TestServer_ShutdownRunsComponentsInReverse(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(http.NotFoundHandler(), Options{Port: 0, ShutdownTimeout: time.Second}, logger)

	var order []string
	srv.OnShutdown("postgres", func(context.Context) error {
		order = append(order, "postgres")
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		order = append(order, "redis")
		return errors.New("redis close failed")
	})

	err := srv.Shutdown()
	if err == nil || err.Error() != "redis close failed" {
		t.Fatalf("expected redis error, got %v", err)
	}
	if len(order) != 2 || order[0] != "redis" || order[1] != "postgres" {
		t.Fatalf("unexpected shutdown order: %v", order)
	}
}

func TestServer_Addr(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Options{Port: 5000}, nil)
	if srv.Addr() != ":5000" {
		t.Fatalf("Addr() = %q", srv.Addr())
	}
}
