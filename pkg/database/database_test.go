package database_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/database"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/lifecycle"
)

func unreachable() database.Config {
	return database.Config{
		Enabled:  true,
		URL:      "postgres://docflow@127.0.0.1:1/docflow?sslmode=disable",
		MaxConns: 4,
		Timeout:  "500ms",
	}
}

func TestNewReturnsSystem(t *testing.T) {
	cfg := unreachable()

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sys.Connection() == nil {
		t.Fatal("Connection() returned nil")
	}

	// sql.Open is lazy, so Close succeeds without a server
	if err := sys.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := unreachable()
	cfg.MaxConns = 7

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Close()

	if got := sys.Connection().Stats().MaxOpenConnections; got != 7 {
		t.Errorf("max open conns: got %d, want 7", got)
	}
}

func TestStartReportsNotReady(t *testing.T) {
	cfg := unreachable()

	sys, err := database.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New(context.Background())
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := lc.WaitForStartup(); !errors.Is(err, database.ErrNotReady) {
		t.Fatalf("WaitForStartup() = %v, want ErrNotReady", err)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
