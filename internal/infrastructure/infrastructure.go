// Package infrastructure assembles the systems a docflow command depends on:
// logging, lifecycle coordination, and the optional storage and database.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/config"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/database"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/lifecycle"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/storage"
)

// Infrastructure holds the core systems shared by commands. Database and
// Storage are nil when disabled in configuration, or when the database could
// not be reached at startup.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// NewLogger builds the slog logger described by cfg, writing to w.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// New creates an Infrastructure from the configuration. Systems are created
// but not started; call Start separately.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(ctx),
		Logger:    NewLogger(cfg.Log, logOut),
	}

	if cfg.Database.Enabled {
		db, err := database.New(&cfg.Database, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	if cfg.Storage.Enabled {
		store, err := storage.New(&cfg.Storage, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	}

	return infra, nil
}

// Start registers the enabled systems with the lifecycle coordinator and
// waits for their startup hooks. An unreachable database only disables the
// run ledger; every other startup failure is returned.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}

	err := i.Lifecycle.WaitForStartup()
	if err == nil {
		return nil
	}

	var fatal []error
	for _, e := range startupErrors(err) {
		if errors.Is(e, database.ErrNotReady) {
			i.Logger.Warn("run ledger unavailable", "error", e)
			i.Database = nil
			continue
		}
		fatal = append(fatal, e)
	}
	return errors.Join(fatal...)
}

// startupErrors splits the joined hook errors returned by WaitForStartup.
func startupErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// Shutdown releases every started system.
func (i *Infrastructure) Shutdown(cfg *config.Config) error {
	return i.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
}
