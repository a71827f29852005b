package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/embedding"

	// Storage backends register themselves with the database package.
	_ "github.com/kozaktomas/face-attendance/internal/database/filestore"
	_ "github.com/kozaktomas/face-attendance/internal/database/postgres"
	_ "github.com/kozaktomas/face-attendance/internal/database/sqlite"
)

// app holds the wiring shared by every command that touches the engine.
type app struct {
	cfg     *config.Config
	backend database.Backend
	engine  *attendance.Engine
}

// openApp loads configuration, opens the storage backend and builds the engine.
func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	opts, err := attendance.OptionsFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid matching configuration: %w", err)
	}

	backend, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	detector := embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.MaxImageSize)
	return &app{
		cfg:     cfg,
		backend: backend,
		engine:  attendance.NewEngine(detector, backend, opts),
	}, nil
}

// Close releases the storage backend.
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close %s backend: %v\n", a.cfg.Storage.Backend, err)
	}
}

// readImageFile reads an image argument from disk.
func readImageFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}
