package database

import (
	"context"
	"errors"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/config"
)

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "carrier-pigeon"}}

	_, err := Open(context.Background(), cfg)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestRegisterBackend_Open(t *testing.T) {
	wantErr := errors.New("boom")
	RegisterBackend("test-failing", func(ctx context.Context, cfg *config.Config) (Backend, error) {
		return nil, wantErr
	})

	cfg := &config.Config{Storage: config.StorageConfig{Backend: "test-failing"}}
	_, err := Open(context.Background(), cfg)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped opener error, got %v", err)
	}

	found := false
	for _, name := range Backends() {
		if name == "test-failing" {
			found = true
		}
	}
	if !found {
		t.Error("expected registered backend to be listed")
	}
}
