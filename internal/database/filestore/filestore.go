// Package filestore implements the default storage backend on plain files:
// a gob-encoded identity store and two CSV attendance logs.
package filestore

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// BackendName is the name this backend registers under.
const BackendName = "file"

func init() {
	database.RegisterBackend(BackendName, Open)
}

// Backend is the file-based database.Backend.
type Backend struct {
	identities *IdentityStore
	ledger     *Ledger
}

// Open opens the file backend using the paths from the storage config.
func Open(_ context.Context, cfg *config.Config) (database.Backend, error) {
	if cfg.Storage.DataDir != "" {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return NewBackend(
		cfg.Storage.Path(cfg.Storage.IdentityFile),
		cfg.Storage.Path(cfg.Storage.HistoryFile),
		cfg.Storage.Path(cfg.Storage.TodayFile),
	)
}

// NewBackend opens the identity file and both attendance logs.
func NewBackend(identityPath, historyPath, todayPath string) (*Backend, error) {
	identities, err := OpenIdentityStore(identityPath)
	if err != nil {
		return nil, err
	}
	ledger, err := OpenLedger(historyPath, todayPath)
	if err != nil {
		return nil, err
	}
	return &Backend{identities: identities, ledger: ledger}, nil
}

// Identities returns the identity store.
func (b *Backend) Identities() database.IdentityStore { return b.identities }

// Ledger returns the attendance ledger.
func (b *Backend) Ledger() database.LedgerStore { return b.ledger }

// Close is a no-op; every write is flushed before it returns.
func (b *Backend) Close() error { return nil }
