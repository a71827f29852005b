package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/config"
)

// Opener creates a backend from configuration.
type Opener func(ctx context.Context, cfg *config.Config) (Backend, error)

var (
	openersMu sync.RWMutex
	openers   = make(map[string]Opener)
)

// RegisterBackend registers a storage backend constructor under a name.
// This is called from the init function of each backend package to avoid import cycles.
func RegisterBackend(name string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	if open == nil {
		panic("database: RegisterBackend opener is nil")
	}
	if _, dup := openers[name]; dup {
		panic("database: RegisterBackend called twice for backend " + name)
	}
	openers[name] = open
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	openersMu.RLock()
	defer openersMu.RUnlock()
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	openersMu.RLock()
	open, ok := openers[cfg.Storage.Backend]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %v)", ErrUnknownBackend, cfg.Storage.Backend, Backends())
	}

	backend, err := open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Storage.Backend, err)
	}
	return backend, nil
}
