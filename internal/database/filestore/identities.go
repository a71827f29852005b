package filestore

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// IdentityStore keeps identities in memory and persists the full set to a gob
// file after every insert. Readers see the last committed snapshot.
type IdentityStore struct {
	path       string
	mu         sync.RWMutex
	identities []database.Identity
}

// OpenIdentityStore loads the identity file at path. A missing file is an empty store.
func OpenIdentityStore(path string) (*IdentityStore, error) {
	identities, err := LoadIdentities(path)
	if err != nil {
		return nil, err
	}
	return &IdentityStore{path: path, identities: identities}, nil
}

// LoadIdentities decodes the identity file at path.
func LoadIdentities(path string) ([]database.Identity, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}

	var export database.IdentityExport
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to decode identity file: %w", err)
	}
	if export.Version > database.CurrentIdentityExportVersion {
		return nil, fmt.Errorf("identity file version %d is newer than supported version %d",
			export.Version, database.CurrentIdentityExportVersion)
	}
	return export.Identities, nil
}

// SaveIdentities atomically replaces the identity file with the given identities.
func SaveIdentities(path string, identities []database.Identity) error {
	export := database.IdentityExport{
		Version:    database.CurrentIdentityExportVersion,
		SavedAt:    time.Now().UTC(),
		Identities: identities,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(export); err != nil {
		return fmt.Errorf("failed to encode identities: %w", err)
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

// List returns all identities in enrollment order.
func (s *IdentityStore) List(_ context.Context) ([]database.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.identities), nil
}

// ContainsID checks if an identity with the given id is enrolled.
func (s *IdentityStore) ContainsID(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id) >= 0, nil
}

// Get retrieves an identity by id, returns nil if not found.
func (s *IdentityStore) Get(_ context.Context, id string) (*database.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		identity := s.identities[i]
		return &identity, nil
	}
	return nil, nil
}

// Count returns the number of enrolled identities.
func (s *IdentityStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.identities), nil
}

// Insert appends the identity and persists the whole set before publishing it.
// On a write failure the in-memory snapshot and the file are left unchanged.
func (s *IdentityStore) Insert(_ context.Context, identity database.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(identity.ID) >= 0 {
		return database.ErrDuplicateID
	}

	identity.Embedding = slices.Clone(identity.Embedding)
	next := append(slices.Clone(s.identities), identity)
	if err := SaveIdentities(s.path, next); err != nil {
		return err
	}
	s.identities = next
	return nil
}

func (s *IdentityStore) indexOf(id string) int {
	for i := range s.identities {
		if s.identities[i].ID == id {
			return i
		}
	}
	return -1
}
