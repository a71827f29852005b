// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// MockIdentityStore is an in-memory implementation of database.IdentityStore
type MockIdentityStore struct {
	mu         sync.RWMutex
	identities []database.Identity

	// Error injection
	ListError       error
	ContainsIDError error
	GetError        error
	InsertError     error

	InsertCalls int
}

// NewMockIdentityStore creates a new mock identity store
func NewMockIdentityStore() *MockIdentityStore {
	return &MockIdentityStore{}
}

// AddIdentity seeds an identity without going through Insert
func (m *MockIdentityStore) AddIdentity(identity database.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities = append(m.identities, identity)
}

// List returns all identities in insertion order
func (m *MockIdentityStore) List(ctx context.Context) ([]database.Identity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.identities), nil
}

// ContainsID checks if an identity exists
func (m *MockIdentityStore) ContainsID(ctx context.Context, id string) (bool, error) {
	if m.ContainsIDError != nil {
		return false, m.ContainsIDError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexOf(id) >= 0, nil
}

// Get retrieves an identity by id
func (m *MockIdentityStore) Get(ctx context.Context, id string) (*database.Identity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		identity := m.identities[i]
		return &identity, nil
	}
	return nil, nil
}

// Count returns the number of identities
func (m *MockIdentityStore) Count(ctx context.Context) (int, error) {
	if m.ListError != nil {
		return 0, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// Insert adds an identity
func (m *MockIdentityStore) Insert(ctx context.Context, identity database.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertError != nil {
		return m.InsertError
	}
	if m.indexOf(identity.ID) >= 0 {
		return database.ErrDuplicateID
	}
	m.identities = append(m.identities, identity)
	return nil
}

func (m *MockIdentityStore) indexOf(id string) int {
	for i := range m.identities {
		if m.identities[i].ID == id {
			return i
		}
	}
	return -1
}

// MockLedgerStore is an in-memory implementation of database.LedgerStore
type MockLedgerStore struct {
	mu      sync.RWMutex
	history []database.AttendanceRecord
	today   []database.AttendanceRecord

	// Error injection
	TodayError   error
	HistoryError error
	ResetError   error
	AppendError  error

	ResetCalls int
}

// NewMockLedgerStore creates a new mock ledger store
func NewMockLedgerStore() *MockLedgerStore {
	return &MockLedgerStore{}
}

// Seed replaces the stored logs, e.g. to simulate a ledger left over from a previous day
func (m *MockLedgerStore) Seed(history, today []database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = slices.Clone(history)
	m.today = slices.Clone(today)
}

// Today returns the daily view
func (m *MockLedgerStore) Today(ctx context.Context) ([]database.AttendanceRecord, error) {
	if m.TodayError != nil {
		return nil, m.TodayError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.today), nil
}

// History returns the full history
func (m *MockLedgerStore) History(ctx context.Context) ([]database.AttendanceRecord, error) {
	if m.HistoryError != nil {
		return nil, m.HistoryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.history), nil
}

// ResetToday clears the daily view
func (m *MockLedgerStore) ResetToday(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	if m.ResetError != nil {
		return m.ResetError
	}
	m.today = nil
	return nil
}

// Append writes the record to both logs
func (m *MockLedgerStore) Append(ctx context.Context, record database.AttendanceRecord) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, record)
	m.today = append(m.today, record)
	return nil
}

// MockBackend bundles mock stores as a database.Backend
type MockBackend struct {
	IdentityStore *MockIdentityStore
	LedgerStore   *MockLedgerStore
	Closed        bool
}

// NewMockBackend creates a backend with empty mock stores
func NewMockBackend() *MockBackend {
	return &MockBackend{
		IdentityStore: NewMockIdentityStore(),
		LedgerStore:   NewMockLedgerStore(),
	}
}

// Identities returns the identity store
func (b *MockBackend) Identities() database.IdentityStore { return b.IdentityStore }

// Ledger returns the ledger store
func (b *MockBackend) Ledger() database.LedgerStore { return b.LedgerStore }

// Close marks the backend closed
func (b *MockBackend) Close() error {
	b.Closed = true
	return nil
}
