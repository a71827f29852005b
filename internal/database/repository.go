package database

import (
	"context"
)

// IdentityReader provides read-only access to enrolled identities
type IdentityReader interface {
	// List returns all identities in enrollment order
	List(ctx context.Context) ([]Identity, error)
	// ContainsID checks if an identity with the given id is enrolled
	ContainsID(ctx context.Context, id string) (bool, error)
	// Get retrieves an identity by id, returns nil if not found
	Get(ctx context.Context, id string) (*Identity, error)
	// Count returns the number of enrolled identities
	Count(ctx context.Context) (int, error)
}

// IdentityStore provides durable, insert-only storage of identities.
// Insert must be persisted before it returns; a failed Insert leaves the store unchanged.
type IdentityStore interface {
	IdentityReader

	// Insert adds a new identity, returns ErrDuplicateID if the id is taken
	Insert(ctx context.Context, identity Identity) error
}

// NearestFinder is implemented by stores that can run the nearest-neighbour
// search natively. Ties must resolve to the earliest enrolled identity.
type NearestFinder interface {
	// FindNearest returns the closest identity and its distance, or nil for an empty store
	FindNearest(ctx context.Context, probe []float32, metric Metric) (*Identity, float64, error)
}

// LedgerStore persists the attendance history and the daily view.
type LedgerStore interface {
	// Today returns the daily view in append order
	Today(ctx context.Context) ([]AttendanceRecord, error)
	// History returns the full attendance history in append order
	History(ctx context.Context) ([]AttendanceRecord, error)
	// ResetToday truncates the daily view. The history is not touched.
	ResetToday(ctx context.Context) error
	// Append writes the record to both the history and the daily view, or to neither.
	Append(ctx context.Context, record AttendanceRecord) error
}

// Backend bundles the stores of one storage technology.
type Backend interface {
	Identities() IdentityStore
	Ledger() LedgerStore
	Close() error
}
