package database

import (
	"time"
)

// Identity is an enrolled person. Identities are never mutated after enrollment.
type Identity struct {
	ID         string
	Name       string
	Embedding  []float32
	EnrolledAt time.Time
}

// AttendanceRecord is a single attendance mark. Name is a snapshot taken at mark time.
type AttendanceRecord struct {
	IdentityID string
	Name       string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM:SS
}

// IdentityExport is the serialized form of the identity store.
type IdentityExport struct {
	Version    int
	SavedAt    time.Time
	Identities []Identity
}

// CurrentIdentityExportVersion is written into every identity export.
const CurrentIdentityExportVersion = 1

// LedgerHeader is the column header of the tabular attendance logs.
var LedgerHeader = []string{"Name", "ID", "Date", "Time"}
