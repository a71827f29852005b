package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// IdentityStore implements database.IdentityStore on the identities table.
type IdentityStore struct {
	db *sql.DB
}

const identityColumns = "id, name, embedding, enrolled_at"

func scanIdentity(scan func(dest ...any) error) (database.Identity, error) {
	var (
		identity   database.Identity
		blob       []byte
		enrolledAt string
	)
	if err := scan(&identity.ID, &identity.Name, &blob, &enrolledAt); err != nil {
		return database.Identity{}, err
	}

	embedding, err := decodeEmbedding(blob)
	if err != nil {
		return database.Identity{}, fmt.Errorf("identity %s: %w", identity.ID, err)
	}
	identity.Embedding = embedding

	if enrolledAt != "" {
		t, err := time.Parse(time.RFC3339Nano, enrolledAt)
		if err != nil {
			return database.Identity{}, fmt.Errorf("identity %s: invalid enrolled_at: %w", identity.ID, err)
		}
		identity.EnrolledAt = t
	}
	return identity, nil
}

// List returns all identities in enrollment order.
func (s *IdentityStore) List(ctx context.Context) ([]database.Identity, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+identityColumns+" FROM identities ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []database.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

// ContainsID checks if an identity with the given id is enrolled.
func (s *IdentityStore) ContainsID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM identities WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check identity: %w", err)
	}
	return exists, nil
}

// Get retrieves an identity by id, returns nil if not found.
func (s *IdentityStore) Get(ctx context.Context, id string) (*database.Identity, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+identityColumns+" FROM identities WHERE id = ?", id)
	identity, err := scanIdentity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return &identity, nil
}

// Count returns the number of enrolled identities.
func (s *IdentityStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Insert adds a new identity, returns ErrDuplicateID if the id is taken.
func (s *IdentityStore) Insert(ctx context.Context, identity database.Identity) error {
	enrolledAt := identity.EnrolledAt
	if enrolledAt.IsZero() {
		enrolledAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO identities (id, name, embedding, enrolled_at) VALUES (?, ?, ?, ?)",
		identity.ID, identity.Name, encodeEmbedding(identity.Embedding), enrolledAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return database.ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}
