package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository provides PostgreSQL-backed identity storage with
// nearest-neighbour search on the pgvector column.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

const identityColumns = "id, name, embedding, enrolled_at"

// scanIdentityRow scans the identity columns, with optional extra scan destinations
// appended after them (e.g., a distance column).
func scanIdentityRow(scanner interface{ Scan(...any) error }, extraDest ...any) (database.Identity, error) {
	var identity database.Identity
	var vec pgvector.Vector

	dest := append([]any{&identity.ID, &identity.Name, &vec, &identity.EnrolledAt}, extraDest...)
	if err := scanner.Scan(dest...); err != nil {
		return identity, fmt.Errorf("scan identity: %w", err)
	}
	identity.Embedding = vec.Slice()
	return identity, nil
}

// List returns all identities in enrollment order.
func (r *IdentityRepository) List(ctx context.Context) ([]database.Identity, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+identityColumns+" FROM identities ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []database.Identity
	for rows.Next() {
		identity, err := scanIdentityRow(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// ContainsID checks if an identity with the given id is enrolled.
func (r *IdentityRepository) ContainsID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM identities WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check identity exists: %w", err)
	}
	return exists, nil
}

// Get retrieves an identity by id, returns nil if not found.
func (r *IdentityRepository) Get(ctx context.Context, id string) (*database.Identity, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+identityColumns+" FROM identities WHERE id = $1", id)
	identity, err := scanIdentityRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// Count returns the number of enrolled identities.
func (r *IdentityRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Insert adds a new identity, returns ErrDuplicateID if the id is taken.
func (r *IdentityRepository) Insert(ctx context.Context, identity database.Identity) error {
	enrolledAt := identity.EnrolledAt
	if enrolledAt.IsZero() {
		enrolledAt = time.Now()
	}

	_, err := r.pool.Exec(ctx,
		"INSERT INTO identities (id, name, embedding, enrolled_at) VALUES ($1, $2, $3, $4)",
		identity.ID, identity.Name, pgvector.NewVector(identity.Embedding), enrolledAt,
	)
	if isUniqueViolation(err) {
		return database.ErrDuplicateID
	}
	if err != nil {
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

// distanceOperator returns the pgvector operator for metric.
func distanceOperator(metric database.Metric) string {
	if metric == database.MetricCosine {
		return "<=>"
	}
	return "<->"
}

// FindNearest returns the identity closest to probe. Ties resolve to the
// earliest enrolled identity. Identities whose embedding length differs from
// the probe are never candidates. Returns nil when nothing qualifies.
func (r *IdentityRepository) FindNearest(
	ctx context.Context, probe []float32, metric database.Metric,
) (*database.Identity, float64, error) {
	if len(probe) == 0 {
		return nil, 0, nil
	}

	query := fmt.Sprintf(`
		SELECT %s, embedding %s $1::vector AS distance
		FROM identities
		WHERE vector_dims(embedding) = $2
		ORDER BY distance, seq
		LIMIT 1
	`, identityColumns, distanceOperator(metric))

	var distance float64
	row := r.pool.QueryRow(ctx, query, pgvector.NewVector(probe), len(probe))
	identity, err := scanIdentityRow(row, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("find nearest identity: %w", err)
	}
	return &identity, distance, nil
}
