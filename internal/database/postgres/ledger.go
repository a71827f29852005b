package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// LedgerRepository stores attendance in the attendance_history and
// attendance_today tables.
type LedgerRepository struct {
	pool *Pool
}

// NewLedgerRepository creates a new PostgreSQL attendance repository.
func NewLedgerRepository(pool *Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) query(ctx context.Context, table string) ([]database.AttendanceRecord, error) {
	query := `
		SELECT identity_id, name, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS')
		FROM ` + table + `
		ORDER BY seq
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.IdentityID, &rec.Name, &rec.Date, &rec.Time); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return records, nil
}

// Today returns the daily view in append order.
func (r *LedgerRepository) Today(ctx context.Context) ([]database.AttendanceRecord, error) {
	return r.query(ctx, "attendance_today")
}

// History returns the full history in append order.
func (r *LedgerRepository) History(ctx context.Context) ([]database.AttendanceRecord, error) {
	return r.query(ctx, "attendance_history")
}

// ResetToday empties the daily view.
func (r *LedgerRepository) ResetToday(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM attendance_today"); err != nil {
		return fmt.Errorf("reset daily view: %w", err)
	}
	return nil
}

// Append writes the record to history and the daily view in one transaction.
// Returns ErrAlreadyRecorded if the daily view already holds the identity.
func (r *LedgerRepository) Append(ctx context.Context, record database.AttendanceRecord) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	recordID := uuid.New()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_history (record_id, identity_id, name, date, time)
		VALUES ($1, $2, $3, $4::date, $5::time)
	`, recordID, record.IdentityID, record.Name, record.Date, record.Time); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO attendance_today (record_id, identity_id, name, date, time)
		VALUES ($1, $2, $3, $4::date, $5::time)
	`, recordID, record.IdentityID, record.Name, record.Date, record.Time); err != nil {
		if isUniqueViolation(err) {
			return database.ErrAlreadyRecorded
		}
		return fmt.Errorf("append daily view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}
