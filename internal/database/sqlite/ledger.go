package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Ledger implements database.LedgerStore on the attendance tables.
type Ledger struct {
	db *sql.DB
}

func (l *Ledger) query(ctx context.Context, table string) ([]database.AttendanceRecord, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT identity_id, name, date, time FROM "+table+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var r database.AttendanceRecord
		if err := rows.Scan(&r.IdentityID, &r.Name, &r.Date, &r.Time); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Today returns the daily view in append order.
func (l *Ledger) Today(ctx context.Context) ([]database.AttendanceRecord, error) {
	return l.query(ctx, "attendance_today")
}

// History returns the full history in append order.
func (l *Ledger) History(ctx context.Context) ([]database.AttendanceRecord, error) {
	return l.query(ctx, "attendance_history")
}

// ResetToday empties the daily view.
func (l *Ledger) ResetToday(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, "DELETE FROM attendance_today"); err != nil {
		return fmt.Errorf("reset daily view: %w", err)
	}
	return nil
}

// Append writes the record to history and the daily view in one transaction.
// Returns ErrAlreadyRecorded if the daily view already holds the identity.
func (l *Ledger) Append(ctx context.Context, record database.AttendanceRecord) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	args := []any{record.IdentityID, record.Name, record.Date, record.Time}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO attendance_history (identity_id, name, date, time) VALUES (?, ?, ?, ?)", args...); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO attendance_today (identity_id, name, date, time) VALUES (?, ?, ?, ?)", args...); err != nil {
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
