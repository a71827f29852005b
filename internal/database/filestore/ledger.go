package filestore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/renameio"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Ledger stores the attendance history and the daily view as CSV files with
// the header Name,ID,Date,Time.
type Ledger struct {
	historyPath string
	todayPath   string
	mu          sync.Mutex
}

// OpenLedger creates missing log files with their header.
func OpenLedger(historyPath, todayPath string) (*Ledger, error) {
	for _, path := range []string{historyPath, todayPath} {
		if err := ensureLogFile(path); err != nil {
			return nil, err
		}
	}
	return &Ledger{historyPath: historyPath, todayPath: todayPath}, nil
}

// Today returns the daily view in append order.
func (l *Ledger) Today(_ context.Context) ([]database.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return readLog(l.todayPath)
}

// History returns the full history in append order.
func (l *Ledger) History(_ context.Context) ([]database.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return readLog(l.historyPath)
}

// ResetToday atomically replaces the daily view with an empty log.
func (l *Ledger) ResetToday(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := renameio.WriteFile(l.todayPath, headerBytes(), 0o600); err != nil {
		return fmt.Errorf("failed to reset daily view: %w", err)
	}
	return nil
}

// Append writes the record to the history and then to the daily view. If the
// second write fails both files are truncated back to their previous size.
func (l *Ledger) Append(_ context.Context, record database.AttendanceRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	historySize, err := fileSize(l.historyPath)
	if err != nil {
		return err
	}
	todaySize, err := fileSize(l.todayPath)
	if err != nil {
		return err
	}

	row := []string{record.Name, record.IdentityID, record.Date, record.Time}
	if err := appendRow(l.historyPath, row); err != nil {
		return errors.Join(fmt.Errorf("failed to append history: %w", err), restore(l.historyPath, historySize))
	}
	if err := appendRow(l.todayPath, row); err != nil {
		return errors.Join(
			fmt.Errorf("failed to append daily view: %w", err),
			restore(l.todayPath, todaySize),
			restore(l.historyPath, historySize),
		)
	}
	return nil
}

func headerBytes() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(database.LedgerHeader) // writes to a bytes.Buffer cannot fail
	w.Flush()
	return buf.Bytes()
}

func ensureLogFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := renameio.WriteFile(path, headerBytes(), 0o600); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// restore truncates path back to size after a failed append.
func restore(path string, size int64) error {
	if err := os.Truncate(path, size); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to roll back %s: %w", path, err)
	}
	return nil
}

// appendRow appends one CSV row and syncs the file. A missing or empty file
// gets the header first.
func appendRow(path string, row []string) error {
	size, err := fileSize(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600) //nolint:gosec // path is from trusted config
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if size == 0 {
		_ = w.Write(database.LedgerHeader)
	}
	_ = w.Write(row)
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readLog parses a log file, skipping the header. Rows need at least name and
// id; missing date or time fields are left empty.
func readLog(path string) ([]database.AttendanceRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []database.AttendanceRecord
	header := true
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		if len(row) < 2 {
			continue
		}
		record := database.AttendanceRecord{Name: row[0], IdentityID: row[1]}
		if len(row) > 2 {
			record.Date = row[2]
		}
		if len(row) > 3 {
			record.Time = row[3]
		}
		records = append(records, record)
	}
	return records, nil
}
