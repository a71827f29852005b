package attendance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Ledger guards the daily view of a LedgerStore. It keeps the set of identities
// marked today, rebuilt from the daily view on the first access of every
// calendar day, and resets a daily view left over from an earlier day.
type Ledger struct {
	store database.LedgerStore
	clock Clock

	mu     sync.Mutex
	day    string                               // date the marked set belongs to, "" before first use
	marked map[string]database.AttendanceRecord // identity id -> today's record
}

// NewLedger wraps store. Nothing is read until the first call.
func NewLedger(store database.LedgerStore, clock Clock) *Ledger {
	return &Ledger{store: store, clock: clock}
}

// ensureDayLocked runs the daily reset protocol for the date of now. The daily
// view is kept only if its first record is dated today.
func (l *Ledger) ensureDayLocked(ctx context.Context, now time.Time) error {
	today := now.Format(constants.DateLayout)
	if l.day == today {
		return nil
	}

	records, err := l.store.Today(ctx)
	if err != nil {
		return persistenceError("read daily view", err)
	}

	marked := make(map[string]database.AttendanceRecord, len(records))
	if len(records) == 0 || records[0].Date != today {
		if err := l.store.ResetToday(ctx); err != nil {
			return persistenceError("reset daily view", err)
		}
	} else {
		for _, r := range records {
			if _, ok := marked[r.IdentityID]; !ok {
				marked[r.IdentityID] = r
			}
		}
	}

	l.day = today
	l.marked = marked
	return nil
}

// Mark records attendance for identity unless it is already marked today.
// The returned record is the new one, or the existing one when already is true.
func (l *Ledger) Mark(ctx context.Context, identity database.Identity) (record database.AttendanceRecord, already bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if err := l.ensureDayLocked(ctx, now); err != nil {
		return database.AttendanceRecord{}, false, err
	}

	if existing, ok := l.marked[identity.ID]; ok {
		return existing, true, nil
	}

	record = database.AttendanceRecord{
		IdentityID: identity.ID,
		Name:       identity.Name,
		Date:       now.Format(constants.DateLayout),
		Time:       now.Format(constants.TimeLayout),
	}

	if err := l.store.Append(ctx, record); err != nil {
		if errors.Is(err, database.ErrAlreadyRecorded) {
			// Another process marked this identity first.
			existing := l.lookupTodayLocked(ctx, identity.ID, record)
			l.marked[identity.ID] = existing
			return existing, true, nil
		}
		return database.AttendanceRecord{}, false, persistenceError("append attendance", err)
	}

	l.marked[identity.ID] = record
	return record, false, nil
}

// lookupTodayLocked finds the daily record of id, falling back to fallback.
func (l *Ledger) lookupTodayLocked(ctx context.Context, id string, fallback database.AttendanceRecord) database.AttendanceRecord {
	records, err := l.store.Today(ctx)
	if err != nil {
		return fallback
	}
	for _, r := range records {
		if r.IdentityID == id {
			return r
		}
	}
	return fallback
}

// IsMarked reports whether id is in today's marked set.
func (l *Ledger) IsMarked(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureDayLocked(ctx, l.clock.Now()); err != nil {
		return false, err
	}
	_, ok := l.marked[id]
	return ok, nil
}

// Today returns the daily view after applying the reset protocol.
func (l *Ledger) Today(ctx context.Context) ([]database.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ensureDayLocked(ctx, l.clock.Now()); err != nil {
		return nil, err
	}
	records, err := l.store.Today(ctx)
	if err != nil {
		return nil, persistenceError("read daily view", err)
	}
	return records, nil
}

// History returns the full history. The daily reset never touches it.
func (l *Ledger) History(ctx context.Context) ([]database.AttendanceRecord, error) {
	records, err := l.store.History(ctx)
	if err != nil {
		return nil, persistenceError("read history", err)
	}
	return records, nil
}
