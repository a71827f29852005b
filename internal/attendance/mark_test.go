package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

func (env *testEnv) mark(t *testing.T, image []byte) *MarkResult {
	t.Helper()
	result, err := env.engine.Mark(context.Background(), MarkRequest{Image: image})
	if err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	return result
}

func (env *testEnv) logs(t *testing.T) (history, today []database.AttendanceRecord) {
	t.Helper()
	ctx := context.Background()
	history, err := env.backend.LedgerStore.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	today, err = env.backend.LedgerStore.Today(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return history, today
}

func TestMark_EmptyStoreNotRecognized(t *testing.T) {
	env := newTestEnv(t)
	image := env.detector.face("stranger", []float32{0, 0})

	result := env.mark(t, image)
	if result.Outcome != OutcomeNotRecognized {
		t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeNotRecognized)
	}
	if result.Identity != nil {
		t.Errorf("Identity = %+v, want nil", result.Identity)
	}
}

func TestMark_NoFaceIsDistinctFromNotRecognized(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})

	blank := env.detector.face("blank")
	result := env.mark(t, blank)
	if result.Outcome != OutcomeNoFaceDetected {
		t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeNoFaceDetected)
	}
	if result.FacesDetected != 0 {
		t.Errorf("FacesDetected = %d, want 0", result.FacesDetected)
	}

	stranger := env.detector.face("stranger", []float32{9, 9})
	if got := env.mark(t, stranger).Outcome; got != OutcomeNotRecognized {
		t.Errorf("Outcome = %s, want %s", got, OutcomeNotRecognized)
	}

	history, _ := env.logs(t)
	if len(history) != 0 {
		t.Errorf("history has %d records, want 0", len(history))
	}
}

func TestMark_MarkedThenAlreadyMarked(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0.1, 0})

	first := env.mark(t, image)
	if first.Outcome != OutcomeMarked {
		t.Fatalf("first Outcome = %s, want %s", first.Outcome, OutcomeMarked)
	}
	if first.Identity.ID != "E001" || first.Record.Name != "Alice" {
		t.Errorf("first result = %+v", first)
	}
	if first.Record.Date != "2024-03-01" || first.Record.Time != "09:00:00" {
		t.Errorf("record = %+v, want 2024-03-01 09:00:00", first.Record)
	}
	if first.Distance < 0.09 || first.Distance > 0.11 {
		t.Errorf("Distance = %f, want ~0.1", first.Distance)
	}

	env.clock.Set(time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC))
	second := env.mark(t, image)
	if second.Outcome != OutcomeAlreadyMarked {
		t.Fatalf("second Outcome = %s, want %s", second.Outcome, OutcomeAlreadyMarked)
	}
	if second.Record.Time != "09:00:00" {
		t.Errorf("AlreadyMarked should report the earlier record, got %+v", second.Record)
	}

	history, today := env.logs(t)
	if len(history) != 1 || len(today) != 1 {
		t.Errorf("history = %d, today = %d records, want 1 and 1", len(history), len(today))
	}
}

func TestMark_MultipleFacesUsesFirst(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	env.enroll(t, "E002", "Bob", []float32{5, 5})

	group := env.detector.face("group", []float32{5, 5}, []float32{0, 0})
	result := env.mark(t, group)
	if result.Outcome != OutcomeMarked || result.Identity.ID != "E002" {
		t.Errorf("result = %+v, want Bob marked", result)
	}
	if result.FacesDetected != 2 {
		t.Errorf("FacesDetected = %d, want 2", result.FacesDetected)
	}
	if result.Region.X1 != 0 || result.Region.X2 != 50 {
		t.Errorf("Region = %+v, want the first face", result.Region)
	}
}

func TestMark_RecognitionThreshold(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("far", []float32{0.6, 0})

	if got := env.mark(t, image).Outcome; got != OutcomeNotRecognized {
		t.Errorf("Outcome = %s at default threshold, want %s", got, OutcomeNotRecognized)
	}

	result, err := env.engine.Mark(context.Background(), MarkRequest{Image: image, Threshold: 0.7})
	if err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	if result.Outcome != OutcomeMarked {
		t.Errorf("Outcome = %s with threshold 0.7, want %s", result.Outcome, OutcomeMarked)
	}
}

func TestMark_DateChange(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	env.enroll(t, "E002", "Bob", []float32{5, 5})
	alice := env.detector.face("alice-cam", []float32{0, 0})
	bob := env.detector.face("bob-cam", []float32{5, 5})

	env.mark(t, alice)
	env.mark(t, bob)

	env.clock.Set(time.Date(2024, 3, 2, 8, 45, 0, 0, time.UTC))
	result := env.mark(t, alice)
	if result.Outcome != OutcomeMarked {
		t.Fatalf("Outcome after date change = %s, want %s", result.Outcome, OutcomeMarked)
	}

	history, today := env.logs(t)
	if len(today) != 1 || today[0].Date != "2024-03-02" || today[0].IdentityID != "E001" {
		t.Errorf("daily view = %+v, want only today's mark of E001", today)
	}
	if len(history) != 3 {
		t.Errorf("history has %d records, want 3", len(history))
	}
	if history[0].Date != "2024-03-01" {
		t.Errorf("history lost yesterday's records: %+v", history)
	}
}

func TestMark_RestartRebuildsMarkedToday(t *testing.T) {
	backend := mock.NewMockBackend()
	records := []database.AttendanceRecord{
		{IdentityID: "E001", Name: "Alice", Date: "2024-03-01", Time: "08:00:00"},
	}
	backend.LedgerStore.Seed(records, records)

	env := newTestEnvWithBackend(t, backend, backend)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0, 0})

	result := env.mark(t, image)
	if result.Outcome != OutcomeAlreadyMarked {
		t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeAlreadyMarked)
	}
	if result.Record.Time != "08:00:00" {
		t.Errorf("Record = %+v, want the seeded record", result.Record)
	}
	if backend.LedgerStore.ResetCalls != 0 {
		t.Errorf("ResetToday called %d times for a current daily view", backend.LedgerStore.ResetCalls)
	}
}

func TestMark_StaleDailyViewIsReset(t *testing.T) {
	backend := mock.NewMockBackend()
	yesterday := []database.AttendanceRecord{
		{IdentityID: "E001", Name: "Alice", Date: "2024-02-29", Time: "08:00:00"},
	}
	backend.LedgerStore.Seed(yesterday, yesterday)

	env := newTestEnvWithBackend(t, backend, backend)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0, 0})

	if got := env.mark(t, image).Outcome; got != OutcomeMarked {
		t.Errorf("Outcome = %s, want %s", got, OutcomeMarked)
	}
	if backend.LedgerStore.ResetCalls != 1 {
		t.Errorf("ResetToday called %d times, want 1", backend.LedgerStore.ResetCalls)
	}

	history, today := env.logs(t)
	if len(today) != 1 || today[0].Date != "2024-03-01" {
		t.Errorf("daily view = %+v", today)
	}
	if len(history) != 2 {
		t.Errorf("history has %d records, want 2", len(history))
	}
}

func TestMark_AppendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0, 0})

	env.backend.LedgerStore.AppendError = errors.New("disk full")
	_, err := env.engine.Mark(context.Background(), MarkRequest{Image: image})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Mark() error = %v, want ErrPersistence", err)
	}

	env.backend.LedgerStore.AppendError = nil
	if got := env.mark(t, image).Outcome; got != OutcomeMarked {
		t.Errorf("Outcome after failed append = %s, want %s", got, OutcomeMarked)
	}
	history, _ := env.logs(t)
	if len(history) != 1 {
		t.Errorf("history has %d records, want 1", len(history))
	}
}

func TestMark_ResetFailure(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0, 0})

	env.backend.LedgerStore.ResetError = errors.New("read-only file system")
	_, err := env.engine.Mark(context.Background(), MarkRequest{Image: image})
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("Mark() error = %v, want ErrPersistence", err)
	}
}

func TestMark_RecordedByAnotherProcess(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0, 0})
	ctx := context.Background()

	// Load the marked set before the other process writes.
	if _, err := env.engine.Today(ctx); err != nil {
		t.Fatal(err)
	}
	other := database.AttendanceRecord{IdentityID: "E001", Name: "Alice", Date: "2024-03-01", Time: "08:59:00"}
	env.backend.LedgerStore.Seed([]database.AttendanceRecord{other}, []database.AttendanceRecord{other})
	env.backend.LedgerStore.AppendError = database.ErrAlreadyRecorded

	result := env.mark(t, image)
	if result.Outcome != OutcomeAlreadyMarked {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeAlreadyMarked)
	}
	if result.Record.Time != "08:59:00" {
		t.Errorf("Record = %+v, want the other process's record", result.Record)
	}
}

func TestMark_InvalidInput(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.Mark(context.Background(), MarkRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Mark() without image error = %v, want ErrInvalidInput", err)
	}
	_, err := env.engine.Mark(context.Background(), MarkRequest{Image: []byte("x"), Threshold: -1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Mark() with negative threshold error = %v, want ErrInvalidInput", err)
	}
}

func TestMark_DetectionFailure(t *testing.T) {
	env := newTestEnv(t)
	env.detector.err = errors.New("timeout")

	_, err := env.engine.Mark(context.Background(), MarkRequest{Image: []byte("x")})
	if !errors.Is(err, ErrDetection) {
		t.Errorf("Mark() error = %v, want ErrDetection", err)
	}
}

func TestMark_ConcurrentSameIdentity(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	image := env.detector.face("alice-cam", []float32{0, 0})

	const workers = 10
	outcomes := make([]Outcome, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := env.engine.Mark(context.Background(), MarkRequest{Image: image})
			if err != nil {
				t.Errorf("Mark() error = %v", err)
				return
			}
			outcomes[i] = result.Outcome
		}(i)
	}
	wg.Wait()

	marked := 0
	for _, o := range outcomes {
		if o == OutcomeMarked {
			marked++
		}
	}
	if marked != 1 {
		t.Errorf("%d workers got Marked, want exactly 1", marked)
	}
	history, today := env.logs(t)
	if len(history) != 1 || len(today) != 1 {
		t.Errorf("history = %d, today = %d, want 1 and 1", len(history), len(today))
	}
}
