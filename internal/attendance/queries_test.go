package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestIdentity_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.engine.Identity(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Identity() error = %v, want ErrNotFound", err)
	}
}

func TestFindByName(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Jiří Novák", []float32{0, 0})
	env.enroll(t, "E002", "Eva Nováková", []float32{5, 5})
	env.enroll(t, "E003", "John Smith", []float32{9, 9})

	tests := []struct {
		query string
		want  []string
	}{
		{"novak", []string{"E001", "E002"}},
		{"JIRI", []string{"E001"}},
		{"smith", []string{"E003"}},
		{"nobody", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := env.engine.FindByName(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("FindByName() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("FindByName(%q) returned %d identities, want %d", tt.query, len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("FindByName(%q)[%d] = %s, want %s", tt.query, i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	env.enroll(t, "E002", "Bob", []float32{1, 0})
	env.enroll(t, "E003", "Carol", []float32{3, 0})

	probe := env.detector.face("probe", []float32{0.3, 0})
	neighbours, err := env.engine.Similar(context.Background(), probe, 2)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if len(neighbours) != 2 {
		t.Fatalf("Similar() returned %d neighbours, want 2", len(neighbours))
	}
	if neighbours[0].Identity.ID != "E001" || neighbours[1].Identity.ID != "E002" {
		t.Errorf("neighbours = [%s %s], want [E001 E002]", neighbours[0].Identity.ID, neighbours[1].Identity.ID)
	}
	if !neighbours[0].WithinEnroll || !neighbours[0].WithinRecognize {
		t.Errorf("nearest neighbour should be within both thresholds: %+v", neighbours[0])
	}
	if neighbours[1].WithinEnroll {
		t.Errorf("second neighbour at %f should be outside the threshold", neighbours[1].Distance)
	}
}

func TestSimilar_EmptyStoreAndNoFace(t *testing.T) {
	env := newTestEnv(t)
	probe := env.detector.face("probe", []float32{0, 0})

	neighbours, err := env.engine.Similar(context.Background(), probe, 5)
	if err != nil || len(neighbours) != 0 {
		t.Errorf("Similar() on empty store = %v, %v", neighbours, err)
	}

	blank := env.detector.face("blank")
	if _, err := env.engine.Similar(context.Background(), blank, 5); !errors.Is(err, ErrNoFaceDetected) {
		t.Errorf("Similar() on blank image error = %v, want ErrNoFaceDetected", err)
	}
}

func TestSimilar_SeesIdentitiesEnrolledElsewhere(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	env.backend.IdentityStore.AddIdentity(database.Identity{ID: "E002", Name: "Bob", Embedding: []float32{0.1, 0}})

	probe := env.detector.face("probe", []float32{0.1, 0})
	neighbours, err := env.engine.Similar(context.Background(), probe, 1)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if len(neighbours) != 1 || neighbours[0].Identity.ID != "E002" {
		t.Errorf("Similar() = %+v, want E002", neighbours)
	}
}

func TestHistoryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	env.enroll(t, "E002", "Bob", []float32{5, 5})
	alice := env.detector.face("alice-cam", []float32{0, 0})
	bob := env.detector.face("bob-cam", []float32{5, 5})

	env.mark(t, alice)
	env.mark(t, bob)
	env.clock.Set(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))
	env.mark(t, alice)

	tests := []struct {
		name   string
		filter HistoryFilter
		want   int
	}{
		{"all", HistoryFilter{}, 3},
		{"by identity", HistoryFilter{IdentityID: "E001"}, 2},
		{"by date", HistoryFilter{Date: "2024-03-01"}, 2},
		{"by both", HistoryFilter{IdentityID: "E002", Date: "2024-03-02"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.engine.History(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("History(%+v) returned %d records, want %d", tt.filter, len(got), tt.want)
			}
		})
	}

	today, err := env.engine.Today(context.Background())
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if len(today) != 1 {
		t.Errorf("Today() returned %d records, want 1", len(today))
	}
}

func TestTodayResetsWithoutMark(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Alice", []float32{0, 0})
	env.mark(t, env.detector.face("alice-cam", []float32{0, 0}))

	env.clock.Set(time.Date(2024, 3, 2, 0, 0, 1, 0, time.UTC))
	today, err := env.engine.Today(context.Background())
	if err != nil {
		t.Fatalf("Today() error = %v", err)
	}
	if len(today) != 0 {
		t.Errorf("Today() after midnight = %+v, want empty", today)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	s := env.engine.Settings()
	if s.Metric != database.MetricEuclidean || s.EnrollThreshold != 0.4 || s.RecognizeThreshold != 0.4 {
		t.Errorf("Settings() = %+v", s)
	}
}
