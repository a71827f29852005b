package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// fakeDetector returns canned detections keyed by image content.
type fakeDetector struct {
	mu    sync.Mutex
	faces map[string][]facematch.Detection
	err   error
	calls int
}

func newFakeDetector() *fakeDetector {
	return &fakeDetector{faces: make(map[string][]facematch.Detection)}
}

// face registers an image holding one face per embedding.
func (d *fakeDetector) face(image string, embeddings ...[]float32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	detections := make([]facematch.Detection, len(embeddings))
	for i, emb := range embeddings {
		detections[i] = facematch.Detection{
			Embedding: emb,
			Region:    facematch.Region{X1: float64(i * 100), Y1: 0, X2: float64(i*100 + 50), Y2: 50},
			Score:     0.99,
		}
	}
	d.faces[image] = detections
	return []byte(image)
}

func (d *fakeDetector) DetectFaces(_ context.Context, image []byte) ([]facematch.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.faces[string(image)], nil
}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type testEnv struct {
	engine   *Engine
	detector *fakeDetector
	backend  *mock.MockBackend
	clock    *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := mock.NewMockBackend()
	return newTestEnvWithBackend(t, backend, backend)
}

func newTestEnvWithBackend(t *testing.T, backend database.Backend, mb *mock.MockBackend) *testEnv {
	t.Helper()
	detector := newFakeDetector()
	clock := newFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	engine := NewEngine(detector, backend, Options{
		Metric:             database.MetricEuclidean,
		EnrollThreshold:    0.4,
		RecognizeThreshold: 0.4,
		Clock:              clock,
		Logger:             logger.Nop(),
	})
	return &testEnv{engine: engine, detector: detector, backend: mb, clock: clock}
}

func (env *testEnv) enroll(t *testing.T, id, name string, embedding []float32) {
	t.Helper()
	image := env.detector.face("enroll-"+id, embedding)
	if _, err := env.engine.Enroll(context.Background(), EnrollRequest{Name: name, ID: id, Image: image}); err != nil {
		t.Fatalf("Enroll(%s) error = %v", id, err)
	}
}

func (env *testEnv) count(t *testing.T) int {
	t.Helper()
	n, err := env.backend.IdentityStore.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	return n
}
