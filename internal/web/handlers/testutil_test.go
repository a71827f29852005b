package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Storage:   config.StorageConfig{Backend: "file"},
		Embedding: config.EmbeddingConfig{Model: "dlib"},
	}
}

// stubDetector maps image content to canned detections.
type stubDetector struct {
	mu    sync.Mutex
	faces map[string][]facematch.Detection
	err   error
}

func (d *stubDetector) DetectFaces(_ context.Context, image []byte) ([]facematch.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.faces[string(image)], nil
}

// image registers an image holding one face per embedding and returns its content.
func (d *stubDetector) image(name string, embeddings ...[]float32) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	detections := make([]facematch.Detection, len(embeddings))
	for i, emb := range embeddings {
		detections[i] = facematch.Detection{
			Embedding: emb,
			Region:    facematch.Region{X1: 10, Y1: 20, X2: 110, Y2: 140},
			Score:     0.98,
		}
	}
	d.faces[name] = detections
	return []byte(name)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type testEnv struct {
	engine   *attendance.Engine
	detector *stubDetector
	backend  *mock.MockBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	detector := &stubDetector{faces: make(map[string][]facematch.Detection)}
	backend := mock.NewMockBackend()
	engine := attendance.NewEngine(detector, backend, attendance.Options{
		Metric:             database.MetricEuclidean,
		EnrollThreshold:    0.4,
		RecognizeThreshold: 0.4,
		Clock:              fixedClock{now: time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)},
		Logger:             logger.Nop(),
	})
	return &testEnv{engine: engine, detector: detector, backend: backend}
}

// enroll registers an identity directly through the engine.
func (env *testEnv) enroll(t *testing.T, id, name string, embedding []float32) {
	t.Helper()
	image := env.detector.image("enroll-"+id, embedding)
	if _, err := env.engine.Enroll(context.Background(), attendance.EnrollRequest{ID: id, Name: name, Image: image}); err != nil {
		t.Fatalf("Enroll(%s) error = %v", id, err)
	}
}

// multipartRequest builds a POST request with form fields and an optional image part.
func multipartRequest(t *testing.T, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "capture.jpg")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		part.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decode unmarshals the recorder body into v.
func decode(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", recorder.Body.String(), err)
	}
}
