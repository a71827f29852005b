package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

func markRequest(t *testing.T, image []byte) *http.Request {
	t.Helper()
	return multipartRequest(t, "/api/v1/attendance", nil, image)
}

func TestAttendanceHandler_Mark_Outcomes(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Jane Doe", []float32{0, 0, 0})
	handler := NewAttendanceHandler(env.engine)

	empty := env.detector.image("empty.jpg")
	stranger := env.detector.image("stranger.jpg", []float32{9, 9, 9})
	jane := env.detector.image("jane.jpg", []float32{0.1, 0, 0})

	tests := []struct {
		name        string
		image       []byte
		wantOutcome attendance.Outcome
		wantRecord  bool
	}{
		{"no face", empty, attendance.OutcomeNoFaceDetected, false},
		{"stranger", stranger, attendance.OutcomeNotRecognized, false},
		{"first mark", jane, attendance.OutcomeMarked, true},
		{"second mark", jane, attendance.OutcomeAlreadyMarked, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Mark(recorder, markRequest(t, tc.image))

			if recorder.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
			}
			var result MarkResponse
			decode(t, recorder, &result)
			if result.Outcome != tc.wantOutcome {
				t.Errorf("expected outcome %s, got %s", tc.wantOutcome, result.Outcome)
			}
			if (result.Record != nil) != tc.wantRecord {
				t.Errorf("expected record present = %v, got %+v", tc.wantRecord, result.Record)
			}
			if result.Record != nil {
				want := RecordResponse{IdentityID: "E001", Name: "Jane Doe", Date: "2024-03-01", Time: "09:15:00"}
				if *result.Record != want {
					t.Errorf("expected record %+v, got %+v", want, *result.Record)
				}
			}
		})
	}

	today, _ := env.backend.LedgerStore.Today(t.Context())
	if len(today) != 1 {
		t.Errorf("expected exactly one ledger entry, got %d", len(today))
	}
}

func TestAttendanceHandler_Mark_ReportsRegionAndDistance(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, "E001", "Jane Doe", []float32{0, 0})
	handler := NewAttendanceHandler(env.engine)
	image := env.detector.image("jane.jpg", []float32{0.3, 0})

	recorder := httptest.NewRecorder()
	handler.Mark(recorder, markRequest(t, image))

	var result MarkResponse
	decode(t, recorder, &result)
	if result.FacesDetected != 1 {
		t.Errorf("expected 1 face detected, got %d", result.FacesDetected)
	}
	if result.Region == nil || result.Region.X2 != 110 {
		t.Errorf("unexpected region %+v", result.Region)
	}
	if result.Distance == nil || *result.Distance < 0.29 || *result.Distance > 0.31 {
		t.Errorf("unexpected distance %v", result.Distance)
	}
	if result.Identity == nil || result.Identity.ID != "E001" {
		t.Errorf("unexpected identity %+v", result.Identity)
	}
}

func TestAttendanceHandler_Mark_Errors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		env := newTestEnv(t)
		recorder := httptest.NewRecorder()
		NewAttendanceHandler(env.engine).Mark(recorder, markRequest(t, nil))
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
		}
	})

	t.Run("persistence failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.enroll(t, "E001", "Jane Doe", []float32{0, 0})
		env.backend.LedgerStore.AppendError = errors.New("disk full")
		image := env.detector.image("jane.jpg", []float32{0, 0})

		recorder := httptest.NewRecorder()
		NewAttendanceHandler(env.engine).Mark(recorder, markRequest(t, image))
		if recorder.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
		}
	})
}

func TestAttendanceHandler_TodayAndHistory(t *testing.T) {
	env := newTestEnv(t)
	env.backend.LedgerStore.Seed([]database.AttendanceRecord{
		{IdentityID: "E001", Name: "Jane Doe", Date: "2024-02-29", Time: "08:00:00"},
		{IdentityID: "E002", Name: "John Smith", Date: "2024-02-29", Time: "08:05:00"},
		{IdentityID: "E001", Name: "Jane Doe", Date: "2024-03-01", Time: "08:01:00"},
	}, []database.AttendanceRecord{
		{IdentityID: "E001", Name: "Jane Doe", Date: "2024-03-01", Time: "08:01:00"},
	})
	handler := NewAttendanceHandler(env.engine)

	recorder := httptest.NewRecorder()
	handler.Today(recorder, httptest.NewRequest("GET", "/api/v1/attendance/today", nil))
	var today []RecordResponse
	decode(t, recorder, &today)
	if len(today) != 1 || today[0].IdentityID != "E001" {
		t.Errorf("unexpected today %+v", today)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?id=E001", 2},
		{"?date=2024-02-29", 2},
		{"?id=E002&date=2024-03-01", 0},
	}
	for _, tc := range tests {
		t.Run("history"+tc.query, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.History(recorder, httptest.NewRequest("GET", "/api/v1/attendance/history"+tc.query, nil))
			if recorder.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
			}
			var records []RecordResponse
			decode(t, recorder, &records)
			if len(records) != tc.want {
				t.Errorf("expected %d records, got %d", tc.want, len(records))
			}
		})
	}

	recorder = httptest.NewRecorder()
	handler.History(recorder, httptest.NewRequest("GET", "/api/v1/attendance/history?date=yesterday", nil))
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for bad date, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestConfigHandler_Get(t *testing.T) {
	env := newTestEnv(t)
	handler := NewConfigHandler(testConfig(), env.engine)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var result ConfigResponse
	decode(t, recorder, &result)
	if result.Backend != "file" || result.Model != "dlib" {
		t.Errorf("unexpected config %+v", result)
	}
	if result.Matching.Metric != database.MetricEuclidean || result.Matching.RecognizeThreshold != 0.4 {
		t.Errorf("unexpected matching settings %+v", result.Matching)
	}
}
