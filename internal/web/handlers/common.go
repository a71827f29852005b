package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// Engine is the part of the attendance engine the handlers use.
type Engine interface {
	Enroll(ctx context.Context, req attendance.EnrollRequest) (*database.Identity, error)
	Mark(ctx context.Context, req attendance.MarkRequest) (*attendance.MarkResult, error)
	Identities(ctx context.Context) ([]database.Identity, error)
	Identity(ctx context.Context, id string) (*database.Identity, error)
	FindByName(ctx context.Context, query string) ([]database.Identity, error)
	Similar(ctx context.Context, image []byte, k int) ([]attendance.Neighbour, error)
	Today(ctx context.Context) ([]database.AttendanceRecord, error)
	History(ctx context.Context, filter attendance.HistoryFilter) ([]database.AttendanceRecord, error)
	Settings() attendance.Settings
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	ExistingID string `json:"existing_id,omitempty"`
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusForCode maps engine error codes to HTTP status codes.
var statusForCode = map[string]int{
	"invalid_input":           http.StatusBadRequest,
	"no_face_detected":        http.StatusUnprocessableEntity,
	"multiple_faces_detected": http.StatusUnprocessableEntity,
	"duplicate_id":            http.StatusConflict,
	"duplicate_face":          http.StatusConflict,
	"not_found":               http.StatusNotFound,
	"detection_failed":        http.StatusBadGateway,
	"persistence_failure":     http.StatusInternalServerError,
}

// respondEngineError sends the reply for an error returned by the engine.
// Server-side failures are logged and their details withheld from the client.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	code := attendance.Code(err)
	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	var dup *attendance.DuplicateFaceError
	if errors.As(err, &dup) {
		resp.ExistingID = dup.ExistingID
	}

	if status >= http.StatusInternalServerError {
		logger.Named("web").Error().
			Err(err).
			Str("code", code).
			Str("path", sanitizeForLog(r.URL.Path)).
			Msg("request failed")
		switch code {
		case "detection_failed":
			resp.Error = "face detection service failed"
		default:
			resp.Error = "internal server error"
		}
	}

	respondJSON(w, status, resp)
}

// readImage parses a multipart form and returns the content of the image field.
func readImage(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %s file", field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", field)
	}
	return data, nil
}

// parseThreshold reads an optional non-negative threshold form value. Missing means 0 (engine default).
func parseThreshold(r *http.Request) (float64, error) {
	s := strings.TrimSpace(r.FormValue("threshold"))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid threshold %q", s)
	}
	return v, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
