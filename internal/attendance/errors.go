package attendance

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
)

var (
	// ErrInvalidInput is returned when a required field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoFaceDetected is returned by enrollment when the image holds no face.
	// Attendance reports the same situation as OutcomeNoFaceDetected instead.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMultipleFaces is returned by enrollment when the image holds more than one face.
	ErrMultipleFaces = errors.New("multiple faces detected")

	// ErrDuplicateID is returned when the identity id is already enrolled.
	ErrDuplicateID = database.ErrDuplicateID

	// ErrDuplicateFace is matched by *DuplicateFaceError.
	ErrDuplicateFace = errors.New("face already enrolled")

	// ErrNotFound is returned when an identity lookup finds nothing.
	ErrNotFound = errors.New("identity not found")

	// ErrPersistence wraps any failure reading or writing durable state.
	ErrPersistence = errors.New("persistence failure")

	// ErrDetection wraps failures of the embedding server and malformed embeddings.
	ErrDetection = errors.New("face detection failed")
)

// DuplicateFaceError reports the enrolled identity a new face collides with.
type DuplicateFaceError struct {
	ExistingID   string
	ExistingName string
	Distance     float64
}

func (e *DuplicateFaceError) Error() string {
	return fmt.Sprintf("%s: matches identity %s (%s) at distance %.4f",
		ErrDuplicateFace, e.ExistingID, e.ExistingName, e.Distance)
}

// Is makes errors.Is(err, ErrDuplicateFace) hold.
func (e *DuplicateFaceError) Is(target error) bool {
	return target == ErrDuplicateFace
}

// Code returns a stable machine-readable code for err, or "" for nil.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNoFaceDetected):
		return "no_face_detected"
	case errors.Is(err, ErrMultipleFaces):
		return "multiple_faces_detected"
	case errors.Is(err, ErrDuplicateID):
		return "duplicate_id"
	case errors.Is(err, ErrDuplicateFace):
		return "duplicate_face"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDetection):
		return "detection_failed"
	case errors.Is(err, ErrPersistence):
		return "persistence_failure"
	default:
		return "internal_error"
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
