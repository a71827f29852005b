package attendance

import (
	"context"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Outcome is the result variant of an attendance attempt.
type Outcome string

const (
	OutcomeNoFaceDetected Outcome = "no_face_detected"
	OutcomeNotRecognized  Outcome = "not_recognized"
	OutcomeAlreadyMarked  Outcome = "already_marked"
	OutcomeMarked         Outcome = "marked"
)

// MarkRequest is the input of Mark.
type MarkRequest struct {
	Image []byte
	// Threshold overrides the recognition threshold when non-zero.
	Threshold float64
}

// MarkResult describes how an attendance attempt ended. Identity, Distance and
// Record are set for OutcomeMarked and OutcomeAlreadyMarked; for
// OutcomeAlreadyMarked Record is the earlier record of the day.
type MarkResult struct {
	Outcome       Outcome
	Identity      *database.Identity
	Distance      float64
	Record        *database.AttendanceRecord
	Region        facematch.Region // face used for matching
	FacesDetected int
}

// Mark recognizes the first face in the image and records attendance for it
// once per day. Errors are returned only for invalid input, detection and
// persistence failures; every other ending is an Outcome.
func (e *Engine) Mark(ctx context.Context, req MarkRequest) (*MarkResult, error) {
	result, err := e.mark(ctx, req)
	if err != nil {
		e.log.Error().Str("code", Code(err)).Err(err).Msg("attendance failed")
		return nil, err
	}

	ev := e.log.Info().Str("outcome", string(result.Outcome)).Int("faces", result.FacesDetected)
	if result.Identity != nil {
		ev = ev.Str("id", result.Identity.ID).Float64("distance", result.Distance)
	}
	ev.Msg("attendance processed")
	return result, nil
}

func (e *Engine) mark(ctx context.Context, req MarkRequest) (*MarkResult, error) {
	if len(req.Image) == 0 {
		return nil, invalidInput("image is required")
	}
	threshold, err := resolveThreshold(req.Threshold, e.opts.RecognizeThreshold)
	if err != nil {
		return nil, err
	}

	detections, err := e.detect(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	result := &MarkResult{FacesDetected: len(detections)}
	if len(detections) == 0 {
		result.Outcome = OutcomeNoFaceDetected
		return result, nil
	}

	// Extra faces are ignored; only the first detected face is matched.
	probe := detections[0]
	result.Region = probe.Region

	candidate, found, err := e.nearest(ctx, probe.Embedding)
	if err != nil {
		return nil, err
	}
	if !found || !facematch.IsMatch(candidate.Distance, threshold) {
		result.Outcome = OutcomeNotRecognized
		return result, nil
	}

	record, already, err := e.ledger.Mark(ctx, candidate.Identity)
	if err != nil {
		return nil, err
	}

	result.Identity = &candidate.Identity
	result.Distance = candidate.Distance
	result.Record = &record
	result.Outcome = OutcomeMarked
	if already {
		result.Outcome = OutcomeAlreadyMarked
	}
	return result, nil
}
