package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// EnrollRequest is the input of Enroll.
type EnrollRequest struct {
	Name  string
	ID    string
	Image []byte
	// Threshold overrides the enrollment duplicate-face threshold when non-zero.
	Threshold float64
}

// Enroll registers a new identity from an image holding exactly one face.
// On any error the identity store is unchanged.
func (e *Engine) Enroll(ctx context.Context, req EnrollRequest) (*database.Identity, error) {
	identity, err := e.enroll(ctx, req)
	if err != nil {
		e.log.Warn().
			Str("id", strings.TrimSpace(req.ID)).
			Str("code", Code(err)).
			Err(err).
			Msg("enrollment rejected")
		return nil, err
	}

	e.log.Info().
		Str("id", identity.ID).
		Str("name", identity.Name).
		Int("dim", len(identity.Embedding)).
		Msg("identity enrolled")
	return identity, nil
}

func (e *Engine) enroll(ctx context.Context, req EnrollRequest) (*database.Identity, error) {
	name := strings.TrimSpace(req.Name)
	id := strings.TrimSpace(req.ID)
	if name == "" || id == "" {
		return nil, invalidInput("name and id are required")
	}
	if len(req.Image) == 0 {
		return nil, invalidInput("image is required")
	}
	threshold, err := resolveThreshold(req.Threshold, e.opts.EnrollThreshold)
	if err != nil {
		return nil, err
	}

	detections, err := e.detect(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	switch {
	case len(detections) == 0:
		return nil, ErrNoFaceDetected
	case len(detections) > 1:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleFaces, len(detections))
	}
	embedding := detections[0].Embedding

	e.enrollMu.Lock()
	defer e.enrollMu.Unlock()

	exists, err := e.identities.ContainsID(ctx, id)
	if err != nil {
		return nil, persistenceError("check identity id", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	candidate, found, err := e.nearest(ctx, embedding)
	if err != nil {
		return nil, err
	}
	if found && facematch.IsMatch(candidate.Distance, threshold) {
		return nil, &DuplicateFaceError{
			ExistingID:   candidate.Identity.ID,
			ExistingName: candidate.Identity.Name,
			Distance:     candidate.Distance,
		}
	}

	identity := database.Identity{
		ID:         id,
		Name:       name,
		Embedding:  embedding,
		EnrolledAt: e.opts.Clock.Now(),
	}
	if err := e.identities.Insert(ctx, identity); err != nil {
		if errors.Is(err, database.ErrDuplicateID) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		return nil, persistenceError("insert identity", err)
	}

	e.indexMu.Lock()
	e.index.Add(identity)
	e.indexMu.Unlock()

	return &identity, nil
}
