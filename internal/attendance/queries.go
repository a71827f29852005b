package attendance

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Identities returns all enrolled identities in enrollment order.
func (e *Engine) Identities(ctx context.Context) ([]database.Identity, error) {
	identities, err := e.identities.List(ctx)
	if err != nil {
		return nil, persistenceError("list identities", err)
	}
	return identities, nil
}

// Identity returns the identity with the given id or ErrNotFound.
func (e *Engine) Identity(ctx context.Context, id string) (*database.Identity, error) {
	identity, err := e.identities.Get(ctx, id)
	if err != nil {
		return nil, persistenceError("get identity", err)
	}
	if identity == nil {
		return nil, ErrNotFound
	}
	return identity, nil
}

// FindByName returns identities whose name contains query, ignoring case and diacritics.
func (e *Engine) FindByName(ctx context.Context, query string) ([]database.Identity, error) {
	identities, err := e.Identities(ctx)
	if err != nil {
		return nil, err
	}
	var matches []database.Identity
	for _, identity := range identities {
		if facematch.NameMatches(identity.Name, query) {
			matches = append(matches, identity)
		}
	}
	return matches, nil
}

// Neighbour is an enrolled identity near a probe face.
type Neighbour struct {
	Identity database.Identity
	Distance float64
	// WithinEnroll reports whether enrolling the probe would be rejected as a duplicate of Identity.
	WithinEnroll bool
	// WithinRecognize reports whether the probe would be recognized as Identity.
	WithinRecognize bool
}

// Similar returns up to k enrolled identities closest to the first face in
// image, nearest first. It is meant for inspecting and tuning thresholds and
// never changes any state.
func (e *Engine) Similar(ctx context.Context, image []byte, k int) ([]Neighbour, error) {
	if len(image) == 0 {
		return nil, invalidInput("image is required")
	}
	if k <= 0 {
		k = constants.DefaultNeighbours
	}
	k = min(k, constants.MaxNeighbours)

	detections, err := e.detect(ctx, image)
	if err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, ErrNoFaceDetected
	}

	identities, distances, err := e.searchIndex(ctx, detections[0].Embedding, k)
	if err != nil {
		return nil, err
	}

	neighbours := make([]Neighbour, len(identities))
	for i := range identities {
		neighbours[i] = Neighbour{
			Identity:        identities[i],
			Distance:        distances[i],
			WithinEnroll:    facematch.IsMatch(distances[i], e.opts.EnrollThreshold),
			WithinRecognize: facematch.IsMatch(distances[i], e.opts.RecognizeThreshold),
		}
	}
	return neighbours, nil
}

// searchIndex queries the HNSW index, rebuilding it first when its size
// differs from the store (for example after another process enrolled).
func (e *Engine) searchIndex(ctx context.Context, probe []float32, k int) ([]database.Identity, []float64, error) {
	count, err := e.identities.Count(ctx)
	if err != nil {
		return nil, nil, persistenceError("count identities", err)
	}

	e.indexMu.Lock()
	defer e.indexMu.Unlock()

	if e.index.Count() != count {
		identities, err := e.identities.List(ctx)
		if err != nil {
			return nil, nil, persistenceError("list identities", err)
		}
		e.index.Build(identities)
	}

	identities, distances, err := e.index.Search(probe, k)
	if errors.Is(err, database.ErrIndexEmpty) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return identities, distances, nil
}

// Today returns today's attendance, resetting a daily view left from an earlier day.
func (e *Engine) Today(ctx context.Context) ([]database.AttendanceRecord, error) {
	return e.ledger.Today(ctx)
}

// HistoryFilter narrows History. Empty fields match everything.
type HistoryFilter struct {
	IdentityID string
	Date       string // YYYY-MM-DD
}

// History returns the full attendance history matching filter, oldest first.
func (e *Engine) History(ctx context.Context, filter HistoryFilter) ([]database.AttendanceRecord, error) {
	records, err := e.ledger.History(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IdentityID == "" && filter.Date == "" {
		return records, nil
	}

	filtered := records[:0:0]
	for _, r := range records {
		if filter.IdentityID != "" && r.IdentityID != filter.IdentityID {
			continue
		}
		if filter.Date != "" && r.Date != filter.Date {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}
