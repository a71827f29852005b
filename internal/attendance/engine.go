// Package attendance implements identity enrollment and attendance marking
// on top of a face detector and a storage backend.
package attendance

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/logger"
)

// Detector finds faces in an image and returns one embedding per face, in
// detection order. An image without faces yields an empty slice.
type Detector interface {
	DetectFaces(ctx context.Context, image []byte) ([]facematch.Detection, error)
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Metric             database.Metric
	Dim                int     // expected embedding length, 0 accepts any
	EnrollThreshold    float64 // duplicate-face threshold for enrollment
	RecognizeThreshold float64 // recognition threshold for attendance
	Clock              Clock
	Logger             *logger.Logger
}

// OptionsFromConfig builds engine options from the matching section of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	metric, err := database.ParseMetric(cfg.Matching.Metric)
	if err != nil {
		return Options{}, err
	}
	clock, err := NewSystemClock(cfg.Matching.Timezone)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Metric:             metric,
		Dim:                cfg.Embedding.Dim,
		EnrollThreshold:    cfg.Matching.EnrollThreshold,
		RecognizeThreshold: cfg.Matching.RecognizeThreshold,
		Clock:              clock,
	}, nil
}

// Settings is the effective matching configuration of an engine.
type Settings struct {
	Metric             database.Metric `json:"metric"`
	Dim                int             `json:"dim"`
	EnrollThreshold    float64         `json:"enroll_threshold"`
	RecognizeThreshold float64         `json:"recognize_threshold"`
	Timezone           string          `json:"timezone"`
}

// Engine runs the enrollment and attendance workflows.
type Engine struct {
	detector   Detector
	identities database.IdentityStore
	ledger     *Ledger
	opts       Options
	log        *logger.Logger

	// enrollMu serializes the id check, the duplicate-face check and the insert.
	enrollMu sync.Mutex

	indexMu sync.Mutex
	index   *database.IdentityIndex
}

// NewEngine creates an engine over the stores of backend.
func NewEngine(detector Detector, backend database.Backend, opts Options) *Engine {
	if opts.Metric == "" {
		opts.Metric = database.MetricEuclidean
	}
	if opts.EnrollThreshold <= 0 {
		opts.EnrollThreshold = constants.DefaultDistanceThreshold
	}
	if opts.RecognizeThreshold <= 0 {
		opts.RecognizeThreshold = constants.DefaultDistanceThreshold
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("attendance")
	}

	return &Engine{
		detector:   detector,
		identities: backend.Identities(),
		ledger:     NewLedger(backend.Ledger(), opts.Clock),
		opts:       opts,
		log:        opts.Logger,
		index:      database.NewIdentityIndex(opts.Metric),
	}
}

// Settings returns the effective matching configuration.
func (e *Engine) Settings() Settings {
	tz := "Local"
	if c, ok := e.opts.Clock.(SystemClock); ok && c.Location != nil {
		tz = c.Location.String()
	}
	return Settings{
		Metric:             e.opts.Metric,
		Dim:                e.opts.Dim,
		EnrollThreshold:    e.opts.EnrollThreshold,
		RecognizeThreshold: e.opts.RecognizeThreshold,
		Timezone:           tz,
	}
}

// resolveThreshold returns override, or fallback when override is zero.
func resolveThreshold(override, fallback float64) (float64, error) {
	if override < 0 {
		return 0, invalidInput("threshold must not be negative, got %v", override)
	}
	if override == 0 {
		return fallback, nil
	}
	return override, nil
}

// detect runs the detector and validates the embeddings it returns.
func (e *Engine) detect(ctx context.Context, image []byte) ([]facematch.Detection, error) {
	detections, err := e.detector.DetectFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetection, err)
	}
	for i, d := range detections {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: face %d has an empty embedding", ErrDetection, i)
		}
		if e.opts.Dim > 0 && len(d.Embedding) != e.opts.Dim {
			return nil, fmt.Errorf("%w: face %d has %d dimensions, expected %d",
				ErrDetection, i, len(d.Embedding), e.opts.Dim)
		}
	}
	return detections, nil
}

// nearest finds the enrolled identity closest to probe, natively when the
// store supports it.
func (e *Engine) nearest(ctx context.Context, probe []float32) (facematch.Candidate, bool, error) {
	if finder, ok := e.identities.(database.NearestFinder); ok {
		identity, distance, err := finder.FindNearest(ctx, probe, e.opts.Metric)
		if err != nil {
			return facematch.Candidate{}, false, persistenceError("find nearest identity", err)
		}
		if identity == nil {
			return facematch.Candidate{}, false, nil
		}
		return facematch.Candidate{Identity: *identity, Distance: distance}, true, nil
	}

	identities, err := e.identities.List(ctx)
	if err != nil {
		return facematch.Candidate{}, false, persistenceError("list identities", err)
	}
	candidate, ok := facematch.Nearest(probe, identities, e.opts.Metric)
	return candidate, ok, nil
}
