// Package facematch holds the face matching primitives shared by the
// attendance engine, the CLI and the web handlers.
package facematch

import "github.com/kozaktomas/face-attendance/internal/database"

// Detection is one face found by the embedding server.
type Detection struct {
	Embedding []float32
	Region    Region
	Score     float64 // detector confidence, 0 when the server does not report it
}

// Candidate is the closest enrolled identity to a probe embedding.
type Candidate struct {
	Identity database.Identity
	Distance float64
}
