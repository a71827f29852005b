// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Attendance ledger formats
const (
	// DateLayout is the calendar date format stored in the ledger (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// TimeLayout is the time-of-day format stored in the ledger
	TimeLayout = "15:04:05"
)

// Face matching constants
const (
	// DefaultDistanceThreshold is the default maximum embedding distance for two
	// faces to be considered the same person. Lower values = stricter matching
	DefaultDistanceThreshold = 0.4

	// DefaultNeighbours is the default number of neighbours returned by similarity inspection
	DefaultNeighbours = 5

	// MaxNeighbours caps the neighbour count accepted from callers
	MaxNeighbours = 100
)

// Processing constants
const (
	// WorkerPoolSize is the default number of parallel workers for bulk enrollment
	WorkerPoolSize = 4

	// MaxImageSize is the default maximum dimension (width or height) sent to the embedding server
	MaxImageSize = 1600

	// ResizeJPEGQuality is the JPEG quality used when a downscaled image is re-encoded
	ResizeJPEGQuality = 92
)

// Upload constants
const (
	// MaxUploadSize is the maximum accepted multipart body for enrollment and attendance captures
	MaxUploadSize = 20 << 20
)
