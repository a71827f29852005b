package facematch

import (
	"math"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Nearest returns the identity closest to probe under metric. Identities are
// scanned in order and only a strictly smaller distance replaces the current
// best, so the earliest enrolled identity wins ties. The boolean is false when
// there is nothing to compare against.
func Nearest(probe []float32, identities []database.Identity, metric database.Metric) (Candidate, bool) {
	best := -1
	bestDistance := math.Inf(1)
	for i := range identities {
		d := metric.Distance(probe, identities[i].Embedding)
		if best < 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return Candidate{Identity: identities[best], Distance: bestDistance}, true
}

// IsMatch reports whether distance is within threshold (inclusive).
func IsMatch(distance, threshold float64) bool {
	return distance <= threshold
}
