package facematch

import (
	"math"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestNearest(t *testing.T) {
	identities := []database.Identity{
		{ID: "A", Embedding: []float32{0, 0}},
		{ID: "B", Embedding: []float32{3, 4}},
		{ID: "C", Embedding: []float32{1, 0}},
	}

	tests := []struct {
		name     string
		probe    []float32
		wantID   string
		wantDist float64
	}{
		{"exact match", []float32{3, 4}, "B", 0},
		{"closest", []float32{0.9, 0}, "C", 0.1},
		{"tie resolves to first enrolled", []float32{0.5, 0}, "A", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Nearest(tt.probe, identities, database.MetricEuclidean)
			if !ok {
				t.Fatal("Nearest() returned no candidate")
			}
			if got.Identity.ID != tt.wantID {
				t.Errorf("Nearest() id = %s, want %s", got.Identity.ID, tt.wantID)
			}
			if math.Abs(got.Distance-tt.wantDist) > 1e-6 {
				t.Errorf("Nearest() distance = %f, want %f", got.Distance, tt.wantDist)
			}
		})
	}
}

func TestNearest_EmptyStore(t *testing.T) {
	if _, ok := Nearest([]float32{1, 2}, nil, database.MetricEuclidean); ok {
		t.Error("Nearest() on an empty store should return no candidate")
	}
}

func TestNearest_MismatchedDimensions(t *testing.T) {
	identities := []database.Identity{{ID: "A", Embedding: []float32{1, 2, 3}}}
	got, ok := Nearest([]float32{1, 2}, identities, database.MetricEuclidean)
	if !ok {
		t.Fatal("Nearest() should still return the only candidate")
	}
	if IsMatch(got.Distance, 1000) {
		t.Errorf("mismatched dimensions must never match, distance = %f", got.Distance)
	}
}

func TestIsMatch(t *testing.T) {
	tests := []struct {
		distance  float64
		threshold float64
		want      bool
	}{
		{0.39, 0.4, true},
		{0.4, 0.4, true},
		{0.41, 0.4, false},
		{0, 0, true},
		{math.Inf(1), 0.4, false},
	}

	for _, tt := range tests {
		if got := IsMatch(tt.distance, tt.threshold); got != tt.want {
			t.Errorf("IsMatch(%v, %v) = %v, want %v", tt.distance, tt.threshold, got, tt.want)
		}
	}
}
