package database

import (
	"errors"
	"fmt"
	"testing"
)

func testIdentities(n int) []Identity {
	identities := make([]Identity, n)
	for i := range n {
		identities[i] = Identity{
			ID:        fmt.Sprintf("id-%02d", i),
			Name:      fmt.Sprintf("Person %d", i),
			Embedding: []float32{float32(i), float32(i) * 0.5, 1},
		}
	}
	return identities
}

func TestIdentityIndex_SearchEmpty(t *testing.T) {
	idx := NewIdentityIndex(MetricEuclidean)

	_, _, err := idx.Search([]float32{1, 2, 3}, 3)
	if !errors.Is(err, ErrIndexEmpty) {
		t.Errorf("expected ErrIndexEmpty, got %v", err)
	}
}

func TestIdentityIndex_BuildAndSearch(t *testing.T) {
	idx := NewIdentityIndex(MetricEuclidean)
	idx.Build(testIdentities(20))

	if idx.Count() != 20 {
		t.Fatalf("expected 20 indexed identities, got %d", idx.Count())
	}

	identities, distances, err := idx.Search([]float32{5, 2.5, 1}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(identities) == 0 {
		t.Fatal("expected at least one neighbour")
	}
	if identities[0].ID != "id-05" {
		t.Errorf("expected closest identity id-05, got %s", identities[0].ID)
	}
	if distances[0] != 0 {
		t.Errorf("expected exact match distance 0, got %v", distances[0])
	}
	for i := 1; i < len(distances); i++ {
		if distances[i] < distances[i-1] {
			t.Errorf("distances not sorted: %v", distances)
		}
	}
}

func TestIdentityIndex_AddSkipsMismatchedDimension(t *testing.T) {
	idx := NewIdentityIndex(MetricCosine)
	idx.Add(Identity{ID: "a", Embedding: []float32{1, 0, 0}})
	idx.Add(Identity{ID: "b", Embedding: []float32{1, 0}})
	idx.Add(Identity{ID: "c"})
	idx.Add(Identity{ID: "a", Embedding: []float32{0, 1, 0}})

	if idx.Count() != 1 {
		t.Errorf("expected 1 indexed identity, got %d", idx.Count())
	}

	identities, _, err := idx.Search([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(identities) != 0 {
		t.Errorf("expected no results for mismatched query dimension, got %d", len(identities))
	}
}
