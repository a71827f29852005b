package database

import (
	"errors"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// ErrIndexEmpty is returned when searching an index with no identities.
var ErrIndexEmpty = errors.New("index not initialized")

// IdentityIndex wraps an HNSW graph over identity embeddings for neighbour inspection.
// It is approximate; match decisions use the exact scan in facematch.
type IdentityIndex struct {
	graph    *hnsw.Graph[string]
	idToItem map[string]Identity // Maps HNSW node key to identity
	metric   Metric
	dim      int // dimension of the first indexed embedding
	mu       sync.RWMutex
}

// NewIdentityIndex creates a new empty index for the given metric.
func NewIdentityIndex(metric Metric) *IdentityIndex {
	return &IdentityIndex{
		idToItem: make(map[string]Identity),
		metric:   metric,
	}
}

func (x *IdentityIndex) newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = HNSWMaxNeighbors
	g.Ml = 1.0 / float64(HNSWMaxNeighbors) // Standard HNSW formula
	g.EfSearch = HNSWEfSearch
	if x.metric == MetricCosine {
		g.Distance = hnsw.CosineDistance
	} else {
		g.Distance = hnsw.EuclideanDistance
	}
	return g
}

// Build replaces the index content with the given identities.
func (x *IdentityIndex) Build(identities []Identity) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.graph = nil
	x.dim = 0
	x.idToItem = make(map[string]Identity, len(identities))
	for i := range identities {
		x.addLocked(identities[i])
	}
}

// Add inserts a single identity. Embeddings whose dimension differs from the
// first indexed one are skipped.
func (x *IdentityIndex) Add(identity Identity) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.addLocked(identity)
}

func (x *IdentityIndex) addLocked(identity Identity) {
	if len(identity.Embedding) == 0 {
		return
	}
	if x.dim == 0 {
		x.dim = len(identity.Embedding)
	}
	if len(identity.Embedding) != x.dim {
		return
	}
	if _, exists := x.idToItem[identity.ID]; exists {
		return
	}
	if x.graph == nil {
		x.graph = x.newGraph()
	}

	x.graph.Add(hnsw.MakeNode(identity.ID, identity.Embedding))
	x.idToItem[identity.ID] = identity
}

// Search returns up to k identities closest to query, ordered by exact distance.
func (x *IdentityIndex) Search(query []float32, k int) ([]Identity, []float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil || x.graph.Len() == 0 {
		return nil, nil, ErrIndexEmpty
	}
	if k <= 0 || len(query) != x.dim {
		return nil, nil, nil
	}

	searchK := min(max(k*HNSWSearchMultiplier, k), len(x.idToItem))
	nodes := x.graph.Search(query, searchK)

	type scored struct {
		identity Identity
		distance float64
	}
	candidates := make([]scored, 0, len(nodes))
	for _, n := range nodes {
		identity, ok := x.idToItem[n.Key]
		if !ok {
			continue
		}
		candidates = append(candidates, scored{identity: identity, distance: x.metric.Distance(query, n.Value)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	identities := make([]Identity, len(candidates))
	distances := make([]float64, len(candidates))
	for i, c := range candidates {
		identities[i] = c.identity
		distances[i] = c.distance
	}
	return identities, distances, nil
}

// Count returns the number of indexed identities.
func (x *IdentityIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.idToItem)
}
