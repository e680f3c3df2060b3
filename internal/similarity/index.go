package similarity

import (
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/aliyuchatgptt/falgates/internal/staff"
)

const maxNeighbors = 16

// DuplicateDistance is the cosine-distance ceiling below which two staff
// vectors are flagged as a likely duplicate enrollment.
const DuplicateDistance = 0.1

// Neighbor is one nearest-neighbor result.
type Neighbor struct {
	StaffID  string
	Distance float64
}

// Index is an in-memory HNSW graph over staff feature vectors, keyed by
// staff id.
type Index struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[string]
	active map[string]bool // HNSW has no true deletion; removed ids are filtered out
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{active: make(map[string]bool)}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with the given staff records. Records
// without a feature vector are skipped.
func (ix *Index) Build(records []staff.StaffRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	g := newGraph()
	ix.active = make(map[string]bool, len(records))
	for i := range records {
		rec := &records[i]
		if len(rec.FeatureVector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(rec.ID, rec.FeatureVector))
		ix.active[rec.ID] = true
	}
	ix.graph = g
}

// Add inserts or replaces one staff vector.
func (ix *Index) Add(id string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.graph == nil {
		ix.graph = newGraph()
	}
	ix.graph.Add(hnsw.MakeNode(id, vec))
	ix.active[id] = true
}

// Remove drops a staff id from search results.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.active, id)
}

// Len returns the number of searchable entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.active)
}

// Nearest returns up to k active neighbors of the query vector, closest
// first.
func (ix *Index) Nearest(query []float32, k int) []Neighbor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil || len(ix.active) == 0 || len(query) == 0 || k <= 0 {
		return nil
	}

	// Over-fetch to compensate for tombstoned entries still in the graph.
	nodes := ix.graph.Search(query, k+len(ix.active))
	var out []Neighbor
	for _, n := range nodes {
		if !ix.active[n.Key] {
			continue
		}
		out = append(out, Neighbor{
			StaffID:  n.Key,
			Distance: CosineDistance(query, n.Value),
		})
		if len(out) == k {
			break
		}
	}
	return out
}

// CosineDistance computes 1 - cosine similarity, clamped to [0, 2].
// Mismatched or zero vectors score the maximum distance.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2.0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return 1 - sim
}
