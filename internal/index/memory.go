package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"advisor/internal/embedding"
	"advisor/internal/logging"
)

// MemoryIndex is a brute-force in-memory vector index. Vectors are
// normalized on insert so search reduces to an inner product; results are
// exact, not approximate. Suitable for catalogs up to a few thousand
// courses.
type MemoryIndex struct {
	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	pos     map[string]int
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{pos: make(map[string]int)}
}

// Add inserts or replaces the embedding for a course.
func (m *MemoryIndex) Add(_ context.Context, courseID string, vec []float32) error {
	if courseID == "" {
		return fmt.Errorf("course ID required")
	}
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding for course %s", courseID)
	}

	normalized := embedding.Normalize(vec)

	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.pos[courseID]; ok {
		m.vectors[i] = normalized
		return nil
	}

	m.pos[courseID] = len(m.ids)
	m.ids = append(m.ids, courseID)
	m.vectors = append(m.vectors, normalized)
	return nil
}

// Search returns the top K most similar courses by cosine similarity.
func (m *MemoryIndex) Search(_ context.Context, query []float32, k int) ([]Hit, error) {
	timer := logging.StartTimer(logging.CategoryIndex, "MemoryIndex.Search")
	defer timer.Stop()

	if k <= 0 {
		k = 5
	}

	normalized := embedding.Normalize(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]Hit, 0, len(m.ids))
	for i, vec := range m.vectors {
		if len(vec) != len(normalized) {
			return nil, fmt.Errorf("dimension mismatch: query %d vs indexed %d", len(normalized), len(vec))
		}

		// Both sides are unit vectors, so the inner product is the
		// cosine similarity.
		var dot float64
		for j := range vec {
			dot += float64(vec[j]) * float64(normalized[j])
		}

		hits = append(hits, Hit{CourseID: m.ids[i], Similarity: dot})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })

	if len(hits) > k {
		hits = hits[:k]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}

	logging.IndexDebug("MemoryIndex.Search: returning %d hits from %d vectors", len(hits), len(m.ids))
	return hits, nil
}

// Len returns the number of indexed courses.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Clear removes all entries.
func (m *MemoryIndex) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = nil
	m.vectors = nil
	m.pos = make(map[string]int)
	return nil
}

// Close is a no-op for the in-memory index.
func (m *MemoryIndex) Close() error {
	return nil
}
