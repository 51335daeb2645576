// Package index provides vector indexes for course similarity search.
// Two backends: an in-memory brute-force index rebuilt per run, and a
// persistent SQLite index using the sqlite-vec extension.
package index

import (
	"context"
	"fmt"

	"advisor/internal/config"
)

// Hit is a single similarity search result.
type Hit struct {
	CourseID   string
	Similarity float64
	Rank       int
}

// VectorIndex stores course embeddings and answers top-K similarity queries.
type VectorIndex interface {
	// Add inserts or replaces the embedding for a course.
	Add(ctx context.Context, courseID string, embedding []float32) error

	// Search returns the top K most similar courses, descending by
	// cosine similarity.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)

	// Len returns the number of indexed courses.
	Len() int

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases backing resources.
	Close() error
}

// New creates a vector index based on configuration.
func New(cfg config.IndexConfig, dimensions int) (VectorIndex, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryIndex(), nil
	case "sqlite":
		return NewSQLiteIndex(cfg.DatabasePath, dimensions)
	default:
		return nil, fmt.Errorf("unsupported index backend: %s (use 'memory' or 'sqlite')", cfg.Backend)
	}
}
