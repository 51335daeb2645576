// Package retrieval turns a student query into ranked course candidates and
// classifies how confident the system should be in them.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"advisor/internal/catalog"
	"advisor/internal/embedding"
	"advisor/internal/index"
	"advisor/internal/logging"
)

// ErrInvalidQuery is returned when the query is empty or whitespace-only.
// It is the only retrieval failure surfaced to callers as an error; all
// other failures degrade to a fallback response upstream.
var ErrInvalidQuery = errors.New("query must be a non-empty string")

// RetrievalError wraps an embedding or index failure with the stage it
// occurred in.
type RetrievalError struct {
	Stage string // "embed" or "search"
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s stage: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Candidate is a retrieved course with its similarity score.
type Candidate struct {
	Course     catalog.Course
	Similarity float64
	Rank       int
}

// Retriever embeds queries and searches the vector index, joining hits back
// to the catalog snapshot it was built with.
type Retriever struct {
	engine embedding.Engine
	idx    index.VectorIndex
	cat    *catalog.Catalog
}

// NewRetriever creates a Retriever over the given engine, index, and catalog
// snapshot.
func NewRetriever(engine embedding.Engine, idx index.VectorIndex, cat *catalog.Catalog) *Retriever {
	return &Retriever{engine: engine, idx: idx, cat: cat}
}

// QueryText returns the text actually embedded for a student query. Framing
// the raw interest text as a retrieval intent improves match quality against
// course descriptions.
func QueryText(query string) string {
	return fmt.Sprintf("Student interests: %s. Looking for relevant courses.", query)
}

// Retrieve returns the top K candidates for the query, descending by
// similarity. The query is trimmed first; a blank query yields
// ErrInvalidQuery.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Candidate, error) {
	timer := logging.StartTimer(logging.CategoryRetrieval, "Retriever.Retrieve")
	defer timer.Stop()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	if topK <= 0 {
		topK = 5
	}

	logging.Retrieval("retrieving top %d candidates for query: %q", topK, query)

	queryVec, err := r.engine.Embed(ctx, QueryText(query))
	if err != nil {
		logging.Get(logging.CategoryRetrieval).Error("query embedding failed: %v", err)
		return nil, &RetrievalError{Stage: "embed", Err: err}
	}

	hits, err := r.idx.Search(ctx, queryVec, topK)
	if err != nil {
		logging.Get(logging.CategoryRetrieval).Error("index search failed: %v", err)
		return nil, &RetrievalError{Stage: "search", Err: err}
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		course, ok := r.cat.Lookup(hit.CourseID)
		if !ok {
			// Stale index entry for a course no longer in the catalog.
			logging.Get(logging.CategoryRetrieval).Warn("index hit %s not in catalog, skipping", hit.CourseID)
			continue
		}
		candidates = append(candidates, Candidate{
			Course:     course,
			Similarity: hit.Similarity,
			Rank:       len(candidates) + 1,
		})
	}

	logging.RetrievalDebug("retrieved %d candidates (of %d hits)", len(candidates), len(hits))
	return candidates, nil
}

// Scores extracts the similarity scores from candidates in rank order.
func Scores(candidates []Candidate) []float64 {
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = c.Similarity
	}
	return scores
}
