package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"advisor/internal/catalog"
	"advisor/internal/index"
)

// stubEngine returns fixed vectors keyed by substring match, so tests can
// steer similarity without a real embedding service.
type stubEngine struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEngine) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	for key, vec := range s.vectors {
		if key != "" && strings.Contains(text, key) {
			return vec, nil
		}
	}
	return []float32{0, 0, 1}, nil
}

func (s *stubEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEngine) Dimensions() int { return 3 }
func (s *stubEngine) Name() string    { return "stub" }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Course{
		{ID: "CS101", Title: "Intro to CS", Description: "fundamentals", Credits: 3, Difficulty: 2, Category: "Core Requirements"},
		{ID: "CS301", Title: "Machine Learning", Description: "ML and neural networks", Credits: 3, Difficulty: 4, Category: "Major Electives"},
	})
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

func TestRetrieveRejectsBlankQuery(t *testing.T) {
	cat := testCatalog(t)
	r := NewRetriever(&stubEngine{}, index.NewMemoryIndex(), cat)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := r.Retrieve(context.Background(), q, 5)
		if !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Retrieve(%q) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestRetrieveOrdersBySimilarity(t *testing.T) {
	cat := testCatalog(t)
	idx := index.NewMemoryIndex()
	ctx := context.Background()

	// CS301 aligned with the query axis, CS101 nearly orthogonal.
	if err := idx.Add(ctx, "CS301", []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(ctx, "CS101", []float32{0.1, 1, 0}); err != nil {
		t.Fatal(err)
	}

	engine := &stubEngine{vectors: map[string][]float32{
		"machine learning": {1, 0, 0},
	}}
	r := NewRetriever(engine, idx, cat)

	candidates, err := r.Retrieve(ctx, "I want to learn machine learning", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].Course.ID != "CS301" {
		t.Errorf("first candidate = %s, want CS301", candidates[0].Course.ID)
	}
	if candidates[0].Similarity < candidates[1].Similarity {
		t.Errorf("candidates not in descending similarity order: %v then %v",
			candidates[0].Similarity, candidates[1].Similarity)
	}
	for i, c := range candidates {
		if c.Rank != i+1 {
			t.Errorf("candidate %d has rank %d", i, c.Rank)
		}
	}
}

func TestRetrieveWrapsEmbedFailure(t *testing.T) {
	cat := testCatalog(t)
	engine := &stubEngine{err: fmt.Errorf("connection refused")}
	r := NewRetriever(engine, index.NewMemoryIndex(), cat)

	_, err := r.Retrieve(context.Background(), "databases", 5)
	if err == nil {
		t.Fatal("expected error")
	}

	var retErr *RetrievalError
	if !errors.As(err, &retErr) {
		t.Fatalf("error %T, want *RetrievalError", err)
	}
	if retErr.Stage != "embed" {
		t.Errorf("stage = %s, want embed", retErr.Stage)
	}
}

func TestRetrieveSkipsStaleIndexEntries(t *testing.T) {
	cat := testCatalog(t)
	idx := index.NewMemoryIndex()
	ctx := context.Background()

	if err := idx.Add(ctx, "CS301", []float32{1, 0, 0}); err != nil {
		t.Fatal(err)
	}
	// Indexed under a previous catalog, since removed.
	if err := idx.Add(ctx, "CS999", []float32{0.9, 0.1, 0}); err != nil {
		t.Fatal(err)
	}

	engine := &stubEngine{vectors: map[string][]float32{"learn": {1, 0, 0}}}
	r := NewRetriever(engine, idx, cat)

	candidates, err := r.Retrieve(ctx, "learn something", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, c := range candidates {
		if c.Course.ID == "CS999" {
			t.Error("stale index entry CS999 surfaced as a candidate")
		}
	}
}

func TestQueryText(t *testing.T) {
	got := QueryText("psychology and AI")
	want := "Student interests: psychology and AI. Looking for relevant courses."
	if got != want {
		t.Errorf("QueryText = %q, want %q", got, want)
	}
}
