// Package pipeline wires retrieval, prompting, the LLM gateway, and output
// validation into the guarded query-processing flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"advisor/internal/catalog"
	"advisor/internal/config"
	"advisor/internal/embedding"
	"advisor/internal/gateway"
	"advisor/internal/guardrails"
	"advisor/internal/index"
	"advisor/internal/logging"
	"advisor/internal/prompt"
	"advisor/internal/retrieval"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// indexWorkers bounds concurrent embedding calls during catalog indexing.
const indexWorkers = 4

// Options tunes a single query. Zero values fall back to the configured
// defaults.
type Options struct {
	TopK                int
	ConfidenceThreshold float64
}

// Pipeline processes student queries end to end. The catalog snapshot is
// swapped atomically on reload; in-flight queries keep the snapshot they
// started with, and all other per-query state is local to ProcessQuery.
type Pipeline struct {
	cat        atomic.Pointer[catalog.Catalog]
	engine     embedding.Engine
	idx        index.VectorIndex
	llm        gateway.LLMClient
	classifier *retrieval.Classifier
	composer   *prompt.Composer
	guardrails config.GuardrailsConfig
}

// New creates a Pipeline over the given collaborators and initial catalog
// snapshot.
func New(cat *catalog.Catalog, engine embedding.Engine, idx index.VectorIndex, llm gateway.LLMClient, cfg config.GuardrailsConfig) *Pipeline {
	p := &Pipeline{
		engine:     engine,
		idx:        idx,
		llm:        llm,
		classifier: retrieval.NewClassifier(cfg.SimilarityThreshold),
		composer:   prompt.NewComposer(),
		guardrails: cfg,
	}
	p.cat.Store(cat)

	logging.Pipeline("pipeline initialized: %d courses, engine=%s, llm=%s",
		cat.Len(), engine.Name(), llm.Name())
	return p
}

// Catalog returns the current catalog snapshot.
func (p *Pipeline) Catalog() *catalog.Catalog {
	return p.cat.Load()
}

// ReloadCatalog atomically swaps in a new catalog snapshot. Queries already
// in flight continue against the snapshot they started with.
func (p *Pipeline) ReloadCatalog(cat *catalog.Catalog) {
	p.cat.Store(cat)
	logging.Pipeline("catalog snapshot swapped: %d courses", cat.Len())
}

// IndexCatalog embeds every course in the current snapshot and fills the
// vector index. Embedding runs with bounded concurrency.
func (p *Pipeline) IndexCatalog(ctx context.Context) error {
	timer := logging.StartTimer(logging.CategoryPipeline, "Pipeline.IndexCatalog")
	defer timer.Stop()

	// Probe the embedding backend first so a dead server fails the whole
	// run immediately instead of per course.
	if hc, ok := p.engine.(embedding.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			logging.PipelineError("embedding engine unhealthy, aborting indexing: %v", err)
			return fmt.Errorf("embedding engine health check failed: %w", err)
		}
	}

	cat := p.cat.Load()
	courses := cat.Courses()
	logging.Pipeline("indexing %d courses", len(courses))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(indexWorkers)

	for _, course := range courses {
		g.Go(func() error {
			vec, err := p.engine.Embed(ctx, course.EmbeddingText())
			if err != nil {
				return fmt.Errorf("failed to embed course %s: %w", course.ID, err)
			}
			if err := p.idx.Add(ctx, course.ID, vec); err != nil {
				return fmt.Errorf("failed to index course %s: %w", course.ID, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logging.PipelineError("catalog indexing failed: %v", err)
		return err
	}

	logging.Pipeline("catalog indexed: %d entries", p.idx.Len())
	return nil
}

// ProcessQuery runs a query through the guarded pipeline. Only an invalid
// (blank) query is returned as an error; every other failure mode produces
// a well-formed fallback response.
func (p *Pipeline) ProcessQuery(ctx context.Context, query string, opts Options) (guardrails.ValidatedResponse, error) {
	timer := logging.StartTimer(logging.CategoryPipeline, "Pipeline.ProcessQuery")
	defer timer.Stop()

	topK := opts.TopK
	if topK <= 0 {
		topK = p.guardrails.TopK
	}
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = p.guardrails.ConfidenceThreshold
	}

	requestID := uuid.NewString()
	log := logging.WithRequestID(logging.CategoryPipeline, requestID)
	log.Info("processing query: %q (top_k=%d, threshold=%.2f)", query, topK, threshold)

	// One snapshot for the whole query.
	cat := p.cat.Load()
	courseValidator := guardrails.NewCourseValidator(cat)
	validator := guardrails.NewValidator(courseValidator, threshold, p.guardrails.MaxRecommendations)
	fallback := guardrails.NewFallbackSynthesizer()

	// Retrieve
	retriever := retrieval.NewRetriever(p.engine, p.idx, cat)
	candidates, err := retriever.Retrieve(ctx, query, topK)
	if err != nil {
		if errors.Is(err, retrieval.ErrInvalidQuery) {
			return guardrails.ValidatedResponse{}, err
		}
		log.Warn("retrieval failed, falling back: %v", err)
		resp := fallback.Synthesize(query, fmt.Sprintf("retrieval failure: %v", err))
		p.annotate(&resp, requestID, retrieval.ConfidenceFallback, nil)
		return resp, nil
	}

	// Classify
	scores := retrieval.Scores(candidates)
	tier := p.classifier.Classify(scores)
	log.Info("retrieved %d candidates, confidence=%s", len(candidates), tier)

	// Compose and complete
	contextBlock := prompt.BuildContext(candidates)
	userPrompt := p.composer.Compose(query, contextBlock, tier, cat.ValidIDs())

	raw, err := p.llm.CompleteWithSystem(ctx, prompt.SystemPrompt, userPrompt)
	if err != nil {
		log.Warn("LLM completion failed, falling back: %v", err)
		resp := fallback.Synthesize(query, fmt.Sprintf("LLM gateway failure: %v", err))
		p.annotate(&resp, requestID, tier, scores)
		return resp, nil
	}

	// Parse and validate
	parser := guardrails.NewParser(cat)
	parsed := parser.Parse(raw)
	resp := validator.Validate(parsed, query)
	p.annotate(&resp, requestID, tier, scores)

	log.Info("query complete: %d recommendations, fallback=%v, validation_passed=%v",
		len(resp.Recommendations), resp.FallbackTriggered, resp.ValidationPassed)
	return resp, nil
}

// annotate records per-query metadata on the response: request ID,
// confidence tier, and the reasoning trace.
func (p *Pipeline) annotate(resp *guardrails.ValidatedResponse, requestID string, tier retrieval.ConfidenceLevel, scores []float64) {
	if resp.Metadata == nil {
		resp.Metadata = make(map[string]string)
	}
	resp.Metadata["request_id"] = requestID
	resp.Metadata["confidence_level"] = string(tier)
	resp.Metadata["reasoning"] = reasoningTrace(resp.Query, tier, scores)
}

// reasoningTrace summarizes how the response was produced, for transparency
// in the caller-facing metadata.
func reasoningTrace(query string, tier retrieval.ConfidenceLevel, scores []float64) string {
	trace := fmt.Sprintf("Query Analysis: Processed student interest in '%s'", query)
	trace += fmt.Sprintf(" | Vector Search: Found %d relevant courses", len(scores))

	if len(scores) > 0 {
		minScore, maxScore := scores[0], scores[0]
		var sum float64
		for _, s := range scores {
			if s < minScore {
				minScore = s
			}
			if s > maxScore {
				maxScore = s
			}
			sum += s
		}
		trace += fmt.Sprintf(" | Similarity Range: %.3f - %.3f", minScore, maxScore)
		trace += fmt.Sprintf(" | Average Similarity: %.3f", sum/float64(len(scores)))
	}

	trace += fmt.Sprintf(" | Confidence Level: %s (%s)", tier, retrieval.Explanation(tier))
	return trace
}
