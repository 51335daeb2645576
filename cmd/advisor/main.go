// Command advisor is the CLI for the guarded course-recommendation pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"advisor/internal/catalog"
	"advisor/internal/config"
	"advisor/internal/embedding"
	"advisor/internal/gateway"
	"advisor/internal/index"
	"advisor/internal/logging"
	"advisor/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "advisor - guarded RAG course recommendations",
	Long: `advisor recommends university courses from a catalog using a guarded
retrieval-augmented pipeline: student queries are embedded, matched against
indexed course descriptions, graded for confidence, and the LLM's structured
output is validated against the catalog before anything reaches the caller.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize("."); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// indexCmd embeds the catalog and builds the vector index.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the course catalog and build the vector index",
	RunE:  runIndex,
}

// recommendCmd runs a single guarded query.
var recommendCmd = &cobra.Command{
	Use:   "recommend [query]",
	Short: "Get validated course recommendations for a query",
	Long: `Runs one query through the guarded pipeline and prints the validated
response as JSON. A low-confidence or failed query yields a fallback
response, never an error.

Example:
  advisor recommend "I want to learn machine learning and AI"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

// catalogCmd lists and validates the course catalog.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the courses in the catalog",
	RunE:  runCatalog,
}

var (
	topK           int
	confidence     float64
	outputFormat   string
	categoryFilter string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "advisor.yaml", "Config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	recommendCmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of courses to retrieve (default from config)")
	recommendCmd.Flags().Float64Var(&confidence, "confidence-threshold", 0, "Minimum confidence for acceptance (default from config)")
	recommendCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text or json")
	catalogCmd.Flags().StringVar(&categoryFilter, "category", "", "Only list courses in this category")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildPipeline loads config and constructs the pipeline with its
// collaborators.
func buildPipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	store := catalog.NewStore(cfg.Catalog.CoursesPath)
	cat, err := store.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("catalog loaded", zap.Int("courses", cat.Len()), zap.String("path", cfg.Catalog.CoursesPath))

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return nil, nil, err
	}

	idx, err := index.New(cfg.Index, engine.Dimensions())
	if err != nil {
		return nil, nil, err
	}

	llm, err := gateway.New(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	return pipeline.New(cat, engine, idx, llm, cfg.Guardrails), cfg, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, _, err := buildPipeline()
	if err != nil {
		return err
	}

	start := time.Now()
	if err := p.IndexCatalog(ctx); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	logger.Info("catalog indexed",
		zap.Int("courses", p.Catalog().Len()),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("Indexed %d courses in %v\n", p.Catalog().Len(), time.Since(start).Round(time.Millisecond))
	return nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	query := strings.Join(args, " ")

	p, cfg, err := buildPipeline()
	if err != nil {
		return err
	}

	// The memory backend starts empty each run and needs the catalog
	// embedded before retrieval can work.
	if cfg.Index.Backend == "memory" || cfg.Index.Backend == "" {
		if err := p.IndexCatalog(ctx); err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}
	}

	// Watch for catalog edits between queries when configured.
	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(catalog.NewStore(cfg.Catalog.CoursesPath), p.ReloadCatalog)
		if err == nil {
			if err := watcher.Start(ctx); err == nil {
				defer watcher.Stop()
			}
		}
	}

	resp, err := p.ProcessQuery(ctx, query, pipeline.Options{
		TopK:                topK,
		ConfidenceThreshold: confidence,
	})
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Query: %s\n", resp.Query)
	fmt.Printf("Confidence: %.2f | Fallback: %v | Validation passed: %v\n\n",
		resp.OverallConfidence, resp.FallbackTriggered, resp.ValidationPassed)

	if len(resp.Recommendations) == 0 {
		fmt.Println(resp.Justification)
	} else {
		for i, rec := range resp.Recommendations {
			fmt.Printf("%d. %s (%s) - score %.2f\n   %s\n", i+1, rec.Title, rec.CourseID, rec.MatchScore, rec.Justification)
		}
		fmt.Printf("\n%s\n", resp.Justification)
	}

	if len(resp.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range resp.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
	return nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store := catalog.NewStore(cfg.Catalog.CoursesPath)
	cat, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	courses := cat.Courses()
	if categoryFilter != "" {
		courses = cat.ByCategory(categoryFilter)
	}

	fmt.Printf("%d courses in %s:\n\n", len(courses), cfg.Catalog.CoursesPath)
	for _, c := range courses {
		fmt.Printf("%-8s %-40s %s (difficulty %d/5, %d credits)\n",
			c.ID, c.Title, c.Category, c.Difficulty, c.Credits)
	}
	return nil
}
