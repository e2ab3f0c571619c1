package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/metrics"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, key string) *buildingModel.Answer {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	answer, err := s.responseCache.Get(ctx, key)
	if err != nil {
		// A broken cache must never break the question.
		log.Warn("Cache lookup failed", "error", err)
		metrics.CountCacheLookup(false)
		return nil
	}
	metrics.CountCacheLookup(answer != nil)
	if answer != nil {
		log.Debug("Cache hit", "key", key)
	}
	return answer
}

func (s *service) executeCacheSaveStep(ctx context.Context, key string, answer *buildingModel.Answer) {
	// Detached from the request lifetime so a client disconnect does not
	// lose the entry.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.RedisWriteTimeout)
	defer cancel()

	if err := s.responseCache.Set(saveCtx, key, answer); err != nil {
		s.logger.Error("Failed to save to cache", "error", err)
	}
}

func (s *service) executeAggregateStep(ctx context.Context, log *logger_i.Logger, query buildingModel.AggregateQuery) (buildingModel.AggregateResult, error) {
	log.Debug("Aggregate step", "op", query.Op, "departement", query.Department)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("aggregate_query", time.Since(start)) }()

	return s.featureStore.Aggregate(ctx, query)
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, question string) ([]float32, error) {
	log.Debug("Embedding step")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, question)
}

func (s *service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, department string, vector []float32) ([]buildingModel.RetrievedDoc, error) {
	log.Debug("Vector search step", "departement", department)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.Search(ctx, department, vector, config.SimilarityTopK)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, question string, matches []string) (string, error) {
	log.Debug("LLM step", "matches", len(matches))

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, question, matches)
}

// formatAggregateAnswer renders the French sentence for a resolved
// aggregate.
func formatAggregateAnswer(query buildingModel.AggregateQuery, result buildingModel.AggregateResult) string {
	scope := describeScope(query)

	switch query.Op {
	case buildingModel.AggregateAverage:
		return fmt.Sprintf("La surface moyenne %s est de %.0f m² (calculée sur %d bâtiments).", scope, result.Value, result.Count)
	case buildingModel.AggregatePercentage:
		return fmt.Sprintf("%.1f %% %s sont des passoires thermiques (sur %d bâtiments).", result.Value, scope, result.Count)
	default:
		return fmt.Sprintf("Il y a %d %s.", result.Count, describeFilters(query))
	}
}

func describeScope(query buildingModel.AggregateQuery) string {
	base := "des bâtiments"
	switch query.Category {
	case buildingModel.CategoryResidential:
		base = "des bâtiments résidentiels"
	case buildingModel.CategoryTertiary:
		base = "des bâtiments tertiaires"
	}
	if query.Commune != "" {
		base += " à " + query.Commune
	}
	if query.Department != "" {
		base += " du département " + query.Department
	}
	return base
}

func describeFilters(query buildingModel.AggregateQuery) string {
	description := "bâtiments"
	switch query.Category {
	case buildingModel.CategoryResidential:
		description += " résidentiels"
	case buildingModel.CategoryTertiary:
		description += " tertiaires"
	}
	if query.ThermalSieve != nil && *query.ThermalSieve {
		description += " classés passoires thermiques"
	}
	if query.EnergyLabel != "" {
		description += " en classe DPE " + query.EnergyLabel
	}
	if query.YearBefore > 0 {
		description += fmt.Sprintf(" construits avant %d", query.YearBefore)
	}
	if query.Commune != "" {
		description += " à " + query.Commune
	}
	if query.Department != "" {
		description += " dans le département " + query.Department
	}
	return description
}
