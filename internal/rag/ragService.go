package rag

import (
	"context"
	"time"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/data/cache"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/metrics"
	"github.com/avasseur/bdnb-rag/internal/rag/classify"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding"
	"github.com/avasseur/bdnb-rag/internal/rag/llm"
	"github.com/avasseur/bdnb-rag/internal/rag/vectorDB"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

// Service is the public contract of the query router. Handlers only see this
// interface; the wiring of classifier, cache, stores and model clients stays
// private to the package.
type Service interface {
	Answer(ctx context.Context, question string) (*buildingModel.Answer, error)
	Health(ctx context.Context) error
}

type service struct {
	classifier    classify.Classifier
	responseCache cache.ResponseCache
	featureStore  buildingModel.FeatureStore
	vectorDB      vectorDB.DataProcessor
	llmProvider   llm.Provider
	embedder      embedding.Embedder
	logger        *logger_i.Logger
}

func NewService(
	featureStore buildingModel.FeatureStore,
	vector vectorDB.DataProcessor,
	llmProvider llm.Provider,
	embedder embedding.Embedder,
	responseCache cache.ResponseCache,
) Service {
	return &service{
		classifier:    classify.NewRuleClassifier(),
		responseCache: responseCache,
		featureStore:  featureStore,
		vectorDB:      vector,
		llmProvider:   llmProvider,
		embedder:      embedder,
		logger:        logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) Answer(ctx context.Context, question string) (*buildingModel.Answer, error) {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	start := time.Now()
	status := "ok"
	defer func() { metrics.CaptureRequestMetrics(status, time.Since(start)) }()

	department := s.classifier.ExtractDepartment(question)
	if department == "" {
		// Questions with no explicit department land on the configured
		// default. Crude, but it keeps single-department deployments usable.
		department = config.DefaultDepartment
		inMethodLogger.Debug("No department in question, using default", "departement", department)
	}

	cacheKey := cache.Key(question, department)
	if answer := s.executeCacheCheckStep(ctx, inMethodLogger, cacheKey); answer != nil {
		metrics.CountChatRequest(string(answer.Route))
		return answer, nil
	}

	var answer *buildingModel.Answer
	var err error

	if s.classifier.Classify(question) == classify.IntentQuantitative {
		answer, err = s.answerQuantitative(ctx, inMethodLogger, question, department)
		if err != nil {
			status = "error"
			return nil, err
		}
	}

	// Descriptive questions, and quantitative ones that did not bind to a
	// supported aggregate, go through retrieval and generation.
	if answer == nil {
		answer, err = s.answerDescriptive(ctx, inMethodLogger, question, department)
		if err != nil {
			status = "error"
			return nil, err
		}
	}

	metrics.CountChatRequest(string(answer.Route))
	go s.executeCacheSaveStep(ctx, cacheKey, answer)

	return answer, nil
}

// answerQuantitative resolves a counting question straight from the feature
// store. No model is involved on this path. Returns (nil, nil) when the
// question cannot be bound to a supported aggregate.
func (s *service) answerQuantitative(ctx context.Context, log *logger_i.Logger, question, department string) (*buildingModel.Answer, error) {
	query, bound := classify.TranslateAggregate(question, department)
	if !bound {
		log.Debug("Quantitative question did not bind, falling through to retrieval")
		return nil, nil
	}

	result, err := s.executeAggregateStep(ctx, log, query)
	if err != nil {
		return nil, err
	}

	return &buildingModel.Answer{
		Text:       formatAggregateAnswer(query, result),
		Route:      buildingModel.RouteQuantitative,
		Department: department,
		Raw:        &result,
	}, nil
}

func (s *service) answerDescriptive(ctx context.Context, log *logger_i.Logger, question, department string) (*buildingModel.Answer, error) {
	vector, err := s.executeEmbeddingStep(ctx, log, question)
	if err != nil {
		log.Error("EMBEDDING_FAILURE", "error", err)
		return nil, buildingModel.UpstreamError("embedding", err)
	}

	docs, err := s.executeVectorSearchStep(ctx, log, department, vector)
	if err != nil {
		log.Error("VECTOR_DB_FAILURE", "error", err)
		return nil, buildingModel.UpstreamError("vector search", err)
	}

	matches := make([]string, len(docs))
	for i, doc := range docs {
		matches[i] = doc.Text
	}

	text, err := s.executeLLMStep(ctx, log, question, matches)
	if err != nil {
		log.Error("LLM_GENERATION_FAILURE", "error", err)
		return nil, buildingModel.UpstreamError("generation", err)
	}

	return &buildingModel.Answer{
		Text:       text,
		Route:      buildingModel.RouteDescriptive,
		Department: department,
		Sources:    docs,
	}, nil
}

func (s *service) Health(ctx context.Context) error {
	if err := s.vectorDB.Health(ctx); err != nil {
		return buildingModel.UpstreamError("qdrant", err)
	}
	if err := s.responseCache.Ping(ctx); err != nil {
		return buildingModel.UpstreamError("cache", err)
	}
	return nil
}
