package indexer

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/metrics"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding"
	"github.com/avasseur/bdnb-rag/internal/rag/vectorDB"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var logger = logger_i.NewLogger("Indexer")

type Indexer interface {
	// IndexDepartments rebuilds one vector shard per department. A failing
	// shard is reported and does not stop the others.
	IndexDepartments(ctx context.Context, departments []string) map[string]error
}

type indexer struct {
	store     buildingModel.FeatureStore
	embedder  embedding.Embedder
	vectorDB  vectorDB.DataProcessor
	batchSize int
}

func NewIndexer(store buildingModel.FeatureStore, embedder embedding.Embedder, db vectorDB.DataProcessor) Indexer {
	return &indexer{
		store:     store,
		embedder:  embedder,
		vectorDB:  db,
		batchSize: config.BatchSize,
	}
}

func (ix *indexer) IndexDepartments(ctx context.Context, departments []string) map[string]error {
	results := make(map[string]error, len(departments))
	for _, department := range departments {
		select {
		case <-ctx.Done():
			results[department] = ctx.Err()
			continue
		default:
		}

		start := time.Now()
		err := ix.indexShard(ctx, department)
		metrics.CaptureStageMetrics("index", time.Since(start))

		if err != nil {
			logger.Error("Shard indexing failed", "departement", department, "error", err)
			results[department] = buildingModel.IndexingShardError(department, err)
			continue
		}
		results[department] = nil
	}
	return results
}

// indexShard rebuilds one department collection from scratch. The shard is
// reset first, then written batch by batch; embedding output order matches
// input order, so records and vectors stay aligned.
func (ix *indexer) indexShard(ctx context.Context, department string) error {
	records, err := ix.store.ListByDepartment(ctx, department)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Warn("Nothing to index", "departement", department)
		return nil
	}

	if err := ix.withRetry(ctx, "reset shard", func() error {
		return ix.vectorDB.ResetShard(ctx, department)
	}); err != nil {
		return err
	}

	for i := 0; i < len(records); i += ix.batchSize {
		end := i + ix.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		texts := make([]string, len(batch))
		for j, record := range batch {
			texts[j] = record.Summary
		}

		var vectors [][]float32
		if err := ix.withRetry(ctx, "embedding batch", func() error {
			var embedErr error
			vectors, embedErr = ix.embedder.BatchEmbedding(ctx, texts)
			return embedErr
		}); err != nil {
			return err
		}

		if err := ix.withRetry(ctx, "upsert batch", func() error {
			return ix.vectorDB.UpsertBatch(ctx, department, batch, vectors)
		}); err != nil {
			return err
		}

		metrics.CountIndexedRecords(department, len(batch))
		logger.Debug("Batch indexed", "departement", department, "from", i, "to", end)
	}

	logger.Info("Shard indexed", "departement", department, "records", len(records))
	return nil
}

// withRetry runs op under the bounded retry budget, backing off between
// attempts. Non-retryable errors short-circuit.
func (ix *indexer) withRetry(ctx context.Context, label string, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= config.IndexRetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.IndexRetryBackoff * time.Duration(attempt-1)):
			}
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		logger.Warn("Retryable failure", "op", label, "attempt", attempt, "error", lastErr)
	}
	return lastErr
}

func isRetryable(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		// Plain errors from HTTP backends get the retry budget too.
		return true
	}
	switch s.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return true
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.PermissionDenied, codes.Unauthenticated:
		return false
	default:
		return true
	}
}
