package vectorDB

import (
	"context"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

// DataProcessor is the vector store behind both the indexer and the
// retriever. One collection per department keeps searches scoped and lets a
// re-index rebuild a single department without touching the others.
type DataProcessor interface {
	// ResetShard drops and recreates the department collection so a re-run
	// starts from a clean slate.
	ResetShard(ctx context.Context, department string) error
	// UpsertBatch writes one batch of feature records with their vectors into
	// the department collection.
	UpsertBatch(ctx context.Context, department string, records []buildingModel.FeatureRecord, vectors [][]float32) error
	// Search returns the topK closest summaries in the department collection.
	Search(ctx context.Context, department string, vector []float32, topK int) ([]buildingModel.RetrievedDoc, error)
	// Health reports whether the store is reachable.
	Health(ctx context.Context) error
}
