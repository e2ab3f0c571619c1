package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/data/featurestore"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/metrics"
	"github.com/avasseur/bdnb-rag/internal/pipeline/features"
	"github.com/avasseur/bdnb-rag/internal/pipeline/indexer"
	"github.com/avasseur/bdnb-rag/internal/pipeline/loader"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding/googleEmbedding"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding/ollamaEmbedding"
	"github.com/avasseur/bdnb-rag/internal/rag/vectorDB/qdrantDB"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var (
	departementsFlag string
	stagesFlag       string
	limitFlag        int
	forceFlag        bool
)

func main() {

	config.Init()
	logger_i.Init()
	logger := logger_i.NewLogger("pipeline")

	flag.StringVar(&departementsFlag, "departements", config.DefaultDepartment, "comma separated department codes to process")
	flag.StringVar(&stagesFlag, "stages", "load,features,index", "comma separated stages to run")
	flag.IntVar(&limitFlag, "limit", 0, "override the per-department fetch limit")
	flag.BoolVar(&forceFlag, "force", false, "reprocess departments already in the run ledger")
	flag.Parse()

	if limitFlag > 0 {
		config.FetchLimit = limitFlag
	}

	departments := splitList(departementsFlag)
	stages := map[string]bool{}
	for _, stage := range splitList(stagesFlag) {
		stages[stage] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-gracefulShutdown
		logger.Warn("Shutdown requested, finishing current department")
		cancel()
	}()

	store, err := featurestore.NewSQLiteStore(config.SQLitePath)
	if err != nil {
		logger.Error("Could not open the feature store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if stages["load"] || stages["features"] {
		if err := runIngestion(ctx, logger, store, departments, stages); err != nil {
			logger.Error("Ingestion failed", "error", err)
			os.Exit(1)
		}
	}

	if stages["index"] {
		if failed := runIndexing(ctx, logger, store, departments); failed > 0 {
			logger.Error("Indexing finished with failed shards", "failed", failed)
			os.Exit(1)
		}
	}

	logger.Info("Pipeline finished")
}

// runIngestion loads and derives features department by department. Load and
// features run together because the feature stage needs the raw rows in
// memory for the median imputations.
func runIngestion(ctx context.Context, logger *logger_i.Logger, store buildingModel.FeatureStore, departments []string, stages map[string]bool) error {
	sourceLoader := loader.NewLoader()
	engineer := features.NewEngineer()

	processed, err := sourceLoader.Processed()
	if err != nil {
		return err
	}

	for _, department := range departments {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if processed[department] && !forceFlag {
			logger.Info("Department already processed, skipping", "departement", department)
			continue
		}

		start := time.Now()
		records, loadSummary, err := sourceLoader.Load(ctx, department)
		metrics.CaptureStageMetrics("load", time.Since(start))
		if err != nil {
			return err
		}
		reportSkips(loadSummary)

		if !stages["features"] {
			continue
		}

		start = time.Now()
		featureRecords, featureSummary := engineer.Derive(department, records)
		metrics.CaptureStageMetrics("features", time.Since(start))
		reportSkips(featureSummary)

		if err := store.ReplaceDepartment(ctx, department, featureRecords); err != nil {
			return err
		}
		if err := sourceLoader.MarkProcessed(department); err != nil {
			logger.Warn("Could not update the run ledger", "departement", department, "error", err)
		}
	}
	return nil
}

func runIndexing(ctx context.Context, logger *logger_i.Logger, store buildingModel.FeatureStore, departments []string) int {
	vectorDB := qdrantDB.GetQdrantClient(ctx)

	var embeddingService embedding.Embedder
	switch config.LLMProvider {
	case "gemini":
		embeddingService = googleEmbedding.GetGoogleEmbeddingClient(ctx)
	default:
		embeddingService = ollamaEmbedding.GetOllamaEmbeddingClient(ctx)
	}

	if vectorDB == nil || embeddingService == nil {
		logger.Error("Vector store or embedding backend unavailable")
		return len(departments)
	}

	results := indexer.NewIndexer(store, embeddingService, vectorDB).IndexDepartments(ctx, departments)

	failed := 0
	for department, err := range results {
		if err != nil {
			logger.Error("Shard failed", "departement", department, "error", err)
			failed++
		}
	}
	return failed
}

func reportSkips(summary *buildingModel.RunSummary) {
	for reason, count := range summary.SkipReasons {
		metrics.CountSkippedRecords(summary.Stage, reason, count)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
