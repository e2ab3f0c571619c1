package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/rag/vectorDB"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQdrantClient(ctx context.Context) vectorDB.DataProcessor {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: qdrantInstance,
	}
}

func newClient() *qdrant.Client {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     config.QdrantHost,
		Port:     config.QdrantGrpcPort,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

// collectionFor maps a department to its dedicated collection.
func collectionFor(department string) string {
	return config.CollectionPrefix + "_" + department
}

// pointID derives a stable UUID from the building id so that re-indexing the
// same building overwrites its point instead of duplicating it.
func pointID(buildingId string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(buildingId)).String()
}

func (db *ClientHolder) ResetShard(ctx context.Context, department string) error {
	collection := collectionFor(department)

	exists, err := db.QObj.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", collection, err)
	}
	if exists {
		if err := db.QObj.DeleteCollection(ctx, collection); err != nil {
			return fmt.Errorf("dropping collection %s: %w", collection, err)
		}
		logger.Info("Dropped stale shard", "collection", collection)
	}

	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(config.EmbeddingDim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	logger.Info("Shard ready", "collection", collection)
	return nil
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, department string, records []buildingModel.FeatureRecord, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return fmt.Errorf("mismatch: got %d records but %d vectors", len(records), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(records))
	for i, record := range records {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(record.Id)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"record_id":     record.Id,
				"text":          record.Summary,
				"department":    record.Department,
				"commune":       record.Commune,
				"building_type": string(record.Category),
				"energy_label":  record.EnergyLabel,
				"thermal_sieve": record.ThermalSieve,
				"year":          record.ConstructionYear,
				"surface":       record.Surface,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionFor(department),
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *ClientHolder) Search(ctx context.Context, department string, vector []float32, topK int) ([]buildingModel.RetrievedDoc, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	collection := collectionFor(department)

	exists, err := db.QObj.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("checking collection %s: %w", collection, err)
	}
	if !exists {
		return nil, fmt.Errorf("department %s has not been indexed", department)
	}

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	docs := make([]buildingModel.RetrievedDoc, 0, len(result))
	for _, hit := range result {
		docs = append(docs, buildingModel.RetrievedDoc{
			Id:           hit.Payload["record_id"].GetStringValue(),
			Text:         hit.Payload["text"].GetStringValue(),
			Score:        hit.Score,
			Department:   hit.Payload["department"].GetStringValue(),
			Commune:      hit.Payload["commune"].GetStringValue(),
			Category:     hit.Payload["building_type"].GetStringValue(),
			EnergyLabel:  hit.Payload["energy_label"].GetStringValue(),
			ThermalSieve: hit.Payload["thermal_sieve"].GetBoolValue(),
		})
	}
	loggr.Debug("Search complete", "collection", collection, "hits", len(docs))
	return docs, nil
}

func (db *ClientHolder) Health(ctx context.Context) error {
	if db == nil || db.QObj == nil {
		return errors.New("qdrant client not initialized")
	}
	_, err := db.QObj.HealthCheck(ctx)
	return err
}
