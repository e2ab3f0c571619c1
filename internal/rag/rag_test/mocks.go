package rag_test

import (
	"context"
	"sync"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	OnSearch     func(ctx context.Context, department string, vector []float32, topK int) ([]buildingModel.RetrievedDoc, error)
	OnResetShard func(ctx context.Context, department string) error
	OnUpsert     func(ctx context.Context, department string, records []buildingModel.FeatureRecord, vectors [][]float32) error
}

func (m *MockVectorDB) Search(ctx context.Context, department string, vector []float32, topK int) ([]buildingModel.RetrievedDoc, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, department, vector, topK)
	}
	return []buildingModel.RetrievedDoc{{Id: "bat-001", Text: "default context", Department: department}}, nil
}

func (m *MockVectorDB) ResetShard(ctx context.Context, department string) error {
	if m.OnResetShard != nil {
		return m.OnResetShard(ctx, department)
	}
	return nil
}

func (m *MockVectorDB) UpsertBatch(ctx context.Context, department string, records []buildingModel.FeatureRecord, vectors [][]float32) error {
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, department, records, vectors)
	}
	return nil
}

func (m *MockVectorDB) Health(context.Context) error { return nil }

type MockEmbedder struct {
	OnGetEmbedding func(ctx context.Context, text string) ([]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i], _ = m.GetEmbedding(ctx, texts[i])
	}
	return vectors, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, question string, matches []string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, question string, matches []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, question, matches)
	}
	return "mocked llm response", nil
}

// MockFeatureStore implements buildingModel.FeatureStore
type MockFeatureStore struct {
	OnAggregate func(ctx context.Context, query buildingModel.AggregateQuery) (buildingModel.AggregateResult, error)
}

func (m *MockFeatureStore) Aggregate(ctx context.Context, query buildingModel.AggregateQuery) (buildingModel.AggregateResult, error) {
	if m.OnAggregate != nil {
		return m.OnAggregate(ctx, query)
	}
	return buildingModel.AggregateResult{Value: 42, Count: 42}, nil
}

func (m *MockFeatureStore) ReplaceDepartment(context.Context, string, []buildingModel.FeatureRecord) error {
	return nil
}

func (m *MockFeatureStore) ListByDepartment(context.Context, string) ([]buildingModel.FeatureRecord, error) {
	return nil, nil
}

func (m *MockFeatureStore) Departments(context.Context) ([]string, error) { return nil, nil }

func (m *MockFeatureStore) Close() error { return nil }

// MockCache implements cache.ResponseCache; entries are kept in a map so
// tests can inspect what was saved.
type MockCache struct {
	mu      sync.Mutex
	Entries map[string]*buildingModel.Answer
	Saved   chan string

	OnGet func(ctx context.Context, key string) (*buildingModel.Answer, error)
}

func NewMockCache() *MockCache {
	return &MockCache{
		Entries: make(map[string]*buildingModel.Answer),
		Saved:   make(chan string, 8),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (*buildingModel.Answer, error) {
	if m.OnGet != nil {
		return m.OnGet(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if answer, ok := m.Entries[key]; ok {
		replay := *answer
		replay.Cached = true
		return &replay, nil
	}
	return nil, nil
}

func (m *MockCache) Set(_ context.Context, key string, answer *buildingModel.Answer) error {
	m.mu.Lock()
	m.Entries[key] = answer
	m.mu.Unlock()
	m.Saved <- key
	return nil
}

func (m *MockCache) Ping(context.Context) error { return nil }
