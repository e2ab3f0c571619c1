package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/data/cache"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/internal/rag"
)

func init() {
	config.DefaultDepartment = "93"
	config.SimilarityTopK = 5
}

func newTestService(store *MockFeatureStore, vector *MockVectorDB, llm *MockLLM, embedder *MockEmbedder, responseCache *MockCache) rag.Service {
	return rag.NewService(store, vector, llm, embedder, responseCache)
}

func testContext() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func waitForSave(t *testing.T, responseCache *MockCache) string {
	t.Helper()
	select {
	case key := <-responseCache.Saved:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("expected the answer to be saved to the cache")
		return ""
	}
}

func TestAnswer_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		question    string
		setupMocks  func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache)
		wantRoute   buildingModel.Route
		wantErr     error
		wantText    string
		wantDept    string
		checkResult func(t *testing.T, answer *buildingModel.Answer)
	}{
		{
			name:     "descriptive full flow",
			question: "Décris-moi les bâtiments anciens du département 75",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				v.OnSearch = func(_ context.Context, department string, _ []float32, topK int) ([]buildingModel.RetrievedDoc, error) {
					if department != "75" {
						t.Errorf("search scoped to department %q, want 75", department)
					}
					if topK != 5 {
						t.Errorf("topK = %d, want 5", topK)
					}
					return []buildingModel.RetrievedDoc{
						{Id: "bat-75-1", Text: "Bâtiment ancien à Paris.", Department: "75"},
					}, nil
				}
				l.OnGenerate = func(_ context.Context, _ string, matches []string) (string, error) {
					if len(matches) != 1 || !strings.Contains(matches[0], "Paris") {
						t.Errorf("unexpected matches passed to model: %v", matches)
					}
					return "réponse générée", nil
				}
			},
			wantRoute: buildingModel.RouteDescriptive,
			wantText:  "réponse générée",
			wantDept:  "75",
			checkResult: func(t *testing.T, answer *buildingModel.Answer) {
				if len(answer.Sources) != 1 || answer.Sources[0].Id != "bat-75-1" {
					t.Errorf("expected retrieved source in answer, got %+v", answer.Sources)
				}
			},
		},
		{
			name:     "quantitative count without llm",
			question: "Combien de bâtiments tertiaires dans le département 93 ?",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				s.OnAggregate = func(_ context.Context, query buildingModel.AggregateQuery) (buildingModel.AggregateResult, error) {
					if query.Op != buildingModel.AggregateCount || query.Category != buildingModel.CategoryTertiary {
						t.Errorf("unexpected aggregate query: %+v", query)
					}
					return buildingModel.AggregateResult{Value: 12, Count: 12}, nil
				}
				l.OnGenerate = func(context.Context, string, []string) (string, error) {
					t.Error("the model must not be called on the quantitative path")
					return "", nil
				}
				e.OnGetEmbedding = func(context.Context, string) ([]float32, error) {
					t.Error("the embedder must not be called on the quantitative path")
					return nil, nil
				}
			},
			wantRoute: buildingModel.RouteQuantitative,
			wantDept:  "93",
			checkResult: func(t *testing.T, answer *buildingModel.Answer) {
				if !strings.Contains(answer.Text, "12") {
					t.Errorf("expected count in answer text, got %q", answer.Text)
				}
				if answer.Raw == nil || answer.Raw.Count != 12 {
					t.Errorf("expected raw aggregate result, got %+v", answer.Raw)
				}
			},
		},
		{
			name:     "unbound quantitative falls through to retrieval",
			question: "Quel pourcentage de bâtiments tertiaires ?",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				s.OnAggregate = func(context.Context, buildingModel.AggregateQuery) (buildingModel.AggregateResult, error) {
					t.Error("unsupported aggregate must not reach the store")
					return buildingModel.AggregateResult{}, nil
				}
				l.OnGenerate = func(context.Context, string, []string) (string, error) {
					return "réponse de repli", nil
				}
			},
			wantRoute: buildingModel.RouteDescriptive,
			wantText:  "réponse de repli",
			wantDept:  "93",
		},
		{
			name:     "default department applies",
			question: "Décris-moi le parc immobilier",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				v.OnSearch = func(_ context.Context, department string, _ []float32, _ int) ([]buildingModel.RetrievedDoc, error) {
					if department != "93" {
						t.Errorf("expected default department 93, got %q", department)
					}
					return nil, nil
				}
			},
			wantRoute: buildingModel.RouteDescriptive,
			wantDept:  "93",
		},
		{
			name:     "embedding failure surfaces as upstream error",
			question: "Décris-moi les bâtiments du département 93",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				e.OnGetEmbedding = func(context.Context, string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			wantErr: buildingModel.ErrUpstreamService,
		},
		{
			name:     "search failure surfaces as upstream error",
			question: "Décris-moi les bâtiments du département 93",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				v.OnSearch = func(context.Context, string, []float32, int) ([]buildingModel.RetrievedDoc, error) {
					return nil, errors.New("db timeout")
				}
			},
			wantErr: buildingModel.ErrUpstreamService,
		},
		{
			name:     "llm failure surfaces as upstream error",
			question: "Décris-moi les bâtiments du département 93",
			setupMocks: func(s *MockFeatureStore, v *MockVectorDB, l *MockLLM, e *MockEmbedder, c *MockCache) {
				l.OnGenerate = func(context.Context, string, []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			wantErr: buildingModel.ErrUpstreamService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := &MockFeatureStore{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}
			mEmbed := &MockEmbedder{}
			mCache := NewMockCache()

			tt.setupMocks(mStore, mVec, mLLM, mEmbed, mCache)
			s := newTestService(mStore, mVec, mLLM, mEmbed, mCache)

			answer, err := s.Answer(testContext(), tt.question)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if answer.Route != tt.wantRoute {
				t.Errorf("route got %s, want %s", answer.Route, tt.wantRoute)
			}
			if tt.wantText != "" && answer.Text != tt.wantText {
				t.Errorf("answer got %q, want %q", answer.Text, tt.wantText)
			}
			if tt.wantDept != "" && answer.Department != tt.wantDept {
				t.Errorf("department got %q, want %q", answer.Department, tt.wantDept)
			}
			if tt.checkResult != nil {
				tt.checkResult(t, answer)
			}

			waitForSave(t, mCache)
		})
	}
}

func TestAnswer_CacheHitShortCircuits(t *testing.T) {
	question := "Combien de bâtiments dans le département 93 ?"
	key := cache.Key(question, "93")

	mStore := &MockFeatureStore{
		OnAggregate: func(context.Context, buildingModel.AggregateQuery) (buildingModel.AggregateResult, error) {
			t.Error("a cache hit must not reach the store")
			return buildingModel.AggregateResult{}, nil
		},
	}
	mCache := NewMockCache()
	mCache.Entries[key] = &buildingModel.Answer{
		Text:       "Il y a 2500 bâtiments dans le département 93.",
		Route:      buildingModel.RouteQuantitative,
		Department: "93",
	}

	s := newTestService(mStore, &MockVectorDB{}, &MockLLM{}, &MockEmbedder{}, mCache)

	answer, err := s.Answer(testContext(), question)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answer.Cached {
		t.Error("expected replayed answer to be flagged as cached")
	}
	if answer.Text != "Il y a 2500 bâtiments dans le département 93." {
		t.Errorf("unexpected cached text: %q", answer.Text)
	}
}

func TestAnswer_CacheFailureIsNotFatal(t *testing.T) {
	mCache := NewMockCache()
	mCache.OnGet = func(context.Context, string) (*buildingModel.Answer, error) {
		return nil, errors.New("redis gone")
	}

	s := newTestService(&MockFeatureStore{}, &MockVectorDB{}, &MockLLM{}, &MockEmbedder{}, mCache)

	answer, err := s.Answer(testContext(), "Décris-moi les bâtiments du département 93")
	if err != nil {
		t.Fatalf("expected cache failure to be swallowed, got %v", err)
	}
	if answer.Text != "mocked llm response" {
		t.Errorf("unexpected answer: %q", answer.Text)
	}
}
