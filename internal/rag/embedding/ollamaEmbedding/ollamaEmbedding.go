package ollamaEmbedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

// GetOllamaEmbeddingClient talks to a local Ollama server through its
// OpenAI-compatible endpoint, so the same client code would work against any
// OpenAI-compatible embedding backend.
func GetOllamaEmbeddingClient(ctx context.Context) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("ollama_embedding")
		api := openai.NewClient(
			option.WithBaseURL(config.OllamaBaseURL),
			option.WithAPIKey("ollama"), // ignored by ollama, required by the client
		)
		embeddingClient = &client{
			api:   api,
			model: config.EmbeddingModel,
		}
		logger.Info("Ollama embedding client created", "model", config.EmbeddingModel)
		go closeClient(ctx)
	})

	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Ollama embedding client")
	embeddingClient = nil
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		logger.Error("Error getting embeddings from Ollama", "error", err.Error())
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		vector := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vector[j] = float32(v)
		}
		vectors[i] = vector
	}
	return vectors, nil
}
