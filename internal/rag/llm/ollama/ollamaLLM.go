package ollama

import (
	"context"
	"errors"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/rag/llm"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

type llmClient struct {
	api   openai.Client
	model string
}

var logger *logger_i.Logger
var ollamaClient *llmClient
var once sync.Once

// GetOllamaClient wires the local Ollama server through its OpenAI-compatible
// chat endpoint.
func GetOllamaClient(ctx context.Context) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_ollama")
		api := openai.NewClient(
			option.WithBaseURL(config.OllamaBaseURL),
			option.WithAPIKey("ollama"),
		)
		ollamaClient = &llmClient{api: api, model: config.LLMModel}
		logger.Info("Ollama client created", "model", config.LLMModel)
		go closeClient(ctx)
	})

	if ollamaClient == nil {
		return nil
	}
	return ollamaClient
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Ollama client")
	ollamaClient = nil
}

func (c *llmClient) Generate(ctx context.Context, question string, matches []string) (string, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llm.SystemPrompt),
			openai.UserMessage(llm.BuildUserPrompt(question, matches)),
		},
	})
	if err != nil {
		loggr.Error("Error generating answer with Ollama", "error", err.Error())
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("empty completion from model")
	}
	return completion.Choices[0].Message.Content, nil
}
