// @title           BDNB Chat API
// @version         1.0
// @description     Question answering over the French national building database, grounded on per-department vector shards.
// @termsOfService  http://swagger.io/terms/

// @contact.name    api support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/data/cache"
	"github.com/avasseur/bdnb-rag/internal/data/featurestore"
	"github.com/avasseur/bdnb-rag/internal/handlers"
	"github.com/avasseur/bdnb-rag/internal/rag"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding/googleEmbedding"
	"github.com/avasseur/bdnb-rag/internal/rag/embedding/ollamaEmbedding"
	"github.com/avasseur/bdnb-rag/internal/rag/llm"
	"github.com/avasseur/bdnb-rag/internal/rag/llm/gemini"
	"github.com/avasseur/bdnb-rag/internal/rag/llm/ollama"
	"github.com/avasseur/bdnb-rag/internal/rag/vectorDB/qdrantDB"
	"github.com/avasseur/bdnb-rag/internal/server"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var listenAddr string

func main() {

	config.Init()
	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	responseCache := cache.GetRedisCache(serviceContext)
	if responseCache == nil {
		logger.Error("Redis is offline, falling back to in-memory response cache")
		responseCache = cache.NewMemoryCache(config.CacheTTL)
	}

	featureStore, err := featurestore.NewSQLiteStore(config.SQLitePath)
	if err != nil {
		logger.Error("Could not open the feature store. Shutting down.", "error", err)
		return
	}
	defer featureStore.Close()

	vectorDB := qdrantDB.GetQdrantClient(serviceContext)

	var embeddingService embedding.Embedder
	var llmProvider llm.Provider
	switch config.LLMProvider {
	case "gemini":
		embeddingService = googleEmbedding.GetGoogleEmbeddingClient(serviceContext)
		llmProvider = gemini.GetGeminiClient(serviceContext)
	default:
		embeddingService = ollamaEmbedding.GetOllamaEmbeddingClient(serviceContext)
		llmProvider = ollama.GetOllamaClient(serviceContext)
	}

	if vectorDB == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vectorDB != nil, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	ragService := rag.NewService(featureStore, vectorDB, llmProvider, embeddingService, responseCache)
	handlers.InitChatHandler(ragService)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
