package config

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 90 * time.Second //LLM generation can be slow on a local model
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//per-request budget for the whole chat flow (embed + search + generate)
	QueryTimeout = 60 * time.Second

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantUseTLS            = false
	QdrantPoolSize          = 1

	//pipeline
	HTTPRetryAttempts  = 3
	HTTPRetryBackoff   = 1 * time.Second
	IndexRetryAttempts = 3
	IndexRetryBackoff  = 2 * time.Second
	DownloadTimeout    = 30 * time.Second

	SurfaceCategorySmall = 500.0
	SurfaceCategoryLarge = 1000.0
	SurfaceMaxPlausible  = 1_000_000.0
	//used only when a department has no plausible surface at all to take a median from
	SurfaceLastResort = 100.0

	//redis timeouts
	RedisReadTimeout  = 5 * time.Second
	RedisWriteTimeout = 5 * time.Second
)

// Values below come from the environment (a .env file is honored) and keep
// the documented defaults when unset.
var (
	ServerListenAddr string

	QdrantHost     string
	QdrantGrpcPort int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LLMProvider    string //"ollama" (default, local server) or "gemini"
	OllamaBaseURL  string
	LLMModel       string
	EmbeddingModel string
	EmbeddingDim   int
	GeminiAPIKey   string

	ArchiveURL        string
	DataDir           string
	SQLitePath        string
	FetchLimit        int
	BatchSize         int
	SimilarityTopK    int
	DefaultDepartment string
	CollectionPrefix  string
)

func Init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ServerListenAddr = getEnv("API_LISTEN_ADDR", ":8000")

	QdrantHost = getEnv("QDRANT_HOST", "localhost")
	QdrantGrpcPort = getEnvAsInt("QDRANT_GRPC_PORT", 6334)

	RedisAddr = getEnv("REDIS_ADDR", "127.0.0.1:6379")
	RedisPassword = getEnv("REDIS_PASSWORD", "")
	RedisDB = getEnvAsInt("REDIS_DB", 0)
	CacheTTL = time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 3600)) * time.Second

	LLMProvider = getEnv("LLM_PROVIDER", "ollama")
	OllamaBaseURL = getEnv("OLLAMA_BASE_URL", "http://localhost:11434/v1")
	LLMModel = getEnv("LLM_MODEL", "llama3.2")
	EmbeddingModel = getEnv("EMBEDDING_MODEL", "nomic-embed-text")
	EmbeddingDim = getEnvAsInt("EMBEDDING_DIM", 768)
	GeminiAPIKey = getEnv("GEMINI_API_KEY", "")

	ArchiveURL = getEnv("BDNB_ARCHIVE_URL", "https://bdnb.io/archives_data/bdnb_millesime_2024_10_a/")
	DataDir = getEnv("DATA_DIR", "data")
	SQLitePath = getEnv("SQLITE_DB_PATH", filepath.Join(DataDir, "bdnb.db"))
	FetchLimit = getEnvAsInt("FETCH_LIMIT", 2500)
	BatchSize = getEnvAsInt("BATCH_SIZE", 256)
	SimilarityTopK = getEnvAsInt("SIMILARITY_TOP_K", 5)
	DefaultDepartment = getEnv("DEFAULT_DEPARTMENT", "93")
	CollectionPrefix = getEnv("COLLECTION_PREFIX", "buildings")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
