package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Object storage (required at startup)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// OCR service
	OCRServiceURL string
	OCRTimeout    int // seconds

	// Embeddings
	EmbeddingsProvider    string // "ollama" (default), "google"
	OllamaURL             string
	OllamaEmbedModel      string
	GeminiAPIKey          string
	GoogleEmbeddingsModel string
	EmbedConcurrency      int

	// Vector index
	QdrantURL    string
	QdrantAPIKey string

	// LLM (required only at answer time)
	GroqAPIKey string
	GroqModel  string

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// Retrieval
	SearchLimit    int
	MaxPromptChars int

	// Mongo document registry
	MongoURI string
	DBName   string

	// Redis (rate limiting, OCR text cache, task queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	RateLimitReqs   int
	RateLimitWindow int // seconds

	MaxFileSize int64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"), ","),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		OCRServiceURL: getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRTimeout:    getEnvInt("OCR_TIMEOUT", 300), // 5 minutes

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "ollama"),
		OllamaURL:             getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel:      getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		EmbedConcurrency:      getEnvInt("EMBED_CONCURRENCY", 8),

		QdrantURL:    getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		GroqAPIKey: getEnv("GROQ_API_KEY", ""),
		GroqModel:  getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 800),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		SearchLimit:    getEnvInt("SEARCH_LIMIT", 5),
		MaxPromptChars: getEnvInt("MAX_PROMPT_CHARS", 12000),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/pdf_rag"),
		DBName:   getEnv("DB_NAME", "pdf_rag"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		MaxFileSize: getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
	}

	// Validate required fields eagerly; the process must not start without
	// its object storage. The Groq key is only required at answer time.
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required - set it in .env file")
	}
	if cfg.MinioAccessKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY is required - set it in .env file")
	}
	if cfg.MinioSecretKey == "" {
		return nil, fmt.Errorf("MINIO_SECRET_KEY is required - set it in .env file")
	}
	if cfg.MinioBucket == "" {
		return nil, fmt.Errorf("MINIO_BUCKET is required - set it in .env file")
	}
	if cfg.MaxChunkSize <= 0 {
		return nil, fmt.Errorf("MAX_CHUNK_SIZE must be positive")
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("CHUNK_OVERLAP must not be negative")
	}
	if cfg.EmbeddingsProvider == "google" && cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when EMBEDDINGS_PROVIDER=google")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
