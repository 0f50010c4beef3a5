package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/internal/storage"
	"pdf-rag-service/internal/textproc"
	"pdf-rag-service/internal/vectorstore/qdrant"
	"pdf-rag-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Connect to Redis for the transcript cache
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Object storage
	store, err := storage.NewObjectStore(cfg)
	if err != nil {
		log.Fatal("Failed to create object storage client:", err)
	}

	// Pipeline collaborators
	embedder, err := ai.NewEmbeddingClient(cfg)
	if err != nil {
		log.Fatal("Failed to create embedding client:", err)
	}
	defer embedder.Close()

	vectors := qdrant.NewClient(qdrant.Config{
		BaseURL: cfg.QdrantURL,
		APIKey:  cfg.QdrantAPIKey,
	})

	chunker, err := textproc.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}

	extractor := services.NewPDFTextExtractor(cfg)
	registry := services.NewDocumentRegistry(mongoClient.Database(cfg.DBName))
	textCache := services.NewTextCache(rdb)

	documents := services.NewDocumentService(store, extractor, chunker, embedder, vectors, registry, textCache)

	// Redis options for Asynq
	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration for task queue:", err)
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 20,
			Queues: map[string]int{
				"critical": 6, // 60% of workers
				"default":  3, // 30% of workers
				"low":      1, // 10% of workers
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create task processor
	processor := queue.NewTaskProcessor(documents)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessDocument, processor.ProcessDocument)

	logger.Info("Starting Asynq worker", "concurrency", 20, "redis", cfg.RedisURL)

	// Start the server
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
