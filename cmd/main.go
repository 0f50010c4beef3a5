package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/internal/storage"
	"pdf-rag-service/internal/telemetry"
	"pdf-rag-service/internal/textproc"
	"pdf-rag-service/internal/vectorstore/qdrant"
	"pdf-rag-service/middleware"
	"pdf-rag-service/routes"
	"pdf-rag-service/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer("pdf-rag-service")
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	// Connect to Redis
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	// Object storage must be reachable before accepting uploads
	store, err := storage.NewObjectStore(cfg)
	if err != nil {
		log.Fatal("Failed to create object storage client:", err)
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := store.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatal("Failed to ensure storage bucket:", err)
		}
		cancel()
	}

	// Pipeline collaborators
	embedder, err := ai.NewEmbeddingClient(cfg)
	if err != nil {
		log.Fatal("Failed to create embedding client:", err)
	}
	defer embedder.Close()

	llm := ai.NewLLMClient(cfg)

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
	ragService := services.NewRAGService(embedder, vectors, llm, cfg.SearchLimit, cfg.MaxPromptChars)

	// Task queue client for async ingestion
	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration for task queue:", err)
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Document ingestion pipeline
	docs := router.Group("/documents")
	{
		docs.POST("/upload", routes.HandleDocumentUpload(cfg, store, registry, textCache))
		docs.POST("/ocr", routes.HandleDocumentOCR(documents))
		docs.POST("/chunk", routes.HandleDocumentChunk(documents))
		docs.POST("/embed", routes.HandleDocumentEmbed(documents))
		docs.POST("/process", routes.HandleDocumentProcess(documents))
		docs.POST("/process/async", routes.HandleDocumentProcessAsync(queueClient, registry))
		docs.GET("/status", routes.HandleDocumentStatus(registry))
	}

	// RAG chat
	router.POST("/chat/rag", routes.HandleRAGChat(ragService))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
