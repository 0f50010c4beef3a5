package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/services"
)

// RedisOpt builds the asynq connection options from the shared redis config,
// accepting either a host:port pair or a redis:// URL.
func RedisOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

const TaskProcessDocument = "document:process"

type DocumentProcessPayload struct {
	ChatbotID string `json:"chatbot_id"`
	Filename  string `json:"filename"`
}

// NewDocumentProcessTask enqueues a full ingestion run for one document.
func NewDocumentProcessTask(chatbotID, filename string) (*asynq.Task, error) {
	payload, err := json.Marshal(DocumentProcessPayload{
		ChatbotID: chatbotID,
		Filename:  filename,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskProcessDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// TaskProcessor runs queued ingestion jobs in the worker process.
type TaskProcessor struct {
	documents *services.DocumentService
}

func NewTaskProcessor(documents *services.DocumentService) *TaskProcessor {
	return &TaskProcessor{documents: documents}
}

func (p *TaskProcessor) ProcessDocument(ctx context.Context, t *asynq.Task) error {
	var payload DocumentProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// A malformed payload never becomes valid on retry
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("Processing document", "chatbot_id", payload.ChatbotID, "filename", payload.Filename)

	result, err := p.documents.Process(ctx, payload.ChatbotID, payload.Filename)
	if err != nil {
		logger.Error("Document processing failed", "chatbot_id", payload.ChatbotID, "filename", payload.Filename, "error", err)
		return err
	}

	logger.Info("Document processed",
		"chatbot_id", payload.ChatbotID,
		"filename", payload.Filename,
		"chunks", result.TotalChunks,
		"characters", result.CharacterCount,
	)
	return nil
}
