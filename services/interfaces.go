package services

import (
	"context"

	"pdf-rag-service/models"
)

// Embedder converts texts into fixed-dimension vectors, one per input, in
// input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists (vector, text, metadata) points per collection and
// answers nearest-neighbor queries.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string, dimension int) error
	Upsert(ctx context.Context, collection string, points []models.StoredPoint) error
	DeleteByFilename(ctx context.Context, collection, filename string) error
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]models.RetrievalHit, error)
}

// ObjectStorage fetches raw document bytes by storage key.
type ObjectStorage interface {
	Get(ctx context.Context, objectName string) ([]byte, error)
}

// TextExtractor turns raw document bytes into text.
type TextExtractor interface {
	ExtractText(ctx context.Context, filename string, data []byte) (string, error)
}

// LLM answers a fully assembled prompt.
type LLM interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// StatusRecorder tracks per-document processing state.
type StatusRecorder interface {
	SetStatus(ctx context.Context, chatbotID, filename, status string) error
	MarkCompleted(ctx context.Context, chatbotID, filename string, totalChunks, characterCount int) error
	MarkFailed(ctx context.Context, chatbotID, filename, errMsg string) error
	Get(ctx context.Context, chatbotID, filename string) (*models.DocumentRecord, error)
}
