package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/storage"
	"pdf-rag-service/internal/textproc"
	"pdf-rag-service/internal/vectorstore/qdrant"
	"pdf-rag-service/models"
)

// ProcessResult summarizes one full ingestion run.
type ProcessResult struct {
	ChatbotID      string `json:"chatbot_id"`
	Filename       string `json:"filename"`
	Collection     string `json:"collection"`
	TotalChunks    int    `json:"total_chunks"`
	CharacterCount int    `json:"character_count"`
	Dimension      int    `json:"dimension"`
}

// DocumentService runs the ingestion pipeline for uploaded documents:
// extract, chunk, embed, index. Collaborators are injected so tests can
// substitute fakes.
type DocumentService struct {
	storage   ObjectStorage
	extractor TextExtractor
	chunker   *textproc.Chunker
	embedder  Embedder
	vectors   VectorStore
	registry  StatusRecorder
	cache     *TextCache
}

func NewDocumentService(
	storage ObjectStorage,
	extractor TextExtractor,
	chunker *textproc.Chunker,
	embedder Embedder,
	vectors VectorStore,
	registry StatusRecorder,
	cache *TextCache,
) *DocumentService {
	return &DocumentService{
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectors:   vectors,
		registry:  registry,
		cache:     cache,
	}
}

// Text fetches the document from storage and extracts its text, serving from
// the transcript cache when possible. The returned text is normalized.
func (s *DocumentService) Text(ctx context.Context, chatbotID, filename string) (string, error) {
	if cached, ok := s.cache.Get(ctx, chatbotID, filename); ok {
		logger.Debug("Transcript cache hit", "chatbot_id", chatbotID, "filename", filename)
		return cached, nil
	}

	data, err := s.storage.Get(ctx, storage.ObjectName(chatbotID, filename))
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}

	raw, err := s.extractor.ExtractText(ctx, filename, data)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	text := textproc.NormalizeText(raw)
	s.cache.Set(ctx, chatbotID, filename, text)
	return text, nil
}

// Chunks extracts the document's text and splits it into chunks.
func (s *DocumentService) Chunks(ctx context.Context, chatbotID, filename string) ([]string, error) {
	text, err := s.Text(ctx, chatbotID, filename)
	if err != nil {
		return nil, err
	}
	return s.chunker.Split(text), nil
}

// Embed extracts, chunks and embeds the document without touching the index.
// Used by the preview endpoint.
func (s *DocumentService) Embed(ctx context.Context, chatbotID, filename string) ([]string, [][]float32, error) {
	chunks, err := s.Chunks(ctx, chatbotID, filename)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return nil, nil, nil
	}

	vectors, err := s.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return nil, nil, fmt.Errorf("embed chunks: %w", err)
	}
	return chunks, vectors, nil
}

// Process runs the full pipeline and makes the document searchable. Existing
// points for the same filename are removed first, so re-ingesting a shorter
// version of a document leaves no stale chunks behind.
func (s *DocumentService) Process(ctx context.Context, chatbotID, filename string) (*ProcessResult, error) {
	if err := s.registry.SetStatus(ctx, chatbotID, filename, models.StatusProcessing); err != nil {
		logger.Warn("Failed to record processing status", "chatbot_id", chatbotID, "filename", filename, "error", err)
	}

	result, err := s.process(ctx, chatbotID, filename)
	if err != nil {
		if regErr := s.registry.MarkFailed(ctx, chatbotID, filename, err.Error()); regErr != nil {
			logger.Warn("Failed to record failure status", "chatbot_id", chatbotID, "filename", filename, "error", regErr)
		}
		return nil, err
	}

	if err := s.registry.MarkCompleted(ctx, chatbotID, filename, result.TotalChunks, result.CharacterCount); err != nil {
		logger.Warn("Failed to record completed status", "chatbot_id", chatbotID, "filename", filename, "error", err)
	}
	return result, nil
}

func (s *DocumentService) process(ctx context.Context, chatbotID, filename string) (*ProcessResult, error) {
	text, err := s.Text(ctx, chatbotID, filename)
	if err != nil {
		return nil, err
	}

	collection := qdrant.CollectionName(chatbotID)
	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		// Nothing to index, but drop any points from a previous version.
		if err := s.vectors.DeleteByFilename(ctx, collection, filename); err != nil {
			return nil, fmt.Errorf("delete stale points: %w", err)
		}
		return &ProcessResult{
			ChatbotID:  chatbotID,
			Filename:   filename,
			Collection: collection,
		}, nil
	}

	vectors, err := s.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	dimension := len(vectors[0])
	if err := s.vectors.EnsureCollection(ctx, collection, dimension); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	if err := s.vectors.DeleteByFilename(ctx, collection, filename); err != nil {
		return nil, fmt.Errorf("delete stale points: %w", err)
	}

	points := make([]models.StoredPoint, len(chunks))
	for i, chunk := range chunks {
		points[i] = models.StoredPoint{
			ID:     pointID(chatbotID, filename, i),
			Vector: vectors[i],
			Payload: models.ChunkPayload{
				ChatbotID: chatbotID,
				Filename:  filename,
				Text:      chunk,
			},
		}
	}
	if err := s.vectors.Upsert(ctx, collection, points); err != nil {
		return nil, fmt.Errorf("upsert points: %w", err)
	}

	charCount := utf8.RuneCountInString(text)
	logger.Info("Document indexed",
		"chatbot_id", chatbotID,
		"filename", filename,
		"chunks", len(chunks),
		"characters", charCount,
	)

	return &ProcessResult{
		ChatbotID:      chatbotID,
		Filename:       filename,
		Collection:     collection,
		TotalChunks:    len(chunks),
		CharacterCount: charCount,
		Dimension:      dimension,
	}, nil
}

// pointID is deterministic per (chatbot, filename, chunk index), so
// re-ingesting a document overwrites its previous points in place.
func pointID(chatbotID, filename string, index int) string {
	name := fmt.Sprintf("%s/%s#%d", chatbotID, filename, index)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Status returns the registry record for a document.
func (s *DocumentService) Status(ctx context.Context, chatbotID, filename string) (*models.DocumentRecord, error) {
	return s.registry.Get(ctx, chatbotID, filename)
}
