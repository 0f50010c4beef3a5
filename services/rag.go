package services

import (
	"context"
	"fmt"

	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/rag"
	"pdf-rag-service/internal/vectorstore/qdrant"
	"pdf-rag-service/models"
)

// RAGService answers questions grounded in a chatbot's indexed documents.
type RAGService struct {
	embedder       Embedder
	vectors        VectorStore
	llm            LLM
	searchLimit    int
	maxPromptChars int
}

func NewRAGService(embedder Embedder, vectors VectorStore, llm LLM, searchLimit, maxPromptChars int) *RAGService {
	if searchLimit <= 0 {
		searchLimit = 5
	}
	if maxPromptChars <= 0 {
		maxPromptChars = rag.DefaultMaxPromptChars
	}
	return &RAGService{
		embedder:       embedder,
		vectors:        vectors,
		llm:            llm,
		searchLimit:    searchLimit,
		maxPromptChars: maxPromptChars,
	}
}

// Answer embeds the question, retrieves the nearest chunks and asks the LLM
// with the retrieved context and the conversation history.
func (s *RAGService) Answer(ctx context.Context, req *models.RAGChatRequest) (*models.RAGChatResponse, error) {
	vectors, err := s.embedder.EmbedTexts(ctx, []string{req.UserMessage})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	collection := qdrant.CollectionName(req.ChatbotID)
	hits, err := s.vectors.Search(ctx, collection, vectors[0], s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]string, len(hits))
	for i, hit := range hits {
		chunks[i] = hit.Text
	}

	prompt := rag.BuildPrompt(chunks, req.ChatHistory, req.UserMessage)
	prompt = rag.TrimPrompt(prompt, s.maxPromptChars)

	answer, err := s.llm.Ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	logger.Debug("RAG answer generated",
		"chatbot_id", req.ChatbotID,
		"hits", len(hits),
		"prompt_chars", len(prompt),
	)

	return &models.RAGChatResponse{
		Answer:  answer,
		Sources: hits,
	}, nil
}
