package routes

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
	"pdf-rag-service/internal/queue"
	"pdf-rag-service/internal/storage"
	"pdf-rag-service/models"
	"pdf-rag-service/services"
	"pdf-rag-service/utils"
)

const (
	textPreviewChars = 1000
	chunkPreviewN    = 3
	vectorPreviewN   = 10
)

// HandleDocumentUpload stores an uploaded PDF in object storage and records
// it in the document registry. Processing happens in a separate call.
func HandleDocumentUpload(cfg *config.Config, store *storage.ObjectStore, registry services.StatusRecorder, cache *services.TextCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatbotID := c.PostForm("chatbot_id")
		if chatbotID == "" {
			utils.RespondWithBadRequest(c, "chatbot_id is required", nil)
			return
		}

		if err := c.Request.ParseMultipartForm(cfg.MaxFileSize); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "no_file",
				"No PDF file provided", nil)
			return
		}
		defer file.Close()

		if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file_type",
				"Only PDF files are allowed", nil)
			return
		}
		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large",
				"File size exceeds maximum limit", nil)
			return
		}

		// Basic PDF header validation without loading the whole file
		headerBuf := make([]byte, 5)
		if _, err := io.ReadFull(file, headerBuf); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file",
				"Cannot read file header", nil)
			return
		}
		if string(headerBuf[:4]) != "%PDF" {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_pdf",
				"File does not appear to be a valid PDF", nil)
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			utils.RespondWithInternalError(c, "Failed to reset file for saving", nil)
			return
		}

		objectName := storage.ObjectName(chatbotID, header.Filename)
		if err := store.Put(c.Request.Context(), objectName, io.LimitReader(file, cfg.MaxFileSize), header.Size, "application/pdf"); err != nil {
			utils.RespondWithUpstreamError(c, "object storage", err)
			return
		}

		// A re-upload invalidates any cached transcript of the old version
		cache.Invalidate(c.Request.Context(), chatbotID, header.Filename)

		if err := registry.SetStatus(c.Request.Context(), chatbotID, header.Filename, models.StatusUploaded); err != nil {
			logger.Warn("Failed to record upload status", "chatbot_id", chatbotID, "filename", header.Filename, "error", err)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":    "Document uploaded",
			"chatbot_id": chatbotID,
			"filename":   header.Filename,
			"size":       header.Size,
			"status":     models.StatusUploaded,
		})
	}
}

// HandleDocumentOCR extracts a document's text and returns a preview.
func HandleDocumentOCR(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "chatbot_id and filename are required", gin.H{"error": err.Error()})
			return
		}

		text, err := documents.Text(c.Request.Context(), req.ChatbotID, req.Filename)
		if err != nil {
			utils.RespondWithUpstreamError(c, "text extraction", err)
			return
		}

		// Previews count characters, not bytes, so multibyte text is
		// never cut mid-character.
		preview := text
		if runes := []rune(text); len(runes) > textPreviewChars {
			preview = string(runes[:textPreviewChars])
		}

		c.JSON(http.StatusOK, gin.H{
			"chatbot_id":       req.ChatbotID,
			"filename":         req.Filename,
			"text_preview":     preview,
			"total_characters": utf8.RuneCountInString(text),
		})
	}
}

// HandleDocumentChunk extracts and chunks a document, returning chunk stats
// and the first few chunks.
func HandleDocumentChunk(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "chatbot_id and filename are required", gin.H{"error": err.Error()})
			return
		}

		chunks, err := documents.Chunks(c.Request.Context(), req.ChatbotID, req.Filename)
		if err != nil {
			utils.RespondWithUpstreamError(c, "chunking", err)
			return
		}

		preview := chunks
		if len(preview) > chunkPreviewN {
			preview = preview[:chunkPreviewN]
		}

		c.JSON(http.StatusOK, gin.H{
			"chatbot_id":     req.ChatbotID,
			"filename":       req.Filename,
			"total_chunks":   len(chunks),
			"chunks_preview": preview,
		})
	}
}

// HandleDocumentEmbed runs extraction, chunking and embedding without
// touching the index. Useful for verifying the embedding service.
func HandleDocumentEmbed(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "chatbot_id and filename are required", gin.H{"error": err.Error()})
			return
		}

		chunks, vectors, err := documents.Embed(c.Request.Context(), req.ChatbotID, req.Filename)
		if err != nil {
			utils.RespondWithUpstreamError(c, "embedding", err)
			return
		}

		dimension := 0
		var vectorPreview []float32
		if len(vectors) > 0 {
			dimension = len(vectors[0])
			vectorPreview = vectors[0]
			if len(vectorPreview) > vectorPreviewN {
				vectorPreview = vectorPreview[:vectorPreviewN]
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"chatbot_id":     req.ChatbotID,
			"filename":       req.Filename,
			"total_chunks":   len(chunks),
			"dimension":      dimension,
			"vector_preview": vectorPreview,
		})
	}
}

// HandleDocumentProcess runs the full ingestion pipeline synchronously.
func HandleDocumentProcess(documents *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "chatbot_id and filename are required", gin.H{"error": err.Error()})
			return
		}

		result, err := documents.Process(c.Request.Context(), req.ChatbotID, req.Filename)
		if err != nil {
			utils.RespondWithUpstreamError(c, "processing", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Document processed and indexed",
			"result":  result,
		})
	}
}

// HandleDocumentProcessAsync enqueues the ingestion pipeline and returns
// immediately. Progress is visible via the status endpoint.
func HandleDocumentProcessAsync(queueClient *asynq.Client, registry services.StatusRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "chatbot_id and filename are required", gin.H{"error": err.Error()})
			return
		}

		task, err := queue.NewDocumentProcessTask(req.ChatbotID, req.Filename)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to create processing task", gin.H{"error": err.Error()})
			return
		}

		info, err := queueClient.Enqueue(task)
		if err != nil {
			utils.RespondWithUpstreamError(c, "task queue", err)
			return
		}

		if err := registry.SetStatus(c.Request.Context(), req.ChatbotID, req.Filename, models.StatusProcessing); err != nil {
			logger.Warn("Failed to record processing status", "chatbot_id", req.ChatbotID, "filename", req.Filename, "error", err)
		}

		c.JSON(http.StatusAccepted, gin.H{
			"message":    "Document accepted for processing",
			"chatbot_id": req.ChatbotID,
			"filename":   req.Filename,
			"task_id":    info.ID,
			"status":     models.StatusProcessing,
		})
	}
}

// HandleDocumentStatus reports the registry record for one document.
func HandleDocumentStatus(registry services.StatusRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		chatbotID := c.Query("chatbot_id")
		filename := c.Query("filename")
		if chatbotID == "" || filename == "" {
			utils.RespondWithBadRequest(c, "chatbot_id and filename are required", nil)
			return
		}

		record, err := registry.Get(c.Request.Context(), chatbotID, filename)
		if err != nil {
			if errors.Is(err, services.ErrDocumentNotFound) {
				utils.RespondWithNotFound(c, "Document not found")
				return
			}
			utils.RespondWithInternalError(c, "Failed to retrieve document status", gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, record)
	}
}
