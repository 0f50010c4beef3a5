package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-rag-service/internal/ai"
	"pdf-rag-service/models"
	"pdf-rag-service/services"
	"pdf-rag-service/utils"
)

// HandleRAGChat answers a question using the chatbot's indexed documents.
func HandleRAGChat(ragService *services.RAGService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RAGChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "chatbot_id and user_message are required", gin.H{"error": err.Error()})
			return
		}

		resp, err := ragService.Answer(c.Request.Context(), &req)
		if err != nil {
			if errors.Is(err, ai.ErrMissingAPIKey) {
				utils.RespondWithError(c, http.StatusServiceUnavailable, "llm_not_configured",
					"LLM API key is not configured", nil)
				return
			}
			utils.RespondWithUpstreamError(c, "answer generation", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
