package models

// ChatMessage is a single turn of conversation history.
// Role is one of "user", "assistant" or "system".
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// RAGChatRequest is the body of POST /chat/rag.
type RAGChatRequest struct {
	ChatbotID   string        `json:"chatbot_id" binding:"required"`
	UserMessage string        `json:"user_message" binding:"required"`
	ChatHistory []ChatMessage `json:"chat_history"`
}

// RAGChatResponse carries the generated answer plus the chunks it was grounded on.
type RAGChatResponse struct {
	Answer  string         `json:"answer"`
	Sources []RetrievalHit `json:"sources"`
}
