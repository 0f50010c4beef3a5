package models

import "time"

// Document processing statuses tracked in the registry.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DocumentRecord tracks one uploaded document per (chatbot_id, filename).
// The raw bytes live in object storage; this record only carries pipeline state.
type DocumentRecord struct {
	ChatbotID      string    `json:"chatbot_id" bson:"chatbot_id"`
	Filename       string    `json:"filename" bson:"filename"`
	Status         string    `json:"status" bson:"status"`
	TotalChunks    int       `json:"total_chunks" bson:"total_chunks"`
	CharacterCount int       `json:"character_count" bson:"character_count"`
	Error          string    `json:"error,omitempty" bson:"error,omitempty"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// DocumentRequest identifies a previously uploaded document.
type DocumentRequest struct {
	ChatbotID string `json:"chatbot_id" binding:"required"`
	Filename  string `json:"filename" binding:"required"`
}
