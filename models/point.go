package models

// ChunkPayload is the metadata stored alongside each vector in the index.
type ChunkPayload struct {
	ChatbotID string `json:"chatbot_id"`
	Filename  string `json:"filename"`
	Text      string `json:"text"`
}

// StoredPoint is one chunk persisted in a vector index collection.
type StoredPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload ChunkPayload `json:"payload"`
}

// RetrievalHit is a similarity search result, ordered by descending score.
type RetrievalHit struct {
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
	Filename string  `json:"filename"`
}
