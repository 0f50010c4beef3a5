package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pdf-rag-service/models"
)

// ErrDocumentNotFound is returned when no registry record exists for the
// requested (chatbot_id, filename).
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRegistry tracks per-document processing state in Mongo.
type DocumentRegistry struct {
	col *mongo.Collection
}

func NewDocumentRegistry(db *mongo.Database) *DocumentRegistry {
	return &DocumentRegistry{col: db.Collection("documents")}
}

// SetStatus upserts the record and moves it to the given status.
func (r *DocumentRegistry) SetStatus(ctx context.Context, chatbotID, filename, status string) error {
	return r.update(ctx, chatbotID, filename, bson.M{"status": status, "error": ""})
}

// MarkCompleted records a successful ingestion with its pipeline stats.
func (r *DocumentRegistry) MarkCompleted(ctx context.Context, chatbotID, filename string, totalChunks, characterCount int) error {
	return r.update(ctx, chatbotID, filename, bson.M{
		"status":          models.StatusCompleted,
		"total_chunks":    totalChunks,
		"character_count": characterCount,
		"error":           "",
	})
}

// MarkFailed records a failed ingestion with the failure message.
func (r *DocumentRegistry) MarkFailed(ctx context.Context, chatbotID, filename, errMsg string) error {
	return r.update(ctx, chatbotID, filename, bson.M{
		"status": models.StatusFailed,
		"error":  errMsg,
	})
}

func (r *DocumentRegistry) update(ctx context.Context, chatbotID, filename string, fields bson.M) error {
	fields["chatbot_id"] = chatbotID
	fields["filename"] = filename
	fields["updated_at"] = time.Now()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"chatbot_id": chatbotID, "filename": filename},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
	return err
}

// Get fetches the registry record for one document.
func (r *DocumentRegistry) Get(ctx context.Context, chatbotID, filename string) (*models.DocumentRecord, error) {
	var rec models.DocumentRecord
	err := r.col.FindOne(ctx, bson.M{"chatbot_id": chatbotID, "filename": filename}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &rec, nil
}
