package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag-service/models"
)

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "chatbot_abc", CollectionName("abc"))
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var calls []string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, c.EnsureCollection(context.Background(), "chatbot_x", 768))

	assert.Equal(t, []string{"GET /collections/chatbot_x", "PUT /collections/chatbot_x"}, calls)
	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(768), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])
}

func TestEnsureCollectionNoOpWhenExists(t *testing.T) {
	var calls []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method != http.MethodGet {
			// Creating an existing collection is an error in Qdrant.
			w.WriteHeader(http.StatusConflict)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "green"}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, c.EnsureCollection(context.Background(), "chatbot_x", 768))
	require.NoError(t, c.EnsureCollection(context.Background(), "chatbot_x", 768))

	assert.Equal(t, []string{"GET /collections/chatbot_x", "GET /collections/chatbot_x"}, calls)
}

func TestEnsureCollectionRejectsBadDimension(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})
	assert.Error(t, c.EnsureCollection(context.Background(), "chatbot_x", 0))
}

func TestUpsertSendsTypedPoints(t *testing.T) {
	var gotBody struct {
		Points []models.StoredPoint `json:"points"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	points := []models.StoredPoint{
		{
			ID:     "11111111-1111-1111-1111-111111111111",
			Vector: []float32{0.1, 0.2},
			Payload: models.ChunkPayload{
				ChatbotID: "bot1",
				Filename:  "doc.pdf",
				Text:      "chunk text",
			},
		},
	}
	require.NoError(t, c.Upsert(context.Background(), "chatbot_bot1", points))

	require.Len(t, gotBody.Points, 1)
	assert.Equal(t, points[0], gotBody.Points[0])
}

func TestSearchParsesHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chatbot_bot1/points/search", r.URL.Path)

		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, float64(5), req["limit"])
		assert.Equal(t, true, req["with_payload"])

		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"score": 0.91, "payload": map[string]any{"chatbot_id": "bot1", "filename": "a.pdf", "text": "best"}},
				{"score": 0.55, "payload": map[string]any{"chatbot_id": "bot1", "filename": "b.pdf", "text": "worse"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	hits, err := c.Search(context.Background(), "chatbot_bot1", []float32{0.5}, 5)
	require.NoError(t, err)

	require.Len(t, hits, 2)
	assert.Equal(t, models.RetrievalHit{Text: "best", Score: 0.91, Filename: "a.pdf"}, hits[0])
	assert.Equal(t, models.RetrievalHit{Text: "worse", Score: 0.55, Filename: "b.pdf"}, hits[1])
}

func TestSearchCollectionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "chatbot_missing", []float32{0.5}, 5)
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestDeleteByFilenameTolerantOfMissingCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	assert.NoError(t, c.DeleteByFilename(context.Background(), "chatbot_missing", "doc.pdf"))
}

func TestDeleteByFilenameFilter(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/chatbot_bot1/points/delete", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, c.DeleteByFilename(context.Background(), "chatbot_bot1", "doc.pdf"))

	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "filename", cond["key"])
	assert.Equal(t, map[string]any{"value": "doc.pdf"}, cond["match"])
}
