package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag-service/internal/config"
)

func newOllamaTestServer(t *testing.T, embed func(prompt string) []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)

		json.NewEncoder(w).Encode(map[string]any{"embedding": embed(req.Prompt)})
	}))
}

func testEmbeddingConfig(url string) *config.Config {
	return &config.Config{
		EmbeddingsProvider: "ollama",
		OllamaURL:          url,
		OllamaEmbedModel:   "nomic-embed-text",
		EmbedConcurrency:   4,
	}
}

func TestEmbedTextsPreservesOrder(t *testing.T) {
	srv := newOllamaTestServer(t, func(prompt string) []float32 {
		// Encode the prompt length so each text gets a distinguishable vector.
		return []float32{float32(len(prompt)), 1.0}
	})
	defer srv.Close()

	client, err := NewEmbeddingClient(testEmbeddingConfig(srv.URL))
	require.NoError(t, err)

	vectors, err := client.EmbedTexts(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(3), vectors[1][0])
	assert.Equal(t, float32(2), vectors[2][0])
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	client, err := NewEmbeddingClient(testEmbeddingConfig("http://unused"))
	require.NoError(t, err)

	vectors, err := client.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedTextsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewEmbeddingClient(testEmbeddingConfig(srv.URL))
	require.NoError(t, err)

	// No partial results on failure.
	vectors, err := client.EmbedTexts(context.Background(), []string{"x", "y"})
	assert.Error(t, err)
	assert.Nil(t, vectors)
}

func TestNewEmbeddingClientUnknownProvider(t *testing.T) {
	_, err := NewEmbeddingClient(&config.Config{EmbeddingsProvider: "mystery"})
	assert.Error(t, err)
}

func TestNewEmbeddingClientGoogleRequiresKey(t *testing.T) {
	_, err := NewEmbeddingClient(&config.Config{EmbeddingsProvider: "google"})
	assert.Error(t, err)
}
