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

func TestAskRequiresAPIKey(t *testing.T) {
	client := NewLLMClient(&config.Config{GroqModel: "llama-3.1-8b-instant"})

	_, err := client.Ask(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestAskSendsChatCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, "the prompt", req.Messages[1].Content)
		assert.Equal(t, 512, req.MaxTokens)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "the answer"}},
			},
		})
	}))
	defer srv.Close()

	client := NewLLMClient(&config.Config{GroqAPIKey: "test-key", GroqModel: "llama-3.1-8b-instant"})
	client.baseURL = srv.URL

	answer, err := client.Ask(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestAskUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"over capacity"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewLLMClient(&config.Config{GroqAPIKey: "test-key", GroqModel: "llama-3.1-8b-instant"})
	client.baseURL = srv.URL

	_, err := client.Ask(context.Background(), "the prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
