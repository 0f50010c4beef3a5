package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
)

// ErrMissingAPIKey signals that the LLM is unconfigured. The key is only
// required at answer time, not at startup.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY is not set")

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	llmSystemMessage  = "You are a helpful assistant. Answer strictly using the provided context."
	llmTemperature    = 0.2
	llmMaxTokens      = 512
	llmRequestTimeout = 120 * time.Second
)

// LLMClient calls the Groq OpenAI-compatible chat completions API.
type LLMClient struct {
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewLLMClient(cfg *config.Config) *LLMClient {
	return &LLMClient{
		apiKey:     cfg.GroqAPIKey,
		model:      cfg.GroqModel,
		baseURL:    groqBaseURL,
		httpClient: &http.Client{Timeout: llmRequestTimeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "GroqAPI",
			MaxRequests: 5,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		rateLimiter: rate.NewLimiter(rate.Limit(0.5), 5),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask sends the prompt to the chat model and returns its answer.
func (c *LLMClient) Ask(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *LLMClient) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: llmSystemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: llmTemperature,
		MaxTokens:   llmMaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat completion returned %d: %s", resp.StatusCode, string(body))
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
