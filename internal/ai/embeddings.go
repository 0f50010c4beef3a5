package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"pdf-rag-service/internal/config"
	"pdf-rag-service/internal/logger"
)

// EmbeddingClient maps text to fixed-dimension vectors. The default provider
// is a local Ollama instance; "google" uses the Generative AI SDK instead.
// The upstream only embeds one text per call, so batches fan out as bounded
// concurrent requests.
type EmbeddingClient struct {
	provider    string
	ollamaURL   string
	ollamaModel string
	googleModel string
	concurrency int

	httpClient  *http.Client
	genaiClient *genai.Client
	breaker     *gobreaker.CircuitBreaker
}

func NewEmbeddingClient(cfg *config.Config) (*EmbeddingClient, error) {
	c := &EmbeddingClient{
		provider:    cfg.EmbeddingsProvider,
		ollamaURL:   cfg.OllamaURL,
		ollamaModel: cfg.OllamaEmbedModel,
		googleModel: cfg.GoogleEmbeddingsModel,
		concurrency: cfg.EmbedConcurrency,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
	}
	if c.concurrency <= 0 {
		c.concurrency = 8
	}

	switch cfg.EmbeddingsProvider {
	case "ollama", "":
		c.provider = "ollama"
	case "google":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		c.genaiClient = client
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "EmbeddingService",
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
	})

	return c, nil
}

// EmbedTexts returns one vector per input text, in input order. Any failed
// call fails the whole batch; there are no partial results.
func (c *EmbeddingClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := c.embedOne(ctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// All vectors in one batch must share a dimension.
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("inconsistent embedding dimension: vector %d has %d, expected %d", i, len(v), dim)
		}
	}

	return vectors, nil
}

func (c *EmbeddingClient) embedOne(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		switch c.provider {
		case "google":
			return c.embedGoogle(ctx, text)
		default:
			return c.embedOllama(ctx, text)
		}
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

func (c *EmbeddingClient) embedOllama(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{
		"model":  c.ollamaModel,
		"prompt": text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ollamaURL+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out.Embedding, nil
}

func (c *EmbeddingClient) embedGoogle(ctx context.Context, text string) ([]float32, error) {
	model := c.genaiClient.EmbeddingModel(c.googleModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

// Close releases the underlying SDK client, if any.
func (c *EmbeddingClient) Close() error {
	if c.genaiClient != nil {
		return c.genaiClient.Close()
	}
	return nil
}
