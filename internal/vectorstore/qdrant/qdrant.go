package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pdf-rag-service/models"
)

// ErrCollectionNotFound is returned by Search when the collection does not
// exist, i.e. no document was ever ingested for that chatbot.
var ErrCollectionNotFound = errors.New("qdrant: collection not found")

const collectionPrefix = "chatbot_"

// CollectionName returns the per-chatbot collection holding its vectors.
func CollectionName(chatbotID string) string {
	return collectionPrefix + chatbotID
}

// Client is a minimal REST client to Qdrant. Collections use cosine distance
// and are created on demand.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection sized for dimension vectors under
// cosine similarity. Creating an existing collection is an error in Qdrant,
// so the collection is checked first and only created when missing.
func (c *Client) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("qdrant: invalid vector dimension %d", dimension)
	}

	err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", c.baseURL, collection), nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCollectionNotFound) {
		return err
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", c.baseURL, collection), body, nil)
}

// Upsert writes points into the collection, replacing any points that share
// an id. Point IDs are deterministic per (chatbot, filename, index), so
// re-ingesting a document rewrites its own points.
func (c *Client) Upsert(ctx context.Context, collection string, points []models.StoredPoint) error {
	if len(points) == 0 {
		return nil
	}
	body := map[string]any{"points": points}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collection), body, nil)
}

// DeleteByFilename removes every point whose payload filename matches, so a
// shorter re-ingested document leaves no stale tail behind.
func (c *Client) DeleteByFilename(ctx context.Context, collection, filename string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "filename", "match": map[string]any{"value": filename}},
			},
		},
	}
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, collection), body, nil)
	if errors.Is(err, ErrCollectionNotFound) {
		// Nothing ingested yet, nothing to delete.
		return nil
	}
	return err
}

// Search returns up to limit hits ordered by descending cosine similarity.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]models.RetrievalHit, error) {
	if limit <= 0 {
		limit = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64             `json:"score"`
			Payload models.ChunkPayload `json:"payload"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, collection), body, &resp); err != nil {
		return nil, err
	}

	hits := make([]models.RetrievalHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, models.RetrievalHit{
			Text:     r.Payload.Text,
			Score:    r.Score,
			Filename: r.Payload.Filename,
		})
	}
	return hits, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("qdrant: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("qdrant: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrCollectionNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("qdrant: decode response: %w", err)
		}
	}
	return nil
}
