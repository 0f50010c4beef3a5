package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag-service/internal/textproc"
	"pdf-rag-service/models"
)

type fakeStorage struct {
	objects map[string][]byte
}

func (f *fakeStorage) Get(_ context.Context, objectName string) ([]byte, error) {
	data, ok := f.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectName)
	}
	return data, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ string, _ []byte) (string, error) {
	return f.text, f.err
}

type fakeEmbedder struct {
	dimension int
	err       error
	calls     [][]string
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, f.dimension)
		vec[0] = float32(len(text))
		vectors[i] = vec
	}
	return vectors, nil
}

type fakeVectorStore struct {
	ensured    map[string]int
	deleted    []string
	upserted   map[string][]models.StoredPoint
	searchHits []models.RetrievalHit
	searchErr  error
	opOrder    []string
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{
		ensured:  make(map[string]int),
		upserted: make(map[string][]models.StoredPoint),
	}
}

func (f *fakeVectorStore) EnsureCollection(_ context.Context, collection string, dimension int) error {
	f.ensured[collection] = dimension
	f.opOrder = append(f.opOrder, "ensure")
	return nil
}

func (f *fakeVectorStore) Upsert(_ context.Context, collection string, points []models.StoredPoint) error {
	f.upserted[collection] = append(f.upserted[collection], points...)
	f.opOrder = append(f.opOrder, "upsert")
	return nil
}

func (f *fakeVectorStore) DeleteByFilename(_ context.Context, collection, filename string) error {
	f.deleted = append(f.deleted, collection+"/"+filename)
	f.opOrder = append(f.opOrder, "delete")
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, _ string, _ []float32, _ int) ([]models.RetrievalHit, error) {
	return f.searchHits, f.searchErr
}

type fakeRegistry struct {
	statuses  []string
	completed bool
	failedMsg string
}

func (f *fakeRegistry) SetStatus(_ context.Context, _, _, status string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeRegistry) MarkCompleted(_ context.Context, _, _ string, _, _ int) error {
	f.completed = true
	f.statuses = append(f.statuses, models.StatusCompleted)
	return nil
}

func (f *fakeRegistry) MarkFailed(_ context.Context, _, _, errMsg string) error {
	f.failedMsg = errMsg
	f.statuses = append(f.statuses, models.StatusFailed)
	return nil
}

func (f *fakeRegistry) Get(_ context.Context, _, _ string) (*models.DocumentRecord, error) {
	return nil, ErrDocumentNotFound
}

func newTestDocumentService(t *testing.T, text string) (*DocumentService, *fakeEmbedder, *fakeVectorStore, *fakeRegistry) {
	t.Helper()

	chunker, err := textproc.NewChunker(120, 20)
	require.NoError(t, err)

	embedder := &fakeEmbedder{dimension: 4}
	vectors := newFakeVectorStore()
	registry := &fakeRegistry{}

	svc := NewDocumentService(
		&fakeStorage{objects: map[string][]byte{"bot-1/manual.pdf": []byte("%PDF-raw")}},
		&fakeExtractor{text: text},
		chunker,
		embedder,
		vectors,
		registry,
		nil,
	)
	return svc, embedder, vectors, registry
}

func TestProcessIndexesDocument(t *testing.T) {
	text := strings.Repeat("The warranty covers manufacturing defects for two years.\n\n", 6)
	svc, embedder, vectors, registry := newTestDocumentService(t, text)

	result, err := svc.Process(context.Background(), "bot-1", "manual.pdf")
	require.NoError(t, err)

	assert.Equal(t, "chatbot_bot-1", result.Collection)
	assert.Greater(t, result.TotalChunks, 1)
	assert.Equal(t, 4, result.Dimension)
	assert.Greater(t, result.CharacterCount, 0)

	// One embedding call for the whole batch of chunks.
	require.Len(t, embedder.calls, 1)
	assert.Len(t, embedder.calls[0], result.TotalChunks)

	assert.Equal(t, 4, vectors.ensured["chatbot_bot-1"])
	assert.Len(t, vectors.upserted["chatbot_bot-1"], result.TotalChunks)

	// Stale points are cleared before the new ones land.
	assert.Equal(t, []string{"ensure", "delete", "upsert"}, vectors.opOrder)
	assert.Contains(t, vectors.deleted, "chatbot_bot-1/manual.pdf")

	// Registry walked processing -> completed.
	assert.Equal(t, []string{models.StatusProcessing, models.StatusCompleted}, registry.statuses)
}

func TestProcessPointPayloads(t *testing.T) {
	text := strings.Repeat("Refunds are issued within fourteen days of the request.\n\n", 6)
	svc, _, vectors, _ := newTestDocumentService(t, text)

	result, err := svc.Process(context.Background(), "bot-1", "manual.pdf")
	require.NoError(t, err)

	points := vectors.upserted["chatbot_bot-1"]
	require.Len(t, points, result.TotalChunks)
	for _, p := range points {
		assert.Equal(t, "bot-1", p.Payload.ChatbotID)
		assert.Equal(t, "manual.pdf", p.Payload.Filename)
		assert.NotEmpty(t, p.Payload.Text)
		assert.NotEmpty(t, p.ID)
	}
}

func TestPointIDDeterministic(t *testing.T) {
	first := pointID("bot-1", "manual.pdf", 3)
	second := pointID("bot-1", "manual.pdf", 3)
	other := pointID("bot-1", "manual.pdf", 4)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, first, pointID("bot-2", "manual.pdf", 3))
}

func TestProcessEmbeddingFailureMarksFailed(t *testing.T) {
	svc, embedder, vectors, registry := newTestDocumentService(t, "Some document text that is long enough to chunk.")
	embedder.err = errors.New("embedding service unavailable")

	_, err := svc.Process(context.Background(), "bot-1", "manual.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed chunks")

	// Nothing reaches the index on failure.
	assert.Empty(t, vectors.upserted)
	assert.Contains(t, registry.failedMsg, "embedding service unavailable")
	assert.Equal(t, models.StatusFailed, registry.statuses[len(registry.statuses)-1])
}

func TestProcessEmptyDocumentClearsIndex(t *testing.T) {
	svc, embedder, vectors, _ := newTestDocumentService(t, "   \n\n  ")

	result, err := svc.Process(context.Background(), "bot-1", "manual.pdf")
	require.NoError(t, err)

	assert.Zero(t, result.TotalChunks)
	assert.Empty(t, embedder.calls)
	assert.Contains(t, vectors.deleted, "chatbot_bot-1/manual.pdf")
	assert.Empty(t, vectors.upserted)
}

func TestProcessMissingObject(t *testing.T) {
	svc, _, _, registry := newTestDocumentService(t, "irrelevant")

	_, err := svc.Process(context.Background(), "bot-1", "missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch document")
	assert.Equal(t, models.StatusFailed, registry.statuses[len(registry.statuses)-1])
}

func TestChunksNormalizesBeforeSplitting(t *testing.T) {
	svc, _, _, _ := newTestDocumentService(t, "First  line\r\nSecond   line\n\n\n\nNext paragraph")

	chunks, err := svc.Chunks(context.Background(), "bot-1", "manual.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.NotContains(t, chunk, "\r")
		assert.NotContains(t, chunk, "  ")
	}
}

func TestEmbedReturnsAlignedVectors(t *testing.T) {
	text := strings.Repeat("Support is available on weekdays between nine and five.\n\n", 5)
	svc, _, _, _ := newTestDocumentService(t, text)

	chunks, vectors, err := svc.Embed(context.Background(), "bot-1", "manual.pdf")
	require.NoError(t, err)
	require.Equal(t, len(chunks), len(vectors))
	for i, vec := range vectors {
		require.Len(t, vec, 4)
		assert.Equal(t, float32(len(chunks[i])), vec[0])
	}
}
