package services

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/similarity"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

const testModel = "text-embedding-3-small"

// --- Mock implementations ---

// mockAdapter implements driven.EmbeddingAdapter for testing.
type mockAdapter struct {
	provider domain.AIProvider
	vector   []float32
	byText   map[string][]float32
	err      error
	block    bool
	onEmbed  func(text string)

	mu        sync.Mutex
	calls     int
	lastModel string
	lastCreds domain.Credentials
}

func (m *mockAdapter) Provider() domain.AIProvider {
	return m.provider
}

func (m *mockAdapter) SupportsModel(model string) bool {
	for _, known := range domain.ProviderModels()[m.provider] {
		if known == model {
			return true
		}
	}
	return false
}

func (m *mockAdapter) GenerateEmbedding(
	ctx context.Context, text, model string, creds domain.Credentials,
) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.lastModel = model
	m.lastCreds = creds
	m.mu.Unlock()

	if m.onEmbed != nil {
		m.onEmbed(text)
	}
	if m.block {
		<-ctx.Done()
		return nil, &domain.ProviderError{Provider: m.provider, Message: "timeout", Err: ctx.Err()}
	}
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.byText[text]; ok {
		return v, nil
	}
	return m.vector, nil
}

func (m *mockAdapter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockRegistry implements driven.EmbeddingRegistry for testing.
type mockRegistry map[domain.AIProvider]driven.EmbeddingAdapter

func (r mockRegistry) Adapter(provider domain.AIProvider) (driven.EmbeddingAdapter, bool) {
	a, ok := r[provider]
	return a, ok
}

// mockSettings implements SettingsReader for testing.
type mockSettings struct {
	settings domain.AppSettings
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

// --- Helpers ---

func ptr[T any](v T) *T { return &v }

// unitAt returns a 2D unit vector whose cosine with [1, 0] is sim.
func unitAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

var queryVector = []float32{1, 0}

func openAIProviders(t *testing.T) *memory.ProviderConfigStore {
	t.Helper()
	store := memory.NewProviderConfigStore()
	require.NoError(t, store.Save(context.Background(), domain.ProviderConfig{
		Provider: domain.AIProviderOpenAI,
		Model:    testModel,
		Active:   true,
	}))
	store.SetAPIKey(domain.AIProviderOpenAI, "sk-test")
	return store
}

func newTestEmbedder(t *testing.T, adapter *mockAdapter) *Embedder {
	t.Helper()
	return NewEmbedder(openAIProviders(t), mockRegistry{adapter.provider: adapter}, nil)
}

func newTestEngine() *SimilarityEngine {
	return NewSimilarityEngine(similarity.NewPortable())
}

func newOpenAIAdapter() *mockAdapter {
	return &mockAdapter{provider: domain.AIProviderOpenAI, vector: queryVector}
}

// seedChunk stores a chunk of a completed document with one embedding per
// given field.
func seedChunk(
	t *testing.T, store *memory.ChunkStore, docID, chunkID string, vectors map[domain.ChunkField][]float32,
) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.GetDocument(ctx, docID); err != nil {
		require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: docID, Status: domain.DocumentStatusCompleted}))
	}

	chunk := &domain.Chunk{ID: chunkID, DocumentID: docID, Content: "content of " + chunkID}
	for field := range vectors {
		switch field {
		case domain.FieldHeaderContext:
			chunk.HeaderContext = "header of " + chunkID
		case domain.FieldNotes:
			chunk.Notes = "notes of " + chunkID
		case domain.FieldDetails:
			chunk.Details = "details of " + chunkID
		}
	}
	require.NoError(t, store.SaveChunk(ctx, chunk))

	for field, v := range vectors {
		require.NoError(t, store.SaveEmbedding(ctx, &domain.Embedding{
			ChunkID: chunkID,
			Field:   field,
			Model:   testModel,
			Vector:  domain.EncodeVector(v),
		}))
	}
}
