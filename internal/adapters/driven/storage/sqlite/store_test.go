package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })

	return store
}

// createTestDocument creates a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, id string, status domain.DocumentStatus) {
	t.Helper()
	err := store.ChunkStore().SaveDocument(context.Background(), &domain.Document{ID: id, Title: "Doc " + id, Status: status})
	require.NoError(t, err)
}

// createTestChunk creates a chunk under an existing document.
func createTestChunk(t *testing.T, store *Store, chunk domain.Chunk) {
	t.Helper()
	require.NoError(t, store.ChunkStore().SaveChunk(context.Background(), &chunk))
}

func saveVector(t *testing.T, store *Store, chunkID string, field domain.ChunkField, model string, v []float32) {
	t.Helper()
	err := store.ChunkStore().SaveEmbedding(context.Background(), &domain.Embedding{
		ChunkID:   chunkID,
		Field:     field,
		Model:     model,
		Vector:    domain.EncodeVector(v),
		Dimension: len(v),
	})
	require.NoError(t, err)
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DatabaseFile), store.Path())
	_, err = os.Stat(store.Path())
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	createTestDocument(t, first, "doc-1", domain.DocumentStatusCompleted)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)

	doc, err := second.ChunkStore().GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusCompleted, doc.Status)
}

func TestDocument_SaveGetAndStatus(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "doc-1", Title: "Guide", URI: "file:///guide.md", Metadata: map[string]any{"lang": "en"}}
	require.NoError(t, chunks.SaveDocument(ctx, doc))
	assert.Equal(t, domain.DocumentStatusPending, doc.Status)

	got, err := chunks.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Guide", got.Title)
	assert.Equal(t, "en", got.Metadata["lang"])
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, chunks.SetDocumentStatus(ctx, "doc-1", domain.DocumentStatusCompleted))
	got, err = chunks.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusCompleted, got.Status)

	assert.ErrorIs(t, chunks.SetDocumentStatus(ctx, "missing", domain.DocumentStatusCompleted), domain.ErrNotFound)
	assert.ErrorIs(t, chunks.SetDocumentStatus(ctx, "doc-1", "archived"), domain.ErrInvalidInput)
	_, err = chunks.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDocument_Cascades(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1", domain.DocumentStatusCompleted)
	createTestChunk(t, store, domain.Chunk{ID: "c1", DocumentID: "doc-1", Content: "alpha"})
	saveVector(t, store, "c1", domain.FieldContent, "m", []float32{1, 0})

	require.NoError(t, chunks.DeleteDocument(ctx, "doc-1"))

	_, err := chunks.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	has, err := chunks.HasEmbedding(ctx, "c1", domain.FieldContent, "m")
	require.NoError(t, err)
	assert.False(t, has)
	assert.ErrorIs(t, chunks.DeleteDocument(ctx, "doc-1"), domain.ErrNotFound)
}

func TestSaveChunk_Validation(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	err := chunks.SaveChunk(ctx, &domain.Chunk{ID: "c1", DocumentID: "nope", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	createTestDocument(t, store, "doc-1", domain.DocumentStatusPending)
	err = chunks.SaveChunk(ctx, &domain.Chunk{ID: "c1", DocumentID: "doc-1", Content: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	err = chunks.SaveChunk(ctx, &domain.Chunk{DocumentID: "doc-1", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSaveChunk_DropsOnlyChangedFieldEmbeddings(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1", domain.DocumentStatusCompleted)
	createTestChunk(t, store, domain.Chunk{ID: "c1", DocumentID: "doc-1", Content: "body", Notes: "old note"})
	saveVector(t, store, "c1", domain.FieldContent, "m", []float32{1, 0})
	saveVector(t, store, "c1", domain.FieldNotes, "m", []float32{0, 1})

	createTestChunk(t, store, domain.Chunk{ID: "c1", DocumentID: "doc-1", Content: "body", Notes: "new note"})

	has, err := chunks.HasEmbedding(ctx, "c1", domain.FieldContent, "m")
	require.NoError(t, err)
	assert.True(t, has, "unchanged field keeps its embedding")

	has, err = chunks.HasEmbedding(ctx, "c1", domain.FieldNotes, "m")
	require.NoError(t, err)
	assert.False(t, has, "changed field loses its embedding")

	got, err := chunks.GetChunk(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "new note", got.Notes)
}

func TestSaveEmbedding_Validation(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1", domain.DocumentStatusCompleted)
	createTestChunk(t, store, domain.Chunk{ID: "c1", DocumentID: "doc-1", Content: "body"})

	err := chunks.SaveEmbedding(ctx, &domain.Embedding{
		ChunkID: "c1", Field: domain.FieldContent, Model: "m", Vector: []byte{1, 2, 3}, Dimension: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmbedding)

	err = chunks.SaveEmbedding(ctx, &domain.Embedding{
		ChunkID: "missing", Field: domain.FieldContent, Model: "m", Vector: domain.EncodeVector([]float32{1}), Dimension: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = chunks.SaveEmbedding(ctx, &domain.Embedding{ChunkID: "c1", Field: "summary", Model: "m"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStreamEmbeddedFields(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	createTestDocument(t, store, "done", domain.DocumentStatusCompleted)
	createTestDocument(t, store, "wip", domain.DocumentStatusProcessing)
	createTestChunk(t, store, domain.Chunk{ID: "b", DocumentID: "done", Content: "b", Notes: "n"})
	createTestChunk(t, store, domain.Chunk{ID: "a", DocumentID: "done", Content: "a"})
	createTestChunk(t, store, domain.Chunk{ID: "w", DocumentID: "wip", Content: "w"})
	saveVector(t, store, "b", domain.FieldNotes, "m", []float32{0, 1})
	saveVector(t, store, "b", domain.FieldContent, "m", []float32{1, 0})
	saveVector(t, store, "a", domain.FieldContent, "m", []float32{1, 1})
	saveVector(t, store, "a", domain.FieldContent, "other", []float32{1, 1, 1})
	saveVector(t, store, "w", domain.FieldContent, "m", []float32{1, 0})

	var got []string
	err := chunks.StreamEmbeddedFields(ctx, domain.EmbeddedFieldFilter{Model: "m"}, func(row domain.EmbeddedField) error {
		got = append(got, row.ChunkID+"/"+row.Field.String())
		assert.Equal(t, "done", row.DocumentID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/content", "b/content", "b/notes"}, got)

	got = nil
	err = chunks.StreamEmbeddedFields(ctx,
		domain.EmbeddedFieldFilter{Model: "m", Fields: []domain.ChunkField{domain.FieldNotes}},
		func(row domain.EmbeddedField) error {
			got = append(got, row.ChunkID+"/"+row.Field.String())
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"b/notes"}, got)
}

func TestStreamEmbeddedFields_StopsOnCallbackError(t *testing.T) {
	store := setupTestStore(t)
	createTestDocument(t, store, "doc", domain.DocumentStatusCompleted)
	createTestChunk(t, store, domain.Chunk{ID: "a", DocumentID: "doc", Content: "a"})
	createTestChunk(t, store, domain.Chunk{ID: "b", DocumentID: "doc", Content: "b"})
	saveVector(t, store, "a", domain.FieldContent, "m", []float32{1})
	saveVector(t, store, "b", domain.FieldContent, "m", []float32{1})

	stop := errors.New("stop")
	calls := 0
	err := store.ChunkStore().StreamEmbeddedFields(context.Background(), domain.EmbeddedFieldFilter{},
		func(domain.EmbeddedField) error {
			calls++
			return stop
		})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestGetChunks_OmitsMissing(t *testing.T) {
	store := setupTestStore(t)
	createTestDocument(t, store, "doc", domain.DocumentStatusCompleted)
	createTestChunk(t, store, domain.Chunk{ID: "a", DocumentID: "doc", Content: "a", Metadata: map[string]any{"page": float64(3)}})

	got, err := store.ChunkStore().GetChunks(context.Background(), []string{"a", "ghost"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float64(3), got["a"].Metadata["page"])
}

func TestListChunksMissingEmbeddings(t *testing.T) {
	store := setupTestStore(t)
	chunks := store.ChunkStore()
	ctx := context.Background()

	createTestDocument(t, store, "doc", domain.DocumentStatusCompleted)
	createTestDocument(t, store, "pending", domain.DocumentStatusPending)
	createTestChunk(t, store, domain.Chunk{ID: "c2", DocumentID: "doc", Position: 2, Content: "two", Notes: "note"})
	createTestChunk(t, store, domain.Chunk{ID: "c1", DocumentID: "doc", Position: 1, Content: "one"})
	createTestChunk(t, store, domain.Chunk{ID: "c3", DocumentID: "doc", Position: 3, Content: "three", Notes: "  \n"})
	createTestChunk(t, store, domain.Chunk{ID: "p1", DocumentID: "pending", Content: "pending"})
	saveVector(t, store, "c1", domain.FieldContent, "m", []float32{1})
	saveVector(t, store, "c2", domain.FieldContent, "m", []float32{1})
	saveVector(t, store, "c3", domain.FieldContent, "m", []float32{1})

	missing, err := chunks.ListChunksMissingEmbeddings(ctx, "m", nil, 0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "c2", missing[0].ID, "only c2 has a non-blank field without a vector")

	missing, err = chunks.ListChunksMissingEmbeddings(ctx, "other", []domain.ChunkField{domain.FieldContent}, 2)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, "c1", missing[0].ID)
	assert.Equal(t, "c2", missing[1].ID)
}

func TestCacheStore_InsertAndFind(t *testing.T) {
	store := setupTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := &domain.CacheEntry{
		ID: "e1", QueryText: "what is rag", QueryEmbedding: domain.EncodeVector([]float32{1, 0}),
		Model: "m", ResponseText: "retrieval augmented generation", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, cache.Insert(ctx, entry))

	dup := *entry
	dup.ID = "e2"
	assert.ErrorIs(t, cache.Insert(ctx, &dup), domain.ErrAlreadyExists)

	got, err := cache.FindByText(ctx, "what is rag")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "e1", got.ID)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.True(t, now.Add(time.Hour).Equal(got.ExpiresAt))
	assert.Equal(t, entry.QueryEmbedding, got.QueryEmbedding)

	missing, err := cache.FindByText(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCacheStore_Replace(t *testing.T) {
	store := setupTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, cache.Insert(ctx, &domain.CacheEntry{ID: "old", QueryText: "q", ResponseText: "v1", CreatedAt: now}))
	require.NoError(t, cache.Replace(ctx, &domain.CacheEntry{ID: "new", QueryText: "q", ResponseText: "v2", CreatedAt: now}))

	got, err := cache.FindByText(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)
	assert.Equal(t, "v2", got.ResponseText)

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCacheStore_ListSinceAndPurge(t *testing.T) {
	store := setupTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, e := range []domain.CacheEntry{
		{ID: "old", QueryText: "old", Model: "m", ResponseText: "r", CreatedAt: base},
		{ID: "mid", QueryText: "mid", Model: "m", ResponseText: "r", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "new", QueryText: "new", Model: "m", ResponseText: "r", CreatedAt: base.Add(3 * time.Hour)},
		{ID: "ttl", QueryText: "ttl", Model: "x", ResponseText: "r", CreatedAt: base.Add(3 * time.Hour), ExpiresAt: base.Add(4 * time.Hour)},
	} {
		entry := e
		require.NoError(t, cache.Insert(ctx, &entry))
	}

	recent, err := cache.ListSince(ctx, "m", base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].ID)
	assert.Equal(t, "mid", recent[1].ID)

	all, err := cache.ListSince(ctx, "", base)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	removed, err := cache.DeleteOlderThan(ctx, base.Add(time.Hour), base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "old by age, ttl by its own expiry")

	removed, err = cache.DeleteOlderThan(ctx, base.Add(time.Hour), base.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCacheStore_ZeroTimeBounds(t *testing.T) {
	store := setupTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, e := range []domain.CacheEntry{
		{ID: "ancient", QueryText: "ancient", Model: "m", ResponseText: "r", CreatedAt: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "recent", QueryText: "recent", Model: "m", ResponseText: "r", CreatedAt: base},
		{ID: "ttl", QueryText: "ttl", Model: "m", ResponseText: "r", CreatedAt: base, ExpiresAt: base.Add(time.Minute)},
	} {
		entry := e
		require.NoError(t, cache.Insert(ctx, &entry))
	}

	all, err := cache.ListSince(ctx, "", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "a zero since has no age bound")

	removed, err := cache.DeleteOlderThan(ctx, time.Time{}, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed, "a zero cutoff only removes expired entries")

	n, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_DatabaseErrors(t *testing.T) {
	dbErr := errors.New("disk I/O error")

	t.Run("count", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("SELECT COUNT").WillReturnError(dbErr)

		_, err = newStoreWithDB(db, "mock").CacheStore().Count(context.Background())

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectExec("INSERT INTO semantic_cache").WillReturnError(dbErr)

		err = newStoreWithDB(db, "mock").CacheStore().Insert(context.Background(),
			&domain.CacheEntry{ID: "e", QueryText: "q", ResponseText: "r"})

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stream", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("FROM chunk_embeddings").WillReturnError(dbErr)

		err = newStoreWithDB(db, "mock").ChunkStore().StreamEmbeddedFields(context.Background(),
			domain.EmbeddedFieldFilter{}, func(domain.EmbeddedField) error { return nil })

		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("save chunk rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT 1 FROM documents").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectQuery("FROM chunks").WillReturnError(dbErr)
		mock.ExpectRollback()

		err = newStoreWithDB(db, "mock").ChunkStore().SaveChunk(context.Background(),
			&domain.Chunk{ID: "c", DocumentID: "d", Content: "x"})

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ping", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing().WillReturnError(dbErr)

		err = newStoreWithDB(db, "mock").Ping(context.Background())

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestSaveEmbedding_StaleSourceText(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	chunks := store.ChunkStore()
	createTestDocument(t, store, "doc-1", domain.DocumentStatusCompleted)
	createTestChunk(t, store, domain.Chunk{ID: "c1", DocumentID: "doc-1", Content: "body", Notes: "new notes"})

	emb := &domain.Embedding{
		ChunkID:    "c1",
		Field:      domain.FieldNotes,
		Model:      "m",
		Vector:     domain.EncodeVector([]float32{1, 0}),
		Dimension:  2,
		SourceText: "old notes",
	}
	err := chunks.SaveEmbedding(ctx, emb)
	require.ErrorIs(t, err, domain.ErrStaleEmbedding)

	has, err := chunks.HasEmbedding(ctx, "c1", domain.FieldNotes, "m")
	require.NoError(t, err)
	assert.False(t, has)

	emb.SourceText = "new notes"
	require.NoError(t, chunks.SaveEmbedding(ctx, emb))
	has, err = chunks.HasEmbedding(ctx, "c1", domain.FieldNotes, "m")
	require.NoError(t, err)
	assert.True(t, has)
}
