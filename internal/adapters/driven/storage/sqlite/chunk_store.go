package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// fieldOrderSQL orders embedding rows by canonical field position.
const fieldOrderSQL = `CASE e.field
	WHEN 'content' THEN 0
	WHEN 'header_context' THEN 1
	WHEN 'notes' THEN 2
	WHEN 'details' THEN 3
	ELSE 4 END`

// blankTrim strips the whitespace strings.TrimSpace would for ASCII text.
const blankTrim = `' ' || char(9) || char(10) || char(13)`

// SaveDocument stores or updates a document.
func (s *chunkStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id required", domain.ErrInvalidInput)
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusPending
	}
	if !doc.Status.IsValid() {
		return fmt.Errorf("%w: document status %q", domain.ErrInvalidInput, doc.Status)
	}

	metadata, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, uri, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			uri = excluded.uri,
			status = excluded.status,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.URI, string(doc.Status), metadata,
		toUnix(doc.CreatedAt), toUnix(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *chunkStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, uri, status, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	var status, metadata string
	var createdAt, updatedAt int64
	if err := row.Scan(&doc.ID, &doc.Title, &doc.URI, &status, &metadata, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err, "document", id)
	}

	m, err := unmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	doc.Metadata = m
	doc.CreatedAt = fromUnix(createdAt)
	doc.UpdatedAt = fromUnix(updatedAt)
	return &doc, nil
}

// SetDocumentStatus updates a document's processing status.
func (s *chunkStore) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: document status %q", domain.ErrInvalidInput, status)
	}

	res, err := s.store.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = ? WHERE id = ?",
		string(status), toUnix(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
	}
	return requireAffected(res, "document", id)
}

// DeleteDocument removes a document; chunks and embeddings cascade.
func (s *chunkStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res, "document", id)
}

// SaveChunk stores or updates a chunk and drops the embeddings of every
// field whose text changed, in one transaction.
func (s *chunkStore) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk == nil || chunk.ID == "" || chunk.DocumentID == "" {
		return fmt.Errorf("%w: chunk and document id required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(chunk.Content) == "" {
		return fmt.Errorf("%w: chunk content required", domain.ErrInvalidInput)
	}
	if chunk.UpdatedAt.IsZero() {
		chunk.UpdatedAt = time.Now().UTC()
	}

	metadata, err := marshalMetadata(chunk.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", chunk.DocumentID).Scan(&exists); err != nil {
		return notFound(err, "document", chunk.DocumentID)
	}

	old, err := loadChunk(tx.QueryRowContext(ctx, chunkSelect+" WHERE id = ?", chunk.ID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("loading chunk: %w", err)
	}

	changed := chunk.ChangedFields(old)
	if old != nil && old.DocumentID != chunk.DocumentID {
		changed = domain.AllChunkFields()
	}
	if len(changed) > 0 {
		args := []any{chunk.ID}
		for _, f := range changed {
			args = append(args, string(f))
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM chunk_embeddings WHERE chunk_id = ? AND field IN ("+placeholders(len(changed))+")",
			args...); err != nil {
			return fmt.Errorf("dropping stale embeddings: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, header_context, notes, details, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			content = excluded.content,
			header_context = excluded.header_context,
			notes = excluded.notes,
			details = excluded.details,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, chunk.ID, chunk.DocumentID, chunk.Position, chunk.Content, chunk.HeaderContext,
		chunk.Notes, chunk.Details, metadata, toUnix(chunk.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *chunkStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	c, err := loadChunk(s.store.db.QueryRowContext(ctx, chunkSelect+" WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "chunk", id)
	}
	return c, nil
}

// GetChunks retrieves chunks by ID, omitting missing ones.
func (s *chunkStore) GetChunks(ctx context.Context, ids []string) (map[string]domain.Chunk, error) {
	out := make(map[string]domain.Chunk, len(ids))
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		batch := ids[start:end]

		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		rows, err := s.store.db.QueryContext(ctx,
			chunkSelect+" WHERE id IN ("+placeholders(len(batch))+")", args...)
		if err != nil {
			return nil, fmt.Errorf("querying chunks: %w", err)
		}
		for rows.Next() {
			c, err := loadChunk(rows)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning chunk: %w", err)
			}
			out[c.ID] = *c
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating chunks: %w", err)
		}
	}
	return out, nil
}

// SaveEmbedding stores the embedding for (chunk, field, model).
func (s *chunkStore) SaveEmbedding(ctx context.Context, emb *domain.Embedding) error {
	if emb == nil || !emb.Field.IsValid() || emb.Model == "" {
		return fmt.Errorf("%w: embedding needs a valid field and model", domain.ErrInvalidInput)
	}
	if !domain.IsValidVector(emb.Vector, emb.Dimension) {
		return fmt.Errorf("%w: chunk %s field %s", domain.ErrInvalidEmbedding, emb.ChunkID, emb.Field)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// The field check and the write share a transaction so a concurrent
	// SaveChunk cannot slip a text change in between.
	chunk, err := loadChunk(tx.QueryRowContext(ctx, chunkSelect+" WHERE c.id = ?", emb.ChunkID))
	if err != nil {
		return notFound(err, "chunk", emb.ChunkID)
	}
	if emb.SourceText != "" && chunk.FieldText(emb.Field) != emb.SourceText {
		return fmt.Errorf("chunk %s field %s: %w", emb.ChunkID, emb.Field, domain.ErrStaleEmbedding)
	}

	createdAt := emb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunk_embeddings (chunk_id, document_id, field, model, vector, dimension, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id, field, model) DO UPDATE SET
			document_id = excluded.document_id,
			vector = excluded.vector,
			dimension = excluded.dimension,
			created_at = excluded.created_at
	`, emb.ChunkID, chunk.DocumentID, string(emb.Field), emb.Model, emb.Vector,
		domain.VectorDimension(emb.Vector), toUnix(createdAt))
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing embedding: %w", err)
	}
	return nil
}

// HasEmbedding reports whether (chunk, field, model) has an embedding.
func (s *chunkStore) HasEmbedding(ctx context.Context, chunkID string, field domain.ChunkField, model string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM chunk_embeddings WHERE chunk_id = ? AND field = ? AND model = ?",
		chunkID, string(field), model).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking embedding: %w", err)
	default:
		return true, nil
	}
}

// StreamEmbeddedFields streams matching embeddings of completed documents,
// ordered by chunk ID then field order.
func (s *chunkStore) StreamEmbeddedFields(
	ctx context.Context, filter domain.EmbeddedFieldFilter, fn func(domain.EmbeddedField) error,
) error {
	query := `
		SELECT e.chunk_id, e.document_id, e.field, e.model, e.vector
		FROM chunk_embeddings e
		JOIN documents d ON d.id = e.document_id
		WHERE d.status = ?`
	args := []any{string(domain.DocumentStatusCompleted)}

	if filter.Model != "" {
		query += " AND e.model = ?"
		args = append(args, filter.Model)
	}
	if len(filter.Fields) > 0 {
		query += " AND e.field IN (" + placeholders(len(filter.Fields)) + ")"
		for _, f := range filter.Fields {
			args = append(args, string(f))
		}
	}
	query += " ORDER BY e.chunk_id, " + fieldOrderSQL

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row domain.EmbeddedField
		var field string
		if err := rows.Scan(&row.ChunkID, &row.DocumentID, &field, &row.Model, &row.Vector); err != nil {
			return fmt.Errorf("scanning embedding: %w", err)
		}
		row.Field = domain.ChunkField(field)
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating embeddings: %w", err)
	}
	return nil
}

// ListChunksMissingEmbeddings returns chunks of completed documents that have
// a non-blank field among fields without an embedding for model.
func (s *chunkStore) ListChunksMissingEmbeddings(
	ctx context.Context, model string, fields []domain.ChunkField, limit int,
) ([]domain.Chunk, error) {
	if len(fields) == 0 {
		fields = domain.AllChunkFields()
	}

	var missing []string
	args := []any{string(domain.DocumentStatusCompleted)}
	for _, f := range fields {
		if !f.IsValid() {
			return nil, fmt.Errorf("%w: field %q", domain.ErrInvalidInput, f)
		}
		// The field name doubles as its column name.
		missing = append(missing, fmt.Sprintf(
			`(trim(c.%s, %s) <> '' AND NOT EXISTS (
				SELECT 1 FROM chunk_embeddings e
				WHERE e.chunk_id = c.id AND e.field = ? AND e.model = ?))`, f, blankTrim))
		args = append(args, string(f), model)
	}

	query := strings.Replace(chunkSelect, "FROM chunks c", "FROM chunks c JOIN documents d ON d.id = c.document_id", 1) +
		" WHERE d.status = ? AND (" + strings.Join(missing, " OR ") + ")" +
		" ORDER BY c.document_id, c.position"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		c, err := loadChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return out, nil
}

// chunkSelect lists chunk columns in loadChunk's scan order.
const chunkSelect = `SELECT c.id, c.document_id, c.position, c.content, c.header_context,
	c.notes, c.details, c.metadata, c.updated_at FROM chunks c`

type scanner interface {
	Scan(dest ...any) error
}

// loadChunk scans one chunk row. It returns sql.ErrNoRows unwrapped.
func loadChunk(row scanner) (*domain.Chunk, error) {
	var c domain.Chunk
	var metadata string
	var updatedAt int64
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Position, &c.Content, &c.HeaderContext,
		&c.Notes, &c.Details, &metadata, &updatedAt); err != nil {
		return nil, err
	}
	m, err := unmarshalMetadata(metadata)
	if err != nil {
		return nil, err
	}
	c.Metadata = m
	c.UpdatedAt = fromUnix(updatedAt)
	return &c, nil
}

func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s update: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
