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

// cacheStore implements driven.CacheStore.
// Query text is unique in the table, so FindByText sees at most one row.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

const cacheSelect = `SELECT id, query_text, query_embedding, model, response_text, created_at, expires_at
	FROM semantic_cache`

// Insert stores a new entry unless one with identical text exists.
func (s *cacheStore) Insert(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%w: cache entry id required", domain.ErrInvalidInput)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO semantic_cache (id, query_text, query_embedding, model, response_text, created_at, expires_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM semantic_cache WHERE query_text = ?)
	`, entry.ID, entry.QueryText, entry.QueryEmbedding, entry.Model, entry.ResponseText,
		toUnix(entry.CreatedAt), nullUnix(entry.ExpiresAt), entry.QueryText)
	if err != nil {
		return fmt.Errorf("inserting cache entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking cache insert: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Replace stores an entry, removing any entry with identical text.
func (s *cacheStore) Replace(ctx context.Context, entry *domain.CacheEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("%w: cache entry id required", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM semantic_cache WHERE query_text = ? OR id = ?",
		entry.QueryText, entry.ID); err != nil {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO semantic_cache (id, query_text, query_embedding, model, response_text, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.QueryText, entry.QueryEmbedding, entry.Model, entry.ResponseText,
		toUnix(entry.CreatedAt), nullUnix(entry.ExpiresAt)); err != nil {
		return fmt.Errorf("inserting cache entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// FindByText returns the entry with identical query text, or nil.
func (s *cacheStore) FindByText(ctx context.Context, queryText string) (*domain.CacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, cacheSelect+" WHERE query_text = ? ORDER BY created_at DESC LIMIT 1", queryText)
	entry, err := scanCacheEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}
	return entry, nil
}

// ListSince returns entries created at or after since, newest first.
// A zero since applies no age bound.
func (s *cacheStore) ListSince(ctx context.Context, model string, since time.Time) ([]domain.CacheEntry, error) {
	var where []string
	var args []any
	if !since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, toUnix(since))
	}
	if model != "" {
		where = append(where, "model = ?")
		args = append(args, model)
	}
	query := cacheSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}
	defer rows.Close()

	var out []domain.CacheEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanCacheEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		out = append(out, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache: %w", err)
	}
	return out, nil
}

// DeleteOlderThan removes entries created before cutoff or past their expiry.
// A zero cutoff only removes expired entries.
func (s *cacheStore) DeleteOlderThan(ctx context.Context, cutoff, now time.Time) (int, error) {
	query := "DELETE FROM semantic_cache WHERE (expires_at IS NOT NULL AND expires_at <= ?)"
	args := []any{toUnix(now)}
	if !cutoff.IsZero() {
		query += " OR created_at < ?"
		args = append(args, toUnix(cutoff))
	}
	res, err := s.store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking cache purge: %w", err)
	}
	return int(n), nil
}

// Count returns the number of stored entries.
func (s *cacheStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM semantic_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache: %w", err)
	}
	return n, nil
}

func scanCacheEntry(row scanner) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	var createdAt int64
	var expiresAt sql.NullInt64
	if err := row.Scan(&e.ID, &e.QueryText, &e.QueryEmbedding, &e.Model, &e.ResponseText,
		&createdAt, &expiresAt); err != nil {
		return nil, err
	}
	e.CreatedAt = fromUnix(createdAt)
	e.ExpiresAt = fromNullUnix(expiresAt)
	return &e, nil
}
