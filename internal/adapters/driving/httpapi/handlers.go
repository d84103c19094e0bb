package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// maxBodyBytes caps request bodies; cached responses are the largest payloads.
const maxBodyBytes = 4 << 20

type searchRequest struct {
	Query                string   `json:"query" validate:"required"`
	TopK                 *int     `json:"top_k" validate:"omitempty,min=0,max=50"`
	Threshold            *float64 `json:"threshold" validate:"omitempty,gte=0,lte=1"`
	Provider             string   `json:"provider" validate:"omitempty,oneof=openai voyage gemini ollama mock"`
	Model                string   `json:"model"`
	IncludeHeaderContext *bool    `json:"include_header_context"`
	IncludeNotes         *bool    `json:"include_notes"`
	IncludeDetails       *bool    `json:"include_details"`
}

type fieldMatchJSON struct {
	Field      string  `json:"field"`
	Similarity float64 `json:"similarity"`
}

type searchResultJSON struct {
	ChunkID       string           `json:"chunk_id"`
	DocumentID    string           `json:"document_id"`
	Similarity    float64          `json:"similarity"`
	BestField     string           `json:"best_field"`
	MatchedFields []fieldMatchJSON `json:"matched_fields"`
	Content       string           `json:"content"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
}

type searchResponse struct {
	Results []searchResultJSON `json:"results"`
}

type cacheLookupRequest struct {
	Query     string   `json:"query" validate:"required"`
	Threshold *float64 `json:"threshold" validate:"omitempty,gte=0,lte=1"`
	ExactOnly bool     `json:"exact_only"`
	Provider  string   `json:"provider" validate:"omitempty,oneof=openai voyage gemini ollama mock"`
}

type cacheEntryJSON struct {
	ID        string     `json:"id"`
	Query     string     `json:"query"`
	Response  string     `json:"response"`
	Model     string     `json:"model"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type cacheLookupResponse struct {
	Hit        bool            `json:"hit"`
	Exact      bool            `json:"exact,omitempty"`
	Similarity float64         `json:"similarity,omitempty"`
	Entry      *cacheEntryJSON `json:"entry,omitempty"`
}

type cacheStoreRequest struct {
	Query      string `json:"query" validate:"required"`
	Response   string `json:"response" validate:"required"`
	TTLSeconds int    `json:"ttl_seconds" validate:"min=0"`
	Overwrite  bool   `json:"overwrite"`
	Provider   string `json:"provider" validate:"omitempty,oneof=openai voyage gemini ollama mock"`
}

type cacheStoreResponse struct {
	Stored bool `json:"stored"`
}

type purgeResponse struct {
	Deleted int `json:"deleted"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type handlers struct {
	ports *Ports
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	opts := h.defaults().SearchOptions()
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
	}
	if req.Provider != "" {
		opts.Provider = domain.AIProvider(req.Provider)
	}
	opts.Model = req.Model
	if req.IncludeHeaderContext != nil {
		opts.IncludeHeaderContext = *req.IncludeHeaderContext
	}
	if req.IncludeNotes != nil {
		opts.IncludeNotes = *req.IncludeNotes
	}
	if req.IncludeDetails != nil {
		opts.IncludeDetails = *req.IncludeDetails
	}

	results, err := h.ports.Search.Search(r.Context(), req.Query, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := searchResponse{Results: make([]searchResultJSON, 0, len(results))}
	for _, res := range results {
		matches := make([]fieldMatchJSON, 0, len(res.MatchedFields))
		for _, m := range res.MatchedFields {
			matches = append(matches, fieldMatchJSON{Field: m.Field.String(), Similarity: m.Similarity})
		}
		resp.Results = append(resp.Results, searchResultJSON{
			ChunkID:       res.ChunkID,
			DocumentID:    res.DocumentID,
			Similarity:    res.MaxSimilarity,
			BestField:     res.BestField.String(),
			MatchedFields: matches,
			Content:       res.Content,
			Metadata:      res.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) cacheLookup(w http.ResponseWriter, r *http.Request) {
	if h.ports.Cache == nil {
		writeServiceError(w, fmt.Errorf("%w: cache service not configured", domain.ErrNotImplemented))
		return
	}
	var req cacheLookupRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	opts := domain.CacheLookupOptions{
		Threshold: req.Threshold,
		ExactOnly: req.ExactOnly,
		Provider:  domain.AIProvider(req.Provider),
	}

	hit, err := h.ports.Cache.Lookup(r.Context(), req.Query, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if hit == nil {
		writeJSON(w, http.StatusOK, cacheLookupResponse{})
		return
	}
	writeJSON(w, http.StatusOK, cacheLookupResponse{
		Hit:        true,
		Exact:      hit.Exact,
		Similarity: hit.Similarity,
		Entry:      toCacheEntryJSON(hit.Entry),
	})
}

func (h *handlers) cacheStore(w http.ResponseWriter, r *http.Request) {
	if h.ports.Cache == nil {
		writeServiceError(w, fmt.Errorf("%w: cache service not configured", domain.ErrNotImplemented))
		return
	}
	var req cacheStoreRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}

	stored, err := h.ports.Cache.Store(r.Context(), req.Query, req.Response, domain.CacheStoreOptions{
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
		Overwrite: req.Overwrite,
		Provider:  domain.AIProvider(req.Provider),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusCreated
	if !stored {
		status = http.StatusOK
	}
	writeJSON(w, status, cacheStoreResponse{Stored: stored})
}

func (h *handlers) cachePurge(w http.ResponseWriter, r *http.Request) {
	if h.ports.Cache == nil {
		writeServiceError(w, fmt.Errorf("%w: cache service not configured", domain.ErrNotImplemented))
		return
	}

	var maxAge time.Duration
	if raw := r.URL.Query().Get("max_age"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeServiceError(w, &ValidationError{Fields: map[string]string{"max_age": "max_age must be a positive duration such as 24h"}})
			return
		}
		maxAge = d
	}

	n, err := h.ports.Cache.Purge(r.Context(), maxAge)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	logger.Info("Purged %d cache entries", n)
	writeJSON(w, http.StatusOK, purgeResponse{Deleted: n})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.ports.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ports.Health(ctx); err != nil {
			logger.Warn("health check failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: codeUnavailable, Message: "storage unreachable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// defaults returns the configured retrieval settings, falling back to the
// built-in defaults when settings are unavailable.
func (h *handlers) defaults() domain.RetrievalSettings {
	if h.ports.Settings != nil {
		if s, err := h.ports.Settings.Get(); err == nil && s != nil {
			return s.Retrieval
		}
	}
	return domain.DefaultAppSettings().Retrieval
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrInvalidInput, maxErr.Limit)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return validateStruct(dst)
}

func toCacheEntryJSON(e *domain.CacheEntry) *cacheEntryJSON {
	if e == nil {
		return nil
	}
	out := &cacheEntryJSON{
		ID:        e.ID,
		Query:     e.QueryText,
		Response:  e.ResponseText,
		Model:     e.Model,
		CreatedAt: e.CreatedAt,
	}
	if !e.ExpiresAt.IsZero() {
		t := e.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}
