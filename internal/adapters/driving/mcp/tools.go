package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query                string   `json:"query" jsonschema:"the natural language query"`
	TopK                 int      `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default from settings, at most 50)"`
	Threshold            *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity between 0 and 1"`
	Provider             string   `json:"provider,omitempty" jsonschema:"preferred embedding provider"`
	IncludeHeaderContext *bool    `json:"include_header_context,omitempty" jsonschema:"also match heading paths"`
	IncludeNotes         *bool    `json:"include_notes,omitempty" jsonschema:"also match chunk notes"`
	IncludeDetails       *bool    `json:"include_details,omitempty" jsonschema:"also match chunk details"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Similarity float64 `json:"similarity"`
	BestField  string  `json:"best_field"`
	Content    string  `json:"content"`
}

// CacheLookupInput is the input schema for the cache_lookup tool.
type CacheLookupInput struct {
	Query     string  `json:"query" jsonschema:"the query to look up"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity for a hit (default from settings)"`
	ExactOnly bool    `json:"exact_only,omitempty" jsonschema:"only match identical query text"`
}

// CacheLookupOutput is the output schema for the cache_lookup tool.
type CacheLookupOutput struct {
	Hit        bool    `json:"hit"`
	Exact      bool    `json:"exact,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Response   string  `json:"response,omitempty"`
}

// CacheStoreInput is the input schema for the cache_store tool.
type CacheStoreInput struct {
	Query      string `json:"query" jsonschema:"the query the response answers"`
	Response   string `json:"response" jsonschema:"the response to cache"`
	TTLSeconds int    `json:"ttl_seconds,omitempty" jsonschema:"entry lifetime in seconds (default from settings)"`
	Overwrite  bool   `json:"overwrite,omitempty" jsonschema:"replace an entry with the same query text"`
}

// CacheStoreOutput is the output schema for the cache_store tool.
type CacheStoreOutput struct {
	Stored bool `json:"stored"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search across indexed chunks, matching content and optionally headings, notes and details",
	}, s.handleSearch)

	if s.ports.Cache == nil {
		return
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cache_lookup",
		Description: "Find a previously cached response for a semantically similar query",
	}, s.handleCacheLookup)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cache_store",
		Description: "Cache a response for a query so similar queries can reuse it",
	}, s.handleCacheStore)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.retrievalDefaults().SearchOptions()
	if input.TopK > 0 {
		opts.TopK = input.TopK
	}
	if input.Threshold != nil {
		opts.Threshold = *input.Threshold
	}
	if input.Provider != "" {
		opts.Provider = domain.AIProvider(input.Provider)
	}
	if input.IncludeHeaderContext != nil {
		opts.IncludeHeaderContext = *input.IncludeHeaderContext
	}
	if input.IncludeNotes != nil {
		opts.IncludeNotes = *input.IncludeNotes
	}
	if input.IncludeDetails != nil {
		opts.IncludeDetails = *input.IncludeDetails
	}

	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].ChunkID,
			DocumentID: results[i].DocumentID,
			Similarity: results[i].MaxSimilarity,
			BestField:  results[i].BestField.String(),
			Content:    results[i].Content,
		}
	}

	return nil, output, nil
}

// handleCacheLookup handles the cache_lookup tool invocation.
func (s *Server) handleCacheLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CacheLookupInput,
) (*mcp.CallToolResult, CacheLookupOutput, error) {
	if s.ports.Cache == nil {
		return nil, CacheLookupOutput{}, ErrCacheUnavailable
	}

	hit, err := s.ports.Cache.Lookup(ctx, input.Query, domain.CacheLookupOptions{
		Threshold: input.Threshold,
		ExactOnly: input.ExactOnly,
	})
	if err != nil {
		return nil, CacheLookupOutput{}, err
	}
	if hit == nil || hit.Entry == nil {
		return nil, CacheLookupOutput{}, nil
	}

	return nil, CacheLookupOutput{
		Hit:        true,
		Exact:      hit.Exact,
		Similarity: hit.Similarity,
		Response:   hit.Entry.ResponseText,
	}, nil
}

// handleCacheStore handles the cache_store tool invocation.
func (s *Server) handleCacheStore(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CacheStoreInput,
) (*mcp.CallToolResult, CacheStoreOutput, error) {
	if s.ports.Cache == nil {
		return nil, CacheStoreOutput{}, ErrCacheUnavailable
	}

	stored, err := s.ports.Cache.Store(ctx, input.Query, input.Response, domain.CacheStoreOptions{
		TTL:       time.Duration(input.TTLSeconds) * time.Second,
		Overwrite: input.Overwrite,
	})
	if err != nil {
		return nil, CacheStoreOutput{}, err
	}
	return nil, CacheStoreOutput{Stored: stored}, nil
}

func (s *Server) retrievalDefaults() domain.RetrievalSettings {
	if s.ports.Settings != nil {
		if settings, err := s.ports.Settings.Get(); err == nil && settings != nil {
			return settings.Retrieval
		}
	}
	return domain.DefaultAppSettings().Retrieval
}
