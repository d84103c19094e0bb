package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for sercha-rag resources.
	uriScheme = "sercha-rag://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the active retrieval defaults.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Retrieval and cache defaults used by the search tools",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)

	// Template for document metadata.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Metadata and processing status of a document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)

	// Template for chunk text.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "chunks/{chunkId}",
		Name:        "chunk",
		Description: "Full text of a chunk returned by search",
		MIMEType:    "text/plain",
	}, s.handleChunkResource)
}

// handleSettingsResource returns the retrieval and cache defaults.
// Provider credentials are never part of the payload.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	settings := domain.DefaultAppSettings()
	if s.ports.Settings != nil {
		current, err := s.ports.Settings.Get()
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		if current != nil {
			settings = *current
		}
	}

	type settingsInfo struct {
		TopK             int     `json:"top_k"`
		Threshold        float64 `json:"threshold"`
		Provider         string  `json:"provider,omitempty"`
		IncludeHeader    bool    `json:"include_header_context"`
		IncludeNotes     bool    `json:"include_notes"`
		IncludeDetails   bool    `json:"include_details"`
		CacheEnabled     bool    `json:"cache_enabled"`
		CacheThreshold   float64 `json:"cache_threshold"`
		CacheMaxAgeHours float64 `json:"cache_max_age_hours"`
	}

	data, err := json.MarshalIndent(settingsInfo{
		TopK:             settings.Retrieval.TopK,
		Threshold:        settings.Retrieval.Threshold,
		Provider:         settings.Retrieval.Provider.String(),
		IncludeHeader:    settings.Retrieval.IncludeHeaderContext,
		IncludeNotes:     settings.Retrieval.IncludeNotes,
		IncludeDetails:   settings.Retrieval.IncludeDetails,
		CacheEnabled:     settings.Cache.Enabled,
		CacheThreshold:   settings.Cache.Threshold,
		CacheMaxAgeHours: settings.Cache.MaxAge.Hours(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentResource returns metadata for a specific document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract documentId from URI: sercha-rag://documents/{documentId}
	docID := extractID(req.Params.URI, "documents/")
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	type docInfo struct {
		ID        string         `json:"id"`
		Title     string         `json:"title"`
		URI       string         `json:"uri"`
		Status    string         `json:"status"`
		Metadata  map[string]any `json:"metadata,omitempty"`
		UpdatedAt time.Time      `json:"updated_at"`
	}

	data, err := json.MarshalIndent(docInfo{
		ID:        doc.ID,
		Title:     doc.Title,
		URI:       doc.URI,
		Status:    string(doc.Status),
		Metadata:  doc.Metadata,
		UpdatedAt: doc.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleChunkResource returns the text of a specific chunk.
func (s *Server) handleChunkResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunkID := extractID(req.Params.URI, "chunks/")
	if chunkID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunk, err := s.ports.Document.GetChunk(ctx, chunkID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting chunk: %w", err)
	}

	var b strings.Builder
	if chunk.HeaderContext != "" {
		b.WriteString(chunk.HeaderContext)
		b.WriteString("\n\n")
	}
	b.WriteString(chunk.Content)

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		}},
	}, nil
}

// extractID extracts the trailing ID from a URI like sercha-rag://{kind}{id}.
// IDs containing a slash are rejected.
func extractID(uri, kind string) string {
	prefix := uriScheme + kind
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
